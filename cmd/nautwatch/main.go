// Package main implements the nautwatch daemon and its helper commands.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// version information, set via -ldflags at build time
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	// configPath is the optional YAML config file
	configPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nautwatch",
		Short: "Auto-register new project directories with NautManager",
		Long: `nautwatch watches a directory tree and registers every new project
directory with the NautManager tracking API exactly once.

Running nautwatch without a subcommand starts the daemon.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         runDaemonCmd,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file (default ~/.config/nautwatch/config.yaml)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newTranslateCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "nautwatch by Fyrsmith Labs\n")
	fmt.Fprintf(w, "Version:    %s\n", version)
	fmt.Fprintf(w, "Commit:     %s\n", gitCommit)
	fmt.Fprintf(w, "Build Date: %s\n", buildDate)
}
