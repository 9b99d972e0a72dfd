package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/nautwatch/internal/config"
	"github.com/fyrsmithlabs/nautwatch/internal/pathmap"
)

func newTranslateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "translate <path>",
		Short: "Print the host path for a container path",
		Long: `Translate a path inside the container watch root to the host path that
would be registered with the tracking API. Relative paths are resolved
against the container watch root.

Examples:
  nautwatch translate /watch/my-project
  nautwatch translate my-project`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			root, err := pathmap.NewRoot(cfg.Watch.ContainerPath, cfg.Watch.HostPath)
			if err != nil {
				return fmt.Errorf("watch root: %w", err)
			}

			p := args[0]
			if !filepath.IsAbs(p) {
				p = filepath.Join(root.ContainerPath, p)
			}
			host, err := root.ToHost(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), host)
			return nil
		},
	}
}
