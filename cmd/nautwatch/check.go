package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/nautwatch/internal/config"
	"github.com/fyrsmithlabs/nautwatch/internal/pathmap"
	"github.com/fyrsmithlabs/nautwatch/internal/tracker"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and query the tracking API",
		Long: `Load and validate configuration, confirm the container watch path is a
readable directory, and issue one lookup against the tracking API.

Exits non-zero if any step fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return check(cmd.Context(), cmd, cfg)
		},
	}
}

func check(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	root, err := pathmap.NewRoot(cfg.Watch.ContainerPath, cfg.Watch.HostPath)
	if err != nil {
		return fmt.Errorf("watch root: %w", err)
	}
	info, err := os.Stat(root.ContainerPath)
	if err != nil {
		return fmt.Errorf("container watch path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("container watch path %s is not a directory", root.ContainerPath)
	}
	fmt.Fprintf(out, "Watch:    %s -> %s\n", root.ContainerPath, root.HostPath)
	fmt.Fprintf(out, "Debounce: %s\n", cfg.DebounceDelay())

	client, err := tracker.New(tracker.Options{
		BaseURL:   cfg.API.URL,
		Timeout:   cfg.API.Timeout.Duration(),
		UserAgent: "nautwatch/" + version,
	})
	if err != nil {
		return fmt.Errorf("tracking API client: %w", err)
	}
	projects, err := client.FindByPath(ctx, root.HostPath)
	if err != nil {
		return fmt.Errorf("querying tracking API at %s: %w", cfg.API.URL, err)
	}
	fmt.Fprintf(out, "API:      %s reachable (%d project(s) at watch root)\n", cfg.API.URL, len(projects))
	return nil
}
