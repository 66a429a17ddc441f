package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"aller-discovery/internal/app"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the query embedding cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every cached embedding for the configured model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.EmbedCache == nil {
				return errors.New("embedding cache is disabled; set REDIS_ADDR")
			}
			if err := a.EmbedCache.Purge(ctx); err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged embeddings for %s\n", cfg.EmbeddingModelName)
			return nil
		},
	})

	return cmd
}
