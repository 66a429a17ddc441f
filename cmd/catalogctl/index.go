package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"aller-discovery/internal/app"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed catalog names and feature snippets into the vector collections",
		Long: `Index embeds every brand, product and ingredient name and every product
feature snippet. Points are keyed by catalog ID, so re-running overwrites them
in place. Use --force to drop the collections first, which also removes
points for products deleted from the catalog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ValidateEmbeddings(ctx); err != nil {
				return err
			}

			if force {
				if err := a.Indexer.ClearAll(ctx); err != nil {
					return fmt.Errorf("clear collections: %w", err)
				}
				slog.InfoContext(ctx, "cleared all collections")
			}

			stats, indexErr := a.Indexer.IndexAll(ctx)
			if stats != nil {
				if err := printJSON(cmd.OutOrStdout(), stats); err != nil {
					return err
				}
			}
			return indexErr
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "drop the collections before indexing")
	return cmd
}
