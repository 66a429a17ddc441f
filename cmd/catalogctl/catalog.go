package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"aller-discovery/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(cfg.DBDriver, cfg.DSN())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := storage.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.json>",
		Short: "Import brands, ingredients and products from a JSON catalog",
		Long: `Import upserts every brand, ingredient and product of the file in one
transaction. A product's ingredient list is replaced by the imported one.
Run "catalogctl index" afterwards to refresh the vector index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := readCatalog(args[0])
			if err != nil {
				return err
			}

			db, err := storage.Open(cfg.DBDriver, cfg.DSN())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := storage.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			stats, err := storage.NewCatalogRepo(db).Import(ctx, catalog)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{
				"brands":      stats.Brands,
				"ingredients": stats.Ingredients,
				"products":    stats.Products,
			})
		},
	}
}

func readCatalog(path string) (*storage.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var catalog storage.Catalog
	if err := json.NewDecoder(f).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return &catalog, nil
}
