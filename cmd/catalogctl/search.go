package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"aller-discovery/internal/app"
	"aller-discovery/internal/discovery"
	"aller-discovery/internal/handlers"
	"aller-discovery/internal/service"
)

func newSearchCmd() *cobra.Command {
	var (
		brand       string
		product     string
		ingredients []string
		features    []string
		category    string
		minPrice    int
		maxPrice    int
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog and print ranked products as JSON",
		Long: `Search runs a query through the discovery pipeline.

With only a query argument the text is analyzed by the language model first.
Any of the structured flags skips analysis and searches with exactly the
given brand, product, ingredients, features, category and price bounds.`,
		Example: `  catalogctl search "3만원 이하 촉촉한 선크림"
  catalogctl search --feature 촉촉 --feature 톤업 --max-price 30000 --category 선크림`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			req := service.SearchRequest{Limit: limit}
			if len(args) == 1 {
				req.Query = args[0]
			}

			flags := cmd.Flags()
			if flags.Changed("brand") || flags.Changed("product") || flags.Changed("ingredient") ||
				flags.Changed("feature") || flags.Changed("category") ||
				flags.Changed("min-price") || flags.Changed("max-price") {
				parsed := discovery.ParsedQuery{
					Brand:       optional(brand),
					Product:     optional(product),
					Ingredients: ingredients,
					Features:    features,
					Category:    optional(category),
				}
				if flags.Changed("min-price") {
					parsed.Price.Min = &minPrice
				}
				if flags.Changed("max-price") {
					parsed.Price.Max = &maxPrice
				}
				req.Parsed = &parsed
			}

			searchCtx, cancel := context.WithTimeout(ctx, cfg.SearchTimeout)
			defer cancel()

			resp, err := a.Search.Search(searchCtx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), handlers.SearchResponse{
				Outcome:  string(resp.Outcome),
				Message:  resp.Message,
				Parsed:   resp.Parsed,
				Resolved: resp.Resolved,
				Products: resp.Products,
				Degraded: resp.Degraded,
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&brand, "brand", "", "brand mention")
	f.StringVar(&product, "product", "", "product mention")
	f.StringArrayVar(&ingredients, "ingredient", nil, "ingredient mention (repeatable)")
	f.StringArrayVar(&features, "feature", nil, "feature phrase (repeatable)")
	f.StringVar(&category, "category", "", "category term")
	f.IntVar(&minPrice, "min-price", 0, "lowest price in won")
	f.IntVar(&maxPrice, "max-price", 0, "highest price in won")
	f.IntVar(&limit, "limit", 0, "maximum number of products (default from SEARCH_RESULT_LIMIT)")
	return cmd
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
