package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"aller-discovery/internal/app"
	"aller-discovery/internal/indexer"
	"aller-discovery/internal/vectorstore"
)

type collectionState struct {
	vectorstore.CollectionInfo
	Problem string `json:"problem,omitempty"`
}

type statusReport struct {
	IndexVersion string            `json:"index_version"`
	Collections  []collectionState `json:"collections"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show point counts and vector sizes of the vector collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			infos, err := a.VectorStore.Describe(ctx, cfg.Collections.All())
			if err != nil {
				return fmt.Errorf("describe collections: %w", err)
			}

			report := statusReport{IndexVersion: indexer.IndexVersion(cfg.EmbeddingModelName)}
			for _, info := range infos {
				state := collectionState{CollectionInfo: info}
				if info.Exists && info.VectorSize != cfg.QdrantVectorSize {
					state.Problem = fmt.Sprintf("vector size %d, configured %d", info.VectorSize, cfg.QdrantVectorSize)
				}
				report.Collections = append(report.Collections, state)
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}
