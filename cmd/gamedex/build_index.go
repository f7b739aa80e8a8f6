package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gamedex/internal/usecase/indexing"
)

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Train a new index generation over the whole catalog and publish it",
	Long: `build-index vectorizes every catalog item, trains the inverted-file index,
writes the artifact and publishes the generation together with its ordinal
table. Running services pick the new generation up on their next poll.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		repo, reader, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		reg, store, err := openRegistry(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		artifacts, err := openArtifacts()
		if err != nil {
			return err
		}
		vec, err := newVectorizer()
		if err != nil {
			return err
		}

		snap, err := indexing.NewBuilder(reader, vec, artifacts, reg, nil, ivfConfig(), logger).Build(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"generation":   snap.Generation,
			"version":      snap.Version,
			"vectors":      snap.Len(),
			"published_at": snap.PublishedAt,
		})
	},
}

func init() {
	rootCmd.AddCommand(buildIndexCmd)
}
