package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/gamedex/internal/logger"
	"github.com/kailas-cloud/gamedex/internal/usecase/indexing"
	"github.com/kailas-cloud/gamedex/internal/usecase/recommend"
	"github.com/kailas-cloud/gamedex/internal/usecase/titlesearch"
)

type recommendation struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Quality         float64  `json:"quality"`
	PrimaryCategory string   `json:"primary_category,omitempty"`
	Categories      []string `json:"categories,omitempty"`
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <user>",
	Short: "Recommend games from a user's reviews and wishlist",
	Long: `recommend loads the current index generation, queries it once per seed item
(highly rated reviews, wishlist entries and titles similar to reviewed games)
and prints the union of neighbors above the quality threshold, ordered by id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := args[0]
		ctx, _ := logpkg.With(cmd.Context(), zap.String("user", user))
		k, _ := cmd.Flags().GetInt("k")
		if !cmd.Flags().Changed("k") {
			k = cfg.Recommend.NeighborsPerSeed
		}

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

		handle := &indexing.Handle{}
		loader := indexing.NewLoader(reg, artifacts, handle, vec.Version(), cfg.Index.NProbe, logger)
		if _, err := loader.Load(ctx); err != nil {
			return err
		}

		svc := recommend.New(reader, reader, titlesearch.New(reader), vec, handle, recommendConfig(), logger)
		items, err := svc.RecommendK(ctx, user, k)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, it := range items {
			rec := recommendation{
				ID:              it.ID(),
				Title:           it.Title(),
				Quality:         it.Quality(),
				PrimaryCategory: it.PrimaryCategory(),
				Categories:      it.Categories(),
			}
			if err := printJSON(out, rec); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().Int("k", recommend.DefaultConfig().NeighborsPerSeed, "neighbors per seed item")

	rootCmd.AddCommand(recommendCmd)
}
