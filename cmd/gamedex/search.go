package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gamedex/internal/usecase/titlesearch"
)

type searchHit struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Developer string  `json:"developer,omitempty"`
	Distance  float64 `json:"distance"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Fuzzy search catalog titles",
	Long: `search ranks catalog items whose title contains every query token by summed
edit distance, breaking ties by how common the developer is among the
candidates. Numeric tokens such as edition years are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		maxDistance, _ := cmd.Flags().GetInt("max-distance")
		limit, _ := cmd.Flags().GetInt("limit")
		if !cmd.Flags().Changed("max-distance") {
			maxDistance = cfg.Search.MaxPerTokenDistance
		}
		if !cmd.Flags().Changed("limit") {
			limit = cfg.Search.Limit
		}

		repo, reader, err := openCatalog(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		matches, items, err := titlesearch.New(reader).Search(ctx, strings.Join(args, " "), maxDistance, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, it := range items {
			hit := searchHit{
				ID:        it.ID(),
				Title:     it.Title(),
				Developer: it.Developer(),
				Distance:  matches[i].Score(),
			}
			if err := printJSON(out, hit); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("max-distance", titlesearch.DefaultMaxPerTokenDistance, "maximum edit distance per query token")
	searchCmd.Flags().Int("limit", titlesearch.DefaultLimit, "maximum number of results")

	rootCmd.AddCommand(searchCmd)
}
