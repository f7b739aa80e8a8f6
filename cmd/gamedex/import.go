package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain/catalog"
	catalogrepo "github.com/kailas-cloud/gamedex/internal/repository/catalog"
)

// maxLineBytes bounds one JSON line.
const maxLineBytes = 4 << 20

type gameRecord struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	ReleaseDate    string   `json:"release_date"`
	PrimaryGenre   string   `json:"primary_genre"`
	Genres         []string `json:"genres"`
	SteamRating    float64  `json:"steam_rating"`
	PlatformRating float64  `json:"platform_rating"`
	Publisher      string   `json:"publisher"`
	Developer      string   `json:"developer"`
	Technologies   []string `json:"detected_technologies"`
	Awards         []string `json:"awards"`
}

type reviewRecord struct {
	GameID     int64   `json:"game_id"`
	User       string  `json:"user_nickname"`
	Date       string  `json:"review_date"`
	Rating     float64 `json:"rating"`
	Commentary string  `json:"commentary"`
}

type wishlistRecord struct {
	GameID int64  `json:"game_id"`
	User   string `json:"user_nickname"`
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load games, reviews and wishlists into the catalog",
	Long: `import reads JSON lines files, one object per line. Games may also come from
a .parquet file with the games table columns. Games replace existing rows with
the same id; wishlist repeats are ignored. Invalid games are logged and skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		games, _ := cmd.Flags().GetString("games")
		reviews, _ := cmd.Flags().GetString("reviews")
		wishlist, _ := cmd.Flags().GetString("wishlist")
		if games == "" && reviews == "" && wishlist == "" {
			return fmt.Errorf("at least one of --games, --reviews, --wishlist is required")
		}

		repo, err := catalogrepo.Open(catalogrepo.Config{
			DSN:          cfg.Catalog.DSN,
			MaxOpenConns: cfg.Catalog.MaxOpenConns,
		})
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer repo.Close()
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("catalog schema: %w", err)
		}

		counts := map[string]int{}
		if games != "" {
			if counts["games"], err = importGames(ctx, repo, games); err != nil {
				return err
			}
		}
		if reviews != "" {
			if counts["reviews"], err = importReviews(ctx, repo, reviews); err != nil {
				return err
			}
		}
		if wishlist != "" {
			if counts["wishlist"], err = importWishlist(ctx, repo, wishlist); err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), counts)
	},
}

func init() {
	importCmd.Flags().String("games", "", "games JSON lines or .parquet file")
	importCmd.Flags().String("reviews", "", "reviews JSON lines file")
	importCmd.Flags().String("wishlist", "", "wishlist JSON lines file")

	rootCmd.AddCommand(importCmd)
}

// importGames loads a JSON lines file, or a parquet file by extension.
func importGames(ctx context.Context, repo *catalogrepo.Repo, path string) (int, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return importParquetGames(ctx, repo, path)
	}
	n := 0
	err := readLines(path, func(line int, data []byte) error {
		var g gameRecord
		if err := json.Unmarshal(data, &g); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		it, err := catalog.New(g.ID, catalog.Attributes{
			Title:           g.Title,
			PrimaryCategory: g.PrimaryGenre,
			Categories:      g.Genres,
			Quality:         g.SteamRating,
			Technologies:    g.Technologies,
			Awards:          g.Awards,
			Developer:       g.Developer,
			Publisher:       g.Publisher,
			URL:             g.URL,
			ReleaseDate:     g.ReleaseDate,
			PlatformRating:  g.PlatformRating,
		})
		if err != nil {
			logger.Warn("Skipping invalid game", zap.Int("line", line), zap.Error(err))
			return nil
		}
		if err := repo.PutItem(ctx, it); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func importReviews(ctx context.Context, repo *catalogrepo.Repo, path string) (int, error) {
	n := 0
	err := readLines(path, func(line int, data []byte) error {
		var r reviewRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := repo.AddReview(ctx, catalog.Review{
			ItemID:     r.GameID,
			User:       r.User,
			Rating:     r.Rating,
			Date:       r.Date,
			Commentary: r.Commentary,
		}); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func importWishlist(ctx context.Context, repo *catalogrepo.Repo, path string) (int, error) {
	n := 0
	err := readLines(path, func(line int, data []byte) error {
		var w wishlistRecord
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := repo.AddWishlist(ctx, w.User, w.GameID); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// readLines calls fn for every non-empty line of path, numbered from 1.
func readLines(path string, fn func(line int, data []byte) error) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(line, sc.Bytes()); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
