package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/domain/catalog"
	catalogrepo "github.com/kailas-cloud/gamedex/internal/repository/catalog"
)

// parquetGame mirrors the games table; list columns are comma-separated.
type parquetGame struct {
	ID             int64   `parquet:"id"`
	Title          string  `parquet:"title"`
	URL            string  `parquet:"url"`
	ReleaseDate    string  `parquet:"release_date"`
	PrimaryGenre   string  `parquet:"primary_genre"`
	Genres         string  `parquet:"genres"`
	SteamRating    float64 `parquet:"steam_rating"`
	PlatformRating float64 `parquet:"platform_rating"`
	Publisher      string  `parquet:"publisher"`
	Technologies   string  `parquet:"detected_technologies"`
	Developer      string  `parquet:"developer"`
	Awards         string  `parquet:"awards"`
}

const parquetBatch = 512

// importParquetGames streams a games parquet file into the catalog.
func importParquetGames(ctx context.Context, repo *catalogrepo.Repo, path string) (int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := parquet.NewGenericReader[parquetGame](f)
	defer r.Close()

	buf := make([]parquetGame, parquetBatch)
	n, row := 0, 0
	for {
		cnt, readErr := r.Read(buf)
		for _, g := range buf[:cnt] {
			row++
			it, err := catalog.New(g.ID, catalog.Attributes{
				Title:           g.Title,
				PrimaryCategory: g.PrimaryGenre,
				Categories:      splitTags(g.Genres),
				Quality:         g.SteamRating,
				Technologies:    splitTags(g.Technologies),
				Awards:          splitTags(g.Awards),
				Developer:       g.Developer,
				Publisher:       g.Publisher,
				URL:             g.URL,
				ReleaseDate:     g.ReleaseDate,
				PlatformRating:  g.PlatformRating,
			})
			if err != nil {
				logger.Warn("Skipping invalid game", zap.Int("row", row), zap.Error(err))
				continue
			}
			if err := repo.PutItem(ctx, it); err != nil {
				return n, err
			}
			n++
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return n, fmt.Errorf("read %s: %w", filepath.Base(path), readErr)
		}
	}
	return n, nil
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
