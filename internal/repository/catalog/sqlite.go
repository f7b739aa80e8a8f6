// Package catalog reads games, reviews and wishlists from the SQLite catalog.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/kailas-cloud/gamedex/internal/domain"
	domcat "github.com/kailas-cloud/gamedex/internal/domain/catalog"
)

// maxParams keeps IN lists under SQLite's bound-parameter limit.
const maxParams = 500

const gameColumns = `id, title, url, release_date, primary_genre, genres, steam_rating,
	platform_rating, publisher, detected_technologies, developer, awards`

// driverName is go-sqlite3 with a Unicode-aware unicode_lower(text) function.
// SQLite's own lower() and LIKE fold ASCII only.
const driverName = "sqlite3_gamedex"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(c *sqlite3.SQLiteConn) error {
			return c.RegisterFunc("unicode_lower", strings.ToLower, true)
		},
	})
}

// Config holds SQLite connection parameters.
type Config struct {
	DSN          string
	MaxOpenConns int
}

// Repo is the SQLite-backed catalog.
type Repo struct {
	db *sql.DB
}

// Open opens the catalog database.
func Open(cfg Config) (*Repo, error) {
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required")
	}
	conn, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return New(conn), nil
}

// New wraps an open database handle.
func New(conn *sql.DB) *Repo {
	return &Repo{db: conn}
}

// Close releases the database handle.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping catalog: %w", err)
	}
	return nil
}

// EnsureSchema creates the catalog tables if they do not exist.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			url TEXT,
			release_date TEXT,
			primary_genre TEXT,
			genres TEXT,
			steam_rating REAL,
			platform_rating REAL,
			publisher TEXT,
			detected_technologies TEXT,
			developer TEXT,
			awards TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_title ON games(title)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id INTEGER NOT NULL REFERENCES games(id),
			user_nickname TEXT NOT NULL,
			review_date TEXT,
			rating REAL,
			commentary TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_nickname)`,
		`CREATE TABLE IF NOT EXISTS users_wishlist (
			game_id INTEGER NOT NULL REFERENCES games(id),
			user_nickname TEXT NOT NULL,
			PRIMARY KEY (game_id, user_nickname)
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns one game by id.
func (r *Repo) Get(ctx context.Context, id int64) (domcat.Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domcat.Item{}, fmt.Errorf("game %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domcat.Item{}, fmt.Errorf("get game %d: %w", id, err)
	}
	return it, nil
}

// GetByTitle returns the first game whose title matches exactly.
func (r *Repo) GetByTitle(ctx context.Context, title string) (domcat.Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE title = ? ORDER BY id LIMIT 1`, title)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domcat.Item{}, fmt.Errorf("game %q: %w", title, domain.ErrNotFound)
	}
	if err != nil {
		return domcat.Item{}, fmt.Errorf("get game by title: %w", err)
	}
	return it, nil
}

// GetMany resolves ids in input order. Unknown and repeated ids are skipped.
func (r *Repo) GetMany(ctx context.Context, ids []int64) ([]domcat.Item, error) {
	byID := make(map[int64]domcat.Item, len(ids))
	for start := 0; start < len(ids); start += maxParams {
		chunk := ids[start:min(start+maxParams, len(ids))]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		query := `SELECT ` + gameColumns + ` FROM games WHERE id IN (` + placeholders(len(chunk)) + `)`
		items, err := r.queryItems(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("get games: %w", err)
		}
		for _, it := range items {
			byID[it.ID()] = it
		}
	}

	out := make([]domcat.Item, 0, len(byID))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
			delete(byID, id)
		}
	}
	return out, nil
}

// SearchTitles returns games whose lowercased title contains every token, ordered by id.
func (r *Repo) SearchTitles(ctx context.Context, tokens []string) ([]domcat.Item, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	conds := make([]string, len(tokens))
	args := make([]any, len(tokens))
	for i, t := range tokens {
		conds[i] = `unicode_lower(title) LIKE ? ESCAPE '\'`
		args[i] = "%" + escapeLike(strings.ToLower(t)) + "%"
	}
	query := `SELECT ` + gameColumns + ` FROM games WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY id`
	items, err := r.queryItems(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}
	return items, nil
}

// All returns the full catalog ordered by id.
func (r *Repo) All(ctx context.Context) ([]domcat.Item, error) {
	items, err := r.queryItems(ctx, `SELECT `+gameColumns+` FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return items, nil
}

// Reviews returns a user's reviews ordered by id. Unknown users have none.
func (r *Repo) Reviews(ctx context.Context, user string) ([]domcat.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, user_nickname, review_date, rating, commentary
		 FROM reviews WHERE user_nickname = ? ORDER BY id`, user)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var out []domcat.Review
	for rows.Next() {
		var (
			rv         domcat.Review
			date, text sql.NullString
			rating     sql.NullFloat64
		)
		if err := rows.Scan(&rv.ID, &rv.ItemID, &rv.User, &date, &rating, &text); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		rv.Date, rv.Rating, rv.Commentary = date.String, rating.Float64, text.String
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

// Wishlist returns the game ids a user wishlisted, ordered by id.
func (r *Repo) Wishlist(ctx context.Context, user string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id FROM users_wishlist WHERE user_nickname = ? ORDER BY game_id`, user)
	if err != nil {
		return nil, fmt.Errorf("query wishlist: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan wishlist: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist: %w", err)
	}
	return out, nil
}

// PutItem inserts or replaces a game.
func (r *Repo) PutItem(ctx context.Context, it domcat.Item) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO games (`+gameColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID(), it.Title(), it.URL(), it.ReleaseDate(), it.PrimaryCategory(),
		joinList(it.Categories()), it.Quality(), it.PlatformRating(), it.Publisher(),
		joinList(it.Technologies()), it.Developer(), joinList(it.Awards()),
	)
	if err != nil {
		return fmt.Errorf("put game %d: %w", it.ID(), err)
	}
	return nil
}

// AddReview stores a review and returns its id.
func (r *Repo) AddReview(ctx context.Context, rv domcat.Review) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (game_id, user_nickname, review_date, rating, commentary) VALUES (?, ?, ?, ?, ?)`,
		rv.ItemID, rv.User, rv.Date, rv.Rating, rv.Commentary)
	if err != nil {
		return 0, fmt.Errorf("add review: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add review: %w", err)
	}
	return id, nil
}

// AddWishlist records that user wishlisted a game. Repeats are ignored.
func (r *Repo) AddWishlist(ctx context.Context, user string, itemID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users_wishlist (game_id, user_nickname) VALUES (?, ?)`,
		itemID, user); err != nil {
		return fmt.Errorf("add wishlist: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (domcat.Item, error) {
	var (
		id                                        int64
		title                                     string
		url, released, primary, genres, publisher sql.NullString
		techs, developer, awards                  sql.NullString
		quality, platformRating                   sql.NullFloat64
	)
	if err := s.Scan(&id, &title, &url, &released, &primary, &genres, &quality,
		&platformRating, &publisher, &techs, &developer, &awards); err != nil {
		return domcat.Item{}, err //nolint:wrapcheck // callers add context
	}
	return domcat.Reconstruct(id, domcat.Attributes{
		Title:           title,
		PrimaryCategory: primary.String,
		Categories:      splitList(genres.String),
		Quality:         quality.Float64,
		Technologies:    splitList(techs.String),
		Awards:          splitList(awards.String),
		Developer:       developer.String,
		Publisher:       publisher.String,
		URL:             url.String,
		ReleaseDate:     released.String,
		PlatformRating:  platformRating.Float64,
	}), nil
}

func (r *Repo) queryItems(ctx context.Context, query string, args ...any) ([]domcat.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	defer rows.Close()

	var out []domcat.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	return out, nil
}

// splitList parses a comma-separated column, dropping blanks.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinList(vs []string) string { return strings.Join(vs, ",") }

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
