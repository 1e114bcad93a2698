// Package sql stores bookmarks in SQLite (modernc.org/sqlite) or PostgreSQL
// (lib/pq) through database/sql.
package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/store"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// Fixed width UTC timestamps sort lexically in both dialects.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var _ store.BookmarkStore = (*Store)(nil)

type Store struct {
	db     *sql.DB
	driver string
}

// Open connects, pings and migrates. driver is DriverSQLite or DriverPostgres.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer at a time, and every caller sees the same in-memory db.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bookmarks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			favicon_url TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookmarks_user_created ON bookmarks(user_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Insert(ctx context.Context, b *domain.Bookmark) error {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := s.rebind(`INSERT INTO bookmarks
		(id, user_id, url, title, summary, category, tags, favicon_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = s.db.ExecContext(ctx, query,
		b.ID, b.OwnerID, b.URL, b.Title, b.Summary, string(b.Category), string(tagsJSON), b.FaviconURL,
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert bookmark %s: %w", b.ID, err)
	}
	return nil
}

const selectColumns = `SELECT id, user_id, url, title, summary, category, tags, favicon_url, created_at, updated_at FROM bookmarks`

func (s *Store) Get(ctx context.Context, ownerID, id string) (*domain.Bookmark, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE id = ? AND user_id = ?`), id, ownerID)
	b, err := scanBookmark(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return b, nil
}

func (s *Store) List(ctx context.Context, ownerID string) ([]*domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(selectColumns+` WHERE user_id = ? ORDER BY created_at DESC, id DESC`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []*domain.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (s *Store) Summaries(ctx context.Context, ownerID string, limit int) ([]domain.Summary, error) {
	query := `SELECT id, url, title FROM bookmarks WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{ownerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read summaries: %w", err)
	}
	defer rows.Close()

	summaries := []domain.Summary{}
	for rows.Next() {
		var sum domain.Summary
		if err := rows.Scan(&sum.ID, &sum.URL, &sum.Title); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read summaries: %w", err)
	}
	return summaries, nil
}

func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM bookmarks WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row scanner) (*domain.Bookmark, error) {
	var (
		b                  domain.Bookmark
		category, tagsJSON string
		created, updated   string
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.URL, &b.Title, &b.Summary, &category, &tagsJSON,
		&b.FaviconURL, &created, &updated); err != nil {
		return nil, err
	}

	b.Category = domain.ParseCategory(category)
	if err := json.Unmarshal([]byte(tagsJSON), &b.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", b.ID, err)
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}

	var err error
	if b.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("decode created_at of %s: %w", b.ID, err)
	}
	if b.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("decode updated_at of %s: %w", b.ID, err)
	}
	return &b, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
