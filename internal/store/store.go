// Package store persists finished reviews so past sessions can be listed and
// re-opened. SQLite keeps the history a single portable file; the review
// itself is stored as JSON alongside a few queryable columns.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/planproof/planproof/internal/model"
)

// ErrNotFound is returned when a review ID has no stored row.
var ErrNotFound = errors.New("review not found")

// HistoryStore persists reviews in a SQLite database.
type HistoryStore struct {
	db *sql.DB
}

// Entry summarizes one stored review for listings.
type Entry struct {
	ID          string        `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	ProjectName string        `json:"project_name"`
	Ruleset     model.Ruleset `json:"ruleset"`
	ScaleNote   string        `json:"scale_note,omitempty"`
}

// Open opens (or creates) the history database at path.
func Open(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	s := &HistoryStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return s, nil
}

func (s *HistoryStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		project_name TEXT NOT NULL,
		ruleset TEXT NOT NULL,
		scale_note TEXT,
		result_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Save stores a finished review, replacing any previous row with the same ID.
func (s *HistoryStore) Save(ctx context.Context, review *model.Review) error {
	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reviews (id, created_at, project_name, ruleset, scale_note, result_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, review.ID, review.ReviewedAt.UTC(), review.ProjectName, string(review.Ruleset), review.ScaleNote, string(data))
	if err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	return nil
}

// Get loads a stored review by ID.
func (s *HistoryStore) Get(ctx context.Context, id string) (*model.Review, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM reviews WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}

	var review model.Review
	if err := json.Unmarshal([]byte(data), &review); err != nil {
		return nil, fmt.Errorf("decode review %s: %w", id, err)
	}
	return &review, nil
}

// List returns stored reviews, newest first, up to limit (0 means all).
func (s *HistoryStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, created_at, project_name, ruleset, scale_note FROM reviews ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ruleset string
		var scaleNote sql.NullString
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.ProjectName, &ruleset, &scaleNote); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		e.Ruleset = model.Ruleset(ruleset)
		e.ScaleNote = scaleNote.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a stored review.
func (s *HistoryStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
