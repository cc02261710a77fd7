// Package notes is the shared research scratchpad backed by SQLite.
// Notes are keyed by name; writing an existing name replaces its content.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Note is one named entry in the scratchpad.
type Note struct {
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service stores and retrieves notes.
type Service struct {
	db *sql.DB
}

// NewService creates a notes service over db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Put inserts the note or replaces the content of an existing one.
func (s *Service) Put(ctx context.Context, name, content string) error {
	if name == "" {
		return fmt.Errorf("put note: name is required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO note (name, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		name, content, now,
	)
	if err != nil {
		return fmt.Errorf("put note: %w", err)
	}
	return nil
}

// Get returns the note and true, or a zero Note and false when the name
// is unknown.
func (s *Service) Get(ctx context.Context, name string) (Note, bool, error) {
	var n Note
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT name, content, updated_at FROM note WHERE name = ?", name,
	).Scan(&n.Name, &n.Content, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, false, nil
	}
	if err != nil {
		return Note{}, false, fmt.Errorf("get note: %w", err)
	}
	n.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return n, true, nil
}

// List returns all notes ordered by name.
func (s *Service) List(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, content, updated_at FROM note ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Note
	for rows.Next() {
		var n Note
		var updatedAt string
		if err := rows.Scan(&n.Name, &n.Content, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		n.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}
