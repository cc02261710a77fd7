// Package audit records answered research queries in an append-only log.
// No updates, no deletes; logging failures never fail the request.
package audit

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/akhawaja/medassist/pkg/uuid"
)

// Outcome classifies how a query ended.
type Outcome string

const (
	OutcomeAnswered    Outcome = "answered"
	OutcomeNoEvidence  Outcome = "no_evidence"
	OutcomeUnavailable Outcome = "unavailable"
)

// Entry is one logged query.
type Entry struct {
	ID            string
	Query         string
	QueryType     string
	Outcome       Outcome
	EvidenceCount int
	CreatedAt     time.Time
}

// Service writes the query log.
type Service struct {
	db *sql.DB
}

// NewService creates an audit service over db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Log appends one entry. Best effort: failures are logged and swallowed
// so an audit problem never breaks answering.
func (s *Service) Log(ctx context.Context, query, queryType string, outcome Outcome, evidenceCount int) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_log (id, query, query_type, outcome, evidence_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewV7().String(), query, queryType, string(outcome), evidenceCount,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		log.Printf("audit: log query failed: %v", err)
	}
}

// Recent returns the newest entries up to limit, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, query_type, outcome, evidence_count, created_at
		FROM query_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Query, &e.QueryType, (*string)(&e.Outcome), &e.EvidenceCount, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
