package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/isdmx/codeprobe/report"
)

// List bounds
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Entry is one stored analysis
type Entry struct {
	ID        string           `json:"id"`
	Language  string           `json:"language"`
	Code      string           `json:"code"`
	Model     string           `json:"model"`
	Analysis  string           `json:"analysis"`
	Findings  []report.Finding `json:"issues"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Store persists analysis reports in SQLite
type Store struct {
	conn *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would see its own database
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: setting WAL mode: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id         TEXT PRIMARY KEY,
			language   TEXT NOT NULL,
			code       TEXT NOT NULL,
			model      TEXT NOT NULL DEFAULT '',
			analysis   TEXT NOT NULL DEFAULT '',
			findings   TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating analyses table: %w", err)
	}
	return nil
}

// Save records the report produced for code and returns the stored entry
func (s *Store) Save(ctx context.Context, language, code string, r report.Report) (Entry, error) {
	findings := r.Findings
	if findings == nil {
		findings = []report.Finding{}
	}
	encoded, err := json.Marshal(findings)
	if err != nil {
		return Entry{}, fmt.Errorf("history: encoding findings: %w", err)
	}

	entry := Entry{
		ID:        xid.New().String(),
		Language:  language,
		Code:      code,
		Model:     r.Model,
		Analysis:  r.Analysis,
		Findings:  findings,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO analyses (id, language, code, model, analysis, findings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Language, entry.Code, entry.Model, entry.Analysis, string(encoded), entry.CreatedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("history: saving analysis: %w", err)
	}

	return entry, nil
}

// List returns up to limit entries, newest first. Non-positive limits use
// DefaultLimit and large ones are capped at MaxLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	// xid ids sort by creation time, which breaks timestamp ties
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, language, code, model, analysis, findings, created_at
		 FROM analyses
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: listing analyses: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e        Entry
			findings string
		)
		if err := rows.Scan(&e.ID, &e.Language, &e.Code, &e.Model, &e.Analysis, &findings, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scanning analysis row: %w", err)
		}
		if err := json.Unmarshal([]byte(findings), &e.Findings); err != nil {
			return nil, fmt.Errorf("history: decoding findings of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating analyses: %w", err)
	}

	return entries, nil
}

// Count returns the number of stored entries
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: counting analyses: %w", err)
	}
	return n, nil
}
