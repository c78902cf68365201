package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	source_type TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	result TEXT NOT NULL,
	confidence REAL NOT NULL,
	method TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions (created_at);
CREATE INDEX IF NOT EXISTS idx_submissions_result ON submissions (result);
`

const submissionColumns = `id, title, content, source_type, source_url, result, confidence, method, created_at`

// SQLiteStore implements SubmissionStore on SQLite
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens the database at dsn, applies pragmas and creates tables
// if they don't exist.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("storage: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	if dsn == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("storage: %s: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts a submission, assigning an ID and timestamp when missing.
// CreatedAt is stored with second precision.
func (s *SQLiteStore) Save(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	sub.CreatedAt = time.Unix(sub.CreatedAt.Unix(), 0).UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (`+submissionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Title, sub.Content, string(sub.SourceType), sub.SourceURL,
		sub.Result, sub.Confidence, sub.Method, sub.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: save submission %s: %w", sub.ID, err)
	}
	return nil
}

// Get returns one submission or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get submission %s: %w", id, err)
	}
	return sub, nil
}

// List returns one page of matching submissions, newest first.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) (*Page, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 1 {
		opts.PerPage = 10
	}

	where, args := buildFilter(opts)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("storage: count submissions: %w", err)
	}

	offset := (opts.Page - 1) * opts.PerPage
	items, err := s.query(ctx,
		`SELECT `+submissionColumns+` FROM submissions`+where+` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		append(args, opts.PerPage, offset)...)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:   items,
		Total:   total,
		Page:    opts.Page,
		PerPage: opts.PerPage,
		Pages:   (total + opts.PerPage - 1) / opts.PerPage,
	}, nil
}

// Export returns every matching submission, newest first, ignoring paging.
func (s *SQLiteStore) Export(ctx context.Context, opts ListOptions) ([]Submission, error) {
	where, args := buildFilter(opts)
	return s.query(ctx,
		`SELECT `+submissionColumns+` FROM submissions`+where+` ORDER BY created_at DESC, rowid DESC`,
		args...)
}

// Delete removes a submission or returns ErrNotFound.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete submission %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: delete submission %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates totals and a per-month breakdown.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Monthly: []MonthlyStat{}}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN result = 'FAKE' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN result = 'REAL' THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(confidence), 0)
		FROM submissions`).Scan(&stats.Total, &stats.Fake, &stats.Real, &stats.AvgConfidence)
	if err != nil {
		return nil, fmt.Errorf("storage: aggregate submissions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', created_at, 'unixepoch') AS month,
		       COUNT(*),
		       SUM(CASE WHEN result = 'FAKE' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN result = 'REAL' THEN 1 ELSE 0 END)
		FROM submissions
		GROUP BY month
		ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("storage: monthly stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m MonthlyStat
		if err := rows.Scan(&m.Month, &m.Total, &m.Fake, &m.Real); err != nil {
			return nil, fmt.Errorf("storage: scan monthly stats: %w", err)
		}
		stats.Monthly = append(stats.Monthly, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: monthly stats: %w", err)
	}
	return stats, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list submissions: %w", err)
	}
	defer rows.Close()

	items := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan submission: %w", err)
		}
		items = append(items, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list submissions: %w", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*Submission, error) {
	var sub Submission
	var source string
	var created int64
	err := row.Scan(&sub.ID, &sub.Title, &sub.Content, &source, &sub.SourceURL,
		&sub.Result, &sub.Confidence, &sub.Method, &created)
	if err != nil {
		return nil, err
	}
	sub.SourceType = SourceType(source)
	sub.CreatedAt = time.Unix(created, 0).UTC()
	return &sub, nil
}

func buildFilter(opts ListOptions) (string, []any) {
	var clauses []string
	var args []any

	if opts.Result != "" {
		clauses = append(clauses, "result = ?")
		args = append(args, strings.ToUpper(opts.Result))
	}
	if opts.Source != "" {
		clauses = append(clauses, "source_type = ?")
		args = append(args, string(opts.Source))
	}
	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		clauses = append(clauses, "(title LIKE ? OR content LIKE ?)")
		args = append(args, like, like)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
