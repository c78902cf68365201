package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a submission does not exist.
var ErrNotFound = errors.New("submission not found")

// SourceType records how the analysed text was provided.
type SourceType string

const (
	SourceText SourceType = "text"
	SourceFile SourceType = "file"
	SourceURL  SourceType = "url"
)

// Valid reports whether s is a known source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceText, SourceFile, SourceURL:
		return true
	}
	return false
}

// Submission is one analysed article.
type Submission struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	SourceType SourceType `json:"source_type"`
	SourceURL  string     `json:"source_url,omitempty"`
	Result     string     `json:"result"`
	Confidence float64    `json:"confidence"`
	Method     string     `json:"method"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ListOptions filters and pages submission history. Zero values mean
// "no filter".
type ListOptions struct {
	Page    int
	PerPage int
	Result  string
	Source  SourceType
	Search  string
}

// Page is one page of history, newest first.
type Page struct {
	Items   []Submission `json:"items"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
	Pages   int          `json:"pages"`
}

// MonthlyStat counts submissions for one calendar month (YYYY-MM).
type MonthlyStat struct {
	Month string `json:"month"`
	Total int    `json:"total"`
	Fake  int    `json:"fake"`
	Real  int    `json:"real"`
}

// Stats aggregates the whole history.
type Stats struct {
	Total         int           `json:"total"`
	Fake          int           `json:"fake"`
	Real          int           `json:"real"`
	AvgConfidence float64       `json:"avg_confidence"`
	Monthly       []MonthlyStat `json:"monthly"`
}

// SubmissionStore persists analysed submissions
type SubmissionStore interface {
	Save(ctx context.Context, s *Submission) error
	Get(ctx context.Context, id string) (*Submission, error)
	List(ctx context.Context, opts ListOptions) (*Page, error)
	Export(ctx context.Context, opts ListOptions) ([]Submission, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// ExportCSV writes submissions matching opts as a CSV report.
func ExportCSV(ctx context.Context, store SubmissionStore, w io.Writer, opts ListOptions) error {
	subs, err := store.Export(ctx, opts)
	if err != nil {
		return err
	}
	return WriteCSV(w, subs)
}
