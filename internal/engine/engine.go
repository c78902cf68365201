package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/newscheck/backend/internal/config"
	"github.com/newscheck/backend/internal/fetcher"
	"github.com/newscheck/backend/internal/metrics"
	"github.com/newscheck/backend/internal/storage"
	"github.com/newscheck/backend/internal/textclass"
)

var (
	// ErrInvalidInput means the request is missing or has malformed fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExtraction means no usable article could be pulled from a URL.
	ErrExtraction = errors.New("could not extract article")
)

// Classifier scores article text
type Classifier interface {
	Classify(text string) textclass.Result
	State() textclass.State
}

// PageFetcher downloads an article
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.FetchResult, error)
}

// Engine runs an analysis end to end: validate, classify, persist.
type Engine struct {
	Config     *config.Config
	Logger     *logrus.Entry
	Classifier Classifier
	Fetcher    PageFetcher
	Storage    storage.SubmissionStore
	Metrics    *metrics.Metrics

	mu    sync.RWMutex
	Stats EngineStats
}

type EngineStats struct {
	Analyses  int64
	LastError string
	StartTime time.Time
}

func NewEngine(cfg *config.Config, logger *logrus.Entry, clf Classifier, ft PageFetcher, store storage.SubmissionStore, m *metrics.Metrics) *Engine {
	return &Engine{
		Config:     cfg,
		Logger:     logger,
		Classifier: clf,
		Fetcher:    ft,
		Storage:    store,
		Metrics:    m,
		Stats:      EngineStats{StartTime: time.Now()},
	}
}

// AnalyzeText classifies pasted article text.
func (e *Engine) AnalyzeText(ctx context.Context, title, content string) (*storage.Submission, error) {
	start := time.Now()
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, e.fail("text", start, fmt.Errorf("%w: title and content are required", ErrInvalidInput))
	}

	return e.analyze(ctx, "text", start, &storage.Submission{
		Title:      title,
		Content:    content,
		SourceType: storage.SourceText,
	})
}

// AnalyzeFile classifies an uploaded .txt document. The title falls back to
// the file name without its extension.
func (e *Engine) AnalyzeFile(ctx context.Context, filename, title string, data []byte) (*storage.Submission, error) {
	start := time.Now()
	if filename == "" {
		return nil, e.fail("file", start, fmt.Errorf("%w: file is required", ErrInvalidInput))
	}
	if !strings.EqualFold(filepath.Ext(filename), ".txt") {
		return nil, e.fail("file", start, fmt.Errorf("%w: only .txt files are allowed", ErrInvalidInput))
	}
	if !utf8.Valid(data) {
		return nil, e.fail("file", start, fmt.Errorf("%w: file is not valid UTF-8", ErrInvalidInput))
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, e.fail("file", start, fmt.Errorf("%w: file is empty", ErrInvalidInput))
	}

	title = strings.TrimSpace(title)
	if title == "" {
		base := filepath.Base(filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return e.analyze(ctx, "file", start, &storage.Submission{
		Title:      title,
		Content:    content,
		SourceType: storage.SourceFile,
	})
}

// AnalyzeURL downloads an article and classifies its body.
func (e *Engine) AnalyzeURL(ctx context.Context, rawURL string) (*storage.Submission, error) {
	start := time.Now()
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, e.fail("url", start, fmt.Errorf("%w: url is required", ErrInvalidInput))
	}
	if _, err := fetcher.NormalizeURL(rawURL); err != nil {
		return nil, e.fail("url", start, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}

	res, err := e.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if e.Metrics != nil {
			e.Metrics.IncFetchErrors()
		}
		e.Logger.WithError(err).WithField("url", rawURL).Warn("Failed to fetch article")
		return nil, e.fail("url", start, fmt.Errorf("%w: %v", ErrExtraction, err))
	}

	title, content := strings.TrimSpace(res.Title), strings.TrimSpace(res.Text)
	if title == "" || content == "" {
		return nil, e.fail("url", start, fmt.Errorf("%w: page has no title or text", ErrExtraction))
	}

	return e.analyze(ctx, "url", start, &storage.Submission{
		Title:      title,
		Content:    content,
		SourceType: storage.SourceURL,
		SourceURL:  res.URL,
	})
}

func (e *Engine) analyze(ctx context.Context, kind string, start time.Time, sub *storage.Submission) (*storage.Submission, error) {
	result := e.Classifier.Classify(sub.Content)

	sub.Content = truncateRunes(sub.Content, e.Config.Storage.ContentLimit)
	sub.Result = string(result.Label)
	sub.Confidence = result.Confidence
	sub.Method = string(result.Source)

	if err := e.Storage.Save(ctx, sub); err != nil {
		return nil, e.fail(kind, start, err)
	}

	e.mu.Lock()
	e.Stats.Analyses++
	e.mu.Unlock()

	if e.Metrics != nil {
		e.Metrics.ObserveClassification(sub.Result, sub.Method)
		e.Metrics.ObserveAnalysis(kind, "ok", time.Since(start))
	}

	e.Logger.WithFields(logrus.Fields{
		"id":         sub.ID,
		"source":     kind,
		"result":     sub.Result,
		"confidence": sub.Confidence,
		"method":     sub.Method,
	}).Info("Article analyzed")

	return sub, nil
}

func (e *Engine) fail(kind string, start time.Time, err error) error {
	e.mu.Lock()
	e.Stats.LastError = err.Error()
	e.mu.Unlock()

	if e.Metrics != nil {
		e.Metrics.ObserveAnalysis(kind, "error", time.Since(start))
	}
	return err
}

// Snapshot returns a copy of the running counters.
func (e *Engine) Snapshot() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.Stats
}

// ModelState reports the classifier's lifecycle state and publishes it as
// a gauge.
func (e *Engine) ModelState() textclass.State {
	state := e.Classifier.State()
	if e.Metrics != nil {
		e.Metrics.SetModelState(int(state))
	}
	return state
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
