package storage_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newscheck/backend/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "db", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func submission(title, result string, conf float64, source storage.SourceType, at time.Time) *storage.Submission {
	return &storage.Submission{
		Title:      title,
		Content:    "content of " + title,
		SourceType: source,
		Result:     result,
		Confidence: conf,
		Method:     "model",
		CreatedAt:  at,
	}
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sub := &storage.Submission{
		Title:      "Budget approved",
		Content:    "The council approved the budget.",
		SourceType: storage.SourceURL,
		SourceURL:  "https://example.com/budget",
		Result:     "REAL",
		Confidence: 87.5,
		Method:     "model",
	}
	require.NoError(t, store.Save(ctx, sub))
	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())

	loaded, err := store.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub, loaded)
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveKeepsProvidedID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sub := submission("a", "FAKE", 70, storage.SourceText, time.Time{})
	sub.ID = "fixed-id"
	require.NoError(t, store.Save(ctx, sub))

	loaded, err := store.Get(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.Title)

	// duplicate primary key
	assert.Error(t, store.Save(ctx, sub))
}

func TestListPagingAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		title := string(rune('a' + i))
		require.NoError(t, store.Save(ctx, submission(title, "REAL", 60, storage.SourceText, base.Add(time.Duration(i)*time.Hour))))
	}

	page, err := store.List(ctx, storage.ListOptions{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "e", page.Items[0].Title)
	assert.Equal(t, "d", page.Items[1].Title)

	last, err := store.List(ctx, storage.ListOptions{Page: 3, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, "a", last.Items[0].Title)

	beyond, err := store.List(ctx, storage.ListOptions{Page: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 5, beyond.Total)
}

func TestListDefaults(t *testing.T) {
	store := newTestStore(t)

	page, err := store.List(context.Background(), storage.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PerPage)
	assert.Equal(t, 0, page.Pages)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, submission("Miracle cure found", "FAKE", 80, storage.SourceText, now)))
	require.NoError(t, store.Save(ctx, submission("Election results", "REAL", 75, storage.SourceURL, now)))
	require.NoError(t, store.Save(ctx, submission("Secret plot", "FAKE", 70, storage.SourceFile, now)))

	tests := []struct {
		name string
		opts storage.ListOptions
		want int
	}{
		{"by result", storage.ListOptions{Result: "FAKE"}, 2},
		{"result is case insensitive", storage.ListOptions{Result: "real"}, 1},
		{"by source", storage.ListOptions{Source: storage.SourceURL}, 1},
		{"search title", storage.ListOptions{Search: "cure"}, 1},
		{"search content", storage.ListOptions{Search: "content of"}, 3},
		{"combined", storage.ListOptions{Result: "FAKE", Source: storage.SourceFile}, 1},
		{"no match", storage.ListOptions{Search: "nothing like this"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.List(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Total)
			assert.Len(t, page.Items, tt.want)
		})
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sub := submission("gone", "REAL", 60, storage.SourceText, time.Now())
	require.NoError(t, store.Save(ctx, sub))

	require.NoError(t, store.Delete(ctx, sub.ID))
	_, err := store.Get(ctx, sub.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, sub.ID), storage.ErrNotFound)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 0.0, empty.AvgConfidence)
	assert.Empty(t, empty.Monthly)

	jan := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, submission("a", "FAKE", 80, storage.SourceText, jan)))
	require.NoError(t, store.Save(ctx, submission("b", "REAL", 60, storage.SourceText, jan)))
	require.NoError(t, store.Save(ctx, submission("c", "REAL", 70, storage.SourceURL, feb)))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Fake)
	assert.Equal(t, 2, stats.Real)
	assert.InDelta(t, 70.0, stats.AvgConfidence, 1e-9)
	assert.Equal(t, []storage.MonthlyStat{
		{Month: "2024-01", Total: 2, Fake: 1, Real: 1},
		{Month: "2024-02", Total: 1, Fake: 0, Real: 1},
	}, stats.Monthly)
}

func TestExportCSV(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	require.NoError(t, store.Save(ctx, submission("Shocking, claims", "FAKE", 82.456, storage.SourceText, at)))
	require.NoError(t, store.Save(ctx, submission("Report", "REAL", 64, storage.SourceURL, at.Add(-time.Hour))))

	var buf bytes.Buffer
	require.NoError(t, storage.ExportCSV(ctx, store, &buf, storage.ListOptions{Result: "FAKE"}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Article Title", records[0][1])
	assert.Equal(t, "Shocking, claims", records[1][1])
	assert.Equal(t, "text", records[1][2])
	assert.Equal(t, "FAKE", records[1][4])
	assert.Equal(t, "82.46%", records[1][5])
	assert.Equal(t, "2024-05-06 07:08:09", records[1][7])
}

func TestOpenInMemory(t *testing.T) {
	store, err := storage.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, submission("mem", "REAL", 50, storage.SourceText, time.Now())))
	page, err := store.List(ctx, storage.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestSourceTypeValid(t *testing.T) {
	assert.True(t, storage.SourceText.Valid())
	assert.True(t, storage.SourceURL.Valid())
	assert.True(t, storage.SourceFile.Valid())
	assert.False(t, storage.SourceType("fax").Valid())
}
