package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newscheck/backend/internal/config"
	"github.com/newscheck/backend/internal/fetcher"
)

const articleHTML = `<html><head><title>Test Page</title></head><body>
<nav>Home | World | Sports</nav>
<h1>Council Approves New Transit Budget</h1>
<article>
<p>Researchers published a detailed report on Monday describing the state of public transportation in the city.</p>
<p>According to the report, ridership has grown steadily over the past five years while funding stayed flat.</p>
</article>
<script>var tracking = "ignore me";</script>
</body></html>`

func newFetcher(robots bool) *fetcher.Fetcher {
	cfg := config.FetcherConfig{
		Timeout:           5 * time.Second,
		UserAgent:         "newscheck-test",
		EnableRobotsCheck: robots,
		MaxBodyBytes:      1 << 20,
	}
	return fetcher.NewFetcher(cfg, logrus.New().WithField("test", "fetcher"))
}

func TestFetcher_FetchArticle(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(articleHTML))
	}))
	defer ts.Close()

	result, err := newFetcher(false).Fetch(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, ts.URL, result.URL)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "Council Approves New Transit Budget", result.Title)
	assert.Contains(t, result.Text, "Researchers published a detailed report")
	assert.NotContains(t, result.Text, "ignore me")
	assert.Equal(t, "newscheck-test", gotUA)
}

func TestFetcher_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	result, err := newFetcher(false).Fetch(context.Background(), ts.URL)
	assert.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestFetcher_RobotsDisallow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := newFetcher(true)

	_, err := f.Fetch(context.Background(), ts.URL+"/private/story")
	assert.ErrorIs(t, err, fetcher.ErrDisallowed)

	result, err := f.Fetch(context.Background(), ts.URL+"/public/story")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Text)
}

func TestFetcher_InvalidURL(t *testing.T) {
	_, err := newFetcher(false).Fetch(context.Background(), "   ")
	assert.ErrorIs(t, err, fetcher.ErrInvalidURL)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"Adds https scheme", "example.com/news/1", "https://example.com/news/1", false},
		{"Keeps http scheme", "http://example.com", "http://example.com", false},
		{"Trims whitespace", "  https://example.com/a  ", "https://example.com/a", false},
		{"Empty", "", "", true},
		{"Scheme without host", "https://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := fetcher.NormalizeURL(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, fetcher.ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, u.String())
		})
	}
}
