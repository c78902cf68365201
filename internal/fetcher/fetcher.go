package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/newscheck/backend/internal/config"
	"github.com/newscheck/backend/internal/politeness"
)

const untitled = "Untitled Article"

var (
	// ErrInvalidURL means the URL has no usable scheme or host.
	ErrInvalidURL = errors.New("invalid url")
	// ErrDisallowed means robots.txt forbids fetching the page.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

// FetchResult contains the extracted article data
type FetchResult struct {
	URL        string
	Title      string
	Text       string // Main article text
	StatusCode int
}

// Fetcher downloads news pages and extracts their title and body text
type Fetcher struct {
	client   *http.Client
	cfg      config.FetcherConfig
	logger   *logrus.Entry
	robots   *robotsCache
	throttle *politeness.Throttle
}

func NewFetcher(cfg config.FetcherConfig, logger *logrus.Entry) *Fetcher {
	client := &http.Client{Timeout: cfg.Timeout}
	return &Fetcher{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		robots:   newRobotsCache(client, cfg.UserAgent, cfg.RobotsCacheTTL),
		throttle: politeness.NewThrottle(cfg.MinHostDelay, cfg.HostStateExpiry, logger),
	}
}

// NormalizeURL adds https:// when the scheme is missing and checks that the
// result is an absolute http(s) URL.
func NormalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u, nil
}

// Fetch downloads and parses a webpage
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	if f.cfg.EnableRobotsCheck && !f.robots.allowed(ctx, u) {
		return nil, fmt.Errorf("%w: %s", ErrDisallowed, u)
	}

	if err := f.throttle.Wait(ctx, u.Host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		URL:        u.String(),
		StatusCode: resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.cfg.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.cfg.MaxBodyBytes)
	}
	page, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if err := f.extract(page, u, result); err != nil {
		return nil, fmt.Errorf("parsing error: %w", err)
	}

	f.logger.WithFields(logrus.Fields{
		"url":   result.URL,
		"title": result.Title,
		"chars": len(result.Text),
	}).Debug("Fetched article")

	return result, nil
}

// extract prefers readability's main-content text and falls back to the
// plain tokenizer text when readability finds nothing.
func (f *Fetcher) extract(page []byte, u *url.URL, result *FetchResult) error {
	parsed, err := parseHTML(bytes.NewReader(page))
	if err != nil {
		return err
	}

	var articleTitle, articleText string
	article, err := readability.FromReader(bytes.NewReader(page), u)
	if err != nil {
		f.logger.WithError(err).Debug("Readability extraction failed")
	} else {
		articleTitle, articleText = article.Title, article.TextContent
	}

	result.Title = pickTitle(parsed.heading, articleTitle, parsed.title)

	result.Text = cleanText(articleText)
	if result.Text == "" {
		result.Text = parsed.text
	}
	return nil
}

// pickTitle returns the first heading longer than ten characters, then the
// first non-empty candidate, then a placeholder.
func pickTitle(heading string, candidates ...string) string {
	if len(heading) > 10 {
		return heading
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return untitled
}

type parsedPage struct {
	title   string
	heading string
	text    string
}

// parseHTML extracts title, first <h1> and visible text using the standard tokenizer
func parseHTML(body io.Reader) (*parsedPage, error) {
	tokenizer := html.NewTokenizer(body)
	page := &parsedPage{}
	var textBuilder, headingBuilder strings.Builder
	skipDepth := 0
	inTitle := false
	inHeading := false
	headingDone := false

	for {
		tokenType := tokenizer.Next()

		switch tokenType {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				page.text = cleanText(textBuilder.String())
				page.heading = cleanText(headingBuilder.String())
				return page, nil
			}
			return nil, tokenizer.Err()

		case html.StartTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "script", "style", "nav", "header", "footer", "aside", "form", "noscript":
				skipDepth++
			case "title":
				inTitle = true
			case "h1":
				inHeading = !headingDone
			}

		case html.EndTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "script", "style", "nav", "header", "footer", "aside", "form", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			case "title":
				inTitle = false
			case "h1":
				if inHeading {
					inHeading = false
					headingDone = true
				}
			}

		case html.TextToken:
			data := tokenizer.Token().Data
			if inTitle {
				page.title = strings.TrimSpace(data)
				continue
			}
			if inHeading {
				headingBuilder.WriteString(data)
			}
			if skipDepth == 0 {
				text := strings.TrimSpace(data)
				if text != "" {
					textBuilder.WriteString(text + " ")
				}
			}
		}
	}
}

// cleanText removes excessive whitespace
func cleanText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
