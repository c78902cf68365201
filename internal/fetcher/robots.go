package fetcher

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsCache keeps parsed robots.txt per host for ttl (forever when ttl is
// zero). A nil robots entry means the host has no usable robots.txt and
// everything is allowed.
type robotsCache struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	mu        sync.RWMutex
	entries   map[string]*robotsEntry
}

type robotsEntry struct {
	robots    *robotstxt.RobotsData
	fetchTime time.Time
}

func newRobotsCache(client *http.Client, userAgent string, ttl time.Duration) *robotsCache {
	return &robotsCache{
		client:    client,
		userAgent: userAgent,
		ttl:       ttl,
		entries:   make(map[string]*robotsEntry),
	}
}

func (rc *robotsCache) allowed(ctx context.Context, u *url.URL) bool {
	data := rc.get(ctx, u)
	if data == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, rc.userAgent)
}

func (rc *robotsCache) get(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host

	rc.mu.RLock()
	entry, exists := rc.entries[key]
	rc.mu.RUnlock()
	if exists && (rc.ttl <= 0 || time.Since(entry.fetchTime) < rc.ttl) {
		return entry.robots
	}

	data := rc.fetch(ctx, key+"/robots.txt")

	rc.mu.Lock()
	rc.entries[key] = &robotsEntry{robots: data, fetchTime: time.Now()}
	rc.mu.Unlock()
	return data
}

// fetch returns nil on any failure so an unreachable robots.txt never blocks analysis
func (rc *robotsCache) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}
