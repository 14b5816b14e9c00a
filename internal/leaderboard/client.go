// Package leaderboard synchronizes completed-session scores into a shared
// scoreboard document hosted on a remote blob store.
//
// The remote store offers no transactions: Submit performs a plain
// read-modify-write of the whole document, so two concurrent submits can
// race and the later write clobbers the earlier one (a lost update). That
// hazard is a property of the store, not something this client papers over
// with a lock it cannot actually hold remotely.
package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"carpet-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTopN caps each category bucket.
	DefaultTopN = 10
	// DefaultCacheTTL bounds read amplification on Fetch.
	DefaultCacheTTL = 60 * time.Second
	// DefaultTimeout caps every remote call; leaderboard traffic must
	// degrade rather than hang quiz play.
	DefaultTimeout = 5 * time.Second

	dateLayout = "2006-01-02"
)

// Cache holds a short-lived copy of the remote document.
type Cache interface {
	Get(ctx context.Context) (domain.LeaderboardDocument, bool)
	Set(ctx context.Context, doc domain.LeaderboardDocument, ttl time.Duration)
	Invalidate(ctx context.Context)
}

// Client reads and writes the remote scoreboard document. All failures are
// swallowed at this boundary: Fetch degrades to an empty document and
// Submit to false, never an error that could interrupt quiz play.
type Client struct {
	http  *http.Client
	url   string
	token string
	topN  int
	ttl   time.Duration
	clock func() time.Time
	cache Cache
	sf    singleflight.Group
}

// Option tweaks a Client.
type Option func(*Client)

// WithCache replaces the default in-memory read cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithTopN overrides the per-category bucket cap.
func WithTopN(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.topN = n
		}
	}
}

// WithCacheTTL overrides how long fetched documents are served from cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithTimeout overrides the remote call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithClock is test-only for deterministic entry dates.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.clock = now }
}

func NewClient(url, token string, opts ...Option) *Client {
	c := &Client{
		http:  &http.Client{Timeout: DefaultTimeout},
		url:   url,
		token: token,
		topN:  DefaultTopN,
		ttl:   DefaultCacheTTL,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewMemoryCache()
	}
	return c
}

// Fetch returns the scoreboard for display. Reads are cached with a short
// TTL; concurrent cache misses collapse into one remote call. Any
// transport, status, or parse failure yields an empty document.
func (c *Client) Fetch(ctx context.Context) domain.LeaderboardDocument {
	if doc, ok := c.cache.Get(ctx); ok {
		return doc
	}

	result, err, _ := c.sf.Do("fetch", func() (interface{}, error) {
		if doc, ok := c.cache.Get(ctx); ok {
			return doc, nil
		}
		doc, err := c.read(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.Set(ctx, doc, c.ttl)
		return doc, nil
	})
	if err != nil {
		log.Printf("leaderboard: fetch degraded to empty document: %v", err)
		return domain.LeaderboardDocument{}
	}
	return result.(domain.LeaderboardDocument)
}

// Submit records a completed score: read the current remote document,
// append the entry to its category bucket, re-sort, truncate to the top N,
// and write the whole document back.
//
// The read and the write are separate remote calls with no token linking
// them; a submit racing another between those calls silently overwrites the
// other's entry. Submit returns false when the score was not recorded; the
// caller's local session score is unaffected either way.
func (c *Client) Submit(ctx context.Context, name string, score int, cfg domain.SessionConfig) bool {
	// Read the remote directly; a stale cached copy must not feed the
	// write, and a failed submit must leave cached reads intact.
	doc, err := c.read(ctx)
	if err != nil {
		log.Printf("leaderboard: submit read failed: %v", err)
		return false
	}

	key := cfg.CategoryKey()
	bucket := append(doc[key], domain.LeaderboardEntry{
		Name:  domain.TruncateName(name),
		Score: score,
		Date:  c.clock().Format(dateLayout),
	})
	sort.SliceStable(bucket, func(i, j int) bool {
		if bucket[i].Score != bucket[j].Score {
			return bucket[i].Score > bucket[j].Score
		}
		return bucket[i].Date < bucket[j].Date
	})
	if len(bucket) > c.topN {
		bucket = bucket[:c.topN]
	}
	doc[key] = bucket

	if err := c.write(ctx, doc); err != nil {
		log.Printf("leaderboard: submit write failed: %v", err)
		return false
	}
	c.cache.Invalidate(ctx)
	return true
}

func (c *Client) read(ctx context.Context) (domain.LeaderboardDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote returned %s", resp.Status)
	}

	var doc domain.LeaderboardDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	if doc == nil {
		doc = domain.LeaderboardDocument{}
	}
	return doc, nil
}

func (c *Client) write(ctx context.Context, doc domain.LeaderboardDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote returned %s", resp.Status)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
