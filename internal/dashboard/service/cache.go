package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"signage-control-plane/internal/audit"
	"signage-control-plane/internal/dashboard/domain"
	"signage-control-plane/internal/dashboard/upstream"
)

// Source says where a served view came from.
type Source string

const (
	SourceFreshFetch Source = "fresh-fetch"
	SourceFreshCache Source = "fresh-cache"
	SourceStaleCache Source = "stale-cache"
)

// ErrColdCache is returned only when the upstream is unreachable and no
// aggregation has ever succeeded since process start. Once any attempt has
// populated the cache, requests never fail again.
var ErrColdCache = errors.New("no aggregated data available yet")

// Fetcher runs one aggregation attempt against the upstream source.
type Fetcher interface {
	FetchAll(ctx context.Context) (*upstream.Result, error)
}

// ViewResult is one served dashboard payload.
type ViewResult struct {
	View       domain.View
	Source     Source
	Warning    string // empty only for a fully successful fresh fetch
	CapturedAt time.Time
}

// Status is the cache-status diagnostic.
type Status struct {
	HasEntry     bool          `json:"hasEntry"`
	Age          time.Duration `json:"-"`
	AgeSeconds   float64       `json:"ageSeconds"`
	Fresh        bool          `json:"fresh"`
	Invalidated  bool          `json:"invalidated"`
	LastSuccess  time.Time     `json:"lastSuccess"`
	LastFailures []string      `json:"lastFailures"`
}

// entry is the single process-wide cache slot.
type entry struct {
	view        domain.View
	failures    []string // named sub-fetch failures of the attempt that produced the view
	capturedAt  time.Time
	lastSuccess time.Time
}

// Cache shields display clients from an unreliable upstream. It serves the
// cached view while fresh, refreshes it on demand, and serves it stale with a
// warning when a refresh attempt fails outright. It fails only on a cold
// start with no history; that asymmetry trades freshness for availability by
// policy.
type Cache struct {
	fetcher        Fetcher
	freshFor       time.Duration
	attemptTimeout time.Duration
	auditor        audit.Emitter

	mu          sync.Mutex
	entry       *entry
	invalidated bool // set by Clear; next Get must attempt a refresh
	lastErr     string

	group singleflight.Group

	servedCounter  metric.Int64Counter
	refreshCounter metric.Int64Counter
}

// NewCache returns a Cache over the given fetcher. freshFor is the freshness
// threshold; attemptTimeout bounds one whole refresh attempt (non-positive
// values fall back to 15s). auditor may be nil; failed refresh attempts are
// audited best-effort.
func NewCache(fetcher Fetcher, freshFor, attemptTimeout time.Duration, auditor audit.Emitter) *Cache {
	if freshFor <= 0 {
		freshFor = 60 * time.Second
	}
	if attemptTimeout <= 0 {
		attemptTimeout = 15 * time.Second
	}
	c := &Cache{
		fetcher:        fetcher,
		freshFor:       freshFor,
		attemptTimeout: attemptTimeout,
		auditor:        auditor,
	}
	meter := otel.Meter("signage/dashboard")
	c.servedCounter, _ = meter.Int64Counter("dashboard.served")
	c.refreshCounter, _ = meter.Int64Counter("dashboard.refresh")
	return c
}

// Get returns the aggregated view per the serving policy:
//
//  1. entry younger than the freshness threshold: serve it, no upstream call.
//  2. otherwise refresh; concurrent cache misses coalesce into one in-flight
//     attempt whose result every caller shares.
//  3. a refresh that produced data (even partially) overwrites the entry.
//  4. a refresh that failed outright leaves the entry alone; if one exists it
//     is served stale regardless of age.
//  5. no entry and a failed refresh: ErrColdCache.
func (c *Cache) Get(ctx context.Context) (*ViewResult, error) {
	c.mu.Lock()
	if e := c.entry; e != nil && !c.invalidated && time.Since(e.capturedAt) < c.freshFor {
		res := &ViewResult{
			View:       e.view,
			Source:     SourceFreshCache,
			Warning:    cacheWarning(e),
			CapturedAt: e.capturedAt,
		}
		c.mu.Unlock()
		c.count(ctx, SourceFreshCache)
		return res, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return c.refresh()
	})
	if err == nil {
		e := v.(*entry)
		c.count(ctx, SourceFreshFetch)
		return &ViewResult{
			View:       e.view,
			Source:     SourceFreshFetch,
			Warning:    fetchWarning(e.failures),
			CapturedAt: e.capturedAt,
		}, nil
	}

	// Refresh failed outright: serve stale if any history exists.
	c.mu.Lock()
	e := c.entry
	c.mu.Unlock()
	if e == nil {
		return nil, fmt.Errorf("%w: %v", ErrColdCache, err)
	}
	c.count(ctx, SourceStaleCache)
	return &ViewResult{
		View:       e.view,
		Source:     SourceStaleCache,
		Warning:    fmt.Sprintf("upstream unavailable, serving data captured %s ago", time.Since(e.capturedAt).Round(time.Second)),
		CapturedAt: e.capturedAt,
	}, nil
}

// refresh runs one aggregation attempt and, on success, installs the result
// as the new cache entry. It runs on a detached context so a caller that
// gives up does not cancel the attempt other coalesced callers are waiting on.
func (c *Cache) refresh() (*entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.attemptTimeout)
	defer cancel()

	res, err := c.fetcher.FetchAll(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err.Error()
		c.mu.Unlock()
		c.countRefresh(ctx, "failed")
		audit.EmitAsync(c.auditor, audit.NewEvent(audit.EventCacheRefreshFailed, "", "", "dashboard-cache", err.Error()))
		return nil, err
	}

	e := &entry{
		view:        res.View,
		failures:    res.Failures,
		capturedAt:  time.Now().UTC(),
		lastSuccess: time.Now().UTC(),
	}
	c.mu.Lock()
	c.entry = e
	c.invalidated = false
	c.lastErr = ""
	c.mu.Unlock()

	if len(res.Failures) > 0 {
		c.countRefresh(ctx, "partial")
	} else {
		c.countRefresh(ctx, "ok")
	}
	return e, nil
}

// Clear marks the entry invalid so the next Get attempts a fresh fetch. The
// entry itself is retained: if the forced refresh fails, there is still a
// stale fallback.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = true
}

// Status reports the cache diagnostic.
func (c *Cache) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{LastFailures: []string{}}
	if c.lastErr != "" {
		st.LastFailures = append(st.LastFailures, c.lastErr)
	}
	st.Invalidated = c.invalidated
	if c.entry == nil {
		return st
	}
	st.HasEntry = true
	st.Age = time.Since(c.entry.capturedAt)
	st.AgeSeconds = st.Age.Seconds()
	st.Fresh = !c.invalidated && st.Age < c.freshFor
	st.LastSuccess = c.entry.lastSuccess
	st.LastFailures = append(st.LastFailures, c.entry.failures...)
	return st
}

func (c *Cache) count(ctx context.Context, src Source) {
	if c.servedCounter != nil {
		c.servedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("source", string(src))))
	}
}

func (c *Cache) countRefresh(ctx context.Context, outcome string) {
	if c.refreshCounter != nil {
		c.refreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func cacheWarning(e *entry) string {
	return fmt.Sprintf("serving cached data captured %s ago", time.Since(e.capturedAt).Round(time.Second))
}

func fetchWarning(failures []string) string {
	if len(failures) == 0 {
		return ""
	}
	return "partial data, failed sub-fetches: " + strings.Join(failures, ", ")
}
