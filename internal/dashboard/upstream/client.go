// Package upstream fetches the slices of the aggregated dashboard view from
// the upstream aggregation source over JSON/HTTP.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"signage-control-plane/internal/dashboard/domain"
)

// Sub-fetch names, as reported in warnings and the cache-status diagnostic.
const (
	SubFetchEmployees = "employees"
	SubFetchNews      = "news"
	SubFetchEvents    = "events"
	SubFetchWeather   = "weather"
)

// ErrNoBaseURL is returned when the client has no upstream configured.
var ErrNoBaseURL = errors.New("upstream: no base URL configured")

// Result is the outcome of one aggregation attempt. A failed sub-fetch
// degrades its slice to an empty value and is recorded in Failures by name;
// it does not abort the attempt.
type Result struct {
	View     domain.View
	Failures []string
}

// Client aggregates the upstream sub-fetches into one view.
type Client struct {
	baseURL    string
	http       *http.Client
	subTimeout time.Duration
}

// New returns a Client for the given base URL. subTimeout bounds each
// individual sub-fetch; non-positive values fall back to 5s.
func New(baseURL string, subTimeout time.Duration) *Client {
	if subTimeout <= 0 {
		subTimeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{},
		subTimeout: subTimeout,
	}
}

// FetchAll issues all sub-fetches concurrently and merges them into one view.
// Per-sub-fetch failures are recorded by name, not returned as an error. An
// error is returned only when the attempt as a whole could not produce data:
// no upstream configured, or every sub-fetch failed.
func (c *Client) FetchAll(ctx context.Context) (*Result, error) {
	if c.baseURL == "" {
		return nil, ErrNoBaseURL
	}

	res := &Result{View: domain.EmptyView()}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	fail := func(name string, err error) {
		log.Printf("upstream: %s sub-fetch failed: %v", name, err)
		mu.Lock()
		defer mu.Unlock()
		res.Failures = append(res.Failures, name)
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		var out []domain.Employee
		if err := c.getJSON(ctx, "/employees", &out); err != nil {
			fail(SubFetchEmployees, err)
			return
		}
		mu.Lock()
		res.View.Employees = out
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		var out []domain.NewsItem
		if err := c.getJSON(ctx, "/news", &out); err != nil {
			fail(SubFetchNews, err)
			return
		}
		mu.Lock()
		res.View.News = out
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		var out []domain.Event
		if err := c.getJSON(ctx, "/events", &out); err != nil {
			fail(SubFetchEvents, err)
			return
		}
		mu.Lock()
		res.View.Events = out
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		var out domain.Weather
		if err := c.getJSON(ctx, "/weather", &out); err != nil {
			fail(SubFetchWeather, err)
			return
		}
		mu.Lock()
		res.View.Weather = &out
		mu.Unlock()
	}()
	wg.Wait()
	sort.Strings(res.Failures) // deterministic warning order

	if len(res.Failures) == 4 {
		return nil, fmt.Errorf("upstream: all sub-fetches failed: %s", strings.Join(res.Failures, ", "))
	}
	return res, nil
}

// getJSON fetches path under the base URL and decodes the response body into
// out. Each call carries its own timeout so one hung sub-fetch cannot stall
// the whole attempt past its bound.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	subCtx, cancel := context.WithTimeout(ctx, c.subTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(subCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
