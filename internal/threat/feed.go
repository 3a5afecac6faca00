package threat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Fetcher retrieves indicator addresses from one feed source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]string, error)
}

// FileFetcher reads a local feed file.
type FileFetcher struct {
	Path string
}

func (f *FileFetcher) Name() string { return f.Path }

func (f *FileFetcher) Fetch(ctx context.Context) ([]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening feed: %w", err)
	}
	defer file.Close()
	return parseFeed(file)
}

// HTTPFetcher downloads a feed over HTTP. The body uses the same line
// format as local feed files.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func (f *HTTPFetcher) Name() string { return f.URL }

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", f.URL, resp.StatusCode)
	}
	return parseFeed(resp.Body)
}

// FeedSet accumulates indicators handed over by concurrent fetchers,
// deduplicating as it goes.
type FeedSet struct {
	mu    sync.Mutex
	addrs map[string]struct{}
}

func NewFeedSet() *FeedSet {
	return &FeedSet{addrs: make(map[string]struct{})}
}

func (s *FeedSet) Add(indicators []string) {
	s.mu.Lock()
	for _, in := range indicators {
		s.addrs[in] = struct{}{}
	}
	s.mu.Unlock()
}

// Sorted returns the merged indicators in lexical order.
func (s *FeedSet) Sorted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.addrs))
	for in := range s.addrs {
		out = append(out, in)
	}
	sort.Strings(out)
	return out
}

func (s *FeedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.addrs)
}

// Refresher pulls every registered feed and merges the results into a
// FeedSet. Sources run concurrently; one failing does not stop the
// others.
type Refresher struct {
	fetchers []Fetcher
	set      *FeedSet
}

func NewRefresher(set *FeedSet) *Refresher {
	return &Refresher{set: set}
}

// Register adds a fetcher to the refresh run.
func (r *Refresher) Register(f Fetcher) {
	r.fetchers = append(r.fetchers, f)
}

// Run executes all fetchers and waits for them to finish.
func (r *Refresher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, f := range r.fetchers {
		wg.Add(1)
		go func(fetcher Fetcher) {
			defer wg.Done()
			indicators, err := fetcher.Fetch(ctx)
			if err != nil {
				slog.Error("fetch failed", "source", fetcher.Name(), "err", err)
				return
			}
			r.set.Add(indicators)
			slog.Info("fetched indicators", "source", fetcher.Name(), "count", len(indicators))
		}(f)
	}
	wg.Wait()
	return nil
}

// WriteFeed writes indicators to path in feed file format, one per
// line under a generation header.
func WriteFeed(path string, indicators []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# generated %s, %d indicators\n",
		time.Now().UTC().Format(time.RFC3339), len(indicators))
	for _, in := range indicators {
		b.WriteString(in)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing feed file: %w", err)
	}
	return nil
}
