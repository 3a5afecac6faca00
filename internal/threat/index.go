package threat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/willf/bloom"
)

// Index is an immutable set of indicator addresses. A bloom filter
// sits in front of the exact set so the common case, an address on no
// feed, is answered without touching the map.
type Index struct {
	exact  map[string]struct{}
	filter *bloom.BloomFilter
}

// New builds an Index over the given indicators. Membership is exact
// and case-sensitive: no CIDR expansion, no address canonicalization.
func New(indicators []string) *Index {
	bits := uint(len(indicators)) * 10
	if bits < 1000 {
		bits = 1000
	}
	idx := &Index{
		exact:  make(map[string]struct{}, len(indicators)),
		filter: bloom.New(bits, 5), // ~1% false positive
	}
	for _, in := range indicators {
		idx.exact[in] = struct{}{}
		idx.filter.Add([]byte(in))
	}
	return idx
}

// Contains reports whether addr is a loaded indicator.
func (idx *Index) Contains(addr string) bool {
	if !idx.filter.Test([]byte(addr)) {
		return false
	}
	_, ok := idx.exact[addr]
	return ok
}

// Len returns the number of loaded indicators.
func (idx *Index) Len() int {
	return len(idx.exact)
}

// LoadFile builds an Index from a feed file: one indicator per line,
// surrounding whitespace trimmed, blank lines and #-comments skipped.
// A missing or unreadable feed returns an empty but usable Index
// together with the error, so callers log the degradation and keep
// ingesting with nothing classified as a threat.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return New(nil), fmt.Errorf("opening threat feed: %w", err)
	}
	defer f.Close()

	indicators, err := parseFeed(f)
	if err != nil {
		return New(nil), fmt.Errorf("reading threat feed %s: %w", path, err)
	}
	return New(indicators), nil
}

func parseFeed(r io.Reader) ([]string, error) {
	var indicators []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		indicators = append(indicators, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return indicators, nil
}
