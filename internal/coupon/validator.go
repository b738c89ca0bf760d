package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bits-and-blooms/bloom/v3"
	"golang.org/x/sync/errgroup"
)

const (
	minCodeLength = 8
	maxCodeLength = 10
	// A code must appear in at least this many loaded files to be redeemable.
	minSetMatches = 2
)

// Validator validates discount codes against multiple coupon files
type Validator struct {
	couponSets []*couponSet
	sources    []string
	mu         sync.RWMutex
	client     *http.Client
}

// couponSet represents a set of coupons loaded from a single file.
// The bloom filter answers "definitely absent" without touching the map.
type couponSet struct {
	coupons map[string]struct{}
	filter  *bloom.BloomFilter
}

func newCouponSet(coupons map[string]struct{}) *couponSet {
	filter := bloom.NewWithEstimates(uint(len(coupons)+1), 0.01)
	for code := range coupons {
		filter.AddString(code)
	}
	return &couponSet{coupons: coupons, filter: filter}
}

func (cs *couponSet) contains(code string) bool {
	if !cs.filter.TestString(code) {
		return false
	}
	_, ok := cs.coupons[code]
	return ok
}

// NewValidator creates a new coupon validator
func NewValidator() *Validator {
	return &Validator{
		couponSets: make([]*couponSet, 0),
		// Large files (~600MB) need more time
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Load loads coupon data from a mix of local paths and http(s) URLs
func (v *Validator) Load(ctx context.Context, sources []string) error {
	defer v.client.CloseIdleConnections()
	return v.load(ctx, sources, func(ctx context.Context, src string) (map[string]struct{}, error) {
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			return v.loadFromURL(ctx, src)
		}
		return loadFromFile(src)
	})
}

// LoadFromFiles loads coupon data from local files concurrently
func (v *Validator) LoadFromFiles(ctx context.Context, paths []string) error {
	return v.load(ctx, paths, func(_ context.Context, path string) (map[string]struct{}, error) {
		return loadFromFile(path)
	})
}

// LoadFromURLs loads coupon data from multiple gzipped URLs concurrently
func (v *Validator) LoadFromURLs(ctx context.Context, urls []string) error {
	defer v.client.CloseIdleConnections()
	return v.load(ctx, urls, v.loadFromURL)
}

// load fetches every source concurrently and swaps the sets in only if all succeed
func (v *Validator) load(ctx context.Context, sources []string, fetch func(context.Context, string) (map[string]struct{}, error)) error {
	if len(sources) == 0 {
		return fmt.Errorf("no coupon sources provided")
	}

	sets := make([]*couponSet, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			coupons, err := fetch(gctx, src)
			if err != nil {
				return fmt.Errorf("failed to load file %d: %w", i+1, err)
			}
			sets[i] = newCouponSet(coupons)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.couponSets = sets
	v.sources = append([]string(nil), sources...)
	return nil
}

func loadFromFile(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return parseMaybeGzip(f)
}

// loadFromURL downloads and parses a (possibly gzipped) coupon file from a URL
func (v *Validator) loadFromURL(ctx context.Context, url string) (map[string]struct{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return parseMaybeGzip(resp.Body)
}

// parseMaybeGzip sniffs the gzip magic bytes so sources need not be named *.gz
func parseMaybeGzip(r io.Reader) (map[string]struct{}, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		return parseCoupons(gz)
	}
	return parseCoupons(br)
}

// parseCoupons reads one coupon per line and returns them as a set of normalized codes
func parseCoupons(r io.Reader) (map[string]struct{}, error) {
	coupons := make(map[string]struct{})
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		if code := normalize(scanner.Text()); code != "" {
			coupons[code] = struct{}{}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return coupons, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid checks if a coupon code is valid
// A coupon is valid if:
// 1. It has 8-10 characters (not bytes) after trimming
// 2. It appears in at least 2 of the loaded files (case-insensitive)
func (v *Validator) IsValid(ctx context.Context, code string) bool {
	code = normalize(code)
	if n := utf8.RuneCountInString(code); n < minCodeLength || n > maxCodeLength {
		return false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	count := 0
	for _, cs := range v.couponSets {
		if ctx.Err() != nil {
			return false
		}
		if cs.contains(code) {
			count++
			if count >= minSetMatches {
				return true
			}
		}
	}
	return false
}

// GetStats returns statistics about loaded coupons
func (v *Validator) GetStats() map[string]interface{} {
	v.mu.RLock()
	defer v.mu.RUnlock()

	fileSizes := make([]int, len(v.couponSets))
	totalCoupons := 0
	for i, cs := range v.couponSets {
		fileSizes[i] = len(cs.coupons)
		totalCoupons += len(cs.coupons)
	}

	return map[string]interface{}{
		"total_files":   len(v.couponSets),
		"file_sizes":    fileSizes,
		"total_coupons": totalCoupons,
		"file_paths":    append([]string(nil), v.sources...),
	}
}
