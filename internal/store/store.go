// store.go — Store wraps a Backend with TTL+LRU eviction policy and the
// write_multi / cached-resource-preference contract the Scrape Pipeline
// depends on (C2, spec §4.2).
package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jmagar/scrapemcp/internal/metrics"
)

// Limits bounds a Store's size. TTL of 0 disables expiry; MaxItems/MaxBytes
// of 0 disable the corresponding eviction pass.
type Limits struct {
	TTL      time.Duration
	MaxItems int
	MaxBytes int64
}

// WriteMultiResult carries the URIs written for each requested tier.
type WriteMultiResult struct {
	RawURI       string
	CleanedURI   string
	ExtractedURI string
}

// Store enforces eviction policy on top of a Backend and reports cache
// events to the metrics collector. All operations are safe for concurrent
// callers; eviction serializes against writes but never against reads.
type Store struct {
	backend Backend
	limits  Limits
	metrics *metrics.Collector
	clock   *monotonicClock

	mu sync.Mutex // guards eviction passes against concurrent writes

	stopSweep chan struct{}
}

// New wraps backend with the given limits. If m is non-nil, cache events are
// reported to it. The background TTL sweeper starts immediately; call Close
// to stop it.
func New(backend Backend, limits Limits, sweepInterval time.Duration, m *metrics.Collector) *Store {
	s := &Store{
		backend:   backend,
		limits:    limits,
		metrics:   m,
		clock:     newMonotonicClock(),
		stopSweep: make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Close stops the background sweeper.
func (s *Store) Close() {
	select {
	case <-s.stopSweep:
	default:
		close(s.stopSweep)
	}
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweepExpired()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *Store) recordCache(event metrics.CacheEvent) {
	if s.metrics != nil {
		s.metrics.RecordCache(event)
	}
}

// Write stores content as a single tier and returns its URI. A prior live
// resource with the same (url, tier, extractPrompt) triple is superseded and
// removed, per §3's uniqueness invariant. Failures are logged and returned;
// callers in the Scrape Pipeline treat a non-nil error as a non-fatal cache
// miss per §4.2's failure-modes note.
func (s *Store) Write(url string, tier Tier, content []byte, mimeType, sourceStrategy, extractPrompt string) (string, error) {
	s.supersede(url, tier, extractPrompt)

	uri, err := s.backend.Write(url, tier, content, mimeType, sourceStrategy, extractPrompt, s.clock.next())
	if err != nil {
		slog.Warn("store: write failed", slog.String("url", url), slog.String("tier", string(tier)), slog.String("error", err.Error()))
		return "", err
	}
	s.recordCache(metrics.CacheWrite)
	s.enforceLimits()
	return uri, nil
}

// supersede deletes any existing resource sharing (url, tier, extractPrompt)
// with a pending write, so at most one live resource ever matches that triple.
func (s *Store) supersede(url string, tier Tier, extractPrompt string) {
	existing, err := s.backend.FindByURL(url)
	if err != nil {
		return
	}
	for _, h := range existing {
		if h.Tier == tier && h.ExtractPrompt == extractPrompt {
			_ = s.backend.Delete(h.URI)
		}
	}
}

// WriteMulti persists up to three tiers for one scrape outcome. raw is
// always written; cleaned/extracted are written only when non-nil, matching
// §4.6 step 4 (raw always, cleaned/extracted conditionally).
func (s *Store) WriteMulti(url string, raw []byte, rawMime, sourceStrategy string, cleaned []byte, cleanedMime string, extracted []byte, extractedMime, extractPrompt string) (WriteMultiResult, error) {
	var result WriteMultiResult
	var err error

	result.RawURI, err = s.Write(url, TierRaw, raw, rawMime, sourceStrategy, "")
	if err != nil {
		return result, err
	}
	if cleaned != nil {
		if uri, werr := s.Write(url, TierCleaned, cleaned, cleanedMime, sourceStrategy, ""); werr == nil {
			result.CleanedURI = uri
		}
	}
	if extracted != nil {
		if uri, werr := s.Write(url, TierExtracted, extracted, extractedMime, sourceStrategy, extractPrompt); werr == nil {
			result.ExtractedURI = uri
		}
	}
	return result, nil
}

// Read returns a resource's content, touching its last-access time.
func (s *Store) Read(uri string) (Resource, error) {
	r, err := s.backend.Read(uri)
	if err != nil {
		if err == ErrNotFound {
			s.recordCache(metrics.CacheMiss)
		}
		return Resource{}, err
	}
	return r, nil
}

// Exists reports whether uri is currently stored (without touching it).
func (s *Store) Exists(uri string) bool {
	return s.backend.Exists(uri)
}

// Delete removes uri explicitly (not via eviction).
func (s *Store) Delete(uri string) error {
	return s.backend.Delete(uri)
}

// List returns headers for every stored resource.
func (s *Store) List() ([]Header, error) {
	return s.backend.List()
}

// Stats returns the current item count and total byte size.
func (s *Store) Stats() (itemCount int, totalBytes int64) {
	return s.backend.Stats()
}

// FindByURL returns headers for every tier stored for url, per the contract's
// find_by_url operation.
func (s *Store) FindByURL(url string) ([]Header, error) {
	return s.backend.FindByURL(url)
}

// FindByURLAndExtract returns headers for url filtered to those whose tier
// and extract prompt match the request: cleaned/raw entries always qualify;
// extracted entries only qualify when the prompt is a byte-exact match.
func (s *Store) FindByURLAndExtract(url string, prompt string) ([]Header, error) {
	all, err := s.backend.FindByURL(url)
	if err != nil {
		return nil, err
	}
	var out []Header
	for _, h := range all {
		if h.Tier == TierExtracted && h.ExtractPrompt != prompt {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// BestCached returns the best cached resource for (url, extract?) in
// preference order cleaned > extracted > raw, per §4.2. If prompt is
// non-empty, only an extracted resource whose prompt byte-matches qualifies;
// otherwise extracted resources are skipped entirely (a scrape call without
// an extract argument should not surface a stale extraction).
func (s *Store) BestCached(url string, prompt string) (Resource, bool) {
	headers, err := s.backend.FindByURL(url)
	if err != nil || len(headers) == 0 {
		s.recordCache(metrics.CacheMiss)
		return Resource{}, false
	}

	var cleaned, extracted, raw *Header
	for i := range headers {
		h := &headers[i]
		switch h.Tier {
		case TierCleaned:
			if cleaned == nil || h.TimestampNs > cleaned.TimestampNs {
				cleaned = h
			}
		case TierExtracted:
			if prompt != "" && h.ExtractPrompt == prompt {
				if extracted == nil || h.TimestampNs > extracted.TimestampNs {
					extracted = h
				}
			}
		case TierRaw:
			if raw == nil || h.TimestampNs > raw.TimestampNs {
				raw = h
			}
		}
	}

	var best *Header
	switch {
	case cleaned != nil:
		best = cleaned
	case extracted != nil:
		best = extracted
	case raw != nil:
		best = raw
	default:
		s.recordCache(metrics.CacheMiss)
		return Resource{}, false
	}

	if s.limits.TTL > 0 && nowNs()-best.TimestampNs > s.limits.TTL.Nanoseconds() {
		_ = s.backend.Delete(best.URI)
		s.recordCache(metrics.CacheMiss)
		return Resource{}, false
	}

	r, err := s.backend.Read(best.URI)
	if err != nil {
		s.recordCache(metrics.CacheMiss)
		return Resource{}, false
	}
	s.recordCache(metrics.CacheHit)
	return r, true
}

// enforceLimits runs the TTL -> count -> bytes eviction passes, per §4.2's
// specified ordering.
func (s *Store) enforceLimits() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	s.evictByCountLocked()
	s.evictByBytesLocked()
}

func (s *Store) sweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
}

func (s *Store) evictExpiredLocked() {
	if s.limits.TTL <= 0 {
		return
	}
	headers, err := s.backend.List()
	if err != nil {
		return
	}
	cutoff := nowNs() - s.limits.TTL.Nanoseconds()
	for _, h := range headers {
		if h.TimestampNs < cutoff {
			if err := s.backend.Delete(h.URI); err == nil {
				s.recordCache(metrics.CacheEviction)
			}
		}
	}
}

func (s *Store) evictByCountLocked() {
	if s.limits.MaxItems <= 0 {
		return
	}
	headers, err := s.backend.List()
	if err != nil {
		return
	}
	if len(headers) <= s.limits.MaxItems {
		return
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].LastAccessNs < headers[j].LastAccessNs })
	toEvict := len(headers) - s.limits.MaxItems
	for i := 0; i < toEvict; i++ {
		if err := s.backend.Delete(headers[i].URI); err == nil {
			s.recordCache(metrics.CacheEviction)
		}
	}
}

func (s *Store) evictByBytesLocked() {
	if s.limits.MaxBytes <= 0 {
		return
	}
	headers, err := s.backend.List()
	if err != nil {
		return
	}
	var total int64
	for _, h := range headers {
		total += h.ByteSize
	}
	if total <= s.limits.MaxBytes {
		return
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].LastAccessNs < headers[j].LastAccessNs })
	for _, h := range headers {
		if total <= s.limits.MaxBytes {
			break
		}
		if err := s.backend.Delete(h.URI); err == nil {
			total -= h.ByteSize
			s.recordCache(metrics.CacheEviction)
		}
	}
}
