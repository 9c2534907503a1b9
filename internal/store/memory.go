// memory.go — the in-memory Backend implementation.
package store

import "sync"

// MemoryBackend keeps every resource in a map guarded by a mutex. Recency
// tracking for LRU eviction is the responsibility of Store, which reads
// LastAccessNs off the Header on each sweep.
type MemoryBackend struct {
	mu        sync.RWMutex
	resources map[string]Resource
}

// NewMemoryBackend constructs an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{resources: make(map[string]Resource)}
}

func (b *MemoryBackend) List() ([]Header, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Header, 0, len(b.resources))
	for _, r := range b.resources {
		out = append(out, r.Header())
	}
	return out, nil
}

func (b *MemoryBackend) Read(uri string) (Resource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.resources[uri]
	if !ok {
		return Resource{}, ErrNotFound
	}
	r.LastAccessNs = nowNs()
	b.resources[uri] = r
	return r, nil
}

func (b *MemoryBackend) Write(url string, tier Tier, content []byte, mimeType, sourceStrategy, extractPrompt string, timestampNs int64) (string, error) {
	uri := BuildURI(schemeMemory, tier, url, timestampNs)
	now := nowNs()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resources[uri] = Resource{
		URI: uri, URL: url, Tier: tier, TimestampNs: timestampNs,
		ByteSize: int64(len(content)), MimeType: mimeType, SourceStrategy: sourceStrategy,
		ExtractPrompt: extractPrompt, LastAccessNs: now, Content: content,
	}
	return uri, nil
}

func (b *MemoryBackend) Exists(uri string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.resources[uri]
	return ok
}

func (b *MemoryBackend) Delete(uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.resources, uri)
	return nil
}

func (b *MemoryBackend) FindByURL(url string) ([]Header, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Header
	for _, r := range b.resources {
		if r.URL == url {
			out = append(out, r.Header())
		}
	}
	return out, nil
}

func (b *MemoryBackend) Stats() (int, int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total int64
	for _, r := range b.resources {
		total += r.ByteSize
	}
	return len(b.resources), total
}

func (b *MemoryBackend) Touch(uri string, nowNsVal int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.resources[uri]
	if !ok {
		return ErrNotFound
	}
	r.LastAccessNs = nowNsVal
	b.resources[uri] = r
	return nil
}
