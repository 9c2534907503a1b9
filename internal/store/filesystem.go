// filesystem.go — the on-disk Backend implementation.
//
// Each resource is a content file plus a ".meta.json" sidecar carrying its
// header. Writes go to a temp file and are renamed into place, the same
// atomic-write pattern used across the teacher's own persistence code, so a
// crash mid-write never leaves a half-written resource visible to readers.
// An in-memory index mirrors the sidecars and is rebuilt by walking the
// directory tree on startup.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

type fsMeta struct {
	URI            string `json:"uri"`
	URL            string `json:"url"`
	Tier           Tier   `json:"tier"`
	TimestampNs    int64  `json:"timestamp_ns"`
	ByteSize       int64  `json:"byte_size"`
	MimeType       string `json:"mime_type"`
	SourceStrategy string `json:"source_strategy"`
	ExtractPrompt  string `json:"extract_prompt,omitempty"`
	LastAccessNs   int64  `json:"last_access_ns"`
}

func (m fsMeta) header() Header {
	return Header{
		URI: m.URI, URL: m.URL, Tier: m.Tier, TimestampNs: m.TimestampNs,
		ByteSize: m.ByteSize, MimeType: m.MimeType, SourceStrategy: m.SourceStrategy,
		ExtractPrompt: m.ExtractPrompt, LastAccessNs: m.LastAccessNs,
	}
}

// FilesystemBackend persists resources under root/<tier>/<file>.
type FilesystemBackend struct {
	root string

	mu    sync.RWMutex
	index map[string]fsMeta // uri -> meta, rebuilt on NewFilesystemBackend
}

// NewFilesystemBackend opens (and if needed creates) the three tier
// subdirectories under root, then rebuilds its index by walking them.
func NewFilesystemBackend(root string) (*FilesystemBackend, error) {
	for _, tier := range []Tier{TierRaw, TierCleaned, TierExtracted} {
		if err := os.MkdirAll(filepath.Join(root, string(tier)), 0o755); err != nil {
			return nil, err
		}
	}
	b := &FilesystemBackend{root: root, index: make(map[string]fsMeta)}
	if err := b.rebuildIndex(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *FilesystemBackend) rebuildIndex() error {
	return filepath.WalkDir(b.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if filepath.Ext(path) != ".meta" {
			return nil
		}
		raw, err := os.ReadFile(path) // #nosec G304 -- path from our own directory walk
		if err != nil {
			return nil // skip unreadable sidecar
		}
		var m fsMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil // skip corrupt sidecar
		}
		b.index[m.URI] = m
		return nil
	})
}

func (b *FilesystemBackend) paths(uri string, tier Tier) (contentPath, metaPath string) {
	base := filepath.Join(b.root, string(tier), Sanitize(uri))
	return base + ".content", base + ".meta"
}

func (b *FilesystemBackend) List() ([]Header, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Header, 0, len(b.index))
	for _, m := range b.index {
		out = append(out, m.header())
	}
	return out, nil
}

func (b *FilesystemBackend) Read(uri string) (Resource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.index[uri]
	if !ok {
		return Resource{}, ErrNotFound
	}
	contentPath, metaPath := b.paths(uri, m.Tier)
	content, err := os.ReadFile(contentPath) // #nosec G304 -- path derived from our own index
	if err != nil {
		return Resource{}, err
	}

	m.LastAccessNs = nowNs()
	if err := writeMetaAtomic(metaPath, m); err != nil {
		return Resource{}, err
	}
	b.index[uri] = m

	return Resource{
		URI: m.URI, URL: m.URL, Tier: m.Tier, TimestampNs: m.TimestampNs,
		ByteSize: m.ByteSize, MimeType: m.MimeType, SourceStrategy: m.SourceStrategy,
		ExtractPrompt: m.ExtractPrompt, LastAccessNs: m.LastAccessNs, Content: content,
	}, nil
}

func (b *FilesystemBackend) Write(url string, tier Tier, content []byte, mimeType, sourceStrategy, extractPrompt string, timestampNs int64) (string, error) {
	uri := BuildURI(schemeFile, tier, url, timestampNs)
	contentPath, metaPath := b.paths(uri, tier)

	if err := writeFileAtomic(contentPath, content); err != nil {
		return "", err
	}
	m := fsMeta{
		URI: uri, URL: url, Tier: tier, TimestampNs: timestampNs,
		ByteSize: int64(len(content)), MimeType: mimeType, SourceStrategy: sourceStrategy,
		ExtractPrompt: extractPrompt, LastAccessNs: nowNs(),
	}
	if err := writeMetaAtomic(metaPath, m); err != nil {
		return "", err
	}

	b.mu.Lock()
	b.index[uri] = m
	b.mu.Unlock()
	return uri, nil
}

func (b *FilesystemBackend) Exists(uri string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.index[uri]
	return ok
}

func (b *FilesystemBackend) Delete(uri string) error {
	b.mu.Lock()
	m, ok := b.index[uri]
	delete(b.index, uri)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	contentPath, metaPath := b.paths(uri, m.Tier)
	_ = os.Remove(contentPath)
	_ = os.Remove(metaPath)
	return nil
}

func (b *FilesystemBackend) FindByURL(url string) ([]Header, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Header
	for _, m := range b.index {
		if m.URL == url {
			out = append(out, m.header())
		}
	}
	return out, nil
}

func (b *FilesystemBackend) Stats() (int, int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total int64
	for _, m := range b.index {
		total += m.ByteSize
	}
	return len(b.index), total
}

func (b *FilesystemBackend) Touch(uri string, nowNsVal int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.index[uri]
	if !ok {
		return ErrNotFound
	}
	m.LastAccessNs = nowNsVal
	_, metaPath := b.paths(uri, m.Tier)
	if err := writeMetaAtomic(metaPath, m); err != nil {
		return err
	}
	b.index[uri] = m
	return nil
}

func writeFileAtomic(path string, content []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil { // #nosec G306 -- cache content, not secrets
		return err
	}
	return os.Rename(tmp, path)
}

func writeMetaAtomic(path string, m fsMeta) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, raw)
}
