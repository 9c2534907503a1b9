// resource.go — the Resource type and its URI grammar (C2, data model §3).
package store

import (
	"fmt"
	"regexp"
	"strings"
)

// Tier identifies which processing stage a resource captures.
type Tier string

const (
	TierRaw       Tier = "raw"
	TierCleaned   Tier = "cleaned"
	TierExtracted Tier = "extracted"
)

// Resource is one stored piece of content, addressable by URI.
type Resource struct {
	URI            string
	URL            string
	Tier           Tier
	TimestampNs    int64
	ByteSize       int64
	MimeType       string
	SourceStrategy string
	ExtractPrompt  string // present iff Tier == TierExtracted
	LastAccessNs   int64
	Content        []byte
}

// Header is a Resource without its content, for list/stats operations.
type Header struct {
	URI            string
	URL            string
	Tier           Tier
	TimestampNs    int64
	ByteSize       int64
	MimeType       string
	SourceStrategy string
	ExtractPrompt  string
	LastAccessNs   int64
}

func (r Resource) Header() Header {
	return Header{
		URI: r.URI, URL: r.URL, Tier: r.Tier, TimestampNs: r.TimestampNs,
		ByteSize: r.ByteSize, MimeType: r.MimeType, SourceStrategy: r.SourceStrategy,
		ExtractPrompt: r.ExtractPrompt, LastAccessNs: r.LastAccessNs,
	}
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Sanitize replaces every run of non-alphanumeric characters with a single
// underscore, per the resource URI grammar.
func Sanitize(s string) string {
	return nonAlphanumeric.ReplaceAllString(s, "_")
}

// scheme returns the URI scheme a backend kind uses for its resources.
type scheme string

const (
	schemeMemory scheme = "memory"
	schemeFile   scheme = "file"
)

// BuildURI derives a resource URI deterministically from (scheme, tier, url, timestamp).
func BuildURI(sc scheme, tier Tier, url string, timestampNs int64) string {
	return fmt.Sprintf("%s://%s/%s_%d", sc, tier, Sanitize(url), timestampNs)
}

// ProductScheme is the fixed scheme identifying this service's own
// non-tiered resources (map/search/crawl results), as opposed to the
// backend-kind schemes (memory/file) the resource store itself uses.
const ProductScheme = "scrapemcp"

var productClock = newMonotonicClock()

// NextResourceTimestampNs returns a timestamp strictly greater than any
// previously returned by the resource store or by this function, for tools
// that mint product-scheme URIs outside the store itself.
func NextResourceTimestampNs() int64 {
	return productClock.next()
}

// BuildProductURI joins segments under the product scheme, e.g.
// BuildProductURI("search", source, ts) -> "scrapemcp://search/<source>/<ts>".
// Callers sanitize any segment that may contain non-alphanumeric characters
// (e.g. a host) before passing it in; fixed keywords like "page-1" are
// passed through unchanged per the grammar.
func BuildProductURI(segments ...string) string {
	return ProductScheme + "://" + strings.Join(segments, "/")
}

// ParseURI splits a resource URI back into its scheme, tier, and timestamp suffix.
// The sanitized-url segment is not reversible (sanitization is lossy) and is not returned.
func ParseURI(uri string) (sc scheme, tier Tier, timestampNs int64, ok bool) {
	parts := strings.SplitN(uri, "://", 2)
	if len(parts) != 2 {
		return "", "", 0, false
	}
	rest := parts[1]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return "", "", 0, false
	}
	tierPart := rest[:slash]
	body := rest[slash+1:]
	underscore := strings.LastIndexByte(body, '_')
	if underscore < 0 {
		return "", "", 0, false
	}
	var ts int64
	if _, err := fmt.Sscanf(body[underscore+1:], "%d", &ts); err != nil {
		return "", "", 0, false
	}
	return scheme(parts[0]), Tier(tierPart), ts, true
}
