// Package content implements the Content Processors (C5): content-type
// detection, HTML-to-Markdown cleaning, and LLM-driven extraction.
package content

import (
	"bytes"
	"encoding/json"
	"regexp"
)

var htmlTagPattern = regexp.MustCompile(`(?i)<(!doctype html|html|head|body|div|span|p|a|table)[\s>]`)

// DetectMimeType classifies the first ~1KiB of a body per spec §4.5: HTML
// if common tags appear near the start, JSON if it parses, XML if it opens
// with an XML declaration or a tag, else plain text.
func DetectMimeType(body []byte) string {
	sample := body
	const sniffLen = 1024
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
	}

	if htmlTagPattern.Match(sample) {
		return "text/html"
	}

	trimmed := bytes.TrimSpace(sample)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var js json.RawMessage
		if json.Unmarshal(body, &js) == nil {
			return "application/json"
		}
	}

	if bytes.HasPrefix(trimmed, []byte("<?xml")) || (len(trimmed) > 0 && trimmed[0] == '<') {
		return "application/xml"
	}

	return "text/plain"
}
