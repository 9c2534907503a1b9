package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/scrapemcp/internal/mcp"
)

func TestSearch_MissingQuery_ReturnsError(t *testing.T) {
	h := New(nil, newTestEnhanced(t, func(w http.ResponseWriter, r *http.Request) {}), nil)
	resp := h.Search(context.Background(), mcp.Request{ID: "1", Params: json.RawMessage(`{}`)})
	result := toolResult(t, resp)
	assert.True(t, result.IsError)
}

func TestSearch_ReturnsOneResourcePerSource(t *testing.T) {
	enhanced := newTestEnhanced(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"web":    []map[string]any{{"title": "a"}},
			"images": []map[string]any{{"url": "b.png"}},
		})
	})
	h := New(nil, enhanced, nil)

	args, _ := json.Marshal(map[string]any{"query": "golang", "sources": []string{"web", "images"}})
	resp := h.Search(context.Background(), mcp.Request{ID: "1", Params: args})
	result := toolResult(t, resp)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 2)
	assert.Equal(t, "resource", result.Content[0].Type)
	assert.True(t, strings.HasPrefix(result.Content[0].Resource.URI, "scrapemcp://search/web/"))
	assert.True(t, strings.HasPrefix(result.Content[1].Resource.URI, "scrapemcp://search/images/"))
}
