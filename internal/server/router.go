// Package server implements the MCP Network Surface (C9): the net/http
// routes for /mcp, /health, and the metrics/OAuth-stub endpoints, plus the
// host/origin/CORS guards in front of them. Grounded on the teacher's
// cmd/dev-console server_routes.go/server_middleware.go, generalized from a
// single fixed localhost allow-list to configured allow-lists suitable for
// both local stdio-adjacent use and a production deployment.
package server

import (
	"context"
	"encoding/json"

	"github.com/jmagar/scrapemcp/internal/mcp"
	"github.com/jmagar/scrapemcp/internal/schema"
	"github.com/jmagar/scrapemcp/internal/store"
	"github.com/jmagar/scrapemcp/internal/tools"
)

// Router implements mcpsession.Router: it dispatches a request already
// cleared by the session layer to the method-specific MCP handler.
type Router struct {
	Tools        *tools.Handlers
	Store        *store.Store
	Name         string
	Version      string
	Instructions string
}

// toolCallParams is the tools/call envelope: a tool name plus its own
// argument object, which is handed to the tool handler unwrapped.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Route implements mcpsession.Router.
func (rt *Router) Route(ctx context.Context, req mcp.Request) mcp.Response {
	switch req.Method {
	case "initialize":
		return rt.handleInitialize(req)
	case "tools/list":
		return rt.handleToolsList(req)
	case "tools/call":
		return rt.handleToolsCall(ctx, req)
	case "resources/list":
		return rt.handleResourcesList(req)
	case "resources/read":
		return rt.handleResourcesRead(req)
	case "resources/templates/list":
		return mcp.Response{JSONRPC: "2.0", ID: req.ID, Result: mcp.SafeMarshal(mcp.ResourceTemplatesListResult{ResourceTemplates: []any{}}, `{"resourceTemplates":[]}`)}
	case "ping":
		return mcp.Response{JSONRPC: "2.0", ID: req.ID, Result: json.RawMessage(`{}`)}
	default:
		return mcp.Response{JSONRPC: "2.0", ID: req.ID, Error: &mcp.Error{Code: mcp.CodeMethodNotFound, Message: "Method not found: " + req.Method}}
	}
}

func (rt *Router) handleInitialize(req mcp.Request) mcp.Response {
	result := mcp.InitializeResult{
		ProtocolVersion: "2025-06-18",
		ServerInfo:      mcp.ServerInfo{Name: rt.Name, Version: rt.Version},
		Capabilities:    mcp.Capabilities{Tools: mcp.ToolsCapability{}, Resources: mcp.ResourcesCapability{}},
		Instructions:    rt.Instructions,
	}
	return mcp.Response{JSONRPC: "2.0", ID: req.ID, Result: mcp.SafeMarshal(result, `{}`)}
}

func (rt *Router) handleToolsList(req mcp.Request) mcp.Response {
	result := mcp.ToolsListResult{Tools: schema.AllTools()}
	return mcp.Response{JSONRPC: "2.0", ID: req.ID, Result: mcp.SafeMarshal(result, `{"tools":[]}`)}
}

func (rt *Router) handleToolsCall(ctx context.Context, req mcp.Request) mcp.Response {
	var p toolCallParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return mcp.Response{JSONRPC: "2.0", ID: req.ID, Error: &mcp.Error{Code: mcp.CodeInvalidParams, Message: "invalid tools/call params: " + err.Error()}}
	}

	toolReq := mcp.Request{ID: req.ID, Params: p.Arguments}
	switch p.Name {
	case "scrape":
		return rt.Tools.Scrape(ctx, toolReq)
	case "map":
		return rt.Tools.Map(ctx, toolReq)
	case "search":
		return rt.Tools.Search(ctx, toolReq)
	case "crawl":
		return rt.Tools.Crawl(ctx, toolReq)
	default:
		return mcp.Response{JSONRPC: "2.0", ID: req.ID, Error: &mcp.Error{Code: mcp.CodeInvalidParams, Message: "unknown tool: " + p.Name}}
	}
}

func (rt *Router) handleResourcesList(req mcp.Request) mcp.Response {
	headers, err := rt.Store.List()
	if err != nil {
		return mcp.Response{JSONRPC: "2.0", ID: req.ID, Error: &mcp.Error{Code: mcp.CodeInternalError, Message: err.Error()}}
	}
	resources := make([]mcp.Resource, 0, len(headers))
	for _, h := range headers {
		resources = append(resources, mcp.Resource{
			URI:      h.URI,
			Name:     h.URL,
			MimeType: h.MimeType,
		})
	}
	result := mcp.ResourcesListResult{Resources: resources}
	return mcp.Response{JSONRPC: "2.0", ID: req.ID, Result: mcp.SafeMarshal(result, `{"resources":[]}`)}
}

func (rt *Router) handleResourcesRead(req mcp.Request) mcp.Response {
	var p struct {
		URI string `json:"uri"`
	}
	mcp.LenientUnmarshal(req.Params, &p)
	if p.URI == "" {
		return mcp.Response{JSONRPC: "2.0", ID: req.ID, Error: &mcp.Error{Code: mcp.CodeInvalidParams, Message: "uri is required"}}
	}

	resource, err := rt.Store.Read(p.URI)
	if err != nil {
		return mcp.Response{JSONRPC: "2.0", ID: req.ID, Error: &mcp.Error{Code: mcp.CodeInvalidParams, Message: err.Error()}}
	}
	result := mcp.ResourcesReadResult{Contents: []mcp.ResourceContent{{
		URI:      resource.URI,
		MimeType: resource.MimeType,
		Text:     string(resource.Content),
	}}}
	return mcp.Response{JSONRPC: "2.0", ID: req.ID, Result: mcp.SafeMarshal(result, `{"contents":[]}`)}
}
