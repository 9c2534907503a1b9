// types.go — MCP typed response structs and resource types.
// Contains content blocks, tool results, initialize results, and resource types.
package mcp

// ContentBlock represents a single content block in an MCP tool result.
// Type selects which of Text/Data/Resource is populated, per the MCP
// content-block union (text, image, resource_link, embedded resource).
type ContentBlock struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Data     string         `json:"data,omitempty"`     // base64, for type=="image"
	MimeType string         `json:"mimeType,omitempty"` // for type=="image" or "resource"
	URI      string         `json:"uri,omitempty"`      // for type=="resource_link" or "resource"
	Resource *ResourceInner `json:"resource,omitempty"` // for type=="resource" (embedded)
}

// ResourceInner is the embedded-resource payload inside a "resource" content block.
type ResourceInner struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

// ToolResult represents the result of an MCP tool call.
type ToolResult struct {
	Content  []ContentBlock `json:"content"`
	IsError  bool           `json:"isError"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// InitializeResult represents the result of an MCP initialize request.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
	Capabilities    Capabilities `json:"capabilities"`
	Instructions    string       `json:"instructions,omitempty"`
}

// ServerInfo identifies the MCP server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Capabilities declares the server's MCP capabilities.
type Capabilities struct {
	Tools     ToolsCapability     `json:"tools"`
	Resources ResourcesCapability `json:"resources"`
}

// ToolsCapability declares tool support.
type ToolsCapability struct{}

// ResourcesCapability declares resource support.
type ResourcesCapability struct{}

// Resource describes an available resource (a cached scrape artifact).
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ResourceContent represents the content of a resource.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ResourcesListResult represents the result of a resources/list request.
type ResourcesListResult struct {
	Resources []Resource `json:"resources"`
}

// ResourcesReadResult represents the result of a resources/read request.
type ResourcesReadResult struct {
	Contents []ResourceContent `json:"contents"`
}

// ToolsListResult represents the result of a tools/list request.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

// ResourceTemplatesListResult represents the result of a resources/templates/list request.
type ResourceTemplatesListResult struct {
	ResourceTemplates []any `json:"resourceTemplates"`
}
