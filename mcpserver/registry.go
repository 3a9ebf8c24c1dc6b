// Package mcpserver provides a typed, in-process MCP tool registry built on
// the official MCP Go SDK.
//
// In-process MCP execution is explicitly out of scope for the client
// control plane this module implements: every mcp_message control request
// the CLI sends is answered with a JSON-RPC -32601 error regardless of what
// is registered here (see the root package's handling of mcp_message).
// Registry exists so a caller still gets a real typed surface for
// describing tool shape, and so tests can build realistic tools/list-style
// fixtures without hand-rolling JSON-RPC envelopes.
package mcpserver

import (
	"context"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Registry wraps an mcp.Server and tracks the names of tools registered
// through Register, for introspection in tests and example code.
type Registry struct {
	server *mcp.Server
	names  []string
}

// New creates an empty registry identifying itself as name/version in the
// MCP initialize handshake, should the underlying server ever be served.
func New(name, version string) *Registry {
	return &Registry{
		server: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
	}
}

// Server returns the underlying MCP SDK server, for callers that want to
// serve it over HTTP or stdio themselves (outside this module's scope).
func (r *Registry) Server() *mcp.Server {
	return r.server
}

// ToolNames returns the names of every tool registered so far, in
// registration order.
func (r *Registry) ToolNames() []string {
	return append([]string(nil), r.names...)
}

// Register adds a typed tool handler to the registry. In and Out describe
// the tool's input and output shapes; the MCP SDK derives a JSON schema
// from In via reflection unless tool.InputSchema is set explicitly.
func Register[In, Out any](
	r *Registry,
	tool *mcp.Tool,
	handler func(context.Context, *mcp.CallToolRequest, *In) (*mcp.CallToolResult, Out, error),
) {
	mcp.AddTool(r.server, tool, handler)
	r.names = append(r.names, tool.Name)
}

// TextResult builds a successful CallToolResult carrying a single text
// content item.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// ErrorResult builds a failed CallToolResult carrying a single text content
// item describing the failure.
func ErrorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
