package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type addParams struct {
	A int `json:"a"`
	B int `json:"b"`
}

func TestRegisterTracksToolNames(t *testing.T) {
	r := New("calculator", "1.0.0")

	Register(r, &mcp.Tool{Name: "add", Description: "add two numbers"},
		func(_ context.Context, _ *mcp.CallToolRequest, p *addParams) (*mcp.CallToolResult, any, error) {
			return TextResult("ok"), nil, nil
		},
	)

	require.Equal(t, []string{"add"}, r.ToolNames())
	require.NotNil(t, r.Server())
}

func TestTextAndErrorResults(t *testing.T) {
	ok := TextResult("hello")
	require.False(t, ok.IsError)
	require.Len(t, ok.Content, 1)

	bad := ErrorResult("boom")
	require.True(t, bad.IsError)
}
