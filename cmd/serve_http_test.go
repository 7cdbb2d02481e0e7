package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	podfstools "github.com/giantswarm/mcp-podfs/internal/tools/podfs"
	"github.com/giantswarm/mcp-podfs/internal/tools/testdata"
)

// startStreamableHTTP serves the full MCP server over streamable HTTP and
// returns an initialized client.
func startStreamableHTTP(t *testing.T, mock *testdata.MockK8sClient) (context.Context, *client.Client) {
	t.Helper()

	mcpSrv, err := newMCPServer(newTestServerContext(t, mock))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv, mcpserver.WithEndpointPath("/mcp")))
	handler, err := wrapHTTPHandler(mux, nil, SecurityServeConfig{MaxRequestBytes: defaultMaxRequestBytes})
	require.NoError(t, err)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	mcpClient, err := client.NewStreamableHttpClient(ts.URL + "/mcp")
	require.NoError(t, err)
	require.NoError(t, mcpClient.Start(ctx))
	t.Cleanup(func() { _ = mcpClient.Close() })

	_, err = mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "serve-test", Version: "1.0.0"},
		},
	})
	require.NoError(t, err)
	return ctx, mcpClient
}

func TestStreamableHTTPEndToEnd(t *testing.T) {
	mock := testdata.NewMockK8sClient(testdata.WebPod()).
		OnExec("etc/\nhello.txt*\n", "ls", "-F", "/").
		OnExec("web-0\n", "cat", "/etc/hostname")
	ctx, mcpClient := startStreamableHTTP(t, mock)

	toolsResp, err := mcpClient.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	var names []string
	for _, tool := range toolsResp.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, podfstools.ToolChildren)
	assert.Contains(t, names, podfstools.ToolRead)

	callTool := func(name string, args map[string]interface{}) *mcp.CallToolResult {
		t.Helper()
		result, err := mcpClient.CallTool(ctx, mcp.CallToolRequest{
			Request: mcp.Request{Method: "tools/call"},
			Params:  mcp.CallToolParams{Name: name, Arguments: args},
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.Content)
		return result
	}

	t.Log("=== children ===")
	result := callTool(podfstools.ToolChildren, map[string]interface{}{"pod": "web-0", "container": "nginx"})
	assert.False(t, result.IsError)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, "view:web-0:default:nginx:/hello.txt")

	t.Log("=== read ===")
	result = callTool(podfstools.ToolRead, map[string]interface{}{"uri": "view:web-0:default:nginx:/etc/hostname"})
	assert.False(t, result.IsError)
	text, ok = mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Equal(t, "web-0\n", text.Text)

	t.Log("=== failed read ===")
	result = callTool(podfstools.ToolRead, map[string]interface{}{"uri": "view:web-0:default:nginx:/missing"})
	assert.True(t, result.IsError)
}

func TestStreamableHTTPRejectsLargeRequests(t *testing.T) {
	mcpSrv, err := newMCPServer(newTestServerContext(t, testdata.NewMockK8sClient()))
	require.NoError(t, err)

	handler, err := wrapHTTPHandler(mcpserver.NewStreamableHTTPServer(mcpSrv), nil, SecurityServeConfig{MaxRequestBytes: 16})
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","clientInfo":{"name":"x","version":"1"}}}`
	resp, err := http.Post(ts.URL+"/mcp", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}
