// Package testserver runs a complete placement desk over HTTP for end to end
// tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ganot/placement-desk/internal/app"
	"github.com/ganot/placement-desk/internal/config"
	"github.com/ganot/placement-desk/internal/mcp"
	"github.com/ganot/placement-desk/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	App      *app.App
	Token    string
	Operator string
}

// New starts a server on the local sheet backend with auth enabled and one
// API key for operator.
func New(t *testing.T, token, operator string) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Gateway.RequestsPerSecond = 0
	cfg.Distribution.Pacing = 0

	desk, err := app.Build(context.Background(), cfg, nil)
	require.NoError(t, err)

	mcpServer := mcp.NewServer(mcp.Config{
		Handler:       desk.Handler,
		Resolver:      desk,
		AuthEnabled:   true,
		TransportMode: config.TransportHTTP,
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	server := httptest.NewServer(transport.NewServer(transport.Options{
		Handler:  desk.Handler,
		Exporter: desk.Distribution,
		Auth:     transport.AuthMiddleware(desk),
		MCP:      mcpHandler,
	}))

	ts := &TestServer{
		Server:   server,
		App:      desk,
		Token:    token,
		Operator: operator,
	}
	require.NoError(t, ts.AddAPIKey(token, operator))

	t.Cleanup(func() {
		server.Close()
		_ = desk.Close()
	})
	return ts
}

func (ts *TestServer) AddAPIKey(token, operator string) error {
	return ts.App.APIKeys.Create(context.Background(), token, operator, "test")
}

// RPC posts a JSON-RPC request to /rpc with the server's token.
func (ts *TestServer) RPC(t *testing.T, method string, params any) transport.Response {
	t.Helper()
	return ts.RPCWithToken(t, ts.Token, method, params)
}

func (ts *TestServer) RPCWithToken(t *testing.T, token, method string, params any) transport.Response {
	t.Helper()

	payload := map[string]any{"jsonrpc": "2.0", "method": method, "id": 1}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Decode re-encodes a JSON-RPC result into v.
func Decode(t *testing.T, result any, v any) {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

// ConnectMCP opens an MCP client session over streamable HTTP.
func (ts *TestServer) ConnectMCP(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: ts.Token, next: http.DefaultTransport}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(r)
}
