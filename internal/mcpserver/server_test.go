// In file: internal/mcpserver/server_test.go
package mcpserver_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/waterdata-mcp/internal/api"
	"github.com/dileep-u-k/waterdata-mcp/internal/mcpserver"
	"github.com/dileep-u-k/waterdata-mcp/internal/nwis/nwistest"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	srv := nwistest.NewServer()
	t.Cleanup(srv.Close)
	registry, err := tools.NewHydroRegistry(srv.Client())
	require.NoError(t, err)
	dispatcher := tools.NewDispatcher(registry, tools.DispatcherConfig{}, nil)

	server, err := mcpserver.New(dispatcher, mcpserver.ServiceContext(registry))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestListTools(t *testing.T) {
	session := connect(t)
	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, res.Tools, 13)

	var found bool
	for _, tool := range res.Tools {
		if tool.Name == "get_daily_values" {
			found = true
			schema, err := json.Marshal(tool.InputSchema)
			require.NoError(t, err)
			require.Contains(t, string(schema), `"site_code"`)
			require.Contains(t, string(schema), `"required":["site_code"]`)
		}
	}
	require.True(t, found)
}

func TestCallToolSuccess(t *testing.T) {
	session := connect(t)
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_daily_values",
		Arguments: map[string]any{"site_code": nwistest.SiteDaily, "start_date": "2020-01-01", "end_date": "2020-01-03"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	var doc struct {
		Status    string `json:"status"`
		TotalRows int    `json:"total_rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &doc))
	require.Equal(t, "success", doc.Status)
	require.Equal(t, 3, doc.TotalRows)
}

func TestCallToolFailureIsInBand(t *testing.T) {
	session := connect(t)
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_site_data",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, text(t, res), "site_code")
}

func TestReadContextResource(t *testing.T) {
	session := connect(t)
	res, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: mcpserver.ContextURI})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	var info api.ServiceContext
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &info))
	require.Equal(t, "USGS Water Data", info.Source)
	require.Contains(t, info.Tools, "get_water_use")
}
