// In file: internal/mcpserver/server.go

// Package mcpserver publishes the tool registry over the Model Context
// Protocol. Every tool becomes an MCP tool whose calls go through the same
// dispatcher the gateway uses, and the service description is exposed as a
// resource.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/dileep-u-k/waterdata-mcp/internal/api"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
	"github.com/dileep-u-k/waterdata-mcp/internal/version"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// Name identifies the server to MCP clients.
	Name = "usgs-waterdata"
	// ContextURI is the resource holding the service description.
	ContextURI = "usgs://waterdata/context"

	instructions = "Tools for retrieving USGS National Water Information System data: site information, " +
		"daily and instantaneous values, statistics, peaks, measurements, groundwater levels, ratings, " +
		"parameter codes and water use. Results are JSON tables with column_names and data; " +
		"large results are truncated and say so."
)

// ServiceContext describes the data source and lists the registered tools.
func ServiceContext(registry *tools.Registry) api.ServiceContext {
	return api.ServiceContext{
		Source:           "USGS Water Data",
		Description:      "Data retrieval interface for USGS water data through the NWIS web services",
		Version:          version.Service,
		DocumentationURL: "https://waterservices.usgs.gov/docs/",
		Tools:            registry.Names(),
	}
}

// New builds an MCP server exposing every tool of the dispatcher's registry.
func New(dispatcher *tools.Dispatcher, info api.ServiceContext) (*mcp.Server, error) {
	server := mcp.NewServer(
		&mcp.Implementation{Name: Name, Version: info.Version},
		&mcp.ServerOptions{Instructions: instructions},
	)

	for _, def := range dispatcher.Registry().Definitions() {
		schema, err := inputSchema(def.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to convert schema of %s: %w", def.Function.Name, err)
		}
		server.AddTool(&mcp.Tool{
			Name:        def.Function.Name,
			Description: def.Function.Description,
			InputSchema: schema,
		}, toolHandler(dispatcher, def.Function.Name))
	}

	contextDoc, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode service context: %w", err)
	}
	server.AddResource(&mcp.Resource{
		URI:         ContextURI,
		Name:        "waterdata-context",
		Description: "Source, version and documentation of the USGS water data tools.",
		MIMEType:    "application/json",
	}, func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(contextDoc),
		}}}, nil
	})

	log.Printf("✅ MCP server ready with %d tools.", dispatcher.Registry().Count())
	return server, nil
}

// toolHandler forwards an MCP call to the dispatcher. Tool failures are
// reported in-band with IsError so the client's model can read them.
func toolHandler(dispatcher *tools.Dispatcher, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var raw string
		if req.Params != nil {
			raw = string(req.Params.Arguments)
		}
		if raw == "null" {
			raw = ""
		}
		res := dispatcher.DispatchJSON(ctx, name, raw)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Content()}},
			IsError: !res.Success,
		}, nil
	}
}

func inputSchema(s tools.JSONSchema) (map[string]any, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]any{}
	}
	return out, nil
}
