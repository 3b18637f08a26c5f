// In file: cmd/waterdata-mcp/main.go

// Command waterdata-mcp serves the USGS water data tools to MCP clients over
// stdio (the default, for desktop clients that spawn the server) or over
// streamable HTTP.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dileep-u-k/waterdata-mcp/internal/config"
	"github.com/dileep-u-k/waterdata-mcp/internal/mcpserver"
	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
	"github.com/dileep-u-k/waterdata-mcp/internal/session"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
	"github.com/dileep-u-k/waterdata-mcp/internal/version"

	"github.com/dimiro1/banner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	transport := flag.String("transport", "stdio", "transport to serve on: stdio or http")
	addr := flag.String("addr", ":8000", "listen address for the http transport")
	flag.Parse()

	// stdout carries the protocol on stdio; everything else goes to stderr.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	registry, err := tools.NewHydroRegistry(nwis.NewClient(cfg.NWIS, nil))
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	dispatcher := tools.NewDispatcher(registry, cfg.Tools, session.NewMemoryToolStats())
	server, err := mcpserver.New(dispatcher, mcpserver.ServiceContext(registry))
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *transport {
	case "stdio":
		log.Printf("🚀 Serving %d tools over stdio (version %s)", registry.Count(), version.Get().Version)
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("❌ MCP server stopped: %v", err)
		}
	case "http":
		tpl := fmt.Sprintf("{{ .Title \"WATERDATA MCP\" \"\" 0 }}\nVersion: %s\n", version.Get().Version)
		banner.Init(os.Stderr, true, true, bytes.NewBufferString(tpl))
		serveHTTP(ctx, server, *addr)
	default:
		log.Fatalf("❌ Unknown transport %q (want stdio or http)", *transport)
	}
	log.Println("👋 MCP server exited.")
}

func serveHTTP(ctx context.Context, server *mcp.Server, addr string) {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		log.Printf("👂 MCP server is listening on http://localhost%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server shutdown failed: %v", err)
	}
}
