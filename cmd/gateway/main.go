// In file: cmd/gateway/main.go
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dileep-u-k/waterdata-mcp/internal/config"
	"github.com/dileep-u-k/waterdata-mcp/internal/llm"
	"github.com/dileep-u-k/waterdata-mcp/internal/mcpserver"
	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
	"github.com/dileep-u-k/waterdata-mcp/internal/session"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
	"github.com/dileep-u-k/waterdata-mcp/internal/version"

	"github.com/dimiro1/banner"
	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/redis/go-redis/v9"
)

const bannerTemplate = `{{ .Title "WATERDATA" "" 0 }}
Gateway {{ .AnsiColor.BrightCyan }}%s{{ .AnsiColor.Default }} | {{ .GoVersion }} | {{ .Now "2006-01-02 15:04:05" }}
`

// main is the composition root: it loads configuration, builds the services,
// injects dependencies, and starts the server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := version.Get()
	banner.Init(os.Stderr, true, true, bytes.NewBufferString(fmt.Sprintf(bannerTemplate, buildInfo.Version)))
	log.Printf("🚀 Starting Water Data Gateway | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	// 1. LOAD CONFIGURATION
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	log.Println("✅ Configuration loaded.")

	// 2. INITIALIZE SERVICES
	store, stats := initializeSession(cfg)

	registry, err := tools.NewHydroRegistry(nwis.NewClient(cfg.NWIS, nil))
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	dispatcher := tools.NewDispatcher(registry, cfg.Tools, stats)
	log.Printf("✅ Tool registry initialized with %d tools.", registry.Count())

	info := mcpserver.ServiceContext(registry)
	mcpServer, err := mcpserver.New(dispatcher, info)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpServer }, nil)

	newClient := func(ctx context.Context, model string) (llm.LLMClient, error) {
		return llm.NewClientForModel(ctx, model, cfg.APIKeys)
	}
	gatewayHandler := NewGatewayHandler(newClient, dispatcher, store, stats, cfg.Agent, info)
	log.Println("✅ All services initialized.")

	// 3. SETUP AND RUN THE WEB SERVER
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	engine := newEngine(gatewayHandler, mcpHandler)
	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(srv)
}

// initializeSession uses Redis when REDIS_ADDR is set and reachable, and
// process memory otherwise.
func initializeSession(cfg *config.AppConfig) (session.Store, session.ToolStats) {
	if cfg.RedisAddr == "" {
		log.Println("⚠️ REDIS_ADDR not set; conversations and tool stats are kept in memory.")
		return session.NewMemoryStore(cfg.Session), session.NewMemoryToolStats()
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("❌ FATAL: Could not connect to Redis: %v", err)
	}
	log.Printf("✅ Connected to Redis at %s.", cfg.RedisAddr)
	return session.NewRedisStore(rdb, cfg.Session), session.NewRedisToolStats(rdb, cfg.Session.KeyPrefix)
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("👂 Gateway is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server shutdown failed:", err)
	}

	log.Println("👋 Server exited gracefully.")
}
