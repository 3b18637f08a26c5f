// In file: internal/session/stats.go
package session

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/dileep-u-k/waterdata-mcp/internal/api"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
	"github.com/dileep-u-k/waterdata-mcp/internal/version"

	"github.com/redis/go-redis/v9"
)

// latencyAlpha weights the newest sample in the moving latency average.
const latencyAlpha = 0.1

// ToolStats records every dispatch and reports per-tool counters.
type ToolStats interface {
	tools.Recorder
	// Stats returns one entry per name, in order. Tools never called report zeros.
	Stats(ctx context.Context, names []string) ([]api.ToolStats, error)
}

func ewma(current float64, calls int64, sample time.Duration) float64 {
	ms := float64(sample.Milliseconds())
	if calls == 0 {
		return ms
	}
	return latencyAlpha*ms + (1.0-latencyAlpha)*current
}

func newToolStats(tool string, successes, failures int64, avgLatency float64) api.ToolStats {
	s := api.ToolStats{Tool: tool, Successes: successes, Failures: failures, AvgLatencyMS: avgLatency}
	if total := successes + failures; total > 0 {
		s.ErrorRate = float64(failures) / float64(total)
	}
	return s
}

// =================================================================================
// Redis
// =================================================================================

// RedisToolStats keeps a hash per tool with its counters and average latency.
type RedisToolStats struct {
	rdb    *redis.Client
	prefix string
}

var _ ToolStats = (*RedisToolStats)(nil)

func NewRedisToolStats(rdb *redis.Client, keyPrefix string) *RedisToolStats {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisToolStats{rdb: rdb, prefix: keyPrefix}
}

func (s *RedisToolStats) key(tool string) string {
	return version.ToolStatsKey(s.prefix, tool)
}

// RecordToolCall updates the counters and the latency average in one transaction.
func (s *RedisToolStats) RecordToolCall(ctx context.Context, tool string, latency time.Duration, success bool) {
	key := s.key(tool)
	counter := "failures"
	if success {
		counter = "successes"
	}

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, key, "avg_latency_ms", "successes", "failures").Result()
		if err != nil && err != redis.Nil {
			return err
		}
		current := parseFloat(vals, 0)
		calls := parseInt(vals, 1) + parseInt(vals, 2)
		newLatency := ewma(current, calls, latency)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "avg_latency_ms", newLatency)
			pipe.HIncrBy(ctx, key, counter, 1)
			return nil
		})
		return err
	}, key)
	if err != nil {
		log.Printf("Error updating tool stats for %s: %v", tool, err)
	}
}

func (s *RedisToolStats) Stats(ctx context.Context, names []string) ([]api.ToolStats, error) {
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.SliceCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HMGet(ctx, s.key(name), "avg_latency_ms", "successes", "failures")
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	out := make([]api.ToolStats, len(names))
	for i, name := range names {
		vals := cmds[i].Val()
		out[i] = newToolStats(name, parseInt(vals, 1), parseInt(vals, 2), parseFloat(vals, 0))
	}
	return out, nil
}

func parseInt(vals []any, i int) int64 {
	if i >= len(vals) {
		return 0
	}
	str, _ := vals[i].(string)
	n, _ := strconv.ParseInt(str, 10, 64)
	return n
}

func parseFloat(vals []any, i int) float64 {
	if i >= len(vals) {
		return 0
	}
	str, _ := vals[i].(string)
	f, _ := strconv.ParseFloat(str, 64)
	return f
}

// =================================================================================
// Memory
// =================================================================================

type toolCounters struct {
	successes, failures int64
	avgLatency          float64
}

// MemoryToolStats is the in-process counterpart of RedisToolStats.
type MemoryToolStats struct {
	mu    sync.Mutex
	tools map[string]*toolCounters
}

var _ ToolStats = (*MemoryToolStats)(nil)

func NewMemoryToolStats() *MemoryToolStats {
	return &MemoryToolStats{tools: make(map[string]*toolCounters)}
}

func (s *MemoryToolStats) RecordToolCall(_ context.Context, tool string, latency time.Duration, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.tools[tool]
	if !ok {
		c = &toolCounters{}
		s.tools[tool] = c
	}
	c.avgLatency = ewma(c.avgLatency, c.successes+c.failures, latency)
	if success {
		c.successes++
	} else {
		c.failures++
	}
}

func (s *MemoryToolStats) Stats(_ context.Context, names []string) ([]api.ToolStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.ToolStats, len(names))
	for i, name := range names {
		c, ok := s.tools[name]
		if !ok {
			c = &toolCounters{}
		}
		out[i] = newToolStats(name, c.successes, c.failures, c.avgLatency)
	}
	return out, nil
}
