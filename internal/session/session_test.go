// In file: internal/session/session_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dileep-u-k/waterdata-mcp/internal/llm"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
)

func turn(question, answer string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleUser, Content: question},
		{Role: llm.RoleAssistant, Content: answer},
	}
}

func TestMemoryStoreAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Config{})

	msgs, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, msgs)

	require.NoError(t, s.Append(ctx, "c1", turn("flow?", "236 ft3/s")...))
	require.NoError(t, s.Append(ctx, "c1", turn("and peak?", "9960 ft3/s")...))

	msgs, err = s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	require.Equal(t, "and peak?", msgs[2].Content)

	// Loaded slices are copies.
	msgs[0].Content = "changed"
	again, _ := s.Load(ctx, "c1")
	require.Equal(t, "flow?", again[0].Content)
}

func TestMemoryStoreExpiresConversations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(Config{TTL: time.Minute})
	s.now = func() time.Time { return now }

	require.NoError(t, s.Append(ctx, "c1", turn("q", "a")...))
	now = now.Add(50 * time.Second)
	require.NoError(t, s.Append(ctx, "c1", turn("q2", "a2")...))

	// The second append refreshed the expiry.
	now = now.Add(50 * time.Second)
	msgs, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	now = now.Add(2 * time.Minute)
	msgs, err = s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestMemoryStoreTrimsToUserTurn(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Config{MaxMessages: 3})

	require.NoError(t, s.Append(ctx, "c1",
		llm.Message{Role: llm.RoleUser, Content: "q1"},
		llm.Message{Role: llm.RoleAssistant, ToolCalls: []*tools.ToolCall{{ID: "t1"}}},
		llm.Message{Role: llm.RoleTool, ToolCallID: "t1", Content: "{}"},
		llm.Message{Role: llm.RoleAssistant, Content: "a1"},
	))
	require.NoError(t, s.Append(ctx, "c1", turn("q2", "a2")...))

	// The last three messages open with the reply to q1, which is dropped.
	msgs, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "q2", msgs[0].Content)
}

func TestMemoryToolStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryToolStats()

	s.RecordToolCall(ctx, "get_daily_values", 100*time.Millisecond, true)
	s.RecordToolCall(ctx, "get_daily_values", 200*time.Millisecond, true)
	s.RecordToolCall(ctx, "get_daily_values", 100*time.Millisecond, false)

	stats, err := s.Stats(ctx, []string{"get_daily_values", "get_site_data"})
	require.NoError(t, err)
	require.Len(t, stats, 2)

	dv := stats[0]
	require.Equal(t, int64(2), dv.Successes)
	require.Equal(t, int64(1), dv.Failures)
	require.InDelta(t, 1.0/3.0, dv.ErrorRate, 1e-9)
	// 100, then 0.1*200 + 0.9*100 = 110, then 0.1*100 + 0.9*110 = 109.
	require.InDelta(t, 109.0, dv.AvgLatencyMS, 1e-9)

	require.Equal(t, "get_site_data", stats[1].Tool)
	require.Zero(t, stats[1].Successes)
	require.Zero(t, stats[1].ErrorRate)
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestRedisStoreAppendAndLoad(t *testing.T) {
	rdb, mr := newRedis(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, Config{KeyPrefix: "test", TTL: time.Minute})

	msgs, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, msgs)

	require.NoError(t, s.Append(ctx, "c1", turn("flow?", "236 ft3/s")...))
	require.NoError(t, s.Append(ctx, "c1", turn("and peak?", "9960 ft3/s")...))
	require.True(t, mr.Exists("test:history:v1:c1"))

	msgs, err = s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	require.Equal(t, llm.RoleAssistant, msgs[1].Role)
	require.Equal(t, "and peak?", msgs[2].Content)
	require.Equal(t, time.Minute, mr.TTL(s.key("c1")))
}

func TestRedisStoreExpiresConversations(t *testing.T) {
	rdb, mr := newRedis(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, Config{TTL: time.Minute})

	require.NoError(t, s.Append(ctx, "c1", turn("q", "a")...))
	mr.FastForward(50 * time.Second)
	require.NoError(t, s.Append(ctx, "c1", turn("q2", "a2")...))

	// The second append refreshed the expiry.
	mr.FastForward(50 * time.Second)
	msgs, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	mr.FastForward(2 * time.Minute)
	msgs, err = s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestRedisStoreTrimsToUserTurn(t *testing.T) {
	rdb, mr := newRedis(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, Config{MaxMessages: 3})

	require.NoError(t, s.Append(ctx, "c1",
		llm.Message{Role: llm.RoleUser, Content: "q1"},
		llm.Message{Role: llm.RoleAssistant, ToolCalls: []*tools.ToolCall{{ID: "t1"}}},
		llm.Message{Role: llm.RoleTool, ToolCallID: "t1", Content: "{}"},
		llm.Message{Role: llm.RoleAssistant, Content: "a1"},
	))
	require.NoError(t, s.Append(ctx, "c1", turn("q2", "a2")...))

	stored, err := mr.List(s.key("c1"))
	require.NoError(t, err)
	require.Len(t, stored, 3)

	// The list keeps "a1", "q2", "a2"; the orphaned answer is dropped on load.
	msgs, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "q2", msgs[0].Content)
}

func TestRedisStoreSkipsUnreadableEntries(t *testing.T) {
	rdb, mr := newRedis(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, Config{})

	require.NoError(t, s.Append(ctx, "c1", turn("q", "a")...))
	_, err := mr.Push(s.key("c1"), "not json")
	require.NoError(t, err)

	msgs, err := s.Load(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
}

func TestRedisToolStats(t *testing.T) {
	rdb, mr := newRedis(t)
	ctx := context.Background()
	s := NewRedisToolStats(rdb, "test")

	s.RecordToolCall(ctx, "get_stats", 100*time.Millisecond, true)
	s.RecordToolCall(ctx, "get_stats", 200*time.Millisecond, false)
	s.RecordToolCall(ctx, "get_stats", 100*time.Millisecond, true)
	require.True(t, mr.Exists("test:toolstats:v1:get_stats"))

	stats, err := s.Stats(ctx, []string{"get_stats", "get_pmcodes"})
	require.NoError(t, err)
	require.Len(t, stats, 2)

	require.Equal(t, "get_stats", stats[0].Tool)
	require.Equal(t, int64(2), stats[0].Successes)
	require.Equal(t, int64(1), stats[0].Failures)
	// 100, then 0.1*200+0.9*100 = 110, then 0.1*100+0.9*110 = 109.
	require.InDelta(t, 109.0, stats[0].AvgLatencyMS, 1e-9)
	require.InDelta(t, 1.0/3.0, stats[0].ErrorRate, 1e-9)

	require.Equal(t, "get_pmcodes", stats[1].Tool)
	require.Zero(t, stats[1].Successes)
	require.Zero(t, stats[1].AvgLatencyMS)
}
