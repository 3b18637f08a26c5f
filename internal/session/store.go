// In file: internal/session/store.go

// Package session keeps the state the gateway carries between requests:
// conversation histories and per-tool call statistics. Both live in Redis
// when an address is configured and in process memory otherwise.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dileep-u-k/waterdata-mcp/internal/llm"
	"github.com/dileep-u-k/waterdata-mcp/internal/version"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL       = time.Hour
	DefaultKeyPrefix = "waterdata"
)

// Config controls how long conversations are kept.
type Config struct {
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
	// MaxMessages bounds a stored conversation; older messages are trimmed.
	// Zero keeps everything.
	MaxMessages int `yaml:"max_messages"`
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	return c
}

// Store persists conversation histories keyed by conversation id.
type Store interface {
	// Load returns the stored messages of a conversation, or none if it is
	// unknown or expired.
	Load(ctx context.Context, conversationID string) ([]llm.Message, error)
	// Append adds messages to a conversation and refreshes its expiry.
	Append(ctx context.Context, conversationID string, messages ...llm.Message) error
}

// =================================================================================
// Redis
// =================================================================================

// RedisStore keeps each conversation as a Redis list of JSON messages.
type RedisStore struct {
	rdb *redis.Client
	cfg Config
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, cfg Config) *RedisStore {
	return &RedisStore{rdb: rdb, cfg: cfg.withDefaults()}
}

func (s *RedisStore) key(conversationID string) string {
	return version.HistoryKey(s.cfg.KeyPrefix, conversationID)
}

func (s *RedisStore) Load(ctx context.Context, conversationID string) ([]llm.Message, error) {
	items, err := s.rdb.LRange(ctx, s.key(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", conversationID, err)
	}
	return startAtUserTurn(decodeMessages(conversationID, items)), nil
}

func (s *RedisStore) Append(ctx context.Context, conversationID string, messages ...llm.Message) error {
	if len(messages) == 0 {
		return nil
	}
	values := make([]any, 0, len(messages))
	for _, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		values = append(values, string(b))
	}

	key := s.key(conversationID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.cfg.MaxMessages > 0 {
		pipe.LTrim(ctx, key, int64(-s.cfg.MaxMessages), -1)
	}
	pipe.Expire(ctx, key, s.cfg.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store conversation %s: %w", conversationID, err)
	}
	return nil
}

func decodeMessages(conversationID string, items []string) []llm.Message {
	messages := make([]llm.Message, 0, len(items))
	for _, item := range items {
		var m llm.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			log.Printf("Warning: skipping unreadable message in conversation %s: %v", conversationID, err)
			continue
		}
		messages = append(messages, m)
	}
	return messages
}

// startAtUserTurn drops anything before the first user message. Trimming can
// cut a conversation between a tool call and its result.
func startAtUserTurn(messages []llm.Message) []llm.Message {
	for i, m := range messages {
		if m.Role == llm.RoleUser {
			return messages[i:]
		}
	}
	return nil
}

// =================================================================================
// Memory
// =================================================================================

type memoryConversation struct {
	messages  []llm.Message
	expiresAt time.Time
}

// MemoryStore keeps conversations in process memory with the same expiry
// rules as RedisStore.
type MemoryStore struct {
	mu    sync.Mutex
	cfg   Config
	now   func() time.Time
	convo map[string]*memoryConversation
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{cfg: cfg.withDefaults(), now: time.Now, convo: make(map[string]*memoryConversation)}
}

func (s *MemoryStore) Load(_ context.Context, conversationID string) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convo[conversationID]
	if !ok {
		return nil, nil
	}
	if s.now().After(c.expiresAt) {
		delete(s.convo, conversationID)
		return nil, nil
	}
	return startAtUserTurn(append([]llm.Message(nil), c.messages...)), nil
}

func (s *MemoryStore) Append(_ context.Context, conversationID string, messages ...llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	c, ok := s.convo[conversationID]
	if !ok || now.After(c.expiresAt) {
		c = &memoryConversation{}
		s.convo[conversationID] = c
	}
	c.messages = append(c.messages, messages...)
	if limit := s.cfg.MaxMessages; limit > 0 && len(c.messages) > limit {
		c.messages = append([]llm.Message(nil), c.messages[len(c.messages)-limit:]...)
	}
	c.expiresAt = now.Add(s.cfg.TTL)

	// Drop expired conversations so the map does not grow without bound.
	for id, other := range s.convo {
		if now.After(other.expiresAt) {
			delete(s.convo, id)
		}
	}
	return nil
}
