package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/types"
)

// RedisChatMemory keeps transcripts in Redis lists so sessions survive
// restarts and are shared across instances. Each Append trims the list to
// the bound and refreshes the TTL.
type RedisChatMemory struct {
	client      *redis.Client
	maxMessages int
	ttl         time.Duration
}

func NewRedisChatMemory(client *redis.Client, maxMessages int, ttl time.Duration) *RedisChatMemory {
	return &RedisChatMemory{client: client, maxMessages: maxMessages, ttl: ttl}
}

func (m *RedisChatMemory) key(sessionID string) string {
	return constants.ChatMemoryPrefix + sessionID
}

func (m *RedisChatMemory) History(ctx context.Context, sessionID string) ([]types.ChatMessage, error) {
	raws, err := m.client.LRange(ctx, m.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read chat transcript: %w", err)
	}
	msgs := make([]types.ChatMessage, 0, len(raws))
	for _, raw := range raws {
		var msg types.ChatMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			// A corrupt entry loses one turn, not the session.
			logger.Warn().Str("session_id", sessionID).Err(err).Msg("skipping unreadable transcript entry")
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (m *RedisChatMemory) Append(ctx context.Context, sessionID string, msgs ...types.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	key := m.key(sessionID)
	pipe := m.client.Pipeline()
	for _, msg := range msgs {
		raw, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("serialize chat message: %w", err)
		}
		pipe.RPush(ctx, key, raw)
	}
	if m.maxMessages > 0 {
		pipe.LTrim(ctx, key, int64(-m.maxMessages), -1)
	}
	if m.ttl > 0 {
		pipe.Expire(ctx, key, m.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append chat transcript: %w", err)
	}
	return nil
}

func (m *RedisChatMemory) Clear(ctx context.Context, sessionID string) error {
	if err := m.client.Del(ctx, m.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear chat transcript: %w", err)
	}
	return nil
}
