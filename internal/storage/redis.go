package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/constants"
	"ats-agent-go/internal/logger"
	"ats-agent-go/internal/types"
)

// Redis wraps the key-value store. It carries chat transcripts and the
// per-collection change feed consumed by connected UIs.
type Redis struct {
	client *redis.Client
}

func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Address, err)
	}
	return &Redis{client: client}, nil
}

// Client exposes the raw connection for collaborators like chat memory.
func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// PublishChange announces a collection mutation on the change feed. Feed
// delivery is best effort: a publish failure is logged, never propagated,
// because the mutation itself already succeeded.
func (r *Redis) PublishChange(ctx context.Context, collection, op, id string) {
	event := types.ChangeEvent{
		Collection: collection,
		Op:         op,
		ID:         id,
		At:         time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Msg("could not serialize change event")
		return
	}
	channel := constants.ChangeFeedPrefix + collection
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		logger.Warn().Str("channel", channel).Err(err).Msg("change feed publish failed")
	}
}

// SubscribeChanges delivers change events for one collection until ctx ends.
func (r *Redis) SubscribeChanges(ctx context.Context, collection string) (<-chan types.ChangeEvent, error) {
	channel := constants.ChangeFeedPrefix + collection
	sub := r.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
	}

	out := make(chan types.ChangeEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var event types.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Warn().Str("channel", channel).Err(err).Msg("skipping unreadable change event")
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
