package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/atomtree/pkg/snapshot"
)

// RedisConfig configures a RedisSource.
type RedisConfig struct {
	// Addr is the redis server address, e.g. "localhost:6379".
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	// Channel carries JSON snapshots.
	Channel string `toml:"channel"`
	// Key, if set, holds the latest snapshot and is read once on start.
	Key string `toml:"key"`
}

// RedisSource emits snapshots published on a redis channel.
type RedisSource struct {
	client  redis.UniversalClient
	channel string
	key     string
	backoff Backoff
	logger  *log.Logger
}

// NewRedisSource connects a source to the configured server.
func NewRedisSource(cfg RedisConfig, logger *log.Logger) (*RedisSource, error) {
	if cfg.Channel == "" {
		return nil, fmt.Errorf("redis source: channel is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisSourceWithClient(client, cfg.Channel, cfg.Key, logger), nil
}

// NewRedisSourceWithClient uses an existing client.
func NewRedisSourceWithClient(client redis.UniversalClient, channel, key string, logger *log.Logger) *RedisSource {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &RedisSource{
		client:  client,
		channel: channel,
		key:     key,
		backoff: DefaultBackoff,
		logger:  logger,
	}
}

// Close closes the redis client.
func (r *RedisSource) Close() error {
	return r.client.Close()
}

// Run subscribes to the channel and emits every decodable message. The
// connection is retried with backoff while the server is unreachable.
func (r *RedisSource) Run(ctx context.Context, emit Emit) error {
	err := RetryWithBackoff(ctx, r.backoff, func() error {
		if err := r.client.Ping(ctx).Err(); err != nil {
			r.logger.Warn("redis unreachable", "err", err)
			return Retryable(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	if r.key != "" {
		payload, err := r.client.Get(ctx, r.key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			r.logger.Debug("no seed snapshot", "key", r.key)
		case err != nil:
			return fmt.Errorf("get %s: %w", r.key, err)
		default:
			if err := r.handle(ctx, payload, emit); err != nil {
				return err
			}
		}
	}

	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.logger.Info("subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.handle(ctx, msg.Payload, emit); err != nil {
				return err
			}
		}
	}
}

// handle decodes one payload. Bad payloads are logged and dropped.
func (r *RedisSource) handle(ctx context.Context, payload string, emit Emit) error {
	s, err := snapshot.Decode([]byte(payload), snapshot.FormatJSON)
	if err != nil {
		r.logger.Warn("bad snapshot message", "channel", r.channel, "err", err)
		return nil
	}
	return emit(ctx, s)
}
