// Package redis implements the Redis-backed adapters: a chainevents.Sink
// that appends block decisions to a Redis stream.
package redis

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

type client struct {
	conn *redis.Client

	stream       string
	streamMaxLen int64
}

func (c *client) Close() error {
	return c.conn.Close()
}

type config struct {
	stream       string
	streamMaxLen int64
}

// Option configures the client.
type Option func(*config)

// WithStream sets the stream key events are appended to.
func WithStream(key string) Option {
	return func(c *config) {
		if key != "" {
			c.stream = key
		}
	}
}

// WithStreamMaxLen caps the stream length (approximate trimming). Zero keeps
// every entry.
func WithStreamMaxLen(n int64) Option {
	return func(c *config) {
		c.streamMaxLen = max(n, 0)
	}
}

// NewClient connects to Redis and pings it before returning.
func NewClient(ctx context.Context, addr, username, password string, db int, opts ...Option) (*client, error) {
	cfg := config{
		stream:       defaultEventStream,
		streamMaxLen: defaultEventStreamMaxLen,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &client{
		conn:         conn,
		stream:       cfg.stream,
		streamMaxLen: cfg.streamMaxLen,
	}, nil
}
