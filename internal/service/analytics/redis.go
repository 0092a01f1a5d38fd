package analytics

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisWriter pushes each event onto the list <prefix>:<category>:<day>.
type RedisWriter struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisWriter connects and pings the server.
func NewRedisWriter(ctx context.Context, addr, prefix string) (*RedisWriter, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWriterFromClient(rdb, prefix), nil
}

// NewRedisWriterFromClient wraps an existing client.
func NewRedisWriterFromClient(rdb *goredis.Client, prefix string) *RedisWriter {
	if prefix == "" {
		prefix = "lakehouse"
	}
	return &RedisWriter{rdb: rdb, prefix: prefix}
}

// Key returns the list key an event for category and day lands in.
func (w *RedisWriter) Key(category, day string) string {
	return w.prefix + ":" + category + ":" + day
}

func (w *RedisWriter) Write(ctx context.Context, category, day string, line []byte) error {
	return w.rdb.RPush(ctx, w.Key(category, day), line).Err()
}

func (w *RedisWriter) Close() error {
	if w == nil || w.rdb == nil {
		return nil
	}
	return w.rdb.Close()
}
