package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	contractsv1 "atomsi/contracts/gen/events/v1"
)

const DefaultStream = "atomsi.events"

// StreamAppender is the slice of the redis client the forwarder needs.
type StreamAppender interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// RedisStreamForwarder mirrors every bus event onto a Redis stream for
// out-of-process consumers. It is a bus subscriber like any other and
// cannot stall producers.
type RedisStreamForwarder struct {
	Bus    *Bus
	Client StreamAppender
	Stream string
	MaxLen int64
	Logger *slog.Logger
}

func (f RedisStreamForwarder) Run(ctx context.Context) error {
	sub, err := f.Bus.Subscribe()
	if err != nil {
		return err
	}
	defer sub.Close()

	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("redis stream forwarder started",
		"event", "redis_forwarder_started",
		"module", moduleName,
		"layer", "worker",
		"stream", f.stream(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := f.Forward(ctx, event); err != nil {
				logger.Error("redis stream append failed",
					"event", "redis_forwarder_append_failed",
					"module", moduleName,
					"layer", "worker",
					"stream", f.stream(),
					"event_type", string(event.EventType),
					"error", err.Error(),
				)
			}
		}
	}
}

// Forward appends a single event as {event_type, timestamp, data} fields.
func (f RedisStreamForwarder) Forward(ctx context.Context, event contractsv1.DomainEvent) error {
	args := &redis.XAddArgs{
		Stream: f.stream(),
		Values: map[string]interface{}{
			"event_type": string(event.EventType),
			"timestamp":  event.Timestamp.UTC().Format(time.RFC3339Nano),
			"data":       string(event.Data),
		},
	}
	if f.MaxLen > 0 {
		args.MaxLen = f.MaxLen
		args.Approx = true
	}
	return f.Client.XAdd(ctx, args).Err()
}

func (f RedisStreamForwarder) stream() string {
	if f.Stream == "" {
		return DefaultStream
	}
	return f.Stream
}
