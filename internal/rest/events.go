// Package rest provides the cache queue event publisher.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// EventPublisher forwards observed rate limit headers to an external queue.
type EventPublisher interface {
	Publish(ctx context.Context, key uint64, headers map[string]string) error
}

// CachePayload wraps queue payloads with trace attribution.
type CachePayload struct {
	Tracing PayloadTracing `json:"tracing"`
	Data    any            `json:"data"`
}

// PayloadTracing identifies the emitting node and, when sampled, the span.
type PayloadTracing struct {
	NodeID string  `json:"node_id"`
	Span   *string `json:"span,omitempty"`
}

type headersEvent struct {
	Bucket  string            `json:"bucket"`
	Headers map[string]string `json:"headers"`
}

// RedisEventPublisher pushes header events onto a Redis list.
type RedisEventPublisher struct {
	rdb    *redis.Client
	queue  string
	nodeID string
}

// NewRedisEventPublisher constructs a publisher for a queue.
func NewRedisEventPublisher(rdb *redis.Client, queue, nodeID string) *RedisEventPublisher {
	return &RedisEventPublisher{rdb: rdb, queue: queue, nodeID: nodeID}
}

// Publish wraps the headers in a tracing envelope and pushes them onto the
// queue.
func (p *RedisEventPublisher) Publish(ctx context.Context, key uint64, headers map[string]string) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	data, err := p.payload(ctx, key, headers)
	if err != nil {
		return err
	}
	if err := p.rdb.LPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("push headers event: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (p *RedisEventPublisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

func (p *RedisEventPublisher) payload(ctx context.Context, key uint64, headers map[string]string) ([]byte, error) {
	var span *string
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		id := sc.SpanID().String()
		span = &id
	}
	return json.Marshal(CachePayload{
		Tracing: PayloadTracing{NodeID: p.nodeID, Span: span},
		Data: headersEvent{
			Bucket:  strconv.FormatUint(key, 10),
			Headers: headers,
		},
	})
}
