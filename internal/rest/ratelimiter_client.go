// Package rest provides the remote ratelimiter client.
package rest

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	ratelimiterv1 "github.com/discordnova/nova/internal/rest/gen/ratelimiter/v1"
)

// Ratelimiter grants tickets and accepts header reports for buckets.
type Ratelimiter interface {
	Ticket(ctx context.Context, key uint64) error
	SubmitHeaders(ctx context.Context, key uint64, headers map[string]string) error
}

// RemoteRatelimiter routes bucket keys to ratelimiter replicas over a
// consistent hash ring. A background loop resolves the service hostname on
// an interval and registers newly seen IPv4 addresses; nodes are never
// evicted once registered.
type RemoteRatelimiter struct {
	address  string
	port     int
	interval time.Duration
	resolver Resolver
	dial     NodeDialer
	logger   Logger
	tracer   trace.Tracer

	mu   sync.RWMutex
	ring *HashRing

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRemoteRatelimiter constructs the client and starts its discovery loop.
// Callers must Close the client to stop discovery.
func NewRemoteRatelimiter(cfg *Config) *RemoteRatelimiter {
	interval := cfg.DiscoveryInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	logger := cfg.Logger
	if logger == nil {
		logger = NewZerologLogger(nil)
	}
	r := &RemoteRatelimiter{
		address:  cfg.RatelimiterAddress,
		port:     cfg.RatelimiterPort,
		interval: interval,
		resolver: resolver,
		dial:     cfg.Dialer,
		logger:   logger,
		tracer:   otel.Tracer("nova/rest"),
		ring:     NewHashRing(cfg.VirtualNodes),
		stop:     make(chan struct{}),
	}
	r.wg.Add(1)
	go r.discoverLoop()
	return r
}

func (r *RemoteRatelimiter) discoverLoop() {
	defer r.wg.Done()
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	for {
		if err := r.refresh(context.Background()); err != nil {
			r.logger.Error("refreshing ratelimiter nodes failed", map[string]any{
				"address": r.address,
				"error":   err.Error(),
			})
		}
		timer.Reset(r.interval)
		select {
		case <-timer.C:
		case <-r.stop:
			return
		}
	}
}

// refresh resolves the service hostname and registers unseen IPv4 addresses.
func (r *RemoteRatelimiter) refresh(ctx context.Context) error {
	ips, err := r.resolver.LookupIP(ctx, "ip", r.address)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", r.address, err)
	}
	for _, ip := range ips {
		v4 := ip.To4()
		if v4 == nil {
			continue
		}
		address := v4.String()
		id := net.JoinHostPort(address, strconv.Itoa(r.port))
		r.mu.RLock()
		known := r.ring.Has(id)
		r.mu.RUnlock()
		if known {
			continue
		}
		node, err := NewRingNode(address, r.port, r.dial)
		if err != nil {
			r.logger.Error("failed to connect ratelimiter node", map[string]any{
				"node":  id,
				"error": err.Error(),
			})
			continue
		}
		r.mu.Lock()
		if r.ring.Has(id) {
			r.mu.Unlock()
			node.Close()
			continue
		}
		r.ring.Add(node)
		members := r.ring.Len()
		r.mu.Unlock()
		r.logger.Info("registered ratelimiter node", map[string]any{
			"node":    id,
			"members": members,
		})
	}
	return nil
}

// owner resolves the node owning a bucket key.
func (r *RemoteRatelimiter) owner(key uint64) (*RingNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, ok := r.ring.Get(key)
	if !ok {
		return nil, ErrNoRatelimiterNodes
	}
	return node, nil
}

// Ticket asks the owning replica for permission to issue one upstream
// request against the bucket. It returns once the replica grants; the
// replica may delay its reply to enforce pacing. Failures are not retried.
func (r *RemoteRatelimiter) Ticket(ctx context.Context, key uint64) error {
	node, err := r.owner(key)
	if err != nil {
		return err
	}
	ctx, span := r.tracer.Start(ctx, "ticket request")
	defer span.End()
	ctx = injectTraceContext(ctx)
	request := &ratelimiterv1.BucketSubmitTicketRequest{
		Path: strconv.FormatUint(key, 10),
	}
	if _, err := node.Client().SubmitTicket(ctx, request); err != nil {
		span.RecordError(err)
		return fmt.Errorf("submit ticket: %w", err)
	}
	return nil
}

// SubmitHeaders reports observed rate limit headers for a bucket with a
// millisecond capture timestamp.
func (r *RemoteRatelimiter) SubmitHeaders(ctx context.Context, key uint64, headers map[string]string) error {
	node, err := r.owner(key)
	if err != nil {
		return err
	}
	ctx, span := r.tracer.Start(ctx, "submit headers")
	defer span.End()
	ctx = injectTraceContext(ctx)
	request := &ratelimiterv1.HeadersSubmitRequest{
		Path:        strconv.FormatUint(key, 10),
		PreciseTime: uint64(time.Now().UnixMilli()),
		Headers:     headers,
	}
	if _, err := node.Client().SubmitHeaders(ctx, request); err != nil {
		span.RecordError(err)
		return fmt.Errorf("submit headers: %w", err)
	}
	return nil
}

// Close stops the discovery loop and tears down node channels. Closing more
// than once is tolerated and only logged.
func (r *RemoteRatelimiter) Close() {
	closed := false
	r.stopOnce.Do(func() {
		close(r.stop)
		closed = true
	})
	if !closed {
		r.logger.Error("ratelimiter was already stopped", nil)
		return
	}
	r.wg.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range r.ring.Members() {
		node.Close()
	}
}
