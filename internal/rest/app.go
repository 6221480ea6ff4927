// Package rest wires application dependencies.
package rest

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Application holds core components for the proxy.
type Application struct {
	Config      *Config
	Ratelimiter *RemoteRatelimiter
	Handler     *ProxyHandler
	Inbound     *InboundLimiter

	transport *HTTPTransport
	registry  *prometheus.Registry
	publisher *RedisEventPublisher
	ready     atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewApplication validates configuration and prepares the application. The
// ratelimiter discovery loop starts here; Shutdown stops it.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("token is required")
	}
	if cfg.RatelimiterAddress == "" {
		return nil, errors.New("ratelimiter address is required")
	}
	if cfg.UpstreamHost == "" {
		cfg.UpstreamHost = "discord.com"
	}
	if cfg.Logger == nil {
		cfg.Logger = NewZerologLogger(os.Stderr)
	}
	if cfg.NodeID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "rest"
		}
		cfg.NodeID = hostname
	}

	app := &Application{Config: cfg}

	if cfg.Metrics == nil {
		if cfg.EnableMetrics {
			app.registry = prometheus.NewRegistry()
			cfg.Metrics = NewPrometheusMetrics(app.registry)
		} else {
			cfg.Metrics = NewInMemoryMetrics()
		}
	}

	if cfg.Publisher == nil && cfg.EventsRedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.EventsRedisAddr})
		app.publisher = NewRedisEventPublisher(rdb, cfg.EventsQueue, cfg.NodeID)
		cfg.Publisher = app.publisher
	}

	app.Ratelimiter = NewRemoteRatelimiter(cfg)
	app.Handler = NewProxyHandler(cfg, app.Ratelimiter)

	var handler http.Handler = app.Handler
	if cfg.InboundRate > 0 {
		app.Inbound = NewInboundLimiter(cfg.InboundRate, cfg.InboundBurst)
		handler = app.Inbound.Middleware(handler)
	}
	handler = requestLogMiddleware(cfg.Logger, handler)

	transport := NewHTTPTransport(cfg.ListenAddr, handler, app.Ready)
	transport.readTimeout = cfg.HTTPReadTimeout
	transport.writeTimeout = cfg.HTTPWriteTimeout
	transport.idleTimeout = cfg.HTTPIdleTimeout
	if app.registry != nil {
		transport.metricsPage = promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})
	}
	app.transport = transport

	return app, nil
}

// Start begins serving and background work for the application.
func (app *Application) Start(ctx context.Context) error {
	if app == nil {
		return errors.New("application is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	app.cancel = cancel

	if app.Inbound != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.Inbound.StartJanitor(ctx)
		}()
	}
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := app.transport.Start(); err != nil {
			app.Config.Logger.Error("http transport stopped", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	app.ready.Store(true)
	return nil
}

// Shutdown stops serving and background work for the application.
func (app *Application) Shutdown(ctx context.Context) error {
	if app == nil {
		return errors.New("application is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	app.ready.Store(false)
	if app.cancel != nil {
		app.cancel()
	}
	if app.transport != nil {
		_ = app.transport.Shutdown(ctx)
	}
	if app.Handler != nil {
		_ = app.Handler.Drain(ctx)
	}
	if app.Ratelimiter != nil {
		app.Ratelimiter.Close()
	}
	if app.publisher != nil {
		_ = app.publisher.Close()
	}

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the application has completed startup.
func (app *Application) Ready() bool {
	if app == nil {
		return false
	}
	return app.ready.Load()
}
