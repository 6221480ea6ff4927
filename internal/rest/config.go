// Package rest provides proxy configuration.
package rest

import (
	"context"
	"net"
	"time"
)

// Resolver resolves the ratelimiter service hostname to addresses.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Config captures dependency and runtime settings for the proxy.
type Config struct {
	ListenAddr         string
	UpstreamHost       string
	Token              string
	RatelimiterAddress string
	RatelimiterPort    int
	DiscoveryInterval  time.Duration
	VirtualNodes       int
	InboundRate        float64
	InboundBurst       int
	EnableMetrics      bool
	EventsRedisAddr    string
	EventsQueue        string
	NodeID             string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	UpstreamTimeout    time.Duration
	ReportTimeout      time.Duration
	DrainTimeout       time.Duration

	Resolver  Resolver
	Dialer    NodeDialer
	Logger    Logger
	Metrics   Metrics
	Publisher EventPublisher
}
