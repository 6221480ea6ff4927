// Package rest provides configuration loading.
package rest

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadOptions controls config loading.
type LoadOptions struct {
	ConfigPath string
	Args       []string
	Environ    []string
}

// LoadConfig loads configuration from defaults, file, env, and flags, in
// that order of increasing precedence.
func LoadConfig(opts LoadOptions) (*Config, error) {
	args := opts.Args
	if args == nil {
		args = os.Args[1:]
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	flags, err := parseFlagOverrides(args)
	if err != nil {
		return nil, err
	}

	configPath := opts.ConfigPath
	if flags.ConfigPath != nil {
		configPath = *flags.ConfigPath
	}

	cfg := defaultConfig()
	if configPath != "" {
		overrides, err := loadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		applyConfigOverrides(cfg, overrides)
	}
	if err := applyEnvOverrides(cfg, environ); err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg, flags)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ListenAddr:         ":8090",
		UpstreamHost:       "discord.com",
		RatelimiterAddress: "ratelimiter",
		RatelimiterPort:    8092,
		DiscoveryInterval:  10 * time.Second,
		VirtualNodes:       16,
		EventsQueue:        "nova.cache.headers",
		HTTPReadTimeout:    15 * time.Second,
		HTTPWriteTimeout:   2 * time.Minute,
		HTTPIdleTimeout:    60 * time.Second,
		ReportTimeout:      5 * time.Second,
		DrainTimeout:       5 * time.Second,
	}
}

type configOverrides struct {
	ListenAddr          *string  `json:"ListenAddr"`
	UpstreamHost        *string  `json:"UpstreamHost"`
	Token               *string  `json:"Token"`
	RatelimiterAddress  *string  `json:"RatelimiterAddress"`
	RatelimiterPort     *int     `json:"RatelimiterPort"`
	DiscoveryIntervalMS *int64   `json:"DiscoveryIntervalMS"`
	VirtualNodes        *int     `json:"VirtualNodes"`
	InboundRate         *float64 `json:"InboundRate"`
	InboundBurst        *int     `json:"InboundBurst"`
	EnableMetrics       *bool    `json:"EnableMetrics"`
	EventsRedisAddr     *string  `json:"EventsRedisAddr"`
	EventsQueue         *string  `json:"EventsQueue"`
	NodeID              *string  `json:"NodeID"`
	HTTPReadTimeoutMS   *int64   `json:"HTTPReadTimeoutMS"`
	HTTPWriteTimeoutMS  *int64   `json:"HTTPWriteTimeoutMS"`
	HTTPIdleTimeoutMS   *int64   `json:"HTTPIdleTimeoutMS"`
	UpstreamTimeoutMS   *int64   `json:"UpstreamTimeoutMS"`
	ReportTimeoutMS     *int64   `json:"ReportTimeoutMS"`
	DrainTimeoutMS      *int64   `json:"DrainTimeoutMS"`
}

func loadConfigFile(path string) (*configOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var overrides configOverrides
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, err
	}
	return &overrides, nil
}

func applyConfigOverrides(cfg *Config, overrides *configOverrides) {
	if cfg == nil || overrides == nil {
		return
	}
	if overrides.ListenAddr != nil {
		cfg.ListenAddr = *overrides.ListenAddr
	}
	if overrides.UpstreamHost != nil {
		cfg.UpstreamHost = *overrides.UpstreamHost
	}
	if overrides.Token != nil {
		cfg.Token = *overrides.Token
	}
	if overrides.RatelimiterAddress != nil {
		cfg.RatelimiterAddress = *overrides.RatelimiterAddress
	}
	if overrides.RatelimiterPort != nil {
		cfg.RatelimiterPort = *overrides.RatelimiterPort
	}
	if overrides.DiscoveryIntervalMS != nil {
		cfg.DiscoveryInterval = time.Duration(*overrides.DiscoveryIntervalMS) * time.Millisecond
	}
	if overrides.VirtualNodes != nil {
		cfg.VirtualNodes = *overrides.VirtualNodes
	}
	if overrides.InboundRate != nil {
		cfg.InboundRate = *overrides.InboundRate
	}
	if overrides.InboundBurst != nil {
		cfg.InboundBurst = *overrides.InboundBurst
	}
	if overrides.EnableMetrics != nil {
		cfg.EnableMetrics = *overrides.EnableMetrics
	}
	if overrides.EventsRedisAddr != nil {
		cfg.EventsRedisAddr = *overrides.EventsRedisAddr
	}
	if overrides.EventsQueue != nil {
		cfg.EventsQueue = *overrides.EventsQueue
	}
	if overrides.NodeID != nil {
		cfg.NodeID = *overrides.NodeID
	}
	if overrides.HTTPReadTimeoutMS != nil {
		cfg.HTTPReadTimeout = time.Duration(*overrides.HTTPReadTimeoutMS) * time.Millisecond
	}
	if overrides.HTTPWriteTimeoutMS != nil {
		cfg.HTTPWriteTimeout = time.Duration(*overrides.HTTPWriteTimeoutMS) * time.Millisecond
	}
	if overrides.HTTPIdleTimeoutMS != nil {
		cfg.HTTPIdleTimeout = time.Duration(*overrides.HTTPIdleTimeoutMS) * time.Millisecond
	}
	if overrides.UpstreamTimeoutMS != nil {
		cfg.UpstreamTimeout = time.Duration(*overrides.UpstreamTimeoutMS) * time.Millisecond
	}
	if overrides.ReportTimeoutMS != nil {
		cfg.ReportTimeout = time.Duration(*overrides.ReportTimeoutMS) * time.Millisecond
	}
	if overrides.DrainTimeoutMS != nil {
		cfg.DrainTimeout = time.Duration(*overrides.DrainTimeoutMS) * time.Millisecond
	}
}

const envPrefix = "NOVA_REST_"

func applyEnvOverrides(cfg *Config, environ []string) error {
	if cfg == nil {
		return nil
	}
	for _, entry := range environ {
		key, value, found := strings.Cut(entry, "=")
		if !found || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		switch strings.TrimPrefix(key, envPrefix) {
		case "LISTEN_ADDR":
			cfg.ListenAddr = value
		case "UPSTREAM_HOST":
			cfg.UpstreamHost = value
		case "TOKEN":
			cfg.Token = value
		case "RATELIMITER_ADDRESS":
			cfg.RatelimiterAddress = value
		case "RATELIMITER_PORT":
			port, err := strconv.Atoi(value)
			if err != nil {
				return errors.New("invalid NOVA_REST_RATELIMITER_PORT")
			}
			cfg.RatelimiterPort = port
		case "DISCOVERY_INTERVAL_MS":
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return errors.New("invalid NOVA_REST_DISCOVERY_INTERVAL_MS")
			}
			cfg.DiscoveryInterval = time.Duration(ms) * time.Millisecond
		case "VIRTUAL_NODES":
			count, err := strconv.Atoi(value)
			if err != nil {
				return errors.New("invalid NOVA_REST_VIRTUAL_NODES")
			}
			cfg.VirtualNodes = count
		case "INBOUND_RATE":
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return errors.New("invalid NOVA_REST_INBOUND_RATE")
			}
			cfg.InboundRate = rate
		case "INBOUND_BURST":
			burst, err := strconv.Atoi(value)
			if err != nil {
				return errors.New("invalid NOVA_REST_INBOUND_BURST")
			}
			cfg.InboundBurst = burst
		case "ENABLE_METRICS":
			cfg.EnableMetrics = value == "true" || value == "1"
		case "EVENTS_REDIS_ADDR":
			cfg.EventsRedisAddr = value
		case "EVENTS_QUEUE":
			cfg.EventsQueue = value
		case "NODE_ID":
			cfg.NodeID = value
		}
	}
	return nil
}

type flagOverrides struct {
	ConfigPath         *string
	ListenAddr         *string
	UpstreamHost       *string
	Token              *string
	RatelimiterAddress *string
	RatelimiterPort    *int
	EnableMetrics      *bool
	InboundRate        *float64
	InboundBurst       *int
}

func parseFlagOverrides(args []string) (flagOverrides, error) {
	fs := flag.NewFlagSet("rest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	configPath := fs.String("config", "", "config file path")
	listenAddr := fs.String("listen_addr", "", "proxy listen address")
	upstreamHost := fs.String("upstream_host", "", "upstream api host")
	token := fs.String("token", "", "bot token")
	ratelimiterAddress := fs.String("ratelimiter_address", "", "ratelimiter hostname")
	ratelimiterPort := fs.Int("ratelimiter_port", 0, "ratelimiter port")
	enableMetrics := fs.Bool("enable_metrics", false, "enable metrics endpoint")
	inboundRate := fs.Float64("inbound_rate", 0, "inbound requests per second per client")
	inboundBurst := fs.Int("inbound_burst", 0, "inbound burst per client")

	if err := fs.Parse(args); err != nil {
		return flagOverrides{}, errors.New("invalid flag values")
	}

	overrides := flagOverrides{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config":
			overrides.ConfigPath = configPath
		case "listen_addr":
			overrides.ListenAddr = listenAddr
		case "upstream_host":
			overrides.UpstreamHost = upstreamHost
		case "token":
			overrides.Token = token
		case "ratelimiter_address":
			overrides.RatelimiterAddress = ratelimiterAddress
		case "ratelimiter_port":
			overrides.RatelimiterPort = ratelimiterPort
		case "enable_metrics":
			overrides.EnableMetrics = enableMetrics
		case "inbound_rate":
			overrides.InboundRate = inboundRate
		case "inbound_burst":
			overrides.InboundBurst = inboundBurst
		}
	})
	return overrides, nil
}

func applyFlagOverrides(cfg *Config, overrides flagOverrides) {
	if cfg == nil {
		return
	}
	if overrides.ListenAddr != nil {
		cfg.ListenAddr = *overrides.ListenAddr
	}
	if overrides.UpstreamHost != nil {
		cfg.UpstreamHost = *overrides.UpstreamHost
	}
	if overrides.Token != nil {
		cfg.Token = *overrides.Token
	}
	if overrides.RatelimiterAddress != nil {
		cfg.RatelimiterAddress = *overrides.RatelimiterAddress
	}
	if overrides.RatelimiterPort != nil {
		cfg.RatelimiterPort = *overrides.RatelimiterPort
	}
	if overrides.EnableMetrics != nil {
		cfg.EnableMetrics = *overrides.EnableMetrics
	}
	if overrides.InboundRate != nil {
		cfg.InboundRate = *overrides.InboundRate
	}
	if overrides.InboundBurst != nil {
		cfg.InboundBurst = *overrides.InboundBurst
	}
}
