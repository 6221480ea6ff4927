package rest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(LoadOptions{Args: []string{}, Environ: []string{}})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ListenAddr != ":8090" {
		t.Fatalf("expected default listen address got %q", cfg.ListenAddr)
	}
	if cfg.UpstreamHost != "discord.com" {
		t.Fatalf("expected default upstream host got %q", cfg.UpstreamHost)
	}
	if cfg.RatelimiterAddress != "ratelimiter" || cfg.RatelimiterPort != 8092 {
		t.Fatalf("expected default ratelimiter target got %s:%d", cfg.RatelimiterAddress, cfg.RatelimiterPort)
	}
	if cfg.DiscoveryInterval != 10*time.Second {
		t.Fatalf("expected default discovery interval got %v", cfg.DiscoveryInterval)
	}
	if cfg.VirtualNodes != 16 {
		t.Fatalf("expected default virtual node count got %d", cfg.VirtualNodes)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(LoadOptions{
		Args: []string{},
		Environ: []string{
			"NOVA_REST_TOKEN=env-token",
			"NOVA_REST_RATELIMITER_ADDRESS=limiters.internal",
			"NOVA_REST_RATELIMITER_PORT=9000",
			"NOVA_REST_DISCOVERY_INTERVAL_MS=2500",
			"NOVA_REST_ENABLE_METRICS=true",
			"UNRELATED=ignored",
		},
	})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Token != "env-token" {
		t.Fatalf("expected env token got %q", cfg.Token)
	}
	if cfg.RatelimiterAddress != "limiters.internal" || cfg.RatelimiterPort != 9000 {
		t.Fatalf("expected env ratelimiter target got %s:%d", cfg.RatelimiterAddress, cfg.RatelimiterPort)
	}
	if cfg.DiscoveryInterval != 2500*time.Millisecond {
		t.Fatalf("expected env discovery interval got %v", cfg.DiscoveryInterval)
	}
	if !cfg.EnableMetrics {
		t.Fatalf("expected metrics enabled")
	}
}

func TestLoadConfig_InvalidEnvValue(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(LoadOptions{
		Args:    []string{},
		Environ: []string{"NOVA_REST_RATELIMITER_PORT=not-a-port"},
	})
	if err == nil {
		t.Fatalf("expected an invalid port to fail")
	}
}

func TestLoadConfig_FlagsBeatEnv(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(LoadOptions{
		Args:    []string{"-listen_addr", ":9999", "-token", "flag-token"},
		Environ: []string{"NOVA_REST_LISTEN_ADDR=:7777", "NOVA_REST_TOKEN=env-token"},
	})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("expected flag listen address got %q", cfg.ListenAddr)
	}
	if cfg.Token != "flag-token" {
		t.Fatalf("expected flag token got %q", cfg.Token)
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	contents := `{"UpstreamHost":"canary.discord.com","VirtualNodes":32,"DiscoveryIntervalMS":1000}`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(LoadOptions{ConfigPath: path, Args: []string{}, Environ: []string{}})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.UpstreamHost != "canary.discord.com" {
		t.Fatalf("expected file upstream host got %q", cfg.UpstreamHost)
	}
	if cfg.VirtualNodes != 32 {
		t.Fatalf("expected file virtual node count got %d", cfg.VirtualNodes)
	}
	if cfg.DiscoveryInterval != time.Second {
		t.Fatalf("expected file discovery interval got %v", cfg.DiscoveryInterval)
	}
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(LoadOptions{ConfigPath: "/does/not/exist.json", Args: []string{}, Environ: []string{}}); err == nil {
		t.Fatalf("expected a missing config file to fail")
	}
}
