package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gokaycavdar/go-netguard/pkg/logging"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Geo.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %s, want 1h", cfg.Geo.CacheTTL)
	}
	if cfg.Scan.MaxLookups != 15 || cfg.Scan.MaxConnections != 200 {
		t.Errorf("unexpected scan defaults %+v", cfg.Scan)
	}
	if cfg.Geo.LookupTimeout != 3*time.Second {
		t.Errorf("LookupTimeout = %s", cfg.Geo.LookupTimeout)
	}
	if cfg.Geo.ResolvePrivate {
		t.Error("private addresses must not be resolved by default")
	}
}

func TestParseYAML(t *testing.T) {
	cfg := Default()
	err := cfg.Parse([]byte(`
server:
  listen: 0.0.0.0:8080
geo:
  provider: chain
  city_db: /data/GeoLite2-City.mmdb
  cache_ttl: 10m
scan:
  max_lookups: 5
  suspicious_ports: [23, 4444]
log:
  level: debug
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Server.Listen != "0.0.0.0:8080" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Geo.Provider != ProviderChain || cfg.Geo.CacheTTL != 10*time.Minute {
		t.Errorf("unexpected geo config %+v", cfg.Geo)
	}
	if !reflect.DeepEqual(cfg.Scan.SuspiciousPorts, []int{23, 4444}) {
		t.Errorf("SuspiciousPorts = %v", cfg.Scan.SuspiciousPorts)
	}
	if cfg.Scan.MaxConnections != 200 {
		t.Errorf("unset key lost its default: MaxConnections = %d", cfg.Scan.MaxConnections)
	}
	if cfg.LogLevel() != logging.LevelDebug {
		t.Errorf("LogLevel = %s", cfg.LogLevel())
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if err := Default().Parse([]byte("scan: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"NETGUARD_LISTEN":           ":9000",
		"NETGUARD_GEO_CACHE_TTL":    "120",
		"NETGUARD_MAX_LOOKUPS":      "3",
		"NETGUARD_RESOLVE_PRIVATE":  "true",
		"NETGUARD_SUSPICIOUS_PORTS": "23, 3389",
		"NETGUARD_RATE_LIMIT":       "0.5",
		"NETGUARD_LOG_LEVEL":        "  ",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Server.Listen != ":9000" || cfg.Server.RateLimit != 0.5 {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Geo.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %s, want bare seconds to parse", cfg.Geo.CacheTTL)
	}
	if !cfg.Geo.ResolvePrivate || cfg.Scan.MaxLookups != 3 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Scan.SuspiciousPorts, []int{23, 3389}) {
		t.Errorf("SuspiciousPorts = %v", cfg.Scan.SuspiciousPorts)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("blank variable overrode log level: %q", cfg.Log.Level)
	}
}

func TestApplyEnvDurationString(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(env(map[string]string{"NETGUARD_GEO_LOOKUP_TIMEOUT": "750ms"})); err != nil {
		t.Fatal(err)
	}
	if cfg.Geo.LookupTimeout != 750*time.Millisecond {
		t.Errorf("LookupTimeout = %s", cfg.Geo.LookupTimeout)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	tests := map[string]string{
		"NETGUARD_MAX_LOOKUPS":     "many",
		"NETGUARD_GEO_CACHE_TTL":   "soon",
		"NETGUARD_RESOLVE_PRIVATE": "perhaps",
		"NETGUARD_SECURE_PORTS":    "443,https",
		"NETGUARD_RATE_LIMIT":      "fast",
	}
	for key, value := range tests {
		err := Default().ApplyEnv(env(map[string]string{key: value}))
		if err == nil {
			t.Errorf("%s=%q: expected error", key, value)
			continue
		}
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not name %s", err, key)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Geo.Provider = "whois" }},
		{"mmdb without database", func(c *Config) { c.Geo.Provider = ProviderMMDB }},
		{"zero ttl", func(c *Config) { c.Geo.CacheTTL = 0 }},
		{"zero timeout", func(c *Config) { c.Geo.LookupTimeout = 0 }},
		{"negative quota", func(c *Config) { c.Scan.MaxLookups = -1 }},
		{"no connections", func(c *Config) { c.Scan.MaxConnections = 0 }},
		{"port out of range", func(c *Config) { c.Scan.SecurePorts = []int{70000} }},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }},
		{"empty listen", func(c *Config) { c.Server.Listen = "" }},
		{"burst without room", func(c *Config) { c.Server.RateBurst = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netguard.yaml")
	if err := os.WriteFile(path, []byte("scan:\n  max_lookups: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NETGUARD_MAX_CONNECTIONS", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scan.MaxLookups != 7 || cfg.Scan.MaxConnections != 50 {
		t.Errorf("unexpected scan config %+v", cfg.Scan)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
