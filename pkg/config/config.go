// Package config loads netguard settings from an optional YAML file and
// NETGUARD_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gokaycavdar/go-netguard/pkg/geoip"
	"github.com/gokaycavdar/go-netguard/pkg/logging"
	"github.com/gokaycavdar/go-netguard/pkg/models"
	"github.com/gokaycavdar/go-netguard/pkg/netstat"
	"github.com/gokaycavdar/go-netguard/pkg/storage"
)

// Geolocation providers.
const (
	ProviderIPAPI = "ip-api"
	ProviderMMDB  = "mmdb"
	ProviderChain = "chain"
)

// Defaults.
const (
	DefaultListen        = "127.0.0.1:5000"
	DefaultMaxLookups    = 15
	DefaultLookupTimeout = 3 * time.Second
	DefaultRateLimit     = 5.0
	DefaultRateBurst     = 10
)

// Config is the full runtime configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Geo    GeoConfig    `yaml:"geo"`
	Scan   ScanConfig   `yaml:"scan"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	// RateLimit is the sustained requests per second allowed on the lookup
	// endpoints. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// GeoConfig configures geolocation resolution and caching.
type GeoConfig struct {
	Provider       string        `yaml:"provider"`
	IPAPIURL       string        `yaml:"ipapi_url"`
	CityDB         string        `yaml:"city_db"`
	ASNDB          string        `yaml:"asn_db"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	LookupTimeout  time.Duration `yaml:"lookup_timeout"`
	ResolvePrivate bool          `yaml:"resolve_private"`
}

// ScanConfig configures investigation passes.
type ScanConfig struct {
	MaxConnections  int    `yaml:"max_connections"`
	MaxLookups      int    `yaml:"max_lookups"` // 0 disables lookups
	SuspiciousPorts []int  `yaml:"suspicious_ports"`
	SecurePorts     []int  `yaml:"secure_ports"`
	BlocklistPath   string `yaml:"blocklist_path"`
	ProcRoot        string `yaml:"proc_root"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:    DefaultListen,
			RateLimit: DefaultRateLimit,
			RateBurst: DefaultRateBurst,
		},
		Geo: GeoConfig{
			Provider:      ProviderIPAPI,
			IPAPIURL:      geoip.DefaultIPAPIURL,
			CacheTTL:      storage.DefaultTTL,
			LookupTimeout: DefaultLookupTimeout,
		},
		Scan: ScanConfig{
			MaxConnections:  netstat.DefaultLimit,
			MaxLookups:      DefaultMaxLookups,
			SuspiciousPorts: append([]int(nil), models.DefaultSuspiciousPorts...),
			SecurePorts:     append([]int(nil), models.DefaultSecurePorts...),
			ProcRoot:        netstat.DefaultProcRoot,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.Parse(data); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse overlays YAML data onto cfg. Keys absent from data keep their values.
func (c *Config) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// ApplyEnv overlays NETGUARD_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.setString("NETGUARD_LISTEN", &c.Server.Listen)
	e.setFloat("NETGUARD_RATE_LIMIT", &c.Server.RateLimit)
	e.setInt("NETGUARD_RATE_BURST", &c.Server.RateBurst)

	e.setString("NETGUARD_GEO_PROVIDER", &c.Geo.Provider)
	e.setString("NETGUARD_IPAPI_URL", &c.Geo.IPAPIURL)
	e.setString("NETGUARD_GEO_CITY_DB", &c.Geo.CityDB)
	e.setString("NETGUARD_GEO_ASN_DB", &c.Geo.ASNDB)
	e.setDuration("NETGUARD_GEO_CACHE_TTL", &c.Geo.CacheTTL)
	e.setDuration("NETGUARD_GEO_LOOKUP_TIMEOUT", &c.Geo.LookupTimeout)
	e.setBool("NETGUARD_RESOLVE_PRIVATE", &c.Geo.ResolvePrivate)

	e.setInt("NETGUARD_MAX_CONNECTIONS", &c.Scan.MaxConnections)
	e.setInt("NETGUARD_MAX_LOOKUPS", &c.Scan.MaxLookups)
	e.setPorts("NETGUARD_SUSPICIOUS_PORTS", &c.Scan.SuspiciousPorts)
	e.setPorts("NETGUARD_SECURE_PORTS", &c.Scan.SecurePorts)
	e.setString("NETGUARD_BLOCKLIST", &c.Scan.BlocklistPath)
	e.setString("NETGUARD_PROC_ROOT", &c.Scan.ProcRoot)

	e.setString("NETGUARD_LOG_LEVEL", &c.Log.Level)

	return e.err
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("config: server.listen is required")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("config: server.rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("config: server.rate_burst must be at least 1 when rate limiting is enabled")
	}

	switch c.Geo.Provider {
	case ProviderIPAPI:
	case ProviderMMDB, ProviderChain:
		if c.Geo.CityDB == "" {
			return fmt.Errorf("config: geo.city_db is required for provider %q", c.Geo.Provider)
		}
	default:
		return fmt.Errorf("config: unknown geo.provider %q", c.Geo.Provider)
	}
	if c.Geo.Provider != ProviderMMDB && c.Geo.IPAPIURL == "" {
		return fmt.Errorf("config: geo.ipapi_url is required for provider %q", c.Geo.Provider)
	}
	if c.Geo.CacheTTL <= 0 {
		return fmt.Errorf("config: geo.cache_ttl must be positive")
	}
	if c.Geo.LookupTimeout <= 0 {
		return fmt.Errorf("config: geo.lookup_timeout must be positive")
	}

	if c.Scan.MaxConnections < 1 {
		return fmt.Errorf("config: scan.max_connections must be at least 1")
	}
	if c.Scan.MaxLookups < 0 {
		return fmt.Errorf("config: scan.max_lookups must not be negative")
	}
	for _, p := range append(append([]int(nil), c.Scan.SuspiciousPorts...), c.Scan.SecurePorts...) {
		if p < 1 || p > 65535 {
			return fmt.Errorf("config: port %d out of range", p)
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LogLevel returns the parsed log level. Call after Validate.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(key string, err error) {
	e.err = fmt.Errorf("%s: %w", key, err)
}

func (e *envReader) setString(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) setInt(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) setFloat(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) setBool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = b
	}
}

// setDuration accepts Go duration strings and bare seconds.
func (e *envReader) setDuration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		if secs, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(secs) * time.Second
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = d
	}
}

func (e *envReader) setPorts(key string, dst *[]int) {
	if v, ok := e.get(key); ok {
		var ports []int
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			p, err := strconv.Atoi(part)
			if err != nil {
				e.fail(key, err)
				return
			}
			ports = append(ports, p)
		}
		*dst = ports
	}
}
