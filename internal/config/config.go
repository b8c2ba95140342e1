// Copyright 2025 Certen Protocol
//
// Verifier Configuration Loader
//
// Configuration for a standalone trustchain verification service: where
// to fetch IPFS/Bitcoin data from, how long a resolved DID may be
// cached, and where to write the verification-run audit log.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the trustchain verification service.
type Config struct {
	Environment string `yaml:"environment"`

	Resolver ResolverSettings `yaml:"resolver"`
	IPFS     IPFSSettings     `yaml:"ipfs"`
	Bitcoin  BitcoinSettings  `yaml:"bitcoin"`
	Cache    CacheSettings    `yaml:"cache"`
	Database DatabaseSettings `yaml:"database"`
	Security SecuritySettings `yaml:"security"`
	Metrics  MetricsSettings  `yaml:"metrics"`
	Logging  LoggingSettings  `yaml:"logging"`
}

// ResolverSettings configures the upstream DID resolver endpoint.
type ResolverSettings struct {
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"`
}

// IPFSSettings configures the IPFS gateway used to fetch ION files.
type IPFSSettings struct {
	GatewayURL string   `yaml:"gateway_url"`
	Timeout    Duration `yaml:"timeout"`
}

// BitcoinSettings configures the Bitcoin RPC endpoint used to fetch
// anchoring transactions and block headers.
type BitcoinSettings struct {
	RPCURL  string   `yaml:"rpc_url"`
	RPCUser string   `yaml:"rpc_user"`
	RPCPass string   `yaml:"rpc_pass"`
	Timeout Duration `yaml:"timeout"`
}

// CacheSettings selects and configures the resolved-DID cache backend.
type CacheSettings struct {
	Backend         string   `yaml:"backend"` // "memory", "kv", or "firestore"
	KVDir           string   `yaml:"kv_dir"`
	FirestoreProject string  `yaml:"firestore_project"`
	TTL             Duration `yaml:"ttl"`
}

// DatabaseSettings configures the Postgres-backed audit log.
type DatabaseSettings struct {
	URL            string   `yaml:"url"`
	MaxConnections int      `yaml:"max_connections"`
	MinConnections int      `yaml:"min_connections"`
	MaxIdleTime    Duration `yaml:"max_idle_time"`
	MaxLifetime    Duration `yaml:"max_lifetime"`
	Required       bool     `yaml:"required"`
}

// SecuritySettings configures transport-level protections for the
// verifier's own API surface, if one is deployed in front of it.
type SecuritySettings struct {
	TLS       TLSSettings       `yaml:"tls"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`
}

// TLSSettings contains TLS configuration.
type TLSSettings struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// RateLimitSettings contains rate limiting configuration.
type RateLimitSettings struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

// MetricsSettings contains Prometheus metrics configuration.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingSettings contains logging configuration.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration wraps time.Duration for YAML unmarshaling as a Go duration
// string ("30s", "5m") rather than a bare integer.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads configuration from a YAML file, substituting ${VAR_NAME}
// and ${VAR_NAME:-default} references against the process environment
// before parsing, then applies defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Resolver.Timeout == 0 {
		c.Resolver.Timeout = Duration(10 * time.Second)
	}
	if c.IPFS.Timeout == 0 {
		c.IPFS.Timeout = Duration(10 * time.Second)
	}
	if c.Bitcoin.Timeout == 0 {
		c.Bitcoin.Timeout = Duration(10 * time.Second)
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = Duration(5 * time.Minute)
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 10
	}
	if c.Database.MinConnections == 0 {
		c.Database.MinConnections = 1
	}
	if c.Database.MaxIdleTime == 0 {
		c.Database.MaxIdleTime = Duration(5 * time.Minute)
	}
	if c.Database.MaxLifetime == 0 {
		c.Database.MaxLifetime = Duration(1 * time.Hour)
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = "0.0.0.0:9090"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks that configuration required for production use is
// present and non-placeholder.
func (c *Config) Validate() error {
	var errs []string

	if c.Resolver.Endpoint == "" || strings.HasPrefix(c.Resolver.Endpoint, "${") {
		errs = append(errs, "resolver.endpoint is required")
	}
	if c.IPFS.GatewayURL == "" || strings.HasPrefix(c.IPFS.GatewayURL, "${") {
		errs = append(errs, "ipfs.gateway_url is required")
	}
	if c.Bitcoin.RPCURL == "" || strings.HasPrefix(c.Bitcoin.RPCURL, "${") {
		errs = append(errs, "bitcoin.rpc_url is required")
	}
	if c.Cache.Backend == "firestore" && c.Cache.FirestoreProject == "" {
		errs = append(errs, "cache.firestore_project is required when cache.backend is firestore")
	}
	if c.Database.Required && (c.Database.URL == "" || strings.HasPrefix(c.Database.URL, "${")) {
		errs = append(errs, "database.url is required when database.required is true")
	}
	if c.Environment == "production" && !c.Security.TLS.Enabled {
		errs = append(errs, "security.tls.enabled must be true for production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}
