// Package config loads faleproxy configuration from defaults, an optional
// YAML file, .env files and the environment, in increasing precedence.
// CLI flags are applied on top by the cmd package.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/faleproxy/core/replace"
	"github.com/gaurav-prasanna/faleproxy/internal/retry"
)

// Environment variables understood by Load.
const (
	EnvPort         = "PORT"
	EnvTarget       = "FALEPROXY_TARGET"
	EnvReplacement  = "FALEPROXY_REPLACEMENT"
	EnvLogLevel     = "FALEPROXY_LOG_LEVEL"
	EnvLogFormat    = "FALEPROXY_LOG_FORMAT"
	EnvFetchTimeout = "FALEPROXY_FETCH_TIMEOUT"
	EnvUserAgent    = "FALEPROXY_USER_AGENT"
)

// Built-in defaults: Yale → Fale on port 3001.
const (
	DefaultTarget       = "Yale"
	DefaultReplacement  = "Fale"
	DefaultPort         = 3001
	DefaultUserAgent    = "faleproxy/1.0 (+https://github.com/gaurav-prasanna/faleproxy)"
	DefaultMaxBodyBytes = 10 << 20
	DefaultMaxPages     = 100
)

// Config is the full runtime configuration.
type Config struct {
	Terms  replace.Pair `yaml:"terms"`
	Server ServerConfig `yaml:"server"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Log    LogConfig    `yaml:"log"`
	Crawl  CrawlConfig  `yaml:"crawl"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// FetchConfig configures upstream page retrieval.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	Retry        RetryConfig   `yaml:"retry"`
}

// RetryConfig is the raw form of retry.Policy.
type RetryConfig struct {
	Mode       retry.Mode    `yaml:"mode"`
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	MaxRetries int           `yaml:"max_retries"`
}

// Policy converts the raw settings into a retry.Policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.NewPolicy(r.Mode, r.Initial, r.Max, r.MaxRetries)
}

// CrawlConfig bounds site-wide rewrites.
type CrawlConfig struct {
	MaxPages int `yaml:"max_pages"`
}

// Default returns the built-in configuration.
func Default() *Config {
	p := retry.DefaultPolicy()
	return &Config{
		Terms: replace.Pair{Target: DefaultTarget, Replacement: DefaultReplacement},
		Server: ServerConfig{
			Addr:              ":" + strconv.Itoa(DefaultPort),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Fetch: FetchConfig{
			Timeout:      30 * time.Second,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: DefaultMaxBodyBytes,
			Retry: RetryConfig{
				Mode:       p.Mode,
				Initial:    p.Initial,
				Max:        p.Max,
				MaxRetries: p.MaxRetries,
			},
		},
		Log:   LogConfig{Level: LogLevelInfo, Format: LogFormatConsole},
		Crawl: CrawlConfig{MaxPages: DefaultMaxPages},
	}
}

// Load builds the configuration. path may be empty, in which case no YAML
// file is read; a non-empty path must exist.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env", ".env.local"); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Log.Level = NormalizeLogLevel(string(cfg.Log.Level))
	cfg.Log.Format = NormalizeLogFormat(string(cfg.Log.Format))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads the given files when present. Variables already set in
// the environment are not overridden.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return errors.Errorf("invalid %s %q", EnvPort, v)
		}
		c.Server.Addr = ":" + strconv.Itoa(port)
	}
	if v, ok := os.LookupEnv(EnvTarget); ok {
		c.Terms.Target = v
	}
	if v, ok := os.LookupEnv(EnvReplacement); ok {
		c.Terms.Replacement = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = LogLevel(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		c.Log.Format = LogFormat(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvFetchTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Errorf("invalid %s %q: %w", EnvFetchTimeout, v, err)
		}
		c.Fetch.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvUserAgent)); v != "" {
		c.Fetch.UserAgent = v
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if err := c.Terms.Validate(); err != nil {
		return errors.Errorf("terms: %w", err)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch.timeout must be >0")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return errors.New("fetch.max_body_bytes must be >0")
	}
	if err := c.Fetch.Retry.Policy().Validate(); err != nil {
		return errors.Errorf("fetch.retry: %w", err)
	}
	if c.Crawl.MaxPages <= 0 {
		return errors.New("crawl.max_pages must be >0")
	}
	if _, ok := logLevels[c.Log.Level]; !ok {
		return errors.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
