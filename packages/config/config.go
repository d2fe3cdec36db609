package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
	"github.com/abdul-hamid-achik/httpconnect/packages/middleware"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "HTTPCONNECT_"

// Config represents the httpconnect client configuration
type Config struct {
	BaseURI         string            `koanf:"base_uri"`
	Timeout         time.Duration     `koanf:"timeout"`
	Headers         map[string]string `koanf:"headers"` // Default headers for all requests
	UserAgent       string            `koanf:"user_agent"`
	RateLimit       float64           `koanf:"rate_limit"` // requests per second, 0 disables
	Burst           int               `koanf:"burst"`
	RequestIDHeader string            `koanf:"request_id_header"`

	MaxIdleConns        int           `koanf:"max_idle_conns"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"`

	Tracing bool `koanf:"tracing"`
	Verbose bool `koanf:"verbose"`
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".httpconnect.yaml",
	"httpconnect.yaml",
	".httpconnect.yml",
	"httpconnect.yml",
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Timeout:             30 * time.Second,
		Headers:             map[string]string{},
		UserAgent:           "httpconnect/1.0",
		Burst:               1,
		RequestIDHeader:     middleware.DefaultRequestIDHeader,
		MaxIdleConns:        httpc.DefaultMaxIdleConns,
		MaxIdleConnsPerHost: httpc.DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     httpc.DefaultIdleConnTimeout,
	}
}

// Load reads the file at path, or the first of ConfigFilenames found in the
// working directory when path is empty, then applies environment overrides.
// A missing file is not an error unless path was given explicitly.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = findConfigFile(".")
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}

	loaded := &Config{}
	if err := k.Unmarshal("", loaded); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return DefaultConfig().Merge(loaded), nil
}

// envKey maps HTTPCONNECT_RATE_LIMIT to rate_limit and
// HTTPCONNECT_HEADERS__X-TEAM to headers.x-team.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func findConfigFile(dir string) string {
	for _, filename := range ConfigFilenames {
		p := filepath.Join(dir, filename)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Merge merges another config into this one, with other taking precedence.
// Zero values in other are ignored; headers are merged key by key.
func (c *Config) Merge(other *Config) *Config {
	result := *c
	result.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		result.Headers[k] = v
	}
	if other == nil {
		return &result
	}

	if other.BaseURI != "" {
		result.BaseURI = other.BaseURI
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.Burst > 0 {
		result.Burst = other.Burst
	}
	if other.RequestIDHeader != "" {
		result.RequestIDHeader = other.RequestIDHeader
	}
	if other.MaxIdleConns > 0 {
		result.MaxIdleConns = other.MaxIdleConns
	}
	if other.MaxIdleConnsPerHost > 0 {
		result.MaxIdleConnsPerHost = other.MaxIdleConnsPerHost
	}
	if other.IdleConnTimeout > 0 {
		result.IdleConnTimeout = other.IdleConnTimeout
	}
	if other.Tracing {
		result.Tracing = true
	}
	if other.Verbose {
		result.Verbose = true
	}
	for k, v := range other.Headers {
		result.Headers[k] = v
	}
	return &result
}

// DefaultHeaders returns the configured headers as a header store. Blank
// names are rejected.
func (c *Config) DefaultHeaders() (*headers.Headers, error) {
	h := headers.New()
	for name, value := range c.Headers {
		if err := h.Add(name, value); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// ClientOptions builds client options for c. The pipeline runs, in order:
// request ID, default headers and user agent, logging, tracing (when
// enabled), extra, rate limiting, timeout and the transport.
func (c *Config) ClientOptions(logger *slog.Logger, extra ...httpc.Middleware) ([]httpc.ClientOption, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults, err := c.DefaultHeaders()
	if err != nil {
		return nil, err
	}

	httpClient := httpc.NewPooledHTTPClient(httpc.PoolConfig{
		MaxIdleConns:        c.MaxIdleConns,
		MaxIdleConnsPerHost: c.MaxIdleConnsPerHost,
		IdleConnTimeout:     c.IdleConnTimeout,
		Tracing:             c.Tracing,
	})
	limiter := middleware.NewLimiter(c.RateLimit, c.Burst)

	opts := []httpc.ClientOption{
		httpc.WithLogger(logger),
		httpc.WithPipeline(func(b *httpc.Builder) {
			b.Use(middleware.RequestID(c.RequestIDHeader))
			b.Use(middleware.DefaultHeaders(defaults))
			b.Use(middleware.UserAgent(c.UserAgent))
			b.Use(middleware.Logging(logger))
			if c.Tracing {
				b.Use(middleware.Tracing())
			}
			for _, mw := range extra {
				b.Use(mw)
			}
			b.Use(middleware.RateLimit(limiter))
			b.Use(middleware.Timeout(c.Timeout))
			httpc.UseTransport(b, httpClient)
		}),
	}
	if c.BaseURI != "" {
		opts = append(opts, httpc.WithBaseURI(c.BaseURI))
	}
	return opts, nil
}

// NewClient builds a client from c with extra stages added to its pipeline.
func (c *Config) NewClient(logger *slog.Logger, extra ...httpc.Middleware) (*httpc.Client, error) {
	opts, err := c.ClientOptions(logger, extra...)
	if err != nil {
		return nil, err
	}
	return httpc.NewClient(opts...)
}
