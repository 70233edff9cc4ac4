// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds all gateway configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"production" validate:"oneof=development production"`
	AppPort int    `env:"APP_PORT" envDefault:"80" validate:"min=1,max=65535"`

	// Ops listener for health and metrics. 0 disables it.
	OpsPort int `env:"OPS_PORT" envDefault:"9090" validate:"min=0,max=65535"`

	// Backend (Django) service that receives /api/ and /admin/.
	BackendURL string `env:"BACKEND_URL" envDefault:"http://backend:8000" validate:"required,http_url"`

	// Directories served from disk
	StaticRoot   string `env:"STATIC_ROOT" envDefault:"/usr/share/nginx/html" validate:"required"`
	DocsRoot     string `env:"DOCS_ROOT" envDefault:"/usr/share/nginx/html/api/docs" validate:"required"`
	DocsFallback string `env:"DOCS_FALLBACK" envDefault:"redoc.html" validate:"required,excludes=/"`
	MediaRoot    string `env:"MEDIA_ROOT" envDefault:"/var/html/media" validate:"required"`

	// Hot reload of the SPA index.html
	IndexWatch bool `env:"INDEX_WATCH" envDefault:"true"`

	// Request body size limit in bytes (default 50MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"52428800" validate:"gt=0"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json text"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s" validate:"gt=0"`

	// Backend transport
	ProxyDialTimeout     time.Duration `env:"PROXY_DIAL_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	ProxyResponseTimeout time.Duration `env:"PROXY_RESPONSE_TIMEOUT" envDefault:"60s" validate:"gt=0"`

	// Cache (Redis). Optional: enables rate limiting and a readiness check.
	RedisURL string `env:"REDIS_URL"`

	// Database (PostgreSQL). Optional: readiness check only.
	DatabaseURL string `env:"DATABASE_URL"`

	// Rate limiting of proxied prefixes, per client IP
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"20" validate:"min=1"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"40" validate:"min=1"`

	// Peers allowed to set client-address headers (X-Real-IP,
	// X-Forwarded-For, X-Forwarded-Proto). Comma-separated CIDRs or IPs.
	// Empty means the gateway is the edge and trusts no one.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," validate:"dive,cidr|ip"`

	// CORS configuration for proxied prefixes
	// Comma-separated list of allowed origins (e.g., "http://localhost:3000")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RateLimitActive reports whether per-IP rate limiting can run.
// It needs both the flag and a Redis URL.
func (c *Config) RateLimitActive() bool {
	return c.RateLimitEnabled && c.RedisURL != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// TrustedNetworks returns TrustedProxies as prefixes. A bare IP becomes a
// single-address prefix.
func (c *Config) TrustedNetworks() ([]netip.Prefix, error) {
	networks := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			networks = append(networks, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		networks = append(networks, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return networks, nil
}

// Backend returns the parsed backend URL.
func (c *Config) Backend() (*url.URL, error) {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BACKEND_URL: %w", err)
	}
	return u, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %s: %w", envVarNames(err), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), validationMessage(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// envVarNames lists the variables behind env parse errors. The env package
// reports struct field names, operators set variables.
func envVarNames(err error) string {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return "environment"
	}

	t := reflect.TypeOf(Config{})
	names := make([]string, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var pe env.ParseError
		if !errors.As(e, &pe) {
			continue
		}
		if f, ok := t.FieldByName(pe.Name); ok {
			if name := f.Tag.Get("env"); name != "" {
				names = append(names, name)
				continue
			}
		}
		names = append(names, pe.Name)
	}
	if len(names) == 0 {
		return "environment"
	}
	return strings.Join(names, ", ")
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "http_url":
		return "must be a valid http(s) URL"
	case "cidr|ip":
		return "must be a CIDR or an IP address"
	case "excludes":
		return fmt.Sprintf("must not contain %q", e.Param())
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}
