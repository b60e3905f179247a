// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the Parley service.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/parley-chat/parley/internal/wire"
)

// RateLimitConfig defines the parameters for per-session inbound frame
// rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings including the chat listener,
// the WebSocket gateway, and security controls.
type Config struct {
	// Addr is the TCP address the chat protocol listens on.
	Addr string `envconfig:"LISTEN_ADDR" default:":3355"`
	// GatewayAddr is the HTTP address serving the WebSocket gateway and the
	// debug endpoints. Empty disables the gateway.
	GatewayAddr string `envconfig:"GATEWAY_ADDR" default:":8080"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`

	// MaxFrameSize caps incoming frame payloads in bytes. The wire format
	// bounds it at 65535 regardless.
	MaxFrameSize int `envconfig:"MAX_FRAME_SIZE" default:"65535"`

	RateLimitBurst          int           `envconfig:"RATE_LIMIT_BURST" default:"10"`
	RateLimitRefillInterval time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// RateLimit bundles the rate limiting fields into a RateLimitConfig.
func (c Config) RateLimit() RateLimitConfig {
	return RateLimitConfig{
		Burst:          c.RateLimitBurst,
		RefillInterval: c.RateLimitRefillInterval,
	}
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Addr:                    ":3355",
		GatewayAddr:             ":8080",
		AllowedOrigins:          []string{"http://localhost:8080"},
		MaxFrameSize:            wire.MaxFrameSize,
		RateLimitBurst:          10,
		RateLimitRefillInterval: time.Second,
		ShutdownTimeout:         10 * time.Second,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Addr == "" {
		cfg.Addr = ":3355"
	}

	if cfg.MaxFrameSize <= 0 || cfg.MaxFrameSize > wire.MaxFrameSize {
		cfg.MaxFrameSize = wire.MaxFrameSize
	}

	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}

	if cfg.RateLimitRefillInterval <= 0 {
		cfg.RateLimitRefillInterval = time.Second
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	normalizedOrigins, allowAll := normalizeOrigins(cfg.AllowedOrigins)
	cfg.AllowedOrigins = normalizedOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		defaultCfg := defaultConfig()
		sanitizeConfig(defaultCfg)
		return
	}

	sanitized := *cfg
	sanitized.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	sanitizeConfig(sanitized)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all
// settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Unset variables fall back to their declared defaults.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
