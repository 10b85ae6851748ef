// Package config loads gateway settings from defaults, an optional YAML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding the YAML file path.
const FileEnv = "IXPLOR_CONFIG"

type Config struct {
	HTTPPort        string        `yaml:"http_port"`
	AdminPort       string        `yaml:"admin_port"`
	APIBaseURL      string        `yaml:"api_base_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`

	VendorCacheTTL time.Duration `yaml:"vendor_cache_ttl"`
	Viewport       Viewport      `yaml:"viewport"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	// KafkaBrokers empty disables notifications publishing and the vendor
	// events consumer.
	KafkaBrokers []string `yaml:"kafka_brokers"`

	TokenDBPath string `yaml:"token_db_path"`

	RateLimit        float64       `yaml:"rate_limit"`
	RateBurst        int           `yaml:"rate_burst"`
	BreakerFailures  uint32        `yaml:"breaker_failures"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay"`

	MaxRequestBodySize int64 `yaml:"max_request_body_size"`
}

type Viewport struct {
	Debounce      time.Duration `yaml:"debounce"`
	MinDistanceKm float64       `yaml:"min_distance_km"`
	MinZoomDelta  float64       `yaml:"min_zoom_delta"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
}

func Default() *Config {
	return &Config{
		HTTPPort:        "8080",
		AdminPort:       "9090",
		APIBaseURL:      "http://localhost:3000/api",
		RequestTimeout:  15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		VendorCacheTTL:  5 * time.Minute,
		Viewport: Viewport{
			Debounce:      2 * time.Second,
			MinDistanceKm: 1,
			MinZoomDelta:  1,
			IdleTimeout:   10 * time.Minute,
		},
		RedisAddr:          "",
		TokenDBPath:        "ixplor-sessions.db",
		RateLimit:          20,
		RateBurst:          40,
		BreakerFailures:    5,
		BreakerOpenDelay:   30 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
	}
}

// Load applies the YAML file named by IXPLOR_CONFIG, if any, then
// environment overrides, on top of the defaults.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.AdminPort = getEnv("ADMIN_PORT", c.AdminPort)
	c.APIBaseURL = getEnv("API_BASE_URL", c.APIBaseURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.TokenDBPath = getEnv("TOKEN_DB_PATH", c.TokenDBPath)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.KafkaBrokers = splitList(brokers)
	}

	var errs []error
	durations := map[string]*time.Duration{
		"REQUEST_TIMEOUT":    &c.RequestTimeout,
		"SHUTDOWN_TIMEOUT":   &c.ShutdownTimeout,
		"VENDOR_CACHE_TTL":   &c.VendorCacheTTL,
		"BREAKER_OPEN_DELAY": &c.BreakerOpenDelay,
		"VIEWPORT_DEBOUNCE":  &c.Viewport.Debounce,
	}
	for key, dst := range durations {
		if v := getEnv(key, ""); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			*dst = d
		}
	}

	if v := getEnv("RATE_LIMIT", ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RATE_LIMIT: %w", err))
		} else {
			c.RateLimit = f
		}
	}
	if v := getEnv("BREAKER_FAILURES", ""); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("BREAKER_FAILURES: %w", err))
		} else {
			c.BreakerFailures = uint32(n)
		}
	}
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("api base url is required"))
	}
	if c.VendorCacheTTL <= 0 {
		errs = append(errs, errors.New("vendor cache ttl must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.TokenDBPath == "" {
		errs = append(errs, errors.New("token db path is required"))
	}
	return errors.Join(errs...)
}

// KafkaEnabled reports whether any broker is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
