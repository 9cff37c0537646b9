package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Order backends.
const (
	BackendSample   = "sample"
	BackendHTTP     = "http"
	BackendSupabase = "supabase"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Order lookup
	OrderBackend string
	OrderAPIURL  string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Observability
	OTLPEndpoint string // empty disables trace export

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
}

var defaults = map[string]any{
	"PORT":      8080,
	"LOG_LEVEL": "info",

	"ORDER_BACKEND": BackendSample,
	"ORDER_API_URL": "http://localhost:8081",

	"HTTP_TIMEOUT": 10 * time.Second,

	"MAX_RETRIES":     3,
	"INITIAL_BACKOFF": 100 * time.Millisecond,
	"MAX_CONCURRENCY": 50,

	"CACHE_BACKEND":  CacheMemory,
	"CACHE_TTL":      5 * time.Minute,
	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"OTEL_EXPORTER_OTLP_ENDPOINT": "",

	"SUPABASE_URL":              "",
	"SUPABASE_ANON_KEY":         "",
	"SUPABASE_SERVICE_ROLE_KEY": "",
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		OrderBackend: v.GetString("ORDER_BACKEND"),
		OrderAPIURL:  v.GetString("ORDER_API_URL"),

		HTTPTimeout: v.GetDuration("HTTP_TIMEOUT"),

		MaxRetries:     v.GetInt("MAX_RETRIES"),
		InitialBackoff: v.GetDuration("INITIAL_BACKOFF"),
		MaxConcurrency: v.GetInt("MAX_CONCURRENCY"),

		CacheBackend:  v.GetString("CACHE_BACKEND"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),

		SupabaseURL:        v.GetString("SUPABASE_URL"),
		SupabaseAnonKey:    v.GetString("SUPABASE_ANON_KEY"),
		SupabaseServiceKey: v.GetString("SUPABASE_SERVICE_ROLE_KEY"),
	}
}

// Validate reports settings that cannot start the server.
func (c *Config) Validate() error {
	switch c.OrderBackend {
	case BackendSample:
	case BackendHTTP:
		if c.OrderAPIURL == "" {
			return fmt.Errorf("ORDER_API_URL is required for the %q backend", c.OrderBackend)
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the %q backend", c.OrderBackend)
		}
	default:
		return fmt.Errorf("unknown ORDER_BACKEND %q", c.OrderBackend)
	}

	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}
