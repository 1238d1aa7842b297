package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dashboard service
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	Port     string `mapstructure:"port"`
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured timezone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BackendConfig holds the agri marketplace backend settings
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig holds the report archive database configuration.
// An empty host disables the archive.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

// CacheConfig holds sales analysis cache settings
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// SentryConfig holds Sentry error tracking configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
}

// defaultAllowedOrigins are the local dashboard frontends.
const defaultAllowedOrigins = "http://localhost:3000,http://localhost:3001"

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// Origins splits the comma separated origin list. A list without any origin
// falls back to the local frontends.
func (c CORSConfig) Origins() []string {
	origins := splitOrigins(c.AllowedOrigins)
	if len(origins) == 0 {
		return splitOrigins(defaultAllowedOrigins)
	}
	return origins
}

func splitOrigins(list string) []string {
	var origins []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// AuthConfig holds session verification settings
type AuthConfig struct {
	// TrustGatewayUserID accepts X-User-ID without asking the backend.
	// Only safe behind a gateway that authenticates and sets the header.
	TrustGatewayUserID bool          `mapstructure:"trust_gateway_user_id"`
	IdentityTTL        time.Duration `mapstructure:"identity_ttl"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()
	v.SetEnvPrefix("")

	_ = v.BindEnv("app.name", "APP_NAME")
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("app.port", "APP_PORT")
	_ = v.BindEnv("app.timezone", "APP_TIMEZONE")

	// Backend
	_ = v.BindEnv("backend.base_url", "BACKEND_URL")
	_ = v.BindEnv("backend.timeout", "BACKEND_TIMEOUT")
	_ = v.BindEnv("backend.max_attempts", "BACKEND_MAX_ATTEMPTS")
	_ = v.BindEnv("backend.rate_limit_rps", "BACKEND_RATE_LIMIT_RPS")
	_ = v.BindEnv("backend.rate_limit_burst", "BACKEND_RATE_LIMIT_BURST")

	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("database.name", "DB_NAME")
	_ = v.BindEnv("database.ssl_mode", "DB_SSLMODE")

	_ = v.BindEnv("nats.url", "NATS_URL")

	// Redis
	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("cache.ttl", "CACHE_TTL")

	_ = v.BindEnv("sentry.dsn", "SENTRY_DSN")
	_ = v.BindEnv("sentry.environment", "APP_ENV")
	_ = v.BindEnv("sentry.release", "APP_VERSION")

	_ = v.BindEnv("cors.allowed_origins", "ALLOWED_ORIGINS")

	_ = v.BindEnv("auth.trust_gateway_user_id", "TRUST_GATEWAY_USER_ID")
	_ = v.BindEnv("auth.identity_ttl", "AUTH_IDENTITY_TTL")

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "service-dashboard")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8010")
	v.SetDefault("app.timezone", "UTC")

	// Backend
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.max_attempts", 3)
	v.SetDefault("backend.rate_limit_rps", 5.0)
	v.SetDefault("backend.rate_limit_burst", 10)

	// Database
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "dashboard")
	v.SetDefault("database.ssl_mode", "disable")

	// NATS
	v.SetDefault("nats.url", "")

	// Redis
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.ttl", 2*time.Minute)

	// Sentry
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.release", "1.0.0")

	v.SetDefault("cors.allowed_origins", defaultAllowedOrigins)

	// Auth
	v.SetDefault("auth.trust_gateway_user_id", false)
	v.SetDefault("auth.identity_ttl", time.Minute)
}
