package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	libconfig "transporte/backend/libs/config"
)

// DefaultDashboardOrigin is the public transport dashboard.
const DefaultDashboardOrigin = "http://front-transporte-dashboard.s3-website.us-east-2.amazonaws.com"

// HTTPConfig is the listener.
type HTTPConfig struct {
	Port string `yaml:"port" env:"TRANSPORT_HTTP_PORT"`
}

// DatabaseConfig points at Postgres. DSN wins over the discrete fields.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn" env:"DB_DSN"`
	Host     string `yaml:"host" env:"DB_HOST" validate:"required_without=DSN"`
	Port     int    `yaml:"port" env:"DB_PORT" validate:"omitempty,min=1,max=65535"`
	Username string `yaml:"username" env:"DB_USERNAME"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Database string `yaml:"database" env:"DB_DATABASE" validate:"required_without=DSN"`
	SSL      bool   `yaml:"ssl" env:"DB_SSL"`
}

// ExternalAPIConfig is the ETUP source.
type ExternalAPIConfig struct {
	URL            string `yaml:"url" env:"ETUP_API_URL" validate:"omitempty,url"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" env:"ETUP_API_TIMEOUT_SECONDS" validate:"min=0"`
}

// IngestionConfig controls batch size and scheduling.
type IngestionConfig struct {
	BatchSize       int  `yaml:"batchSize" env:"INGESTION_BATCH_SIZE" validate:"min=1,max=1000"`
	IntervalMinutes int  `yaml:"intervalMinutes" env:"INGESTION_INTERVAL_MINUTES" validate:"min=0"`
	RunOnStart      bool `yaml:"runOnStart" env:"INGESTION_RUN_ON_START"`
}

// RedisConfig enables the query cache when Addr is set.
type RedisConfig struct {
	Addr       string `yaml:"addr" env:"REDIS_ADDR"`
	Password   string `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"REDIS_DB" validate:"min=0"`
	TTLSeconds int    `yaml:"ttlSeconds" env:"REDIS_TTL_SECONDS" validate:"min=0"`
}

// AuthConfig protects ingestion triggers when JWTSecret is set.
type AuthConfig struct {
	JWTSecret            string `yaml:"jwtSecret" env:"AUTH_JWT_SECRET"`
	TokenTTLMinutes      int    `yaml:"tokenTtlMinutes" env:"AUTH_TOKEN_TTL_MINUTES" validate:"min=0"`
	OperatorUsername     string `yaml:"operatorUsername" env:"AUTH_OPERATOR_USERNAME" validate:"required_with=JWTSecret"`
	OperatorPasswordHash string `yaml:"operatorPasswordHash" env:"AUTH_OPERATOR_PASSWORD_HASH" validate:"required_with=JWTSecret"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins" env:"CORS_ALLOWED_ORIGINS"`
}

// RateLimitConfig bounds requests per client IP. Zero requests disables limiting.
type RateLimitConfig struct {
	Requests      int `yaml:"requests" env:"RATE_LIMIT_REQUESTS" validate:"min=0"`
	WindowSeconds int `yaml:"windowSeconds" env:"RATE_LIMIT_WINDOW_SECONDS" validate:"min=0"`
}

// Config defines transport service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	ExternalAPI ExternalAPIConfig `yaml:"externalApi"`
	Ingestion   IngestionConfig   `yaml:"ingestion"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	CORS        CORSConfig        `yaml:"cors"`
	RateLimit   RateLimitConfig   `yaml:"rateLimit"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		HTTP:        HTTPConfig{Port: "3000"},
		Database:    DatabaseConfig{Port: 5432},
		ExternalAPI: ExternalAPIConfig{TimeoutSeconds: 60},
		Ingestion:   IngestionConfig{BatchSize: 50},
		Redis:       RedisConfig{TTLSeconds: 300},
		Auth:        AuthConfig{TokenTTLMinutes: 60},
		CORS:        CORSConfig{AllowedOrigins: []string{DefaultDashboardOrigin}},
		RateLimit:   RateLimitConfig{Requests: 120, WindowSeconds: 60},
	}
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.DatabaseDSN()) == "" {
		return nil, errors.New("config: database dsn required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "3000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// DatabaseDSN returns the explicit DSN or one assembled from the discrete fields.
func (c *Config) DatabaseDSN() string {
	if dsn := strings.TrimSpace(c.Database.DSN); dsn != "" {
		return dsn
	}
	if strings.TrimSpace(c.Database.Host) == "" {
		return ""
	}

	port := c.Database.Port
	if port == 0 {
		port = 5432
	}
	sslMode := "disable"
	if c.Database.SSL {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(port)),
		Path:     "/" + c.Database.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if c.Database.Username != "" {
		u.User = url.UserPassword(c.Database.Username, c.Database.Password)
	}
	return u.String()
}

// FetchTimeout bounds one ETUP request.
func (c *Config) FetchTimeout() time.Duration {
	if c.ExternalAPI.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.ExternalAPI.TimeoutSeconds) * time.Second
}

// IngestionInterval is zero when periodic runs are disabled.
func (c *Config) IngestionInterval() time.Duration {
	return time.Duration(c.Ingestion.IntervalMinutes) * time.Minute
}

// CacheEnabled reports whether Redis is configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// CacheTTL returns ttl as duration.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// AuthEnabled reports whether ingestion triggers require a token.
func (c *Config) AuthEnabled() bool {
	return strings.TrimSpace(c.Auth.JWTSecret) != ""
}

// TokenTTL returns ttl as duration.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// RateLimitWindow returns the limiter window.
func (c *Config) RateLimitWindow() time.Duration {
	if c.RateLimit.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}
