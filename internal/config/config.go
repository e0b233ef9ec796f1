package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
}

type DatabaseConfig struct {
	Host              string        `envconfig:"DB_HOST" default:"localhost"`
	Port              int           `envconfig:"DB_PORT" default:"5432"`
	User              string        `envconfig:"DB_USER" default:"postgres"`
	Password          string        `envconfig:"DB_PASSWORD"`
	Name              string        `envconfig:"DB_NAME" default:"crudapi"`
	SSLMode           string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns          int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"5m"`
	MaxConnIdleTime   time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"1m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"0s"` // 0 waits indefinitely
	StatsInterval     time.Duration `envconfig:"DB_STATS_INTERVAL" default:"30s"`
	AutoMigrate       bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"3000"`
	Env            string        `envconfig:"ENV" default:"development"`
	APIPrefix      string        `envconfig:"API_PREFIX" default:"/api/v1"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS"`
	TrustedProxies []string      `envconfig:"TRUSTED_PROXIES"`
	ReadTimeout    time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout    time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"30s"`
	RateLimit      int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateWindow     time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`
}

type AuthConfig struct {
	JWTSecret           string        `envconfig:"JWT_SECRET"`
	TokenExpiry         Duration      `envconfig:"JWT_EXPIRES_IN" default:"7d"`
	BcryptCost          int           `envconfig:"BCRYPT_COST" default:"12"`
	// When false a role sent to /auth/register is validated, then replaced
	// by "user"; the 201 body carries the role actually assigned.
	AllowRoleOnRegister bool          `envconfig:"AUTH_ALLOW_ROLE_ON_REGISTER" default:"false"`
	FailureDelay        time.Duration `envconfig:"AUTH_FAILURE_DELAY" default:"250ms"`
	FailureJitter       time.Duration `envconfig:"AUTH_FAILURE_JITTER" default:"50ms"`
	AdminEmail          string        `envconfig:"ADMIN_EMAIL"`
	AdminPassword       string        `envconfig:"ADMIN_PASSWORD"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"OTEL_SERVICE_NAME" default:"crudapi"`
}

// Duration accepts time.ParseDuration syntax plus a whole-day "Nd" form
type Duration time.Duration

// Decode implements envconfig.Decoder
func (d *Duration) Decode(value string) error {
	value = strings.TrimSpace(value)
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid day duration %q", value)
		}
		*d = Duration(time.Duration(n) * 24 * time.Hour)
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if parsed <= 0 {
		return fmt.Errorf("duration must be positive, got %q", value)
	}
	*d = Duration(parsed)
	return nil
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	sections := []any{&cfg.Database, &cfg.Server, &cfg.Auth, &cfg.Telemetry}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(cfg.Auth.JWTSecret, cfg.Server.Env); err != nil {
		return nil, err
	}

	if cfg.Database.MinConns > cfg.Database.MaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)",
			cfg.Database.MinConns, cfg.Database.MaxConns)
	}

	if cfg.Database.StatsInterval <= 0 {
		return nil, fmt.Errorf("DB_STATS_INTERVAL must be positive, got %s", cfg.Database.StatsInterval)
	}

	if !strings.HasPrefix(cfg.Server.APIPrefix, "/") {
		cfg.Server.APIPrefix = "/" + cfg.Server.APIPrefix
	}
	cfg.Server.APIPrefix = strings.TrimSuffix(cfg.Server.APIPrefix, "/")

	cfg.Server.AllowedOrigins = resolveAllowedOrigins(cfg.Server.AllowedOrigins, cfg.Server.Env)

	return cfg, nil
}

// LoadDatabase loads only the database section, for tools that never serve
// HTTP or sign tokens.
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	cfg := &DatabaseConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	return cfg, nil
}

func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	// Minimum length based on environment
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires stronger secret (256 bits)
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
		"your-super-secret-jwt-key", "your-secret-key",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL returns the connection string in URL form for database/sql drivers
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func resolveAllowedOrigins(configured []string, env string) []string {
	origins := make([]string, 0, len(configured))
	for _, origin := range configured {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) > 0 || env == "production" {
		return origins // No origins by default in production
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:3001",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
