package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"8000"`
	StoreDriver   string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/auth.db"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	JWTSecret        string `env:"JWT_SECRET,required"`
	JWTIssuer        string `env:"JWT_ISSUER" envDefault:"auth-api"`
	JWTTTLMinutes    int    `env:"JWT_TTL_MINUTES" envDefault:"60"`
	JWTLeewaySeconds int    `env:"JWT_LEEWAY_SECONDS" envDefault:"0"`
	TokenRevocation  bool   `env:"TOKEN_REVOCATION" envDefault:"false"`

	MinPasswordLength int    `env:"MIN_PASSWORD_LENGTH" envDefault:"6"`
	MaxPasswordBytes  int    `env:"MAX_PASSWORD_BYTES" envDefault:"64"`
	Argon2Time        uint32 `env:"ARGON2_TIME" envDefault:"3"`
	Argon2MemoryKiB   uint32 `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Argon2Threads     uint8  `env:"ARGON2_THREADS" envDefault:"1"`
	HashConcurrency   int    `env:"HASH_CONCURRENCY" envDefault:"0"`

	PageDefaultLimit int `env:"PAGE_DEFAULT_LIMIT" envDefault:"10"`
	PageMaxLimit     int `env:"PAGE_MAX_LIMIT" envDefault:"50"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	AuthCookieName     string   `env:"AUTH_COOKIE_NAME" envDefault:"token"`
	CookieSecure       bool     `env:"COOKIE_SECURE" envDefault:"false"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:8000"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rechaza combinaciones que dejarían el servicio en un estado inseguro.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.JWTTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL_MINUTES must be positive, got %d", c.JWTTTLMinutes))
	}
	if c.JWTLeewaySeconds < 0 {
		errs = append(errs, fmt.Errorf("JWT_LEEWAY_SECONDS must not be negative, got %d", c.JWTLeewaySeconds))
	}
	if c.MinPasswordLength < 6 {
		errs = append(errs, fmt.Errorf("MIN_PASSWORD_LENGTH must be at least 6, got %d", c.MinPasswordLength))
	}
	if c.MaxPasswordBytes < c.MinPasswordLength {
		errs = append(errs, fmt.Errorf("MAX_PASSWORD_BYTES (%d) must be >= MIN_PASSWORD_LENGTH (%d)", c.MaxPasswordBytes, c.MinPasswordLength))
	}
	if c.PageMaxLimit < 1 || c.PageMaxLimit > 50 {
		errs = append(errs, fmt.Errorf("PAGE_MAX_LIMIT must be in [1,50], got %d", c.PageMaxLimit))
	}
	if c.PageDefaultLimit < 1 || c.PageDefaultLimit > c.PageMaxLimit {
		errs = append(errs, fmt.Errorf("PAGE_DEFAULT_LIMIT must be in [1,%d], got %d", c.PageMaxLimit, c.PageDefaultLimit))
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	return errors.Join(errs...)
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

func (c *Config) TokenLeeway() time.Duration {
	return time.Duration(c.JWTLeewaySeconds) * time.Second
}
