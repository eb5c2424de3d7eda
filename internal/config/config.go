// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Redis   RedisConfig
	Log     LogConfig
	AI      AIConfig
	CLI     CLIConfig
}

type ServerConfig struct {
	Port               string
	AllowedOrigins     []string
	CookieSecure       bool
	SessionTTL         time.Duration
	LoginRatePerMinute int
}

type BackendConfig struct {
	Driver      string // rest or postgres
	URL         string
	AnonKey     string
	JWTSecret   string // optional; enables signature checks on access tokens
	DatabaseURL string
	Timeout     time.Duration
	RecentLimit int
}

// RedisConfig selects the session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type AIConfig struct {
	APIKey string
	Model  string
}

// CLIConfig holds the credentials the one-shot CLI signs in with.
type CLIConfig struct {
	Email    string
	Password string
}

var envKeys = map[string]string{
	"server.port":                  "SERVER_PORT",
	"server.allowed_origins":       "ALLOWED_ORIGINS",
	"server.cookie_secure":         "COOKIE_SECURE",
	"server.session_ttl":           "SESSION_TTL",
	"server.login_rate_per_minute": "LOGIN_RATE_PER_MINUTE",
	"backend.driver":               "BACKEND_DRIVER",
	"backend.url":                  "SUPABASE_URL",
	"backend.anon_key":             "SUPABASE_ANON_KEY",
	"backend.jwt_secret":           "SUPABASE_JWT_SECRET",
	"backend.database_url":         "DATABASE_URL",
	"backend.timeout":              "BACKEND_TIMEOUT",
	"backend.recent_limit":         "RECENT_LIMIT",
	"redis.addr":                   "REDIS_ADDR",
	"redis.password":               "REDIS_PASSWORD",
	"redis.db":                     "REDIS_DB",
	"log.level":                    "LOG_LEVEL",
	"log.format":                   "LOG_FORMAT",
	"log.output":                   "LOG_OUTPUT",
	"ai.api_key":                   "OPENAI_API_KEY",
	"ai.model":                     "OPENAI_MODEL",
	"cli.email":                    "ERP_EMAIL",
	"cli.password":                 "ERP_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", "")
	v.SetDefault("server.cookie_secure", true)
	v.SetDefault("server.session_ttl", 12*time.Hour)
	v.SetDefault("server.login_rate_per_minute", 10)

	v.SetDefault("backend.driver", DriverREST)
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.recent_limit", 25)

	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("ai.model", "gpt-4o-mini")
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               v.GetString("server.port"),
			AllowedOrigins:     splitList(v.GetString("server.allowed_origins")),
			CookieSecure:       v.GetBool("server.cookie_secure"),
			SessionTTL:         v.GetDuration("server.session_ttl"),
			LoginRatePerMinute: v.GetInt("server.login_rate_per_minute"),
		},
		Backend: BackendConfig{
			Driver:      strings.ToLower(strings.TrimSpace(v.GetString("backend.driver"))),
			URL:         strings.TrimRight(v.GetString("backend.url"), "/"),
			AnonKey:     v.GetString("backend.anon_key"),
			JWTSecret:   v.GetString("backend.jwt_secret"),
			DatabaseURL: v.GetString("backend.database_url"),
			Timeout:     v.GetDuration("backend.timeout"),
			RecentLimit: v.GetInt("backend.recent_limit"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		AI: AIConfig{
			APIKey: v.GetString("ai.api_key"),
			Model:  v.GetString("ai.model"),
		},
		CLI: CLIConfig{
			Email:    v.GetString("cli.email"),
			Password: v.GetString("cli.password"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend.Driver {
	case DriverREST, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("BACKEND_DRIVER must be %q or %q, got %q", DriverREST, DriverPostgres, c.Backend.Driver))
	}
	// Auth always goes through the hosted auth service.
	if c.Backend.URL == "" {
		errs = append(errs, errors.New("SUPABASE_URL is required"))
	}
	if c.Backend.AnonKey == "" {
		errs = append(errs, errors.New("SUPABASE_ANON_KEY is required"))
	}
	if c.Backend.Driver == DriverPostgres && c.Backend.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required when BACKEND_DRIVER=postgres"))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT must be positive"))
	}
	if c.Backend.RecentLimit <= 0 {
		errs = append(errs, errors.New("RECENT_LIMIT must be positive"))
	}
	if c.Server.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Server.LoginRatePerMinute < 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_MINUTE cannot be negative"))
	}

	return errors.Join(errs...)
}

// AIEnabled reports whether the order-intake assistant can run.
func (c *Config) AIEnabled() bool { return c.AI.APIKey != "" }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
