package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	minSecretLen = 16
)

type Config struct {
	ServiceName string
	Environment string
	LogLevel    string

	ServerPort int

	DatabaseURL string
	// Use an in-process sqlite file instead of postgres. Meant for local runs only.
	SQLitePath string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte

	CORSOrigins []string

	KafkaBrokers []string
}

// Load reads .env (if present), then the environment, then command line flags.
// Flags win over the environment.
func Load(args []string, getenv func(string) string) (Config, error) {
	if env, err := godotenv.Read(); err == nil {
		base := getenv
		getenv = func(key string) string {
			if v := base(key); v != "" {
				return v
			}
			return env[key]
		}
	}

	cfg := FromEnv(getenv)
	if err := cfg.ParseFlags(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func FromEnv(getenv func(string) string) Config {
	return Config{
		ServiceName: EnvDefault(getenv, "SERVICE_NAME", "tasktracker"),
		Environment: EnvDefault(getenv, "APP_ENV", EnvDevelopment),
		LogLevel:    EnvDefault(getenv, "LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault(getenv, "SERVER_PORT", 4000),

		DatabaseURL: getenv("DATABASE_URL"),
		SQLitePath:  getenv("SQLITE_PATH"),

		JWTAccessSecret:  []byte(getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(getenv("JWT_REFRESH_SECRET")),

		CORSOrigins: CSV(getenv("CORS_ORIGIN")),

		KafkaBrokers: CSV(getenv("KAFKA_BROKERS")),
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("tasktracker", pflag.ContinueOnError)

	var brokers, origins string
	fs.IntVarP(&c.ServerPort, "port", "p", c.ServerPort, "HTTP listen port")
	fs.StringVarP(&c.DatabaseURL, "database", "d", c.DatabaseURL, "Postgres connection string")
	fs.StringVar(&c.SQLitePath, "sqlite", c.SQLitePath, "Path to a sqlite database used instead of postgres")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, test, production)")
	fs.StringVar(&brokers, "kafka-brokers", strings.Join(c.KafkaBrokers, ","), "Comma separated kafka brokers")
	fs.StringVar(&origins, "cors-origin", strings.Join(c.CORSOrigins, ","), "Comma separated allowed CORS origins")

	if err := fs.Parse(args); err != nil {
		return err
	}
	c.KafkaBrokers = CSV(brokers)
	c.CORSOrigins = CSV(origins)
	return nil
}

func (c Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" && c.SQLitePath == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.JWTAccessSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLen))
	}
	if len(c.JWTRefreshSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_REFRESH_SECRET must be at least %d characters", minSecretLen))
	}
	if len(c.JWTAccessSecret) > 0 && string(c.JWTAccessSecret) == string(c.JWTRefreshSecret) {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	switch c.Environment {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("unknown APP_ENV %q", c.Environment))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid SERVER_PORT %d", c.ServerPort))
	}

	return errors.Join(errs...)
}

func (c Config) IsProduction() bool { return c.Environment == EnvProduction }

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(getenv func(string) string, key string, def int) int {
	v := getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
