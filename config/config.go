package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"hermannm.dev/wrap"
)

type Config struct {
	BaseConfig
	SQLite        SQLite
	ClickHouse    ClickHouse
	Elasticsearch Elasticsearch
}

type BaseConfig struct {
	IsProduction bool        `env:"PRODUCTION"`
	DB           SupportedDB `env:"DATABASE"`
	// Creates the CRM tables on startup if missing. Ignored in production.
	BootstrapSchema bool   `env:"BOOTSTRAP_SCHEMA" envDefault:"false"`
	LogLevel        string `env:"LOG_LEVEL"        envDefault:"INFO"`
	TimeZone        string `env:"TIMEZONE"         envDefault:"UTC"`
	API             API
	Generation      Generation
	Endpoints       Endpoints
	Leaderboard     Leaderboard
}

type API struct {
	Port               string        `env:"API_PORT"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"              envDefault:"60s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS"         envDefault:"*"  envSeparator:","`
	RateLimitPerSecond float64       `env:"QUERY_RATE_LIMIT_PER_SECOND"  envDefault:"2"`
	RateLimitBurst     int           `env:"QUERY_RATE_LIMIT_BURST"       envDefault:"10"`
}

// Generation configures the text-generation service. An empty APIKey leaves the service
// unconfigured, in which case only the pre-built strategies can answer questions.
type Generation struct {
	APIKey       string        `env:"GEMINI_API_KEY"            envDefault:""`
	Model        string        `env:"GEMINI_MODEL"              envDefault:"gemini-2.0-flash"`
	Endpoint     string        `env:"GEMINI_ENDPOINT"           envDefault:"https://generativelanguage.googleapis.com/v1beta/models"`
	Timeout      time.Duration `env:"GENERATION_TIMEOUT"        envDefault:"30s"`
	MaxDataChars int           `env:"GENERATION_MAX_DATA_CHARS" envDefault:"20000"`
}

type Endpoints struct {
	// Base URL of the CRM API hosting the delegated report endpoints. Empty disables them.
	BaseURL string        `env:"DELEGATED_ENDPOINTS_BASE_URL" envDefault:""`
	Timeout time.Duration `env:"DELEGATED_ENDPOINTS_TIMEOUT"  envDefault:"15s"`
}

type Leaderboard struct {
	Concurrency int `env:"LEADERBOARD_CONCURRENCY" envDefault:"8"`
}

type SQLite struct {
	Path string `env:"SQLITE_PATH"`
}

type ClickHouse struct {
	Address      string `env:"CLICKHOUSE_ADDRESS"`
	DatabaseName string `env:"CLICKHOUSE_DB_NAME"`
	Username     string `env:"CLICKHOUSE_USERNAME"`
	Password     string `env:"CLICKHOUSE_PASSWORD"`
	Debug        bool   `env:"CLICKHOUSE_DEBUG_ENABLED" envDefault:"false"`
}

type Elasticsearch struct {
	Address  string `env:"ELASTICSEARCH_ADDRESS"`
	Username string `env:"ELASTICSEARCH_USERNAME"      envDefault:""`
	Password string `env:"ELASTICSEARCH_PASSWORD"      envDefault:""`
	Debug    bool   `env:"ELASTICSEARCH_DEBUG_ENABLED" envDefault:"false"`
}

type SupportedDB string

const (
	DBSQLite        SupportedDB = "sqlite"
	DBClickHouse    SupportedDB = "clickhouse"
	DBElasticsearch SupportedDB = "elasticsearch"
)

func ReadFromEnv() (Config, error) {
	// A .env file is optional, as deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, wrap.Error(err, "failed to load .env file")
	}

	parseOptions := env.Options{RequiredIfNoDef: true}

	var config Config

	if err := env.ParseWithOptions(&config.BaseConfig, parseOptions); err != nil {
		return Config{}, err
	}

	switch config.DB {
	case DBSQLite:
		if err := env.ParseWithOptions(&config.SQLite, parseOptions); err != nil {
			return Config{}, err
		}
	case DBClickHouse:
		if err := env.ParseWithOptions(&config.ClickHouse, parseOptions); err != nil {
			return Config{}, err
		}
	case DBElasticsearch:
		if err := env.ParseWithOptions(&config.Elasticsearch, parseOptions); err != nil {
			return Config{}, err
		}
	default:
		err := fmt.Errorf("must be one of: '%s', '%s', '%s'", DBSQLite, DBClickHouse, DBElasticsearch)
		return Config{}, wrap.Errorf(err, "unsupported value '%s' for DATABASE in env", config.DB)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (config Config) validate() error {
	var errs []error

	if _, err := config.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if _, err := time.LoadLocation(config.TimeZone); err != nil {
		errs = append(errs, wrap.Errorf(err, "invalid TIMEZONE '%s'", config.TimeZone))
	}
	if config.Leaderboard.Concurrency < 1 {
		errs = append(errs, errors.New("LEADERBOARD_CONCURRENCY must be at least 1"))
	}
	if config.API.RateLimitPerSecond <= 0 || config.API.RateLimitBurst < 1 {
		errs = append(errs, errors.New("query rate limit must be positive"))
	}

	if len(errs) != 0 {
		return wrap.Errors("invalid environment variables", errs...)
	}
	return nil
}

func (config Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(config.LogLevel))); err != nil {
		return 0, wrap.Errorf(err, "invalid LOG_LEVEL '%s'", config.LogLevel)
	}
	return level, nil
}

func (config Config) Location() *time.Location {
	location, err := time.LoadLocation(config.TimeZone)
	if err != nil {
		// Checked in validate.
		return time.UTC
	}
	return location
}
