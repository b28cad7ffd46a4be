package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"taxprotest/internal/comparables"
	"taxprotest/internal/database"
)

const defaultConfigPath = "config.yaml"

type Config struct {
	AppEnv string `yaml:"app_env"`

	// DataPath is a file path or http(s) URL for the appraisal roll export.
	// Ignored when the database is configured.
	DataPath    string             `yaml:"data_path"`
	LoadWorkers int                `yaml:"load_workers"`
	Database    database.DBConfig  `yaml:"database"`
	ZoningPaths []string           `yaml:"zoning_paths"`
	Valuation   comparables.Config `yaml:"valuation"`
	HTTP        HTTPConfig         `yaml:"http"`
	Redis       RedisConfig        `yaml:"redis"`

	// ReloadSchedule is a cron spec for refreshing the dataset while serving.
	ReloadSchedule string `yaml:"reload_schedule"`
	ScreenWorkers  int    `yaml:"screen_workers"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	RateLimit       float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst       int           `yaml:"rate_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // empty disables the report cache
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

func Default() Config {
	return Config{
		AppEnv:    "prod",
		DataPath:  "data/PropertyData_R_2025.txt",
		Valuation: comparables.DefaultConfig(),
		HTTP: HTTPConfig{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			RateLimit:       20,
			RateBurst:       40,
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{TTL: 15 * time.Minute},
	}
}

// Load reads .env, then the YAML file at path (CONFIG_PATH or config.yaml when
// empty), then applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = env("CONFIG_PATH", defaultConfigPath)
		explicit = os.Getenv("CONFIG_PATH") != ""
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	envOverride(&cfg.AppEnv, "APP_ENV")
	envOverride(&cfg.DataPath, "DATA_PATH")
	envOverrideInt(&cfg.LoadWorkers, "LOAD_WORKERS")
	envOverrideList(&cfg.ZoningPaths, "ZONING_PATHS")
	envOverride(&cfg.HTTP.Addr, "HTTP_ADDR")
	envOverrideDuration(&cfg.HTTP.RequestTimeout, "HTTP_REQUEST_TIMEOUT")
	envOverrideFloat(&cfg.HTTP.RateLimit, "HTTP_RATE_LIMIT")
	envOverrideInt(&cfg.HTTP.RateBurst, "HTTP_RATE_BURST")
	envOverride(&cfg.Redis.Addr, "REDIS_ADDR")
	envOverride(&cfg.Redis.Password, "REDIS_PASSWORD")
	envOverrideInt(&cfg.Redis.DB, "REDIS_DB")
	envOverrideDuration(&cfg.Redis.TTL, "REDIS_TTL")
	envOverride(&cfg.ReloadSchedule, "RELOAD_SCHEDULE")
	envOverrideInt(&cfg.ScreenWorkers, "SCREEN_WORKERS")

	envOverrideFloat(&cfg.Valuation.TaxRate, "TAX_RATE")
	envOverrideInt(&cfg.Valuation.MinComparables, "MIN_COMPARABLES")
	envOverrideFloat(&cfg.Valuation.MinSavings, "MIN_SAVINGS")
	envOverrideBool(&cfg.Valuation.RequireSameZoning, "REQUIRE_SAME_ZONING")

	cfg.Database = database.LoadDatabaseConfig(cfg.Database)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if err := c.Valuation.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.DataPath == "" && !c.Database.Enabled() {
		errs = append(errs, errors.New("data_path or database must be configured"))
	}
	if c.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(c.ReloadSchedule); err != nil {
			errs = append(errs, fmt.Errorf("reload_schedule: %w", err))
		}
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("http.rate_limit must be >= 0, got %v", c.HTTP.RateLimit))
	}
	return errors.Join(errs...)
}

// Dev reports whether human-friendly console output is wanted.
func (c Config) Dev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envOverride(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envOverrideFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envOverrideBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envOverrideDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func envOverrideList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	*dst = nil
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*dst = append(*dst, p)
		}
	}
}
