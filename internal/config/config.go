// Package config loads course-monitor settings from defaults, an optional
// config file, a .env file and COURSE_MONITOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/statistics102/course-monitor/internal/kv"
)

// EnvPrefix prefixes every environment variable, e.g. COURSE_MONITOR_STORE_DRIVER.
const EnvPrefix = "COURSE_MONITOR"

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Store     StoreConfig
	Downloads DownloadsConfig
	Export    ExportConfig
	Log       LogConfig
}

// AppConfig is the configuration for the running mode.
type AppConfig struct {
	Mode     string
	Timezone string
}

// HTTPConfig is the configuration for the local HTTP server.
type HTTPConfig struct {
	Addr string
}

// StoreConfig selects the key-value backend.
type StoreConfig struct {
	Driver        string
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// DownloadsConfig is where downloaded attachments and exports are saved.
type DownloadsConfig struct {
	Dir string
}

// ExportConfig controls automatic spreadsheet snapshots.
type ExportConfig struct {
	Interval  string
	Dir       string
	Retention int
}

// LogConfig is the configuration for logging.
type LogConfig struct {
	Level string
}

// KVOptions converts the store section into kv.Options.
func (c StoreConfig) KVOptions() kv.Options {
	return kv.Options{
		Driver:        c.Driver,
		DataDir:       c.DataDir,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.mode", "production")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("http.addr", "127.0.0.1:8090")
	v.SetDefault("store.driver", kv.DriverSQLite)
	v.SetDefault("store.data_dir", "./data")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_prefix", "course-monitor:")
	v.SetDefault("downloads.dir", "./downloads")
	v.SetDefault("export.interval", "manual")
	v.SetDefault("export.dir", "./exports")
	v.SetDefault("export.retention", 7)
	v.SetDefault("log.level", "info")
}

// Load reads configuration. configFile may be empty, in which case a
// config.yaml in the working directory or ./config is used if present.
func Load(configFile string) (*Config, error) {
	// .env only seeds variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Mode:     v.GetString("app.mode"),
			Timezone: v.GetString("app.timezone"),
		},
		HTTP: HTTPConfig{
			Addr: v.GetString("http.addr"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("store.driver")),
			DataDir:       v.GetString("store.data_dir"),
			RedisAddr:     v.GetString("store.redis_addr"),
			RedisPassword: v.GetString("store.redis_password"),
			RedisDB:       v.GetInt("store.redis_db"),
			RedisPrefix:   v.GetString("store.redis_prefix"),
		},
		Downloads: DownloadsConfig{
			Dir: v.GetString("downloads.dir"),
		},
		Export: ExportConfig{
			Interval:  strings.ToLower(v.GetString("export.interval")),
			Dir:       v.GetString("export.dir"),
			Retention: v.GetInt("export.retention"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves App.Timezone.
func (c AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case kv.DriverMemory, kv.DriverSQLite, kv.DriverRedis:
	default:
		return fmt.Errorf("store.driver must be one of memory, sqlite, redis; got %q", c.Store.Driver)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}
	switch c.Export.Interval {
	case "manual", "daily", "weekly", "monthly":
	default:
		return fmt.Errorf("export.interval must be one of manual, daily, weekly, monthly; got %q", c.Export.Interval)
	}
	if c.Export.Retention < 0 {
		return fmt.Errorf("export.retention must not be negative")
	}
	return nil
}
