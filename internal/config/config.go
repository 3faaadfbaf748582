// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Flow graph link cap bounds.
const (
	MinFlowLinks = 80
	MaxFlowLinks = 100
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	Timezone    string   `mapstructure:"timezone"`

	// File paths
	StoragePath  string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`

	// Persistence settings
	PersistIntervalSeconds int `mapstructure:"persistintervalseconds"`

	// Analytics settings
	PurgeToken           string `mapstructure:"purgetoken"`
	FlowMaxLinks         int    `mapstructure:"flowmaxlinks"`
	FlowDefaultDepth     int    `mapstructure:"flowdefaultdepth"`
	VisitorsDefaultLimit int    `mapstructure:"visitorsdefaultlimit"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "pageflow")
		v.SetDefault("appport", "5055")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("timezone", "Local")
		v.SetDefault("storagepath", "storage")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("persistintervalseconds", 10)
		v.SetDefault("purgetoken", "DELETE_ALL_DATA")
		v.SetDefault("flowmaxlinks", MinFlowLinks)
		v.SetDefault("flowdefaultdepth", 5)
		v.SetDefault("visitorsdefaultlimit", 50)

		v.BindEnv("appname", "PAGEFLOW_APP_NAME")
		v.BindEnv("appport", "PAGEFLOW_APP_PORT")
		v.BindEnv("environment", "PAGEFLOW_ENV")
		v.BindEnv("loglevel", "PAGEFLOW_LOG_LEVEL")
		v.BindEnv("timezone", "PAGEFLOW_TIMEZONE")
		v.BindEnv("storagepath", "PAGEFLOW_STORAGE_PATH")
		v.BindEnv("logsdir", "PAGEFLOW_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "PAGEFLOW_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "PAGEFLOW_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "PAGEFLOW_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "PAGEFLOW_DB_MAX_OPEN_CONNS")
		v.BindEnv("persistintervalseconds", "PAGEFLOW_PERSIST_INTERVAL_SECONDS")
		v.BindEnv("purgetoken", "PAGEFLOW_PURGE_TOKEN")
		v.BindEnv("flowmaxlinks", "PAGEFLOW_FLOW_MAX_LINKS")
		v.BindEnv("flowdefaultdepth", "PAGEFLOW_FLOW_DEFAULT_DEPTH")
		v.BindEnv("visitorsdefaultlimit", "PAGEFLOW_VISITORS_DEFAULT_LIMIT")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.PurgeToken == "" {
		return fmt.Errorf("purge token must not be empty")
	}

	if c.PersistIntervalSeconds <= 0 {
		return fmt.Errorf("invalid persist interval: %d", c.PersistIntervalSeconds)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.StoragePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// Location resolves the server-local timezone used for "today" and trend buckets.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// PersistInterval returns the durable snapshot interval.
func (c *Config) PersistInterval() time.Duration {
	return time.Duration(c.PersistIntervalSeconds) * time.Second
}

// GetFlowMaxLinks returns the flow edge cap clamped to [MinFlowLinks, MaxFlowLinks].
func (c *Config) GetFlowMaxLinks() int {
	switch {
	case c.FlowMaxLinks < MinFlowLinks:
		return MinFlowLinks
	case c.FlowMaxLinks > MaxFlowLinks:
		return MaxFlowLinks
	default:
		return c.FlowMaxLinks
	}
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1 (in-memory databases are per connection)
// - Development/Production: 4
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 4
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
