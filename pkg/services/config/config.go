package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration, loaded from priceplan.yaml.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Planning  PlanningConfig  `mapstructure:"planning"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type StorageConfig struct {
	// DbPath is the local DuckDB file holding imported sales history
	DbPath string `mapstructure:"db_path"`
}

type SourcesConfig struct {
	// Path is the ini file with the sales source profiles
	Path string `mapstructure:"path"`
	// DefaultProfile is used when a request names no profile
	DefaultProfile string `mapstructure:"default_profile"`
}

type PlanningConfig struct {
	HistoryDays  int           `mapstructure:"history_days"`
	HorizonDays  int           `mapstructure:"horizon_days"`
	StageTimeout time.Duration `mapstructure:"stage_timeout"`
}

type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Cron is a standard five-field cron expression
	Cron    string `mapstructure:"cron"`
	Profile string `mapstructure:"profile"`
}

// Load reads the config file at the given path. Missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		err := v.ReadInConfig()
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("storage.db_path", "priceplan.db")
	v.SetDefault("sources.path", "sources.ini")
	v.SetDefault("sources.default_profile", "local")
	v.SetDefault("planning.history_days", 90)
	v.SetDefault("planning.horizon_days", 7)
	v.SetDefault("planning.stage_timeout", time.Minute)
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.cron", "0 3 * * *")
	v.SetDefault("scheduler.profile", "")
}
