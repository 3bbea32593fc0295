package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AccrueConfig holds configuration for the accrual replay command.
type AccrueConfig struct {
	Input          string
	PGDSN          string
	BatchSize      int
	StateFile      string
	FailedPath     string
	ConnectRetries int
	ConnectBackoff time.Duration
	LogLevel       string
}

// LoadAccrue merges config file, environment variables, and flags into
// AccrueConfig.
func LoadAccrue(cfgFile string, flags *pflag.FlagSet) (AccrueConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"batch-size":      1000,
		"failed":          "./data/failed_notifications.jsonl",
		"connect-retries": 5,
		"connect-backoff": 500 * time.Millisecond,
		"log-level":       "info",
	})
	if err != nil {
		return AccrueConfig{}, err
	}

	cfg := AccrueConfig{
		Input:          v.GetString("in"),
		PGDSN:          v.GetString("pg-dsn"),
		BatchSize:      v.GetInt("batch-size"),
		StateFile:      v.GetString("state-file"),
		FailedPath:     v.GetString("failed"),
		ConnectRetries: v.GetInt("connect-retries"),
		ConnectBackoff: v.GetDuration("connect-backoff"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

// ServeConfig holds configuration for the query service command.
type ServeConfig struct {
	Listen   string
	PGDSN    string
	LogLevel string
}

// LoadServe merges config file, environment variables, and flags into
// ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"listen":    ":8080",
		"log-level": "info",
	})
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Listen:   v.GetString("listen"),
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("POINTS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
