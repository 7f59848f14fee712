package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/applyd/applyd/errors"
)

// Load reads the applyd configuration using Viper.
// Precedence (lowest to highest): defaults < project applyd.toml < env vars.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("APPLYD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path := findProjectConfig(); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", configPath)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if config.Application.DailyLimit < 0 {
		return nil, errors.Newf("application.daily_limit cannot be negative: %d", config.Application.DailyLimit)
	}
	if config.Application.FollowUp.DelayDays < 0 {
		return nil, errors.Newf("application.follow_up.delay_days cannot be negative: %d", config.Application.FollowUp.DelayDays)
	}
	return &config, nil
}

// findProjectConfig searches for applyd.toml by walking up the directory tree.
// Returns the path to the first config file found, or empty string if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, "applyd.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
