package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "applyd.db")
	v.SetDefault("database.backup_directory", "backups")

	// Application defaults
	v.SetDefault("application.auto_submit", false) // prepare-only until explicitly enabled
	v.SetDefault("application.daily_limit", 10)
	v.SetDefault("application.follow_up.enabled", true)
	v.SetDefault("application.follow_up.delay_days", 7)
	v.SetDefault("application.follow_up.lookahead_days", 1)
	v.SetDefault("application.follow_up.ticker_interval_seconds", 3600)

	// Dispatch defaults
	v.SetDefault("dispatch.adapter_timeout_seconds", 30)
	v.SetDefault("dispatch.requests_per_minute", 10.0) // polite pacing toward job boards

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 1)
}
