// Package config provides applyd configuration loading and validation.
package config

// Config represents the applyd configuration
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Search      SearchConfig      `mapstructure:"search"`
	Application ApplicationConfig `mapstructure:"application"`
	Dispatch    DispatchConfig    `mapstructure:"dispatch"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path            string `mapstructure:"path"`
	BackupDirectory string `mapstructure:"backup_directory"`
}

// SearchConfig configures job discovery and filtering
type SearchConfig struct {
	Keywords    []string     `mapstructure:"keywords"`
	Locations   []string     `mapstructure:"locations"`
	SourceFiles []string     `mapstructure:"source_files"` // JSON listing batches for the file source
	Filters     FilterConfig `mapstructure:"filters"`
}

// FilterConfig configures inclusion/exclusion predicates applied to
// discovered jobs before tailoring. A job with no salary range is never
// excluded on salary grounds.
type FilterConfig struct {
	MinSalary       int      `mapstructure:"min_salary"`       // 0 = no salary floor
	ExcludeKeywords []string `mapstructure:"exclude_keywords"` // case-insensitive, title or description
}

// ApplicationConfig configures submission behavior
type ApplicationConfig struct {
	AutoSubmit bool           `mapstructure:"auto_submit"` // false = tailor only, never dispatch
	DailyLimit int            `mapstructure:"daily_limit"` // max successful submissions per calendar date
	FollowUp   FollowUpConfig `mapstructure:"follow_up"`
}

// FollowUpConfig configures follow-up scheduling for successful applications
type FollowUpConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	DelayDays             int  `mapstructure:"delay_days"`              // days after submission before follow-up is due
	LookaheadDays         int  `mapstructure:"lookahead_days"`          // due-window width for surfacing follow-ups
	TickerIntervalSeconds int  `mapstructure:"ticker_interval_seconds"` // how often the follow-up ticker polls
}

// DispatchConfig configures the submission dispatcher
type DispatchConfig struct {
	AdapterTimeoutSeconds int     `mapstructure:"adapter_timeout_seconds"` // per adapter call
	RequestsPerMinute     float64 `mapstructure:"requests_per_minute"`     // per-channel pacing
}

// PipelineConfig configures the orchestrator
type PipelineConfig struct {
	Workers int `mapstructure:"workers"` // concurrent jobs per run (default: 1)
}
