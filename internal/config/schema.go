// Package config loads jiraflow configuration from ~/.jiraflow/config.yaml
// and the project-local .jiraflow/config.yaml, project overriding global.
package config

import "time"

// Config represents the full jiraflow configuration.
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Remote tracker connection
	Remote RemoteConfig `yaml:"remote" mapstructure:"remote"`

	// Sync scheduling
	Sync SyncConfig `yaml:"sync" mapstructure:"sync"`

	// Note vault integration
	Vault VaultConfig `yaml:"vault" mapstructure:"vault"`

	// Local storage
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Event feed server
	Feed FeedConfig `yaml:"feed" mapstructure:"feed"`

	// StatusMappings adds site-specific remote statuses on top of the
	// built-in mapping table. Keys are exact remote status names, values
	// are column ids.
	StatusMappings map[string]string `yaml:"status_mappings" mapstructure:"status_mappings"`
}

// RemoteConfig configures the issue tracker connection.
type RemoteConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Username string `yaml:"username" mapstructure:"username"`
	APIToken string `yaml:"api_token" mapstructure:"api_token"`
	Project  string `yaml:"project" mapstructure:"project"`
	// Board optionally pins a board by name; empty means discover the
	// first scrum board of the project.
	Board string `yaml:"board" mapstructure:"board"`
}

// SyncConfig configures the background sync scheduler.
type SyncConfig struct {
	// Interval between scheduled syncs. Values under one minute are
	// raised to one minute at load time.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// Timeout bounds a single sync run.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// VaultConfig configures markdown note generation.
type VaultConfig struct {
	// Dir is the vault directory. Empty disables note sync.
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// DatabaseConfig configures the local SQLite cache.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures file logging with rotation.
type LogConfig struct {
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// FeedConfig configures the WebSocket event feed.
type FeedConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}
