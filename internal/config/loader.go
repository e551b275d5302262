package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Inna0915/jiraflow/internal/board"
)

// Load loads and merges configuration from global and project sources.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return cfg, nil
	}

	// Global config first, then project config overrides it.
	globalPath := filepath.Join(home, ".jiraflow", "config.yaml")
	if err := loadFile(globalPath, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", globalPath, err)
	}

	projectPath := filepath.Join(cwd, ".jiraflow", "config.yaml")
	if err := loadFile(projectPath, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", projectPath, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads a single config file on top of the defaults. Used by
// --config and by the config watcher reload path.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// JIRAFLOW_REMOTE_API_TOKEN and friends override the file, so
	// credentials can stay out of it.
	v.SetEnvPrefix("JIRAFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

// normalize enforces bounds and validates the parts that would otherwise
// fail deep inside a sync run.
func (c *Config) normalize() error {
	if c.Sync.Interval < MinSyncInterval {
		c.Sync.Interval = MinSyncInterval
	}
	if c.Sync.Timeout <= 0 {
		c.Sync.Timeout = 2 * time.Minute
	}
	for status, col := range c.StatusMappings {
		if !board.ValidColumn(board.ColumnID(col)) {
			return fmt.Errorf("status_mappings[%q]: unknown column %q", status, col)
		}
	}
	return nil
}

// ExtraMappings converts the configured status overrides into the mapper's
// typed form.
func (c *Config) ExtraMappings() map[string]board.ColumnID {
	if len(c.StatusMappings) == 0 {
		return nil
	}
	m := make(map[string]board.ColumnID, len(c.StatusMappings))
	for status, col := range c.StatusMappings {
		m[status] = board.ColumnID(col)
	}
	return m
}

// GlobalConfigPath returns the path to the global config file.
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".jiraflow", "config.yaml")
}

// ProjectConfigPath returns the path to the project config file.
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".jiraflow", "config.yaml")
}
