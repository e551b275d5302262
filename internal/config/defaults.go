package config

import (
	"os"
	"path/filepath"
	"time"
)

// MinSyncInterval is the floor for scheduled sync frequency. Shorter
// intervals hammer the remote rate limits without making the board any
// fresher.
const MinSyncInterval = time.Minute

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Version: "1",
		Sync: SyncConfig{
			Interval: 5 * time.Minute,
			Timeout:  2 * time.Minute,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".jiraflow", "board.db"),
		},
		Log: LogConfig{
			File:       filepath.Join(home, ".jiraflow", "jiraflow.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
		Feed: FeedConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8377",
		},
		StatusMappings: map[string]string{},
	}
}

// WriteDefault writes a commented starter configuration to path.
func WriteDefault(path string) error {
	content := `# jiraflow configuration
version: "1"

# Remote issue tracker
remote:
  base_url: https://your-site.atlassian.net
  username: you@example.com
  api_token: ""
  project: PROJ
  # board: "PROJ board"   # optional, discovered from the project when empty

# Background sync
sync:
  interval: 5m   # minimum 1m
  timeout: 2m

# Markdown note vault (empty disables note sync)
vault:
  dir: ""

# Local cache database
# database:
#   path: ~/.jiraflow/board.db

# Log rotation
# log:
#   file: ~/.jiraflow/jiraflow.log
#   max_size_mb: 10
#   max_backups: 3
#   max_age_days: 30

# WebSocket event feed for board UIs
feed:
  enabled: false
  addr: 127.0.0.1:8377

# Site-specific status names on top of the built-in table.
# status_mappings:
#   "Waiting for QA": review
#   "Released": closed
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
