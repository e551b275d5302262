package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Inna0915/jiraflow/internal/board"
	"github.com/Inna0915/jiraflow/internal/cache"
	"github.com/Inna0915/jiraflow/internal/config"
	"github.com/Inna0915/jiraflow/internal/remote"
	"github.com/Inna0915/jiraflow/internal/store"
	"github.com/Inna0915/jiraflow/internal/vault"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "jiraflow",
	Short: "Local task board reconciled with a remote issue tracker",
	Long: `jiraflow mirrors your remote tracker's sprint onto a local kanban
board, enforces per-type workflow rules on moves, and pushes confirmed
moves back to the tracker.

The board lives in a local SQLite cache and stays usable offline;
syncs refresh it from the tracker on a schedule or on demand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.jiraflow/config.yaml, then ./.jiraflow/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr in addition to the log file")
	rootCmd.AddGroup(&cobra.Group{ID: "board", Title: "Board commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "sync", Title: "Sync commands:"})
}

// loadConfig resolves the effective configuration, honoring --config.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// newLogger builds the rotating file logger. With --verbose the log also
// goes to stderr.
func newLogger(cfg *config.Config, prefix string) *log.Logger {
	var w io.Writer = &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	if verbose {
		w = io.MultiWriter(w, os.Stderr)
	}
	return log.New(w, prefix, log.LstdFlags)
}

// openStore opens the local database and ensures the schema exists.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open board database: %w", err)
	}
	if err := st.InitSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return st, nil
}

// loadCache fills an in-memory cache from the persisted board so commands
// work offline from the last synced state.
func loadCache(st *store.Store) (*cache.Cache, error) {
	tasks, err := st.GetAllTasks()
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}
	c := cache.New()
	c.ReplaceAll(tasks)
	return c, nil
}

// newRemote builds the tracker client from config.
func newRemote(cfg *config.Config, logger *log.Logger) (*remote.JiraClient, error) {
	return remote.NewJiraClient(remote.JiraConfig{
		BaseURL:  cfg.Remote.BaseURL,
		Username: cfg.Remote.Username,
		APIToken: cfg.Remote.APIToken,
		Project:  cfg.Remote.Project,
		Mapper:   newMapper(cfg, logger),
		Logger:   logger,
	})
}

// newMapper builds the status mapper with any configured site-specific
// entries.
func newMapper(cfg *config.Config, logger *log.Logger) *board.StatusMapper {
	return &board.StatusMapper{
		Extra:  cfg.ExtraMappings(),
		Logger: logger,
	}
}

// newVault returns the note syncer, or nil when no vault is configured.
func newVault(cfg *config.Config, logger *log.Logger) *vault.Vault {
	if cfg.Vault.Dir == "" {
		return nil
	}
	return vault.New(cfg.Vault.Dir, logger)
}
