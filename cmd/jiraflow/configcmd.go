package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Inna0915/jiraflow/internal/config"
	"github.com/Inna0915/jiraflow/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a commented starter configuration to ~/.jiraflow/config.yaml
(or the path given with --config). Refuses to overwrite an existing
file.`,
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			path = config.GlobalConfigPath()
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "%s Config already exists at %s\n", ui.RenderWarn("⚠"), path)
			os.Exit(1)
		}

		if err := config.WriteDefault(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), path)
		fmt.Printf("   Edit it to set your tracker URL, credentials and project\n")
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Effective configuration\n\n", ui.RenderAccent("⚙"))
		fmt.Printf("Remote: %s (project %s)\n", cfg.Remote.BaseURL, cfg.Remote.Project)
		fmt.Printf("Sync: every %s, timeout %s\n", cfg.Sync.Interval, cfg.Sync.Timeout)
		fmt.Printf("Database: %s\n", cfg.Database.Path)
		fmt.Printf("Log: %s\n", cfg.Log.File)
		if cfg.Vault.Dir != "" {
			fmt.Printf("Vault: %s\n", cfg.Vault.Dir)
		} else {
			fmt.Printf("Vault: disabled\n")
		}
		if cfg.Feed.Enabled {
			fmt.Printf("Feed: %s\n", cfg.Feed.Addr)
		} else {
			fmt.Printf("Feed: disabled\n")
		}
		if len(cfg.StatusMappings) > 0 {
			fmt.Printf("Status mappings:\n")
			for status, col := range cfg.StatusMappings {
				fmt.Printf("  %q -> %s\n", status, col)
			}
		}
		fmt.Println()
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
