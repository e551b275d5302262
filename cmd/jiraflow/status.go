package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Inna0915/jiraflow/internal/board"
	"github.com/Inna0915/jiraflow/internal/syncer"
	"github.com/Inna0915/jiraflow/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show local board status",
	Long: `Display the state of the local board cache.

Shows:
  - Database location and size
  - Task counts by column group
  - Last sync time from the persisted cursor`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		info, err := os.Stat(cfg.Database.Path)
		if os.IsNotExist(err) {
			fmt.Printf("\n%s Board not initialized\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'jiraflow sync' to create it\n\n")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking database: %v\n", err)
			os.Exit(1)
		}

		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		tasks, err := st.GetAllTasks()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var open, terminal int
		for _, t := range tasks {
			if t.Done() {
				terminal++
			} else {
				open++
			}
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		fmt.Printf("\n%s Board Status\n\n", ui.RenderAccent("📊"))
		fmt.Printf("Database: %s\n", cfg.Database.Path)
		fmt.Printf("Size: %s\n", sizeStr)
		fmt.Printf("Tasks: %d open, %d completed\n", open, terminal)

		if last, ok := syncer.LastSyncTime(st); ok {
			fmt.Printf("Last sync: %s\n", last.Local().Format("2006-01-02 15:04:05"))
		} else {
			fmt.Printf("Last sync: never (next sync will be full)\n")
		}

		overdue := 0
		today := time.Now()
		for _, t := range tasks {
			if board.ClassifyTask(t, today).IsOverdue {
				overdue++
			}
		}
		if overdue > 0 {
			fmt.Printf("%s %d overdue\n", ui.RenderFail("!"), overdue)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
