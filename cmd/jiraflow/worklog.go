package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Inna0915/jiraflow/internal/board"
	"github.com/Inna0915/jiraflow/internal/ui"
)

var worklogDate string

var worklogCmd = &cobra.Command{
	Use:     "worklog",
	GroupID: "board",
	Short:   "Work log management",
	Long: `Inspect and edit the daily work log.

The board records at most one entry per task per day; repeated moves on
the same day never create duplicates.`,
}

var worklogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List work log entries for a day",
	Run: func(cmd *cobra.Command, args []string) {
		day, err := worklogDay()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		entries, err := st.WorkLogsForDay(day)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(entries) == 0 {
			fmt.Printf("%s No work log entries for %s\n", ui.RenderWarn("•"), day.Format("2006-01-02"))
			return
		}

		fmt.Printf("%s Work log for %s\n\n", ui.RenderAccent("📋"), day.Format("2006-01-02"))
		for _, e := range entries {
			fmt.Printf("  %s  %s (%s)\n", e.TaskKey, e.Text, e.Origin)
		}
		fmt.Println()
	},
}

var worklogAddCmd = &cobra.Command{
	Use:   "add KEY TEXT",
	Short: "Add a manual work log entry",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		day, err := worklogDay()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		isNew, err := st.CreateWorkLogEntry(&board.WorkLogEntry{
			TaskKey: args[0],
			Origin:  board.OriginManual,
			Text:    args[1],
			Date:    day,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if isNew {
			fmt.Printf("%s Logged %s for %s\n", ui.RenderPass("✓"), args[0], day.Format("2006-01-02"))
		} else {
			fmt.Printf("%s %s already has an entry for %s\n", ui.RenderWarn("•"), args[0], day.Format("2006-01-02"))
		}
	},
}

var worklogRemoveCmd = &cobra.Command{
	Use:   "remove KEY",
	Short: "Remove a work log entry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		day, err := worklogDay()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		st, err := openStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := st.DeleteWorkLogEntry(args[0], day); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Removed %s from %s\n", ui.RenderPass("✓"), args[0], day.Format("2006-01-02"))
	},
}

func worklogDay() (time.Time, error) {
	if worklogDate == "" {
		return time.Now(), nil
	}
	return parseDue(worklogDate)
}

func init() {
	worklogCmd.PersistentFlags().StringVar(&worklogDate, "date", "", "day to operate on (default today; natural language accepted)")
	worklogCmd.AddCommand(worklogListCmd)
	worklogCmd.AddCommand(worklogAddCmd)
	worklogCmd.AddCommand(worklogRemoveCmd)
	rootCmd.AddCommand(worklogCmd)
}
