package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Inna0915/jiraflow/internal/ui"
)

var boardLanes bool

var boardCmd = &cobra.Command{
	Use:     "board",
	GroupID: "board",
	Short:   "Show the board from the local cache",
	Long: `Render the board from the local cache, columns in workflow order.

This reads the last synced state and works offline. --lanes groups
tasks by due-date triage lane (overdue, on schedule, unscheduled)
instead of by column.`,
	Run: func(cmd *cobra.Command, args []string) {
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

		c, err := loadCache(st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if c.Len() == 0 {
			fmt.Printf("%s Board is empty; run 'jiraflow sync' first\n", ui.RenderWarn("⚠"))
			return
		}

		today := time.Now()
		r := ui.Default()
		if boardLanes {
			fmt.Print(r.Swimlanes(c.BySwimlane(today), today))
		} else {
			fmt.Print(r.Board(c.ByColumn(), today))
		}
	},
}

func init() {
	boardCmd.Flags().BoolVar(&boardLanes, "lanes", false, "group by due-date lane instead of column")
	rootCmd.AddCommand(boardCmd)
}
