package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/Inna0915/jiraflow/internal/board"
	"github.com/Inna0915/jiraflow/internal/reconcile"
	"github.com/Inna0915/jiraflow/internal/remote"
	"github.com/Inna0915/jiraflow/internal/ui"
)

var moveDue string

var moveCmd = &cobra.Command{
	Use:     "move KEY COLUMN",
	GroupID: "board",
	Short:   "Move a task to another column",
	Long: `Move a task to another board column.

The move is validated against the task's workflow (stories and defects
have different legal transitions), applied to the local board
immediately, and confirmed against the remote tracker. If the tracker
rejects the transition the local move is rolled back.

Columns: ` + columnList() + `

With --due the task's due date is updated first; natural language is
accepted ("tomorrow", "next friday", "2026-04-01").`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		target := board.ColumnID(args[1])

		if !board.ValidColumn(target) {
			fmt.Fprintf(os.Stderr, "Error: unknown column %q\nColumns: %s\n", args[1], columnList())
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger := newLogger(cfg, "[move] ")

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

		if moveDue != "" {
			due, err := parseDue(moveDue)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			task, ok := c.Get(key)
			if !ok {
				fmt.Fprintf(os.Stderr, "Error: task %s not found\n", key)
				os.Exit(1)
			}
			task.DueDate = &due
			c.Upsert(task)
			if err := st.UpsertTask(task); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to save due date: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Due date set to %s\n", ui.RenderPass("✓"), due.Format("2006-01-02"))
		}

		client, err := newRemote(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var notes reconcile.NoteSyncer
		if v := newVault(cfg, logger); v != nil {
			notes = v
		}

		orch := reconcile.New(c, st, client, notes, nil, reconcile.Config{Logger: logger})

		m := orch.MoveTask(cmd.Context(), key, target)
		res := m.Wait()

		switch res.Outcome {
		case reconcile.OutcomeNoop:
			fmt.Printf("%s %s is already in %s\n", ui.RenderWarn("•"), key, board.DisplayName(target))
		case reconcile.OutcomeRejected:
			fmt.Fprintf(os.Stderr, "%s Move rejected: %s\n", ui.RenderFail("✗"), res.Reason)
			os.Exit(1)
		case reconcile.OutcomeRolledBack:
			if res.ErrorCode == remote.CodeGuidedScreenRequired {
				fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderWarn("⚠"), res.Reason)
			} else {
				fmt.Fprintf(os.Stderr, "%s Move rolled back: %s\n", ui.RenderFail("✗"), res.Reason)
			}
			os.Exit(1)
		case reconcile.OutcomeConfirmed:
			fmt.Printf("%s %s: %s → %s\n", ui.RenderPass("✓"), key,
				board.DisplayName(m.From), board.DisplayName(target))
			if res.WorkLogNew {
				fmt.Printf("   Work log entry recorded\n")
			}
			if res.Note != nil && res.Note.Synced {
				fmt.Printf("   Note synced\n")
			}
		}
	},
}

// parseDue accepts natural language ("tomorrow", "next friday") as well as
// plain dates.
func parseDue(text string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(text, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse due date %q: %w", text, err)
	}
	if r != nil {
		return r.Time, nil
	}

	t, err := time.ParseInLocation("2006-01-02", text, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse due date %q", text)
	}
	return t, nil
}

func columnList() string {
	s := ""
	for i, col := range board.Columns {
		if i > 0 {
			s += ", "
		}
		s += string(col)
	}
	return s
}

func init() {
	moveCmd.Flags().StringVar(&moveDue, "due", "", "set the task's due date (natural language accepted)")
	rootCmd.AddCommand(moveCmd)
}
