package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Inna0915/jiraflow/internal/syncer"
	"github.com/Inna0915/jiraflow/internal/ui"
)

var syncFull bool

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Refresh the board from the remote tracker",
	Long: `Run one sync against the remote tracker.

By default this is an incremental sync: only issues changed since the
last sync are fetched, using the persisted sync cursor. When the cursor
is missing, stale, or the board has drifted, the sync automatically
falls back to a full refresh. --full forces the full refresh.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger := newLogger(cfg, "[sync] ")

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

		client, err := newRemote(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		sched := syncer.New(c, st, client, nil, syncer.Config{
			Interval: cfg.Sync.Interval,
			Mapper:   newMapper(cfg, logger),
			Logger:   logger,
		})

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Sync.Timeout)
		defer cancel()

		start := time.Now()
		var stats *syncer.Stats
		if syncFull {
			stats, err = sched.RunFullSync(ctx)
		} else {
			stats, err = sched.RunIncrementalSync(ctx)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s Sync failed: %v\n", ui.RenderFail("✗"), err)
			os.Exit(1)
		}

		elapsed := time.Since(start).Round(time.Millisecond)
		mode := stats.Mode
		if stats.FellBack {
			mode = "incremental (fell back to full)"
		}
		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), elapsed)
		fmt.Printf("   Mode: %s\n", mode)
		fmt.Printf("   Sprint: %s\n", stats.Sprint)
		fmt.Printf("   Tasks: %d (%d changed, %d pruned)\n", stats.Total, stats.Changed, stats.Pruned)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "force a full refresh instead of incremental")
	rootCmd.AddCommand(syncCmd)
}
