package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Inna0915/jiraflow/internal/config"
	"github.com/Inna0915/jiraflow/internal/dashboard"
	"github.com/Inna0915/jiraflow/internal/syncer"
	"github.com/Inna0915/jiraflow/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Run the sync scheduler in the foreground",
	Long: `Run the background sync scheduler in foreground mode.

The scheduler performs an initial full sync, then incremental syncs on
the configured interval. Scheduled runs are skipped while a move is in
flight so they cannot overwrite optimistic board state.

When the event feed is enabled, a WebSocket server broadcasts task
moves and sync results to connected board UIs. Edits to the config file
are picked up live; a change resets the sync cursor so the next run is
a full refresh.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger := newLogger(cfg, "[serve] ")

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

		var events syncer.Events
		var feed *dashboard.Server
		if cfg.Feed.Enabled {
			feed = dashboard.NewServer(cfg.Feed.Addr, c, logger)
			if err := feed.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting event feed: %v\n", err)
				os.Exit(1)
			}
			defer feed.Stop()
			events = feed
			fmt.Printf("%s Event feed on ws://%s/ws\n", ui.RenderAccent("⇄"), feed.Addr())
		}

		sched := syncer.New(c, st, client, events, syncer.Config{
			Interval: cfg.Sync.Interval,
			Mapper:   newMapper(cfg, logger),
			Logger:   logger,
		})

		// Config edits force a full refresh on the next scheduled run.
		watchPath := configPath
		if watchPath == "" {
			watchPath = config.GlobalConfigPath()
		}
		watcher, err := config.NewWatcher(watchPath, func(_ *config.Config) {
			if err := sched.ResetCursor(); err != nil {
				logger.Printf("WARNING: %v", err)
			}
		}, logger)
		if err == nil {
			if werr := watcher.Start(); werr != nil {
				logger.Printf("WARNING: config watch disabled: %v", werr)
			} else {
				defer watcher.Stop()
			}
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sig
			fmt.Printf("\n%s Shutting down...\n", ui.RenderWarn("⚠"))
			cancel()
		}()

		fmt.Printf("%s Sync scheduler running (interval %s)\n", ui.RenderAccent("🔄"), cfg.Sync.Interval)
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		if err := sched.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Scheduler stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
