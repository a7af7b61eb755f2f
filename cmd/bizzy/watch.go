package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/steveyegge/bizzy/internal/beads"
	"github.com/steveyegge/bizzy/internal/daemon"
	"github.com/steveyegge/bizzy/internal/dashboard"
	"github.com/steveyegge/bizzy/internal/engine"
	"github.com/steveyegge/bizzy/internal/ledger"
	"github.com/steveyegge/bizzy/internal/mapper"
	"github.com/steveyegge/bizzy/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for beads changes and auto-sync",
	Long: `Run a long-lived watcher that re-syncs whenever the beads database
changes.

Watch mode always includes closed issues so closures propagate to the
board's Done column. --events-port serves sync events over WebSocket for
dashboards or scripts that want to follow syncs live.`,
	Run: func(cmd *cobra.Command, args []string) {
		eventsPort, _ := cmd.Flags().GetInt("events-port")
		logFile, _ := cmd.Flags().GetString("log-file")
		poll, _ := cmd.Flags().GetDuration("poll")

		cfg := loadConfig()
		requireToken(cfg)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		beadsDir := filepath.Join(cfg.Beads.Path, ".beads")
		dbPath := filepath.Join(beadsDir, "beads.db")
		if _, err := os.Stat(dbPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Beads database not found at %s\n", dbPath)
			os.Exit(1)
		}

		var logOut io.Writer = os.Stderr
		if logFile != "" {
			// Rotate so an always-on watcher cannot fill the disk.
			logOut = &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}
		}
		logger := log.New(logOut, "[watch] ", log.LstdFlags)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		var (
			eventServer *dashboard.Server
			handler     *dashboard.Handler
		)
		if eventsPort > 0 {
			eventServer = dashboard.NewServer(&dashboard.Config{Port: eventsPort, Logger: logger})
			if err := eventServer.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer func() {
				if err := eventServer.Stop(); err != nil {
					logger.Printf("Event server stop: %v", err)
				}
			}()
			handler = dashboard.NewHandler(eventServer, logger)
		}

		reader, err := beads.Open(cfg.Beads.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer reader.Close()

		state, err := ledger.Load(ledger.DefaultPath(cfg.Beads.Path))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		engineCfg := engine.Config{
			BoardID:           cfg.Board.ID,
			AutoCreateColumns: cfg.Sync.AutoCreateColumns,
			PriorityAsTag:     cfg.Sync.PriorityAsTag,
			TypeAsTag:         cfg.Sync.TypeAsTag,
			Logger:            logger,
		}
		if handler != nil {
			engineCfg.OnOutcome = handler.OnOutcome
		}
		syncer := engine.New(engineCfg, newClient(cfg), reader, state, mapper.New(cfg.Columns))

		// Closed issues always sync in watch mode so closures reach Done.
		run := func(ctx context.Context) error {
			start := time.Now()
			if handler != nil {
				handler.OnSyncStarted(true, false)
			}
			result, err := syncer.SyncAll(ctx, true, false)
			if err != nil {
				return err
			}
			if handler != nil {
				handler.OnSyncComplete(result, time.Since(start))
			}
			if result.Created+result.Updated > 0 || verbose {
				fmt.Println(ui.RenderPass(fmt.Sprintf("  Synced: %d created, %d updated, %d skipped",
					result.Created, result.Updated, result.Skipped)))
			}
			if len(result.Errors) > 0 {
				fmt.Println(ui.RenderFail(fmt.Sprintf("  Errors: %d", len(result.Errors))))
			}
			return nil
		}

		fmt.Println(ui.RenderAccent("Watching for beads changes..."))
		fmt.Printf("  Database: %s\n", dbPath)
		if eventServer != nil {
			fmt.Printf("  Events: ws://%s/ws\n", eventServer.Addr())
		}
		fmt.Println("  Press Ctrl+C to stop")
		fmt.Println()

		d, err := daemon.NewWithConfig(beadsDir, run, &daemon.Config{
			PollInterval: poll,
			Logger:       logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(ui.RenderDim("Running initial sync..."))
		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s\n", ui.RenderWarn("Watch stopped."))
	},
}

func init() {
	watchCmd.Flags().Int("events-port", 0, "Serve sync events over WebSocket on this port")
	watchCmd.Flags().String("log-file", "", "Write watch logs to a rotating file instead of stderr")
	watchCmd.Flags().Duration("poll", 0, "Poll for changes at this interval instead of using file notifications")
	rootCmd.AddCommand(watchCmd)
}
