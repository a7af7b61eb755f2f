package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/bizzy/internal/beads"
	"github.com/steveyegge/bizzy/internal/engine"
	"github.com/steveyegge/bizzy/internal/ledger"
	"github.com/steveyegge/bizzy/internal/ui"
)

// statusInfo is the data behind `bizzy status`.
type statusInfo struct {
	OpenIssues  int    `json:"open_issues"`
	TotalIssues int    `json:"total_issues"`
	SyncedCount int    `json:"synced_count"`
	LastSync    string `json:"last_sync,omitempty"`
	PendingSync int    `json:"pending_sync"`
}

// getStatus gathers sync status. Everything comes from the beads database
// and the ledger; no API calls are made.
func getStatus(ctx context.Context, reader engine.Reader, state *ledger.Ledger) (*statusInfo, error) {
	open, err := reader.ListIssues(ctx, false)
	if err != nil {
		return nil, err
	}
	all, err := reader.ListIssues(ctx, true)
	if err != nil {
		return nil, err
	}

	info := &statusInfo{
		OpenIssues:  len(open),
		TotalIssues: len(all),
		SyncedCount: state.Count(),
	}
	if last := state.LastSync(); last != nil {
		info.LastSync = last.Format(time.RFC3339)
	}

	// An issue is pending when its current checksum differs from the one
	// recorded at its last sync, including issues never synced at all.
	for _, issue := range open {
		checksum, err := engine.Checksum(issue)
		if err != nil {
			continue
		}
		if stored, ok := state.ChecksumFor(issue.ID); !ok || stored != checksum {
			info.PendingSync++
		}
	}

	return info, nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long: `Show issue counts and sync state for this project.

Pending counts issues whose content changed since their last sync. The
command is entirely local and never contacts the Fizzy server.`,
	Run: func(cmd *cobra.Command, args []string) {
		jsonOut, _ := cmd.Flags().GetBool("json")

		cfg := loadConfig()

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

		info, err := getStatus(context.Background(), reader, state)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOut {
			outputJSON(info)
			return
		}

		fmt.Printf("\n%s\n", ui.RenderAccent("Beads Status"))
		fmt.Printf("  Open issues: %d\n", info.OpenIssues)
		fmt.Printf("  Total issues: %d\n", info.TotalIssues)

		fmt.Printf("\n%s\n", ui.RenderAccent("Sync Status"))
		fmt.Printf("  Synced to Fizzy: %d\n", info.SyncedCount)
		lastSync := info.LastSync
		if lastSync == "" {
			lastSync = "Never"
		}
		fmt.Printf("  Last sync: %s\n", lastSync)

		if info.PendingSync > 0 {
			fmt.Printf("  %s\n", ui.RenderWarn(fmt.Sprintf("Pending sync: %d issues", info.PendingSync)))
		}
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd)
}
