package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/steveyegge/bizzy/internal/beads"
	"github.com/steveyegge/bizzy/internal/engine"
	"github.com/steveyegge/bizzy/internal/ledger"
	"github.com/steveyegge/bizzy/internal/mapper"
	"github.com/steveyegge/bizzy/internal/ui"
)

// syncReport is the --json document for a batch sync.
type syncReport struct {
	Success      bool             `json:"success"`
	Stats        syncStats        `json:"stats"`
	ErrorDetails []engine.Outcome `json:"error_details,omitempty"`
	LastSync     string           `json:"last_sync,omitempty"`
}

// syncStats mirrors engine.Result with the errors flattened to a count.
type syncStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// parseSince resolves a --since expression to an instant. Absolute stamps
// are tried first; anything else goes through the natural-language parser,
// so "yesterday" and "2 hours ago" work.
func parseSince(expr string, now time.Time) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, expr); err == nil {
			return t, nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(expr, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", expr, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("unrecognized time expression %q", expr)
	}
	return result.Time, nil
}

// openIssues filters out closed issues, matching what a listing without
// include-closed would have returned.
func openIssues(issues []*beads.Issue) []*beads.Issue {
	var open []*beads.Issue
	for _, issue := range issues {
		if issue.Status != beads.StatusClosed {
			open = append(open, issue)
		}
	}
	return open
}

// syncSingle syncs one issue by ID and prints the outcome.
func syncSingle(ctx context.Context, syncer engine.Syncer, reader *beads.Reader, issueID string, dryRun bool) {
	issue, err := reader.GetIssue(ctx, issueID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if issue == nil {
		fmt.Fprintf(os.Stderr, "Error: issue %s not found\n", issueID)
		os.Exit(1)
	}

	if dryRun {
		fmt.Printf("%s Would sync %s\n", ui.RenderWarn("Dry run:"), issueID)
		return
	}

	// Column placement needs the cache even for a single card.
	if err := syncer.EnsureColumns(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	outcome := syncer.SyncIssue(ctx, issue, false)
	switch {
	case outcome.Action == engine.ActionError:
		fmt.Fprintf(os.Stderr, "Error: %s\n", outcome.Error)
		os.Exit(1)
	case outcome.CardNumber != 0:
		fmt.Println(ui.RenderPass(fmt.Sprintf("Synced %s → Card #%d", outcome.IssueID, outcome.CardNumber)))
	default:
		fmt.Println(ui.RenderPass(fmt.Sprintf("Synced %s (%s)", outcome.IssueID, outcome.Reason)))
	}
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync Beads issues to Fizzy",
	Long: `Push Beads issues to the configured Fizzy board.

Issues whose content has not changed since their last sync are skipped.
Closed issues are excluded unless --include-closed is set or the config
enables sync.include_closed.`,
	Run: func(cmd *cobra.Command, args []string) {
		issueID, _ := cmd.Flags().GetString("issue")
		includeClosed, _ := cmd.Flags().GetBool("include-closed")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		sinceExpr, _ := cmd.Flags().GetString("since")
		jsonOut, _ := cmd.Flags().GetBool("json")

		cfg := loadConfig()
		requireToken(cfg)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
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

		syncer := engine.New(engine.Config{
			BoardID:           cfg.Board.ID,
			AutoCreateColumns: cfg.Sync.AutoCreateColumns,
			PriorityAsTag:     cfg.Sync.PriorityAsTag,
			TypeAsTag:         cfg.Sync.TypeAsTag,
		}, newClient(cfg), reader, state, mapper.New(cfg.Columns))

		ctx := context.Background()

		if issueID != "" {
			syncSingle(ctx, syncer, reader, issueID, dryRun)
			return
		}

		includeClosed = includeClosed || cfg.Sync.IncludeClosed

		var since time.Time
		if sinceExpr != "" {
			since, err = parseSince(sinceExpr, time.Now())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		if !jsonOut {
			if dryRun {
				fmt.Println(ui.RenderWarn("Dry run mode"))
			}
			if sinceExpr != "" {
				fmt.Printf("Syncing issues changed since %s...\n", since.Format(time.RFC3339))
			} else {
				fmt.Println("Syncing issues to Fizzy...")
			}
		}

		var result *engine.Result
		if sinceExpr != "" {
			issues, err := reader.ChangedSince(ctx, since)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !includeClosed {
				issues = openIssues(issues)
			}
			result, err = syncer.SyncBatch(ctx, issues, dryRun)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		} else {
			result, err = syncer.SyncAll(ctx, includeClosed, dryRun)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		if jsonOut {
			report := syncReport{
				Success: len(result.Errors) == 0,
				Stats: syncStats{
					Created: result.Created,
					Updated: result.Updated,
					Skipped: result.Skipped,
					Errors:  len(result.Errors),
				},
				ErrorDetails: result.Errors,
			}
			if last := state.LastSync(); last != nil {
				report.LastSync = last.Format(time.RFC3339)
			}
			outputJSON(report)
			if !report.Success {
				os.Exit(1)
			}
			return
		}

		verb := "Synced"
		if dryRun {
			verb = "Would sync"
		}
		total := result.Created + result.Updated
		fmt.Printf("\n%s\n", ui.RenderPass(fmt.Sprintf("%s %d issues", verb, total)))
		fmt.Printf("  Created: %d\n", result.Created)
		fmt.Printf("  Updated: %d\n", result.Updated)
		fmt.Printf("  Skipped: %d\n", result.Skipped)

		if len(result.Errors) > 0 {
			fmt.Printf("\n%s\n", ui.RenderFail(fmt.Sprintf("Errors: %d", len(result.Errors))))
			shown := result.Errors
			if len(shown) > 5 {
				shown = shown[:5]
			}
			for _, outcome := range shown {
				fmt.Printf("  - %s: %s\n", outcome.IssueID, outcome.Error)
			}
			os.Exit(1)
		}
	},
}

func init() {
	syncCmd.Flags().String("issue", "", "Sync a specific issue by ID")
	syncCmd.Flags().Bool("include-closed", false, "Include closed issues")
	syncCmd.Flags().Bool("dry-run", false, "Show what would happen without making changes")
	syncCmd.Flags().String("since", "", "Only sync issues updated since this time (RFC 3339, date, or natural language)")
	syncCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(syncCmd)
}
