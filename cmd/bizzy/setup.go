package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/bizzy/internal/config"
	"github.com/steveyegge/bizzy/internal/fizzy"
	"github.com/steveyegge/bizzy/internal/mapper"
	"github.com/steveyegge/bizzy/internal/ui"
)

// setupResult reports what setup changed on the board.
type setupResult struct {
	BoardID         string
	BoardName       string
	ColumnsCreated  []string
	ColumnsDeleted  []string
	ColumnsExisting []string
}

type setupOptions struct {
	newBoard string
	reset    bool
	force    bool
}

// setupBoard prepares a board for sync: optionally creates it, optionally
// resets its columns, and creates the work columns that are missing.
// Setup always provisions the default Doing/Blocked pair; a custom column
// mapping is bootstrapped later by the sync engine itself.
func setupBoard(ctx context.Context, cfg *config.Config, client *fizzy.Client, opts setupOptions) (*setupResult, error) {
	result := &setupResult{BoardID: cfg.Board.ID}

	if opts.newBoard != "" {
		board, err := client.CreateBoard(ctx, opts.newBoard)
		if err != nil {
			return nil, fmt.Errorf("failed to create board: %w", err)
		}
		if board.ID == "" {
			return nil, errors.New("failed to create board: no board ID in response")
		}
		result.BoardID = board.ID
		result.BoardName = opts.newBoard
	} else {
		if result.BoardID == "" {
			return nil, errors.New("no board ID configured; use --new-board to create one")
		}
		board, err := client.GetBoard(ctx, result.BoardID)
		if err != nil {
			return nil, fmt.Errorf("board not found: %s", result.BoardID)
		}
		result.BoardName = board.Name
	}

	existing, err := client.ListColumns(ctx, result.BoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}

	if opts.reset || opts.newBoard != "" {
		if len(existing) > 0 && !opts.force {
			return nil, fmt.Errorf("would delete %d column(s); use --force to confirm", len(existing))
		}
		for _, column := range existing {
			// Delete failures are tolerated; the column just survives.
			if err := client.DeleteColumn(ctx, result.BoardID, column.ID); err != nil {
				continue
			}
			result.ColumnsDeleted = append(result.ColumnsDeleted, column.Name)
		}
	}

	for _, name := range mapper.New(nil).WorkColumns() {
		// Re-list before each create so a concurrent change cannot
		// produce duplicate columns.
		current, err := client.ListColumns(ctx, result.BoardID)
		if err != nil {
			return nil, fmt.Errorf("failed to list columns: %w", err)
		}
		found := false
		for _, column := range current {
			if column.Name == name {
				found = true
				break
			}
		}
		if found {
			result.ColumnsExisting = append(result.ColumnsExisting, name)
			continue
		}
		if _, err := client.CreateColumn(ctx, result.BoardID, name, mapper.ColorForColumn(name)); err != nil {
			return nil, fmt.Errorf("failed to create column %s: %w", name, err)
		}
		result.ColumnsCreated = append(result.ColumnsCreated, name)
	}

	return result, nil
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up a Fizzy board for Beads sync",
	Long: `Prepare a Fizzy board with the columns the sync uses.

Only the active work states need columns: Doing and Blocked. Open issues
stay in Fizzy's built-in Maybe? inbox and closed issues land in Done.

With --new-board, a fresh board is created and set up. With --reset, the
board's existing columns are deleted first; this refuses to run without
--force when columns would be lost.`,
	Run: func(cmd *cobra.Command, args []string) {
		newBoard, _ := cmd.Flags().GetString("new-board")
		reset, _ := cmd.Flags().GetBool("reset")
		force, _ := cmd.Flags().GetBool("force")

		cfg := loadConfig()
		requireToken(cfg)
		client := newClient(cfg)

		if newBoard != "" {
			fmt.Printf("Creating board: %s\n", newBoard)
		}

		result, err := setupBoard(context.Background(), cfg, client, setupOptions{
			newBoard: newBoard,
			reset:    reset,
			force:    force,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\nBoard: %s\n", result.BoardName)

		if len(result.ColumnsDeleted) > 0 {
			fmt.Println("\nRemoved columns:")
			for _, name := range result.ColumnsDeleted {
				fmt.Printf("  %s\n", ui.RenderDim("Deleted: "+name))
			}
		}

		fmt.Println("\nBeads columns:")
		for _, name := range result.ColumnsExisting {
			fmt.Printf("  %s\n", ui.RenderDim(name+" (already exists)"))
		}
		for _, name := range result.ColumnsCreated {
			fmt.Printf("  %s\n", ui.RenderPass(name))
		}

		fmt.Printf("\n%s Board setup complete!\n", ui.RenderPass("✓"))
		if newBoard != "" {
			fmt.Printf("\n%s Don't forget to update %s:\n", ui.RenderWarn("⚠"), config.File)
			fmt.Println("  board:")
			fmt.Printf("    id: %q\n", result.BoardID)
		}
	},
}

func init() {
	setupCmd.Flags().String("new-board", "", "Create a new board with this name")
	setupCmd.Flags().Bool("reset", false, "Delete existing columns before creating Beads columns")
	setupCmd.Flags().Bool("force", false, "Skip the confirmation when deleting columns")
	rootCmd.AddCommand(setupCmd)
}
