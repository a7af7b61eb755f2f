package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/bizzy/internal/config"
	"github.com/steveyegge/bizzy/internal/fizzy"
	"github.com/steveyegge/bizzy/internal/ui"
)

// authReport is what verifyAuth learned about the token, the account, and
// the configured board.
type authReport struct {
	UserName    string
	UserEmail   string
	AccountName string
	AccountSlug string
	BoardName   string
	BoardID     string
	BoardError  string
}

// verifyAuth checks the token against the identity endpoint and, when a
// board is configured, board access. A board failure lands in the report;
// only identity failures return an error.
func verifyAuth(ctx context.Context, cfg *config.Config, client *fizzy.Client) (*authReport, error) {
	identity, err := client.GetIdentity(ctx)
	if err != nil {
		return nil, err
	}

	report := &authReport{}
	for _, account := range identity.Accounts {
		// Server versions differ on whether slugs carry a leading slash.
		if strings.TrimLeft(account.Slug, "/") == cfg.Fizzy.AccountSlug {
			report.UserName = account.User.Name
			report.UserEmail = account.User.Email
			report.AccountName = account.Name
			report.AccountSlug = account.Slug
			break
		}
	}

	if cfg.Board.ID != "" {
		board, err := client.GetBoard(ctx, cfg.Board.ID)
		if err != nil {
			report.BoardError = fmt.Sprintf("Board access: %v", err)
		} else {
			report.BoardName = board.Name
			report.BoardID = cfg.Board.ID
		}
	}

	return report, nil
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Test the API connection",
	Long: `Verify the configured API token against the Fizzy server.

Reports the matching account and user, and checks that the configured
board is reachable.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		requireToken(cfg)

		client := newClient(cfg)
		report, err := verifyAuth(context.Background(), cfg, client)
		if err != nil {
			var apiErr *fizzy.APIError
			if errors.As(err, &apiErr) {
				fmt.Fprintf(os.Stderr, "%s Auth failed: HTTP %d\n", ui.RenderFail("✗"), apiErr.StatusCode)
				fmt.Fprintf(os.Stderr, "Check your API token.\n")
			} else {
				fmt.Fprintf(os.Stderr, "%s Connection failed: %v\n", ui.RenderFail("✗"), err)
			}
			os.Exit(1)
		}

		fmt.Printf("%s Connected!\n", ui.RenderPass("✓"))
		fmt.Printf("  Token: %s\n", maskToken(cfg.Fizzy.APIToken))
		if report.UserName != "" {
			fmt.Printf("  User: %s (%s)\n", report.UserName, report.UserEmail)
			fmt.Printf("  Account: %s (%s)\n", report.AccountName, report.AccountSlug)
		}
		if report.BoardName != "" {
			fmt.Printf("  Board: %s (%s)\n", report.BoardName, report.BoardID)
		} else if report.BoardError != "" {
			fmt.Printf("  %s %s\n", ui.RenderWarn("⚠"), report.BoardError)
		}
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
