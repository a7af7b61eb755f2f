// Command bizzy syncs Beads issues one way onto a Fizzy kanban board.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/bizzy/internal/config"
	"github.com/steveyegge/bizzy/internal/fizzy"
)

var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:     "bizzy",
	Short:   "Sync Beads issues to Fizzy kanban boards",
	Version: version,
	Long: `Bizzy mirrors Beads issues onto a Fizzy kanban board.

The sync is one-way: bd stays the source of truth, and board edits are
never written back. Each card carries a [beads:ID] marker in its
description so repeated syncs find their cards again.

Start with 'bizzy wizard' for guided first-time setup, then 'bizzy sync'
for one-off batches or 'bizzy watch' to sync continuously.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: nearest .fizzy-sync.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file and exits with guidance when there
// is none. Commands that cannot run unconfigured call this first.
func loadConfig() *config.Config {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Run 'bizzy wizard' or 'bizzy init' to create one.\n")
		}
		os.Exit(1)
	}
	return cfg
}

func requireToken(cfg *config.Config) {
	if cfg.Fizzy.APIToken == "" {
		fmt.Fprintf(os.Stderr, "Error: API token not set\n")
		fmt.Fprintf(os.Stderr, "Set the FIZZY_API_TOKEN environment variable.\n")
		os.Exit(1)
	}
}

func newClient(cfg *config.Config) *fizzy.Client {
	return fizzy.New(cfg.Fizzy.BaseURL, cfg.Fizzy.AccountSlug, cfg.Fizzy.APIToken)
}

// outputJSON writes v as pretty-printed JSON to stdout.
func outputJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// maskToken returns a display form of an API token that keeps only the
// first and last four characters.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
