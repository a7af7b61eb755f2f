package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/bizzy/internal/config"
	"github.com/steveyegge/bizzy/internal/ui"
)

// initResult reports what initConfig did, kept separate from printing so
// tests can drive the logic directly.
type initResult struct {
	path          string
	alreadyExists bool
}

// initConfig writes the starter config template unless one already exists.
func initConfig(path string, force bool) (initResult, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return initResult{path: path, alreadyExists: true}, nil
	}
	if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
		return initResult{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return initResult{path: path}, nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .fizzy-sync.yml config file",
	Long: `Write a commented starter config to ./.fizzy-sync.yml.

The template leaves account and board placeholders to fill in by hand.
For guided setup that fills them in automatically, run 'bizzy wizard'.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		result, err := initConfig(config.File, force)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if result.alreadyExists {
			fmt.Printf("%s Config file already exists!\n", ui.RenderWarn("⚠"))
			fmt.Println("Use --force to overwrite.")
			return
		}

		fmt.Printf("%s Created %s\n", ui.RenderPass("✓"), result.path)
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Set FIZZY_API_TOKEN environment variable")
		fmt.Println("  2. Run: bizzy auth")
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config")
	rootCmd.AddCommand(initCmd)
}
