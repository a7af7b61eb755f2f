package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"unicode"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/bizzy/internal/config"
	"github.com/steveyegge/bizzy/internal/fizzy"
	"github.com/steveyegge/bizzy/internal/mapper"
	"github.com/steveyegge/bizzy/internal/ui"
)

// The two server choices the wizard offers. The config default stays a
// plain localhost URL; these are what the wizard suggests.
const (
	hostedBaseURL     = "https://app.fizzy.do"
	selfHostedBaseURL = "http://fizzy.localhost:3006"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long: `Walk through complete Bizzy configuration: server, API token, account,
board, and token storage. Recommended for first-time setup.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		runWizard(force)
	},
}

func init() {
	wizardCmd.Flags().Bool("force", false, "Overwrite existing config")
	rootCmd.AddCommand(wizardCmd)
}

// ask runs one prompt and reports whether the wizard should continue.
// Ctrl+C inside any prompt cancels the whole wizard.
func ask(field interface{ Run() error }) bool {
	if err := field.Run(); err != nil {
		fmt.Println("\nWizard cancelled.")
		return false
	}
	return true
}

func runWizard(force bool) {
	fmt.Printf("\n%s\n", ui.RenderAccent("Bizzy Setup Wizard"))
	fmt.Println(ui.RenderDim("Connect Beads issues to your Fizzy kanban board"))

	if !wizardPrecheck() {
		return
	}

	if _, err := os.Stat(config.File); err == nil && !force {
		fmt.Printf("\n%s\n", ui.RenderWarn("Config file already exists: "+config.File))
		overwrite := false
		if !ask(huh.NewConfirm().Title("Overwrite?").Value(&overwrite)) {
			return
		}
		if !overwrite {
			fmt.Println("Wizard cancelled.")
			return
		}
	}

	ctx := context.Background()

	// Step 1: server.
	fmt.Printf("\n%s\n", ui.RenderAccent("Step 1: Where is Fizzy running?"))

	hosted := true
	if !ask(huh.NewSelect[bool]().
		Title("How are you accessing Fizzy?").
		Options(
			huh.NewOption("Hosted (app.fizzy.do) - the official cloud service", true),
			huh.NewOption("Self-hosted / local - running on your own server", false),
		).
		Value(&hosted)) {
		return
	}

	baseURL := hostedBaseURL
	if !hosted {
		baseURL = selfHostedBaseURL
		if !ask(huh.NewInput().
			Title("Fizzy URL").
			Description("Your Fizzy server, e.g. http://fizzy.localhost:3006").
			Value(&baseURL)) {
			return
		}
	}
	fmt.Println(ui.RenderPass("✓ Using Fizzy at " + baseURL))

	// Step 2: token.
	fmt.Printf("\n%s\n", ui.RenderAccent("Step 2: Get your API token"))
	fmt.Print(`
To create a token:

  1. Log in to Fizzy
  2. Open the Fizzy menu and pick Personal settings
  3. Scroll down to Access tokens
  4. Create a token named something like "Bizzy Sync"
  5. Copy it immediately, it is not shown again

`)

	var token string
	if !ask(huh.NewInput().
		Title("API token").
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("token is required to continue")
			}
			return nil
		}).
		Value(&token)) {
		return
	}
	token = strings.TrimSpace(token)

	fmt.Println(ui.RenderDim("Validating token..."))
	identity, err := fizzy.New(baseURL, "", token).GetIdentity(ctx)
	if err != nil {
		var apiErr *fizzy.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
			fmt.Println(ui.RenderFail("✗ Invalid token! Please check and try again."))
		case errors.As(err, &apiErr):
			fmt.Println(ui.RenderFail(fmt.Sprintf("✗ API error: %d", apiErr.StatusCode)))
		default:
			fmt.Println(ui.RenderFail(fmt.Sprintf("✗ Connection failed: %v", err)))
			fmt.Println(ui.RenderDim("Could not connect to " + baseURL))
		}
		return
	}
	if len(identity.Accounts) == 0 {
		fmt.Println(ui.RenderFail("✗ Token valid but no accounts found!"))
		fmt.Println("Make sure you have access to at least one Fizzy account.")
		return
	}
	fmt.Println(ui.RenderPass(fmt.Sprintf("✓ Token valid! Found %d account(s)", len(identity.Accounts))))

	// Step 3: account.
	fmt.Printf("\n%s\n", ui.RenderAccent("Step 3: Select account"))

	account := identity.Accounts[0]
	if len(identity.Accounts) == 1 {
		fmt.Println(ui.RenderPass(fmt.Sprintf("✓ Using account: %s (%s)", account.Name, account.Slug)))
	} else {
		options := make([]huh.Option[int], len(identity.Accounts))
		for i, a := range identity.Accounts {
			options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", a.Name, a.Slug), i)
		}
		var choice int
		if !ask(huh.NewSelect[int]().Title("Select an account").Options(options...).Value(&choice)) {
			return
		}
		account = identity.Accounts[choice]
		fmt.Println(ui.RenderPass("✓ Selected: " + account.Name))
	}
	accountSlug := strings.TrimLeft(account.Slug, "/")

	// Step 4: board.
	fmt.Printf("\n%s\n", ui.RenderAccent("Step 4: Select or create board"))

	client := fizzy.New(baseURL, accountSlug, token)
	boards, err := client.ListBoards(ctx)
	if err != nil {
		fmt.Println(ui.RenderFail(fmt.Sprintf("✗ Could not fetch boards: %v", err)))
		return
	}

	options := []huh.Option[int]{huh.NewOption("[Create a new board]", -1)}
	for i, b := range boards {
		options = append(options, huh.NewOption(b.Name, i))
	}
	choice := -1
	if !ask(huh.NewSelect[int]().Title("Select a board or create new").Options(options...).Value(&choice)) {
		return
	}

	var boardID string
	if choice < 0 {
		boardName := defaultBoardName()
		if !ask(huh.NewInput().Title("New board name").Value(&boardName)) {
			return
		}
		board, err := client.CreateBoard(ctx, boardName)
		if err != nil {
			fmt.Println(ui.RenderFail(fmt.Sprintf("✗ Could not create board: %v", err)))
			return
		}
		if board.ID == "" {
			fmt.Println(ui.RenderFail("✗ Could not create board: no board ID in response"))
			return
		}
		boardID = board.ID
		fmt.Println(ui.RenderPass("✓ Created board: " + boardName))

		// Only Doing and Blocked need creating. Fizzy's built-in inbox
		// holds open issues and built-in Done takes closures.
		fmt.Println(ui.RenderDim("Setting up columns (Doing, Blocked)..."))
		if err := addMissingColumns(ctx, client, boardID); err != nil {
			fmt.Println(ui.RenderFail(fmt.Sprintf("✗ Could not set up columns: %v", err)))
			return
		}
		fmt.Println(ui.RenderPass("✓ Columns configured"))
		fmt.Println(ui.RenderDim("  'open' issues stay in Maybe? (backlog), 'closed' issues land in Done"))
	} else {
		board := boards[choice]
		boardID = board.ID
		fmt.Println(ui.RenderPass("✓ Selected board: " + board.Name))

		columns, err := client.ListColumns(ctx, boardID)
		if err != nil {
			fmt.Println(ui.RenderFail(fmt.Sprintf("✗ Could not fetch columns: %v", err)))
			return
		}
		if missing := missingWorkColumns(columns); len(missing) > 0 {
			fmt.Printf("\n%s\n", ui.RenderWarn("Board is missing columns: "+strings.Join(missing, ", ")))
			add := true
			if !ask(huh.NewConfirm().Title("Add missing columns?").Value(&add)) {
				return
			}
			if add {
				if err := addMissingColumns(ctx, client, boardID); err != nil {
					fmt.Println(ui.RenderFail(fmt.Sprintf("✗ Could not add columns: %v", err)))
					return
				}
				fmt.Println(ui.RenderPass("✓ Added missing columns"))
			}
		}
	}

	// Step 5: token storage.
	fmt.Printf("\n%s\n", ui.RenderAccent("Step 5: How to store your token?"))

	useEnv := true
	if !ask(huh.NewSelect[bool]().
		Title("How would you like to store your API token?").
		Options(
			huh.NewOption("Environment variable (recommended) - more secure", true),
			huh.NewOption("Directly in config file - simpler but less secure", false),
		).
		Value(&useEnv)) {
		return
	}

	tokenValue := token
	if useEnv {
		tokenValue = "${FIZZY_API_TOKEN}"
		fmt.Println(ui.RenderPass("✓ Token will be read from the FIZZY_API_TOKEN environment variable"))
		fmt.Printf("\n%s\n\n", ui.RenderWarn("Add this to your shell profile (.bashrc, .zshrc, etc.):"))
		fmt.Printf("  export FIZZY_API_TOKEN=%q\n", token)
	} else {
		fmt.Printf("\n%s\n", ui.RenderWarn("⚠ Token will be stored in plain text in "+config.File))
		fmt.Println(ui.RenderDim("Consider adding " + config.File + " to .gitignore"))
	}

	// Step 6: write config.
	fmt.Printf("\n%s\n", ui.RenderAccent("Step 6: Save configuration"))

	cfg := config.Default()
	cfg.Fizzy.BaseURL = baseURL
	cfg.Fizzy.AccountSlug = accountSlug
	cfg.Fizzy.APIToken = tokenValue
	cfg.Board.ID = boardID
	cfg.Columns = mapper.DefaultColumns()

	if err := config.Save(cfg, config.File); err != nil {
		fmt.Println(ui.RenderFail(fmt.Sprintf("✗ %v", err)))
		return
	}
	fmt.Println(ui.RenderPass("✓ Configuration saved to " + config.File))

	fmt.Printf("\n%s\n", ui.RenderPass("Setup complete!"))

	// The user may have run bd init in another terminal mid-wizard.
	if _, err := os.Stat(filepath.Join(".beads", "beads.db")); err == nil {
		fmt.Printf("\n%s\n", ui.RenderAccent("Ready to start syncing!"))
		startWatch := true
		if !ask(huh.NewConfirm().Title("Start watching for changes now?").Value(&startWatch)) {
			return
		}
		if startWatch {
			if useEnv {
				fmt.Println(ui.RenderDim("Tip: add this to your shell profile for future sessions:"))
				fmt.Printf("  export FIZZY_API_TOKEN=%q\n\n", token)
			}
			startBackgroundWatcher(token, useEnv)
			return
		}
	}

	if useEnv {
		fmt.Printf("\n%s\n\n", ui.RenderWarn("Before running Bizzy, set your token:"))
		fmt.Printf("  export FIZZY_API_TOKEN=%q\n", token)
	}
	fmt.Printf("\n%s\n\n", ui.RenderAccent("Next step: start watching"))
	fmt.Println("  bizzy watch")
	fmt.Println()
	fmt.Println(ui.RenderDim("Bizzy will automatically sync your Beads issues to Fizzy!"))
}

// wizardPrecheck warns when beads is not initialized. Returns false when
// the user chooses to stop and set beads up first.
func wizardPrecheck() bool {
	if _, err := os.Stat(filepath.Join(".beads", "beads.db")); err == nil {
		return true
	}

	bdInstalled := false
	if _, err := exec.LookPath("bd"); err == nil {
		bdInstalled = true
	}

	fmt.Printf("\n%s\n", ui.RenderWarn("⚠ Beads is not initialized in this directory!"))
	fmt.Println(ui.RenderDim("Bizzy syncs issues from Beads to Fizzy. You need Beads set up"))
	fmt.Println(ui.RenderDim("first so there's something to sync."))
	fmt.Println()
	if bdInstalled {
		fmt.Println("Initialize Beads in your project:")
	} else {
		fmt.Println("Install the bd CLI, then initialize Beads in your project:")
	}
	fmt.Println()
	fmt.Println("  bd init")
	fmt.Println()
	fmt.Println(ui.RenderDim("Then run this wizard again."))

	cont := false
	if err := huh.NewConfirm().Title("Continue anyway?").Value(&cont).Run(); err != nil || !cont {
		if bdInstalled {
			fmt.Println("Run bd init first, then come back!")
		} else {
			fmt.Println("Install Beads first, then come back!")
		}
		return false
	}
	fmt.Println(ui.RenderDim("Continuing without Beads... (you'll need to set it up before syncing)"))
	return true
}

// missingWorkColumns returns the bootstrap columns absent from the board.
// Matching is case-insensitive so an existing "doing" column counts.
func missingWorkColumns(columns []fizzy.Column) []string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[strings.ToLower(c.Name)] = true
	}
	var missing []string
	for _, name := range mapper.New(nil).WorkColumns() {
		if !have[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	return missing
}

// addMissingColumns creates whichever work columns the board lacks.
func addMissingColumns(ctx context.Context, client *fizzy.Client, boardID string) error {
	columns, err := client.ListColumns(ctx, boardID)
	if err != nil {
		return err
	}
	for _, name := range missingWorkColumns(columns) {
		if _, err := client.CreateColumn(ctx, boardID, name, mapper.ColorForColumn(name)); err != nil {
			return err
		}
	}
	return nil
}

// defaultBoardName derives a board name from the working directory:
// "my-cool-project" becomes "My Cool Project".
func defaultBoardName() string {
	wd, err := os.Getwd()
	if err != nil {
		return "My Board"
	}
	name := strings.NewReplacer("-", " ", "_", " ").Replace(filepath.Base(wd))
	words := strings.Fields(name)
	if len(words) == 0 {
		return "My Board"
	}
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// startBackgroundWatcher spawns `bizzy watch` detached from this terminal.
// When the token lives in an environment variable the child gets it
// injected, since the user's shell has not exported it yet.
func startBackgroundWatcher(token string, injectToken bool) {
	exe, err := os.Executable()
	if err != nil {
		fmt.Println(ui.RenderFail(fmt.Sprintf("Failed to start background watcher: %v", err)))
		fmt.Println(ui.RenderDim("Run manually with: bizzy watch"))
		return
	}

	cmd := exec.Command(exe, "watch")
	cmd.Env = os.Environ()
	if injectToken {
		cmd.Env = append(cmd.Env, "FIZZY_API_TOKEN="+token)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		fmt.Println(ui.RenderFail(fmt.Sprintf("Failed to start background watcher: %v", err)))
		fmt.Println(ui.RenderDim("Run manually with: bizzy watch"))
		return
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	fmt.Println(ui.RenderPass(fmt.Sprintf("✓ Watcher started in background (PID: %d)", pid)))
	fmt.Println(ui.RenderDim(fmt.Sprintf("  Stop with: kill %d", pid)))
	fmt.Println(ui.RenderDim("  View logs: bizzy watch (foreground)"))
}
