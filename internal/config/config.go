// Package config loads and writes the .fizzy-sync.yml configuration.
//
// The file is discovered by walking from the working directory upward, so
// commands work from any subdirectory of the project. ${VAR} references are
// expanded from the environment before parsing; BIZZY_-prefixed environment
// variables override file values (BIZZY_BOARD_ID overrides board.id).
package config

// File is the canonical config file name.
const File = ".fizzy-sync.yml"

// DefaultBaseURL is used when fizzy.base_url is not set. Local development
// default; the hosted service is https://app.fizzy.do.
const DefaultBaseURL = "http://localhost:3000"

// Config is the full .fizzy-sync.yml document.
type Config struct {
	Fizzy   FizzySection      `yaml:"fizzy" mapstructure:"fizzy"`
	Board   BoardSection      `yaml:"board" mapstructure:"board"`
	Columns map[string]string `yaml:"columns" mapstructure:"columns"`
	Sync    SyncSection       `yaml:"sync" mapstructure:"sync"`
	Beads   BeadsSection      `yaml:"beads" mapstructure:"beads"`

	// Path is the file this config was loaded from. Empty for configs
	// built in memory (the wizard).
	Path string `yaml:"-" mapstructure:"-"`
}

// FizzySection identifies the Fizzy server and account.
type FizzySection struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	AccountSlug string `yaml:"account_slug" mapstructure:"account_slug"`
	APIToken    string `yaml:"api_token" mapstructure:"api_token"`
}

// BoardSection names the board cards are synced to.
type BoardSection struct {
	ID string `yaml:"id" mapstructure:"id"`
}

// SyncSection holds the sync behavior toggles.
type SyncSection struct {
	AutoTriage        bool `yaml:"auto_triage" mapstructure:"auto_triage"`
	AutoCreateColumns bool `yaml:"auto_create_columns" mapstructure:"auto_create_columns"`
	IncludeClosed     bool `yaml:"include_closed" mapstructure:"include_closed"`
	PriorityAsTag     bool `yaml:"priority_as_tag" mapstructure:"priority_as_tag"`
	TypeAsTag         bool `yaml:"type_as_tag" mapstructure:"type_as_tag"`
}

// BeadsSection locates the beads project.
type BeadsSection struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Default returns a config carrying every default value.
func Default() *Config {
	return &Config{
		Fizzy: FizzySection{BaseURL: DefaultBaseURL},
		Sync: SyncSection{
			AutoTriage:        true,
			AutoCreateColumns: true,
			IncludeClosed:     false,
			PriorityAsTag:     true,
			TypeAsTag:         true,
		},
		Beads: BeadsSection{Path: "."},
	}
}

// Validate checks the fields every sync-path command needs. The wizard and
// init run without a complete config, so validation is a separate step.
func (c *Config) Validate() error {
	if c.Fizzy.AccountSlug == "" || c.Fizzy.AccountSlug == "YOUR_ACCOUNT_SLUG" {
		return &MissingFieldError{Field: "fizzy.account_slug"}
	}
	if c.Fizzy.APIToken == "" {
		return &MissingFieldError{Field: "fizzy.api_token", Hint: "set FIZZY_API_TOKEN or edit the config"}
	}
	if c.Board.ID == "" || c.Board.ID == "YOUR_BOARD_ID" {
		return &MissingFieldError{Field: "board.id", Hint: "run 'bizzy setup' or 'bizzy wizard'"}
	}
	return nil
}

// MissingFieldError reports a required config field that is unset or still
// holds a template placeholder.
type MissingFieldError struct {
	Field string
	Hint  string
}

func (e *MissingFieldError) Error() string {
	if e.Hint != "" {
		return "config: " + e.Field + " is not set (" + e.Hint + ")"
	}
	return "config: " + e.Field + " is not set"
}

// Template is the commented starter config written by `bizzy init`.
const Template = `# Fizzy-Beads Sync Configuration
# TIP: Run 'bizzy wizard' for interactive setup that fills these automatically!

fizzy:
  base_url: https://app.fizzy.do  # Or your self-hosted URL
  account_slug: "YOUR_ACCOUNT_SLUG"  # Found in URL: fizzy.do/{slug}/boards/...
  api_token: ${FIZZY_API_TOKEN}  # Set via environment variable

board:
  id: "YOUR_BOARD_ID"  # Found in URL: fizzy.do/.../boards/{id}

# Column mapping (Beads status → Fizzy column name)
# - "open" stays in Maybe? (Fizzy's built-in inbox = your backlog)
# - "closed" goes to Done (Fizzy's built-in)
columns:
  in_progress: Doing
  blocked: Blocked

sync:
  auto_triage: true
  auto_create_columns: true
  include_closed: false
  priority_as_tag: true
  type_as_tag: true

beads:
  path: "."
`
