package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, File)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Fizzy.BaseURL != "http://localhost:3000" {
		t.Errorf("BaseURL = %q, want the local development default", cfg.Fizzy.BaseURL)
	}
	if cfg.Beads.Path != "." {
		t.Errorf("Beads.Path = %q, want .", cfg.Beads.Path)
	}
	if !cfg.Sync.AutoTriage || !cfg.Sync.AutoCreateColumns || !cfg.Sync.PriorityAsTag || !cfg.Sync.TypeAsTag {
		t.Errorf("sync toggles = %+v, want all true except include_closed", cfg.Sync)
	}
	if cfg.Sync.IncludeClosed {
		t.Error("IncludeClosed defaults to true, want false")
	}
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
fizzy:
  base_url: https://fizzy.example.com
  account_slug: acme
  api_token: tok-abc
board:
  id: brd-1
columns:
  in_progress: WIP
  blocked: Stuck
sync:
  include_closed: true
  priority_as_tag: false
beads:
  path: ../project
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fizzy.BaseURL != "https://fizzy.example.com" || cfg.Fizzy.AccountSlug != "acme" || cfg.Fizzy.APIToken != "tok-abc" {
		t.Errorf("fizzy section = %+v", cfg.Fizzy)
	}
	if cfg.Board.ID != "brd-1" {
		t.Errorf("Board.ID = %q, want brd-1", cfg.Board.ID)
	}
	if cfg.Columns["in_progress"] != "WIP" || cfg.Columns["blocked"] != "Stuck" {
		t.Errorf("Columns = %v", cfg.Columns)
	}
	if !cfg.Sync.IncludeClosed {
		t.Error("IncludeClosed not read from file")
	}
	if cfg.Sync.PriorityAsTag {
		t.Error("PriorityAsTag = true, file says false")
	}
	if cfg.Beads.Path != "../project" {
		t.Errorf("Beads.Path = %q", cfg.Beads.Path)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
fizzy:
  account_slug: acme
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fizzy.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default %q", cfg.Fizzy.BaseURL, DefaultBaseURL)
	}
	if cfg.Beads.Path != "." {
		t.Errorf("Beads.Path = %q, want .", cfg.Beads.Path)
	}
	if !cfg.Sync.AutoCreateColumns {
		t.Error("AutoCreateColumns default missing")
	}
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	t.Setenv("BIZZY_TEST_TOKEN", "tok-from-env")
	path := writeConfig(t, t.TempDir(), `
fizzy:
  account_slug: acme
  api_token: ${BIZZY_TEST_TOKEN}
board:
  id: ${BIZZY_TEST_UNSET_VAR}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fizzy.APIToken != "tok-from-env" {
		t.Errorf("APIToken = %q, want the expanded value", cfg.Fizzy.APIToken)
	}
	// Unset references expand to empty, not an error.
	if cfg.Board.ID != "" {
		t.Errorf("Board.ID = %q, want empty for an unset variable", cfg.Board.ID)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("BIZZY_BOARD_ID", "brd-override")
	path := writeConfig(t, t.TempDir(), `
board:
  id: brd-file
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Board.ID != "brd-override" {
		t.Errorf("Board.ID = %q, want the BIZZY_BOARD_ID override", cfg.Board.ID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), File))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "fizzy: [unclosed")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() accepted malformed YAML")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestDiscoverNearestWins(t *testing.T) {
	root := t.TempDir()
	outer := writeConfig(t, root, "board:\n  id: outer\n")

	mid := filepath.Join(root, "a")
	deep := filepath.Join(mid, "b", "c")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := Discover(deep); got != outer {
		t.Errorf("Discover(%s) = %q, want %q", deep, got, outer)
	}

	inner := writeConfig(t, mid, "board:\n  id: inner\n")
	if got := Discover(deep); got != inner {
		t.Errorf("Discover(%s) = %q, want nearer %q", deep, got, inner)
	}
}

func TestValidate(t *testing.T) {
	complete := func() *Config {
		cfg := Default()
		cfg.Fizzy.AccountSlug = "acme"
		cfg.Fizzy.APIToken = "tok"
		cfg.Board.ID = "brd-1"
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"complete", func(c *Config) {}, ""},
		{"no slug", func(c *Config) { c.Fizzy.AccountSlug = "" }, "fizzy.account_slug"},
		{"placeholder slug", func(c *Config) { c.Fizzy.AccountSlug = "YOUR_ACCOUNT_SLUG" }, "fizzy.account_slug"},
		{"no token", func(c *Config) { c.Fizzy.APIToken = "" }, "fizzy.api_token"},
		{"no board", func(c *Config) { c.Board.ID = "" }, "board.id"},
		{"placeholder board", func(c *Config) { c.Board.ID = "YOUR_BOARD_ID" }, "board.id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := complete()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("Validate() error = %v, want MissingFieldError", err)
			}
			if missing.Field != tt.wantField {
				t.Errorf("missing field = %q, want %q", missing.Field, tt.wantField)
			}
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	cfg := Default()
	cfg.Fizzy.BaseURL = "https://app.fizzy.do"
	cfg.Fizzy.AccountSlug = "acme"
	cfg.Fizzy.APIToken = "${FIZZY_API_TOKEN}"
	cfg.Board.ID = "brd-1"
	cfg.Columns = map[string]string{"in_progress": "Doing", "blocked": "Blocked"}

	path := filepath.Join(t.TempDir(), File)
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "# Fizzy-Beads Sync Configuration") {
		t.Errorf("saved config missing the generated header:\n%s", raw)
	}

	t.Setenv("FIZZY_API_TOKEN", "tok-live")
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Fizzy.AccountSlug != "acme" || loaded.Board.ID != "brd-1" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	// The saved file keeps the ${FIZZY_API_TOKEN} reference rather than a
	// literal token; it resolves at load time.
	if loaded.Fizzy.APIToken != "tok-live" {
		t.Errorf("APIToken = %q, want the environment token", loaded.Fizzy.APIToken)
	}
	if loaded.Columns["in_progress"] != "Doing" {
		t.Errorf("Columns = %v", loaded.Columns)
	}
}

func TestTemplateParses(t *testing.T) {
	t.Setenv("FIZZY_API_TOKEN", "tok-123")
	path := filepath.Join(t.TempDir(), File)
	if err := os.WriteFile(path, []byte(Template), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fizzy.BaseURL != "https://app.fizzy.do" {
		t.Errorf("BaseURL = %q", cfg.Fizzy.BaseURL)
	}
	if cfg.Fizzy.APIToken != "tok-123" {
		t.Errorf("APIToken = %q, want the env expansion", cfg.Fizzy.APIToken)
	}
	if cfg.Columns["in_progress"] != "Doing" || cfg.Columns["blocked"] != "Blocked" {
		t.Errorf("Columns = %v", cfg.Columns)
	}

	// Placeholders keep the template from validating until filled in.
	var missing *MissingFieldError
	if err := cfg.Validate(); !errors.As(err, &missing) {
		t.Errorf("Validate() on the template = %v, want MissingFieldError", err)
	}
}
