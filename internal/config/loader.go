package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no config file exists. The CLI turns it into
// a pointer at `bizzy init`.
var ErrNotFound = errors.New("no " + File + " found")

// envPattern matches ${VAR} references. Unset variables expand to the empty
// string, so a config can reference FIZZY_API_TOKEN without requiring it.
var envPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// Discover walks from dir upward to the filesystem root looking for the
// config file. Returns "" when none is found.
func Discover(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, File)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve finds and loads the configuration. An explicit path wins;
// otherwise the file is discovered from the working directory.
func Resolve(explicit string) (*Config, error) {
	path := explicit
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		path = Discover(cwd)
		if path == "" {
			return nil, ErrNotFound
		}
	}
	return Load(path)
}

// Load reads the config file at path. ${VAR} references are expanded before
// parsing and BIZZY_-prefixed environment variables override file values.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := parse(expandEnv(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

func parse(raw []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix("BIZZY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every config key. Registration is what lets
// AutomaticEnv overrides reach Unmarshal for keys absent from the file.
func setDefaults(v *viper.Viper) {
	defaults := Default()
	v.SetDefault("fizzy.base_url", defaults.Fizzy.BaseURL)
	v.SetDefault("fizzy.account_slug", "")
	v.SetDefault("fizzy.api_token", "")
	v.SetDefault("board.id", "")
	v.SetDefault("sync.auto_triage", defaults.Sync.AutoTriage)
	v.SetDefault("sync.auto_create_columns", defaults.Sync.AutoCreateColumns)
	v.SetDefault("sync.include_closed", defaults.Sync.IncludeClosed)
	v.SetDefault("sync.priority_as_tag", defaults.Sync.PriorityAsTag)
	v.SetDefault("sync.type_as_tag", defaults.Sync.TypeAsTag)
	v.SetDefault("beads.path", defaults.Beads.Path)
}

func expandEnv(raw []byte) []byte {
	return envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Render returns the config as a YAML document with the generated-file
// header. Comments in a hand-edited file do not survive a rewrite.
func Render(cfg *Config) ([]byte, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	header := "# Fizzy-Beads Sync Configuration\n# Generated by the bizzy setup wizard\n\n"
	return append([]byte(header), body...), nil
}

// Save writes the config to path, replacing any existing file.
func Save(cfg *Config, path string) error {
	data, err := Render(cfg)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
