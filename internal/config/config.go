// Package config handles workspace and global configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config represents workspace configuration stored in .crimedash/config.json.
type Config struct {
	DBPath string       `json:"db_path,omitempty"` // Relative paths resolve against the workspace root
	Sankey SankeyConfig `json:"sankey"`
}

// SankeyConfig holds the defaults for the flow diagram.
type SankeyConfig struct {
	Layers          []string `json:"layers"`
	ValueField      string   `json:"value_field"`
	StartYear       int      `json:"start_year"`
	EndYear         int      `json:"end_year"`
	TopN            int      `json:"top_n"`
	NamespaceLayers bool     `json:"namespace_layers,omitempty"`
}

const (
	WorkspaceDir = ".crimedash"
	ConfigFile   = "config.json"
	DBFile       = "crime.db"

	// EnvDB overrides the database path.
	EnvDB = "CDASH_DB"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Default returns the configuration written by `cdash init`.
func Default() *Config {
	return &Config{
		Sankey: SankeyConfig{
			Layers:     []string{"District", "Year", "Crime_Category"},
			ValueField: "Crime_Count",
			StartYear:  2020,
			EndYear:    2025,
			TopN:       3,
		},
	}
}

// WorkspacePath returns the path to the .crimedash directory from a root path.
func WorkspacePath(root string) string {
	return filepath.Join(root, WorkspaceDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, WorkspaceDir, ConfigFile)
}

// DefaultDBPath returns the path to crime.db from a root path.
func DefaultDBPath(root string) string {
	return filepath.Join(root, WorkspaceDir, DBFile)
}

// IsWorkspace checks if the given path contains a crimedash workspace.
func IsWorkspace(root string) bool {
	info, err := os.Stat(WorkspacePath(root))
	return err == nil && info.IsDir()
}

// FindWorkspace walks up from the given path to find a workspace.
// Returns the workspace root path or an error if not found.
func FindWorkspace(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsWorkspace(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a crimedash workspace (no %s directory found)", WorkspaceDir)
		}
		abs = parent
	}
}

// Init creates the workspace directory and a default config.json under root.
// An existing config is left untouched.
func Init(root string) (*Config, error) {
	if err := os.MkdirAll(WorkspacePath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating workspace directory: %w", err)
	}

	if _, err := os.Stat(ConfigPath(root)); err == nil {
		return Load(root)
	}

	cfg := Default()
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the workspace at the given root.
// Missing sankey fields are filled from Default.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the workspace at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks the flow diagram defaults.
func (c *Config) Validate() error {
	s := c.Sankey
	if len(s.Layers) < 2 {
		return fmt.Errorf("%w: sankey.layers needs at least two layers, got %d", ErrInvalidConfig, len(s.Layers))
	}
	for _, l := range s.Layers {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("%w: sankey.layers contains an empty name", ErrInvalidConfig)
		}
	}
	if s.ValueField == "" {
		return fmt.Errorf("%w: sankey.value_field is required", ErrInvalidConfig)
	}
	if s.StartYear > s.EndYear {
		return fmt.Errorf("%w: sankey.start_year %d is after end_year %d", ErrInvalidConfig, s.StartYear, s.EndYear)
	}
	if s.TopN < 1 {
		return fmt.Errorf("%w: sankey.top_n must be positive, got %d", ErrInvalidConfig, s.TopN)
	}
	return nil
}

// ResolveDBPath returns the database path for the workspace at root. The
// CDASH_DB environment variable wins over db_path, which wins over the
// default location. Relative paths resolve against root.
func (c *Config) ResolveDBPath(root string) string {
	path := os.Getenv(EnvDB)
	if path == "" {
		path = c.DBPath
	}
	if path == "" {
		return DefaultDBPath(root)
	}

	path = ExpandPath(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return path
}

// ParseLayers splits a comma-separated layer list, trimming blanks.
func ParseLayers(s string) []string {
	var layers []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			layers = append(layers, p)
		}
	}
	return layers
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
