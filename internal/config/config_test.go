package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/data"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"WorkspacePath", WorkspacePath, "/test/data/.crimedash"},
		{"ConfigPath", ConfigPath, "/test/data/.crimedash/config.json"},
		{"DefaultDBPath", DefaultDBPath, "/test/data/.crimedash/crime.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestIsWorkspace(t *testing.T) {
	tmpDir := t.TempDir()

	if IsWorkspace(tmpDir) {
		t.Error("IsWorkspace() = true for plain directory")
	}

	if err := os.Mkdir(WorkspacePath(tmpDir), 0755); err != nil {
		t.Fatalf("Failed to create .crimedash: %v", err)
	}

	if !IsWorkspace(tmpDir) {
		t.Error("IsWorkspace() = false for workspace directory")
	}
}

func TestIsWorkspace_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(WorkspacePath(tmpDir), []byte("not a dir"), 0644); err != nil {
		t.Fatalf("Failed to create .crimedash file: %v", err)
	}

	if IsWorkspace(tmpDir) {
		t.Error("IsWorkspace() = true when .crimedash is a file")
	}
}

func TestFindWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "data")
	nested := filepath.Join(root, "exports", "2024")

	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("Failed to create nested dirs: %v", err)
	}
	if err := os.Mkdir(WorkspacePath(root), 0755); err != nil {
		t.Fatalf("Failed to create .crimedash: %v", err)
	}

	for _, start := range []string{nested, root} {
		found, err := FindWorkspace(start)
		if err != nil {
			t.Fatalf("FindWorkspace(%q) error = %v", start, err)
		}
		if found != root {
			t.Errorf("FindWorkspace(%q) = %q, want %q", start, found, root)
		}
	}
}

func TestFindWorkspace_NotFound(t *testing.T) {
	if _, err := FindWorkspace(t.TempDir()); err == nil {
		t.Error("FindWorkspace() should return error when no workspace found")
	}
}

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Init() = %+v, want defaults", cfg)
	}
	if !IsWorkspace(tmpDir) {
		t.Fatal("Init() did not create the workspace")
	}

	// A second Init keeps the edited config.
	cfg.Sankey.TopN = 7
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	again, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if again.Sankey.TopN != 7 {
		t.Errorf("TopN after re-init = %d, want 7", again.Sankey.TopN)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(WorkspacePath(tmpDir), 0755); err != nil {
		t.Fatalf("Failed to create .crimedash: %v", err)
	}

	cfg := &Config{
		DBPath: "data/crime.db",
		Sankey: SankeyConfig{
			Layers:          []string{"Year", "Crime_Category"},
			ValueField:      "Crime_Count",
			StartYear:       2021,
			EndYear:         2022,
			TopN:            5,
			NamespaceLayers: true,
		},
	}
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoad_FillsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(WorkspacePath(tmpDir), 0755); err != nil {
		t.Fatalf("Failed to create .crimedash: %v", err)
	}
	if err := os.WriteFile(ConfigPath(tmpDir), []byte(`{"sankey": {"top_n": 4}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sankey.TopN != 4 {
		t.Errorf("TopN = %d, want 4", cfg.Sankey.TopN)
	}
	if cfg.Sankey.ValueField != "Crime_Count" {
		t.Errorf("ValueField = %q, want default", cfg.Sankey.ValueField)
	}
	if len(cfg.Sankey.Layers) != 3 {
		t.Errorf("Layers = %v, want default layers", cfg.Sankey.Layers)
	}
}

func TestLoad_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(WorkspacePath(tmpDir), 0755); err != nil {
		t.Fatalf("Failed to create .crimedash: %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load() should return error when config not found")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(WorkspacePath(tmpDir), 0755); err != nil {
		t.Fatalf("Failed to create .crimedash: %v", err)
	}
	if err := os.WriteFile(ConfigPath(tmpDir), []byte("not json"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load() should return error for invalid JSON")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"single layer", func(c *Config) { c.Sankey.Layers = []string{"Year"} }, true},
		{"blank layer", func(c *Config) { c.Sankey.Layers = []string{"Year", " "} }, true},
		{"duplicate layers allowed", func(c *Config) { c.Sankey.Layers = []string{"Year", "Year"} }, false},
		{"no value field", func(c *Config) { c.Sankey.ValueField = "" }, true},
		{"inverted years", func(c *Config) { c.Sankey.StartYear = 2026 }, true},
		{"zero top n", func(c *Config) { c.Sankey.TopN = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestResolveDBPath(t *testing.T) {
	root := "/test/data"
	t.Setenv(EnvDB, "")

	cfg := Default()
	if got := cfg.ResolveDBPath(root); got != DefaultDBPath(root) {
		t.Errorf("default ResolveDBPath() = %q, want %q", got, DefaultDBPath(root))
	}

	cfg.DBPath = "db/crime.db"
	if got, want := cfg.ResolveDBPath(root), "/test/data/db/crime.db"; got != want {
		t.Errorf("relative ResolveDBPath() = %q, want %q", got, want)
	}

	t.Setenv(EnvDB, "/env/crime.db")
	if got := cfg.ResolveDBPath(root); got != "/env/crime.db" {
		t.Errorf("env ResolveDBPath() = %q, want /env/crime.db", got)
	}
}

func TestParseLayers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"District,Year,Crime_Category", []string{"District", "Year", "Crime_Category"}},
		{" Year , Crime_Category ", []string{"Year", "Crime_Category"}},
		{"Year,,", []string{"Year"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLayers(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLayers(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	if got := ExpandPath("~/crime"); got != filepath.Join(home, "crime") {
		t.Errorf("ExpandPath(~/crime) = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
}
