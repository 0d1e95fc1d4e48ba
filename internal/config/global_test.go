package config

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/time/rate"
)

// writeGlobalConfig points XDG_CONFIG_HOME at a temp dir holding body.
func writeGlobalConfig(t *testing.T, body string) string {
	t.Helper()
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	if body == "" {
		return tmpDir
	}

	dir := filepath.Join(tmpDir, GlobalConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, GlobalConfigFile), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return tmpDir
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/cdash/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	want := filepath.Join(home, ".config", "cdash", "config.yml")
	if got := GlobalConfigPath(); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	writeGlobalConfig(t, "")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if *cfg != (GlobalConfig{}) {
		t.Errorf("LoadGlobalConfig() = %+v, want empty", cfg)
	}
}

func TestLoadGlobalConfig_Valid(t *testing.T) {
	writeGlobalConfig(t, `
workspace_path: ~/crime-data
listen_addr: 0.0.0.0:9000
rate_limit: 2.5
rate_burst: 5
`)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "crime-data"); cfg.WorkspacePath != want {
		t.Errorf("WorkspacePath = %q, want %q", cfg.WorkspacePath, want)
	}
	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.RateLimit != 2.5 || cfg.RateBurst != 5 {
		t.Errorf("rate = %v/%d, want 2.5/5", cfg.RateLimit, cfg.RateBurst)
	}
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	writeGlobalConfig(t, "listen_addr: [unclosed")

	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("LoadGlobalConfig() should return error for invalid YAML")
	}
}

func TestGlobalConfigCache(t *testing.T) {
	tmpDir := writeGlobalConfig(t, "listen_addr: first:1\n")
	path := filepath.Join(tmpDir, GlobalConfigDir, GlobalConfigFile)

	cfg1, _ := LoadGlobalConfig()
	if cfg1.ListenAddr != "first:1" {
		t.Fatalf("first load: ListenAddr = %q", cfg1.ListenAddr)
	}

	if err := os.WriteFile(path, []byte("listen_addr: second:2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg2, _ := LoadGlobalConfig()
	if cfg2.ListenAddr != "first:1" {
		t.Errorf("second load: ListenAddr = %q, want cached first:1", cfg2.ListenAddr)
	}

	ResetGlobalConfigCache()
	cfg3, _ := LoadGlobalConfig()
	if cfg3.ListenAddr != "second:2" {
		t.Errorf("third load: ListenAddr = %q, want second:2", cfg3.ListenAddr)
	}
}

func TestGetListenAddr(t *testing.T) {
	writeGlobalConfig(t, "")
	t.Setenv(EnvListen, "")

	if got := GetListenAddr(); got != DefaultListenAddr {
		t.Errorf("GetListenAddr() = %q, want default", got)
	}

	writeGlobalConfig(t, "listen_addr: cfg:1\n")
	if got := GetListenAddr(); got != "cfg:1" {
		t.Errorf("GetListenAddr() = %q, want cfg:1", got)
	}

	t.Setenv(EnvListen, "env:2")
	if got := GetListenAddr(); got != "env:2" {
		t.Errorf("GetListenAddr() = %q, want env:2", got)
	}
}

func TestGetRateLimit(t *testing.T) {
	writeGlobalConfig(t, "")
	limit, burst := GetRateLimit()
	if limit != rate.Limit(DefaultRateLimit) || burst != DefaultRateBurst {
		t.Errorf("GetRateLimit() = %v, %d, want defaults", limit, burst)
	}

	writeGlobalConfig(t, "rate_limit: 1\nrate_burst: 0\n")
	limit, burst = GetRateLimit()
	if limit != 1 || burst != DefaultRateBurst {
		t.Errorf("GetRateLimit() = %v, %d, want 1, %d", limit, burst, DefaultRateBurst)
	}
}

func TestResolveWorkspace_GlobalFallback(t *testing.T) {
	ws := t.TempDir()
	if err := os.Mkdir(WorkspacePath(ws), 0755); err != nil {
		t.Fatal(err)
	}
	writeGlobalConfig(t, "workspace_path: "+ws+"\n")

	got, err := ResolveWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("ResolveWorkspace() error = %v", err)
	}
	if got != ws {
		t.Errorf("ResolveWorkspace() = %q, want %q", got, ws)
	}
}

func TestHelpfulConfigMessage(t *testing.T) {
	if msg := HelpfulConfigMessage(); len(msg) < 50 {
		t.Errorf("HelpfulConfigMessage() seems too short: %q", msg)
	}
}
