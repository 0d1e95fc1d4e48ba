package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/cdash/config.yml.
type GlobalConfig struct {
	WorkspacePath string  `yaml:"workspace_path,omitempty"`
	ListenAddr    string  `yaml:"listen_addr,omitempty"`
	RateLimit     float64 `yaml:"rate_limit,omitempty"` // API requests per second
	RateBurst     int     `yaml:"rate_burst,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "cdash"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// EnvListen overrides listen_addr.
	EnvListen = "CDASH_LISTEN"

	DefaultListenAddr = "127.0.0.1:8050"
	DefaultRateLimit  = 20
	DefaultRateBurst  = 40
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// LoadEnv reads a .env file from the working directory, if present.
// Variables already set in the environment are not overwritten.
func LoadEnv() {
	_ = godotenv.Load()
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/cdash/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.WorkspacePath != "" {
		cfg.WorkspacePath = ExpandPath(cfg.WorkspacePath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetListenAddr returns the server address: CDASH_LISTEN, then listen_addr,
// then DefaultListenAddr.
func GetListenAddr() string {
	if addr := os.Getenv(EnvListen); addr != "" {
		return addr
	}
	cfg, err := LoadGlobalConfig()
	if err == nil && cfg.ListenAddr != "" {
		return cfg.ListenAddr
	}
	return DefaultListenAddr
}

// GetRateLimit returns the API rate limit and burst, falling back to the
// defaults for unset or non-positive values.
func GetRateLimit() (rate.Limit, int) {
	limit, burst := rate.Limit(DefaultRateLimit), DefaultRateBurst
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return limit, burst
	}
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.RateBurst > 0 {
		burst = cfg.RateBurst
	}
	return limit, burst
}

// ResolveWorkspace finds the workspace for start, falling back to the
// workspace_path from the global config.
func ResolveWorkspace(start string) (string, error) {
	root, err := FindWorkspace(start)
	if err == nil {
		return root, nil
	}

	cfg, gerr := LoadGlobalConfig()
	if gerr == nil && cfg.WorkspacePath != "" && IsWorkspace(cfg.WorkspacePath) {
		return cfg.WorkspacePath, nil
	}
	return "", err
}

// HelpfulConfigMessage returns a help message for configuring the global config.
func HelpfulConfigMessage() string {
	return fmt.Sprintf(`Configure crimedash by creating %s:

  workspace_path: ~/crime-data
  listen_addr: 127.0.0.1:8050
  rate_limit: 20
  rate_burst: 40

Or run 'cdash init' inside the directory holding your data.`, GlobalConfigPath())
}
