package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// DefaultSplitLength seeds the settings of the very first project in a
	// namespace. Later projects inherit the last-used settings instead.
	DefaultSplitLength int `json:"default_split_length"`

	// DebounceMS is the quiescence window for the chunk recompute trigger,
	// in milliseconds.
	DebounceMS int `json:"debounce_ms,omitempty"`

	// RemoteURL is the base URL of the remote document store. Empty disables
	// remote sync entirely.
	RemoteURL string `json:"remote_url,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized. 0 means the sql.DB
	// default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means the sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultSplitLength: 2000,
		DebounceMS:         300,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.shard.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.DefaultSplitLength = overlay.DefaultSplitLength
	if result.DefaultSplitLength == 0 {
		result.DefaultSplitLength = base.DefaultSplitLength
	}

	result.DebounceMS = overlay.DebounceMS
	if result.DebounceMS == 0 {
		result.DebounceMS = base.DebounceMS
	}

	result.RemoteURL = overlay.RemoteURL
	if result.RemoteURL == "" {
		result.RemoteURL = base.RemoteURL
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
