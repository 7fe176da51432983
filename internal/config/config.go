// Package config handles configuration loading, validation, and
// management for ojitype.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"ojitype/internal/keymap"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete ojitype configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Table configures the definition table and its compiled cache.
	Table TableConfig `toml:"table" json:"table" yaml:"table"`

	// Keymap configures the physical key layout.
	Keymap KeymapConfig `toml:"keymap" json:"keymap" yaml:"keymap"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// IBus configures the Linux input method engine.
	IBus IBusConfig `toml:"ibus" json:"ibus" yaml:"ibus"`
}

// TableConfig holds definition-table configuration.
type TableConfig struct {
	// Path is the definition table file.
	Path string `toml:"path" json:"path" yaml:"path"`

	// CacheEnabled stores compiled tables in the SQLite cache so
	// unchanged definition files skip recompilation.
	CacheEnabled bool `toml:"cache_enabled" json:"cache_enabled" yaml:"cache_enabled"`

	// CachePath is the SQLite cache database.
	CachePath string `toml:"cache_path" json:"cache_path" yaml:"cache_path"`

	// WatchReload recompiles and hot-swaps the table when the
	// definition file changes on disk.
	WatchReload bool `toml:"watch_reload" json:"watch_reload" yaml:"watch_reload"`

	// DebounceMs is how long the definition file must be stable
	// before a reload is attempted.
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`
}

// KeymapConfig holds the key layout.
type KeymapConfig struct {
	// Layout maps a key to an entity descriptor, e.g. "p" to
	// "eastern:p" or "w" to "wdot:left". An empty map means the
	// built-in default layout.
	Layout map[string]string `toml:"layout" json:"layout" yaml:"layout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", or "file".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// IBusConfig holds IBus engine configuration.
type IBusConfig struct {
	// BusName is the D-Bus name the engine claims.
	BusName string `toml:"bus_name" json:"bus_name" yaml:"bus_name"`

	// EngineName is the IBus engine identifier.
	EngineName string `toml:"engine_name" json:"engine_name" yaml:"engine_name"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		Version: Version,
		Table: TableConfig{
			Path:         filepath.Join(dir, "chars.txt"),
			CacheEnabled: true,
			CachePath:    filepath.Join(dir, "tables.db"),
			WatchReload:  true,
			DebounceMs:   500,
		},
		Keymap: KeymapConfig{
			Layout: keymap.DefaultLayout(),
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "file",
			FilePath: filepath.Join(dir, "ojitype.log"),
		},
		IBus: IBusConfig{
			BusName:    "org.ojitype.IBus",
			EngineName: "ojitype",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// DataDir returns the base ojitype directory, honoring the
// OJITYPE_DATA_DIR environment override.
func DataDir() string {
	if envDir := os.Getenv("OJITYPE_DATA_DIR"); envDir != "" {
		return envDir
	}
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "ojitype")
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		return filepath.Join(appData, "ojitype")
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "ojitype")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "ojitype")
	}
}

// Load reads configuration from the specified path. A missing file
// yields the defaults. TOML, JSON, and YAML are accepted by extension.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies OJITYPE_* environment overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("OJITYPE_TABLE_PATH"); v != "" {
		c.Table.Path = v
	}
	if v := os.Getenv("OJITYPE_CACHE_PATH"); v != "" {
		c.Table.CachePath = v
	}
	if v := os.Getenv("OJITYPE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("OJITYPE_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Version <= 0 || c.Version > Version {
		return fmt.Errorf("unsupported config version %d", c.Version)
	}
	if c.Table.Path == "" {
		return fmt.Errorf("table.path is required")
	}
	if c.Table.CacheEnabled && c.Table.CachePath == "" {
		return fmt.Errorf("table.cache_path is required when the cache is enabled")
	}
	if c.Table.DebounceMs < 0 {
		return fmt.Errorf("table.debounce_ms must not be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required for file output")
	}
	return nil
}

// Layout returns the configured key layout, falling back to the
// built-in default when none is set.
func (c *Config) Layout() map[string]string {
	if len(c.Keymap.Layout) == 0 {
		return keymap.DefaultLayout()
	}
	return c.Keymap.Layout
}

// EnsureDirectories creates the directories the configuration refers to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Table.Path),
		filepath.Dir(c.Logging.FilePath),
	}
	if c.Table.CacheEnabled {
		dirs = append(dirs, filepath.Dir(c.Table.CachePath))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
