/*
Package config manages the TOML config for wordcheck.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/wordcheck/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Checker CheckerConfig `toml:"checker"`
	Lexicon LexiconConfig `toml:"lexicon"`
	Watch   WatchConfig   `toml:"watch"`
	Server  ServerConfig  `toml:"server"`
	CLI     CliConfig     `toml:"cli"`
}

// CheckerConfig has analysis options.
type CheckerConfig struct {
	StrictCase        bool `toml:"strict_case"`
	SmallDocThreshold int  `toml:"small_doc_threshold"`
	ResyncIncremental bool `toml:"resync_incremental"`
}

// LexiconConfig says where the lexicon lives and how lookups are cached.
type LexiconConfig struct {
	Path                string `toml:"path"`
	CacheTTLSeconds     int    `toml:"cache_ttl_seconds"`
	CacheCleanupSeconds int    `toml:"cache_cleanup_seconds"`
	SuggestLimit        int    `toml:"suggest_limit"`
}

// WatchConfig holds the debounce delays of the file watcher.
type WatchConfig struct {
	DebounceMs      int `toml:"debounce_ms"`
	LargeDebounceMs int `toml:"large_debounce_ms"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxTextSize int `toml:"max_text_size"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	Color       bool `toml:"color"`
	ShowReasons bool `toml:"show_reasons"`
}

// CacheTTL is the lookup cache expiry. Zero keeps entries until a flush.
func (l LexiconConfig) CacheTTL() time.Duration {
	return time.Duration(l.CacheTTLSeconds) * time.Second
}

func (l LexiconConfig) CacheCleanup() time.Duration {
	return time.Duration(l.CacheCleanupSeconds) * time.Second
}

// Debounce returns the quiet period before re-analyzing a document of the
// given size in characters. Large documents wait longer.
func (w WatchConfig) Debounce(chars, largeThreshold int) time.Duration {
	if chars > largeThreshold {
		return time.Duration(w.LargeDebounceMs) * time.Millisecond
	}
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// GetConfigDir returns the platform config directory, falling back to the
// executable's directory when it cannot be created.
func GetConfigDir() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(pr.ConfigDir()); err != nil {
		log.Warnf("Config directory %s not usable: %v", pr.ConfigDir(), err)
		exec, execErr := os.Executable()
		if execErr != nil {
			return "", execErr
		}
		return filepath.Dir(exec), nil
	}
	return pr.ConfigDir(), nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/wordcheck/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Checker: CheckerConfig{
			StrictCase:        true,
			SmallDocThreshold: 10000,
			ResyncIncremental: true,
		},
		Lexicon: LexiconConfig{
			Path:                "lexicon.db",
			CacheTTLSeconds:     300,
			CacheCleanupSeconds: 600,
			SuggestLimit:        5,
		},
		Watch: WatchConfig{
			DebounceMs:      100,
			LargeDebounceMs: 200,
		},
		Server: ServerConfig{
			MaxTextSize: 4 << 20,
		},
		CLI: CliConfig{
			Color:       true,
			ShowReasons: true,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file. A file that does not decode cleanly is
// read section by section, keeping every value of the right type.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if _, err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.normalize()
	return config, nil
}

func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "checker"); ok {
		extractCheckerConfig(section, &config.Checker)
	}
	if section, ok := utils.ExtractSection(tempConfig, "lexicon"); ok {
		extractLexiconConfig(section, &config.Lexicon)
	}
	if section, ok := utils.ExtractSection(tempConfig, "watch"); ok {
		extractWatchConfig(section, &config.Watch)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		if val, ok := utils.ExtractInt64(section, "max_text_size"); ok {
			config.Server.MaxTextSize = val
		}
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractBool(section, "color"); ok {
			config.CLI.Color = val
		}
		if val, ok := utils.ExtractBool(section, "show_reasons"); ok {
			config.CLI.ShowReasons = val
		}
	}
	config.normalize()
	return config, nil
}

func extractCheckerConfig(data map[string]any, checker *CheckerConfig) {
	if val, ok := utils.ExtractBool(data, "strict_case"); ok {
		checker.StrictCase = val
	}
	if val, ok := utils.ExtractInt64(data, "small_doc_threshold"); ok {
		checker.SmallDocThreshold = val
	}
	if val, ok := utils.ExtractBool(data, "resync_incremental"); ok {
		checker.ResyncIncremental = val
	}
}

func extractLexiconConfig(data map[string]any, lex *LexiconConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		lex.Path = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_ttl_seconds"); ok {
		lex.CacheTTLSeconds = val
	}
	if val, ok := utils.ExtractInt64(data, "cache_cleanup_seconds"); ok {
		lex.CacheCleanupSeconds = val
	}
	if val, ok := utils.ExtractInt64(data, "suggest_limit"); ok {
		lex.SuggestLimit = val
	}
}

func extractWatchConfig(data map[string]any, watch *WatchConfig) {
	if val, ok := utils.ExtractInt64(data, "debounce_ms"); ok {
		watch.DebounceMs = val
	}
	if val, ok := utils.ExtractInt64(data, "large_debounce_ms"); ok {
		watch.LargeDebounceMs = val
	}
}

// normalize replaces out of range values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Checker.SmallDocThreshold <= 0 {
		c.Checker.SmallDocThreshold = def.Checker.SmallDocThreshold
	}
	if c.Lexicon.CacheTTLSeconds < 0 {
		c.Lexicon.CacheTTLSeconds = def.Lexicon.CacheTTLSeconds
	}
	if c.Lexicon.CacheCleanupSeconds < 0 {
		c.Lexicon.CacheCleanupSeconds = def.Lexicon.CacheCleanupSeconds
	}
	if c.Lexicon.SuggestLimit < 0 {
		c.Lexicon.SuggestLimit = 0
	}
	if c.Watch.DebounceMs < 0 {
		c.Watch.DebounceMs = def.Watch.DebounceMs
	}
	if c.Watch.LargeDebounceMs < c.Watch.DebounceMs {
		c.Watch.LargeDebounceMs = c.Watch.DebounceMs
	}
	if c.Server.MaxTextSize <= 0 {
		c.Server.MaxTextSize = def.Server.MaxTextSize
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	return utils.SaveTOMLFile(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the checker values and saves to file. An empty path only
// updates the in-memory config.
func (c *Config) Update(configPath string, strictCase, resync *bool, smallDocThreshold *int) error {
	if strictCase != nil {
		c.Checker.StrictCase = *strictCase
	}
	if resync != nil {
		c.Checker.ResyncIncremental = *resync
	}
	if smallDocThreshold != nil {
		c.Checker.SmallDocThreshold = *smallDocThreshold
	}
	c.normalize()
	if configPath == "" {
		return nil
	}
	return SaveConfig(c, configPath)
}
