// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/jeranaias/syntaxchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	Backend BackendConfig `toml:"backend" json:"backend"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// BackendConfig describes the conversational backend.
type BackendConfig struct {
	// BaseURL is the backend root, e.g. https://api.example.com
	BaseURL string `toml:"base_url" json:"base_url"`
	// Token is the bearer token. TokenFile is used when it is empty.
	Token string `toml:"token" json:"token"`
	// TokenFile holds the bearer token written by `syntaxchat token`.
	TokenFile string `toml:"token_file" json:"token_file"`
	// TimeoutSecs bounds one request. Zero means the default.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// IncludeKnowledge is sent with every turn.
	IncludeKnowledge bool `toml:"include_knowledge" json:"include_knowledge"`
}

// ChatConfig tunes the submission pipeline.
type ChatConfig struct {
	DefaultPersona    string `toml:"default_persona" json:"default_persona"`
	CooldownMs        int    `toml:"cooldown_ms" json:"cooldown_ms"`
	DuplicateWindowMs int    `toml:"duplicate_window_ms" json:"duplicate_window_ms"`
	FocusDelayMs      int    `toml:"focus_delay_ms" json:"focus_delay_ms"`
	MaxInputChars     int    `toml:"max_input_chars" json:"max_input_chars"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme          string `toml:"theme" json:"theme"`
	ShowTimestamps bool   `toml:"show_timestamps" json:"show_timestamps"`
	ShowMetadata   bool   `toml:"show_metadata" json:"show_metadata"`
}

// LoggingConfig controls the diagnostic log.
type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
	// File is the log path. "-" logs to stderr.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:          "http://localhost:8000",
			TimeoutSecs:      120,
			IncludeKnowledge: true,
		},
		Chat: ChatConfig{
			CooldownMs:        1000,
			DuplicateWindowMs: 5000,
			FocusDelayMs:      100,
			MaxInputChars:     4000,
		},
		UI: UIConfig{
			Theme:        "auto",
			ShowMetadata: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Timeout returns the request timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// Cooldown returns the minimum gap between submissions.
func (c ChatConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// DuplicateWindow returns how long identical content is blocked.
func (c ChatConfig) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowMs) * time.Millisecond
}

// FocusDelay returns the pause before focus returns to the composer.
func (c ChatConfig) FocusDelay() time.Duration {
	return time.Duration(c.FocusDelayMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the syntaxchat configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, ".syntaxchat"), nil
}

// ConfigPath returns the path of config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultTokenFile returns the path `syntaxchat token` writes to.
func DefaultTokenFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token"), nil
}

// DefaultLogFile returns the default log path.
func DefaultLogFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "syntaxchat.log"), nil
}

// EnsureConfigDir creates the configuration directory.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// ensureSecurePermissions tightens a file that may hold the token to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		if err := os.Chmod(path, 0o600); err != nil {
			return errors.Wrapf(err, "fix insecure permissions (was %o)", mode)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the default config file if it exists, applies environment
// overrides and validates the result.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load for an explicit path. A missing file yields the
// defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, errors.Wrapf(err, "load config from %s", path)
		}
	} else if !os.IsNotExist(statErr) {
		return nil, errors.Wrapf(statErr, "stat %s", path)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg and fills values the file left empty.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return errors.Wrap(err, "decode TOML file")
	}
	fillDefaults(cfg)
	return nil
}

// fillDefaults replaces zero values that have no meaning with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if cfg.Backend.TimeoutSecs == 0 {
		cfg.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if cfg.Chat.MaxInputChars == 0 {
		cfg.Chat.MaxInputChars = defaults.Chat.MaxInputChars
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# syntaxchat configuration file")
	fmt.Fprintln(&buf, "# Generated by syntaxchat - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return errors.Wrap(err, "write config file")
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid setting.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validThemes = map[string]bool{"dark": true, "light": true, "auto": true}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "backend.base_url",
			Message: fmt.Sprintf("'%s' is not an http(s) URL", c.Backend.BaseURL),
		})
	}
	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "backend.timeout_secs", Message: "must not be negative"})
	}

	for field, v := range map[string]int{
		"chat.cooldown_ms":         c.Chat.CooldownMs,
		"chat.duplicate_window_ms": c.Chat.DuplicateWindowMs,
		"chat.focus_delay_ms":      c.Chat.FocusDelayMs,
		"chat.max_input_chars":     c.Chat.MaxInputChars,
	} {
		if v < 0 {
			errs = append(errs, ValidationError{Field: field, Message: "must not be negative"})
		}
	}

	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies SYNTAXCHAT_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SYNTAXCHAT_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("SYNTAXCHAT_TOKEN"); v != "" {
		c.Backend.Token = v
	}
	if v := os.Getenv("SYNTAXCHAT_PERSONA"); v != "" {
		c.Chat.DefaultPersona = v
	}
	if v := os.Getenv("SYNTAXCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SYNTAXCHAT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutSecs = secs
		}
	}
}

// =============================================================================
// TOKEN
// =============================================================================

// TokenPath returns the configured token file, or the default one.
func (c *Config) TokenPath() (string, error) {
	if c.Backend.TokenFile != "" {
		return expandHome(c.Backend.TokenFile)
	}
	return DefaultTokenFile()
}

// ResolveToken returns backend.token, or the contents of the token file.
// A missing token file yields an empty token, not an error.
func (c *Config) ResolveToken() (string, error) {
	if c.Backend.Token != "" {
		return strings.TrimSpace(c.Backend.Token), nil
	}
	path, err := c.TokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "read token file")
	}
	return strings.TrimSpace(string(data)), nil
}

// LogPath returns the configured log file, or the default one.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		if c.Logging.File == "-" {
			return "-", nil
		}
		return expandHome(c.Logging.File)
	}
	return DefaultLogFile()
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// CLONE AND DISPLAY
// =============================================================================

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as TOML with the token redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Backend.Token != "" {
		safe.Backend.Token = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return err.Error()
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig   *Config
	globalConfigMu sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
// Load errors fall back to defaults.
func Global() *Config {
	globalConfigMu.RLock()
	cfg := globalConfig
	globalConfigMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	if globalConfig == nil {
		loaded, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			loaded = Default()
		}
		globalConfig = loaded
	}
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the process-wide configuration.
func ResetGlobalForTesting() {
	SetGlobal(nil)
}
