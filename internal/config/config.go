// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/chatvault/internal/backend"
	"github.com/jeranaias/chatvault/internal/compact"
	"github.com/jeranaias/chatvault/internal/llm"
	"github.com/jeranaias/chatvault/internal/server"
	"github.com/jeranaias/chatvault/internal/storage"
	"github.com/jeranaias/chatvault/internal/util"
)

// Summarizer providers.
const (
	ProviderBackend   = "backend"
	ProviderOllama    = llm.ProviderOllama
	ProviderOpenAI    = llm.ProviderOpenAI
	ProviderAnthropic = llm.ProviderAnthropic
	ProviderNone      = "none"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatvault configuration.
type Config struct {
	Storage    StorageConfig    `toml:"storage" json:"storage" yaml:"storage"`
	Compaction CompactionConfig `toml:"compaction" json:"compaction" yaml:"compaction"`
	Summarizer SummarizerConfig `toml:"summarizer" json:"summarizer" yaml:"summarizer"`
	Log        LogConfig        `toml:"log" json:"log" yaml:"log"`
	Server     ServerConfig     `toml:"server" json:"server" yaml:"server"`
}

// StorageConfig contains persistence configuration.
type StorageConfig struct {
	// Dir holds the database and the fast tier (default: ~/.chatvault/data)
	Dir string `toml:"dir" json:"dir" yaml:"dir"`

	// FastKey is the fast tier key for the history blob
	FastKey string `toml:"fast_key" json:"fast_key" yaml:"fast_key"`

	// FastQuotaMB is the fast tier budget; negative means unlimited
	FastQuotaMB float64 `toml:"fast_quota_mb" json:"fast_quota_mb" yaml:"fast_quota_mb"`

	// FallbackChats is how many chats a degraded save keeps
	FallbackChats int `toml:"fallback_chats" json:"fallback_chats" yaml:"fallback_chats"`
}

// CompactionConfig contains summarization policy configuration.
type CompactionConfig struct {
	ThresholdMB  float64 `toml:"threshold_mb" json:"threshold_mb" yaml:"threshold_mb"`
	MinMessages  int     `toml:"min_messages" json:"min_messages" yaml:"min_messages"`
	SplitRatio   float64 `toml:"split_ratio" json:"split_ratio" yaml:"split_ratio"`
	FallbackKeep int     `toml:"fallback_keep" json:"fallback_keep" yaml:"fallback_keep"`
	Resummarize  *bool   `toml:"resummarize,omitempty" json:"resummarize,omitempty" yaml:"resummarize,omitempty"`
}

// SummarizerConfig selects the collaborator that condenses chats.
type SummarizerConfig struct {
	// Provider is one of backend, ollama, openai, anthropic or none
	Provider string `toml:"provider" json:"provider" yaml:"provider"`

	// URL is the backend base URL, or the Ollama server URL
	URL string `toml:"url" json:"url" yaml:"url"`

	// Endpoint is the backend chat path
	Endpoint string `toml:"endpoint" json:"endpoint" yaml:"endpoint"`

	TimeoutSecs   int    `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`
	RatePerMinute int    `toml:"rate_per_minute" json:"rate_per_minute" yaml:"rate_per_minute"`
	Model         string `toml:"model,omitempty" json:"model,omitempty" yaml:"model,omitempty"`
	APIKey        string `toml:"api_key,omitempty" json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `toml:"level" json:"level" yaml:"level"`

	// File receives JSON logs in addition to stderr; empty disables it
	File string `toml:"file,omitempty" json:"file,omitempty" yaml:"file,omitempty"`
}

// ServerConfig configures chatvault serve.
type ServerConfig struct {
	Host string `toml:"host" json:"host" yaml:"host"`
	Port int    `toml:"port" json:"port" yaml:"port"`

	// Token, when set, is required as a bearer token on /api routes
	Token string `toml:"token,omitempty" json:"token,omitempty" yaml:"token,omitempty"`

	// AllowedOrigin enables CORS for one web client origin
	AllowedOrigin string `toml:"allowed_origin,omitempty" json:"allowed_origin,omitempty" yaml:"allowed_origin,omitempty"`

	MaxBodyMB float64 `toml:"max_body_mb" json:"max_body_mb" yaml:"max_body_mb"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	resummarize := true
	return &Config{
		Storage: StorageConfig{
			Dir:           defaultDataDir(),
			FastKey:       storage.DefaultFastKey,
			FastQuotaMB:   float64(storage.DefaultFastQuota) / (1024 * 1024),
			FallbackChats: storage.DefaultFallbackChats,
		},
		Compaction: CompactionConfig{
			ThresholdMB:  float64(compact.DefaultThresholdBytes) / (1024 * 1024),
			MinMessages:  compact.DefaultMinMessages,
			SplitRatio:   compact.DefaultSplitRatio,
			FallbackKeep: compact.DefaultFallbackKeep,
			Resummarize:  &resummarize,
		},
		Summarizer: SummarizerConfig{
			Provider:    ProviderBackend,
			Endpoint:    backend.DefaultEndpoint,
			TimeoutSecs: int(backend.DefaultTimeout / time.Second),
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Host:      server.DefaultHost,
			Port:      server.DefaultPort,
			MaxBodyMB: float64(server.DefaultMaxBodyBytes) / (1024 * 1024),
		},
	}
}

func defaultDataDir() string {
	dir, err := ConfigDir()
	if err != nil {
		return filepath.Join(".chatvault", "data")
	}
	return filepath.Join(dir, "data")
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatvault configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatvault"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnvPath returns the path to the optional .env file.
func EnvPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ensureSecurePermissions tightens a config file to 0600, since it may hold
// an API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file(s).
// Tries TOML first, then YAML, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathYAML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are read as JSON, .yaml or .yml as YAML,
// anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	switch FormatForPath(path) {
	case FormatJSON:
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	case FormatYAML:
		if err := LoadYAML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load YAML config from %s: %w", path, err)
		}
	default:
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	LoadEnvFile()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadYAML decodes a YAML file over cfg.
func LoadYAML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// LoadEnvFile loads ~/.chatvault/.env into the process environment.
// Variables already set win over the file. A missing file is not an error.
func LoadEnvFile() {
	path, err := EnvPath()
	if err != nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", path, err)
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Config file formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatForPath maps a file extension to its format; anything unknown is TOML.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Encode renders cfg in format. TOML output carries a comment header.
func Encode(cfg *Config, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		fmt.Fprintln(&buf, "# chatvault configuration file")
		fmt.Fprintln(&buf, "# Generated by chatvault - edit with care")
		fmt.Fprintln(&buf, "")
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
	case FormatJSON:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	default:
		return nil, fmt.Errorf("unknown config format %q (want toml, yaml or json)", format)
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path with 0600 permissions, in the format its
// extension names.
func Save(cfg *Config, path string) error {
	data, err := Encode(cfg, FormatForPath(path))
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Redacted returns a copy of the config with secrets masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Summarizer.APIKey != "" {
		out.Summarizer.APIKey = redactedValue
	}
	if out.Server.Token != "" {
		out.Server.Token = redactedValue
	}
	return &out
}

const redactedValue = "********"

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies CHATVAULT_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	// CHATVAULT_DATA_DIR
	if dir := os.Getenv("CHATVAULT_DATA_DIR"); dir != "" {
		c.Storage.Dir = dir
	}

	// CHATVAULT_BACKEND_URL
	if u := os.Getenv("CHATVAULT_BACKEND_URL"); u != "" {
		c.Summarizer.URL = u
	}

	// CHATVAULT_PROVIDER
	if p := os.Getenv("CHATVAULT_PROVIDER"); p != "" {
		c.Summarizer.Provider = p
	}

	// CHATVAULT_MODEL
	if m := os.Getenv("CHATVAULT_MODEL"); m != "" {
		c.Summarizer.Model = m
	}

	// CHATVAULT_API_KEY
	if k := os.Getenv("CHATVAULT_API_KEY"); k != "" {
		c.Summarizer.APIKey = k
	}

	// CHATVAULT_LOG_LEVEL
	if l := os.Getenv("CHATVAULT_LOG_LEVEL"); l != "" {
		c.Log.Level = l
	}

	// CHATVAULT_SERVER_TOKEN
	if t := os.Getenv("CHATVAULT_SERVER_TOKEN"); t != "" {
		c.Server.Token = t
	}

	// CHATVAULT_PORT
	if p := os.Getenv("CHATVAULT_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			c.Server.Port = n
		}
	}

	// CHATVAULT_RESUMMARIZE
	if r := os.Getenv("CHATVAULT_RESUMMARIZE"); r != "" {
		if b, err := strconv.ParseBool(r); err == nil {
			c.Compaction.Resummarize = &b
		}
	}
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// SetDefaults fills zero-value fields with their defaults.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Storage.Dir == "" {
		c.Storage.Dir = d.Storage.Dir
	}
	c.Storage.Dir = ExpandHome(c.Storage.Dir)
	if c.Storage.FastKey == "" {
		c.Storage.FastKey = d.Storage.FastKey
	}
	if c.Storage.FastQuotaMB == 0 {
		c.Storage.FastQuotaMB = d.Storage.FastQuotaMB
	}
	if c.Storage.FallbackChats == 0 {
		c.Storage.FallbackChats = d.Storage.FallbackChats
	}

	if c.Compaction.ThresholdMB == 0 {
		c.Compaction.ThresholdMB = d.Compaction.ThresholdMB
	}
	if c.Compaction.MinMessages == 0 {
		c.Compaction.MinMessages = d.Compaction.MinMessages
	}
	if c.Compaction.SplitRatio == 0 {
		c.Compaction.SplitRatio = d.Compaction.SplitRatio
	}
	if c.Compaction.FallbackKeep == 0 {
		c.Compaction.FallbackKeep = d.Compaction.FallbackKeep
	}
	if c.Compaction.Resummarize == nil {
		c.Compaction.Resummarize = d.Compaction.Resummarize
	}

	c.Summarizer.Provider = strings.ToLower(strings.TrimSpace(c.Summarizer.Provider))
	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = d.Summarizer.Provider
	}
	// Ollama falls back to langchaingo's own default server.
	if c.Summarizer.URL == "" && c.Summarizer.Provider == ProviderBackend {
		c.Summarizer.URL = backend.DefaultBaseURL
	}
	if c.Summarizer.Endpoint == "" {
		c.Summarizer.Endpoint = d.Summarizer.Endpoint
	}
	if c.Summarizer.TimeoutSecs == 0 {
		c.Summarizer.TimeoutSecs = d.Summarizer.TimeoutSecs
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.File != "" {
		c.Log.File = ExpandHome(c.Log.File)
	}

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.MaxBodyMB == 0 {
		c.Server.MaxBodyMB = d.Server.MaxBodyMB
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Storage.Dir == "" {
		add("storage.dir", "must not be empty")
	}
	if c.Storage.FastKey == "" || strings.ContainsAny(c.Storage.FastKey, `/\`) || c.Storage.FastKey == ".." {
		add("storage.fast_key", "invalid key '%s'", c.Storage.FastKey)
	}
	if c.Storage.FallbackChats < 1 {
		add("storage.fallback_chats", "must be at least 1, got %d", c.Storage.FallbackChats)
	}

	if c.Compaction.ThresholdMB <= 0 {
		add("compaction.threshold_mb", "must be positive, got %v", c.Compaction.ThresholdMB)
	}
	if c.Compaction.MinMessages < 1 {
		add("compaction.min_messages", "must be at least 1, got %d", c.Compaction.MinMessages)
	}
	if c.Compaction.SplitRatio <= 0 || c.Compaction.SplitRatio >= 1 {
		add("compaction.split_ratio", "must be between 0 and 1, got %v", c.Compaction.SplitRatio)
	}
	if c.Compaction.FallbackKeep < 1 {
		add("compaction.fallback_keep", "must be at least 1, got %d", c.Compaction.FallbackKeep)
	}

	validProviders := map[string]bool{
		ProviderBackend: true, ProviderOllama: true, ProviderOpenAI: true,
		ProviderAnthropic: true, ProviderNone: true,
	}
	if !validProviders[c.Summarizer.Provider] {
		add("summarizer.provider", "invalid provider '%s', must be one of: backend, ollama, openai, anthropic, none", c.Summarizer.Provider)
	}
	if c.Summarizer.URL != "" {
		if u, err := url.Parse(c.Summarizer.URL); err != nil || u.Scheme == "" || u.Host == "" {
			add("summarizer.url", "invalid URL '%s'", c.Summarizer.URL)
		} else if u.Scheme != "http" && u.Scheme != "https" {
			add("summarizer.url", "scheme must be http or https, got '%s'", u.Scheme)
		}
	}
	if c.Summarizer.TimeoutSecs < 1 {
		add("summarizer.timeout_secs", "must be at least 1, got %d", c.Summarizer.TimeoutSecs)
	}
	if c.Summarizer.RatePerMinute < 0 {
		add("summarizer.rate_per_minute", "must not be negative, got %d", c.Summarizer.RatePerMinute)
	}
	if (c.Summarizer.Provider == ProviderOpenAI || c.Summarizer.Provider == ProviderAnthropic) && c.Summarizer.APIKey == "" {
		add("summarizer.api_key", "required for provider '%s'", c.Summarizer.Provider)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodyMB <= 0 {
		add("server.max_body_mb", "must be positive, got %v", c.Server.MaxBodyMB)
	}
	if c.Server.AllowedOrigin != "" {
		if u, err := url.Parse(c.Server.AllowedOrigin); err != nil || u.Scheme == "" || u.Host == "" {
			add("server.allowed_origin", "invalid origin '%s'", c.Server.AllowedOrigin)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// CompactionPolicy converts the compaction section to a policy.
func (c *Config) CompactionPolicy() compact.Policy {
	resummarize := true
	if c.Compaction.Resummarize != nil {
		resummarize = *c.Compaction.Resummarize
	}
	return compact.Policy{
		ThresholdBytes: int64(c.Compaction.ThresholdMB * 1024 * 1024),
		MinMessages:    c.Compaction.MinMessages,
		SplitRatio:     c.Compaction.SplitRatio,
		FallbackKeep:   c.Compaction.FallbackKeep,
		Resummarize:    resummarize,
	}
}

// StorageOptions builds the options for storage.Open.
func (c *Config) StorageOptions(logger *slog.Logger, summarizer compact.Summarizer) storage.Options {
	quota := int64(c.Storage.FastQuotaMB * 1024 * 1024)
	if c.Storage.FastQuotaMB < 0 {
		quota = -1
	}
	return storage.Options{
		Dir:           c.Storage.Dir,
		FastKey:       c.Storage.FastKey,
		FastQuota:     quota,
		Policy:        c.CompactionPolicy(),
		Summarizer:    summarizer,
		FallbackChats: c.Storage.FallbackChats,
		Logger:        logger,
	}
}

// ServerOptions builds the config for server.New.
func (c *Config) ServerOptions() server.Config {
	return server.Config{
		Host:          c.Server.Host,
		Port:          c.Server.Port,
		Token:         c.Server.Token,
		AllowedOrigin: c.Server.AllowedOrigin,
		MaxBodyBytes:  int64(c.Server.MaxBodyMB * 1024 * 1024),
	}
}

// BuildSummarizer returns the configured collaborator, or nil for provider
// none.
func (c *Config) BuildSummarizer() (compact.Summarizer, error) {
	s := c.Summarizer
	switch s.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderBackend:
		return backend.NewClientWithConfig(&backend.ClientConfig{
			BaseURL:       s.URL,
			Endpoint:      s.Endpoint,
			Timeout:       time.Duration(s.TimeoutSecs) * time.Second,
			RatePerMinute: s.RatePerMinute,
		}), nil
	default:
		sum, err := llm.NewSummarizer(llm.Options{
			Provider:  s.Provider,
			Model:     s.Model,
			ServerURL: s.URL,
			APIKey:    s.APIKey,
		})
		if err != nil {
			return nil, err
		}
		return sum, nil
	}
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	return ParseLevel(c.Log.Level)
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
