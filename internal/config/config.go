// Package config loads .contestide.yaml configuration, .env files and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/futurecareers/contestide/internal/contest"
	"github.com/futurecareers/contestide/internal/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = ".contestide.yaml"

// Environment variables that override file values.
const (
	EnvAPIURL   = "CONTESTIDE_API_URL"
	EnvToken    = "CONTESTIDE_TOKEN"
	EnvLanguage = "CONTESTIDE_LANG"
)

// Default values. New() references them and no other code should duplicate
// them.
const (
	DefaultAPIURL     = "http://localhost:8000/api"
	DefaultAPITimeout = 30 * time.Second

	DefaultPollInterval   = time.Second
	DefaultMaxAttempts    = 60
	DefaultReconcileDelay = 500 * time.Millisecond

	DefaultThreadRetries = 3
	DefaultThreadBackoff = 800 * time.Millisecond

	DefaultHomeDir  = ".contestide"
	DefaultLanguage = string(models.LanguagePython)
	DefaultLocale   = "en"
)

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// PollConfig holds execution polling settings.
type PollConfig struct {
	Interval       time.Duration `yaml:"interval,omitempty"`
	MaxAttempts    int           `yaml:"max_attempts,omitempty"`
	ReconcileDelay time.Duration `yaml:"reconcile_delay,omitempty"`
}

// CommunicationConfig holds clarification-thread retry settings.
type CommunicationConfig struct {
	Retries *int          `yaml:"retries,omitempty"`
	Backoff time.Duration `yaml:"backoff,omitempty"`
}

// StoreConfig holds the session store location.
type StoreConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// SessionLogConfig holds NDJSON session log settings.
type SessionLogConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// DefaultsConfig holds defaults used when the backend does not decide.
type DefaultsConfig struct {
	Language string `yaml:"language,omitempty"`
}

// Config is the effective configuration.
type Config struct {
	API           APIConfig           `yaml:"api,omitempty"`
	Poll          PollConfig          `yaml:"poll,omitempty"`
	Communication CommunicationConfig `yaml:"communication,omitempty"`
	Store         StoreConfig         `yaml:"store,omitempty"`
	SessionLog    SessionLogConfig    `yaml:"session_log,omitempty"`
	Defaults      DefaultsConfig      `yaml:"defaults,omitempty"`
	Locale        string              `yaml:"locale,omitempty"`

	// Token comes from the environment only and is never written out.
	Token string `yaml:"-"`
	// Path is the file that was loaded, empty when defaults were used.
	Path string `yaml:"-"`
}

// New returns a Config with all defaults populated.
func New() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultAPIURL,
			Timeout: DefaultAPITimeout,
		},
		Poll: PollConfig{
			Interval:       DefaultPollInterval,
			MaxAttempts:    DefaultMaxAttempts,
			ReconcileDelay: DefaultReconcileDelay,
		},
		Communication: CommunicationConfig{
			Retries: intPtr(DefaultThreadRetries),
			Backoff: DefaultThreadBackoff,
		},
		SessionLog: SessionLogConfig{
			Enabled: boolPtr(true),
		},
		Defaults: DefaultsConfig{
			Language: DefaultLanguage,
		},
		Locale: DefaultLocale,
	}
}

// Load reads .env from startDir, finds .contestide.yaml by walking up from
// startDir (max 10 levels), merges it onto defaults and applies environment
// overrides. A missing file is not an error.
func Load(startDir string) (*Config, error) {
	cfg := New()

	if err := godotenv.Load(filepath.Join(startDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	path, data, err := findConfigFile(startDir)
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		mergeConfig(cfg, &fileCfg)
		cfg.Path = path
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for FileName. Returns
// os.ErrNotExist when no file is found and real I/O errors otherwise.
func findConfigFile(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *Config) {
	if src.API.BaseURL != "" {
		dst.API.BaseURL = src.API.BaseURL
	}
	if src.API.Timeout != 0 {
		dst.API.Timeout = src.API.Timeout
	}

	if src.Poll.Interval != 0 {
		dst.Poll.Interval = src.Poll.Interval
	}
	if src.Poll.MaxAttempts != 0 {
		dst.Poll.MaxAttempts = src.Poll.MaxAttempts
	}
	if src.Poll.ReconcileDelay != 0 {
		dst.Poll.ReconcileDelay = src.Poll.ReconcileDelay
	}

	if src.Communication.Retries != nil {
		dst.Communication.Retries = src.Communication.Retries
	}
	if src.Communication.Backoff != 0 {
		dst.Communication.Backoff = src.Communication.Backoff
	}

	if src.Store.Dir != "" {
		dst.Store.Dir = src.Store.Dir
	}

	if src.SessionLog.Enabled != nil {
		dst.SessionLog.Enabled = src.SessionLog.Enabled
	}
	if src.SessionLog.Dir != "" {
		dst.SessionLog.Dir = src.SessionLog.Dir
	}

	if src.Defaults.Language != "" {
		dst.Defaults.Language = src.Defaults.Language
	}
	if src.Locale != "" {
		dst.Locale = src.Locale
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		cfg.Defaults.Language = v
	}
}

// Language returns the normalized default language.
func (c *Config) Language() models.Language {
	return models.NormalizeLanguage(c.Defaults.Language)
}

// ThreadRetries returns the clarification-thread retry count.
func (c *Config) ThreadRetries() int {
	if c.Communication.Retries == nil {
		return DefaultThreadRetries
	}
	return *c.Communication.Retries
}

// Timing converts the poll and communication settings for the controller.
func (c *Config) Timing() contest.Timing {
	t := contest.DefaultTiming()
	t.PollInterval = c.Poll.Interval
	t.MaxAttempts = c.Poll.MaxAttempts
	t.ReconcileDelay = c.Poll.ReconcileDelay
	t.ThreadRetries = c.ThreadRetries()
	t.ThreadBackoff = c.Communication.Backoff
	return t
}

// SessionLogEnabled reports whether session logs are written.
func (c *Config) SessionLogEnabled() bool {
	return c.SessionLog.Enabled == nil || *c.SessionLog.Enabled
}

// StoreDir returns the session store directory, under the user's home
// directory unless configured.
func (c *Config) StoreDir() (string, error) {
	return c.dirOrHome(c.Store.Dir, "store")
}

// SessionLogDir returns the directory session logs are written to.
func (c *Config) SessionLogDir() (string, error) {
	return c.dirOrHome(c.SessionLog.Dir, "sessions")
}

func (c *Config) dirOrHome(dir, sub string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, DefaultHomeDir, sub), nil
}

// YAML renders the effective configuration. The token is never included.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(n int) *int {
	return &n
}
