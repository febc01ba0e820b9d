package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	CatalogDir string `toml:"catalog_dir"`
}

// Classifier contains connection and batching settings for the page
// classification service.
type Classifier struct {
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
	Model              string `toml:"model"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	SpreadPages        int    `toml:"spread_pages"`
	MinPageChars       int    `toml:"min_page_chars"`
	Concurrency        int    `toml:"concurrency"`
	UnitTimeoutSeconds int    `toml:"unit_timeout_seconds"`
	RetryAttempts      int    `toml:"retry_attempts"`
	RetryBaseSeconds   int    `toml:"retry_base_seconds"`
}

// Matcher contains soundscape assignment settings.
type Matcher struct {
	// AssignmentMode selects the score threshold: "best_effort" assigns any
	// match scoring at least 0.25, "curated" raises the bar to 0.35.
	AssignmentMode string `toml:"assignment_mode"`
	// Threshold overrides the mode-derived value when positive.
	Threshold float64 `toml:"threshold"`
}

// Workflow contains pipeline timing and failure-handling settings.
type Workflow struct {
	ReviewRequired    bool    `toml:"review_required"`
	KeepaliveInterval int     `toml:"keepalive_interval"`
	MaxFailureRate    float64 `toml:"max_failure_rate"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for Soundleaf.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and soundscape catalog directories
//   - Classifier: AI classification service connection and batching
//   - Matcher: soundscape assignment mode and threshold
//   - Workflow: keepalive cadence, failure budget, review routing
//   - Logging: log format and level
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Classifier    Classifier    `toml:"classifier"`
	Matcher       Matcher       `toml:"matcher"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/soundleaf/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/soundleaf/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("soundleaf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
// CatalogDir is created on a best-effort basis so commands can run before any
// soundscapes have been installed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.CatalogDir) != "" {
		_ = os.MkdirAll(c.Paths.CatalogDir, 0o755)
	}
	return nil
}

// DatabasePath returns the location of the books database inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "soundleaf.db")
}

// LockPath returns the location of the processing lock file inside DataDir.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "soundleaf.lock")
}

// MatchThreshold returns the minimum score for a soundscape assignment,
// derived from the assignment mode unless an explicit threshold is set.
func (c *Config) MatchThreshold() float64 {
	if c.Matcher.Threshold > 0 {
		return c.Matcher.Threshold
	}
	if c.Matcher.AssignmentMode == AssignmentModeCurated {
		return curatedThreshold
	}
	return bestEffortThreshold
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
