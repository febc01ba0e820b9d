package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeClassifier()
	c.normalizeMatcher()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CatalogDir) == "" {
		c.Paths.CatalogDir = defaultCatalogDir
	}
	if c.Paths.CatalogDir, err = expandPath(c.Paths.CatalogDir); err != nil {
		return fmt.Errorf("paths.catalog_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeClassifier() {
	c.Classifier.APIKey = strings.TrimSpace(c.Classifier.APIKey)
	if c.Classifier.APIKey == "" {
		if value, ok := os.LookupEnv("SOUNDLEAF_API_KEY"); ok {
			c.Classifier.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Classifier.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Classifier.APIKey = strings.TrimSpace(value)
		}
	}
	c.Classifier.BaseURL = strings.TrimSpace(c.Classifier.BaseURL)
	if c.Classifier.BaseURL == "" {
		c.Classifier.BaseURL = defaultClassifierBaseURL
	}
	c.Classifier.Model = strings.TrimSpace(c.Classifier.Model)
	if c.Classifier.Model == "" {
		c.Classifier.Model = defaultClassifierModel
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeout
	}
	if c.Classifier.SpreadPages <= 0 {
		c.Classifier.SpreadPages = defaultSpreadPages
	}
	if c.Classifier.MinPageChars <= 0 {
		c.Classifier.MinPageChars = defaultMinPageChars
	}
	if c.Classifier.Concurrency <= 0 {
		c.Classifier.Concurrency = defaultClassifierConcurrency
	}
	if c.Classifier.UnitTimeoutSeconds <= 0 {
		c.Classifier.UnitTimeoutSeconds = defaultUnitTimeoutSeconds
	}
	if c.Classifier.RetryAttempts <= 0 {
		c.Classifier.RetryAttempts = defaultRetryAttempts
	}
	if c.Classifier.RetryBaseSeconds <= 0 {
		c.Classifier.RetryBaseSeconds = defaultRetryBaseSeconds
	}
}

func (c *Config) normalizeMatcher() {
	c.Matcher.AssignmentMode = strings.ToLower(strings.TrimSpace(c.Matcher.AssignmentMode))
	if c.Matcher.AssignmentMode == "" {
		c.Matcher.AssignmentMode = AssignmentModeBestEffort
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.KeepaliveInterval <= 0 {
		c.Workflow.KeepaliveInterval = defaultKeepaliveInterval
	}
	if c.Workflow.MaxFailureRate <= 0 {
		c.Workflow.MaxFailureRate = defaultMaxFailureRate
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
