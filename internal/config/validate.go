package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if c.Classifier.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/soundleaf/config.toml"
		}
		return fmt.Errorf("classifier.api_key is required. Set SOUNDLEAF_API_KEY env var or edit %s (create with 'soundleaf config init')", defaultPath)
	}
	if c.Classifier.SpreadPages != 1 && c.Classifier.SpreadPages != 2 {
		return errors.New("classifier.spread_pages must be 1 or 2")
	}
	if err := ensurePositiveMap(map[string]int{
		"classifier.timeout_seconds":      c.Classifier.TimeoutSeconds,
		"classifier.min_page_chars":       c.Classifier.MinPageChars,
		"classifier.concurrency":          c.Classifier.Concurrency,
		"classifier.unit_timeout_seconds": c.Classifier.UnitTimeoutSeconds,
		"classifier.retry_attempts":       c.Classifier.RetryAttempts,
		"classifier.retry_base_seconds":   c.Classifier.RetryBaseSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMatcher() error {
	switch c.Matcher.AssignmentMode {
	case AssignmentModeBestEffort, AssignmentModeCurated:
	default:
		return fmt.Errorf("matcher.assignment_mode must be %q or %q", AssignmentModeBestEffort, AssignmentModeCurated)
	}
	if c.Matcher.Threshold < 0 || c.Matcher.Threshold > 1 {
		return errors.New("matcher.threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.KeepaliveInterval <= 0 {
		return errors.New("workflow.keepalive_interval must be positive")
	}
	if c.Workflow.MaxFailureRate <= 0 || c.Workflow.MaxFailureRate > 1 {
		return errors.New("workflow.max_failure_rate must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
