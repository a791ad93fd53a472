package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	if len(c.Calendars) == 0 {
		errs = append(errs, ValidationError{Field: "calendars", Message: "at least one calendar must be configured"})
	}
	for i, cal := range c.Calendars {
		if !isValidURL(cal) {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("calendars[%d]", i), Message: "must be an http(s) URL"})
		}
	}
	if c.RequiredCalendars < 0 || c.RequiredCalendars > len(c.Calendars) {
		errs = append(errs, ValidationError{Field: "required_calendars", Message: "must be between 0 and len(calendars)"})
	}

	if c.TimeoutSec <= 0 {
		errs = append(errs, ValidationError{Field: "timeout_sec", Message: "must be positive"})
	}

	if c.CacheDir == "" {
		errs = append(errs, ValidationError{Field: "cache_dir", Message: "required field is missing"})
	}
	switch c.CacheBackend {
	case "file", "sqlite":
	default:
		errs = append(errs, ValidationError{Field: "cache_backend", Message: `must be "file" or "sqlite"`})
	}

	if !c.NoBitcoin && !isValidURL(c.OracleURL) {
		errs = append(errs, ValidationError{Field: "oracle_url", Message: "must be an http(s) URL"})
	}

	for i, p := range c.WatchPaths {
		if !isValidGlobPattern(p) {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("watch_paths[%d]", i), Message: "invalid path pattern"})
		}
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{Field: "log_level", Message: "must be one of debug, info, warn, error"})
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, errs.Error())
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func isValidGlobPattern(pattern string) bool {
	if pattern == "" {
		return false
	}
	_, err := filepath.Match(pattern, "test")
	return err == nil
}

func isValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "required field is missing"}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("value must be between %v and %v", min, max)}
}
