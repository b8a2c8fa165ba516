package assistant

import (
	"errors"
	"fmt"
)

// ConfigError reports a value outside the fixed configuration space,
// e.g. a mode name that is not one of the six presets.
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %q is not recognized", e.Field, e.Value)
}

// ValidationError reports caller input that cannot be accepted
// (empty submissions, out-of-range temperature).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// CompletionError wraps a failure of the external completion service.
type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("completion failed: %v", e.Err)
	}
	return fmt.Sprintf("completion via %s failed: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsCompletionError(err error) bool {
	var target *CompletionError
	return errors.As(err, &target)
}
