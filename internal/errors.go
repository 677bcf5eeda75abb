package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError lists the configuration keys that are missing or invalid.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return "config: invalid configuration"
	}
	return "config: " + strings.Join(parts, "; ")
}

func (e *ConfigError) HasErrors() bool {
	return e != nil && (len(e.Missing) > 0 || len(e.Invalid) > 0)
}

// MappingError is returned when a lesson can't be turned into an event.
type MappingError struct {
	Lesson string
	Field  string
	Value  string
	Err    error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("lesson %q: invalid %s %q: %v", e.Lesson, e.Field, e.Value, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// IOError wraps a failed call to the calendar or the schedule source.
type IOError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *IOError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err carries an IOError flagged as retryable.
func IsRetryable(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr) && ioErr.Retryable
}
