package img2bag

import (
	"fmt"
)

// ConfigError is a fatal problem with the configuration, found before any
// output is created.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func configErrorf(field string, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// SkipError means a single file could not be converted. The conversion
// continues without it.
type SkipError struct {
	Path string
	Err  error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s: %v. Skipping...", e.Path, e.Err)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}
