package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfig          = errors.New("invalid reference configuration")
	ErrValidation      = errors.New("invalid declaration master")
	ErrInvalidRoot     = errors.New("root folder is missing or unreadable")
	ErrMasterRequired  = errors.New("declaration master is required")
	ErrPublishDisabled = errors.New("artifact publishing is not configured")
	ErrPathNotAllowed  = errors.New("path is outside the allowed base directory")
	ErrUnauthorized    = errors.New("unauthorized")
)

// ConfigError reports a malformed naming-syntax or requirement-matrix entry.
// Line is 1-based and zero when the location is unknown.
type ConfigError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// ValidationError reports a declaration master that cannot be used.
type ValidationError struct {
	Missing []string
	Msg     string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("master missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
