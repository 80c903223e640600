package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrDataAccess    = errors.New("data access failed")
	ErrConfiguration = errors.New("invalid configuration")
	ErrValidation    = errors.New("diagram validation failed")
)

// DataAccessError reports a failed listing or read against a data source.
type DataAccessError struct {
	Op   string // "list" or "read"
	Path string
	Err  error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

func (e *DataAccessError) Is(target error) bool {
	return target == ErrDataAccess
}

// ConfigurationError reports a missing or invalid parameter.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ValidationError reports the structural rule a rendered diagram violated.
type ValidationError struct {
	Rule string
}

func (e *ValidationError) Error() string {
	return "diagram validation: " + e.Rule
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
