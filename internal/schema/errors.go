package schema

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a projection that cannot drive synchronization.
// It is detected before any storage I/O.
type ConfigurationError struct {
	// Field names the missing or invalid configuration element.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// SchemaError reports a failed table probe or alteration.
type SchemaError struct {
	// Op is the failing step: "begin", "probe", "create table", "create index",
	// "add column", or "commit".
	Op string

	Table  string
	Column string // empty unless the step concerns one column

	Err error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema error: %s %q.%q: %v", e.Op, e.Table, e.Column, e.Err)
	}
	if e.Table != "" {
		return fmt.Sprintf("schema error: %s %q: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("schema error: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying database error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsConfigurationError returns true if err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsSchemaError returns true if err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
