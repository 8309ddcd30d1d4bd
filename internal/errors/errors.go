// Package errors provides the typed error taxonomy shared by the recipe server.
// Every error a tool can surface carries a Kind so callers can branch on the
// failure class without matching message text.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation Kind = "validation" // bad caller input
	KindNotFound   Kind = "not_found"  // unknown recipe, empty search, missing collection
	KindRemote     Kind = "remote"     // network failure, timeout, non-success status
	KindStorage    Kind = "storage"    // permission denied, disk full, corrupt JSON
	KindInternal   Kind = "internal"
)

// NotFoundError indicates a recipe, collection or plan does not exist locally
// or the remote source returned no results.
type NotFoundError struct {
	EntityType string // "recipe", "collection", "meal_plan", "search"
	Identifier string // recipe id, collection name or search term
}

func (e *NotFoundError) Error() string {
	if e.EntityType != "" {
		return fmt.Sprintf("%s not found: %s", e.EntityType, e.Identifier)
	}
	return fmt.Sprintf("not found: %s", e.Identifier)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entityType, identifier string) *NotFoundError {
	return &NotFoundError{
		EntityType: entityType,
		Identifier: identifier,
	}
}

// ValidationError indicates invalid input parameters.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value (may be empty)
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// RemoteError wraps a failed call to the upstream recipe API.
type RemoteError struct {
	Action     string // "search", "search_letter", "random"
	StatusCode int    // 0 when no response was received
	Timeout    bool
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("recipe API %s timed out: %v", e.Action, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("recipe API %s returned status %d", e.Action, e.StatusCode)
	default:
		return fmt.Sprintf("recipe API %s failed: %v", e.Action, e.Err)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// StorageError wraps a failed filesystem operation on the recipes directory.
type StorageError struct {
	Op   string // "read", "write", "mkdir", "list"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError creates a StorageError.
func NewStorageError(op, path string, err error) *StorageError {
	return &StorageError{Op: op, Path: path, Err: err}
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation returns true if err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRemote returns true if err is or wraps a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// KindOf reports the Kind of err. Nil errors have no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var (
		nf *NotFoundError
		ve *ValidationError
		re *RemoteError
		se *StorageError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &nf):
		return KindNotFound
	case errors.As(err, &re):
		return KindRemote
	case errors.As(err, &se):
		return KindStorage
	default:
		return KindInternal
	}
}
