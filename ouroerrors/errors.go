// Package ouroerrors provides structured error types for ouroboros.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between different categories
// of errors and implement appropriate recovery strategies.
//
// # Error Categories
//
//   - ParseError: YAML parsing failures and structural issues
//   - NotFoundError: a schema, operation, channel or message is absent
//   - DuplicateError: creating an entity that already exists
//   - ImportError: an import was rejected with a batch of validation issues
//
// Domain errors (not-found, duplicate, import) propagate to the CRUD service
// boundary and are translated to structured API responses. Infrastructure
// errors are caught and logged at the startup orchestrator, never failing
// host startup.
package ouroerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrParse indicates a parsing failure occurred.
	ErrParse = errors.New("parse error")

	// ErrNotFound indicates a named entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a named entity already exists.
	ErrDuplicate = errors.New("already exists")

	// ErrImport indicates an import was rejected by validation.
	ErrImport = errors.New("import rejected")
)

// ParseError represents a failure to parse a specification document.
// The original file is left untouched when this error is returned.
type ParseError struct {
	// Path is the file path or source identifier.
	Path string
	// Err is the underlying decode error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parse: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// NotFoundError reports that a named entity is absent after all name
// resolution fallbacks were tried.
type NotFoundError struct {
	// Kind is the entity kind: "schema", "operation", "channel", "message".
	Kind string
	// Name is the name as attempted by the caller.
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound creates a NotFoundError for the given entity kind and name.
func NotFound(kind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}

// DuplicateError reports an attempt to create an entity that already exists.
// It is raised before any write occurs.
type DuplicateError struct {
	// Kind is the entity kind: "schema", "operation", "channel", "message".
	Kind string
	// Name is the conflicting name (or "METHOD path" for operations).
	Name string
}

// Error implements the error interface.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// Is reports whether target is ErrDuplicate.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// Duplicate creates a DuplicateError for the given entity kind and name.
func Duplicate(kind, name string) *DuplicateError {
	return &DuplicateError{Kind: kind, Name: name}
}

// Issue is a single import validation finding. Import validation is
// exhaustive: every problem in the document is collected before the batch is
// returned, and an invalid import is never partially applied.
type Issue struct {
	// Location is the document location (e.g. "paths./users.get").
	Location string `json:"location"`
	// Code is a stable machine-readable error code (e.g. "ERR_METHOD").
	Code string `json:"errorCode"`
	// Message is the human-readable description.
	Message string `json:"message"`
}

// ImportError carries the full batch of validation issues for a rejected
// import.
type ImportError struct {
	// Issues contains every problem found, in document order.
	Issues []Issue
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	return fmt.Sprintf("import rejected with %d issue(s)", len(e.Issues))
}

// Is reports whether target is ErrImport.
func (e *ImportError) Is(target error) bool { return target == ErrImport }
