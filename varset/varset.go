// ABOUTME: VariableSet data model: a named bundle of substitution variables addressed by id.
// ABOUTME: Defines the on-disk record shape and the store's error taxonomy.
package varset

import (
	"errors"
	"fmt"
	"strings"
)

// VariableSet is a named bundle of variables. ID is assigned by the store and
// is never part of the persisted record; the record file name carries it.
type VariableSet struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Variables *Object `json:"variables"`
}

// record is the persisted shape of one variable set file.
type record struct {
	Name      string  `json:"name"`
	Variables *Object `json:"variables"`
}

// Entry is the value side of the id -> set mapping returned by List.
type Entry struct {
	Name      string  `json:"name"`
	Variables *Object `json:"variables"`
}

var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("variable set not found")
	// ErrInvalidID is returned for ids that cannot name a record file.
	ErrInvalidID = errors.New("invalid variable set id")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// WriteError reports an I/O failure while persisting a record.
type WriteError struct {
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write variable set %s: %v", e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// validateID rejects ids that could escape the record directory or collide
// with temp files.
func validateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidID)
	case strings.Contains(id, ".."):
		return fmt.Errorf("%w: must not contain '..'", ErrInvalidID)
	case strings.ContainsAny(id, "/\\"):
		return fmt.Errorf("%w: must not contain path separators", ErrInvalidID)
	case strings.HasPrefix(id, "."):
		return fmt.Errorf("%w: must not start with '.'", ErrInvalidID)
	case strings.ContainsRune(id, 0):
		return fmt.Errorf("%w: must not contain NUL", ErrInvalidID)
	}
	return nil
}
