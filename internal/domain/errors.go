package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the entry being added is already present.
	ErrConflict = errors.New("already exists")
	// ErrAbsent means the entry being removed is not present.
	ErrAbsent = errors.New("not present")
	// ErrUnauthorized means the caller could not be authenticated.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the caller is authenticated but not allowed.
	ErrForbidden = errors.New("permission denied")
)

// ValidationError collects field-level input errors. The empty field name
// holds errors that are not tied to a single field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// Empty reports whether no errors were recorded.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// OrNil returns v as an error, or nil when nothing was recorded.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(v.Fields[k], ", ")
		if k != "" {
			msg = k + ": " + msg
		}
		parts = append(parts, msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
