package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is wrapped with the resource name, e.g. "title not found".
	ErrNotFound = errors.New("not found")
	// ErrDelivery means the confirmation mail could not be handed to the
	// transport. It is never retried here.
	ErrDelivery = errors.New("mail delivery failed")
)

// ValidationError carries field-level messages keyed by the JSON field name.
// Problems that belong to no single field use NonFieldErrors.
type ValidationError struct {
	Fields map[string]string
}

const NonFieldErrors = "non_field_errors"

func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func notFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// lookupError maps a First() failure to ErrNotFound or a wrapped store error.
func lookupError(resource string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(resource)
	}
	return fmt.Errorf("failed to fetch %s: %w", resource, err)
}

// writeError translates constraint violations raised by the store into
// ValidationError; anything else is returned wrapped.
func writeError(action string, err error, duplicateField, duplicateMessage string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewFieldError(duplicateField, duplicateMessage)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
