package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Decoding errors.
var (
	ErrEmptyMessage = errors.New("empty message")
	ErrMissingID    = errors.New("message has no id")
)

// CommandError is returned when the ICL answers a command with errors.
type CommandError struct {
	ID      uint32
	Command string
	Errors  []string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s (id %d) failed: %s", e.Command, e.ID, strings.Join(e.Errors, "; "))
}

// FieldErrorKind classifies a result field failure.
type FieldErrorKind uint8

const (
	// FieldMissing indicates the field is absent from the results.
	FieldMissing FieldErrorKind = iota

	// FieldType indicates the field could not be converted.
	FieldType
)

// String returns the kind name.
func (k FieldErrorKind) String() string {
	switch k {
	case FieldMissing:
		return "MISSING"
	case FieldType:
		return "TYPE"
	default:
		return "UNKNOWN"
	}
}

// FieldError reports a result field that is missing or has the wrong type.
type FieldError struct {
	Field string
	Kind  FieldErrorKind
	Want  string
	Value any
}

func (e *FieldError) Error() string {
	if e.Kind == FieldMissing {
		return fmt.Sprintf("result field %q missing", e.Field)
	}
	return fmt.Sprintf("result field %q: cannot convert %T(%v) to %s", e.Field, e.Value, e.Value, e.Want)
}

// IsMissingField reports whether err is a FieldError for an absent field.
func IsMissingField(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe) && fe.Kind == FieldMissing
}
