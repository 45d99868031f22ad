package core

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// ParseError: the query text does not match any command shape, or a
	// clause inside it is malformed.
	ParseError ErrorKind = iota
	// SchemaError: an unknown table or column is referenced.
	SchemaError
	// ValidationError: a value does not parse under its column type, a null
	// is given for a non-nullable column, or a date range is decreasing.
	ValidationError
	// PreconditionError: the command is well formed but cannot apply, e.g. an
	// empty projection or a cartesian product of a table with itself.
	PreconditionError
)

func (k ErrorKind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case SchemaError:
		return "SchemaError"
	case ValidationError:
		return "ValidationError"
	case PreconditionError:
		return "PreconditionError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a classified query failure. Its message is the report shown to
// the user, so it carries no kind prefix.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a classified error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
