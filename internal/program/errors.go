package program

import (
	"errors"
)

// ErrorKind classifies failures of registration, lookup and tracing.
type ErrorKind uint8

const (
	ConfigurationError ErrorKind = iota + 1 // attribute cannot be classified
	SignatureError                          // exported signature breaks the calling convention
	LookupError                             // no class info for a class
	AttributeError                          // instance attribute is not visible
	TraceError                              // an exported function or kernel failed to trace
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigurationError:
		return "ConfigurationError"
	case SignatureError:
		return "SignatureError"
	case LookupError:
		return "LookupError"
	case AttributeError:
		return "AttributeError"
	case TraceError:
		return "TraceError"
	default:
		return "Error"
	}
}

var (
	ErrConfiguration     = errors.New("configuration error")
	ErrSignature         = errors.New("signature error")
	ErrClassInfoNotFound = errors.New("class info not found")
	ErrAttribute         = errors.New("attribute error")
	ErrTrace             = errors.New("trace error")
)

// Error is returned by every operation of this package. errors.Is matches
// it against the sentinel of its kind.
type Error struct {
	Kind  ErrorKind
	Class string // program class name, if known
	Attr  string // attribute or function name, if any
	Msg   string
	Err   error // underlying cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case ConfigurationError:
		return ErrConfiguration
	case SignatureError:
		return ErrSignature
	case LookupError:
		return ErrClassInfoNotFound
	case AttributeError:
		return ErrAttribute
	case TraceError:
		return ErrTrace
	default:
		return nil
	}
}

func newError(kind ErrorKind, class, attr, msg string) *Error {
	return &Error{Kind: kind, Class: class, Attr: attr, Msg: msg}
}

func wrapError(kind ErrorKind, class, attr, msg string, err error) *Error {
	return &Error{Kind: kind, Class: class, Attr: attr, Msg: msg, Err: err}
}
