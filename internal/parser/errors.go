package parser

import (
	"errors"
	"fmt"
)

// Parse failure kinds. Every error returned by Parse is an *Error that
// unwraps to exactly one of these.
var (
	// ErrAttributeSyntax reports a malformed KEY=VALUE segment or an
	// unterminated quoted value.
	ErrAttributeSyntax = errors.New("attribute syntax error")

	// ErrMissingURI reports a stream tag whose URI never arrived.
	ErrMissingURI = errors.New("missing URI")

	// ErrInvalidAttributeValue reports an attribute that is absent or does
	// not have the required numeric or resolution shape.
	ErrInvalidAttributeValue = errors.New("invalid attribute value")
)

// Error locates a parse failure in the manifest.
type Error struct {
	// Line is the 1-based line number of the offending tag
	Line int
	// Tag is the tag name without the leading '#'
	Tag string
	// Key is the attribute name, if the failure concerns a single attribute
	Key string
	// Err is one of ErrAttributeSyntax, ErrMissingURI, ErrInvalidAttributeValue
	Err error

	detail error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("line %d", e.Line)
	if e.Tag != "" {
		msg += ": " + e.Tag
	}
	if e.Key != "" {
		msg += ": " + e.Key
	}
	msg += ": " + e.Err.Error()
	if e.detail != nil {
		msg += ": " + e.detail.Error()
	}
	return msg
}

// Unwrap returns the failure kind and, when present, the underlying cause
// (for attribute syntax errors an *attribute.SyntaxError).
func (e *Error) Unwrap() []error {
	if e.detail == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.detail}
}

func invalidValue(l Line, key string, format string, args ...any) *Error {
	return &Error{
		Line:   l.Number,
		Tag:    l.Name,
		Key:    key,
		Err:    ErrInvalidAttributeValue,
		detail: fmt.Errorf(format, args...),
	}
}
