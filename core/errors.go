package core

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a hard failure at the document boundary.
type ErrorCode int

const (
	ErrCodeSuccess ErrorCode = iota
	ErrCodeFile              // byte source unusable
	ErrCodeFormat            // structure unrecoverable even after rebuild
	ErrCodePassword          // encryption present, password rejected
	ErrCodeHandler           // unsupported security handler
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeSuccess:
		return "SUCCESS"
	case ErrCodeFile:
		return "FILE"
	case ErrCodeFormat:
		return "FORMAT"
	case ErrCodePassword:
		return "PASSWORD"
	case ErrCodeHandler:
		return "HANDLER"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Error is a classified failure carrying the operation that failed.
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("pdf: %s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("pdf: %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common errors
var (
	ErrNoHeader           = errors.New("no %PDF- header in the first 1024 bytes")
	ErrNoStartXRef        = errors.New("startxref not found")
	ErrBadXRef            = errors.New("malformed cross-reference section")
	ErrNoRoot             = errors.New("document catalog not found")
	ErrBadPassword        = errors.New("invalid password")
	ErrUnsupportedHandler = errors.New("unsupported security handler")
	ErrShortRead          = errors.New("byte source returned short read")
	ErrDepthExceeded      = errors.New("recursion depth exceeded")
)

// NewError wraps err with a code and operation name.
func NewError(code ErrorCode, op string, err error) error {
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf returns the code carried by err, ErrCodeSuccess for nil, and
// ErrCodeFormat for unclassified errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeFormat
}
