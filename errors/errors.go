// Package errors defines the structured error taxonomy shared by every layer
// of the service.  Categories drive the HTTP status mapping in the server
// package; sentinels identify individual failure modes.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryValidation Category = "validation"
	CategoryDecode     Category = "decode"
	CategoryEncode     Category = "encode"
	CategoryPipeline   Category = "pipeline"
	CategoryStorage    Category = "storage"
	CategoryInput      Category = "input"
	CategoryConfig     Category = "config"
)

// Error is the structured error type used throughout the module.
type Error struct {
	Category Category
	Op       string // operation name
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given category and operation context.
func New(category Category, op string, err error) *Error {
	return &Error{Category: category, Op: op, Err: err}
}

// Wrap wraps an existing error with context.  Returns nil when err is nil.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Category == cat
	}
	return false
}

// Sentinel errors for authentication and validation failures.  These are
// detected before any side effect and surfaced to the client verbatim.
var (
	ErrTokenMissing   = errors.New("no session token")
	ErrTokenInvalid   = errors.New("invalid session token")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrDuplicateUser  = errors.New("username already exists")
	ErrOversizeUpload = errors.New("upload exceeds size limit")
)

// Sentinel errors for processing and storage failures.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrEmptyInput        = errors.New("empty input")
	ErrKeyNotFound       = errors.New("storage key not found")
)
