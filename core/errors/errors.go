package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all packaging failure modes
type ErrorCode string

const (
	// InvalidSource indicates the source descriptor matches no supported shape
	InvalidSource ErrorCode = "INVALID_SOURCE"
	// EmptySource indicates no modules were discovered
	EmptySource ErrorCode = "EMPTY_SOURCE"
	// NameCollision indicates two files map to the same logical name
	NameCollision ErrorCode = "NAME_COLLISION"
	// NoEntryPointFound indicates auto-detection found no runnable package
	NoEntryPointFound ErrorCode = "NO_ENTRY_POINT"
	// AmbiguousEntryPoint indicates auto-detection found several candidates.
	// It is only ever reported as a warning.
	AmbiguousEntryPoint ErrorCode = "AMBIGUOUS_ENTRY_POINT"
	// InvalidEntryReference indicates a malformed --entry value
	InvalidEntryReference ErrorCode = "INVALID_ENTRY_REFERENCE"
	// EncodingError indicates a serialization, compression or decoding failure
	EncodingError ErrorCode = "ENCODING_ERROR"
	// TemplateMissing indicates a bootstrap template is unavailable
	TemplateMissing ErrorCode = "TEMPLATE_MISSING"
	// ConfigInvalid indicates a config file or flag holds an unsupported value
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ShellRoundTrip indicates the assembled command does not reproduce the bootstrap text
	ShellRoundTrip ErrorCode = "SHELL_ROUND_TRIP"
)

// Sentinels for errors.Is checks against a code.
var (
	ErrInvalidSource         = &DashcError{Code: InvalidSource}
	ErrEmptySource           = &DashcError{Code: EmptySource}
	ErrNameCollision         = &DashcError{Code: NameCollision}
	ErrNoEntryPointFound     = &DashcError{Code: NoEntryPointFound}
	ErrAmbiguousEntryPoint   = &DashcError{Code: AmbiguousEntryPoint}
	ErrInvalidEntryReference = &DashcError{Code: InvalidEntryReference}
	ErrEncoding              = &DashcError{Code: EncodingError}
	ErrTemplateMissing       = &DashcError{Code: TemplateMissing}
	ErrConfigInvalid         = &DashcError{Code: ConfigInvalid}
	ErrShellRoundTrip        = &DashcError{Code: ShellRoundTrip}
)

// DashcError represents a packaging error with a code, message and the
// offending path or name
type DashcError struct {
	Code    ErrorCode
	Message string
	// Path is the file, directory or logical name the error is about (optional)
	Path  string
	cause error
}

// New creates a new DashcError
func New(code ErrorCode, path, message string) *DashcError {
	return &DashcError{
		Code:    code,
		Message: message,
		Path:    path,
	}
}

// Newf creates a new DashcError with a formatted message
func Newf(code ErrorCode, path, format string, args ...interface{}) *DashcError {
	return New(code, path, fmt.Sprintf(format, args...))
}

// Wrap creates a new DashcError around an underlying error
func Wrap(code ErrorCode, path, message string, cause error) *DashcError {
	return &DashcError{
		Code:    code,
		Message: message,
		Path:    path,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *DashcError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *DashcError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DashcError with the same code
func (e *DashcError) Is(target error) bool {
	t, ok := target.(*DashcError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsFatal reports whether the error aborts packaging
func (e *DashcError) IsFatal() bool {
	return e.Code != AmbiguousEntryPoint
}

// CodeOf returns the code of the first DashcError in err's chain, or "" if none
func CodeOf(err error) ErrorCode {
	for err != nil {
		if de, ok := err.(*DashcError); ok {
			return de.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
