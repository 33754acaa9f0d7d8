package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies document engine failures
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindMalformedDocument   ErrorKind = "malformed_document"
	KindCycleDetected       ErrorKind = "cycle_detected"
	KindDuplicateID         ErrorKind = "duplicate_id"
	KindInvalidAttributeKey ErrorKind = "invalid_attribute_key"
	KindImportLimitExceeded ErrorKind = "import_limit_exceeded"
	KindWriteFailure        ErrorKind = "write_failure"
)

// DocError is an error tied to one document in a resolution or partition
// operation
type DocError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *DocError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *DocError) Unwrap() error {
	return e.Err
}

// NewDocError wraps err as a classified document error
func NewDocError(kind ErrorKind, path string, err error) *DocError {
	return &DocError{Kind: kind, Path: path, Err: err}
}

// Errorf builds a classified document error from a format string
func Errorf(kind ErrorKind, path, format string, args ...any) *DocError {
	return &DocError{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}

// IsKind reports whether err is a DocError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *DocError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// IsNotFound reports whether err means a document does not exist
func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

// IsMalformed reports whether err means a document could not be parsed
func IsMalformed(err error) bool {
	return IsKind(err, KindMalformedDocument)
}

// Warning is a recoverable finding surfaced to the caller instead of
// aborting the operation
type Warning struct {
	Kind     ErrorKind `json:"kind"`
	Document string    `json:"document,omitempty"`
	Message  string    `json:"message"`
}

// Warnf builds a warning from a format string
func Warnf(kind ErrorKind, document, format string, args ...any) Warning {
	return Warning{Kind: kind, Document: document, Message: fmt.Sprintf(format, args...)}
}
