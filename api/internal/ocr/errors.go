package ocr

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is reported when the engine does not answer within the bound.
	ErrTimeout = errors.New("recognition timed out")
	// ErrEmptyUpload is returned for zero-byte uploads.
	ErrEmptyUpload = errors.New("uploaded file is empty")
	// ErrUnknownEngine is returned by Open for unsupported engine names.
	ErrUnknownEngine = errors.New("unknown ocr engine")
)

// UploadError means the upload could not be persisted; the engine was never called.
type UploadError struct {
	Op  string
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload %s: %v", e.Op, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// RecognitionError wraps any failure raised by (or while waiting for) the engine.
type RecognitionError struct {
	Engine string
	Err    error
}

func (e *RecognitionError) Error() string { return fmt.Sprintf("%s: %v", e.Engine, e.Err) }
func (e *RecognitionError) Unwrap() error { return e.Err }
