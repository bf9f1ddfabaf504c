//go:build !tesseract

// Package tesseract wraps the Tesseract engine via gosseract.
//
// This is the stub used when the "tesseract" build tag is not set; New
// returns ErrNotEnabled. Rebuild with -tags tesseract (libtesseract required).
package tesseract

import (
	"context"
	"errors"

	"ocr-gateway/api/internal/ocr/types"
)

// ErrNotEnabled is returned when Tesseract support was not compiled in.
var ErrNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags tesseract")

type Engine struct{}

func New(lang string) (*Engine, error) {
	return nil, ErrNotEnabled
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(ctx context.Context, imagePath string) (*types.RawResult, error) {
	return nil, ErrNotEnabled
}

func (e *Engine) Close() error { return nil }
