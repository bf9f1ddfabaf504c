//go:build tesseract

// Package tesseract wraps the Tesseract engine via gosseract. It requires
// libtesseract to be installed and the "tesseract" build tag:
//
//	go build -tags tesseract ./...
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"ocr-gateway/api/internal/ocr/types"
)

// Engine creates one gosseract client per call; clients are not safe for
// concurrent use.
type Engine struct {
	langs         []string
	clientFactory func() *gosseract.Client
}

// New takes languages as a "+" separated string, e.g. "eng+chi_sim".
func New(lang string) (*Engine, error) {
	var langs []string
	for _, l := range strings.Split(lang, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return &Engine{langs: langs, clientFactory: gosseract.NewClient}, nil
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize returns one old-style page with a detection per text line.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (*types.RawResult, error) {
	c := e.clientFactory()
	defer c.Close()

	if len(e.langs) > 0 {
		if err := c.SetLanguage(e.langs...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize lines: %w", err)
	}
	entries := make([]types.Detection, 0, len(boxes))
	for _, b := range boxes {
		score := b.Confidence / 100.0
		r := b.Box
		entries = append(entries, types.Detection{
			Box: []types.Point{
				{float64(r.Min.X), float64(r.Min.Y)},
				{float64(r.Max.X), float64(r.Min.Y)},
				{float64(r.Max.X), float64(r.Max.Y)},
				{float64(r.Min.X), float64(r.Max.Y)},
			},
			Text:  strings.TrimSpace(b.Word),
			Score: &score,
		})
	}
	return &types.RawResult{Pages: []types.Page{types.ListPage(entries...)}}, nil
}

func (e *Engine) Close() error { return nil }
