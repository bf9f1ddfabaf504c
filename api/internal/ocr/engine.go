package ocr

import (
	"context"
	"fmt"
	"strings"

	"ocr-gateway/api/internal/config"
	"ocr-gateway/api/internal/ocr/gemini"
	"ocr-gateway/api/internal/ocr/openai"
	"ocr-gateway/api/internal/ocr/paddle"
	"ocr-gateway/api/internal/ocr/remote"
	"ocr-gateway/api/internal/ocr/tesseract"
	"ocr-gateway/api/internal/ocr/types"
	"ocr-gateway/api/internal/ocr/yandex"
)

// Engine is the opaque recognition capability: an image path in, pages out.
// Implementations must be safe for concurrent use.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (*types.RawResult, error)
}

// Open builds the one engine named by cfg.Engine. It is called once at
// startup; the returned engine is shared read-only by all requests. Engines
// holding native or network resources also implement io.Closer.
func Open(ctx context.Context, cfg *config.Config) (Engine, error) {
	var (
		eng Engine
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "paddle", "paddleocr":
		var e *paddle.Engine
		if e, err = paddle.New(cfg.PaddleCommand, cfg.Lang, cfg.PaddleWorkdir); err == nil {
			eng = e
		}
	case "remote", "http":
		var e *remote.Engine
		if e, err = remote.New(cfg.RemoteURL, cfg.RemoteAPIKey, cfg.Lang); err == nil {
			eng = e
		}
	case "tesseract":
		var e *tesseract.Engine
		if e, err = tesseract.New(cfg.TesseractLang); err == nil {
			eng = e
		}
	case "gemini":
		var e *gemini.Engine
		if e, err = gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err == nil {
			eng = e
		}
	case "openai", "gpt":
		var e *openai.Engine
		if e, err = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL); err == nil {
			eng = e
		}
	case "yandex":
		var e *yandex.Engine
		if e, err = yandex.New(yandex.Options{
			APIKey:     cfg.YandexAPIKey,
			OAuthToken: cfg.YandexOAuthToken,
			FolderID:   cfg.YandexFolderID,
			Model:      cfg.YandexModel,
			Langs:      cfg.YandexLangs,
			URL:        cfg.YandexURL,
		}); err == nil {
			eng = e
		}
	default:
		err = fmt.Errorf("%w: %q (use paddle, remote, tesseract, gemini, openai or yandex)", ErrUnknownEngine, cfg.Engine)
	}
	if err != nil {
		return nil, err
	}
	return eng, nil
}
