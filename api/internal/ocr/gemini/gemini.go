package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ocr-gateway/api/internal/ocr/prompt"
	"ocr-gateway/api/internal/ocr/types"
	"ocr-gateway/api/internal/util"
)

// generateFunc sends one prompt to the named model.
type generateFunc func(ctx context.Context, model string, parts ...genai.Part) (*genai.GenerateContentResponse, error)

// Engine asks a Gemini vision model for old-style detections. Each
// recognition is exactly one model call.
type Engine struct {
	client   *genai.Client
	Model    string
	generate generateFunc
}

func New(ctx context.Context, apiKey, model string) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Engine{
		client: cl,
		Model:  strings.TrimSpace(model),
		generate: func(ctx context.Context, model string, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
			m := cl.GenerativeModel(model)
			configure(m)
			return m.GenerateContent(ctx, parts...)
		},
	}, nil
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// configure pins the model to deterministic JSON output under the OCR prompt.
func configure(m *genai.GenerativeModel) {
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
}

func (e *Engine) Recognize(ctx context.Context, imagePath string) (*types.RawResult, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	resp, err := e.generate(ctx, e.Model,
		genai.Text(prompt.User),
		&genai.Blob{MIMEType: util.PickMIME("", img), Data: img},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return prompt.DecodeAnswer("gemini", firstText(resp))
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return strings.TrimSpace(string(t))
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
