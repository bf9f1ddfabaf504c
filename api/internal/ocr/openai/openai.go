package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ocr-gateway/api/internal/ocr/prompt"
	"ocr-gateway/api/internal/ocr/types"
	"ocr-gateway/api/internal/util"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Engine asks an OpenAI vision model for old-style detections through the
// chat completions API.
type Engine struct {
	APIKey  string
	Model   string
	baseURL string
	httpc   *http.Client
}

func New(key, model, baseURL string) (*Engine, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY is empty")
	}
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Engine{
		APIKey:  key,
		Model:   strings.TrimSpace(model),
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

func (e *Engine) Name() string { return "openai" }

func (e *Engine) Recognize(ctx context.Context, imagePath string) (*types.RawResult, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	dataURL := "data:" + util.PickMIME("", img) + ";base64," + base64.StdEncoding.EncodeToString(img)

	body := map[string]any{
		"model": e.Model,
		"messages": []any{
			map[string]any{"role": "system", "content": prompt.System},
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": prompt.User},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL, "detail": "high"}},
				},
			},
		},
		"temperature": 0,
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("openai %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}
	return prompt.DecodeAnswer("openai", strings.TrimSpace(raw.Choices[0].Message.Content))
}
