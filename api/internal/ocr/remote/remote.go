package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ocr-gateway/api/internal/ocr/types"
)

// Engine posts the image to a remote runner that answers with the raw
// engine result (a JSON list of pages).
type Engine struct {
	url    string
	apiKey string
	lang   string
	httpc  *http.Client
}

func New(url, apiKey, lang string) (*Engine, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("remote: OCR_REMOTE_URL is empty")
	}
	return &Engine{
		url:    url,
		apiKey: strings.TrimSpace(apiKey),
		lang:   lang,
		// deadline comes from the request context
		httpc: &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

func (e *Engine) Name() string { return "remote" }

func (e *Engine) Recognize(ctx context.Context, imagePath string) (*types.RawResult, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(img); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if e.lang != "" {
		_ = writer.WriteField("lang", e.lang)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("remote ocr %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var raw *types.RawResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return raw, nil
}
