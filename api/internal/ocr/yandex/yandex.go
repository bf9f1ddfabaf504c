package yandex

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
	"strconv"
	"strings"
	"time"

	"ocr-gateway/api/internal/ocr/types"
	"ocr-gateway/api/internal/util"
)

const defaultURL = "https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText"

// Engine calls Yandex Vision OCR and reports every recognized line as an
// old-style detection with its bounding box.
type Engine struct {
	apiKey   string
	iamc     *IamClient
	folderID string
	model    string
	langs    []string
	url      string
	httpc    *http.Client
}

// Options configures the engine. Either APIKey or OAuthToken must be set;
// the API key wins when both are.
type Options struct {
	APIKey     string
	OAuthToken string
	FolderID   string
	Model      string
	Langs      string // comma separated, "*" for auto
	URL        string
	IAMURL     string
}

func New(o Options) (*Engine, error) {
	apiKey := strings.TrimSpace(o.APIKey)
	oauth := strings.TrimSpace(o.OAuthToken)
	if apiKey == "" && oauth == "" {
		return nil, errors.New("YANDEX_API_KEY or YANDEX_OAUTH_TOKEN is required")
	}
	if apiKey == "" && strings.TrimSpace(o.FolderID) == "" {
		return nil, errors.New("YANDEX_FOLDER_ID is required with an OAuth token")
	}
	model, url, langs := o.Model, o.URL, o.Langs
	if strings.TrimSpace(model) == "" {
		model = "page"
	}
	if url = strings.TrimSpace(url); url == "" {
		url = defaultURL
	}
	var codes []string
	for _, l := range strings.Split(langs, ",") {
		if l = strings.TrimSpace(l); l != "" {
			codes = append(codes, l)
		}
	}
	if len(codes) == 0 {
		codes = []string{"*"}
	}
	e := &Engine{
		apiKey:   apiKey,
		folderID: strings.TrimSpace(o.FolderID),
		model:    model,
		langs:    codes,
		url:      url,
		httpc:    &http.Client{Timeout: 2 * time.Minute},
	}
	if apiKey == "" {
		e.iamc = NewIamClient(oauth, o.IAMURL)
	}
	return e, nil
}

func (e *Engine) Name() string { return "yandex" }

type request struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`      // "JPEG" | "PNG" | "PDF"
	LanguageCodes []string `json:"languageCodes,omitempty"` // ["ru","en"] or ["*"]
	Model         string   `json:"model,omitempty"`         // e.g. "page", "handwritten"
}

// coord accepts both 12 and "12": the API renders int64 as strings.
type coord float64

func (c *coord) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*c = coord(f)
	return nil
}

type boundingBox struct {
	Vertices []struct {
		X coord `json:"x"`
		Y coord `json:"y"`
	} `json:"vertices"`
}

type response struct {
	Result *struct {
		TextAnnotation *struct {
			FullText string `json:"fullText,omitempty"`
			Blocks   []struct {
				Lines []struct {
					BoundingBox boundingBox `json:"boundingBox"`
					Text        string      `json:"text,omitempty"`
				} `json:"lines,omitempty"`
			} `json:"blocks,omitempty"`
		} `json:"textAnnotation,omitempty"`
		Page string `json:"page,omitempty"`
	} `json:"result,omitempty"`
}

func (e *Engine) Recognize(ctx context.Context, imagePath string) (*types.RawResult, error) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	payload, _ := json.Marshal(request{
		Content:       base64.StdEncoding.EncodeToString(image),
		MimeType:      mimeForYandex(image),
		LanguageCodes: e.langs,
		Model:         e.model,
	})

	resp, err := e.post(ctx, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && e.iamc != nil {
		// one retry with a fresh IAM token
		resp.Body.Close()
		e.iamc.Invalidate()
		if resp, err = e.post(ctx, payload); err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("yandex ocr %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("yandex ocr: decode: %w", err)
	}
	return out.toRaw(), nil
}

func (e *Engine) post(ctx context.Context, payload []byte) (*http.Response, error) {
	auth := "Api-Key " + e.apiKey
	if e.iamc != nil {
		tok, err := e.iamc.Token(ctx)
		if err != nil {
			return nil, err
		}
		auth = "Bearer " + tok
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	if e.folderID != "" {
		req.Header.Set("x-folder-id", e.folderID)
	}
	req.Header.Set("x-data-logging-enabled", "false")
	return e.httpc.Do(req)
}

func (r *response) toRaw() *types.RawResult {
	if r.Result == nil || r.Result.TextAnnotation == nil {
		return nil
	}
	var entries []types.Detection
	for _, b := range r.Result.TextAnnotation.Blocks {
		for _, l := range b.Lines {
			var box []types.Point
			for _, v := range l.BoundingBox.Vertices {
				box = append(box, types.Point{float64(v.X), float64(v.Y)})
			}
			entries = append(entries, types.Detection{Box: box, Text: l.Text})
		}
	}
	return &types.RawResult{Pages: []types.Page{types.ListPage(entries...)}}
}

func mimeForYandex(b []byte) string {
	switch util.SniffMimeHTTP(b) {
	case "image/png":
		return "PNG"
	case "application/pdf":
		return "PDF"
	default:
		return "JPEG"
	}
}
