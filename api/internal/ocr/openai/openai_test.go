package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ocr-gateway/api/internal/ocr/types"
)

func writeImage(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "x.png")
	if err := os.WriteFile(p, []byte("\x89PNG\r\n\x1a\nrest"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRecognize(t *testing.T) {
	var gotAuth, gotModel, gotURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model
		if len(body.Messages) == 2 {
			gotURL = string(body.Messages[1].Content)
		}
		answer := "```json\n[[[[0,0],[4,0],[4,2],[0,2]],[\"hi\",0.5]]]\n```"
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": answer}}},
		})
	}))
	defer srv.Close()

	e, err := New("sk-test", "gpt-4o-mini", srv.URL+"/v1/")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := e.Recognize(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if gotAuth != "Bearer sk-test" || gotModel != "gpt-4o-mini" {
		t.Errorf("auth=%q model=%q", gotAuth, gotModel)
	}
	if !strings.Contains(gotURL, "data:image/png;base64,") {
		t.Errorf("image part = %s", gotURL)
	}
	if len(raw.Pages) != 1 || raw.Pages[0].Kind != types.PageList || raw.Pages[0].Entries[0].Text != "hi" {
		t.Errorf("raw = %+v", raw)
	}
}

func TestRecognizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e, _ := New("sk-test", "m", srv.URL)
	_, err := e.Recognize(context.Background(), writeImage(t))
	if err == nil || !strings.Contains(err.Error(), "openai 429") {
		t.Errorf("err = %v", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(" ", "m", ""); err == nil {
		t.Error("expected error for empty key")
	}
	e, err := New("k", "m", "")
	if err != nil || e.baseURL != defaultBaseURL || e.Name() != "openai" {
		t.Errorf("e = %+v err = %v", e, err)
	}
}
