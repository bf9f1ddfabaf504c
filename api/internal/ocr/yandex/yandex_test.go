package yandex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ocr-gateway/api/internal/ocr/types"
)

const sampleResponse = `{
  "result": {
    "textAnnotation": {
      "width": "640", "height": "480",
      "blocks": [{
        "boundingBox": {"vertices": [{"x":"10","y":"10"},{"x":"200","y":"10"},{"x":"200","y":"60"},{"x":"10","y":"60"}]},
        "lines": [
          {"boundingBox": {"vertices": [{"x":"10","y":"10"},{"x":"200","y":"10"},{"x":"200","y":"30"},{"x":"10","y":"30"}]}, "text": "Привет"},
          {"boundingBox": {"vertices": [{"x":"10","y":"40"},{"x":"120","y":"40"},{"x":"120","y":"60"},{"x":"10","y":"60"}]}, "text": "мир"}
        ]
      }],
      "fullText": "Привет\nмир"
    },
    "page": "0"
  }
}`

func TestRecognize(t *testing.T) {
	var got request
	var auth, folder string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		folder = r.Header.Get("x-folder-id")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	img := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(img, []byte("\x89PNG\r\n\x1a\nxx"), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := New(Options{APIKey: "key", FolderID: "folder", Langs: "ru, en", URL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := e.Recognize(context.Background(), img)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if auth != "Api-Key key" || folder != "folder" {
		t.Errorf("auth=%q folder=%q", auth, folder)
	}
	if got.MimeType != "PNG" || got.Model != "page" || strings.Join(got.LanguageCodes, ",") != "ru,en" {
		t.Errorf("request = %+v", got)
	}

	if len(raw.Pages) != 1 || raw.Pages[0].Kind != types.PageList {
		t.Fatalf("pages = %+v", raw.Pages)
	}
	entries := raw.Pages[0].Entries
	if len(entries) != 2 || entries[0].Text != "Привет" || entries[1].Text != "мир" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[1].Box[2] != (types.Point{120, 60}) || entries[0].Score != nil {
		t.Errorf("entry = %+v", entries[1])
	}
}

func TestRecognizeEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	img := filepath.Join(t.TempDir(), "a.jpg")
	_ = os.WriteFile(img, []byte{0xFF, 0xD8, 0xFF}, 0o600)
	e, _ := New(Options{APIKey: "key", Model: "handwritten", URL: srv.URL})
	raw, err := e.Recognize(context.Background(), img)
	if err != nil || raw != nil {
		t.Errorf("raw = %+v err = %v", raw, err)
	}
	if e.langs[0] != "*" {
		t.Errorf("langs = %v", e.langs)
	}
}

func TestRecognizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"unauthenticated"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	img := filepath.Join(t.TempDir(), "a.jpg")
	_ = os.WriteFile(img, []byte{0xFF, 0xD8}, 0o600)
	e, _ := New(Options{APIKey: "key", URL: srv.URL})
	if _, err := e.Recognize(context.Background(), img); err == nil || !strings.Contains(err.Error(), "yandex ocr 401") {
		t.Errorf("err = %v", err)
	}
}

func TestMimeForYandex(t *testing.T) {
	if got := mimeForYandex([]byte("%PDF-1.7")); got != "PDF" {
		t.Errorf("pdf = %q", got)
	}
	if got := mimeForYandex([]byte("GIF89a")); got != "JPEG" {
		t.Errorf("fallback = %q", got)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Options{FolderID: "f"}); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := New(Options{OAuthToken: "oauth"}); err == nil {
		t.Error("expected error for OAuth token without folder")
	}
}

func TestRecognizeWithIAMToken(t *testing.T) {
	var exchanges, calls int
	iam := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["yandexPassportOauthToken"] != "oauth" {
			http.Error(w, "bad oauth", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"iamToken":  fmt.Sprintf("iam-%d", exchanges),
			"expiresAt": time.Now().Add(12 * time.Hour),
		})
	}))
	defer iam.Close()

	ocrSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// the first token is rejected as expired
		if r.Header.Get("Authorization") != "Bearer iam-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer ocrSrv.Close()

	img := filepath.Join(t.TempDir(), "a.jpg")
	_ = os.WriteFile(img, []byte{0xFF, 0xD8}, 0o600)
	e, err := New(Options{OAuthToken: "oauth", FolderID: "f", URL: ocrSrv.URL, IAMURL: iam.URL})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := e.Recognize(context.Background(), img)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if exchanges != 2 || calls != 2 || len(raw.Pages[0].Entries) != 2 {
		t.Errorf("exchanges=%d calls=%d raw=%+v", exchanges, calls, raw)
	}

	// cached token is reused
	if _, err := e.Recognize(context.Background(), img); err != nil {
		t.Fatal(err)
	}
	if exchanges != 2 {
		t.Errorf("exchanges = %d, want cached token", exchanges)
	}
}
