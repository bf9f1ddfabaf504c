package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ocr-gateway/api/internal/ocr/types"
)

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ocr-1.png")
	if err := os.WriteFile(path, []byte("\x89PNG fake"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("authorization = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "\x89PNG fake" || header.Filename != "ocr-1.png" {
			t.Errorf("unexpected upload %q %q", header.Filename, data)
		}
		if got := r.FormValue("lang"); got != "ch" {
			t.Errorf("lang = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"rec_texts": ["a", "", "b"]}]`))
	}))
	defer srv.Close()

	e, err := New(srv.URL, "k", "ch")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := e.Recognize(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(raw.Pages) != 1 || raw.Pages[0].Kind != types.PageDict || len(raw.Pages[0].Texts) != 3 {
		t.Errorf("pages = %+v", raw.Pages)
	}
}

func TestRecognizeNullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	e, _ := New(srv.URL, "", "")
	raw, err := e.Recognize(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if raw != nil {
		t.Errorf("raw = %+v, want nil", raw)
	}
}

func TestRecognizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e, _ := New(srv.URL, "", "")
	_, err := e.Recognize(context.Background(), writeImage(t))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New(" ", "", ""); err == nil {
		t.Fatal("expected error")
	}
}
