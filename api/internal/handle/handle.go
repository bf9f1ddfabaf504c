package handle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"ocr-gateway/api/internal/ocr"
	"ocr-gateway/api/internal/ocr/types"
)

// Processor is the part of ocr.Service the handlers need.
type Processor interface {
	Process(ctx context.Context, req ocr.Request) (types.Result, error)
	EngineName() string
}

type Handle struct {
	svc       Processor
	log       *slog.Logger
	timeout   time.Duration
	maxUpload int64
}

// New returns handlers backed by svc. timeout caps every request deadline,
// maxUpload caps the request body in bytes (0 disables the cap).
func New(svc Processor, log *slog.Logger, timeout time.Duration, maxUpload int64) *Handle {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handle{
		svc:       svc,
		log:       log,
		timeout:   timeout,
		maxUpload: maxUpload,
	}
}

// Register mounts the handlers on mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ocr", h.OCR)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
