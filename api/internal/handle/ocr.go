package handle

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ocr-gateway/api/internal/ocr"
)

const (
	fileField     = "file"
	maxFormMemory = 8 << 20
)

// OCR accepts a multipart upload in the "file" field and answers with the
// normalized recognition result.
func (h *Handle) OCR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+strconv.FormatInt(tooBig.Limit, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile(fileField)
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "file" field`)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline(r))
	defer cancel()

	res, err := h.svc.Process(ctx, ocr.Request{Body: file, Filename: hdr.Filename, Source: "http"})
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			h.log.Error("ocr request failed", "filename", hdr.Filename, "status", code, "err", err)
		}
		writeError(w, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// deadline honours X-Request-Timeout (or ?timeoutSec=) in seconds, but never
// beyond the configured timeout.
func (h *Handle) deadline(r *http.Request) time.Duration {
	d := h.timeout
	ts := r.Header.Get("X-Request-Timeout")
	if ts == "" {
		ts = r.URL.Query().Get("timeoutSec")
	}
	if v, _ := strconv.Atoi(ts); v > 0 {
		if req := time.Duration(v) * time.Second; d <= 0 || req < d {
			d = req
		}
	}
	if d <= 0 {
		d = 10 * time.Minute
	}
	return d
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ocr.ErrEmptyUpload):
		return http.StatusBadRequest
	case errors.Is(err, ocr.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
