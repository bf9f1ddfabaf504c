package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ocr-gateway/api/internal/ocr"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

type fileSource struct {
	FileID   string
	Filename string
}

// imageSource picks the largest photo size, or an image document.
func imageSource(msg *tgbotapi.Message) (fileSource, bool) {
	if n := len(msg.Photo); n > 0 {
		ph := msg.Photo[n-1]
		return fileSource{FileID: ph.FileID, Filename: ph.FileUniqueID + ".jpg"}, true
	}
	if d := msg.Document; d != nil && strings.HasPrefix(strings.ToLower(d.MimeType), "image/") {
		return fileSource{FileID: d.FileID, Filename: d.FileName}, true
	}
	return fileSource{}, false
}

func (r *Router) recognize(ctx context.Context, chatID int64, replyTo int, src fileSource) {
	log := r.logger().With("chat_id", chatID, "file_id", src.FileID)

	url, err := r.Bot.GetFileDirectURL(src.FileID)
	if err != nil {
		log.Error("get file url failed", "err", err)
		r.SendError(chatID, err)
		return
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	resp, err := download(ctx, url)
	if err != nil {
		log.Error("download failed", "err", err)
		r.SendError(chatID, err)
		return
	}
	defer resp.Body.Close()

	var rd io.Reader = resp.Body
	if r.MaxBytes > 0 {
		if resp.ContentLength > r.MaxBytes {
			log.Warn("file rejected", "size", resp.ContentLength, "max", r.MaxBytes)
			r.SendError(chatID, fmt.Errorf("file is too large: %d bytes (max %d)", resp.ContentLength, r.MaxBytes))
			return
		}
		// unknown length: reading past the cap fails instead of truncating
		rd = http.MaxBytesReader(nil, resp.Body, r.MaxBytes)
	}

	res, err := r.Service.Process(ctx, ocr.Request{Body: rd, Filename: src.Filename, Source: "telegram"})
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	r.SendResult(chatID, replyTo, res)
}

func download(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download: status %d", resp.StatusCode)
	}
	return resp, nil
}
