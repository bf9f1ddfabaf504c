package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ocr-gateway/api/internal/ocr"
	"ocr-gateway/api/internal/ocr/types"
)

// BotAPI is the slice of *tgbotapi.BotAPI the router uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Processor is the part of ocr.Service the router needs.
type Processor interface {
	Process(ctx context.Context, req ocr.Request) (types.Result, error)
	EngineName() string
}

type Router struct {
	Bot     BotAPI
	Service Processor
	Log     *slog.Logger

	// Timeout bounds one recognition; zero means no extra bound.
	Timeout time.Duration
	// MaxBytes caps a downloaded file; zero means no cap.
	MaxBytes int64
}

func (r *Router) logger() *slog.Logger {
	if r.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Log
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID

	if msg.IsCommand() {
		r.HandleCommand(msg)
		return
	}
	if src, ok := imageSource(msg); ok {
		r.recognize(ctx, cid, msg.MessageID, src)
		return
	}
	r.send(cid, "Send a photo or an image file and I will reply with the recognized text.")
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, "Send a photo or an image file and I will reply with the recognized text.\nCommands: /health, /engine")
	case "health":
		r.send(cid, "✅ OK")
	case "engine":
		m := tgbotapi.NewMessage(cid, "Engine: *"+esc(r.Service.EngineName())+"*")
		m.ParseMode = tgbotapi.ModeMarkdown
		r.sendMsg(m)
	default:
		r.send(cid, "Unknown command")
	}
}

func (r *Router) send(chatID int64, text string) {
	r.sendMsg(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendMsg(m tgbotapi.MessageConfig) {
	if _, err := r.Bot.Send(m); err != nil {
		r.logger().Warn("telegram send failed", "chat_id", m.ChatID, "err", err)
	}
}

func (r *Router) SendResult(chatID int64, replyTo int, res types.Result) {
	m := tgbotapi.NewMessage(chatID, formatResult(res))
	m.ReplyToMessageID = replyTo
	r.sendMsg(m)
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("OCR error: %v", err))
}

var _ BotAPI = (*tgbotapi.BotAPI)(nil)
