package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ocr-gateway/api/internal/app"
	"ocr-gateway/api/internal/config"
	"ocr-gateway/api/internal/handle"
	"ocr-gateway/api/internal/httpserver"
	"ocr-gateway/api/internal/telegram"
	"ocr-gateway/api/internal/util"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config (env overrides it)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := util.SetupLogger(cfg.Env)
	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		log.Error("TELEGRAM_BOT_TOKEN is empty")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeFn, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer closeFn()

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("telegram init failed", "err", err)
		os.Exit(1)
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot:      bot,
		Service:  svc,
		Log:      log,
		Timeout:  cfg.Timeout,
		MaxBytes: cfg.MaxUploadBytes(),
	}

	mux := http.NewServeMux()
	handle.New(svc, log, cfg.Timeout, cfg.MaxUploadBytes()).Register(mux)
	srv := httpserver.New(cfg.Addr(), httpserver.RequestLog(log)(mux), cfg.MaxConns, cfg.Timeout+time.Minute, log)

	// --- Choose mode: Webhook vs Polling ---
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		err = startWebhookMode(ctx, srv, mux, bot, r, webhookURL, log)
	} else {
		err = startPollingMode(ctx, srv, bot, r, log)
	}
	if err != nil {
		log.Error("bot stopped", "err", err)
		closeFn()
		os.Exit(1)
	}
}

// ---------------- Modes -----------------

func startWebhookMode(ctx context.Context, srv *httpserver.Server, mux *http.ServeMux, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string, log *slog.Logger) error {
	// secret webhook path
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			log.Warn("bad webhook update", "err", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		// answer Telegram right away; recognition can take minutes
		w.WriteHeader(http.StatusOK)
		go r.HandleUpdate(context.WithoutCancel(req.Context()), *upd)
	})

	log.Info("webhook mode", "path", path)
	return srv.Run(ctx)
}

func startPollingMode(ctx context.Context, srv *httpserver.Server, bot *tgbotapi.BotAPI, r *telegram.Router, log *slog.Logger) error {
	// the HTTP side still serves /health and /ocr
	return serveAlongside(ctx, srv.Run, func(ctx context.Context) {
		runPolling(ctx, bot, log, func(upd tgbotapi.Update) {
			r.HandleUpdate(ctx, upd)
		})
	}, log)
}

// serveAlongside runs serve next to poll. A serve failure stops poll and is
// returned; otherwise poll runs until ctx is done.
func serveAlongside(ctx context.Context, serve func(context.Context) error, poll func(context.Context), log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		err := serve(ctx)
		if err != nil {
			log.Error("http server failed, stopping polling", "err", err)
			cancel()
		}
		errCh <- err
	}()

	poll(ctx)
	cancel()
	return <-errCh
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return 2 * time.Second
		}
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, log *slog.Logger, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			log.Warn("polling error", "err", err, "retry_in", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ---------------- Helpers -----------------

func shortHash(s string) string {
	// FNV-1a, stable per token; not a secret on its own
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
