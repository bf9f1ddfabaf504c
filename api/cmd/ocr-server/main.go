package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ocr-gateway/api/internal/app"
	"ocr-gateway/api/internal/config"
	"ocr-gateway/api/internal/handle"
	"ocr-gateway/api/internal/httpserver"
	"ocr-gateway/api/internal/util"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config (env overrides it)")
	host := flag.String("host", "", "listen host (overrides HOST)")
	port := flag.String("port", "", "listen port (overrides PORT)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != "" {
		cfg.Port = *port
	}
	log := util.SetupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeFn, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer closeFn()

	h := handle.New(svc, log, cfg.Timeout, cfg.MaxUploadBytes())
	mux := http.NewServeMux()
	h.Register(mux)

	// writes must outlive the slowest recognition plus the upload itself
	srv := httpserver.New(cfg.Addr(), httpserver.CORS(httpserver.RequestLog(log)(mux)), cfg.MaxConns, cfg.Timeout+time.Minute, log)
	if err := srv.Run(ctx); err != nil {
		log.Error("http server", "err", err)
		closeFn()
		os.Exit(1)
	}
	log.Info("bye")
}
