package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"ocr-gateway/api/internal/config"
	"ocr-gateway/api/internal/ocr"
	"ocr-gateway/api/internal/store"
)

const purgeEvery = time.Hour

// Build opens the configured engine once and wires the recognition service.
// The returned close func releases the engine and the journal database.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*ocr.Service, func(), error) {
	eng, err := ocr.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("ocr engine ready", "engine", eng.Name(), "workers", cfg.Workers, "timeout", cfg.Timeout)

	var closers []io.Closer
	if c, ok := eng.(io.Closer); ok {
		closers = append(closers, c)
	}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn("close failed", "err", err)
			}
		}
	}

	var journal ocr.Journal
	if cfg.JournalEnabled {
		repo, err := openJournal(ctx, cfg, log)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, repo.DB)
		journal = repo
		go purgeLoop(ctx, repo, cfg.JournalRetention, log)
	}

	rec := ocr.NewRecognizer(eng, cfg.Workers, cfg.Timeout, log)
	svc := ocr.NewService(rec, cfg.TempDir, journal, log)
	return svc, closeAll, nil
}

func openJournal(ctx context.Context, cfg *config.Config, log *slog.Logger) (*store.JournalRepo, error) {
	dsn := cfg.DSN()
	if dsn == "" {
		return nil, errors.New("journal enabled but database DSN is empty: set DATABASE_URL or POSTGRES_*/PGHOST")
	}
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	log.Info("db connected", "dsn", store.SafeDSNSummary(dsn))

	repo := store.NewJournalRepo(db)
	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(sctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func purgeLoop(ctx context.Context, repo *store.JournalRepo, retention time.Duration, log *slog.Logger) {
	if retention <= 0 {
		return
	}
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, time.Minute)
			n, err := repo.PurgeOlderThan(pctx, retention)
			cancel()
			if err != nil {
				log.Warn("journal purge failed", "err", err)
				continue
			}
			if n > 0 {
				log.Info("journal purged", "rows", n, "retention", retention)
			}
		}
	}
}
