package ocr

import (
	"context"
	"io"
	"log/slog"
	"time"

	"ocr-gateway/api/internal/ocr/types"
	"ocr-gateway/api/internal/util"
)

const journalTimeout = 3 * time.Second

// Request is one uploaded image. Filename is only used for its extension.
type Request struct {
	Body     io.Reader
	Filename string
	Source   string
}

// JournalEntry is one recognition outcome, as recorded by a Journal.
type JournalEntry struct {
	ImageSHA256 string
	Filename    string
	Source      string
	Engine      string
	SizeBytes   int64
	Lines       int
	Chars       int
	Duration    time.Duration
	Error       string
}

// Journal records recognition outcomes. Failures never affect the request.
type Journal interface {
	Record(ctx context.Context, e JournalEntry) error
}

// Service ties spooling, recognition and normalization together per request.
type Service struct {
	rec     *Recognizer
	tmpDir  string
	journal Journal
	log     *slog.Logger
}

func NewService(rec *Recognizer, tmpDir string, journal Journal, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{rec: rec, tmpDir: tmpDir, journal: journal, log: log}
}

func (s *Service) EngineName() string { return s.rec.EngineName() }

// Process spools the upload, recognizes it and normalizes the engine output.
// The temporary file is removed on every return path.
func (s *Service) Process(ctx context.Context, req Request) (types.Result, error) {
	start := time.Now()
	log := s.log.With("filename", req.Filename, "engine", s.rec.EngineName())

	sp, cleanup, err := Spool(s.tmpDir, req.Filename, req.Body)
	if err != nil {
		log.Error("spool upload failed", "err", err)
		return types.Result{}, err
	}
	defer func() {
		cleanup()
		log.Debug("temp file removed", "path", sp.Path)
	}()

	log = log.With("path", sp.Path, "size", sp.Size)
	if info, err := util.ProbeImage(sp.Path); err == nil {
		log = log.With("format", info.Format, "width", info.Width, "height", info.Height)
	} else {
		log.Debug("image probe failed", "err", err)
	}

	entry := JournalEntry{
		ImageSHA256: sp.SHA256,
		Filename:    req.Filename,
		Source:      req.Source,
		Engine:      s.rec.EngineName(),
		SizeBytes:   sp.Size,
	}

	log.Info("calling engine")
	raw, err := s.rec.Recognize(ctx, sp.Path)
	if err != nil {
		log.Error("recognition failed", "err", err, "took", time.Since(start))
		entry.Duration = time.Since(start)
		entry.Error = err.Error()
		s.record(ctx, entry)
		return types.Result{}, err
	}

	res := Normalize(log, raw)
	entry.Duration = time.Since(start)
	entry.Lines = len(res.Lines)
	entry.Chars = len(res.Text)
	log.Info("recognition done", "lines", entry.Lines, "chars", entry.Chars, "took", entry.Duration)
	s.record(ctx, entry)
	return res, nil
}

func (s *Service) record(ctx context.Context, e JournalEntry) {
	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := s.journal.Record(ctx, e); err != nil {
		s.log.Warn("journal record failed", "err", err)
	}
}
