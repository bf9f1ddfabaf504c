package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"ocr-gateway/api/internal/ocr/types"
)

// Recognizer runs engine calls on a bounded pool so a slow image never holds
// more than one slot, and never longer than the timeout from the caller's view.
type Recognizer struct {
	engine  Engine
	sem     *semaphore.Weighted
	workers int
	timeout time.Duration
	log     *slog.Logger
}

func NewRecognizer(engine Engine, workers int, timeout time.Duration, log *slog.Logger) *Recognizer {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Recognizer{
		engine:  engine,
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		timeout: timeout,
		log:     log,
	}
}

func (r *Recognizer) EngineName() string { return r.engine.Name() }

type outcome struct {
	raw *types.RawResult
	err error
}

// Recognize waits for a pool slot, then runs the engine on imagePath. Engine
// errors and panics come back as *RecognitionError; hitting the deadline yields
// a RecognitionError wrapping ErrTimeout. The slot is released only when the
// engine call really returns.
func (r *Recognizer) Recognize(ctx context.Context, imagePath string) (*types.RawResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, r.fail(ctx, err)
	}

	done := make(chan outcome, 1)
	go func() {
		defer r.sem.Release(1)
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("engine panic", "engine", r.engine.Name(), "panic", p)
				done <- outcome{err: fmt.Errorf("engine panic: %v", p)}
			}
		}()
		raw, err := r.engine.Recognize(ctx, imagePath)
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, r.fail(ctx, o.err)
		}
		return o.raw, nil
	case <-ctx.Done():
		return nil, r.fail(ctx, ctx.Err())
	}
}

func (r *Recognizer) fail(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return &RecognitionError{Engine: r.engine.Name(), Err: err}
}
