package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ocr-gateway/api/internal/ocr"
)

const journalSchema = `
create table if not exists ocr_journal (
    id           bigserial primary key,
    created_at   timestamptz not null default now(),
    image_sha256 text        not null,
    filename     text        not null default '',
    source       text        not null default '',
    engine       text        not null,
    size_bytes   bigint      not null,
    lines        integer     not null default 0,
    chars        integer     not null default 0,
    duration_ms  bigint      not null,
    error        text
);
create index if not exists ocr_journal_created_at_idx on ocr_journal (created_at);`

// JournalRepo is a write-only log of recognition outcomes. Nothing reads it
// back on the request path.
type JournalRepo struct{ DB *sql.DB }

func NewJournalRepo(db *sql.DB) *JournalRepo { return &JournalRepo{DB: db} }

func (r *JournalRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, journalSchema)
	return err
}

// Record implements ocr.Journal.
func (r *JournalRepo) Record(ctx context.Context, e ocr.JournalEntry) error {
	const q = `
insert into ocr_journal(image_sha256, filename, source, engine, size_bytes, lines, chars, duration_ms, error)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.DB.ExecContext(ctx, q,
		e.ImageSHA256, e.Filename, e.Source, e.Engine, e.SizeBytes,
		e.Lines, e.Chars, e.Duration.Milliseconds(), nullIfEmpty(e.Error))
	return err
}

// PurgeOlderThan deletes entries older than olderThan and reports how many
// rows went away.
func (r *JournalRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("purge: retention must be positive")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from ocr_journal where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
