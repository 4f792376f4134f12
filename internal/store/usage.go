package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/scaffold/internal/model"
)

// ErrQuotaExceeded is returned when consuming pages would pass the monthly
// OCR allowance.
var ErrQuotaExceeded = errors.New("ocr page quota exceeded")

const periodLayout = "2006-01"

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func usageFor(ctx context.Context, q queryer, period string, limit int) (model.Usage, error) {
	u := model.Usage{Period: period, PagesLimit: limit, Status: model.UsageOK}
	err := q.QueryRowContext(ctx, `SELECT pages_used FROM ocr_usage WHERE period = ?`, period).Scan(&u.PagesUsed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return u, err
	}
	if limit > 0 {
		u.Remaining = max(0, limit-u.PagesUsed)
		if u.Remaining == 0 {
			u.Status = model.UsageLimitReached
		}
	} else {
		u.Remaining = -1
	}
	return u, nil
}

// Usage returns the OCR allowance of the current month. Remaining is -1 when
// no limit is configured.
func (s *Store) Usage(ctx context.Context) (model.Usage, error) {
	limit, err := s.PagesLimit(ctx)
	if err != nil {
		return model.Usage{}, err
	}
	return usageFor(ctx, s.db, s.now().Format(periodLayout), limit)
}

// ConsumeUsage charges pages against this month's allowance. Nothing is
// charged when the allowance would be exceeded.
func (s *Store) ConsumeUsage(ctx context.Context, pages int) (model.Usage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Usage{}, err
	}
	defer tx.Rollback()

	limit, err := pagesLimit(ctx, tx)
	if err != nil {
		return model.Usage{}, err
	}
	period := s.now().Format(periodLayout)
	u, err := usageFor(ctx, tx, period, limit)
	if err != nil {
		return u, err
	}
	if limit > 0 && u.PagesUsed+pages > limit {
		return u, fmt.Errorf("%w: %d of %d pages used", ErrQuotaExceeded, u.PagesUsed, limit)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ocr_usage (period, pages_used) VALUES (?, ?)
		 ON CONFLICT(period) DO UPDATE SET pages_used = pages_used + ?`,
		period, pages, pages,
	); err != nil {
		return u, err
	}
	u, err = usageFor(ctx, tx, period, limit)
	if err != nil {
		return u, err
	}
	if err := tx.Commit(); err != nil {
		return u, err
	}
	slog.Debug("consumed ocr pages", "period", period, "pages", pages, "used", u.PagesUsed)
	return u, nil
}

// CachedExtraction returns a previously stored extraction result by key.
func (s *Store) CachedExtraction(ctx context.Context, key string) (model.Payload, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM ocr_cache WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payload{}, false, nil
	}
	if err != nil {
		return model.Payload{}, false, err
	}
	var p model.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.Payload{}, false, fmt.Errorf("decode cached payload: %w", err)
	}
	return p, true, nil
}

// PutExtraction caches an extraction result under key, replacing any older
// entry.
func (s *Store) PutExtraction(ctx context.Context, key string, p model.Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ocr_cache (key, payload, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		key, string(raw), s.now(),
	)
	return err
}
