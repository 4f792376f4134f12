package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
)

const keyPagesLimit = "ocr_pages_limit"

type execQueryer interface {
	queryer
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SetMetadata upserts a key-value pair in the app_metadata table.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	return setMetadata(ctx, s.db, key, value)
}

func setMetadata(ctx context.Context, db execQueryer, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	return getMetadata(ctx, s.db, key)
}

func getMetadata(ctx context.Context, db queryer, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM app_metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetPagesLimit stores the monthly OCR page allowance. 0 disables the limit.
func (s *Store) SetPagesLimit(ctx context.Context, pages int) error {
	return s.SetMetadata(ctx, keyPagesLimit, strconv.Itoa(max(0, pages)))
}

// PagesLimit returns the monthly OCR page allowance, 0 when unset.
func (s *Store) PagesLimit(ctx context.Context) (int, error) {
	return pagesLimit(ctx, s.db)
}

func pagesLimit(ctx context.Context, db queryer) (int, error) {
	v, err := getMetadata(ctx, db, keyPagesLimit)
	if err != nil || v == "" {
		return 0, err
	}
	return strconv.Atoi(v)
}
