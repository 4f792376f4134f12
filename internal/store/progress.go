package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pavelanni/scaffold/internal/model"
)

// Progress returns the learner's stored progress. A fresh database yields
// the zero record.
func (s *Store) Progress(ctx context.Context) (model.Progress, error) {
	var p model.Progress
	err := s.db.QueryRowContext(ctx,
		`SELECT exp, streak, last_check_in, total_sessions FROM progress WHERE id = 1`,
	).Scan(&p.Exp, &p.Streak, &p.LastCheckIn, &p.TotalSessions)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Progress{}, nil
	}
	return p, err
}

// SaveProgress upserts the single progress record. Level and league are
// derived from exp and not stored.
func (s *Store) SaveProgress(ctx context.Context, p model.Progress) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress (id, exp, streak, last_check_in, total_sessions) VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			exp = excluded.exp,
			streak = excluded.streak,
			last_check_in = excluded.last_check_in,
			total_sessions = excluded.total_sessions`,
		p.Exp, p.Streak, p.LastCheckIn, p.TotalSessions,
	)
	return err
}
