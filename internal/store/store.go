package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/scaffold/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quizzes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		subject_name TEXT NOT NULL DEFAULT '',
		extracted_text TEXT NOT NULL,
		correct_count INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_keywords (
		quiz_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		word TEXT NOT NULL,
		PRIMARY KEY (quiz_id, position),
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS quiz_answers (
		quiz_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		answer TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (quiz_id, position),
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS ocr_cache (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ocr_usage (
		period TEXT PRIMARY KEY,
		pages_used INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS progress (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		exp INTEGER NOT NULL DEFAULT 0,
		streak INTEGER NOT NULL DEFAULT 0,
		last_check_in TEXT NOT NULL DEFAULT '',
		total_sessions INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveQuiz stores a finished session with its keywords and answers.
func (s *Store) SaveQuiz(ctx context.Context, q model.Quiz) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	created := q.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO quizzes (title, subject_name, extracted_text, correct_count, total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.Title, q.SubjectName, q.ExtractedText, q.CorrectCount, q.Total, created,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, w := range q.Keywords {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_keywords (quiz_id, position, word) VALUES (?, ?, ?)`, id, i, w,
		); err != nil {
			return 0, err
		}
	}
	for i, a := range q.Answers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_answers (quiz_id, position, answer) VALUES (?, ?, ?)`, id, i, a,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Info("saved quiz", "id", id, "title", q.Title, "correct", q.CorrectCount, "total", q.Total)
	return id, nil
}

// GetQuiz returns a saved quiz with its keywords and answers in order.
func (s *Store) GetQuiz(ctx context.Context, id int64) (model.Quiz, error) {
	var q model.Quiz
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, subject_name, extracted_text, correct_count, total, created_at
		 FROM quizzes WHERE id = ?`, id,
	).Scan(&q.ID, &q.Title, &q.SubjectName, &q.ExtractedText, &q.CorrectCount, &q.Total, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return q, fmt.Errorf("quiz %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return q, err
	}

	if q.Keywords, err = s.column(ctx, `SELECT word FROM quiz_keywords WHERE quiz_id = ? ORDER BY position`, id); err != nil {
		return q, fmt.Errorf("keywords: %w", err)
	}
	if q.Answers, err = s.column(ctx, `SELECT answer FROM quiz_answers WHERE quiz_id = ? ORDER BY position`, id); err != nil {
		return q, fmt.Errorf("answers: %w", err)
	}
	return q, nil
}

func (s *Store) column(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListQuizzes returns saved quizzes newest first, without keywords and
// answers. A limit of 0 returns all of them.
func (s *Store) ListQuizzes(ctx context.Context, limit int) ([]model.Quiz, error) {
	query := `SELECT id, title, subject_name, extracted_text, correct_count, total, created_at
		FROM quizzes ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.SubjectName, &q.ExtractedText, &q.CorrectCount, &q.Total, &q.CreatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// QuizCount returns the number of saved quizzes.
func (s *Store) QuizCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes`).Scan(&n)
	return n, err
}
