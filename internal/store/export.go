package store

import (
	"context"
	"fmt"

	"github.com/pavelanni/scaffold/internal/model"
)

// ExportAll builds an export of the learner's progress and every saved quiz
// with its keywords and answers, oldest first.
func (s *Store) ExportAll(ctx context.Context) (model.StudyExport, error) {
	var exp model.StudyExport

	p, err := s.Progress(ctx)
	if err != nil {
		return exp, fmt.Errorf("progress: %w", err)
	}
	exp.Progress = p

	list, err := s.ListQuizzes(ctx, 0)
	if err != nil {
		return exp, fmt.Errorf("list quizzes: %w", err)
	}
	for i := len(list) - 1; i >= 0; i-- {
		q, err := s.GetQuiz(ctx, list[i].ID)
		if err != nil {
			return exp, fmt.Errorf("get quiz %d: %w", list[i].ID, err)
		}
		exp.Quizzes = append(exp.Quizzes, q)
	}
	exp.NumQuizzes = len(exp.Quizzes)
	exp.ExportedAt = s.now()
	return exp, nil
}
