package store

import (
	"context"

	"github.com/pavelanni/scaffold/internal/model"
	"github.com/pavelanni/scaffold/internal/study"
)

// QuizSaver persists finished study sessions as quizzes.
type QuizSaver struct {
	Store   *Store
	Subject string
}

// Save stores sub as a new quiz.
func (q QuizSaver) Save(ctx context.Context, sub study.Submission) error {
	_, err := q.Store.SaveQuiz(ctx, model.Quiz{
		Title:         sub.Title,
		SubjectName:   q.Subject,
		ExtractedText: sub.ExtractedText,
		Keywords:      sub.Keywords,
		Answers:       sub.Answers,
		CorrectCount:  sub.CorrectCount,
		Total:         sub.Total,
	})
	return err
}
