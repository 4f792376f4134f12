package model

import "time"

// StudyExport is the top-level JSON structure for the export command.
type StudyExport struct {
	ExportedAt time.Time `json:"exported_at"`
	Progress   Progress  `json:"progress"`
	NumQuizzes int       `json:"num_quizzes"`
	Quizzes    []Quiz    `json:"quizzes"`
}
