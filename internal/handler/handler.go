package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pavelanni/scaffold/internal/model"
	"github.com/pavelanni/scaffold/internal/progress"
	"github.com/pavelanni/scaffold/internal/store"
	"github.com/pavelanni/scaffold/internal/study"
)

// Extractor reads study text and keywords from an uploaded image.
type Extractor interface {
	Extract(ctx context.Context, raw []byte, crop *model.Crop, defaultTitle string) (model.Payload, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	llm      Extractor
	sessions *study.Registry
	progress *progress.Tracker
	quizzes  study.Saver
	config   model.StudyConfig
}

// New creates a new Handler.
func New(s *store.Store, l Extractor, reg *study.Registry, tracker *progress.Tracker, cfg model.StudyConfig) (*Handler, error) {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 << 20
	}
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = "Untitled notes"
	}
	return &Handler{
		store:    s,
		llm:      l,
		sessions: reg,
		progress: tracker,
		quizzes:  store.QuizSaver{Store: s, Subject: cfg.SubjectName},
		config:   cfg,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Post("/ocr", h.handleCreateOCRSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleAbandon)
			r.Post("/retry", h.handleRetryLoad)
			r.Post("/start", h.handleStart)
			r.Post("/submit", h.handleSubmit)
			r.Post("/advance", h.handleAdvance)
			r.Post("/retry-round", h.handleRetryRound)
			r.Post("/finish", h.handleFinish)
			r.Put("/answers/{instanceID}", h.handleAnswer)
			r.Post("/hints/{instanceID}", h.handleHint)
			r.Delete("/hints", h.handleDismissHint)
		})
	})
	r.Get("/quizzes", h.handleListQuizzes)
	r.Get("/quizzes/{quizID}", h.handleGetQuiz)
	r.Post("/quizzes/{quizID}/review", h.handleReview)
	r.Get("/usage", h.handleUsage)
	r.Get("/progress", h.handleProgress)
	r.Post("/progress/checkin", h.handleCheckIn)
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		return uuid.Nil, study.ErrSessionNotFound
	}
	return id, nil
}

func instanceID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "instanceID"))
	if err != nil {
		return 0, study.ErrUnknownInstance
	}
	return id, nil
}

func logRequest(r *http.Request, msg string, args ...any) {
	slog.Info(msg, append([]any{"path", r.URL.Path}, args...)...)
}
