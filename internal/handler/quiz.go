package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/scaffold/internal/i18n"
	"github.com/pavelanni/scaffold/internal/model"
	"github.com/pavelanni/scaffold/internal/store"
	"github.com/pavelanni/scaffold/internal/study"
)

const defaultQuizListLimit = 50

type reviewRequest struct {
	Step string `json:"step,omitempty"`
}

type checkInResponse struct {
	Progress model.Progress `json:"progress"`
	XP       int            `json:"xp"`
	Bonus    bool           `json:"bonus"`
	Streak   int            `json:"streak"`
	Message  string         `json:"message"`
}

func quizID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
	if err != nil {
		return 0, store.ErrNotFound
	}
	return id, nil
}

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	limit := defaultQuizListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, r, errBadRequest)
			return
		}
		limit = n
	}
	quizzes, err := h.store.ListQuizzes(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if quizzes == nil {
		quizzes = []model.Quiz{}
	}
	respondJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := quizID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	q, err := h.store.GetQuiz(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// handleReview reopens a saved quiz as a new session with its earlier
// answers loaded. The session starts at the round 3 grade step unless the
// body names another step. Finishing a review does not save a second copy.
func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	id, err := quizID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req reviewRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
	}
	q, err := h.store.GetQuiz(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	opts := []study.Option{study.AsReview(), study.WithInitialStep(study.Round3Grade)}
	if req.Step != "" {
		step, err := stepOption(req.Step)
		if err != nil {
			respondError(w, r, err)
			return
		}
		opts = append([]study.Option{study.AsReview()}, step...)
	}
	h.createReady(w, r, q.Payload(), opts...)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	if h.progress == nil {
		respondError(w, r, errors.New("progress tracking not configured"))
		return
	}
	p, err := h.progress.Current(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	if h.progress == nil {
		respondError(w, r, errors.New("progress tracking not configured"))
		return
	}
	p, c, err := h.progress.CheckIn(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, checkInResponse{
		Progress: p,
		XP:       c.XP,
		Bonus:    c.Bonus,
		Streak:   c.Streak,
		Message: i18n.Td(r.Context(), "CheckInDone", map[string]any{
			"XP":     c.XP,
			"Streak": c.Streak,
		}),
	})
}
