package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pavelanni/scaffold/internal/i18n"
	"github.com/pavelanni/scaffold/internal/model"
	"github.com/pavelanni/scaffold/internal/progress"
	"github.com/pavelanni/scaffold/internal/study"
)

type sessionResponse struct {
	ID     uuid.UUID    `json:"id"`
	Status study.Status `json:"status"`
	Error  string       `json:"error,omitempty"`
	View   *study.View  `json:"view,omitempty"`
}

type createSessionRequest struct {
	Title         string        `json:"title" validate:"max=200"`
	ExtractedText string        `json:"extractedText" validate:"max=100000"`
	Blanks        []model.Blank `json:"blanks" validate:"max=500,dive"`
	UserAnswers   []string      `json:"user_answers,omitempty" validate:"max=500"`
	Step          string        `json:"step,omitempty"`
}

type answerRequest struct {
	Answer string `json:"answer" validate:"max=200"`
}

type hintRequest struct {
	Type string `json:"type" validate:"required,oneof=first last chosung"`
}

type submitResponse struct {
	sessionResponse
	Result study.GradeResult `json:"result"`
}

type finishResponse struct {
	sessionResponse
	CorrectCount int             `json:"correct_count"`
	Total        int             `json:"total"`
	Saved        bool            `json:"saved"`
	Warning      string          `json:"warning,omitempty"`
	XP           int             `json:"xp"`
	Message      string          `json:"message"`
	Progress     *model.Progress `json:"progress,omitempty"`
}

func stepOption(label string) ([]study.Option, error) {
	if label == "" {
		return nil, nil
	}
	step, err := study.ParseStep(label)
	if err != nil {
		return nil, err
	}
	return []study.Option{study.WithInitialStep(step)}, nil
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	opts, err := stepOption(req.Step)
	if err != nil {
		respondError(w, r, err)
		return
	}
	title := req.Title
	if title == "" {
		title = h.config.DefaultTitle
	}
	p := model.Payload{
		Title:         title,
		ExtractedText: req.ExtractedText,
		Blanks:        req.Blanks,
		UserAnswers:   req.UserAnswers,
	}
	h.createReady(w, r, p, opts...)
}

// createReady registers a session from a payload at hand and responds with
// its first view.
func (h *Handler) createReady(w http.ResponseWriter, r *http.Request, p model.Payload, opts ...study.Option) {
	id, err := h.sessions.Add(p, opts...)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var view study.View
	if err := h.sessions.With(id, func(s *study.Session) error {
		view = s.View()
		return nil
	}); err != nil {
		respondError(w, r, err)
		return
	}
	logRequest(r, "study session created", "id", id, "instances", view.Total)
	respondJSON(w, http.StatusCreated, sessionResponse{ID: id, Status: study.StatusReady, View: &view})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	st, err := h.sessions.State(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp := sessionResponse{ID: id, Status: st.Status}
	switch st.Status {
	case study.StatusLoading:
		respondJSON(w, http.StatusAccepted, resp)
		return
	case study.StatusFailed:
		_, msgID := classify(st.Cause)
		if msgID == "ErrInternal" {
			msgID = "ErrPayloadMissing"
		}
		resp.Error = i18n.T(r.Context(), msgID)
		respondJSON(w, http.StatusOK, resp)
		return
	}
	h.respondView(w, r, id, nil)
}

// respondView runs fn on the session, if given, and responds with the view
// taken under the same lock.
func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, id uuid.UUID, fn func(*study.Session) error) {
	var view study.View
	err := h.sessions.With(id, func(s *study.Session) error {
		if fn != nil {
			if err := fn(s); err != nil {
				return err
			}
		}
		view = s.View()
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{ID: id, Status: study.StatusReady, View: &view})
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.sessions.Abandon(id); err != nil {
		respondError(w, r, err)
		return
	}
	logRequest(r, "study session abandoned", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRetryLoad(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.sessions.Retry(id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, sessionResponse{ID: id, Status: study.StatusLoading})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondView(w, r, id, (*study.Session).Start)
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondView(w, r, id, (*study.Session).Advance)
}

func (h *Handler) handleRetryRound(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.respondView(w, r, id, (*study.Session).RetryRound)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var resp submitResponse
	err = h.sessions.With(id, func(s *study.Session) error {
		res, err := s.Submit()
		if err != nil {
			return err
		}
		v := s.View()
		resp.Result, resp.View = res, &v
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp.ID, resp.Status = id, study.StatusReady
	respondJSON(w, http.StatusOK, resp)
}

// handleFinish completes the session and drops it from the registry. The
// quiz is saved after the registry lock is released; review sessions are
// neither saved nor rewarded.
func (h *Handler) handleFinish(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var (
		sub    study.Submission
		view   study.View
		review bool
	)
	err = h.sessions.Release(id, func(s *study.Session) error {
		var err error
		if sub, err = s.Complete(); err != nil {
			return err
		}
		view, review = s.View(), s.IsReview()
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	c := study.Completion{CorrectCount: sub.CorrectCount, Total: sub.Total}
	if !review {
		c = study.Save(r.Context(), h.quizzes, sub)
	}
	resp := finishResponse{
		sessionResponse: sessionResponse{ID: id, Status: study.StatusReady, View: &view},
		CorrectCount:    c.CorrectCount,
		Total:           c.Total,
		Saved:           c.Saved,
	}
	if c.SaveErr != nil {
		resp.Warning = i18n.T(r.Context(), "SaveFailed")
	}
	if h.progress != nil && !review {
		resp.XP = progress.SessionXP(c.CorrectCount)
		p, err := h.progress.AwardSession(r.Context(), c.CorrectCount)
		if err != nil {
			slog.Warn("failed to award session xp", "id", id, "error", err)
		} else {
			resp.Progress = &p
		}
	}
	resp.Message = i18n.Td(r.Context(), "SessionComplete", map[string]any{
		"Correct": c.CorrectCount,
		"Total":   c.Total,
		"XP":      resp.XP,
	})
	logRequest(r, "study session finished", "id", id, "correct", c.CorrectCount, "total", c.Total, "saved", c.Saved, "review", review)
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	iid, err := instanceID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	err = h.sessions.With(id, func(s *study.Session) error {
		return s.SetAnswer(iid, req.Answer)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	iid, err := instanceID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req hintRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	var hint string
	err = h.sessions.With(id, func(s *study.Session) error {
		var err error
		hint, err = s.ApplyHint(iid, study.HintKind(req.Type))
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"instance_id": iid, "hint": hint})
}

func (h *Handler) handleDismissHint(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	err = h.sessions.With(id, func(s *study.Session) error {
		s.DismissHint()
		return nil
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
