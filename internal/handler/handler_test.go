package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/scaffold/internal/i18n"
	"github.com/pavelanni/scaffold/internal/model"
	"github.com/pavelanni/scaffold/internal/progress"
	"github.com/pavelanni/scaffold/internal/store"
	"github.com/pavelanni/scaffold/internal/study"
)

type fakeExtractor struct {
	calls   atomic.Int32
	failing atomic.Bool
	payload model.Payload
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, _ *model.Crop, _ string) (model.Payload, error) {
	f.calls.Add(1)
	if f.failing.Load() {
		return model.Payload{}, errors.New("vision endpoint unavailable")
	}
	return f.payload, nil
}

type failingSaver struct{}

func (failingSaver) Save(context.Context, study.Submission) error {
	return errors.New("database is locked")
}

type testEnv struct {
	router   http.Handler
	handler  *Handler
	sessions *study.Registry
	store    *store.Store
	llm      *fakeExtractor
}

// Decoding targets for responses. Views are read loosely since their enum
// fields only marshal.
type tokenJSON struct {
	Type       string `json:"type"`
	Value      string `json:"value"`
	InstanceID int    `json:"instance_id"`
	Mode       string `json:"mode"`
	Answer     string `json:"answer"`
	Grade      string `json:"grade"`
}

type viewJSON struct {
	Title        string      `json:"title"`
	Step         string      `json:"step"`
	Round        int         `json:"round"`
	Substep      string      `json:"substep"`
	Tokens       []tokenJSON `json:"tokens"`
	Total        int         `json:"total"`
	ActiveCount  int         `json:"active_count"`
	CorrectCount int         `json:"correct_count"`
	Wrong        []int       `json:"wrong"`
	Bars         []string    `json:"bars"`
}

type sessionJSON struct {
	ID     string    `json:"id"`
	Status string    `json:"status"`
	Error  string    `json:"error"`
	View   *viewJSON `json:"view"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, i18n.Init("en"))

	db, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := study.NewRegistry()
	t.Cleanup(reg.Close)

	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracker := progress.NewTracker(db,
		progress.WithClock(func() time.Time { return day }),
		progress.WithBonus(func() bool { return false }),
	)

	ext := &fakeExtractor{payload: model.Payload{
		Title:         "Scanned notes",
		ExtractedText: "Mitochondria make ATP for the cell.",
		Blanks:        []model.Blank{{ID: 0, Word: "Mitochondria"}, {ID: 1, Word: "ATP"}},
	}}

	h, err := New(db, ext, reg, tracker, model.StudyConfig{SubjectName: "biology"})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(i18n.Middleware())
	h.Routes(r)
	return &testEnv{router: r, handler: h, sessions: reg, store: db, llm: ext}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(t *testing.T, image []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "page.png")
	require.NoError(t, err)
	_, err = fw.Write(image)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/sessions/ocr", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, rec).Error
}

func studyPayload() map[string]any {
	return map[string]any{
		"title":         "Cells",
		"extractedText": "The nucleus holds DNA and the ribosome builds protein.",
		"blanks": []map[string]any{
			{"id": 0, "word": "nucleus"},
			{"id": 1, "word": "ribosome"},
		},
	}
}

func (e *testEnv) createSession(t *testing.T, body any) sessionJSON {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionJSON](t, rec)
}

func (e *testEnv) waitStatus(t *testing.T, id, want string) sessionJSON {
	t.Helper()
	var got sessionJSON
	require.Eventually(t, func() bool {
		rec := e.do(t, http.MethodGet, "/sessions/"+id, nil)
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			return false
		}
		return got.Status == want
	}, 2*time.Second, 5*time.Millisecond, "session %s never reached %s", id, want)
	return got
}

func TestCreateSession(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSession(t, studyPayload())

	assert.Equal(t, "ready", s.Status)
	require.NotNil(t, s.View)
	assert.Equal(t, "Cells", s.View.Title)
	assert.Equal(t, "1-1", s.View.Step)
	assert.Equal(t, 2, s.View.Total)
	assert.Len(t, s.View.Bars, study.ProgressBars)

	var keywords []tokenJSON
	for _, tok := range s.View.Tokens {
		if tok.InstanceID != 0 {
			keywords = append(keywords, tok)
		}
	}
	require.Len(t, keywords, 2)
	assert.Equal(t, "nucleus", keywords[0].Value)
	assert.Equal(t, 1, keywords[0].InstanceID)
	assert.Equal(t, "highlight", keywords[0].Mode)

	rec := e.do(t, http.MethodGet, "/sessions/"+s.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.ID, decode[sessionJSON](t, rec).ID)
}

func TestCreateSessionRejectsBadPayload(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/sessions", map[string]any{"title": "empty", "extractedText": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "The study text could not be loaded. Retry or go back.", errorMessage(t, rec))

	rec = e.do(t, http.MethodPost, "/sessions", map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := studyPayload()
	body["step"] = "4-1"
	rec = e.do(t, http.MethodPost, "/sessions", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFullSessionFlow(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSession(t, studyPayload())
	base := "/sessions/" + s.ID

	for round := 1; round <= study.Rounds; round++ {
		rec := e.do(t, http.MethodPost, base+"/start", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, fmt.Sprintf("%d-2", round), decode[sessionJSON](t, rec).View.Step)

		rec = e.do(t, http.MethodPut, base+"/answers/1", map[string]string{"answer": "Nucleus"})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		answer := "lysosome"
		if round == study.Rounds {
			answer = "ribosome"
		}
		rec = e.do(t, http.MethodPut, base+"/answers/2", map[string]string{"answer": answer})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = e.do(t, http.MethodPost, base+"/submit", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		sub := decode[struct {
			Result study.GradeResult `json:"result"`
			View   viewJSON          `json:"view"`
		}](t, rec)
		assert.Equal(t, fmt.Sprintf("%d-3", round), sub.View.Step)

		switch round {
		case 1:
			assert.Equal(t, 1, sub.Result.Correct)
			assert.Equal(t, []int{2}, sub.Result.WrongID)
		case study.Rounds:
			assert.Equal(t, 1, sub.Result.Skipped, "correct instances are not regraded")
			assert.Equal(t, 1, sub.Result.Correct)
		}

		if round < study.Rounds {
			rec = e.do(t, http.MethodPost, base+"/advance", nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}
	}

	rec := e.do(t, http.MethodPost, base+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fin := decode[struct {
		View         viewJSON       `json:"view"`
		CorrectCount int            `json:"correct_count"`
		Total        int            `json:"total"`
		Saved        bool           `json:"saved"`
		XP           int            `json:"xp"`
		Message      string         `json:"message"`
		Progress     model.Progress `json:"progress"`
	}](t, rec)
	assert.Equal(t, "complete", fin.View.Step)
	assert.Equal(t, 2, fin.CorrectCount)
	assert.Equal(t, 2, fin.Total)
	assert.True(t, fin.Saved)
	assert.Equal(t, progress.SessionXP(2), fin.XP)
	assert.Equal(t, "Finished: 2 of 2 correct, +4 XP.", fin.Message)
	assert.Equal(t, 1, fin.Progress.TotalSessions)

	rec = e.do(t, http.MethodGet, "/quizzes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quizzes := decode[[]model.Quiz](t, rec)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "Cells", quizzes[0].Title)

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/quizzes/%d", quizzes[0].ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	q := decode[model.Quiz](t, rec)
	assert.Equal(t, "biology", q.SubjectName)
	assert.Equal(t, []string{"Nucleus", "ribosome"}, q.Answers)

	// A finished session leaves the registry.
	assert.Zero(t, e.sessions.Len())
	rec = e.do(t, http.MethodPost, base+"/finish", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = e.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type finishJSON struct {
	View         viewJSON        `json:"view"`
	CorrectCount int             `json:"correct_count"`
	Total        int             `json:"total"`
	Saved        bool            `json:"saved"`
	Warning      string          `json:"warning"`
	XP           int             `json:"xp"`
	Message      string          `json:"message"`
	Progress     *model.Progress `json:"progress"`
}

func TestFinishSaveFailure(t *testing.T) {
	e := newTestEnv(t)
	e.handler.quizzes = failingSaver{}
	body := studyPayload()
	body["step"] = "3-3"
	s := e.createSession(t, body)

	rec := e.do(t, http.MethodPost, "/sessions/"+s.ID+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fin := decode[finishJSON](t, rec)
	assert.False(t, fin.Saved)
	assert.Equal(t, "Your answers could not be saved.", fin.Warning)
	assert.Equal(t, "complete", fin.View.Step)
	assert.Zero(t, e.sessions.Len())

	n, err := e.store.QuizCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFinishReviewDoesNotSave(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id, err := e.store.SaveQuiz(ctx, model.Quiz{
		Title:         "Cells",
		ExtractedText: "The nucleus holds DNA and the ribosome builds protein.",
		Keywords:      []string{"nucleus", "ribosome"},
		Answers:       []string{"nucleus", "ribosome"},
		CorrectCount:  2,
		Total:         2,
	})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, fmt.Sprintf("/quizzes/%d/review", id), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s := decode[sessionJSON](t, rec)

	rec = e.do(t, http.MethodPost, "/sessions/"+s.ID+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fin := decode[finishJSON](t, rec)
	assert.False(t, fin.Saved)
	assert.Empty(t, fin.Warning)
	assert.Zero(t, fin.XP)
	assert.Nil(t, fin.Progress)

	n, err := e.store.QuizCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "review must not save a second copy")

	p, err := e.store.Progress(ctx)
	require.NoError(t, err)
	assert.Zero(t, p.TotalSessions)
	assert.Zero(t, p.Exp)
}

func TestReviewQuiz(t *testing.T) {
	e := newTestEnv(t)
	id, err := e.store.SaveQuiz(context.Background(), model.Quiz{
		Title:         "Cells",
		ExtractedText: "The nucleus holds DNA and the ribosome builds protein.",
		Keywords:      []string{"nucleus", "ribosome"},
		Answers:       []string{"nucleus", "mitochondria"},
		CorrectCount:  1,
		Total:         2,
	})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, fmt.Sprintf("/quizzes/%d/review", id), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s := decode[sessionJSON](t, rec)
	assert.Equal(t, "3-3", s.View.Step)

	answers := map[int]string{}
	for _, tok := range s.View.Tokens {
		if tok.InstanceID != 0 {
			answers[tok.InstanceID] = tok.Answer
		}
	}
	assert.Equal(t, map[int]string{1: "nucleus", 2: "mitochondria"}, answers)

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/quizzes/%d/review", id), map[string]string{"step": "1-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "1-1", decode[sessionJSON](t, rec).View.Step)

	rec = e.do(t, http.MethodPost, "/quizzes/999/review", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Saved quiz not found.", errorMessage(t, rec))
}

func TestInvalidActions(t *testing.T) {
	e := newTestEnv(t)
	body := studyPayload()
	body["extractedText"] = "a1 a2 a3 a4 a5 a6 and more"
	body["blanks"] = []map[string]any{
		{"id": 0, "word": "a1"}, {"id": 1, "word": "a2"}, {"id": 2, "word": "a3"},
		{"id": 3, "word": "a4"}, {"id": 4, "word": "a5"}, {"id": 5, "word": "a6"},
	}
	s := e.createSession(t, body)
	base := "/sessions/" + s.ID

	rec := e.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "That action is not available at this step.", errorMessage(t, rec))

	rec = e.do(t, http.MethodPut, base+"/answers/1", map[string]string{"answer": "a1"})
	assert.Equal(t, http.StatusConflict, rec.Code, "answers are only taken in fill")

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/start", nil).Code)

	rec = e.do(t, http.MethodPut, base+"/answers/6", map[string]string{"answer": "a6"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This blank opens in a later round.", errorMessage(t, rec))

	rec = e.do(t, http.MethodPut, base+"/answers/42", map[string]string{"answer": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPut, base+"/answers/abc", map[string]string{"answer": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/sessions/not-a-uuid/start", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "This study session no longer exists.", errorMessage(t, rec))
}

func TestRetryRoundClearsWrongAnswers(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSession(t, studyPayload())
	base := "/sessions/" + s.ID

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/start", nil).Code)
	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodPut, base+"/answers/1", map[string]string{"answer": "nuclear"}).Code)

	rec := e.do(t, http.MethodPost, base+"/retry-round", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[sessionJSON](t, rec).View
	assert.Equal(t, "1-2", v.Step)
	for _, tok := range v.Tokens {
		assert.Empty(t, tok.Answer)
	}
}

func TestHints(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSession(t, studyPayload())
	base := "/sessions/" + s.ID

	rec := e.do(t, http.MethodPost, base+"/hints/1", map[string]string{"type": "first"})
	assert.Equal(t, http.StatusConflict, rec.Code, "hints need fill")

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, base+"/start", nil).Code)

	rec = e.do(t, http.MethodPost, base+"/hints/2", map[string]string{"type": "last"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hint := decode[struct {
		InstanceID int    `json:"instance_id"`
		Hint       string `json:"hint"`
	}](t, rec)
	assert.Equal(t, 2, hint.InstanceID)
	assert.Equal(t, "e", hint.Hint)

	rec = e.do(t, http.MethodPost, base+"/hints/2", map[string]string{"type": "middle"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodDelete, base+"/hints", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, base, nil)
	for _, tok := range decode[sessionJSON](t, rec).View.Tokens {
		assert.Empty(t, tok.Answer, "hint residue is dropped on dismiss")
	}
}

func TestAbandonSession(t *testing.T) {
	e := newTestEnv(t)
	s := e.createSession(t, studyPayload())

	rec := e.do(t, http.MethodDelete, "/sessions/"+s.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/sessions/"+s.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOCRSessionAndCache(t *testing.T) {
	e := newTestEnv(t)
	image := []byte("page one bytes")

	rec := e.upload(t, image, nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	first := decode[sessionJSON](t, rec)
	assert.Equal(t, "loading", first.Status)

	ready := e.waitStatus(t, first.ID, "ready")
	require.NotNil(t, ready.View)
	assert.Equal(t, "Scanned notes", ready.View.Title)
	assert.Equal(t, 2, ready.View.Total)

	rec = e.do(t, http.MethodGet, "/usage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	usage := decode[model.Usage](t, rec)
	assert.Equal(t, 1, usage.PagesUsed)
	assert.Equal(t, -1, usage.Remaining)

	// Same image again comes from the cache without spending a page.
	rec = e.upload(t, image, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "ready", decode[sessionJSON](t, rec).Status)
	assert.Equal(t, int32(1), e.llm.calls.Load())

	usage, err := e.store.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, usage.PagesUsed)

	// A crop makes it a different extraction.
	rec = e.upload(t, image, map[string]string{"crop_x": "0", "crop_y": "0", "crop_width": "10", "crop_height": "10"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}

func TestOCRRejectsBadCrop(t *testing.T) {
	e := newTestEnv(t)

	rec := e.upload(t, []byte("img"), map[string]string{"crop_x": "0", "crop_y": "0"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.upload(t, []byte("img"), map[string]string{"crop_x": "0", "crop_y": "0", "crop_width": "0", "crop_height": "5"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "The selected area is outside the image.", errorMessage(t, rec))
}

func TestOCRUsageLimit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.SetPagesLimit(ctx, 1))
	_, err := e.store.ConsumeUsage(ctx, 1)
	require.NoError(t, err)

	rec := e.upload(t, []byte("another page"), nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "You have used all OCR pages for this month.", errorMessage(t, rec))
	assert.Zero(t, e.llm.calls.Load())
}

func TestOCRFailureAndRetry(t *testing.T) {
	e := newTestEnv(t)
	e.llm.failing.Store(true)

	rec := e.upload(t, []byte("blurry page"), nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decode[sessionJSON](t, rec).ID

	failed := e.waitStatus(t, id, "failed")
	assert.Equal(t, "The study text could not be loaded. Retry or go back.", failed.Error)

	rec = e.do(t, http.MethodPost, "/sessions/"+id+"/start", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	e.llm.failing.Store(false)
	rec = e.do(t, http.MethodPost, "/sessions/"+id+"/retry", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	e.waitStatus(t, id, "ready")

	// Only failed sessions can be retried.
	rec = e.do(t, http.MethodPost, "/sessions/"+id+"/retry", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProgressCheckIn(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/progress/checkin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := decode[checkInResponse](t, rec)
	assert.Equal(t, progress.CheckInXP, c.XP)
	assert.Equal(t, 1, c.Streak)
	assert.Equal(t, "Checked in: +10 XP, 1-day streak.", c.Message)

	rec = e.do(t, http.MethodPost, "/progress/checkin", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodGet, "/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[model.Progress](t, rec)
	assert.Equal(t, progress.CheckInXP, p.Exp)
	assert.Equal(t, "2026-03-02", p.LastCheckIn)
}

func TestLocalizedErrors(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/quizzes/12345", nil)
	req.Header.Set("Accept-Language", "ko")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ko", rec.Header().Get("Content-Language"))
	assert.NotEqual(t, "Saved quiz not found.", errorMessage(t, rec))
}
