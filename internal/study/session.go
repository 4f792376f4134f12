package study

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pavelanni/scaffold/internal/model"
)

// ProgressBars is the fixed number of progress bars shown for a session.
const ProgressBars = 20

// Submission is what a finished session hands to the save collaborator.
type Submission struct {
	Title         string
	ExtractedText string
	Keywords      []string
	// Answers are ordered by instance id.
	Answers      []string
	CorrectCount int
	Total        int
}

// Saver persists finished sessions.
type Saver interface {
	Save(ctx context.Context, sub Submission) error
}

// Completion is the outcome of finishing a session. A failed save does not
// keep the learner in the session; it is reported through SaveErr.
type Completion struct {
	CorrectCount int
	Total        int
	Saved        bool
	SaveErr      error
}

// Session is the state of one study session: the tokenized text, its keyword
// instances, the current step and the answer/grade maps. A Session is not
// safe for concurrent use; the Registry serializes access.
type Session struct {
	payload   model.Payload
	tokens    []Token
	instances []KeywordInstance
	index     map[int]int // instance id -> position in instances

	step    Step
	answers map[int]string
	grades  map[int]Grade
	wrong   map[int]struct{}

	hintFor int
	review  bool
}

// Option configures a new Session.
type Option func(*Session)

// WithInitialStep starts the session at step, e.g. when resuming a review.
func WithInitialStep(step Step) Option {
	return func(s *Session) {
		if step.Round() > 0 {
			s.step = step
		}
	}
}

// AsReview marks the session as a replay of a saved quiz. Finishing a review
// neither saves a new quiz nor awards experience.
func AsReview() Option {
	return func(s *Session) { s.review = true }
}

// NewSession tokenizes the payload and starts at round 1 reveal. Prior user
// answers in the payload are loaded by instance order.
func NewSession(p model.Payload, opts ...Option) (*Session, error) {
	if !p.HasText() {
		return nil, fmt.Errorf("%w: no extracted text", ErrPayloadMissing)
	}
	if len(prepareKeywords(p.Keywords())) == 0 {
		return nil, fmt.Errorf("%w: no keywords", ErrPayloadMissing)
	}

	tokens, instances := AssignInstances(Tokenize(p.ExtractedText, p.Keywords()))
	s := &Session{
		payload:   p,
		tokens:    tokens,
		instances: instances,
		index:     make(map[int]int, len(instances)),
		step:      Round1Reveal,
		answers:   make(map[int]string),
		grades:    make(map[int]Grade),
		wrong:     make(map[int]struct{}),
	}
	for i, ins := range instances {
		s.index[ins.InstanceID] = i
	}
	for i, a := range p.UserAnswers {
		if i >= len(instances) {
			break
		}
		if a != "" {
			s.answers[instances[i].InstanceID] = a
		}
	}
	for _, opt := range opts {
		opt(s)
	}

	slog.Debug("study session created",
		"title", p.Title,
		"keywords", len(p.Blanks),
		"instances", len(instances),
		"step", s.step)
	return s, nil
}

// IsReview reports whether the session replays a saved quiz.
func (s *Session) IsReview() bool { return s.review }

// Title returns the payload title.
func (s *Session) Title() string { return s.payload.Title }

// Step returns the current step.
func (s *Session) Step() Step { return s.step }

// Tokens returns a copy of the numbered token stream.
func (s *Session) Tokens() []Token {
	return append([]Token(nil), s.tokens...)
}

// Instances returns all keyword instances in document order.
func (s *Session) Instances() []KeywordInstance {
	return append([]KeywordInstance(nil), s.instances...)
}

// activeRound is the round whose range applies now; a completed session keeps
// the last round's range.
func (s *Session) activeRound() int {
	if s.step == StepComplete {
		return Rounds
	}
	return s.step.Round()
}

// ActiveCount returns the size of the current active range.
func (s *Session) ActiveCount() int {
	return ActiveCount(s.activeRound(), len(s.instances))
}

// Active returns the instances open for input and grading this round.
func (s *Session) Active() []KeywordInstance {
	return append([]KeywordInstance(nil), s.instances[:s.ActiveCount()]...)
}

// IsActive reports whether instance id falls inside the active range.
func (s *Session) IsActive(id int) bool {
	pos, ok := s.index[id]
	return ok && pos < s.ActiveCount()
}

func (s *Session) instance(id int) (KeywordInstance, error) {
	pos, ok := s.index[id]
	if !ok {
		return KeywordInstance{}, fmt.Errorf("%w: %d", ErrUnknownInstance, id)
	}
	return s.instances[pos], nil
}

func (s *Session) apply(a Action) (Step, error) {
	next, err := transition(s.step, a)
	if err != nil {
		return s.step, err
	}
	return next, nil
}

// Start moves from reveal to fill.
func (s *Session) Start() error {
	next, err := s.apply(ActionStart)
	if err != nil {
		return err
	}
	s.step = next
	return nil
}

// SetAnswer records the learner's entry for an active instance during fill.
func (s *Session) SetAnswer(id int, answer string) error {
	if s.step.Substep() != SubstepFill {
		return fmt.Errorf("%w: answers are only accepted in fill, at %s", ErrInvalidTransition, s.step)
	}
	if _, err := s.instance(id); err != nil {
		return err
	}
	if !s.IsActive(id) {
		return fmt.Errorf("%w: %d", ErrInactiveInstance, id)
	}
	s.answers[id] = answer
	return nil
}

// Answer returns the stored answer for id.
func (s *Session) Answer(id int) string { return s.answers[id] }

// Submit grades the active range and moves from fill to grade.
func (s *Session) Submit() (GradeResult, error) {
	next, err := s.apply(ActionSubmit)
	if err != nil {
		return GradeResult{}, err
	}
	res := GradeActive(s.instances[:s.ActiveCount()], s.answers, s.grades, s.wrong)
	s.step = next
	s.hintFor = 0
	slog.Debug("graded round",
		"round", s.step.Round(),
		"checked", res.Checked,
		"correct", res.Correct,
		"wrong", res.Wrong,
		"skipped", res.Skipped)
	return res, nil
}

// Advance moves from a round's grade step to the next round's reveal step
// and clears the answer map. Correct grades are kept, so cleared answers of
// correct instances are never re-read.
func (s *Session) Advance() error {
	next, err := s.apply(ActionAdvance)
	if err != nil {
		return err
	}
	clear(s.answers)
	s.step = next
	return nil
}

// RetryRound clears the answers of active instances not yet graded correct,
// staying in fill.
func (s *Session) RetryRound() error {
	if _, err := s.apply(ActionRetry); err != nil {
		return err
	}
	for _, ins := range s.instances[:s.ActiveCount()] {
		if s.grades[ins.InstanceID] != GradeCorrect {
			delete(s.answers, ins.InstanceID)
		}
	}
	s.hintFor = 0
	return nil
}

// Submission snapshots what a save of the session would carry.
func (s *Session) Submission() Submission {
	return Submission{
		Title:         s.payload.Title,
		ExtractedText: s.payload.ExtractedText,
		Keywords:      s.payload.Keywords(),
		Answers:       s.OrderedAnswers(),
		CorrectCount:  s.CorrectCount(),
		Total:         len(s.instances),
	}
}

// Complete moves from round 3 grading to complete and returns the
// submission to save. Saving is left to the caller.
func (s *Session) Complete() (Submission, error) {
	next, err := s.apply(ActionFinish)
	if err != nil {
		return Submission{}, err
	}
	sub := s.Submission()
	s.step = next
	return sub, nil
}

// Finish completes the session and hands the answers to saver. A save
// failure is logged and returned in the Completion; the session completes
// regardless.
func (s *Session) Finish(ctx context.Context, saver Saver) (Completion, error) {
	sub, err := s.Complete()
	if err != nil {
		return Completion{}, err
	}
	return Save(ctx, saver, sub), nil
}

// Save hands sub to saver and reports the outcome. A nil saver saves
// nothing.
func Save(ctx context.Context, saver Saver, sub Submission) Completion {
	c := Completion{CorrectCount: sub.CorrectCount, Total: sub.Total}
	if saver == nil {
		return c
	}
	if err := saver.Save(ctx, sub); err != nil {
		slog.Warn("failed to save study session", "title", sub.Title, "error", err)
		c.SaveErr = err
		return c
	}
	c.Saved = true
	return c
}

// ApplyHint writes a hint for an active instance into its answer.
func (s *Session) ApplyHint(id int, kind HintKind) (string, error) {
	ins, err := s.instance(id)
	if err != nil {
		return "", err
	}
	hint, err := Hint(kind, ins.Word)
	if err != nil {
		return "", err
	}
	if err := s.SetAnswer(id, hint); err != nil {
		return "", err
	}
	s.hintFor = id
	return hint, nil
}

// DismissHint closes an open hint and drops answers that are only hint
// residue, so a revealed letter is not graded as the learner's answer.
func (s *Session) DismissHint() {
	if s.hintFor == 0 {
		return
	}
	for id, a := range s.answers {
		if isHintResidue(a) {
			delete(s.answers, id)
		}
	}
	s.hintFor = 0
}

// GradeOf returns the grade of instance id.
func (s *Session) GradeOf(id int) Grade { return s.grades[id] }

// Grades returns a copy of the grade map.
func (s *Session) Grades() map[int]Grade {
	out := make(map[int]Grade, len(s.grades))
	for k, v := range s.grades {
		out[k] = v
	}
	return out
}

// WrongSet returns the instance ids currently graded wrong, ascending.
func (s *Session) WrongSet() []int {
	ids := make([]int, 0, len(s.wrong))
	for id := range s.wrong {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CorrectCount counts instances graded correct.
func (s *Session) CorrectCount() int {
	n := 0
	for _, g := range s.grades {
		if g == GradeCorrect {
			n++
		}
	}
	return n
}

// OrderedAnswers lists the stored answer of every instance by instance id;
// unanswered instances yield "".
func (s *Session) OrderedAnswers() []string {
	out := make([]string, len(s.instances))
	for i, ins := range s.instances {
		out[i] = s.answers[ins.InstanceID]
	}
	return out
}

// Bars returns the progress bar states. Bars fill only once a round has been
// graded; the rest stay idle.
func (s *Session) Bars() []Grade {
	bars := make([]Grade, ProgressBars)
	if s.step.Substep() != SubstepGrade && s.step != StepComplete {
		return bars
	}
	for i, ins := range s.instances[:s.ActiveCount()] {
		if i >= ProgressBars {
			break
		}
		bars[i] = s.grades[ins.InstanceID]
	}
	return bars
}
