package study

// RenderMode says how a token is shown to the learner.
type RenderMode string

const (
	RenderPlain     RenderMode = "plain"
	RenderHighlight RenderMode = "highlight"
	RenderBlank     RenderMode = "blank"
	RenderGraded    RenderMode = "graded"
)

// TokenView is a token plus what the learner sees for it.
type TokenView struct {
	Token
	Mode   RenderMode `json:"mode"`
	Answer string     `json:"answer,omitempty"`
	Grade  Grade      `json:"grade,omitempty"`
}

// View is a read-only snapshot of a session.
type View struct {
	Title        string      `json:"title"`
	Step         Step        `json:"step"`
	Round        int         `json:"round"`
	Substep      Substep     `json:"substep"`
	Tokens       []TokenView `json:"tokens"`
	Total        int         `json:"total"`
	ActiveCount  int         `json:"active_count"`
	CorrectCount int         `json:"correct_count"`
	Wrong        []int       `json:"wrong"`
	Bars         []Grade     `json:"bars"`
}

func (s *Session) modeFor(t Token) RenderMode {
	if !t.IsKeyword() {
		return RenderPlain
	}
	if !s.IsActive(t.InstanceID) {
		return RenderHighlight
	}
	switch {
	case s.step == StepComplete:
		return RenderGraded
	case s.step.Substep() == SubstepFill:
		return RenderBlank
	case s.step.Substep() == SubstepGrade:
		return RenderGraded
	}
	return RenderHighlight
}

// View renders the session. Keywords outside the active range are always
// highlighted text, never blanks.
func (s *Session) View() View {
	tokens := make([]TokenView, len(s.tokens))
	for i, t := range s.tokens {
		tv := TokenView{Token: t, Mode: s.modeFor(t)}
		if tv.Mode == RenderBlank || tv.Mode == RenderGraded {
			tv.Answer = s.answers[t.InstanceID]
			tv.Grade = s.grades[t.InstanceID]
		}
		tokens[i] = tv
	}
	return View{
		Title:        s.payload.Title,
		Step:         s.step,
		Round:        s.step.Round(),
		Substep:      s.step.Substep(),
		Tokens:       tokens,
		Total:        len(s.instances),
		ActiveCount:  s.ActiveCount(),
		CorrectCount: s.CorrectCount(),
		Wrong:        s.WrongSet(),
		Bars:         s.Bars(),
	}
}
