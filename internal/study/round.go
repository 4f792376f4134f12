package study

import (
	"fmt"
	"strconv"
	"strings"
)

// Rounds is the number of escalating passes over the study text.
const Rounds = 3

// Substep is the phase inside a round.
type Substep int

const (
	SubstepNone Substep = iota
	SubstepReveal
	SubstepFill
	SubstepGrade
)

func (s Substep) String() string {
	switch s {
	case SubstepReveal:
		return "reveal"
	case SubstepFill:
		return "fill"
	case SubstepGrade:
		return "grade"
	}
	return "none"
}

// MarshalText encodes the substep by name.
func (s Substep) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Step is the joint round/substep state.
type Step int

const (
	Round1Reveal Step = iota + 1
	Round1Fill
	Round1Grade
	Round2Reveal
	Round2Fill
	Round2Grade
	Round3Reveal
	Round3Fill
	Round3Grade
	StepComplete
)

// Round returns 1..3, or 0 once the session is complete.
func (s Step) Round() int {
	if s < Round1Reveal || s > Round3Grade {
		return 0
	}
	return (int(s)-1)/3 + 1
}

// Substep returns the phase within the round.
func (s Step) Substep() Substep {
	if s < Round1Reveal || s > Round3Grade {
		return SubstepNone
	}
	return Substep((int(s)-1)%3 + 1)
}

func stepFor(round int, sub Substep) Step {
	return Step((round-1)*3 + int(sub))
}

// String renders the composite "round-substep" label, e.g. "2-3".
func (s Step) String() string {
	if s == StepComplete {
		return "complete"
	}
	if s.Round() == 0 {
		return "invalid"
	}
	return fmt.Sprintf("%d-%d", s.Round(), int(s.Substep()))
}

// MarshalText encodes the step as its label.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a label produced by String.
func (s *Step) UnmarshalText(b []byte) error {
	st, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStep parses a composite label such as "1-1" or "complete".
func ParseStep(label string) (Step, error) {
	label = strings.TrimSpace(label)
	if label == "complete" {
		return StepComplete, nil
	}
	r, sub, ok := strings.Cut(label, "-")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStep, label)
	}
	round, err := strconv.Atoi(r)
	if err != nil || round < 1 || round > Rounds {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStep, label)
	}
	n, err := strconv.Atoi(sub)
	if err != nil || n < int(SubstepReveal) || n > int(SubstepGrade) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStep, label)
	}
	return stepFor(round, Substep(n)), nil
}

// ActiveCount is how many instances, in document order, are open for input
// and grading in the given round.
func ActiveCount(round, total int) int {
	switch round {
	case 1:
		return min(5, total)
	case 2:
		return min(12, total)
	case 3:
		return total
	}
	return 0
}

// Action is a user action driving the round state machine.
type Action int

const (
	ActionStart Action = iota + 1
	ActionSubmit
	ActionAdvance
	ActionFinish
	ActionRetry
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionSubmit:
		return "submit"
	case ActionAdvance:
		return "advance"
	case ActionFinish:
		return "finish"
	case ActionRetry:
		return "retry"
	}
	return "unknown"
}

// transition returns the step reached by applying a to from.
func transition(from Step, a Action) (Step, error) {
	round, sub := from.Round(), from.Substep()
	switch {
	case a == ActionStart && sub == SubstepReveal:
		return stepFor(round, SubstepFill), nil
	case a == ActionSubmit && sub == SubstepFill:
		return stepFor(round, SubstepGrade), nil
	case a == ActionAdvance && sub == SubstepGrade && round < Rounds:
		return stepFor(round+1, SubstepReveal), nil
	case a == ActionFinish && from == Round3Grade:
		return StepComplete, nil
	case a == ActionRetry && sub == SubstepFill:
		return from, nil
	}
	return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, a, from)
}
