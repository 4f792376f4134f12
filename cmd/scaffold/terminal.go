package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	appI18n "github.com/pavelanni/scaffold/internal/i18n"
	"github.com/pavelanni/scaffold/internal/progress"
	"github.com/pavelanni/scaffold/internal/study"
)

// hintCommands map terminal input to hint kinds.
var hintCommands = map[string]study.HintKind{
	"?":  study.HintFirst,
	"?f": study.HintFirst,
	"?l": study.HintLast,
	"?c": study.HintChosung,
}

// terminal drives a study session over line-based input and output.
type terminal struct {
	in  io.Reader
	out io.Writer
}

// render writes the study text the way the current step shows it.
func render(v study.View) string {
	var sb strings.Builder
	for _, t := range v.Tokens {
		switch t.Mode {
		case study.RenderHighlight:
			fmt.Fprintf(&sb, "*%s*", t.Value)
		case study.RenderBlank:
			if t.Answer != "" {
				fmt.Fprintf(&sb, "[%d: %s]", t.InstanceID, t.Answer)
			} else {
				fmt.Fprintf(&sb, "[%d ____]", t.InstanceID)
			}
		case study.RenderGraded:
			switch t.Grade {
			case study.GradeCorrect:
				fmt.Fprintf(&sb, "[+ %s]", t.Value)
			case study.GradeWrong:
				fmt.Fprintf(&sb, "[- %s => %s]", t.Answer, t.Value)
			default:
				fmt.Fprintf(&sb, "[%s]", t.Value)
			}
		default:
			sb.WriteString(t.Value)
		}
	}
	return sb.String()
}

func bars(v study.View) string {
	var sb strings.Builder
	for _, g := range v.Bars {
		switch g {
		case study.GradeCorrect:
			sb.WriteByte('#')
		case study.GradeWrong:
			sb.WriteByte('x')
		default:
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// run plays s to completion. A nil saver finishes without saving.
func (t *terminal) run(ctx context.Context, s *study.Session, saver study.Saver) (study.Completion, error) {
	sc := bufio.NewScanner(t.in)
	readLine := func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(sc.Text()), nil
	}

	for {
		v := s.View()
		switch {
		case v.Step == study.StepComplete:
			return study.Completion{CorrectCount: v.CorrectCount, Total: v.Total}, nil

		case v.Substep == study.SubstepReveal:
			fmt.Fprintf(t.out, "\n== %s == %s\n", v.Title, appI18n.Td(ctx, "RoundHeader", map[string]any{"Round": v.Round}))
			fmt.Fprintln(t.out, render(v))
			fmt.Fprintln(t.out, appI18n.T(ctx, "RevealHint"))
			if _, err := readLine(); err != nil {
				return study.Completion{}, err
			}
			if err := s.Start(); err != nil {
				return study.Completion{}, err
			}

		case v.Substep == study.SubstepFill:
			if err := t.fill(ctx, s, readLine); err != nil {
				return study.Completion{}, err
			}
			res, err := s.Submit()
			if err != nil {
				return study.Completion{}, err
			}
			v = s.View()
			fmt.Fprintln(t.out, render(v))
			fmt.Fprintln(t.out, appI18n.Td(ctx, "RoundResult", map[string]any{"Correct": res.Correct, "Wrong": res.Wrong}))
			fmt.Fprintln(t.out, bars(v))

		case v.Step == study.Round3Grade:
			c, err := s.Finish(ctx, saver)
			if err != nil {
				return c, err
			}
			if c.SaveErr != nil {
				fmt.Fprintln(t.out, appI18n.T(ctx, "SaveFailed"))
			}
			fmt.Fprintln(t.out, appI18n.Td(ctx, "SessionComplete", map[string]any{
				"Correct": c.CorrectCount,
				"Total":   c.Total,
				"XP":      progress.SessionXP(c.CorrectCount),
			}))
			return c, nil

		default:
			if err := s.Advance(); err != nil {
				return study.Completion{}, err
			}
		}
	}
}

// fill prompts for every active blank that is not yet correct. Hint
// commands print a hint and ask again; the next line replaces it.
func (t *terminal) fill(ctx context.Context, s *study.Session, readLine func() (string, error)) error {
	fmt.Fprintln(t.out, render(s.View()))
	pending := 0
	for _, ins := range s.Active() {
		if s.GradeOf(ins.InstanceID) != study.GradeCorrect {
			pending++
		}
	}
	fmt.Fprintln(t.out, appI18n.Tp(ctx, "BlanksActive", pending))

	for _, ins := range s.Active() {
		if s.GradeOf(ins.InstanceID) == study.GradeCorrect {
			continue
		}
		for {
			fmt.Fprint(t.out, appI18n.Td(ctx, "PromptBlank", map[string]any{"ID": ins.InstanceID}))
			line, err := readLine()
			if err != nil {
				return err
			}
			if kind, ok := hintCommands[line]; ok {
				hint, err := s.ApplyHint(ins.InstanceID, kind)
				if err != nil {
					return err
				}
				fmt.Fprintf(t.out, "  %s\n", hint)
				continue
			}
			if err := s.SetAnswer(ins.InstanceID, line); err != nil {
				return err
			}
			break
		}
	}
	return nil
}
