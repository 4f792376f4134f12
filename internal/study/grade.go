package study

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Grade is the per-instance grading state.
type Grade int

const (
	GradeIdle Grade = iota
	GradeCorrect
	GradeWrong
)

func (g Grade) String() string {
	switch g {
	case GradeCorrect:
		return "correct"
	case GradeWrong:
		return "wrong"
	}
	return "idle"
}

// MarshalText encodes the grade by name.
func (g Grade) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// Normalize composes s to NFC, collapses whitespace runs to one space, trims
// and lower-cases it.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Matches reports whether answer equals word once both are normalized.
// Spaces inside a word still count: "소 선거구제" does not match "소선거구제".
func Matches(answer, word string) bool {
	return Normalize(answer) == Normalize(word)
}

// GradeResult summarizes one grading pass.
type GradeResult struct {
	Checked int   `json:"checked"`
	Correct int   `json:"correct"`
	Wrong   int   `json:"wrong"`
	Skipped int   `json:"skipped"`
	WrongID []int `json:"wrong_ids,omitempty"`
}

// GradeActive grades every active instance against answers, updating grades
// and wrong in place. Instances already correct are skipped and never
// downgraded, whatever their stored answer says.
func GradeActive(active []KeywordInstance, answers map[int]string, grades map[int]Grade, wrong map[int]struct{}) GradeResult {
	var res GradeResult
	for _, ins := range active {
		if grades[ins.InstanceID] == GradeCorrect {
			res.Skipped++
			continue
		}
		res.Checked++
		if Matches(answers[ins.InstanceID], ins.Word) {
			grades[ins.InstanceID] = GradeCorrect
			delete(wrong, ins.InstanceID)
			res.Correct++
			continue
		}
		grades[ins.InstanceID] = GradeWrong
		wrong[ins.InstanceID] = struct{}{}
		res.Wrong++
		res.WrongID = append(res.WrongID, ins.InstanceID)
	}
	return res
}
