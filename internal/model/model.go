package model

import (
	"strings"
	"time"
)

// Blank is one keyword the OCR collaborator picked for blanking.
type Blank struct {
	ID          int    `json:"id"`
	Word        string `json:"word" validate:"max=100"`
	MeaningLong string `json:"meaningLong,omitempty"`
}

// Page is the text and keywords extracted from a single source page.
type Page struct {
	OriginalText string   `json:"original_text"`
	Keywords     []string `json:"keywords"`
}

// BlankRef ties a unique keyword to the page it was first seen on.
type BlankRef struct {
	BlankIndex int    `json:"blank_index"`
	Word       string `json:"word"`
	PageIndex  int    `json:"page_index"`
}

// Payload is everything a study session needs: the extracted text and the
// keyword list to blank out.
type Payload struct {
	Title         string     `json:"title"`
	ExtractedText string     `json:"extractedText"`
	Blanks        []Blank    `json:"blanks"`
	Pages         []Page     `json:"pages,omitempty"`
	BlankRefs     []BlankRef `json:"blankItems,omitempty"`
	// UserAnswers holds answers from an earlier attempt, ordered by instance.
	UserAnswers []string `json:"user_answers,omitempty"`
}

// Keywords returns the blank words in payload order.
func (p Payload) Keywords() []string {
	words := make([]string, 0, len(p.Blanks))
	for _, b := range p.Blanks {
		words = append(words, b.Word)
	}
	return words
}

// HasText reports whether the payload carries any extracted text.
func (p Payload) HasText() bool {
	return strings.TrimSpace(p.ExtractedText) != ""
}

// Crop is a pixel rectangle inside an uploaded image.
type Crop struct {
	X      int `json:"x" validate:"gte=0"`
	Y      int `json:"y" validate:"gte=0"`
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

// UsageStatus describes the remaining OCR allowance.
type UsageStatus string

const (
	UsageOK           UsageStatus = "ok"
	UsageLimitReached UsageStatus = "limit_reached"
)

// Usage is the OCR page allowance for the current period.
type Usage struct {
	Status     UsageStatus `json:"status"`
	Period     string      `json:"period"`
	PagesUsed  int         `json:"pages_used"`
	PagesLimit int         `json:"pages_limit"`
	Remaining  int         `json:"remaining"`
}

// Quiz is a finished study session as saved by the store.
type Quiz struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	SubjectName   string    `json:"subject_name,omitempty"`
	ExtractedText string    `json:"extracted_text"`
	Keywords      []string  `json:"keywords"`
	Answers       []string  `json:"user_answers"`
	CorrectCount  int       `json:"correct_count"`
	Total         int       `json:"total"`
	CreatedAt     time.Time `json:"created_at"`
}

// Payload rebuilds the study payload of a saved quiz for review mode.
func (q Quiz) Payload() Payload {
	blanks := make([]Blank, 0, len(q.Keywords))
	for i, w := range q.Keywords {
		blanks = append(blanks, Blank{ID: i, Word: w})
	}
	return Payload{
		Title:         q.Title,
		ExtractedText: q.ExtractedText,
		Blanks:        blanks,
		UserAnswers:   append([]string(nil), q.Answers...),
	}
}

// LeagueTier is the league a learner competes in.
type LeagueTier string

const (
	LeagueIron     LeagueTier = "iron"
	LeagueBronze   LeagueTier = "bronze"
	LeagueSilver   LeagueTier = "silver"
	LeagueGold     LeagueTier = "gold"
	LeaguePlatinum LeagueTier = "platinum"
	LeagueDiamond  LeagueTier = "diamond"
)

// Progress is the learner's gamified state.
type Progress struct {
	Exp           int        `json:"exp"`
	Level         int        `json:"level"`
	Streak        int        `json:"streak"`
	LastCheckIn   string     `json:"last_check_in,omitempty"` // YYYY-MM-DD
	League        LeagueTier `json:"league"`
	TotalSessions int        `json:"total_sessions"`
}

// StudyConfig holds runtime parameters set via CLI flags.
type StudyConfig struct {
	Lang          string // default UI language (en, ko)
	DefaultTitle  string // title used when the OCR collaborator returns none
	SubjectName   string
	OCRPagesLimit int // monthly OCR page allowance; 0 means unlimited
	MaxUploadSize int64
}
