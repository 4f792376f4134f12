package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pavelanni/scaffold/internal/model"
)

var (
	// ErrUsageLimit is returned when the extraction backend reports that the
	// OCR allowance is used up.
	ErrUsageLimit = errors.New("ocr usage limit reached")

	// ErrEmptyExtraction means the backend answered without any text.
	ErrEmptyExtraction = errors.New("ocr returned no text")
)

const pageSeparator = "\n\n"

// extraction is the JSON shape the backend answers with: either a list of
// pages or a single page at the top level.
type extraction struct {
	Status       string       `json:"status,omitempty"`
	Message      string       `json:"message,omitempty"`
	Title        string       `json:"title"`
	OriginalText string       `json:"original_text"`
	Keywords     []string     `json:"keywords"`
	Pages        []model.Page `json:"pages"`
}

// ParsePayload decodes a raw extraction response into a study payload.
func ParsePayload(raw []byte, defaultTitle string) (model.Payload, error) {
	var ex extraction
	if err := json.Unmarshal(raw, &ex); err != nil {
		return model.Payload{}, fmt.Errorf("parse extraction: %w", err)
	}
	if ex.Status == string(model.UsageLimitReached) {
		if ex.Message != "" {
			return model.Payload{}, fmt.Errorf("%w: %s", ErrUsageLimit, ex.Message)
		}
		return model.Payload{}, ErrUsageLimit
	}

	pages := ex.Pages
	if len(pages) == 0 && strings.TrimSpace(ex.OriginalText) != "" {
		pages = []model.Page{{OriginalText: ex.OriginalText, Keywords: ex.Keywords}}
	}
	title := strings.TrimSpace(ex.Title)
	if title == "" {
		title = defaultTitle
	}
	p := BuildPayload(title, pages)
	if !p.HasText() {
		return model.Payload{}, ErrEmptyExtraction
	}
	return p, nil
}

// BuildPayload merges pages into one payload. Page texts are joined with a
// blank line. Keywords are trimmed and deduplicated across pages; each
// unique keyword is numbered in order of first appearance and remembers the
// page it came from.
func BuildPayload(title string, pages []model.Page) model.Payload {
	texts := make([]string, 0, len(pages))
	seen := make(map[string]bool)
	var blanks []model.Blank
	var refs []model.BlankRef
	for pi, pg := range pages {
		texts = append(texts, pg.OriginalText)
		for _, kw := range pg.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			idx := len(blanks)
			blanks = append(blanks, model.Blank{ID: idx, Word: kw})
			refs = append(refs, model.BlankRef{BlankIndex: idx, Word: kw, PageIndex: pi})
		}
	}
	return model.Payload{
		Title:         title,
		ExtractedText: strings.Join(texts, pageSeparator),
		Blanks:        blanks,
		Pages:         pages,
		BlankRefs:     refs,
	}
}
