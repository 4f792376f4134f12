package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var FS embed.FS

var tagRegex = regexp.MustCompile(`(?i)</?\s*(system|instructions|system-instructions)\b[^>]*>`)

// Variant is the language of the extraction prompt.
type Variant string

const (
	VariantEnglish Variant = "en"
	VariantKorean  Variant = "ko"
)

var validVariants = map[Variant]bool{
	VariantEnglish: true,
	VariantKorean:  true,
}

// DefaultMaxKeywords caps the keywords requested per page.
const DefaultMaxKeywords = 20

const maxSubjectLen = 200

var (
	loadOnce     sync.Once
	loadErr      error
	ocrTemplates map[Variant]*template.Template
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[Variant(v)]
}

// OCRData holds template data for the extraction prompt.
type OCRData struct {
	Subject     string
	MaxKeywords int
	Cropped     bool
}

// Load parses the extraction templates from fsys. Only the first call does
// any work.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		ocrTemplates = make(map[Variant]*template.Template)
		for _, v := range []Variant{VariantEnglish, VariantKorean} {
			file := "templates/ocr_" + string(v) + ".txt"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", file, err)
				return
			}
			tmpl, err := template.New("ocr_" + string(v)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", file, err)
				return
			}
			ocrTemplates[v] = tmpl
		}
	})
	return loadErr
}

// BuildOCRPrompt renders the extraction prompt for variant.
func BuildOCRPrompt(variant Variant, data OCRData) (string, error) {
	if ocrTemplates == nil {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := ocrTemplates[variant]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	if data.MaxKeywords <= 0 {
		data.MaxKeywords = DefaultMaxKeywords
	}
	data.Subject = sanitizeSubject(data.Subject)

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitizeSubject strips tag-like markup and newlines from a user supplied
// subject so it cannot pose as instructions.
func sanitizeSubject(s string) string {
	s = tagRegex.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxSubjectLen {
		s = string([]rune(s)[:maxSubjectLen])
	}
	return s
}
