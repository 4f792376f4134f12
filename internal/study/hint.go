package study

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// HintKind selects what part of the answer a hint reveals.
type HintKind string

const (
	HintFirst   HintKind = "first"
	HintLast    HintKind = "last"
	HintChosung HintKind = "chosung"
)

const (
	hangulBase = 0xAC00
	hangulLast = 0xD7A3
	// Each initial consonant spans 21 medials x 28 finals.
	hangulInitialSpan = 588
)

var initialConsonants = []rune{
	'ㄱ', 'ㄲ', 'ㄴ', 'ㄷ', 'ㄸ', 'ㄹ', 'ㅁ', 'ㅂ', 'ㅃ', 'ㅅ',
	'ㅆ', 'ㅇ', 'ㅈ', 'ㅉ', 'ㅊ', 'ㅋ', 'ㅌ', 'ㅍ', 'ㅎ',
}

// Chosung returns the initial consonants of the Hangul syllables in word.
// Other runes are dropped.
func Chosung(word string) string {
	var sb strings.Builder
	for _, r := range word {
		if r < hangulBase || r > hangulLast {
			continue
		}
		sb.WriteRune(initialConsonants[(r-hangulBase)/hangulInitialSpan])
	}
	return sb.String()
}

// Hint builds the hint text of the given kind for word.
func Hint(kind HintKind, word string) (string, error) {
	word = strings.TrimSpace(word)
	switch kind {
	case HintFirst:
		r, _ := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			return "", nil
		}
		return string(r), nil
	case HintLast:
		r, _ := utf8.DecodeLastRuneInString(word)
		if r == utf8.RuneError {
			return "", nil
		}
		return string(r), nil
	case HintChosung:
		return Chosung(word), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidHint, kind)
}

// isHintResidue reports whether an answer is only what a hint wrote: a
// single rune or nothing but compatibility jamo consonants.
func isHintResidue(s string) bool {
	if s == "" {
		return false
	}
	if utf8.RuneCountInString(s) == 1 {
		return true
	}
	for _, r := range s {
		if r < 'ㄱ' || r > 'ㅎ' {
			return false
		}
	}
	return true
}
