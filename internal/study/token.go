package study

import (
	"sort"
	"strings"
	"unicode"
)

// TokenKind tags the shape of a Token.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenSpace
	TokenNewline
	TokenKeyword
)

var tokenKindNames = map[TokenKind]string{
	TokenText:    "text",
	TokenSpace:   "space",
	TokenNewline: "newline",
	TokenKeyword: "keyword",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k TokenKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Token is one piece of tokenized study text. Keyword tokens carry the
// keyword they matched and, after AssignInstances, their instance id.
type Token struct {
	Kind  TokenKind `json:"type"`
	Value string    `json:"value"`

	BaseWord   string `json:"base_word,omitempty"`
	Occurrence int    `json:"occ,omitempty"`
	InstanceID int    `json:"instance_id,omitempty"`
}

// IsKeyword reports whether t is a keyword occurrence.
func (t Token) IsKeyword() bool {
	return t.Kind == TokenKeyword
}

type keyword struct {
	word  string
	runes []rune // lower-cased
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t'
}

// prepareKeywords trims, drops empties, collapses duplicates and orders the
// keywords longest first. Equal lengths keep their listed order.
func prepareKeywords(words []string) []keyword {
	seen := make(map[string]bool, len(words))
	out := make([]keyword, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		rs := []rune(w)
		for i, r := range rs {
			rs[i] = unicode.ToLower(r)
		}
		out = append(out, keyword{word: w, runes: rs})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].runes) > len(out[j].runes)
	})
	return out
}

// matchKeyword returns the number of source runes consumed when kw starts at
// pos, or 0. Spaces and tabs interrupting the keyword in the source are
// consumed as part of the match; blanks inside the keyword are ignored.
func matchKeyword(src, lower []rune, pos int, kw []rune) int {
	ti, ki := pos, 0
	for ki < len(kw) && ti < len(src) {
		if isBlank(kw[ki]) {
			ki++
			continue
		}
		if isBlank(src[ti]) {
			ti++
			continue
		}
		if lower[ti] != kw[ki] {
			return 0
		}
		ti++
		ki++
	}
	for ki < len(kw) && isBlank(kw[ki]) {
		ki++
	}
	if ki != len(kw) {
		return 0
	}
	return ti - pos
}

func matchAny(src, lower []rune, pos int, kws []keyword) (keyword, int) {
	for _, kw := range kws {
		if n := matchKeyword(src, lower, pos, kw.runes); n > 0 {
			return kw, n
		}
	}
	return keyword{}, 0
}

// Tokenize splits text into text runs, blank runs, newlines and keyword
// occurrences. Concatenating the token values always yields text again.
func Tokenize(text string, keywords []string) []Token {
	if text == "" {
		return nil
	}
	kws := prepareKeywords(keywords)

	src := []rune(text)
	lower := make([]rune, len(src))
	for i, r := range src {
		lower[i] = unicode.ToLower(r)
	}

	occ := make(map[string]int)
	var out []Token
	i := 0
	for i < len(src) {
		r := src[i]

		if r == '\n' {
			out = append(out, Token{Kind: TokenNewline, Value: "\n"})
			i++
			continue
		}

		if isBlank(r) {
			j := i
			for j < len(src) && isBlank(src[j]) {
				j++
			}
			out = append(out, Token{Kind: TokenSpace, Value: string(src[i:j])})
			i = j
			continue
		}

		if kw, n := matchAny(src, lower, i, kws); n > 0 {
			occ[kw.word]++
			out = append(out, Token{
				Kind:       TokenKeyword,
				Value:      string(src[i : i+n]),
				BaseWord:   kw.word,
				Occurrence: occ[kw.word],
			})
			i += n
			continue
		}

		j := i + 1
		for j < len(src) && src[j] != '\n' && !isBlank(src[j]) {
			if _, n := matchAny(src, lower, j, kws); n > 0 {
				break
			}
			j++
		}
		out = append(out, Token{Kind: TokenText, Value: string(src[i:j])})
		i = j
	}
	return out
}

// Join concatenates token values.
func Join(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Value)
	}
	return sb.String()
}
