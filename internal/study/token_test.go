package study

import (
	"testing"
)

type wantTok struct {
	kind  TokenKind
	value string
}

func checkTokens(t *testing.T, got []Token, want []wantTok) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %+v, want %d", len(got), got, len(want))
	}
	for i, w := range want {
		if got[i].Kind != w.kind || got[i].Value != w.value {
			t.Errorf("token %d = %s(%q), want %s(%q)", i, got[i].Kind, got[i].Value, w.kind, w.value)
		}
	}
}

func TestTokenizeScenarios(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     []wantTok
	}{
		{
			name:     "hangul keyword after space",
			text:     "가 나다",
			keywords: []string{"나다"},
			want: []wantTok{
				{TokenText, "가"},
				{TokenSpace, " "},
				{TokenKeyword, "나다"},
			},
		},
		{
			name:     "longest keyword wins",
			text:     "대표제이다",
			keywords: []string{"대표", "대표제"},
			want: []wantTok{
				{TokenKeyword, "대표제"},
				{TokenText, "이다"},
			},
		},
		{
			name:     "repeated keyword",
			text:     "X Y X",
			keywords: []string{"X"},
			want: []wantTok{
				{TokenKeyword, "X"},
				{TokenSpace, " "},
				{TokenText, "Y"},
				{TokenSpace, " "},
				{TokenKeyword, "X"},
			},
		},
		{
			name:     "source spaces inside keyword",
			text:     "소선 거구제 폐지",
			keywords: []string{"소선거구제"},
			want: []wantTok{
				{TokenKeyword, "소선 거구제"},
				{TokenSpace, " "},
				{TokenText, "폐지"},
			},
		},
		{
			name:     "case insensitive",
			text:     "Go is fun",
			keywords: []string{"go"},
			want: []wantTok{
				{TokenKeyword, "Go"},
				{TokenSpace, " "},
				{TokenText, "is"},
				{TokenSpace, " "},
				{TokenText, "fun"},
			},
		},
		{
			name:     "trailing blank not consumed",
			text:     "AB\t C",
			keywords: []string{"AB"},
			want: []wantTok{
				{TokenKeyword, "AB"},
				{TokenSpace, "\t "},
				{TokenText, "C"},
			},
		},
		{
			name:     "keyword inside a word",
			text:     "abcX",
			keywords: []string{"x"},
			want: []wantTok{
				{TokenText, "abc"},
				{TokenKeyword, "X"},
			},
		},
		{
			name:     "newlines",
			text:     "a\n\nb",
			keywords: nil,
			want: []wantTok{
				{TokenText, "a"},
				{TokenNewline, "\n"},
				{TokenNewline, "\n"},
				{TokenText, "b"},
			},
		},
		{
			name:     "blank keywords ignored",
			text:     "a b",
			keywords: []string{"", "   ", "\t"},
			want: []wantTok{
				{TokenText, "a"},
				{TokenSpace, " "},
				{TokenText, "b"},
			},
		},
		{
			name:     "keyword absent from text",
			text:     "a b",
			keywords: []string{"zzz"},
			want: []wantTok{
				{TokenText, "a"},
				{TokenSpace, " "},
				{TokenText, "b"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text, tt.keywords)
			checkTokens(t, got, tt.want)
			if j := Join(got); j != tt.text {
				t.Errorf("Join = %q, want %q", j, tt.text)
			}
		})
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Tokenize("", []string{"a"}); len(got) != 0 {
		t.Fatalf("Tokenize(\"\") = %+v, want empty", got)
	}
}

func TestTokenizeLossless(t *testing.T) {
	texts := []string{
		"선거구제는 소선거구제와 대선거구제로 나뉜다.\n소선 거구제는 한 명을 뽑는다.",
		"  leading and trailing  \t\n",
		"mixed 한글 and English\t\ttabs\n\n\nnewlines",
		"emoji 😀 and combining é",
		"\n",
	}
	keywords := []string{"소선거구제", "대선거구제", "선거구제", "English", "😀", " and "}
	for _, text := range texts {
		if got := Join(Tokenize(text, keywords)); got != text {
			t.Errorf("Join(Tokenize(%q)) = %q", text, got)
		}
	}
}

func TestTokenizeOccurrenceAndBaseWord(t *testing.T) {
	toks := Tokenize("go Go GO", []string{"Go"})
	var occ []int
	for _, tok := range toks {
		if !tok.IsKeyword() {
			continue
		}
		if tok.BaseWord != "Go" {
			t.Errorf("BaseWord = %q, want Go", tok.BaseWord)
		}
		occ = append(occ, tok.Occurrence)
	}
	if len(occ) != 3 || occ[0] != 1 || occ[1] != 2 || occ[2] != 3 {
		t.Fatalf("occurrences = %v, want [1 2 3]", occ)
	}
}

func TestPrepareKeywords(t *testing.T) {
	got := prepareKeywords([]string{" ab ", "abc", "ab", "", "xy", "abcd"})
	want := []string{"abcd", "abc", "ab", "xy"}
	if len(got) != len(want) {
		t.Fatalf("got %d keywords, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].word != w {
			t.Errorf("keyword %d = %q, want %q", i, got[i].word, w)
		}
	}
}

func TestTokenKindText(t *testing.T) {
	b, err := TokenKeyword.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "keyword" {
		t.Errorf("MarshalText = %q, want keyword", b)
	}
}
