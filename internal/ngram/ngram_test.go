package ngram

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercases ascii", "Apple PIE", "applepie"},
		{"drops punctuation and spaces", "  a-b_c!? 1 2 ", "abc12"},
		{"keeps hangul syllables", "안녕 하세요!", "안녕하세요"},
		{"composes decomposed hangul", "\u1100\u1161", "\uac00"},
		{"drops non-ascii latin letters", "café", "caf"},
		{"drops fullwidth digits", "１２3", "3"},
		{"drops jamo that cannot compose", "ㄱabc", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestGenerateBigrams(t *testing.T) {
	got := Generate("apple pie", 2)
	want := NewSet("ap", "pp", "pl", "le", "ep", "pi", "ie")
	assert.True(t, want.Equal(got), "got %v", got.Sorted())
	assert.Len(t, got, 7)
}

func TestGenerateCollapsesRepeats(t *testing.T) {
	got := Generate("aaaa", 2)
	assert.Equal(t, []string{"aa"}, got.Sorted())
}

func TestGenerateShortInput(t *testing.T) {
	assert.Empty(t, Generate("", 2))
	assert.Empty(t, Generate("a", 2))
	assert.Empty(t, Generate("a !!", 2), "length is measured after normalization")
	assert.Empty(t, Generate("abc", 0))
}

func TestGenerateHangulCountsRunes(t *testing.T) {
	got := Generate("검색엔진", 2)
	assert.True(t, NewSet("검색", "색엔", "엔진").Equal(got))
}

func TestGenerateProperties(t *testing.T) {
	inputs := []string{"The quick brown fox", "n-gram 인덱스 search", "zzzz", "MiXeD 123 CaSe"}
	for _, text := range inputs {
		for n := 1; n <= 4; n++ {
			first := Generate(text, n)
			second := Generate(text, n)
			assert.True(t, first.Equal(second), "generation must be deterministic for %q n=%d", text, n)
			for g := range first {
				assert.Equal(t, n, utf8.RuneCountInString(g), "gram %q of %q", g, text)
			}
		}
	}
}

func TestSetCanonical(t *testing.T) {
	a := NewSet("pp", "ap", "le")
	b := NewSet("le", "ap", "pp", "ap")
	assert.Equal(t, "ap,le,pp", a.Canonical())
	assert.Equal(t, a.Canonical(), b.Canonical())
}
