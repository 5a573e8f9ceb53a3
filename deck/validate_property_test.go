package deck

import (
	"strings"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"
)

// For any input and any positive budget, the truncated text never
// exceeds the budget in runes, and text within the budget passes
// through unchanged.
func TestPropertyTruncateNeverExceedsBudget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		max := rapid.IntRange(1, 200).Draw(t, "max")

		out := truncateRunes(s, max)

		if utf8.RuneCountInString(out) > max {
			t.Fatalf("truncateRunes(%q, %d) = %q, exceeds budget", s, max, out)
		}
		if utf8.RuneCountInString(s) <= max && out != s {
			t.Fatalf("text within budget was modified: %q -> %q", s, out)
		}
	})
}

// requireText rejects blank input for any amount of surrounding
// whitespace, and accepted output is never empty.
func TestPropertyRequireTextRejectsBlank(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pad := rapid.StringMatching(`[ \t]{0,10}`).Draw(t, "pad")

		if _, err := requireText("field", pad, 80); err == nil {
			t.Fatalf("blank input %q accepted", pad)
		}

		word := rapid.StringMatching(`[A-Za-z]{1,120}`).Draw(t, "word")
		out, err := requireText("field", pad+word+pad, 80)
		if err != nil {
			t.Fatalf("non-blank input rejected: %v", err)
		}
		if strings.TrimSpace(out) == "" {
			t.Fatalf("accepted output is blank")
		}
	})
}

// Wrapped lines never exceed the requested width and rejoin to the
// original words.
func TestPropertyWrapTextPreservesWords(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		wordCount := rapid.IntRange(1, 30).Draw(t, "wordCount")
		words := make([]string, wordCount)
		for i := range words {
			words[i] = rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "word")
		}
		text := strings.Join(words, " ")
		width := rapid.IntRange(20, 80).Draw(t, "width")

		lines := wrapText(text, width)

		for _, line := range lines {
			if utf8.RuneCountInString(line) > width {
				t.Fatalf("line %q exceeds width %d", line, width)
			}
		}
		if strings.Join(strings.Fields(strings.Join(lines, " ")), " ") != text {
			t.Fatalf("wrapping lost words: %v", lines)
		}
	})
}
