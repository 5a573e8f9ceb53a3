package deck

import "strings"

// requireText rejects empty required fields and truncates oversized
// input to the display-safe budget. Truncation (rather than rejection)
// is the single policy applied to every text field; maxRunes 0 means
// no budget.
func requireText(field, value string, maxRunes int) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", &ValidationError{Field: field, Message: "is required"}
	}
	if maxRunes > 0 {
		value = truncateRunes(value, maxRunes)
	}
	return value, nil
}

// truncateRunes caps s at max runes, marking the cut with an ellipsis.
// The result never exceeds max runes.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// wrapText breaks text into lines of at most maxLen runes, preferring
// to break at spaces past the halfway point.
func wrapText(text string, maxLen int) []string {
	if len(text) == 0 {
		return []string{""}
	}

	var lines []string
	runes := []rune(text)

	for len(runes) > 0 {
		if len(runes) <= maxLen {
			lines = append(lines, string(runes))
			break
		}

		breakPoint := maxLen
		for i := maxLen; i > maxLen/2; i-- {
			if runes[i] == ' ' {
				breakPoint = i + 1
				break
			}
		}

		lines = append(lines, strings.TrimRight(string(runes[:breakPoint]), " "))
		runes = runes[breakPoint:]

		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}

	return lines
}
