package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	objectPattern     = regexp.MustCompile(`(?s)\{.*\}`)
	arrayPattern      = regexp.MustCompile(`(?s)\[.*\]`)
)

// ExtractJSON pulls the JSON payload out of a model reply. Models often
// wrap the payload in a fenced code block or surround it with prose;
// the first candidate that parses wins. Returns "" when no valid JSON
// is found.
func ExtractJSON(response string) string {
	for _, m := range fencedJSONPattern.FindAllStringSubmatch(response, -1) {
		candidate := strings.TrimSpace(m[1])
		if isValidJSON(candidate) {
			return candidate
		}
	}

	trimmed := strings.TrimSpace(response)
	if isValidJSON(trimmed) {
		return trimmed
	}

	// Greedy object/array scan over the raw text.
	for _, pattern := range []*regexp.Regexp{objectPattern, arrayPattern} {
		if m := pattern.FindString(response); m != "" && isValidJSON(m) {
			return m
		}
	}

	return ""
}

// DecodeStageJSON extracts and unmarshals a stage reply into v.
func DecodeStageJSON(response string, v interface{}) error {
	payload := ExtractJSON(response)
	if payload == "" {
		return &StageError{Stage: "parse", Reason: "model reply contains no valid JSON"}
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return &StageError{Stage: "parse", Reason: err.Error()}
	}
	return nil
}

func isValidJSON(s string) bool {
	if s == "" {
		return false
	}
	var v interface{}
	return json.Unmarshal([]byte(s), &v) == nil
}
