package agent

import (
	"testing"
)

func TestExtractJSONFencedBlock(t *testing.T) {
	response := "Here is the plan:\n```json\n{\"title\": \"Deck\"}\n```\nLet me know."
	if got := ExtractJSON(response); got != `{"title": "Deck"}` {
		t.Errorf("ExtractJSON = %q", got)
	}
}

func TestExtractJSONBareFence(t *testing.T) {
	response := "```\n[{\"a\": 1}]\n```"
	if got := ExtractJSON(response); got != `[{"a": 1}]` {
		t.Errorf("ExtractJSON = %q", got)
	}
}

func TestExtractJSONWholeReply(t *testing.T) {
	response := `  {"sections": []}  `
	if got := ExtractJSON(response); got != `{"sections": []}` {
		t.Errorf("ExtractJSON = %q", got)
	}
}

func TestExtractJSONEmbeddedInProse(t *testing.T) {
	response := `Sure! The outline is {"sections": [{"title": "Intro", "points": ["a"]}]} as requested.`
	got := ExtractJSON(response)
	if got != `{"sections": [{"title": "Intro", "points": ["a"]}]}` {
		t.Errorf("ExtractJSON = %q", got)
	}
}

func TestExtractJSONArrayInProse(t *testing.T) {
	response := `Two visuals: [{"slide_title": "Intro", "prompt": "sunrise"}, {"slide_title": "Close", "prompt": "sunset"}] - that's all.`
	got := ExtractJSON(response)
	if got != `[{"slide_title": "Intro", "prompt": "sunrise"}, {"slide_title": "Close", "prompt": "sunset"}]` {
		t.Errorf("ExtractJSON = %q", got)
	}
}

func TestExtractJSONNoPayload(t *testing.T) {
	if got := ExtractJSON("I could not produce a structured answer."); got != "" {
		t.Errorf("ExtractJSON = %q, want empty", got)
	}
	if got := ExtractJSON(""); got != "" {
		t.Errorf("ExtractJSON(\"\") = %q, want empty", got)
	}
}

func TestExtractJSONSkipsInvalidFence(t *testing.T) {
	response := "```json\n{not valid}\n```\n```json\n{\"ok\": true}\n```"
	if got := ExtractJSON(response); got != `{"ok": true}` {
		t.Errorf("ExtractJSON = %q", got)
	}
}

func TestDecodeStageJSON(t *testing.T) {
	var analysis DocumentAnalysis
	reply := "```json\n{\"summary\": \"about birds\", \"document_type\": \"article\", \"key_topics\": [\"birds\"]}\n```"
	if err := DecodeStageJSON(reply, &analysis); err != nil {
		t.Fatalf("DecodeStageJSON: %v", err)
	}
	if analysis.Summary != "about birds" || len(analysis.KeyTopics) != 1 {
		t.Errorf("decoded = %+v", analysis)
	}
}

func TestDecodeStageJSONNoJSON(t *testing.T) {
	var v struct{}
	err := DecodeStageJSON("no structure at all", &v)
	if err == nil {
		t.Fatal("expected error")
	}
	se, ok := err.(*StageError)
	if !ok {
		t.Fatalf("got %T, want StageError", err)
	}
	if se.Stage != "parse" {
		t.Errorf("stage = %q", se.Stage)
	}
}
