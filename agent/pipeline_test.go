package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"prezo/deck"
	"prezo/document"
	"prezo/template"
)

// scriptedLLM replays canned replies in call order.
type scriptedLLM struct {
	replies []string
	calls   int
}

func (s *scriptedLLM) Chat(ctx context.Context, message string) (string, error) {
	if s.calls >= len(s.replies) {
		return "", fmt.Errorf("unexpected call %d", s.calls+1)
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func pipelineModule(t *testing.T) *deck.GeneratedModule {
	t.Helper()
	meta := &template.TemplateMetadata{
		TemplateID:        "test_template",
		TemplateName:      "test_template.pptx",
		SlideWidthInches:  10,
		SlideHeightInches: 7.5,
		Layouts:           []template.LayoutInfo{},
	}
	mod, err := deck.NewGenerator("", nil).Generate(meta)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return mod
}

func testDocument() *document.Content {
	return &document.Content{
		FileType:  "txt",
		FileName:  "report.txt",
		FullText:  "Quarterly results were strong across all regions.",
		WordCount: 7,
	}
}

func happyPathReplies() []string {
	return []string{
		`{"summary": "Strong quarterly results.", "document_type": "report", "key_topics": ["revenue"]}`,
		`{"title": "Quarterly Results", "subtitle": "FY26 Q2", "audience": "executives", "tone": "formal", "slide_count": 4, "emphasis": ["growth"]}`,
		`{"sections": [{"title": "Overview", "points": ["results"]}]}`,
		`{"title": "Quarterly Results", "subtitle": "FY26 Q2", "slides": [
			{"kind": "section", "title": "Overview"},
			{"kind": "content", "title": "Findings", "bullets": ["Revenue up", "Margins stable"]},
			{"kind": "two_column", "title": "Regions", "left": ["EMEA up"], "right": ["APAC flat"]},
			{"kind": "content", "title": "No substance"}
		]}`,
		`[{"slide_title": "Findings", "prompt": "bar chart of regional revenue", "context": "results slide"}]`,
	}
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	outputPath := filepath.Join(dir, "out.pptx")
	promptsPath := filepath.Join(dir, "prompts.json")

	llm := &scriptedLLM{replies: happyPathReplies()}
	p := NewPipeline(llm, nil)

	result, err := p.Run(context.Background(), RunInput{
		Document:    testDocument(),
		Guidance:    "keep it short",
		Module:      pipelineModule(t),
		OutputPath:  outputPath,
		PromptsPath: promptsPath,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Title + section + content + two-column + one image placeholder.
	// The bulletless content slide is dropped by review.
	if result.SlideCount != 5 {
		t.Errorf("SlideCount = %d, want 5", result.SlideCount)
	}
	if len(result.Plan.Slides) != 3 {
		t.Errorf("reviewed plan has %d slides, want 3", len(result.Plan.Slides))
	}
	if len(result.ImagePrompts) != 1 {
		t.Errorf("got %d image prompts, want 1", len(result.ImagePrompts))
	}

	// Five model stages plus review and assembly.
	if len(result.Stages) != 7 {
		t.Errorf("got %d stage metrics, want 7", len(result.Stages))
	}

	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("deck not written: %v", err)
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		t.Fatalf("prompts sidecar not written: %v", err)
	}
	var sidecar struct {
		TemplateID string        `json:"template_id"`
		Prompts    []ImagePrompt `json:"image_prompts"`
	}
	if err := json.Unmarshal(data, &sidecar); err != nil {
		t.Fatalf("sidecar is not valid JSON: %v", err)
	}
	if sidecar.TemplateID != "test_template" || len(sidecar.Prompts) != 1 {
		t.Errorf("sidecar = %+v", sidecar)
	}
}

func TestPipelineStageFailure(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"I cannot help with that."}}
	p := NewPipeline(llm, nil)

	_, err := p.Run(context.Background(), RunInput{
		Document:   testDocument(),
		Module:     pipelineModule(t),
		OutputPath: filepath.Join(t.TempDir(), "out.pptx"),
	})
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("got %T (%v), want StageError", err, err)
	}
	if se.Stage != StageDocumentAnalysis {
		t.Errorf("stage = %q, want %q", se.Stage, StageDocumentAnalysis)
	}
}

func TestPipelineEmptyOutlineFails(t *testing.T) {
	replies := happyPathReplies()
	replies[2] = `{"sections": []}`
	llm := &scriptedLLM{replies: replies}
	p := NewPipeline(llm, nil)

	_, err := p.Run(context.Background(), RunInput{
		Document:   testDocument(),
		Module:     pipelineModule(t),
		OutputPath: filepath.Join(t.TempDir(), "out.pptx"),
	})
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("got %T (%v), want StageError", err, err)
	}
	if se.Stage != StageOutline {
		t.Errorf("stage = %q, want %q", se.Stage, StageOutline)
	}
}

func TestReviewCapsBulletsAndDropsEmptySlides(t *testing.T) {
	p := NewPipeline(nil, nil)

	plan := &DeckPlan{
		Title: "Deck",
		Slides: []SlideContent{
			{Kind: SlideKindContent, Title: "Crowded", Bullets: []string{"1", "2", "3", "4", "5", "6", "7", "8"}},
			{Kind: SlideKindContent, Title: "", Bullets: []string{"orphan"}},
			{Kind: "mystery", Title: "Odd Kind", Bullets: []string{"kept"}},
			{Kind: SlideKindSection, Title: "Part Two"},
			{Kind: SlideKindTwoColumn, Title: "Empty Compare"},
		},
	}

	var metrics []StageMetric
	reviewed := p.Review(plan, &metrics)

	if len(reviewed.Slides) != 3 {
		t.Fatalf("kept %d slides, want 3", len(reviewed.Slides))
	}
	if len(reviewed.Slides[0].Bullets) != 6 {
		t.Errorf("bullet cap not applied: %d bullets", len(reviewed.Slides[0].Bullets))
	}
	if reviewed.Slides[1].Kind != SlideKindContent {
		t.Errorf("unknown kind normalized to %q, want content", reviewed.Slides[1].Kind)
	}
	if reviewed.Slides[2].Kind != SlideKindSection {
		t.Errorf("section slide lost: %+v", reviewed.Slides[2])
	}
	if len(metrics) != 1 || metrics[0].Name != StageReview {
		t.Errorf("metrics = %+v", metrics)
	}
}
