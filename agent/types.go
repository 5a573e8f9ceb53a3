package agent

import "fmt"

// Stage names reported in errors and session records, in pipeline order.
const (
	StageDocumentAnalysis = "document_analysis"
	StageStrategy         = "strategy"
	StageOutline          = "outline"
	StageContent          = "content"
	StageImagePrompts     = "image_prompts"
	StageReview           = "review"
	StageAssembly         = "assembly"
)

// StageError reports which pipeline stage failed so operators can tell
// a bad upload from a generation defect.
type StageError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Reason)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// DocumentAnalysis is the first stage's reading of the reference
// document.
type DocumentAnalysis struct {
	Summary      string   `json:"summary"`
	DocumentType string   `json:"document_type"`
	KeyTopics    []string `json:"key_topics"`
}

// Strategy is the presentation plan derived from the analysis and the
// user's guidance.
type Strategy struct {
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle"`
	Audience   string   `json:"audience"`
	Tone       string   `json:"tone"`
	SlideCount int      `json:"slide_count"`
	Emphasis   []string `json:"emphasis"`
}

// Outline is the ordered section plan.
type Outline struct {
	Sections []OutlineSection `json:"sections"`
}

// OutlineSection is one planned section of the deck.
type OutlineSection struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// Slide kinds produced by the content stage.
const (
	SlideKindSection   = "section"
	SlideKindContent   = "content"
	SlideKindTwoColumn = "two_column"
)

// SlideContent is one planned slide.
type SlideContent struct {
	Kind    string   `json:"kind"`
	Title   string   `json:"title"`
	Bullets []string `json:"bullets,omitempty"`
	Left    []string `json:"left,omitempty"`
	Right   []string `json:"right,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}

// DeckPlan is the full slide sequence the assembly stage builds.
type DeckPlan struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Slides   []SlideContent `json:"slides"`
}

// ImagePrompt is one suggested visual, recorded on an image-placeholder
// slide and in the side-channel JSON artifact.
type ImagePrompt struct {
	SlideTitle string `json:"slide_title"`
	Prompt     string `json:"prompt"`
	Context    string `json:"context,omitempty"`
}

// StageMetric records one stage execution for the session log.
type StageMetric struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	CharsIn    int    `json:"chars_in"`
	CharsOut   int    `json:"chars_out"`
}
