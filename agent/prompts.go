package agent

import (
	"fmt"
	"strings"
)

// maxDocumentChars caps how much reference text goes into a prompt.
const maxDocumentChars = 12000

func buildAnalysisPrompt(fullText string) string {
	text := fullText
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
	}
	return fmt.Sprintf(`You are analyzing a reference document for a presentation.

Document text:
---
%s
---

Return ONLY valid JSON with this shape:
{"summary": "3-5 sentence summary", "document_type": "report|article|paper|notes|other", "key_topics": ["topic", ...]}`, text)
}

func buildStrategyPrompt(analysis *DocumentAnalysis, guidance string) string {
	if strings.TrimSpace(guidance) == "" {
		guidance = "(none provided; choose sensible defaults)"
	}
	return fmt.Sprintf(`You are planning a presentation.

Document summary: %s
Key topics: %s
User guidance: %s

Return ONLY valid JSON:
{"title": "deck title (max 80 chars)", "subtitle": "one line", "audience": "...", "tone": "...", "slide_count": 8, "emphasis": ["...", "..."]}`,
		analysis.Summary, strings.Join(analysis.KeyTopics, ", "), guidance)
}

func buildOutlinePrompt(analysis *DocumentAnalysis, strategy *Strategy) string {
	return fmt.Sprintf(`Design the section outline for a presentation titled %q
for audience %q in a %s tone, about %d slides total.

Document summary: %s
Emphasis: %s

Return ONLY valid JSON:
{"sections": [{"title": "section title", "points": ["key point", ...]}, ...]}`,
		strategy.Title, strategy.Audience, strategy.Tone, strategy.SlideCount,
		analysis.Summary, strings.Join(strategy.Emphasis, ", "))
}

func buildContentPrompt(outline *Outline, strategy *Strategy) string {
	var sections strings.Builder
	for i, s := range outline.Sections {
		fmt.Fprintf(&sections, "%d. %s: %s\n", i+1, s.Title, strings.Join(s.Points, "; "))
	}
	return fmt.Sprintf(`Write the slides for a presentation titled %q (%s tone, audience: %s).

Sections:
%s
Rules:
- kind is one of "section", "content", "two_column"
- titles at most 80 characters, bullets at most 100 characters
- at most 6 bullets per slide
- use "two_column" only for comparisons, with "left" and "right" lists

Return ONLY valid JSON:
{"title": "deck title", "subtitle": "one line", "slides": [{"kind": "content", "title": "...", "bullets": ["..."]}, ...]}`,
		strategy.Title, strategy.Tone, strategy.Audience, sections.String())
}

func buildImagePromptsPrompt(plan *DeckPlan) string {
	var slides strings.Builder
	for i, s := range plan.Slides {
		fmt.Fprintf(&slides, "%d. [%s] %s\n", i+1, s.Kind, s.Title)
	}
	return fmt.Sprintf(`Suggest generated-image prompts for a presentation titled %q.
Pick only the slides that genuinely benefit from a visual (often none or few).

Slides:
%s
Return ONLY valid JSON (empty array when no slide needs a visual):
[{"slide_title": "...", "prompt": "detailed image generation prompt", "context": "why this visual"}]`,
		plan.Title, slides.String())
}
