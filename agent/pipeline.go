package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"prezo/deck"
	"prezo/document"
)

// maxBulletsPerSlide is the formatting-layer cap applied by the review
// stage before assembly.
const maxBulletsPerSlide = 6

// Pipeline runs the seven content stages in order. Stages are strictly
// sequential; a stage failure aborts the run with a StageError naming
// the stage. There are no retries and no partial recovery.
type Pipeline struct {
	llm ChatCompleter
	log func(string)
}

// NewPipeline creates a Pipeline on a completion backend.
func NewPipeline(llm ChatCompleter, logFunc func(string)) *Pipeline {
	return &Pipeline{llm: llm, log: logFunc}
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.log != nil {
		p.log(fmt.Sprintf(format, args...))
	}
}

// RunInput carries everything one pipeline run needs.
type RunInput struct {
	Document *document.Content
	Guidance string
	Module   *deck.GeneratedModule
	// OutputPath is the final deck location; PromptsPath receives the
	// side-channel JSON with any generated image prompts.
	OutputPath  string
	PromptsPath string
}

// RunResult reports a finished pipeline run.
type RunResult struct {
	Plan         *DeckPlan     `json:"plan"`
	ImagePrompts []ImagePrompt `json:"image_prompts"`
	SlideCount   int           `json:"slide_count"`
	OutputPath   string        `json:"output_path"`
	PromptsPath  string        `json:"prompts_path"`
	Stages       []StageMetric `json:"stages"`
}

// Run executes all stages against one document and one generated
// module.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if in.Document == nil {
		return nil, &StageError{Stage: StageDocumentAnalysis, Reason: "no document content"}
	}
	if in.Module == nil {
		return nil, &StageError{Stage: StageAssembly, Reason: "no generated module"}
	}

	result := &RunResult{OutputPath: in.OutputPath, PromptsPath: in.PromptsPath}

	analysis, err := p.AnalyzeDocument(ctx, in.Document, &result.Stages)
	if err != nil {
		return nil, err
	}
	strategy, err := p.PlanStrategy(ctx, analysis, in.Guidance, &result.Stages)
	if err != nil {
		return nil, err
	}
	outline, err := p.BuildOutline(ctx, analysis, strategy, &result.Stages)
	if err != nil {
		return nil, err
	}
	plan, err := p.GenerateContent(ctx, outline, strategy, &result.Stages)
	if err != nil {
		return nil, err
	}
	prompts, err := p.GenerateImagePrompts(ctx, plan, &result.Stages)
	if err != nil {
		return nil, err
	}

	plan = p.Review(plan, &result.Stages)
	result.Plan = plan
	result.ImagePrompts = prompts

	count, err := p.Assemble(in.Module, plan, prompts, in.OutputPath, in.PromptsPath, &result.Stages)
	if err != nil {
		return nil, err
	}
	result.SlideCount = count

	return result, nil
}

// AnalyzeDocument summarizes the reference document.
func (p *Pipeline) AnalyzeDocument(ctx context.Context, doc *document.Content, metrics *[]StageMetric) (*DocumentAnalysis, error) {
	var analysis DocumentAnalysis
	if err := p.runStage(ctx, StageDocumentAnalysis, buildAnalysisPrompt(doc.FullText), &analysis, metrics); err != nil {
		return nil, err
	}
	if strings.TrimSpace(analysis.Summary) == "" {
		return nil, &StageError{Stage: StageDocumentAnalysis, Reason: "model returned an empty summary"}
	}
	return &analysis, nil
}

// PlanStrategy derives audience, tone and scope from the analysis and
// the user's guidance.
func (p *Pipeline) PlanStrategy(ctx context.Context, analysis *DocumentAnalysis, guidance string, metrics *[]StageMetric) (*Strategy, error) {
	var strategy Strategy
	if err := p.runStage(ctx, StageStrategy, buildStrategyPrompt(analysis, guidance), &strategy, metrics); err != nil {
		return nil, err
	}
	if strings.TrimSpace(strategy.Title) == "" {
		return nil, &StageError{Stage: StageStrategy, Reason: "model returned an empty deck title"}
	}
	if strategy.SlideCount <= 0 {
		strategy.SlideCount = 8
	}
	return &strategy, nil
}

// BuildOutline produces the ordered section list.
func (p *Pipeline) BuildOutline(ctx context.Context, analysis *DocumentAnalysis, strategy *Strategy, metrics *[]StageMetric) (*Outline, error) {
	var outline Outline
	if err := p.runStage(ctx, StageOutline, buildOutlinePrompt(analysis, strategy), &outline, metrics); err != nil {
		return nil, err
	}
	if len(outline.Sections) == 0 {
		return nil, &StageError{Stage: StageOutline, Reason: "model returned no sections"}
	}
	return &outline, nil
}

// GenerateContent writes the per-slide titles and bullets.
func (p *Pipeline) GenerateContent(ctx context.Context, outline *Outline, strategy *Strategy, metrics *[]StageMetric) (*DeckPlan, error) {
	var plan DeckPlan
	if err := p.runStage(ctx, StageContent, buildContentPrompt(outline, strategy), &plan, metrics); err != nil {
		return nil, err
	}
	if len(plan.Slides) == 0 {
		return nil, &StageError{Stage: StageContent, Reason: "model returned no slides"}
	}
	if strings.TrimSpace(plan.Title) == "" {
		plan.Title = strategy.Title
	}
	if plan.Subtitle == "" {
		plan.Subtitle = strategy.Subtitle
	}
	return &plan, nil
}

// GenerateImagePrompts picks slides that warrant a visual. An empty
// result is a normal outcome, not an error.
func (p *Pipeline) GenerateImagePrompts(ctx context.Context, plan *DeckPlan, metrics *[]StageMetric) ([]ImagePrompt, error) {
	var prompts []ImagePrompt
	if err := p.runStage(ctx, StageImagePrompts, buildImagePromptsPrompt(plan), &prompts, metrics); err != nil {
		return nil, err
	}
	return prompts, nil
}

// Review is the deterministic formatting pass: it drops slides without
// usable content, normalizes unknown slide kinds to content, and caps
// each slide at six bullets. Text length budgets are enforced by the
// generated module itself.
func (p *Pipeline) Review(plan *DeckPlan, metrics *[]StageMetric) *DeckPlan {
	start := time.Now()

	reviewed := &DeckPlan{Title: plan.Title, Subtitle: plan.Subtitle}
	for _, slide := range plan.Slides {
		if strings.TrimSpace(slide.Title) == "" {
			continue
		}
		switch slide.Kind {
		case SlideKindSection:
		case SlideKindTwoColumn:
			if len(slide.Left) == 0 && len(slide.Right) == 0 {
				continue
			}
			if len(slide.Left) > maxBulletsPerSlide {
				slide.Left = slide.Left[:maxBulletsPerSlide]
			}
			if len(slide.Right) > maxBulletsPerSlide {
				slide.Right = slide.Right[:maxBulletsPerSlide]
			}
		default:
			slide.Kind = SlideKindContent
			if len(slide.Bullets) == 0 {
				continue
			}
			if len(slide.Bullets) > maxBulletsPerSlide {
				slide.Bullets = slide.Bullets[:maxBulletsPerSlide]
			}
		}
		reviewed.Slides = append(reviewed.Slides, slide)
	}

	*metrics = append(*metrics, StageMetric{
		Name:       StageReview,
		DurationMS: time.Since(start).Milliseconds(),
	})
	p.logf("[pipeline] review kept %d/%d slides", len(reviewed.Slides), len(plan.Slides))
	return reviewed
}

// Assemble drives the generated module: title slide, planned slides in
// order, then one image-placeholder slide per suggested visual. The
// deck goes to outputPath and the prompts to the side-channel JSON at
// promptsPath.
func (p *Pipeline) Assemble(mod *deck.GeneratedModule, plan *DeckPlan, prompts []ImagePrompt, outputPath, promptsPath string, metrics *[]StageMetric) (int, error) {
	start := time.Now()

	fail := func(err error) (int, error) {
		return 0, &StageError{Stage: StageAssembly, Err: err}
	}

	if err := mod.AddTitleSlide(plan.Title, plan.Subtitle); err != nil {
		return fail(err)
	}
	for _, slide := range plan.Slides {
		var err error
		switch slide.Kind {
		case SlideKindSection:
			err = mod.AddSectionHeaderSlide(slide.Title)
		case SlideKindTwoColumn:
			err = mod.AddTwoColumnSlide(slide.Title, slide.Left, slide.Right)
		default:
			err = mod.AddContentSlide(slide.Title, slide.Bullets)
		}
		if err != nil {
			return fail(err)
		}
	}
	for _, prompt := range prompts {
		if err := mod.AddImagePlaceholderSlide(prompt.SlideTitle, prompt.Prompt, prompt.Context); err != nil {
			return fail(err)
		}
	}

	if err := mod.Save(outputPath); err != nil {
		return fail(err)
	}

	if promptsPath != "" {
		sidecar := struct {
			TemplateID string        `json:"template_id"`
			Prompts    []ImagePrompt `json:"image_prompts"`
		}{mod.Metadata().TemplateID, prompts}
		data, err := json.MarshalIndent(sidecar, "", "  ")
		if err != nil {
			return fail(err)
		}
		if err := writePromptsFile(promptsPath, data); err != nil {
			return fail(err)
		}
	}

	*metrics = append(*metrics, StageMetric{
		Name:       StageAssembly,
		DurationMS: time.Since(start).Milliseconds(),
	})
	p.logf("[pipeline] assembled %d slides -> %s", mod.SlideCount(), outputPath)
	return mod.SlideCount(), nil
}

// runStage executes one LLM-backed stage and decodes its JSON reply.
func (p *Pipeline) runStage(ctx context.Context, stage, prompt string, out interface{}, metrics *[]StageMetric) error {
	start := time.Now()
	p.logf("[pipeline] stage %s", stage)

	reply, err := p.llm.Chat(ctx, prompt)
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	if err := DecodeStageJSON(reply, out); err != nil {
		var se *StageError
		if ok := asStageError(err, &se); ok {
			return &StageError{Stage: stage, Reason: se.Reason}
		}
		return &StageError{Stage: stage, Err: err}
	}

	*metrics = append(*metrics, StageMetric{
		Name:       stage,
		DurationMS: time.Since(start).Milliseconds(),
		CharsIn:    len(prompt),
		CharsOut:   len(reply),
	})
	return nil
}

func asStageError(err error, target **StageError) bool {
	se, ok := err.(*StageError)
	if ok {
		*target = se
	}
	return ok
}

// writePromptsFile writes the sidecar through a temp file so a crashed
// run never leaves a truncated artifact.
func writePromptsFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".prezo-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
