package deck

import (
	"bytes"
	"fmt"
	"sort"

	ppt "github.com/VantageDataChat/GoPPT"

	"prezo/template"
)

// Slide geometry constants, 16:9 defaults in EMU.
const (
	emuPerInch = 914400

	slideWidthEMU = int64(10.0 * emuPerInch)

	// Font sizes (pt)
	fontTitle       = 36
	fontSubtitle    = 20
	fontHeading     = 28
	fontSection     = 32
	fontBody        = 14
	fontPromptLabel = 14
	fontPrompt      = 11
	fontContext     = 10
)

// Display-safe text budgets, in runes.
const (
	maxTitleRunes  = 80
	maxBulletRunes = 100
)

// GeneratedModule is the reusable presentation-construction unit bound
// to exactly one TemplateMetadata snapshot. It carries the snapshot for
// runtime introspection and exposes the fixed archetype operations.
// Each Add call appends exactly one slide.
type GeneratedModule struct {
	meta       *template.TemplateMetadata
	bindings   map[Archetype]Binding
	pres       *ppt.Presentation
	slideCount int
}

func newModule(meta *template.TemplateMetadata, bindings map[Archetype]Binding) *GeneratedModule {
	p := ppt.New()
	p.GetDocumentProperties().Title = meta.TemplateName
	p.GetDocumentProperties().Creator = "PrezO"
	return &GeneratedModule{
		meta:     meta,
		bindings: bindings,
		pres:     p,
	}
}

// Metadata returns the originating metadata snapshot.
func (m *GeneratedModule) Metadata() *template.TemplateMetadata {
	return m.meta
}

// Binding reports which layout backs an archetype.
func (m *GeneratedModule) Binding(a Archetype) (Binding, bool) {
	b, ok := m.bindings[a]
	return b, ok
}

// SlideCount returns the number of slides added so far.
func (m *GeneratedModule) SlideCount() int {
	return m.slideCount
}

// nextSlide appends a slide. A fresh presentation already carries one
// active slide, so the first call reuses it.
func (m *GeneratedModule) nextSlide() *ppt.Slide {
	var slide *ppt.Slide
	if m.slideCount == 0 {
		slide = m.pres.GetActiveSlide()
	} else {
		slide = m.pres.CreateSlide()
	}
	m.slideCount++
	return slide
}

// AddTitleSlide appends the deck's title slide. subtitle may be empty.
func (m *GeneratedModule) AddTitleSlide(title, subtitle string) error {
	title, err := requireText("title", title, maxTitleRunes)
	if err != nil {
		return err
	}

	slide := m.nextSlide()

	box := m.slotBox(ArchetypeTitle, Position{X: 1, Y: 2, Width: 8, Height: 1},
		template.PlaceholderCenterTitle, template.PlaceholderTitle)
	titleShape := slide.CreateRichTextShape()
	titleShape.SetOffsetX(toEMU(box.X)).SetOffsetY(toEMU(box.Y))
	titleShape.SetWidth(toEMU(box.Width)).SetHeight(toEMU(box.Height))
	tr := titleShape.CreateTextRun(title)
	tr.GetFont().SetSize(fontTitle).SetBold(true).SetColor(ppt.NewColor("FF1E293B"))
	alignCenter(titleShape.GetActiveParagraph())

	if subtitle != "" {
		subBox := m.slotBox(ArchetypeTitle, Position{X: 1, Y: 3.2, Width: 8, Height: 0.8},
			template.PlaceholderSubtitle)
		subShape := slide.CreateRichTextShape()
		subShape.SetOffsetX(toEMU(subBox.X)).SetOffsetY(toEMU(subBox.Y))
		subShape.SetWidth(toEMU(subBox.Width)).SetHeight(toEMU(subBox.Height))
		str := subShape.CreateTextRun(truncateRunes(subtitle, maxBulletRunes))
		str.GetFont().SetSize(fontSubtitle).SetColor(ppt.NewColor("FF475569"))
		alignCenter(subShape.GetActiveParagraph())
	}
	return nil
}

// AddContentSlide appends a bulleted content slide. One paragraph is
// written per bullet, preserving input order; the module itself imposes
// no bullet-count limit beyond what the caller passed.
func (m *GeneratedModule) AddContentSlide(title string, bullets []string) error {
	title, err := requireText("title", title, maxTitleRunes)
	if err != nil {
		return err
	}
	if len(bullets) == 0 {
		return &ValidationError{Field: "bullets", Message: "at least one bullet is required"}
	}

	slide := m.nextSlide()
	m.addHeading(slide, ArchetypeContent, title)

	body := m.slotBox(ArchetypeContent, Position{X: 0.5, Y: 1.5, Width: 9, Height: 4},
		template.PlaceholderBody)
	shape := slide.CreateRichTextShape()
	shape.SetOffsetX(toEMU(body.X)).SetOffsetY(toEMU(body.Y))
	shape.SetWidth(toEMU(body.Width)).SetHeight(toEMU(body.Height))
	for i, bullet := range bullets {
		if i > 0 {
			shape.CreateParagraph()
		}
		tr := shape.CreateTextRun("• " + truncateRunes(bullet, maxBulletRunes))
		tr.GetFont().SetSize(fontBody).SetColor(ppt.NewColor("FF334155"))
	}
	return nil
}

// AddSectionHeaderSlide appends a section divider.
func (m *GeneratedModule) AddSectionHeaderSlide(title string) error {
	title, err := requireText("title", title, maxTitleRunes)
	if err != nil {
		return err
	}

	slide := m.nextSlide()

	bar := slide.CreateRichTextShape()
	bar.SetOffsetX(0).SetOffsetY(int64(2.0 * emuPerInch))
	bar.SetWidth(slideWidthEMU).SetHeight(int64(0.06 * emuPerInch))
	bar.SetFill(solidFill("FF3B82F6"))

	box := m.slotBox(ArchetypeSectionHeader, Position{X: 0.5, Y: 2.3, Width: 9, Height: 1.2},
		template.PlaceholderTitle, template.PlaceholderCenterTitle)
	shape := slide.CreateRichTextShape()
	shape.SetOffsetX(toEMU(box.X)).SetOffsetY(toEMU(box.Y))
	shape.SetWidth(toEMU(box.Width)).SetHeight(toEMU(box.Height))
	tr := shape.CreateTextRun(title)
	tr.GetFont().SetSize(fontSection).SetBold(true).SetColor(ppt.NewColor("FF1E40AF"))
	alignCenter(shape.GetActiveParagraph())
	return nil
}

// AddTwoColumnSlide appends a comparison slide with two bullet columns.
func (m *GeneratedModule) AddTwoColumnSlide(title string, left, right []string) error {
	title, err := requireText("title", title, maxTitleRunes)
	if err != nil {
		return err
	}

	slide := m.nextSlide()
	m.addHeading(slide, ArchetypeTwoColumn, title)

	columns := []struct {
		box   Position
		items []string
	}{
		{Position{X: 0.5, Y: 1.5, Width: 4.5, Height: 3.8}, left},
		{Position{X: 5.2, Y: 1.5, Width: 4.5, Height: 3.8}, right},
	}
	for _, col := range columns {
		shape := slide.CreateRichTextShape()
		shape.SetOffsetX(toEMU(col.box.X)).SetOffsetY(toEMU(col.box.Y))
		shape.SetWidth(toEMU(col.box.Width)).SetHeight(toEMU(col.box.Height))
		for i, item := range col.items {
			if i > 0 {
				shape.CreateParagraph()
			}
			tr := shape.CreateTextRun("• " + truncateRunes(item, maxBulletRunes))
			tr.GetFont().SetSize(fontBody).SetColor(ppt.NewColor("FF334155"))
		}
	}
	return nil
}

// AddImagePlaceholderSlide appends a slide whose body is a fixed
// rectangular box carrying the image prompt text: a distinct label
// line, the full prompt word-wrapped beneath it, and an optional italic
// context line. The box is not tied to any placeholder slot because
// blank layouts expose none.
func (m *GeneratedModule) AddImagePlaceholderSlide(title, imagePrompt, context string) error {
	title, err := requireText("title", title, maxTitleRunes)
	if err != nil {
		return err
	}
	if _, err := requireText("image_prompt", imagePrompt, 0); err != nil {
		return err
	}

	slide := m.nextSlide()
	m.addHeading(slide, ArchetypeImagePlaceholder, title)

	box := slide.CreateRichTextShape()
	box.SetOffsetX(int64(1.5 * emuPerInch)).SetOffsetY(int64(1.6 * emuPerInch))
	box.SetWidth(int64(7.0 * emuPerInch)).SetHeight(int64(3.6 * emuPerInch))
	box.SetFill(solidFill("FFE8F4F8"))

	label := box.CreateTextRun("IMAGE PROMPT")
	label.GetFont().SetSize(fontPromptLabel).SetBold(true).SetColor(ppt.NewColor("FF1E3A8A"))

	for _, line := range wrapText(imagePrompt, 70) {
		box.CreateParagraph()
		tr := box.CreateTextRun(line)
		tr.GetFont().SetSize(fontPrompt).SetColor(ppt.NewColor("FF000000"))
	}

	if context != "" {
		box.CreateParagraph()
		tr := box.CreateTextRun("Context: " + truncateRunes(context, maxBulletRunes))
		tr.GetFont().SetSize(fontContext).SetItalic(true).SetColor(ppt.NewColor("FF4B5563"))
	}
	return nil
}

// Save writes the presentation to path. The file goes to a temp path in
// the same directory and is renamed on success, so a failed save leaves
// no partial artifact. Save may be called repeatedly with different
// paths; each write contains the full slide sequence.
func (m *GeneratedModule) Save(path string) error {
	w, err := ppt.NewWriter(m.pres, ppt.WriterPowerPoint2007)
	if err != nil {
		return fmt.Errorf("failed to create PPT writer: %w", err)
	}

	var buf bytes.Buffer
	if err := w.(*ppt.PPTXWriter).WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize presentation: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// addHeading writes the shared content-slide header.
func (m *GeneratedModule) addHeading(slide *ppt.Slide, a Archetype, title string) {
	bar := slide.CreateRichTextShape()
	bar.SetOffsetX(0).SetOffsetY(0)
	bar.SetWidth(slideWidthEMU).SetHeight(int64(0.08 * emuPerInch))
	bar.SetFill(solidFill("FF3B82F6"))

	box := m.slotBox(a, Position{X: 0.5, Y: 0.4, Width: 9, Height: 0.8},
		template.PlaceholderTitle)
	shape := slide.CreateRichTextShape()
	shape.SetOffsetX(toEMU(box.X)).SetOffsetY(toEMU(box.Y))
	shape.SetWidth(toEMU(box.Width)).SetHeight(toEMU(box.Height))
	tr := shape.CreateTextRun(title)
	tr.GetFont().SetSize(fontHeading).SetBold(true).SetColor(ppt.NewColor("FF1E40AF"))
}

// slotBox resolves the display box for an archetype element: the bound
// layout's first slot of one of the wanted types when it carries its own
// geometry, otherwise the supplied default.
func (m *GeneratedModule) slotBox(a Archetype, def Position, wanted ...template.PlaceholderType) Position {
	b, ok := m.bindings[a]
	if !ok || b.Source == "default" || b.LayoutIndex >= len(m.meta.Layouts) {
		return def
	}
	layout := m.meta.Layouts[b.LayoutIndex]
	names := make([]string, 0, len(layout.Slots))
	for name := range layout.Slots {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, t := range wanted {
		for _, name := range names {
			slot := layout.Slots[name]
			if slot.Type == t && !slot.Position.IsZero() {
				return slot.Position
			}
		}
	}
	return def
}

// Position is an alias for the metadata box type; module geometry is
// expressed in the same inch units the extractor records.
type Position = template.Position

func toEMU(inches float64) int64 {
	return int64(inches * emuPerInch)
}

func solidFill(argb string) *ppt.Fill {
	return ppt.NewFill().SetSolid(ppt.NewColor(argb))
}

func alignCenter(p *ppt.Paragraph) {
	p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalCenter))
}
