package export

import (
	"fmt"
	"strings"
	"time"

	goword "github.com/VantageDataChat/GoWord"
	"github.com/VantageDataChat/GoWord/style"

	"prezo/agent"
)

// NotesExportService renders the speaker companion document for a
// finished deck using GoWord (pure Go)
type NotesExportService struct{}

// NewNotesExportService creates a new notes export service
func NewNotesExportService() *NotesExportService {
	return &NotesExportService{}
}

// ExportSpeakerNotes builds a Word outline of the deck: one block per
// slide with its bullets and speaker notes, followed by the suggested
// visuals. Returns the document bytes.
func (s *NotesExportService) ExportSpeakerNotes(plan *agent.DeckPlan, prompts []agent.ImagePrompt) ([]byte, error) {
	if plan == nil {
		return nil, fmt.Errorf("deck plan is nil")
	}

	doc := goword.New()
	doc.Properties.Title = plan.Title
	doc.Properties.Creator = "PrezO"
	doc.Properties.Description = "Speaker notes generated by PrezO"

	sec := doc.AddSection()

	sec.AddTitle(plan.Title, 1)
	if plan.Subtitle != "" {
		sec.AddText(plan.Subtitle,
			&style.FontStyle{Size: 12, Color: "64748B"},
			&style.ParagraphStyle{Alignment: style.AlignCenter})
	}
	sec.AddText(time.Now().Format("January 2, 2006 15:04"),
		&style.FontStyle{Size: 10, Color: "94A3B8"},
		&style.ParagraphStyle{Alignment: style.AlignCenter})

	sec.AddTextBreak(1)

	for i, slide := range plan.Slides {
		label := fmt.Sprintf("Slide %d", i+2)
		if slide.Kind == agent.SlideKindSection {
			label += " (section)"
		}
		sec.AddText(label,
			&style.FontStyle{Size: 9, Color: "94A3B8"},
			nil)
		sec.AddText(slide.Title,
			&style.FontStyle{Bold: true, Size: 14, Color: "1E40AF"},
			nil)

		for _, bullet := range slide.Bullets {
			sec.AddText("• "+bullet,
				&style.FontStyle{Size: 11, Color: "334155"},
				&style.ParagraphStyle{Indent: 360})
		}
		if len(slide.Left) > 0 || len(slide.Right) > 0 {
			sec.AddText("Left: "+strings.Join(slide.Left, "; "),
				&style.FontStyle{Size: 11, Color: "334155"},
				&style.ParagraphStyle{Indent: 360})
			sec.AddText("Right: "+strings.Join(slide.Right, "; "),
				&style.FontStyle{Size: 11, Color: "334155"},
				&style.ParagraphStyle{Indent: 360})
		}

		if strings.TrimSpace(slide.Notes) != "" {
			sec.AddText("Notes: "+slide.Notes,
				&style.FontStyle{Size: 10, Italic: true, Color: "64748B"},
				&style.ParagraphStyle{Indent: 360, SpaceAfter: 200})
		}

		sec.AddTextBreak(1)
	}

	if len(prompts) > 0 {
		sec.AddText("Suggested Visuals",
			&style.FontStyle{Bold: true, Size: 14, Color: "1E40AF"},
			nil)

		ts := &style.TableStyle{Width: 9000, Alignment: "center"}
		ts.SetAllBorders("single", 4, "D9D9D9")
		tbl := sec.AddTable(ts)

		headerRow := tbl.AddRow(0, &style.RowStyle{IsHeader: true})
		headerRow.AddCell(3000, &style.CellStyle{
			Shading: &style.Shading{Fill: "4472C4"},
		}).AddText("Slide", &style.FontStyle{Bold: true, Size: 10, Color: "FFFFFF"}, nil)
		headerRow.AddCell(6000, &style.CellStyle{
			Shading: &style.Shading{Fill: "4472C4"},
		}).AddText("Image prompt", &style.FontStyle{Bold: true, Size: 10, Color: "FFFFFF"}, nil)

		for _, p := range prompts {
			row := tbl.AddRow(0, nil)
			row.AddCell(3000, nil).AddText(p.SlideTitle, &style.FontStyle{Size: 10}, nil)
			row.AddCell(6000, nil).AddText(p.Prompt, &style.FontStyle{Size: 10, Color: "334155"}, nil)
		}

		sec.AddTextBreak(1)
	}

	sec.AddText("Generated by PrezO",
		&style.FontStyle{Size: 9, Color: "94A3B8"},
		&style.ParagraphStyle{Alignment: style.AlignCenter})

	data, err := doc.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write Word file: %w", err)
	}

	return data, nil
}
