package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PlaceholderType is the semantic role of a placeholder slot, mirroring the
// ph type tokens of the presentation format.
type PlaceholderType string

const (
	PlaceholderTitle       PlaceholderType = "title"
	PlaceholderCenterTitle PlaceholderType = "ctrTitle"
	PlaceholderSubtitle    PlaceholderType = "subTitle"
	PlaceholderBody        PlaceholderType = "body"
	PlaceholderPicture     PlaceholderType = "pic"
	PlaceholderChart       PlaceholderType = "chart"
	PlaceholderTable       PlaceholderType = "tbl"
	PlaceholderDiagram     PlaceholderType = "dgm"
	PlaceholderMedia       PlaceholderType = "media"
	PlaceholderClipArt     PlaceholderType = "clipArt"
	PlaceholderObject      PlaceholderType = "obj"
	PlaceholderDate        PlaceholderType = "dt"
	PlaceholderFooter      PlaceholderType = "ftr"
	PlaceholderSlideNumber PlaceholderType = "sldNum"
	PlaceholderSlideImage  PlaceholderType = "sldImg"
	PlaceholderHeader      PlaceholderType = "hdr"
)

var knownPlaceholderTypes = map[PlaceholderType]bool{
	PlaceholderTitle:       true,
	PlaceholderCenterTitle: true,
	PlaceholderSubtitle:    true,
	PlaceholderBody:        true,
	PlaceholderPicture:     true,
	PlaceholderChart:       true,
	PlaceholderTable:       true,
	PlaceholderDiagram:     true,
	PlaceholderMedia:       true,
	PlaceholderClipArt:     true,
	PlaceholderObject:      true,
	PlaceholderDate:        true,
	PlaceholderFooter:      true,
	PlaceholderSlideNumber: true,
	PlaceholderSlideImage:  true,
	PlaceholderHeader:      true,
}

// IsValid reports whether t is one of the known placeholder roles.
func (t PlaceholderType) IsValid() bool {
	return knownPlaceholderTypes[t]
}

// IsContentRole reports whether the placeholder carries strongly-typed
// content (as opposed to generic body text or slide furniture like
// dates, footers and slide numbers). Layouts with no content-role slots
// are treated as blank by the function generator.
func (t PlaceholderType) IsContentRole() bool {
	switch t {
	case PlaceholderTitle, PlaceholderCenterTitle, PlaceholderSubtitle,
		PlaceholderPicture, PlaceholderChart, PlaceholderTable,
		PlaceholderDiagram, PlaceholderMedia, PlaceholderClipArt:
		return true
	}
	return false
}

// Position is a placeholder bounding box in inches.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the box carries no geometry of its own
// (the layout inherits it from the slide master).
func (p Position) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.Width == 0 && p.Height == 0
}

// SlotInfo describes one placeholder within a layout.
type SlotInfo struct {
	Type     PlaceholderType `json:"type"`
	Index    int             `json:"placeholder_idx"`
	Position Position        `json:"position"`
}

// LayoutInfo describes one slide layout. Layouts are addressed by
// positional index downstream, so LayoutIndex always matches the
// position of the entry in TemplateMetadata.Layouts.
type LayoutInfo struct {
	LayoutID    string              `json:"layout_id"`
	LayoutIndex int                 `json:"layout_index"`
	LayoutName  string              `json:"layout_name"`
	Slots       map[string]SlotInfo `json:"slots"`
}

// TemplateMetadata is the extraction snapshot for one template file.
// It is immutable after extraction and may be persisted and reloaded
// without re-opening the original template.
type TemplateMetadata struct {
	TemplateID        string       `json:"template_id"`
	TemplateName      string       `json:"template_name"`
	SlideWidthInches  float64      `json:"slide_width_inches"`
	SlideHeightInches float64      `json:"slide_height_inches"`
	Layouts           []LayoutInfo `json:"layouts"`
}

// DeriveTemplateID builds a stable, filesystem-safe identifier from the
// template file path: lowercase basename without extension, spaces and
// hyphens mapped to underscores.
func DeriveTemplateID(templatePath string) string {
	base := filepath.Base(templatePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, "-", "_")
	return id
}

// SaveMetadata persists the metadata snapshot as JSON. The write is
// atomic: content goes to a temp file in the target directory which is
// renamed over the destination, so a failed write leaves no partial
// artifact.
func SaveMetadata(meta *TemplateMetadata, path string) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal template metadata: %w", err)
	}
	return writeFileAtomic(path, data)
}

// LoadMetadata reloads a persisted metadata snapshot.
func LoadMetadata(path string) (*TemplateMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template metadata: %w", err)
	}
	var meta TemplateMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse template metadata: %w", err)
	}
	return &meta, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".prezo-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
