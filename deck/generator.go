package deck

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prezo/template"
)

// Archetype identifies one of the fixed slide-construction operations
// every generated module exposes, independent of which template backs it.
type Archetype string

const (
	ArchetypeTitle            Archetype = "title_slide"
	ArchetypeContent          Archetype = "content_slide"
	ArchetypeSectionHeader    Archetype = "section_header_slide"
	ArchetypeTwoColumn        Archetype = "two_column_slide"
	ArchetypeImagePlaceholder Archetype = "image_placeholder_slide"
)

// archetypeOrder fixes the descriptor serialization order so repeated
// generation for the same metadata is byte-identical.
var archetypeOrder = []Archetype{
	ArchetypeTitle,
	ArchetypeContent,
	ArchetypeSectionHeader,
	ArchetypeTwoColumn,
	ArchetypeImagePlaceholder,
}

// Archetypes returns the archetypes in descriptor order.
func Archetypes() []Archetype {
	out := make([]Archetype, len(archetypeOrder))
	copy(out, archetypeOrder)
	return out
}

// Binding records which layout backs an archetype and how it was chosen.
type Binding struct {
	Archetype   Archetype `json:"archetype"`
	LayoutIndex int       `json:"layout_index"`
	LayoutName  string    `json:"layout_name"`
	Source      string    `json:"source"` // "name-match", "type-match", "positional" or "default"
}

// Generator turns a template metadata snapshot into a GeneratedModule
// and persists the module descriptor under a name derived from the
// template id, so regeneration overwrites rather than accumulates.
type Generator struct {
	OutputDir string
	Log       func(string)
}

// NewGenerator creates a Generator. outputDir may be empty, in which
// case no descriptor is persisted.
func NewGenerator(outputDir string, logFunc func(string)) *Generator {
	return &Generator{OutputDir: outputDir, Log: logFunc}
}

func (g *Generator) log(msg string) {
	if g.Log != nil {
		g.Log(msg)
	}
}

// Generate builds the slide-construction module for one metadata
// snapshot. The metadata is treated as read-only input; the module
// embeds it for provenance. Every archetype is bound to a layout index
// at construction time and validated against the layout sequence, so a
// contradictory snapshot fails here rather than at first call.
func (g *Generator) Generate(meta *template.TemplateMetadata) (*GeneratedModule, error) {
	if meta == nil {
		return nil, &GenerationError{Reason: "nil template metadata"}
	}

	bindings := selectBindings(meta)
	for _, b := range bindings {
		if b.Source == "default" {
			continue
		}
		if b.LayoutIndex < 0 || b.LayoutIndex >= len(meta.Layouts) {
			return nil, &GenerationError{
				Reason: fmt.Sprintf("archetype %s bound to layout %d, template has %d layouts",
					b.Archetype, b.LayoutIndex, len(meta.Layouts)),
			}
		}
	}

	if g.OutputDir != "" {
		if err := g.saveDescriptor(meta, bindings); err != nil {
			return nil, err
		}
	}

	for _, a := range archetypeOrder {
		b := bindings[a]
		g.log(fmt.Sprintf("[deck] %s -> layout %d (%s, %s)", a, b.LayoutIndex, b.LayoutName, b.Source))
	}

	return newModule(meta, bindings), nil
}

// DescriptorPath returns the deterministic descriptor location for a
// template id.
func (g *Generator) DescriptorPath(templateID string) string {
	return filepath.Join(g.OutputDir, templateID+"_module.json")
}

// selectBindings maps every archetype to a layout. Preference order:
// layout-name match, placeholder-type match, positional heuristic. A
// template with zero layouts gets the documented default mapping: every
// archetype on index 0 with built-in 16:9 geometry.
func selectBindings(meta *template.TemplateMetadata) map[Archetype]Binding {
	bindings := make(map[Archetype]Binding, len(archetypeOrder))

	if len(meta.Layouts) == 0 {
		for _, a := range archetypeOrder {
			bindings[a] = Binding{Archetype: a, LayoutIndex: 0, LayoutName: "default", Source: "default"}
		}
		return bindings
	}

	bindings[ArchetypeTitle] = pickLayout(meta, ArchetypeTitle,
		nameMatcher([]string{"title"}, []string{"section"}),
		typeMatcher(template.PlaceholderCenterTitle),
		0)
	bindings[ArchetypeContent] = pickLayout(meta, ArchetypeContent,
		nameMatcher([]string{"content", "bullet"}, []string{"two"}),
		nil,
		1)
	bindings[ArchetypeSectionHeader] = pickLayout(meta, ArchetypeSectionHeader,
		nameMatcher([]string{"section"}, nil),
		nil,
		2)
	bindings[ArchetypeTwoColumn] = pickLayout(meta, ArchetypeTwoColumn,
		nameMatcher([]string{"two content", "comparison", "two"}, nil),
		nil,
		bindings[ArchetypeContent].LayoutIndex)

	image := pickLayout(meta, ArchetypeImagePlaceholder,
		nameMatcher([]string{"blank", "picture"}, nil),
		typeMatcher(template.PlaceholderPicture),
		5)
	if image.Source == "positional" {
		// No name or type hit: prefer the first layout that exposes no
		// strongly-typed placeholder, treated as blank.
		for _, l := range meta.Layouts {
			if !hasContentSlot(l) {
				image = Binding{
					Archetype:   ArchetypeImagePlaceholder,
					LayoutIndex: l.LayoutIndex,
					LayoutName:  l.LayoutName,
					Source:      "type-match",
				}
				break
			}
		}
	}
	bindings[ArchetypeImagePlaceholder] = image

	return bindings
}

type layoutMatcher func(template.LayoutInfo) bool

func nameMatcher(include, exclude []string) layoutMatcher {
	return func(l template.LayoutInfo) bool {
		name := strings.ToLower(l.LayoutName)
		for _, ex := range exclude {
			if strings.Contains(name, ex) {
				return false
			}
		}
		for _, in := range include {
			if strings.Contains(name, in) {
				return true
			}
		}
		return false
	}
}

func typeMatcher(t template.PlaceholderType) layoutMatcher {
	return func(l template.LayoutInfo) bool {
		for _, slot := range l.Slots {
			if slot.Type == t {
				return true
			}
		}
		return false
	}
}

func hasContentSlot(l template.LayoutInfo) bool {
	for _, slot := range l.Slots {
		if slot.Type.IsContentRole() {
			return true
		}
	}
	return false
}

func pickLayout(meta *template.TemplateMetadata, a Archetype, byName, byType layoutMatcher, fallbackIdx int) Binding {
	if byName != nil {
		for _, l := range meta.Layouts {
			if byName(l) {
				return Binding{Archetype: a, LayoutIndex: l.LayoutIndex, LayoutName: l.LayoutName, Source: "name-match"}
			}
		}
	}
	if byType != nil {
		for _, l := range meta.Layouts {
			if byType(l) {
				return Binding{Archetype: a, LayoutIndex: l.LayoutIndex, LayoutName: l.LayoutName, Source: "type-match"}
			}
		}
	}
	idx := fallbackIdx
	if idx > len(meta.Layouts)-1 {
		idx = len(meta.Layouts) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return Binding{Archetype: a, LayoutIndex: idx, LayoutName: meta.Layouts[idx].LayoutName, Source: "positional"}
}

// moduleDescriptor is the persisted form of a generated module: the
// stable operation contract, the archetype bindings and the originating
// metadata snapshot embedded verbatim for provenance.
type moduleDescriptor struct {
	ModuleID   string                     `json:"module_id"`
	TemplateID string                     `json:"template_id"`
	Operations []operationInfo            `json:"operations"`
	Bindings   []Binding                  `json:"bindings"`
	Metadata   *template.TemplateMetadata `json:"template_metadata"`
}

type operationInfo struct {
	Name      string   `json:"name"`
	Archetype string   `json:"archetype,omitempty"`
	Params    []string `json:"params"`
}

// moduleOperations is the stable external contract. Names and
// signatures stay fixed across regenerations even when the internal
// layout selection changes.
var moduleOperations = []operationInfo{
	{Name: "add_title_slide", Archetype: string(ArchetypeTitle), Params: []string{"title", "subtitle?"}},
	{Name: "add_content_slide", Archetype: string(ArchetypeContent), Params: []string{"title", "bullets"}},
	{Name: "add_section_header_slide", Archetype: string(ArchetypeSectionHeader), Params: []string{"title"}},
	{Name: "add_two_column_slide", Archetype: string(ArchetypeTwoColumn), Params: []string{"title", "left", "right"}},
	{Name: "add_image_placeholder_slide", Archetype: string(ArchetypeImagePlaceholder), Params: []string{"title", "image_prompt", "context?"}},
	{Name: "save", Params: []string{"output_path"}},
	{Name: "get_slide_count", Params: []string{}},
}

func (g *Generator) saveDescriptor(meta *template.TemplateMetadata, bindings map[Archetype]Binding) error {
	ordered := make([]Binding, 0, len(archetypeOrder))
	for _, a := range archetypeOrder {
		ordered = append(ordered, bindings[a])
	}
	desc := moduleDescriptor{
		ModuleID:   meta.TemplateID + "_module",
		TemplateID: meta.TemplateID,
		Operations: moduleOperations,
		Bindings:   ordered,
		Metadata:   meta,
	}
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return &GenerationError{Reason: fmt.Sprintf("cannot marshal module descriptor: %v", err)}
	}
	if err := writeFileAtomic(g.DescriptorPath(meta.TemplateID), data); err != nil {
		return &GenerationError{Reason: err.Error()}
	}
	return nil
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
