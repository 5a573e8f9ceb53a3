package template

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
)

const (
	emuPerInch = 914400

	presentationPart = "ppt/presentation.xml"

	// Fallback page size when the presentation part carries no sldSz
	// (matches the format's implicit 4:3 default).
	defaultSlideWidthInches  = 10.0
	defaultSlideHeightInches = 7.5
)

const relationshipNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// Extract opens a PPTX template container and produces the metadata
// snapshot for its layouts and placeholders. The template is opened
// read-only and never mutated. Layout order follows the container's own
// master/layout id lists and is never re-sorted: downstream code
// addresses layouts by positional index.
//
// A template with zero layouts is valid and yields an empty Layouts
// slice. Structural violations (duplicate placeholder names within a
// layout, unknown placeholder types, negative geometry) fail the whole
// extraction with a StructuralError; nothing partial is returned.
func Extract(templatePath string) (*TemplateMetadata, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return nil, &TemplateReadError{Path: templatePath, Err: err}
	}

	zr, err := zip.OpenReader(templatePath)
	if err != nil {
		return nil, readErr(templatePath, "not a valid presentation container: %v", err)
	}
	defer zr.Close()

	pkg := newOPCPackage(&zr.Reader)

	var pres presentationXML
	if err := pkg.decodePart(presentationPart, &pres); err != nil {
		return nil, &TemplateReadError{Path: templatePath, Err: err}
	}

	meta := &TemplateMetadata{
		TemplateID:        DeriveTemplateID(templatePath),
		TemplateName:      filepath.Base(templatePath),
		SlideWidthInches:  defaultSlideWidthInches,
		SlideHeightInches: defaultSlideHeightInches,
		Layouts:           []LayoutInfo{},
	}
	if pres.SlideSize != nil {
		meta.SlideWidthInches = emuToInches(pres.SlideSize.CX)
		meta.SlideHeightInches = emuToInches(pres.SlideSize.CY)
	}

	layoutParts, err := pkg.layoutPartNames(pres)
	if err != nil {
		return nil, &TemplateReadError{Path: templatePath, Err: err}
	}

	for idx, partName := range layoutParts {
		layout, err := extractLayout(pkg, partName, idx)
		if err != nil {
			return nil, err
		}
		meta.Layouts = append(meta.Layouts, layout)
	}

	return meta, nil
}

// extractLayout parses one slide layout part into a LayoutInfo.
func extractLayout(pkg *opcPackage, partName string, idx int) (LayoutInfo, error) {
	var doc slideLayoutXML
	if err := pkg.decodePart(partName, &doc); err != nil {
		return LayoutInfo{}, &StructuralError{
			Layout: fmt.Sprintf("layout_%d", idx),
			Reason: err.Error(),
		}
	}

	layout := LayoutInfo{
		LayoutID:    fmt.Sprintf("layout_%d", idx),
		LayoutIndex: idx,
		LayoutName:  doc.CSld.Name,
		Slots:       map[string]SlotInfo{},
	}
	if layout.LayoutName == "" {
		layout.LayoutName = layout.LayoutID
	}

	for _, sp := range doc.CSld.Shapes {
		ph := sp.NvSpPr.NvPr.Placeholder
		if ph == nil {
			// Free-form decorative shape, not a content slot.
			continue
		}

		name := sp.NvSpPr.CNvPr.Name
		if name == "" {
			return LayoutInfo{}, &StructuralError{
				Layout: layout.LayoutName,
				Reason: "placeholder without a name",
			}
		}
		if _, exists := layout.Slots[name]; exists {
			return LayoutInfo{}, &StructuralError{
				Layout: layout.LayoutName,
				Reason: fmt.Sprintf("duplicate placeholder name %q", name),
			}
		}

		phType := PlaceholderBody
		if ph.Type != "" {
			phType = PlaceholderType(ph.Type)
			if !phType.IsValid() {
				return LayoutInfo{}, &StructuralError{
					Layout: layout.LayoutName,
					Reason: fmt.Sprintf("unknown placeholder type %q for %q", ph.Type, name),
				}
			}
		}

		pos, err := shapePosition(sp)
		if err != nil {
			return LayoutInfo{}, &StructuralError{Layout: layout.LayoutName, Reason: err.Error()}
		}

		phIdx := 0
		if ph.Idx != "" {
			phIdx, _ = strconv.Atoi(ph.Idx)
		}

		layout.Slots[name] = SlotInfo{
			Type:     phType,
			Index:    phIdx,
			Position: pos,
		}
	}

	return layout, nil
}

// shapePosition reads the placeholder bounding box. A placeholder
// without its own transform inherits geometry from the master; that is
// recorded as a zero box and resolved to archetype defaults at build
// time. Negative extents are a structural defect.
func shapePosition(sp shapeXML) (Position, error) {
	xfrm := sp.SpPr.Xfrm
	if xfrm == nil || xfrm.Off == nil || xfrm.Ext == nil {
		return Position{}, nil
	}
	if xfrm.Ext.CX < 0 || xfrm.Ext.CY < 0 || xfrm.Off.X < 0 || xfrm.Off.Y < 0 {
		return Position{}, fmt.Errorf("negative geometry on placeholder %q", sp.NvSpPr.CNvPr.Name)
	}
	return Position{
		X:      emuToInches(xfrm.Off.X),
		Y:      emuToInches(xfrm.Off.Y),
		Width:  emuToInches(xfrm.Ext.CX),
		Height: emuToInches(xfrm.Ext.CY),
	}, nil
}

func emuToInches(v int64) float64 {
	return math.Round(float64(v)/emuPerInch*100) / 100
}

// opcPackage indexes the parts of an open packaging container.
type opcPackage struct {
	parts map[string]*zip.File
}

func newOPCPackage(r *zip.Reader) *opcPackage {
	parts := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		parts[path.Clean(f.Name)] = f
	}
	return &opcPackage{parts: parts}
}

func (p *opcPackage) readPart(name string) ([]byte, error) {
	f, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("missing package part %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open package part %s: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *opcPackage) decodePart(name string, v interface{}) error {
	data, err := p.readPart(name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse package part %s: %w", name, err)
	}
	return nil
}

// relationships loads the .rels part for a given package part and
// returns the relationship id -> resolved part name mapping.
func (p *opcPackage) relationships(partName string) (map[string]string, error) {
	dir, base := path.Split(partName)
	relsName := path.Clean(path.Join(dir, "_rels", base+".rels"))

	var rels relationshipsXML
	if err := p.decodePart(relsName, &rels); err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		target := rel.Target
		if path.IsAbs(target) {
			target = target[1:]
		} else {
			target = path.Join(dir, target)
		}
		resolved[rel.ID] = path.Clean(target)
	}
	return resolved, nil
}

// layoutPartNames walks presentation -> masters -> layouts, preserving
// the order of the container's id lists.
func (p *opcPackage) layoutPartNames(pres presentationXML) ([]string, error) {
	if len(pres.MasterIDs) == 0 {
		return nil, nil
	}

	presRels, err := p.relationships(presentationPart)
	if err != nil {
		return nil, err
	}

	var layouts []string
	for _, masterID := range pres.MasterIDs {
		masterPart, ok := presRels[masterID.RID]
		if !ok {
			return nil, fmt.Errorf("unresolved slide master relationship %s", masterID.RID)
		}

		var master slideMasterXML
		if err := p.decodePart(masterPart, &master); err != nil {
			return nil, err
		}
		if len(master.LayoutIDs) == 0 {
			continue
		}

		masterRels, err := p.relationships(masterPart)
		if err != nil {
			return nil, err
		}
		for _, layoutID := range master.LayoutIDs {
			layoutPart, ok := masterRels[layoutID.RID]
			if !ok {
				return nil, fmt.Errorf("unresolved slide layout relationship %s", layoutID.RID)
			}
			layouts = append(layouts, layoutPart)
		}
	}
	return layouts, nil
}

// Minimal XML projections of the package parts; element matching is by
// local name, relationship ids are matched in their own namespace.

type presentationXML struct {
	MasterIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldMasterIdLst>sldMasterId"`
	SlideSize *struct {
		CX int64 `xml:"cx,attr"`
		CY int64 `xml:"cy,attr"`
	} `xml:"sldSz"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type slideMasterXML struct {
	LayoutIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldLayoutIdLst>sldLayoutId"`
}

type slideLayoutXML struct {
	CSld struct {
		Name   string     `xml:"name,attr"`
		Shapes []shapeXML `xml:"spTree>sp"`
	} `xml:"cSld"`
}

type shapeXML struct {
	NvSpPr struct {
		CNvPr struct {
			Name string `xml:"name,attr"`
		} `xml:"cNvPr"`
		NvPr struct {
			Placeholder *placeholderXML `xml:"ph"`
		} `xml:"nvPr"`
	} `xml:"nvSpPr"`
	SpPr struct {
		Xfrm *struct {
			Off *struct {
				X int64 `xml:"x,attr"`
				Y int64 `xml:"y,attr"`
			} `xml:"off"`
			Ext *struct {
				CX int64 `xml:"cx,attr"`
				CY int64 `xml:"cy,attr"`
			} `xml:"ext"`
		} `xml:"xfrm"`
	} `xml:"spPr"`
}

type placeholderXML struct {
	Type string `xml:"type,attr"`
	Idx  string `xml:"idx,attr"`
}
