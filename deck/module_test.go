package deck

import (
	"archive/zip"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func buildModule(t *testing.T) *GeneratedModule {
	t.Helper()
	mod, err := NewGenerator("", nil).Generate(testMetadata())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return mod
}

func TestEachAddAppendsOneSlide(t *testing.T) {
	mod := buildModule(t)

	steps := []struct {
		name string
		call func() error
	}{
		{"title", func() error { return mod.AddTitleSlide("Quarterly Review", "FY26 Q2") }},
		{"content", func() error { return mod.AddContentSlide("Highlights", []string{"Revenue up", "Churn down"}) }},
		{"section", func() error { return mod.AddSectionHeaderSlide("Details") }},
		{"two column", func() error {
			return mod.AddTwoColumnSlide("Before and After", []string{"Manual"}, []string{"Automated"})
		}},
		{"image placeholder", func() error {
			return mod.AddImagePlaceholderSlide("Architecture", "isometric diagram of a data pipeline", "overview slide")
		}},
	}

	for i, step := range steps {
		if err := step.call(); err != nil {
			t.Fatalf("%s slide: %v", step.name, err)
		}
		if got := mod.SlideCount(); got != i+1 {
			t.Fatalf("after %s slide count = %d, want %d", step.name, got, i+1)
		}
	}
}

func TestAddSlideValidation(t *testing.T) {
	mod := buildModule(t)

	cases := []struct {
		name      string
		call      func() error
		wantField string
	}{
		{"empty title", func() error { return mod.AddTitleSlide("", "sub") }, "title"},
		{"whitespace title", func() error { return mod.AddSectionHeaderSlide("   ") }, "title"},
		{"no bullets", func() error { return mod.AddContentSlide("Topic", nil) }, "bullets"},
		{"empty prompt", func() error { return mod.AddImagePlaceholderSlide("Visual", "", "") }, "image_prompt"},
	}

	for _, c := range cases {
		err := c.call()
		var valErr *ValidationError
		if !errors.As(err, &valErr) {
			t.Errorf("%s: got %T (%v), want ValidationError", c.name, err, err)
			continue
		}
		if valErr.Field != c.wantField {
			t.Errorf("%s: field = %q, want %q", c.name, valErr.Field, c.wantField)
		}
	}

	if mod.SlideCount() != 0 {
		t.Errorf("rejected calls added slides: count = %d", mod.SlideCount())
	}
}

func TestLongTitleIsAcceptedAndTruncated(t *testing.T) {
	mod := buildModule(t)

	exact := strings.Repeat("a", 80)
	if err := mod.AddTitleSlide(exact, ""); err != nil {
		t.Fatalf("80-rune title rejected: %v", err)
	}

	over := strings.Repeat("b", 200)
	if err := mod.AddContentSlide(over, []string{strings.Repeat("c", 300)}); err != nil {
		t.Fatalf("oversized text rejected, want truncation: %v", err)
	}
	if mod.SlideCount() != 2 {
		t.Errorf("slide count = %d, want 2", mod.SlideCount())
	}
}

func TestSaveWritesPresentationContainer(t *testing.T) {
	mod := buildModule(t)
	if err := mod.AddTitleSlide("Deck", "subtitle"); err != nil {
		t.Fatal(err)
	}
	if err := mod.AddContentSlide("Points", []string{"one", "two"}); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	first := filepath.Join(dir, "deck1.pptx")
	second := filepath.Join(dir, "deck2.pptx")

	if err := mod.Save(first); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	// Repeated saves write the full deck each time.
	if err := mod.Save(second); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	for _, path := range []string{first, second} {
		zr, err := zip.OpenReader(path)
		if err != nil {
			t.Fatalf("%s is not a valid container: %v", path, err)
		}
		found := false
		for _, f := range zr.File {
			if f.Name == "ppt/presentation.xml" {
				found = true
				break
			}
		}
		zr.Close()
		if !found {
			t.Errorf("%s is missing ppt/presentation.xml", path)
		}
	}
}

func TestSlotBoxPrefersLayoutGeometry(t *testing.T) {
	mod := buildModule(t)

	box := mod.slotBox(ArchetypeTitle, Position{X: 9, Y: 9, Width: 1, Height: 1},
		"ctrTitle")
	if box.X != 1 || box.Y != 2 {
		t.Errorf("slotBox ignored layout geometry: %+v", box)
	}

	// Unknown slot type falls back to the supplied default.
	def := Position{X: 9, Y: 9, Width: 1, Height: 1}
	box = mod.slotBox(ArchetypeTitle, def, "tbl")
	if box != def {
		t.Errorf("slotBox = %+v, want default %+v", box, def)
	}
}
