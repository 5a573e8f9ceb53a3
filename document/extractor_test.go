package document

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDOCX(t *testing.T, path string, paragraphs []string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document part: %v", err)
	}

	var body strings.Builder
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatalf("write document part: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close docx: %v", err)
	}
}

func TestExtractTXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	content := "First line of notes.\nSecond line with more words.\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	svc := NewExtractService(nil)
	doc, err := svc.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if doc.FileType != "txt" {
		t.Errorf("FileType = %q, want txt", doc.FileType)
	}
	if doc.FileName != "notes.txt" {
		t.Errorf("FileName = %q", doc.FileName)
	}
	if doc.WordCount != 9 {
		t.Errorf("WordCount = %d, want 9", doc.WordCount)
	}
	if doc.LineCount != 3 {
		t.Errorf("LineCount = %d, want 3", doc.LineCount)
	}
	if !strings.Contains(doc.FullText, "Second line") {
		t.Errorf("FullText missing content: %q", doc.FullText)
	}
}

func TestExtractDOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.docx")
	writeDOCX(t, path, []string{
		"Executive Summary",
		"Revenue grew by twelve percent.",
		"   ", // blank paragraphs are dropped
		"Costs held flat.",
	})

	svc := NewExtractService(nil)
	doc, err := svc.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if doc.FileType != "docx" {
		t.Errorf("FileType = %q, want docx", doc.FileType)
	}
	if doc.ParagraphCount != 3 {
		t.Errorf("ParagraphCount = %d, want 3", doc.ParagraphCount)
	}
	want := "Executive Summary\nRevenue grew by twelve percent.\nCosts held flat."
	if doc.FullText != want {
		t.Errorf("FullText = %q, want %q", doc.FullText, want)
	}
}

func TestExtractDOCXMissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hollow.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("unrelated.txt")
	w.Write([]byte("nothing here"))
	zw.Close()
	f.Close()

	svc := NewExtractService(nil)
	if _, err := svc.Extract(path); err == nil {
		t.Fatal("expected error for docx without word/document.xml")
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	if err := os.WriteFile(path, []byte{0x89, 0x50}, 0644); err != nil {
		t.Fatal(err)
	}

	svc := NewExtractService(nil)
	_, err := svc.Extract(path)
	if err == nil {
		t.Fatal("expected error for unsupported type")
	}
	if !strings.Contains(err.Error(), "unsupported file type") {
		t.Errorf("error = %v", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	svc := NewExtractService(nil)
	if _, err := svc.Extract(filepath.Join(t.TempDir(), "gone.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
