package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxPDFPages caps how much of a long PDF is read for content
// generation; pages past the cap are counted but not extracted.
const maxPDFPages = 50

// Content is the extracted text of one reference document.
type Content struct {
	FileType string `json:"file_type"`
	FileName string `json:"file_name"`
	FullText string `json:"full_text"`
	WordCount int   `json:"word_count"`

	// Type-specific counters.
	PageCount      int `json:"page_count,omitempty"`
	PagesProcessed int `json:"pages_processed,omitempty"`
	ParagraphCount int `json:"paragraph_count,omitempty"`
	LineCount      int `json:"line_count,omitempty"`
}

// ExtractService extracts reference text from PDF, DOCX and TXT files.
type ExtractService struct {
	Log func(string)
}

// NewExtractService creates a new document extraction service.
func NewExtractService(logFunc func(string)) *ExtractService {
	return &ExtractService{Log: logFunc}
}

func (s *ExtractService) log(msg string) {
	if s.Log != nil {
		s.Log(msg)
	}
}

// Extract reads the document at path and returns its text content.
func (s *ExtractService) Extract(path string) (*Content, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("document not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	s.log(fmt.Sprintf("[document] extracting %s (%s)", filepath.Base(path), ext))

	switch ext {
	case ".pdf":
		return s.extractPDF(path)
	case ".docx":
		return s.extractDOCX(path)
	case ".txt":
		return s.extractTXT(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q: supported types are .pdf, .docx, .txt", ext)
	}
}

func (s *ExtractService) extractPDF(path string) (*Content, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pageCount := r.NumPage()
	processed := pageCount
	if processed > maxPDFPages {
		processed = maxPDFPages
	}

	var sb strings.Builder
	for i := 1; i <= processed; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			s.log(fmt.Sprintf("[document] page %d unreadable: %v", i, err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	text := sb.String()
	return &Content{
		FileType:       "pdf",
		FileName:       filepath.Base(path),
		FullText:       text,
		WordCount:      len(strings.Fields(text)),
		PageCount:      pageCount,
		PagesProcessed: processed,
	}, nil
}

func (s *ExtractService) extractDOCX(path string) (*Content, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX container: %w", err)
	}
	defer zr.Close()

	var docPart *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docPart = f
			break
		}
	}
	if docPart == nil {
		return nil, fmt.Errorf("not a DOCX document: missing word/document.xml")
	}

	rc, err := docPart.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read document part: %w", err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document part: %w", err)
	}

	text := strings.Join(paragraphs, "\n")
	return &Content{
		FileType:       "docx",
		FileName:       filepath.Base(path),
		FullText:       text,
		WordCount:      len(strings.Fields(text)),
		ParagraphCount: len(paragraphs),
	}, nil
}

// readParagraphs walks the WordprocessingML body collecting the text of
// each w:p element; blank paragraphs are skipped.
func readParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	inParagraph := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				inParagraph = true
				current.Reset()
			}
		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}
	return paragraphs, nil
}

func (s *ExtractService) extractTXT(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	text := strings.ToValidUTF8(string(data), "�")
	return &Content{
		FileType:  "txt",
		FileName:  filepath.Base(path),
		FullText:  text,
		WordCount: len(strings.Fields(text)),
		LineCount: len(strings.Split(text, "\n")),
	}, nil
}
