package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
)

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".json": true, ".xml": true, ".html": true,
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true, ".css": true,
	".yaml": true, ".yml": true, ".toml": true, ".ini": true, ".cfg": true, ".log": true,
}

var ErrNoText = errors.New("no text content found in document")

type DocumentParser interface {
	// ExtractText picks a decoder from the file extension of filename.
	ExtractText(filename string, content []byte) (string, error)
	ExtractFile(path string) (string, error)
}

type documentParser struct{}

func NewDocumentParser() DocumentParser {
	return &documentParser{}
}

func (p *documentParser) ExtractFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return p.ExtractText(filepath.Base(path), content)
}

func (p *documentParser) ExtractText(filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return extractPDF(content)
	case ext == ".docx":
		return extractDocx(content)
	case textExtensions[ext]:
		if utf8.Valid(content) {
			return string(content), nil
		}
		text, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
		if err != nil {
			return "", fmt.Errorf("could not decode text file %s: %w", filename, err)
		}
		return string(text), nil
	default:
		if !utf8.Valid(content) {
			return "", fmt.Errorf("unsupported file type or binary file: %s", filename)
		}
		return string(content), nil
	}
}

func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var pages []string
	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, fmt.Sprintf("[Page %d]\n%s", pageIndex, text))
	}

	if len(pages) == 0 {
		return "", ErrNoText
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractDocx reads word/document.xml and returns one line per paragraph.
func extractDocx(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse Word document: %w", err)
	}

	var body []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to parse Word document: %w", err)
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to parse Word document: %w", err)
		}
		break
	}
	if body == nil {
		return "", errors.New("failed to parse Word document: word/document.xml not found")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return "", fmt.Errorf("failed to parse Word document: %w", err)
	}

	var paragraphs []string
	collectParagraphs(doc.Root(), &paragraphs)
	return strings.Join(paragraphs, "\n"), nil
}

func collectParagraphs(el *etree.Element, out *[]string) {
	if el == nil {
		return
	}
	if el.Tag == "p" {
		var b strings.Builder
		runText(el, &b)
		*out = append(*out, b.String())
		return
	}
	for _, child := range el.ChildElements() {
		collectParagraphs(child, out)
	}
}

func runText(el *etree.Element, b *strings.Builder) {
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "t":
			b.WriteString(child.Text())
		case "tab":
			b.WriteString("\t")
		case "br":
			b.WriteString("\n")
		default:
			runText(child, b)
		}
	}
}

// CleanText trims each line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
