package services

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Brand: Tealwave</w:t></w:r></w:p>
    <w:p><w:r><w:t>Objective:</w:t></w:r><w:r><w:tab/><w:t>Long-term brand growth</w:t></w:r></w:p>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>Channel</w:t><w:br/><w:t>OOH</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText_Docx(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   docxBody,
	})

	text, err := NewDocumentParser().ExtractText("brief.DOCX", content)

	require.NoError(t, err)
	assert.Equal(t, "Brand: Tealwave\nObjective:\tLong-term brand growth\nChannel\nOOH", text)
}

func TestExtractText_DocxWithoutBody(t *testing.T) {
	content := buildDocx(t, map[string]string{"word/styles.xml": `<styles/>`})

	_, err := NewDocumentParser().ExtractText("brief.docx", content)

	assert.ErrorContains(t, err, "word/document.xml not found")
}

func TestExtractText_PlainText(t *testing.T) {
	parser := NewDocumentParser()

	text, err := parser.ExtractText("notes.md", []byte("# Brief\nRainy commuters"))
	require.NoError(t, err)
	assert.Equal(t, "# Brief\nRainy commuters", text)

	// "Café" in ISO-8859-1.
	text, err = parser.ExtractText("notes.txt", []byte{'C', 'a', 'f', 0xE9})
	require.NoError(t, err)
	assert.Equal(t, "Café", text)
}

func TestExtractText_UnknownExtension(t *testing.T) {
	parser := NewDocumentParser()

	text, err := parser.ExtractText("script.srt", []byte("00:01 Hello"))
	require.NoError(t, err)
	assert.Equal(t, "00:01 Hello", text)

	_, err = parser.ExtractText("frame.png", []byte{0x89, 'P', 'N', 'G', 0xFF, 0xFE})
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestExtractText_InvalidPDF(t *testing.T) {
	_, err := NewDocumentParser().ExtractText("deck.pdf", []byte("this is plainly not a PDF document at all"))

	assert.ErrorContains(t, err, "failed to open PDF")
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brief.txt")
	require.NoError(t, os.WriteFile(path, []byte("Tealwave brief"), 0o644))

	text, err := NewDocumentParser().ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Tealwave brief", text)

	_, err = NewDocumentParser().ExtractFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "failed to read file")
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "first\nsecond", CleanText("  first  \n\n\t\n second\n"))
	assert.Equal(t, "", CleanText("   \n  "))
}
