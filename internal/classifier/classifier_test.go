package classifier

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// minimal PNG: signature plus truncated IHDR, enough for magic detection
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func TestClassifyByContent(t *testing.T) {
	c := New(logger.NewTestLogger())

	tests := []struct {
		name     string
		content  []byte
		filename string
		format   models.Format
	}{
		{"pdf magic", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"), "report.bin", models.FormatPDF},
		{"png magic", pngHeader, "scan.dat", models.FormatImage},
		{"plain text", []byte("just some plain prose here"), "notes.txt", models.FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, mime, err := c.Classify(tt.content, tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.NotEmpty(t, mime)
		})
	}
}

func TestClassifyContentBeatsExtension(t *testing.T) {
	c := New(logger.NewTestLogger())

	// a PDF renamed to .txt must still classify as PDF
	format, mime, err := c.Classify([]byte("%PDF-1.4\nbody"), "mislabelled.txt")
	require.NoError(t, err)
	assert.Equal(t, models.FormatPDF, format)
	assert.Equal(t, "application/pdf", mime)
}

func TestClassifyZipContainerAsDocx(t *testing.T) {
	c := New(logger.NewTestLogger())

	// bare zip with no office structure; the .docx extension breaks the tie
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("placeholder.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	format, mime, err := c.Classify(buf.Bytes(), "letter.docx")
	require.NoError(t, err)
	assert.Equal(t, models.FormatDOCX, format)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", mime)
}

func TestClassifyExtensionFallback(t *testing.T) {
	c := New(logger.NewTestLogger())

	format, _, err := c.Classify([]byte("plain words without any signature"), "summary.md")
	require.NoError(t, err)
	assert.Equal(t, models.FormatText, format)
}

func TestClassifyUnsupported(t *testing.T) {
	c := New(logger.NewTestLogger())

	// ELF header with an unhelpful extension
	content := []byte{0x7F, 0x45, 0x4C, 0x46, 0x02, 0x01, 0x01, 0x00}
	format, _, err := c.Classify(content, "binary.xyz")
	assert.Equal(t, models.FormatUnknown, format)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrUnsupportedFormat))
}
