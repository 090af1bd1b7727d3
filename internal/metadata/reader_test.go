package metadata

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

const coreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/"
  xmlns:dcterms="http://purl.org/dc/terms/">
  <dc:title>Annual Review</dc:title>
  <dc:creator>J. Doe</dc:creator>
  <dcterms:created>2024-03-01T10:00:00Z</dcterms:created>
</cp:coreProperties>`

func buildDocxWithProps(t *testing.T, core string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document/>`))
	require.NoError(t, err)
	if core != "" {
		w, err = zw.Create("docProps/core.xml")
		require.NoError(t, err)
		_, err = w.Write([]byte(core))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadDOCXProperties(t *testing.T) {
	r := NewReader(logger.NewTestLogger())

	doc := &models.Document{
		Filename: "review.docx",
		Content:  buildDocxWithProps(t, coreXML),
		Format:   models.FormatDOCX,
	}

	props, err := r.Read(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "Annual Review", props["title"])
	assert.Equal(t, "J. Doe", props["author"])
	assert.Equal(t, "2024-03-01T10:00:00Z", props["created"])
	assert.NotEmpty(t, props["size"])

	// absent properties stay absent
	_, hasSubject := props["subject"]
	assert.False(t, hasSubject)
}

func TestReadDOCXWithoutPropertyPart(t *testing.T) {
	r := NewReader(logger.NewTestLogger())

	doc := &models.Document{
		Filename: "bare.docx",
		Content:  buildDocxWithProps(t, ""),
		Format:   models.FormatDOCX,
	}

	props, err := r.Read(context.Background(), doc)
	require.NoError(t, err)
	assert.NotEmpty(t, props["size"])
	_, hasTitle := props["title"]
	assert.False(t, hasTitle)
}

func TestReadDOCXCorruptContainer(t *testing.T) {
	r := NewReader(logger.NewTestLogger())

	doc := &models.Document{
		Filename: "broken.docx",
		Content:  []byte("not an archive"),
		Format:   models.FormatDOCX,
	}

	_, err := r.Read(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrMetadataUnavailable))
}

func TestReadImageDimensions(t *testing.T) {
	r := NewReader(logger.NewTestLogger())

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 24, 16))
	require.NoError(t, png.Encode(&buf, img))

	doc := &models.Document{
		Filename: "scan.png",
		Content:  buf.Bytes(),
		Format:   models.FormatImage,
	}

	props, err := r.Read(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "png", props["format"])
	assert.Equal(t, "24", props["width"])
	assert.Equal(t, "16", props["height"])
}

func TestReadImageTIFF(t *testing.T) {
	r := NewReader(logger.NewTestLogger())

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 12, 9))
	require.NoError(t, tiff.Encode(&buf, img, nil))

	doc := &models.Document{
		Filename: "scan.tiff",
		Content:  buf.Bytes(),
		Format:   models.FormatImage,
	}

	props, err := r.Read(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "tiff", props["format"])
	assert.Equal(t, "12", props["width"])
	assert.Equal(t, "9", props["height"])
}

func TestReadPDFCorrupt(t *testing.T) {
	r := NewReader(logger.NewTestLogger())

	doc := &models.Document{
		Filename: "mangled.pdf",
		Content:  []byte("%PDF-1.4\nthis trailer goes nowhere"),
		Format:   models.FormatPDF,
	}

	_, err := r.Read(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrMetadataUnavailable))
}

func TestReadTextFallback(t *testing.T) {
	r := NewReader(logger.NewTestLogger())

	doc := &models.Document{
		Filename: "plain.txt",
		Content:  []byte("hello"),
		Format:   models.FormatText,
	}

	props, err := r.Read(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "5", props["size"])
}

func TestReadCancelledContext(t *testing.T) {
	r := NewReader(logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := &models.Document{Filename: "x.txt", Format: models.FormatText}
	_, err := r.Read(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
}
