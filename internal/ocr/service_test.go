package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

type fakeEngine struct {
	mu       sync.Mutex
	inFlight int32
	maxSeen  int32
	calls    int32
	// pages listed here fail recognition
	failPages map[int]bool
	delay     time.Duration
}

func (e *fakeEngine) Recognize(ctx context.Context, img image.Image, page int) (*PageText, error) {
	atomic.AddInt32(&e.calls, 1)
	cur := atomic.AddInt32(&e.inFlight, 1)
	defer atomic.AddInt32(&e.inFlight, -1)

	e.mu.Lock()
	if cur > e.maxSeen {
		e.maxSeen = cur
	}
	e.mu.Unlock()

	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.failPages[page] {
		return nil, models.NewError(models.ErrOCRUnavailable, fmt.Sprintf("engine fault on page %d", page))
	}
	return &PageText{
		Text:  fmt.Sprintf("page %d text", page),
		Boxes: []models.BoundingBox{{Text: "word", Page: page}},
	}, nil
}

func (e *fakeEngine) Close() error { return nil }

type fakeRasterizer struct {
	pages int
}

func (r *fakeRasterizer) RenderPages(ctx context.Context, content []byte) ([]image.Image, error) {
	out := make([]image.Image, r.pages)
	for i := range out {
		out[i] = image.NewRGBA(image.Rect(0, 0, 4, 4))
	}
	return out, nil
}

func pngDoc(t *testing.T) *models.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return &models.Document{Filename: "scan.png", Content: buf.Bytes(), Format: models.FormatImage}
}

func TestProcessDocumentImage(t *testing.T) {
	engine := &fakeEngine{}
	s := NewService(engine, nil, 2, logger.NewTestLogger())

	out, err := s.ProcessDocument(context.Background(), pngDoc(t))
	require.NoError(t, err)
	assert.Equal(t, "page 1 text", out.Text)
	assert.Len(t, out.Boxes, 1)
	assert.Equal(t, int32(1), engine.calls)
}

func TestProcessDocumentPDFPages(t *testing.T) {
	engine := &fakeEngine{}
	s := NewService(engine, &fakeRasterizer{pages: 3}, 2, logger.NewTestLogger())

	doc := &models.Document{Filename: "scan.pdf", Content: []byte("%PDF"), Format: models.FormatPDF}
	out, err := s.ProcessDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "page 1 text\npage 2 text\npage 3 text", out.Text)
	assert.Equal(t, int32(3), engine.calls)
}

func TestProcessDocumentBoundsEngineConcurrency(t *testing.T) {
	engine := &fakeEngine{delay: 5 * time.Millisecond}
	s := NewService(engine, &fakeRasterizer{pages: 12}, 2, logger.NewTestLogger())

	doc := &models.Document{Filename: "scan.pdf", Content: []byte("%PDF"), Format: models.FormatPDF}
	_, err := s.ProcessDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.LessOrEqual(t, engine.maxSeen, int32(2))
}

func TestProcessDocumentPartialFailureDegrades(t *testing.T) {
	engine := &fakeEngine{failPages: map[int]bool{2: true}}
	s := NewService(engine, &fakeRasterizer{pages: 3}, 2, logger.NewTestLogger())

	doc := &models.Document{Filename: "scan.pdf", Content: []byte("%PDF"), Format: models.FormatPDF}
	out, err := s.ProcessDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "page 1 text\npage 3 text", out.Text)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "page 2")
}

func TestProcessDocumentAllPagesFailed(t *testing.T) {
	engine := &fakeEngine{failPages: map[int]bool{1: true, 2: true}}
	s := NewService(engine, &fakeRasterizer{pages: 2}, 2, logger.NewTestLogger())

	doc := &models.Document{Filename: "scan.pdf", Content: []byte("%PDF"), Format: models.FormatPDF}
	_, err := s.ProcessDocument(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrOCRUnavailable))
}

func TestProcessDocumentTIFFImage(t *testing.T) {
	engine := &fakeEngine{}
	s := NewService(engine, nil, 2, logger.NewTestLogger())

	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	doc := &models.Document{Filename: "scan.tiff", Content: buf.Bytes(), Format: models.FormatImage}

	out, err := s.ProcessDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "page 1 text", out.Text)
	assert.Equal(t, int32(1), engine.calls)
}

func TestProcessDocumentUndecodableImage(t *testing.T) {
	s := NewService(&fakeEngine{}, nil, 2, logger.NewTestLogger())

	doc := &models.Document{Filename: "bad.png", Content: []byte("not an image"), Format: models.FormatImage}
	_, err := s.ProcessDocument(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrCorruptDocument))
}

func TestProcessDocumentPDFWithoutRasterizer(t *testing.T) {
	s := NewService(&fakeEngine{}, nil, 2, logger.NewTestLogger())

	doc := &models.Document{Filename: "scan.pdf", Content: []byte("%PDF"), Format: models.FormatPDF}
	_, err := s.ProcessDocument(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrOCRUnavailable))
}

func TestApplyPreprocessors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	out, err := applyPreprocessors(img, defaultPreprocessors())
	require.NoError(t, err)
	assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dy(), out.Bounds().Dy())
}
