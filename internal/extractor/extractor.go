// Package extractor implements native text extraction for formats with a
// structured parser. OCR-only formats (scanned images) are handled by the
// ocr package instead.
package extractor

import (
	"context"
	"strings"

	"github.com/textforge/document-extractor/internal/convert"
	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// PageResult 单页提取结果；一页损坏只留下告警，不中断其余页面
type PageResult struct {
	Number  int    `json:"number"`
	Text    string `json:"text"`
	Warning string `json:"warning,omitempty"`
}

// Result 原生提取输出
type Result struct {
	Text  string
	Pages []PageResult

	// TableCells holds explicit cell grids from formats with real table
	// markup (docx). Boxes holds positioned fragments (pdf layout) for the
	// clustering path of the table detector.
	TableCells [][][]string
	Boxes      []models.BoundingBox

	Warnings []string
}

// Substantive reports whether the extracted text is non-trivial: non-empty
// after whitespace normalization and at least minLen runes long. The flag
// drives the OCR fallback decision.
func (r *Result) Substantive(minLen int) bool {
	if r == nil {
		return false
	}
	normalized := strings.Join(strings.Fields(r.Text), " ")
	return len([]rune(normalized)) >= minLen
}

// Extractor 原生提取器接口
type Extractor interface {
	CanExtract(format models.Format) bool
	Extract(ctx context.Context, doc *models.Document) (*Result, error)
}

// Registry selects the extractor for a detected format.
type Registry struct {
	extractors []Extractor
	logger     logger.Logger
}

// NewRegistry wires the native extractors. converter may be nil, in which
// case legacy formats (.doc, .rtf) report UnsupportedFormat.
func NewRegistry(log logger.Logger, converter *convert.Client, pageWorkers int) *Registry {
	extractors := []Extractor{
		NewPDFExtractor(log, pageWorkers),
		NewDOCXExtractor(log),
		NewTextExtractor(log),
	}
	if converter != nil {
		extractors = append(extractors, NewConvertedExtractor(log, converter))
	}
	return &Registry{extractors: extractors, logger: log}
}

// ForFormat returns the extractor handling format, or UnsupportedFormat.
// Image documents have no native path and always return an error here.
func (r *Registry) ForFormat(format models.Format) (Extractor, error) {
	for _, e := range r.extractors {
		if e.CanExtract(format) {
			return e, nil
		}
	}
	return nil, models.NewError(models.ErrUnsupportedFormat,
		"no native extractor for format: "+string(format))
}
