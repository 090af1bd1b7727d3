package extractor

import (
	"context"

	"github.com/textforge/document-extractor/internal/convert"
	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// ConvertedExtractor routes legacy office formats through the external
// conversion service. The converter is a black box: it either returns plain
// text within its deadline or the document fails with ConversionTimeout /
// CorruptDocument.
type ConvertedExtractor struct {
	logger logger.Logger
	client *convert.Client
}

func NewConvertedExtractor(log logger.Logger, client *convert.Client) *ConvertedExtractor {
	return &ConvertedExtractor{logger: log, client: client}
}

func (c *ConvertedExtractor) CanExtract(format models.Format) bool {
	return format == models.FormatDOC || format == models.FormatRTF
}

func (c *ConvertedExtractor) Extract(ctx context.Context, doc *models.Document) (*Result, error) {
	c.logger.Debug("Sending document to conversion service",
		logger.String("filename", doc.Filename),
		logger.String("format", string(doc.Format)),
	)

	text, err := c.client.Convert(ctx, doc.Content, doc.Filename)
	if err != nil {
		return nil, err
	}

	text = normalizeText(text)
	return &Result{
		Text:  text,
		Pages: []PageResult{{Number: 1, Text: text}},
	}, nil
}
