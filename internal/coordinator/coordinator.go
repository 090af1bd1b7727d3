// Package coordinator orchestrates classification, native extraction, OCR
// fallback, table detection and metadata reading for a single document, and
// normalizes every fault into one ExtractionResult.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/textforge/document-extractor/internal/classifier"
	"github.com/textforge/document-extractor/internal/extractor"
	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/internal/ocr"
	"github.com/textforge/document-extractor/internal/tables"
	"github.com/textforge/document-extractor/pkg/logger"
)

// state 状态机状态
type state string

const (
	stateClassifying     state = "classifying"
	stateExtracting      state = "extracting"
	stateOCRFallback     state = "ocr_fallback"
	stateDetectingTables state = "detecting_tables"
	stateReadingMetadata state = "reading_metadata"
	stateDone            state = "done"
)

// OCRService is the recognition dependency. The concrete implementation is
// ocr.Service; tests substitute fakes.
type OCRService interface {
	ProcessDocument(ctx context.Context, doc *models.Document) (*ocr.Output, error)
}

// MetadataReader reads a format's property record.
type MetadataReader interface {
	Read(ctx context.Context, doc *models.Document) (map[string]string, error)
}

// TableDetector turns layout data or boxes into tables.
type TableDetector interface {
	FromLayout(grids [][][]string) []models.Table
	FromBoxes(boxes []models.BoundingBox) []models.Table
}

// Config 协调器配置
type Config struct {
	// Outer wall-clock bound per document; supersedes sub-step timeouts.
	DocumentTimeout time.Duration
	// Minimum rune count for native text to be substantive.
	SubstantiveMinLength int
}

type Coordinator struct {
	classifier *classifier.Classifier
	registry   *extractor.Registry
	ocr        OCRService
	detector   TableDetector
	metadata   MetadataReader
	logger     logger.Logger
	cfg        Config
}

func New(
	cls *classifier.Classifier,
	registry *extractor.Registry,
	ocrSvc OCRService,
	detector TableDetector,
	metadata MetadataReader,
	log logger.Logger,
	cfg Config,
) *Coordinator {
	if cfg.DocumentTimeout <= 0 {
		cfg.DocumentTimeout = 2 * time.Minute
	}
	if cfg.SubstantiveMinLength <= 0 {
		cfg.SubstantiveMinLength = 25
	}
	return &Coordinator{
		classifier: cls,
		registry:   registry,
		ocr:        ocrSvc,
		detector:   detector,
		metadata:   metadata,
		logger:     log,
		cfg:        cfg,
	}
}

// Process runs the full pipeline for one document and always returns a
// result: any fault, timeout or panic is normalized into a failure status.
// The document is owned by this call; nothing is shared with sibling
// extractions.
func (c *Coordinator) Process(ctx context.Context, doc *models.Document, opts models.ExtractionOptions) (result *models.ExtractionResult) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.DocumentTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("Panic during extraction",
				logger.String("filename", doc.Filename),
				logger.Any("panic", rec),
			)
			result = models.FailureResult(doc.Filename,
				models.NewError(models.ErrInternalExtraction, fmt.Sprintf("unexpected fault: %v", rec)))
		}
	}()

	result = c.process(ctx, doc, opts)

	// The outer deadline wins over whatever a sub-step reported.
	if ctx.Err() == context.DeadlineExceeded && result.Status == models.StatusFailure {
		result = models.FailureResult(doc.Filename,
			models.NewError(models.ErrExtractionTimeout, "document processing exceeded time limit"))
	}
	result.Filename = doc.Filename
	result.MimeType = doc.MimeType
	return result
}

func (c *Coordinator) process(ctx context.Context, doc *models.Document, opts models.ExtractionOptions) *models.ExtractionResult {
	st := stateClassifying
	started := time.Now()

	format, mime, err := c.classifier.Classify(doc.Content, doc.Filename)
	if err != nil {
		return models.FailureResult(doc.Filename, err)
	}
	doc.Format = format
	doc.MimeType = mime

	var (
		text     string
		boxes    []models.BoundingBox
		grids    [][][]string
		warnings []string
	)

	// Image documents have no native path; everything else extracts
	// natively first and OCR is only a fallback.
	st = stateExtracting
	nativeOK := false
	if format == models.FormatImage {
		if !opts.EnableOCR {
			return models.FailureResult(doc.Filename,
				models.NewError(models.ErrOCRUnavailable, "ocr disabled for image document"))
		}
	} else {
		ext, err := c.registry.ForFormat(format)
		if err != nil {
			return models.FailureResult(doc.Filename, err)
		}
		native, err := ext.Extract(ctx, doc)
		if err != nil {
			if ctxFault := c.contextFailure(ctx, doc, err); ctxFault != nil {
				return ctxFault
			}
			if !opts.EnableOCR || !ocrCapable(format) {
				return models.FailureResult(doc.Filename, err)
			}
			warnings = append(warnings, "native extraction failed: "+err.Error())
		} else {
			text = native.Text
			boxes = native.Boxes
			grids = native.TableCells
			warnings = append(warnings, native.Warnings...)
			nativeOK = native.Substantive(c.cfg.SubstantiveMinLength)
		}
	}

	// Fallback rule: OCR runs iff native text is not substantive and OCR is
	// enabled (images always land here). A substantive native result never
	// consumes an OCR slot.
	if !nativeOK && opts.EnableOCR && ocrCapable(format) {
		st = stateOCRFallback
		out, err := c.ocr.ProcessDocument(ctx, doc)
		switch {
		case err == nil:
			if out.Text != "" {
				text = out.Text
				boxes = out.Boxes
			}
			warnings = append(warnings, out.Warnings...)
		default:
			if ctxFault := c.contextFailure(ctx, doc, err); ctxFault != nil {
				return ctxFault
			}
			if text == "" {
				// OCR was the only text path
				return models.FailureResult(doc.Filename, err)
			}
			// native text exists; degrade to a warning
			warnings = append(warnings, "ocr fallback failed: "+err.Error())
		}
	}

	result := &models.ExtractionResult{
		Status:    models.StatusSuccess,
		Filename:  doc.Filename,
		MimeType:  doc.MimeType,
		Text:      text,
		Timestamp: time.Now(),
	}

	if opts.ExtractTables {
		st = stateDetectingTables
		// Table detection never fails; no tables is a normal outcome.
		result.Tables = c.detector.FromLayout(grids)
		result.Tables = append(result.Tables, c.detector.FromBoxes(boxes)...)
	}

	if opts.ExtractMetadata {
		st = stateReadingMetadata
		props, err := c.metadata.Read(ctx, doc)
		if err != nil {
			if ctxFault := c.contextFailure(ctx, doc, err); ctxFault != nil {
				return ctxFault
			}
			// recoverable in context: recorded as a warning
			warnings = append(warnings, "metadata unavailable: "+err.Error())
		} else {
			result.Metadata = props
		}
	}

	st = stateDone
	result.Warnings = warnings
	c.logger.Info("Document processed",
		logger.String("filename", doc.Filename),
		logger.String("format", string(doc.Format)),
		logger.String("state", string(st)),
		logger.Int("tables", len(result.Tables)),
		logger.Duration("elapsed", time.Since(started)),
	)
	return result
}

// contextFailure maps a cancelled or expired context to its terminal
// result; returns nil when the error is unrelated to the context.
func (c *Coordinator) contextFailure(ctx context.Context, doc *models.Document, err error) *models.ExtractionResult {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return models.FailureResult(doc.Filename,
			models.NewError(models.ErrExtractionTimeout, "document processing exceeded time limit"))
	case context.Canceled:
		return models.FailureResult(doc.Filename,
			models.WrapError(models.ErrInternalExtraction, "extraction cancelled", err))
	}
	return nil
}

// ocrCapable reports formats with a rasterization path.
func ocrCapable(format models.Format) bool {
	return format == models.FormatPDF || format == models.FormatImage
}
