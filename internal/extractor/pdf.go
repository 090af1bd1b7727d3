package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// PDFExtractor reads the text layer of a PDF. Pages are processed
// independently and in parallel; one malformed page leaves a warning in its
// slot instead of aborting the rest.
type PDFExtractor struct {
	logger      logger.Logger
	pageWorkers int
}

func NewPDFExtractor(log logger.Logger, pageWorkers int) *PDFExtractor {
	if pageWorkers <= 0 {
		pageWorkers = 4
	}
	return &PDFExtractor{logger: log, pageWorkers: pageWorkers}
}

func (p *PDFExtractor) CanExtract(format models.Format) bool {
	return format == models.FormatPDF
}

func (p *PDFExtractor) Extract(ctx context.Context, doc *models.Document) (res *Result, retErr error) {
	// the pdf library panics on some malformed trailers
	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			retErr = models.NewError(models.ErrCorruptDocument,
				fmt.Sprintf("malformed pdf structure: %v", rec))
		}
	}()

	reader := bytes.NewReader(doc.Content)

	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, models.WrapError(models.ErrCorruptDocument, "cannot open pdf container", err)
	}

	numPages := pdfReader.NumPage()

	// One slot per page, written by index, so output order never depends on
	// worker completion order.
	pages := make([]PageResult, numPages)
	boxes := make([][]models.BoundingBox, numPages)

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, p.pageWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}

			pages[pageNum-1] = p.extractPage(pdfReader, pageNum, &boxes[pageNum-1])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Pages: pages}
	var sb strings.Builder
	for _, page := range pages {
		if page.Warning != "" {
			result.Warnings = append(result.Warnings, page.Warning)
			continue
		}
		if sb.Len() > 0 && page.Text != "" {
			sb.WriteString("\n")
		}
		sb.WriteString(page.Text)
	}
	result.Text = strings.TrimSpace(sb.String())
	for _, pageBoxes := range boxes {
		result.Boxes = append(result.Boxes, pageBoxes...)
	}

	return result, nil
}

// extractPage pulls text and positioned fragments from one page. The pdf
// library panics on some malformed objects, so faults are contained here.
func (p *PDFExtractor) extractPage(r *pdf.Reader, pageNum int, boxes *[]models.BoundingBox) (pr PageResult) {
	pr.Number = pageNum

	defer func() {
		if rec := recover(); rec != nil {
			pr.Text = ""
			pr.Warning = fmt.Sprintf("page %d: malformed page object: %v", pageNum, rec)
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		pr.Warning = fmt.Sprintf("page %d: missing page object", pageNum)
		return pr
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		pr.Warning = fmt.Sprintf("page %d: %v", pageNum, err)
		return pr
	}
	pr.Text = text

	// Positioned fragments feed the table detector's clustering path. PDF
	// user space has Y growing upward; flip so the detector sees a
	// top-left origin like OCR boxes.
	content := page.Content()
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		*boxes = append(*boxes, models.BoundingBox{
			X:      t.X,
			Y:      -t.Y,
			Width:  t.W,
			Height: t.FontSize,
			Text:   t.S,
			Page:   pageNum,
		})
	}

	return pr
}
