package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// Service coordinates rasterization and recognition for one document. A
// single weighted semaphore bounds engine calls across ALL concurrently
// processed documents: a document whose native extraction succeeded never
// touches it.
type Service struct {
	engine     Engine
	rasterizer Rasterizer
	sem        *semaphore.Weighted
	logger     logger.Logger
}

func NewService(engine Engine, rasterizer Rasterizer, concurrency int, log logger.Logger) *Service {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Service{
		engine:     engine,
		rasterizer: rasterizer,
		sem:        semaphore.NewWeighted(int64(concurrency)),
		logger:     log,
	}
}

// ProcessDocument runs OCR over every page of the document. Pages are
// independent: one failed page degrades to a warning as long as any page
// produced text; a fully failed document reports OCRUnavailable.
func (s *Service) ProcessDocument(ctx context.Context, doc *models.Document) (*Output, error) {
	pages, err := s.pageImages(ctx, doc)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, models.NewError(models.ErrOCRUnavailable, "no renderable pages")
	}

	results := make([]*PageText, len(pages))
	warnings := make([]string, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	for i, img := range pages {
		i, img := i, img
		g.Go(func() error {
			if err := s.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer s.sem.Release(1)

			pt, err := s.engine.Recognize(gctx, img, i+1)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				warnings[i] = fmt.Sprintf("page %d: %v", i+1, err)
				return nil
			}
			results[i] = pt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Output{}
	var texts []string
	failed := 0
	for i, pt := range results {
		if pt == nil {
			failed++
			if warnings[i] != "" {
				out.Warnings = append(out.Warnings, warnings[i])
			}
			continue
		}
		if pt.Text != "" {
			texts = append(texts, pt.Text)
		}
		out.Boxes = append(out.Boxes, pt.Boxes...)
	}

	if failed == len(pages) {
		return nil, models.NewError(models.ErrOCRUnavailable,
			"recognition failed on every page: "+strings.Join(out.Warnings, "; "))
	}

	out.Text = strings.Join(texts, "\n")
	return out, nil
}

func (s *Service) Close() error {
	return s.engine.Close()
}

// pageImages turns the document into one image per page. Images decode
// directly; PDFs go through the external rasterizer.
func (s *Service) pageImages(ctx context.Context, doc *models.Document) ([]image.Image, error) {
	switch doc.Format {
	case models.FormatImage:
		img, _, err := image.Decode(bytes.NewReader(doc.Content))
		if err != nil {
			return nil, models.WrapError(models.ErrCorruptDocument, "cannot decode image", err)
		}
		return []image.Image{img}, nil
	case models.FormatPDF:
		if s.rasterizer == nil {
			return nil, models.NewError(models.ErrOCRUnavailable, "no rasterizer configured for pdf ocr")
		}
		return s.rasterizer.RenderPages(ctx, doc.Content)
	default:
		return nil, models.NewError(models.ErrOCRUnavailable,
			"ocr not applicable to format: "+string(doc.Format))
	}
}
