// Package ocr rasterizes document pages and runs optical character
// recognition. Recognition capacity is scarcer than I/O-bound extraction, so
// every engine call passes through a weighted semaphore sized below the
// batch pool.
package ocr

import (
	"context"
	"image"

	"github.com/textforge/document-extractor/internal/models"
)

// PageText 单页识别结果：纯文本加逐词包围盒
type PageText struct {
	Text  string
	Boxes []models.BoundingBox
}

// Engine 识别引擎接口，tesseract 与 textract 两种实现
type Engine interface {
	// Recognize runs OCR on one page image. Engine-level faults (missing
	// language pack, engine crash) surface as OCRUnavailable.
	Recognize(ctx context.Context, img image.Image, page int) (*PageText, error)
	Close() error
}

// Output 一个文档的 OCR 汇总输出
type Output struct {
	Text     string
	Boxes    []models.BoundingBox
	Warnings []string
}
