package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// TesseractConfig 本地 tesseract 引擎配置
type TesseractConfig struct {
	Languages     []string
	MinConfidence float64
}

// TesseractEngine runs the local tesseract engine through gosseract. A fresh
// client is created per call; gosseract clients are not safe for concurrent
// reuse.
type TesseractEngine struct {
	logger        logger.Logger
	languages     []string
	minConfidence float64
	preprocessors []Preprocessor
}

func NewTesseractEngine(log logger.Logger, cfg *TesseractConfig) *TesseractEngine {
	languages := cfg.Languages
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	minConfidence := cfg.MinConfidence
	if minConfidence <= 0 {
		minConfidence = 60.0
	}
	return &TesseractEngine{
		logger:        log,
		languages:     languages,
		minConfidence: minConfidence,
		preprocessors: defaultPreprocessors(),
	}
}

func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image, page int) (*PageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed, err := applyPreprocessors(img, e.preprocessors)
	if err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "image preprocessing failed", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "failed to encode page image", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Join(e.languages, "+")); err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "failed to set ocr language", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "failed to load page image", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "recognition failed", err)
	}

	rawBoxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "failed to read bounding boxes", err)
	}

	result := &PageText{Text: strings.TrimSpace(text)}
	for _, box := range rawBoxes {
		if box.Confidence < e.minConfidence || strings.TrimSpace(box.Word) == "" {
			continue
		}
		result.Boxes = append(result.Boxes, models.BoundingBox{
			X:          float64(box.Box.Min.X),
			Y:          float64(box.Box.Min.Y),
			Width:      float64(box.Box.Dx()),
			Height:     float64(box.Box.Dy()),
			Text:       box.Word,
			Confidence: box.Confidence,
			Page:       page,
		})
	}

	return result, nil
}

func (e *TesseractEngine) Close() error {
	return nil
}
