package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocessor 图像预处理接口
type Preprocessor interface {
	Process(img image.Image) (image.Image, error)
}

// defaultPreprocessors builds the chain applied before recognition:
// grayscale, contrast normalization, then a mild sharpen. Scanned input is
// noisy; the chain lifts tesseract accuracy on low-quality pages.
func defaultPreprocessors() []Preprocessor {
	return []Preprocessor{
		&grayscaleProcessor{},
		&contrastProcessor{amount: 15},
		&sharpenProcessor{sigma: 0.5},
	}
}

type grayscaleProcessor struct{}

func (p *grayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

type contrastProcessor struct {
	amount float64
}

func (p *contrastProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.AdjustContrast(img, p.amount), nil
}

type sharpenProcessor struct {
	sigma float64
}

func (p *sharpenProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Sharpen(img, p.sigma), nil
}

func applyPreprocessors(img image.Image, chain []Preprocessor) (image.Image, error) {
	out := img
	for _, p := range chain {
		var err error
		out, err = p.Process(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
