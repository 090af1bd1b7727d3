package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	cfg "github.com/textforge/document-extractor/config"
	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// TextractEngine 使用 AWS Textract 的识别后端
type TextractEngine struct {
	client        *textract.Client
	logger        logger.Logger
	minConfidence float32
}

func NewTextractEngine(ctx context.Context, tc *cfg.TextractConfig, log logger.Logger) (*TextractEngine, error) {
	creds := credentials.NewStaticCredentialsProvider(tc.AccessKey, tc.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(tc.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "unable to load AWS config", err)
	}

	return &TextractEngine{
		client:        textract.NewFromConfig(awsCfg),
		logger:        log,
		minConfidence: 80.0,
	}, nil
}

func (e *TextractEngine) Recognize(ctx context.Context, img image.Image, page int) (*PageText, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "failed to encode page image", err)
	}

	result, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: buf.Bytes()},
	})
	if err != nil {
		return nil, models.WrapError(models.ErrOCRUnavailable, "textract call failed", err)
	}

	bounds := img.Bounds()
	pageW := float64(bounds.Dx())
	pageH := float64(bounds.Dy())

	out := &PageText{}
	var lines []string
	for _, block := range result.Blocks {
		if block.Confidence == nil || *block.Confidence < e.minConfidence || block.Text == nil {
			continue
		}
		switch block.BlockType {
		case types.BlockTypeLine:
			lines = append(lines, *block.Text)
		case types.BlockTypeWord:
			if block.Geometry == nil || block.Geometry.BoundingBox == nil {
				continue
			}
			// textract geometry is relative to page size
			bb := block.Geometry.BoundingBox
			out.Boxes = append(out.Boxes, models.BoundingBox{
				X:          float64(bb.Left) * pageW,
				Y:          float64(bb.Top) * pageH,
				Width:      float64(bb.Width) * pageW,
				Height:     float64(bb.Height) * pageH,
				Text:       *block.Text,
				Confidence: float64(*block.Confidence),
				Page:       page,
			})
		}
	}
	out.Text = strings.Join(lines, "\n")

	return out, nil
}

func (e *TextractEngine) Close() error {
	return nil
}
