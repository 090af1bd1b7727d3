// Package classifier detects a document's MIME type from its content and
// selects the extraction format used downstream.
package classifier

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// extension fallback for formats without a reliable content signature
var extToFormat = map[string]models.Format{
	".pdf":  models.FormatPDF,
	".docx": models.FormatDOCX,
	".doc":  models.FormatDOC,
	".rtf":  models.FormatRTF,
	".txt":  models.FormatText,
	".csv":  models.FormatText,
	".html": models.FormatText,
	".htm":  models.FormatText,
	".md":   models.FormatText,
	".jpg":  models.FormatImage,
	".jpeg": models.FormatImage,
	".png":  models.FormatImage,
	".tiff": models.FormatImage,
	".tif":  models.FormatImage,
}

type Classifier struct {
	logger logger.Logger
}

func New(log logger.Logger) *Classifier {
	return &Classifier{logger: log}
}

// Classify inspects content first and falls back to the filename extension
// when the signature is ambiguous. Extensions are untrusted and never
// override a definite content match.
func (c *Classifier) Classify(content []byte, filename string) (models.Format, string, error) {
	mtype := mimetype.Detect(content)
	format := formatForMIME(mtype.String())

	if format == models.FormatUnknown || isAmbiguous(mtype.String()) {
		ext := strings.ToLower(filepath.Ext(filename))
		if f, ok := extToFormat[ext]; ok {
			c.logger.Debug("Classified by extension",
				logger.String("filename", filename),
				logger.String("detected", mtype.String()),
			)
			return f, mimeForFormat(f, mtype.String()), nil
		}
	}

	if format == models.FormatUnknown {
		return models.FormatUnknown, mtype.String(),
			models.NewError(models.ErrUnsupportedFormat, "unsupported file type: "+mtype.String())
	}

	return format, mtype.String(), nil
}

func formatForMIME(mime string) models.Format {
	// mimetype returns types with parameters stripped already, but text
	// detection may include a charset suffix.
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch mime {
	case "application/pdf":
		return models.FormatPDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return models.FormatDOCX
	case "application/msword":
		return models.FormatDOC
	case "text/rtf", "application/rtf":
		return models.FormatRTF
	case "text/plain", "text/html", "text/csv", "text/markdown":
		return models.FormatText
	case "image/jpeg", "image/png", "image/tiff":
		return models.FormatImage
	}

	if strings.HasPrefix(mime, "text/") {
		return models.FormatText
	}
	return models.FormatUnknown
}

// isAmbiguous reports signatures that can't distinguish the real format:
// plain text has no magic bytes, and a bare zip may be an office container
// whose inner structure mimetype failed to read.
func isAmbiguous(mime string) bool {
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime == "text/plain" || mime == "application/zip" || mime == "application/octet-stream"
}

func mimeForFormat(f models.Format, detected string) string {
	switch f {
	case models.FormatPDF:
		return "application/pdf"
	case models.FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case models.FormatDOC:
		return "application/msword"
	case models.FormatRTF:
		return "text/rtf"
	case models.FormatImage, models.FormatText:
		return detected
	}
	return detected
}
