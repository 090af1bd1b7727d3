// Package metadata reads document properties (author, timestamps, page
// count) from a format's property record, independent of body extraction.
// Missing properties are absent keys, not errors.
package metadata

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"strconv"

	_ "image/jpeg"
	_ "image/png"

	"github.com/ledongthuc/pdf"
	_ "golang.org/x/image/tiff"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

type Reader struct {
	logger logger.Logger
}

func NewReader(log logger.Logger) *Reader {
	return &Reader{logger: log}
}

// Read returns the property map for the document. MetadataUnavailable is
// reported only when the metadata container itself cannot be opened.
func (r *Reader) Read(ctx context.Context, doc *models.Document) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch doc.Format {
	case models.FormatPDF:
		return r.readPDF(doc)
	case models.FormatDOCX:
		return r.readDOCX(doc)
	case models.FormatImage:
		return r.readImage(doc)
	default:
		return map[string]string{
			"size": strconv.FormatInt(doc.Size(), 10),
		}, nil
	}
}

func (r *Reader) readPDF(doc *models.Document) (props map[string]string, err error) {
	// the pdf library panics on some malformed trailers
	defer func() {
		if rec := recover(); rec != nil {
			props = nil
			err = models.NewError(models.ErrMetadataUnavailable,
				fmt.Sprintf("malformed pdf metadata: %v", rec))
		}
	}()

	reader := bytes.NewReader(doc.Content)
	pdfReader, openErr := pdf.NewReader(reader, reader.Size())
	if openErr != nil {
		return nil, models.WrapError(models.ErrMetadataUnavailable, "cannot open pdf container", openErr)
	}

	props = map[string]string{
		"page_count": strconv.Itoa(pdfReader.NumPage()),
		"size":       strconv.FormatInt(doc.Size(), 10),
	}

	trailer := pdfReader.Trailer()
	if trailer.IsNull() {
		return props, nil
	}
	info := trailer.Key("Info")
	if info.IsNull() {
		return props, nil
	}

	for key, prop := range map[string]string{
		"Title":        "title",
		"Author":       "author",
		"Subject":      "subject",
		"Creator":      "creator",
		"Producer":     "producer",
		"CreationDate": "created",
		"ModDate":      "modified",
	} {
		if v := info.Key(key); !v.IsNull() {
			if s := v.Text(); s != "" {
				props[prop] = s
			}
		}
	}

	return props, nil
}

// coreProperties docProps/core.xml 属性记录
type coreProperties struct {
	Title    string `xml:"title"`
	Subject  string `xml:"subject"`
	Creator  string `xml:"creator"`
	Created  string `xml:"created"`
	Modified string `xml:"modified"`
}

func (r *Reader) readDOCX(doc *models.Document) (map[string]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(doc.Content), doc.Size())
	if err != nil {
		return nil, models.WrapError(models.ErrMetadataUnavailable, "cannot open docx container", err)
	}

	props := map[string]string{
		"size": strconv.FormatInt(doc.Size(), 10),
	}

	for _, f := range reader.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, models.WrapError(models.ErrMetadataUnavailable, "cannot open core.xml", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, models.WrapError(models.ErrMetadataUnavailable, "cannot read core.xml", err)
		}

		var core coreProperties
		if err := xml.Unmarshal(data, &core); err != nil {
			return nil, models.WrapError(models.ErrMetadataUnavailable, "malformed core.xml", err)
		}

		setIfPresent(props, "title", core.Title)
		setIfPresent(props, "subject", core.Subject)
		setIfPresent(props, "author", core.Creator)
		setIfPresent(props, "created", core.Created)
		setIfPresent(props, "modified", core.Modified)
		return props, nil
	}

	// No property part in the archive: nothing to report, not an error.
	return props, nil
}

func (r *Reader) readImage(doc *models.Document) (map[string]string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(doc.Content))
	if err != nil {
		return nil, models.WrapError(models.ErrMetadataUnavailable, "cannot decode image header", err)
	}

	return map[string]string{
		"format": format,
		"width":  strconv.Itoa(cfg.Width),
		"height": strconv.Itoa(cfg.Height),
		"size":   strconv.FormatInt(doc.Size(), 10),
	}, nil
}

func setIfPresent(props map[string]string, key, value string) {
	if value != "" {
		props[key] = value
	}
}
