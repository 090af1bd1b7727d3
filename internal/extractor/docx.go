package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// DOCXExtractor reads word/document.xml from the OOXML zip container.
// Table markup is explicit in the format, so cell grids come out as native
// layout for the table detector.
type DOCXExtractor struct {
	logger logger.Logger
}

func NewDOCXExtractor(log logger.Logger) *DOCXExtractor {
	return &DOCXExtractor{logger: log}
}

func (d *DOCXExtractor) CanExtract(format models.Format) bool {
	return format == models.FormatDOCX
}

// OOXML structures
type docxDocument struct {
	Body docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []string `xml:"t"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

func (d *DOCXExtractor) Extract(ctx context.Context, doc *models.Document) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(doc.Content), doc.Size())
	if err != nil {
		return nil, models.WrapError(models.ErrCorruptDocument, "cannot open docx container", err)
	}

	var docFile *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, models.NewError(models.ErrCorruptDocument, "word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, models.WrapError(models.ErrCorruptDocument, "cannot open document.xml", err)
	}
	defer rc.Close()

	xmlContent, err := io.ReadAll(rc)
	if err != nil {
		return nil, models.WrapError(models.ErrCorruptDocument, "cannot read document.xml", err)
	}

	var parsed docxDocument
	if err := xml.Unmarshal(xmlContent, &parsed); err != nil {
		return nil, models.WrapError(models.ErrCorruptDocument, "malformed document.xml", err)
	}

	var paragraphs []string
	for _, p := range parsed.Body.Paragraphs {
		text := paragraphText(p)
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	result := &Result{
		Text: strings.Join(paragraphs, "\n\n"),
	}

	for _, tbl := range parsed.Body.Tables {
		grid := make([][]string, 0, len(tbl.Rows))
		for _, row := range tbl.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				var parts []string
				for _, p := range cell.Paragraphs {
					if t := paragraphText(p); t != "" {
						parts = append(parts, t)
					}
				}
				cells = append(cells, strings.Join(parts, "\n"))
			}
			grid = append(grid, cells)
		}
		if len(grid) > 0 {
			result.TableCells = append(result.TableCells, grid)
		}
	}

	return result, nil
}

func paragraphText(p docxParagraph) string {
	var sb strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			sb.WriteString(t)
		}
	}
	return strings.TrimSpace(sb.String())
}
