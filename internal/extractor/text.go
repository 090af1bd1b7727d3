package extractor

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

// TextExtractor handles the plain-text family (txt, csv, markdown, html).
// HTML payloads get a tag-stripping pass first.
type TextExtractor struct {
	logger logger.Logger
}

func NewTextExtractor(log logger.Logger) *TextExtractor {
	return &TextExtractor{logger: log}
}

func (t *TextExtractor) CanExtract(format models.Format) bool {
	return format == models.FormatText
}

func (t *TextExtractor) Extract(ctx context.Context, doc *models.Document) (*Result, error) {
	if !utf8.Valid(doc.Content) {
		return nil, models.NewError(models.ErrCorruptDocument, "text payload is not valid utf-8")
	}

	text := string(doc.Content)
	result := &Result{}

	if strings.Contains(doc.MimeType, "html") || looksLikeHTML(text) {
		text = stripHTML(text)
	}

	result.Text = normalizeText(text)
	result.Pages = []PageResult{{Number: 1, Text: result.Text}}
	return result, nil
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(s)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// stripHTML removes tags plus script/style contents, keeping text nodes
// separated by newlines.
func stripHTML(s string) string {
	var sb strings.Builder
	inTag := false
	skipUntil := "" // closing tag whose contents are dropped

	lower := strings.ToLower(s)
	for i := 0; i < len(s); i++ {
		if skipUntil != "" {
			end := strings.Index(lower[i:], skipUntil)
			if end < 0 {
				break
			}
			i += end + len(skipUntil) - 1
			skipUntil = ""
			continue
		}

		switch {
		case s[i] == '<':
			inTag = true
			rest := lower[i:]
			if strings.HasPrefix(rest, "<script") {
				skipUntil = "</script>"
				inTag = false
			} else if strings.HasPrefix(rest, "<style") {
				skipUntil = "</style>"
				inTag = false
			}
		case s[i] == '>':
			if inTag {
				inTag = false
				sb.WriteByte('\n')
			}
		case !inTag:
			sb.WriteByte(s[i])
		}
	}

	return sb.String()
}

// normalizeText collapses runs of blank lines and trims trailing space.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
