package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

func TestTextExtractPlain(t *testing.T) {
	e := NewTextExtractor(logger.NewTestLogger())

	doc := &models.Document{
		Filename: "notes.txt",
		Content:  []byte("first line\r\n\r\n\r\n\r\nsecond line   \n"),
		MimeType: "text/plain",
		Format:   models.FormatText,
	}

	result, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "first line\n\nsecond line", result.Text)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, 1, result.Pages[0].Number)
}

func TestTextExtractHTML(t *testing.T) {
	e := NewTextExtractor(logger.NewTestLogger())

	html := `<!DOCTYPE html>
<html><head><title>Page</title>
<style>body { color: red; }</style>
<script>console.log("noise");</script>
</head>
<body><h1>Heading</h1><p>Body text here.</p></body></html>`

	doc := &models.Document{
		Filename: "page.html",
		Content:  []byte(html),
		MimeType: "text/html",
		Format:   models.FormatText,
	}

	result, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "Heading")
	assert.Contains(t, result.Text, "Body text here.")
	assert.NotContains(t, result.Text, "color: red")
	assert.NotContains(t, result.Text, "console.log")
	assert.NotContains(t, result.Text, "<p>")
}

func TestTextExtractHTMLSniffedWithoutMime(t *testing.T) {
	e := NewTextExtractor(logger.NewTestLogger())

	doc := &models.Document{
		Filename: "saved",
		Content:  []byte("<html><body>sniffed markup</body></html>"),
		MimeType: "text/plain",
		Format:   models.FormatText,
	}

	result, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "sniffed markup", result.Text)
}

func TestTextExtractInvalidUTF8(t *testing.T) {
	e := NewTextExtractor(logger.NewTestLogger())

	doc := &models.Document{
		Filename: "garbage.txt",
		Content:  []byte{0xff, 0xfe, 0xfd},
		MimeType: "text/plain",
		Format:   models.FormatText,
	}

	_, err := e.Extract(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrCorruptDocument))
}

func TestResultSubstantive(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		minLen int
		want   bool
	}{
		{"empty", "", 25, false},
		{"whitespace only", " \n\t  \n ", 25, false},
		{"short", "Page 3", 25, false},
		{"long enough", "This sentence comfortably passes the threshold.", 25, true},
		{"padding does not count", "a   \n\n   b", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Result{Text: tt.text}
			assert.Equal(t, tt.want, r.Substantive(tt.minLen))
		})
	}

	var nilResult *Result
	assert.False(t, nilResult.Substantive(1))
}
