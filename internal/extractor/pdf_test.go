package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textforge/document-extractor/internal/models"
	"github.com/textforge/document-extractor/pkg/logger"
)

type pdfPage struct {
	text string
	// broken pages are counted in /Count but their kid reference points
	// at an object the xref table does not contain
	broken bool
}

// buildPDF assembles a minimal uncompressed PDF with one content stream per
// page and a byte-accurate xref table.
func buildPDF(t *testing.T, pages []pdfPage) []byte {
	t.Helper()

	var buf bytes.Buffer
	offsets := map[int]int{}
	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")

	var kids []string
	next := 4
	type pageObjs struct {
		pageNum, contentNum int
		text                string
	}
	var emitted []pageObjs
	for _, p := range pages {
		if p.broken {
			kids = append(kids, "99 0 R")
			continue
		}
		kids = append(kids, fmt.Sprintf("%d 0 R", next))
		emitted = append(emitted, pageObjs{next, next + 1, p.text})
		next += 2
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(pages)))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for _, e := range emitted {
		writeObj(e.pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			e.contentNum))
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", e.text)
		offsets[e.contentNum] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			e.contentNum, len(content), content)
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", next)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i < next; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		next, xrefPos)

	return buf.Bytes()
}

func TestPDFExtractMultiPage(t *testing.T) {
	e := NewPDFExtractor(logger.NewTestLogger(), 2)

	doc := &models.Document{
		Filename: "report.pdf",
		Content: buildPDF(t, []pdfPage{
			{text: "alpha section"},
			{text: "beta section"},
			{text: "gamma section"},
		}),
		Format: models.FormatPDF,
	}

	result, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	// page slots are index-addressed, so text order follows page order
	// regardless of which worker finished first
	require.Len(t, result.Pages, 3)
	for i, want := range []string{"alpha section", "beta section", "gamma section"} {
		assert.Equal(t, i+1, result.Pages[i].Number)
		assert.Contains(t, result.Pages[i].Text, want)
	}
	assert.Less(t,
		strings.Index(result.Text, "alpha section"),
		strings.Index(result.Text, "beta section"))
	assert.Less(t,
		strings.Index(result.Text, "beta section"),
		strings.Index(result.Text, "gamma section"))
}

func TestPDFExtractMalformedPageLeavesOthersIntact(t *testing.T) {
	e := NewPDFExtractor(logger.NewTestLogger(), 2)

	doc := &models.Document{
		Filename: "partly-damaged.pdf",
		Content: buildPDF(t, []pdfPage{
			{text: "surviving content"},
			{broken: true},
		}),
		Format: models.FormatPDF,
	}

	result, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)

	// the bad page degrades to a warning in its own slot
	require.Len(t, result.Pages, 2)
	assert.Contains(t, result.Pages[0].Text, "surviving content")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "page 2")

	assert.Contains(t, result.Text, "surviving content")
}

func TestPDFExtractCorruptContainer(t *testing.T) {
	e := NewPDFExtractor(logger.NewTestLogger(), 2)

	doc := &models.Document{
		Filename: "broken.pdf",
		Content:  []byte("%PDF-1.4\nno xref to be found here"),
		Format:   models.FormatPDF,
	}

	_, err := e.Extract(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.ErrCorruptDocument))
}
