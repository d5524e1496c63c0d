package extraction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/pdftest"
)

func TestAnnotatedPath(t *testing.T) {
	assert.Equal(t, filepath.Join("documents", "invoice_annotated.pdf"), AnnotatedPath(filepath.Join("documents", "invoice.pdf")))
}

func TestMarks(t *testing.T) {
	inv := &Invoice{
		Total:     TotalField{BoxField: BoxField{BoundingBox: []int{1, 2, 3, 4}, Page: 2}},
		Recipient: RecipientField{BoxField: BoxField{BoundingBox: []int{0, 0, 0, 0}, Page: 1}},
	}

	marks := Marks(inv)

	require.Len(t, marks, 2)
	assert.Equal(t, Mark{Label: "TOTAL", Box: []int{1, 2, 3, 4}, Page: 2}, marks[0])
	assert.Equal(t, "RECIPIENT", marks[1].Label)
}

func TestAnnotate_DrawsNonEmptyBoxes(t *testing.T) {
	in := pdftest.Write(t, "invoice_multipage.pdf",
		pdftest.Page{Text: "Bill to: Mad Hatter"},
		pdftest.Page{Text: "Total: 1234.50", Width: 300, Height: 400},
	)
	marks := []Mark{
		{Label: "TOTAL", Box: []int{850, 600, 880, 900}, Page: 2},
		{Label: "RECIPIENT", Box: []int{0, 0, 0, 0}, Page: 1},
	}

	out, drawn, err := Annotate(in, marks)
	require.NoError(t, err)

	assert.Equal(t, 1, drawn)
	assert.Equal(t, AnnotatedPath(in), out)
	n, err := api.PageCountFile(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	before, err := os.Stat(in)
	require.NoError(t, err)
	after, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, after.Size(), before.Size())

	// The 300x400 page puts the TOTAL box at 180,340-270,352 from the top-left.
	assert.Contains(t, pageContent(t, out, 2), "179.00000 47.00000 cm")
	assert.NotContains(t, pageContent(t, out, 1), " cm ")
}

func TestAnnotate_CropBoxOrigin(t *testing.T) {
	in := pdftest.Write(t, "invoice_cropped.pdf",
		pdftest.Page{Text: "Total: 1234.50", CropBox: [4]float64{50, 50, 350, 450}},
	)

	_, drawn, err := Annotate(in, []Mark{{Label: "TOTAL", Box: []int{850, 600, 880, 900}, Page: 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, drawn)
	assert.Contains(t, pageContent(t, AnnotatedPath(in), 1), "229.00000 97.00000 cm")
}

func TestStampOffsets(t *testing.T) {
	page := Size{Width: 300, Height: 400}
	rect := Rescale([]int{850, 600, 880, 900}, page)

	x, y := frameOffset(rect, page)
	assert.InDelta(t, 179, x, 1e-9)
	assert.InDelta(t, 47, y, 1e-9)

	x, y = labelOffset(rect, page)
	assert.InDelta(t, 180, x, 1e-9)
	assert.InDelta(t, 62, y, 1e-9)
}

func pageContent(t *testing.T, path string, page int) string {
	t.Helper()
	ctx, err := api.ReadContextFile(path)
	require.NoError(t, err)
	d, _, _, err := ctx.PageDict(page, false)
	require.NoError(t, err)
	content, err := ctx.PageContent(d)
	require.NoError(t, err)
	return string(content)
}

func TestAnnotate_NothingToDrawCopiesInput(t *testing.T) {
	in := pdftest.Write(t, "invoice.pdf", pdftest.Page{Text: "Nothing here"})

	out, drawn, err := Annotate(in, []Mark{{Label: "TOTAL", Box: []int{0, 0, 0, 0}, Page: 1}})
	require.NoError(t, err)

	assert.Zero(t, drawn)
	want, err := os.ReadFile(in)
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAnnotate_PageOutOfRange(t *testing.T) {
	in := pdftest.Write(t, "invoice.pdf", pdftest.Page{Text: "Single page"})

	_, _, err := Annotate(in, []Mark{{Label: "TOTAL", Box: []int{1, 1, 2, 2}, Page: 2}})

	assert.ErrorIs(t, err, domain.ErrPageOutOfRange)
	assert.NoFileExists(t, AnnotatedPath(in))
}
