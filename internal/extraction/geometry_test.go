package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/pdftest"
)

func TestIsEmptyBox(t *testing.T) {
	assert.True(t, IsEmptyBox([]int{0, 0, 0, 0}))
	assert.True(t, IsEmptyBox(nil))
	assert.False(t, IsEmptyBox([]int{0, 0, 0, 1}))
}

func TestRescale(t *testing.T) {
	got := Rescale([]int{100, 200, 300, 400}, Size{Width: 612, Height: 792})

	assert.InDelta(t, 122.4, got.X0, 1e-9)
	assert.InDelta(t, 79.2, got.Y0, 1e-9)
	assert.InDelta(t, 244.8, got.X1, 1e-9)
	assert.InDelta(t, 237.6, got.Y1, 1e-9)
}

func TestRescale_FullPage(t *testing.T) {
	got := Rescale([]int{0, 0, 1000, 1000}, Size{Width: 300, Height: 400})

	assert.Equal(t, Rect{X0: 0, Y0: 0, X1: 300, Y1: 400}, got)
}

func TestPageSizes_InheritedAndOwnMediaBox(t *testing.T) {
	path := pdftest.Write(t, "invoice.pdf",
		pdftest.Page{Text: "Invoice"},
		pdftest.Page{Text: "Page two", Width: 300, Height: 400},
	)

	sizes, err := PageSizes(path)
	require.NoError(t, err)

	require.Len(t, sizes, 2)
	assert.Equal(t, Size{Width: 612, Height: 792}, sizes[0])
	assert.Equal(t, Size{Width: 300, Height: 400}, sizes[1])
}

func TestPageSizes_CropBoxAndRotate(t *testing.T) {
	path := pdftest.Write(t, "invoice.pdf",
		pdftest.Page{Text: "Cropped", CropBox: [4]float64{50, 50, 350, 450}},
		pdftest.Page{Text: "Landscape", Rotate: 90},
		pdftest.Page{Text: "Upside down", Width: 300, Height: 400, Rotate: -180},
		pdftest.Page{Text: "Turned back", Rotate: -90},
	)

	sizes, err := PageSizes(path)
	require.NoError(t, err)

	require.Len(t, sizes, 4)
	assert.Equal(t, Size{Width: 300, Height: 400}, sizes[0])
	assert.Equal(t, Size{Width: 792, Height: 612}, sizes[1])
	assert.Equal(t, Size{Width: 300, Height: 400}, sizes[2])
	assert.Equal(t, Size{Width: 792, Height: 612}, sizes[3])
}

func TestQuarterTurned(t *testing.T) {
	for deg, want := range map[int64]bool{0: false, 90: true, 180: false, 270: true, -90: true, 450: true, 360: false} {
		assert.Equal(t, want, quarterTurned(deg), "rotate %d", deg)
	}
}
