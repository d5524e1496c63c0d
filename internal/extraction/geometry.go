package extraction

import (
	"fmt"
	"math"

	"github.com/ledongthuc/pdf"
)

// Scale is the extent of normalized box coordinates.
const Scale = 1000

// Rect is a rectangle in page points with the origin at the top-left corner.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Size is a page size in points.
type Size struct {
	Width, Height float64
}

// IsEmptyBox reports whether box marks a field that was not found:
// no coordinates at all, or all four equal to zero.
func IsEmptyBox(box []int) bool {
	if len(box) != 4 {
		return true
	}
	return box[0] == 0 && box[1] == 0 && box[2] == 0 && box[3] == 0
}

// Rescale maps a [y_min, x_min, y_max, x_max] box on the 0-1000 grid to page points.
func Rescale(box []int, page Size) Rect {
	return Rect{
		X0: float64(box[1]) / Scale * page.Width,
		Y0: float64(box[0]) / Scale * page.Height,
		X1: float64(box[3]) / Scale * page.Width,
		Y1: float64(box[2]) / Scale * page.Height,
	}
}

// PageSizes returns the visible size of every page of the PDF at path: the
// CropBox, or the MediaBox when there is none, turned by the page's /Rotate.
// Stamp offsets are measured from the lower-left corner of that box.
func PageSizes(path string) ([]Size, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sizes := make([]Size, r.NumPage())
	for n := 1; n <= r.NumPage(); n++ {
		size, err := visibleSize(r.Page(n).V)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", n, err)
		}
		sizes[n-1] = size
	}
	return sizes, nil
}

func visibleSize(page pdf.Value) (Size, error) {
	box := inherited(page, "CropBox")
	if box.IsNull() {
		box = inherited(page, "MediaBox")
	}
	if box.IsNull() {
		return Size{}, fmt.Errorf("no MediaBox")
	}
	if box.Len() != 4 {
		return Size{}, fmt.Errorf("malformed page box %v", box)
	}
	llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
	urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
	size := Size{Width: math.Abs(urx - llx), Height: math.Abs(ury - lly)}
	if quarterTurned(inherited(page, "Rotate").Int64()) {
		size.Width, size.Height = size.Height, size.Width
	}
	return size, nil
}

// inherited looks key up on the page, then on its ancestors in the page tree.
func inherited(page pdf.Value, key string) pdf.Value {
	for v := page; !v.IsNull(); v = v.Key("Parent") {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
	}
	return pdf.Value{}
}

// quarterTurned reports whether a /Rotate value of deg degrees swaps page width and height.
func quarterTurned(deg int64) bool {
	deg = (deg%360 + 360) % 360
	return deg == 90 || deg == 270
}
