package extraction

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"docqa/internal/domain"
	"docqa/internal/logger"
)

const (
	lineWidth     = 2.0
	labelSize     = 6
	labelGap      = 2.0
	pixelsPerUnit = 4
)

var red = color.RGBA{R: 255, A: 255}

// Mark is one labelled box to draw.
type Mark struct {
	Label string
	Box   []int
	Page  int
}

// Marks lists the boxes of inv in drawing order.
func Marks(inv *Invoice) []Mark {
	return []Mark{
		{Label: "TOTAL", Box: inv.Total.BoundingBox, Page: inv.Total.Page},
		{Label: "RECIPIENT", Box: inv.Recipient.BoundingBox, Page: inv.Recipient.Page},
	}
}

// AnnotatedPath returns the output path for an annotated copy of path.
func AnnotatedPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_annotated.pdf"
}

// Annotate draws every non-empty mark as a red rectangle with its label above
// it and writes the result to AnnotatedPath(in). It returns the output path and
// the number of marks drawn.
func Annotate(in string, marks []Mark) (string, int, error) {
	out := AnnotatedPath(in)
	sizes, err := PageSizes(in)
	if err != nil {
		return "", 0, fmt.Errorf("reading page sizes of %s: %w", in, err)
	}

	stamps := make(map[int][]*model.Watermark)
	drawn := 0
	for _, m := range marks {
		if IsEmptyBox(m.Box) {
			logger.Debug("%s not found, skipping", m.Label)
			continue
		}
		if m.Page < 1 || m.Page > len(sizes) {
			return "", 0, fmt.Errorf("%w: %s is on page %d of %d", domain.ErrPageOutOfRange, m.Label, m.Page, len(sizes))
		}
		size := sizes[m.Page-1]
		rect := Rescale(m.Box, size)
		frame, err := frameStamp(rect, size)
		if err != nil {
			return "", 0, fmt.Errorf("drawing %s: %w", m.Label, err)
		}
		label, err := labelStamp(m.Label, rect, size)
		if err != nil {
			return "", 0, fmt.Errorf("labelling %s: %w", m.Label, err)
		}
		stamps[m.Page] = append(stamps[m.Page], frame, label)
		drawn++
		logger.Debug("%s on page %d at %.1f,%.1f-%.1f,%.1f", m.Label, m.Page, rect.X0, rect.Y0, rect.X1, rect.Y1)
	}

	if drawn == 0 {
		return out, 0, copyFile(in, out)
	}
	if err := api.AddWatermarksSliceMapFile(in, out, stamps, nil); err != nil {
		return "", 0, fmt.Errorf("writing %s: %w", out, err)
	}
	return out, drawn, nil
}

// frameStamp renders the rectangle outline as a transparent PNG placed over rect.
// The stroke is centred on the rectangle edge.
func frameStamp(rect Rect, page Size) (*model.Watermark, error) {
	w := rect.X1 - rect.X0 + lineWidth
	h := rect.Y1 - rect.Y0 + lineWidth
	var buf bytes.Buffer
	if err := png.Encode(&buf, outline(w, h)); err != nil {
		return nil, err
	}
	x, y := frameOffset(rect, page)
	desc := fmt.Sprintf("scalefactor:%g abs, position:bl, offset:%.2f %.2f, rotation:0, opacity:1",
		1.0/pixelsPerUnit, x, y)
	return api.ImageWatermarkForReader(&buf, desc, true, false, types.POINTS)
}

func labelStamp(text string, rect Rect, page Size) (*model.Watermark, error) {
	x, y := labelOffset(rect, page)
	desc := fmt.Sprintf("fontname:Helvetica, points:%d, fillcolor:#FF0000, scalefactor:1 abs, position:bl, offset:%.2f %.2f, rotation:0, opacity:1",
		labelSize, x, y)
	return api.TextWatermark(text, desc, true, false, types.POINTS)
}

// frameOffset is the bottom-left corner of the frame image, measured up from
// the bottom-left corner of the visible page box.
func frameOffset(rect Rect, page Size) (x, y float64) {
	half := lineWidth / 2
	return rect.X0 - half, page.Height - rect.Y1 - half
}

// labelOffset places the label baseline labelGap points above the top edge of rect.
func labelOffset(rect Rect, page Size) (x, y float64) {
	return rect.X0, page.Height - rect.Y0 + labelGap
}

// outline returns a w by h point image with a lineWidth red border.
func outline(w, h float64) image.Image {
	pw := max(int(math.Round(w*pixelsPerUnit)), 1)
	ph := max(int(math.Round(h*pixelsPerUnit)), 1)
	stroke := int(lineWidth * pixelsPerUnit)
	img := image.NewNRGBA(image.Rect(0, 0, pw, ph))
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if x < stroke || y < stroke || x >= pw-stroke || y >= ph-stroke {
				img.Set(x, y, red)
			}
		}
	}
	return img
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
