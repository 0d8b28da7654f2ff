package imaging

import (
	"fmt"
	"image"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Overlay colors: calibration rectangles, the live preview and
// uncalibrated measurements, label text and the empty frame background.
var (
	CalibrationColor = color.NRGBA{R: 0xFF, A: 0xFF}
	PreviewColor     = color.NRGBA{B: 0xFF, A: 0xFF}
	LabelTextColor   = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	BackgroundColor  = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}
)

// FillAlpha is the opacity of rectangle fills.
const FillAlpha = 0.3

// ParseHexColor parses "#RRGGBB" or "#RGB" into an opaque color.
func ParseHexColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}, nil
}

// blendRect mixes c into every pixel of r with weight alpha, the way a
// translucent canvas fill composites over an opaque background.
func blendRect(dst *image.RGBA, r image.Rectangle, c color.Color, alpha float64) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	over, ok := colorful.MakeColor(c)
	if !ok {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			under, ok := colorful.MakeColor(dst.RGBAAt(x, y))
			if !ok {
				under = colorful.Color{}
			}
			cr, cg, cb := under.BlendRgb(over, alpha).Clamped().RGB255()
			dst.SetRGBA(x, y, color.RGBA{R: cr, G: cg, B: cb, A: 0xFF})
		}
	}
}
