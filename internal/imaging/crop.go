package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/area-measure-mcp/internal/measure"
)

// PixelBounds converts an image-space rectangle to the integer pixel
// rectangle that covers it, clipped to bounds.
func PixelBounds(r measure.Rect, bounds image.Rectangle) image.Rectangle {
	px := image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	)
	return px.Add(bounds.Min).Intersect(bounds)
}

// CropRect extracts the part of img under r and resizes it by scale.
// A scale <= 0 is treated as 1.
func CropRect(img image.Image, r measure.Rect, scale float64) (*image.NRGBA, error) {
	px := PixelBounds(r, img.Bounds())
	if px.Empty() {
		return nil, fmt.Errorf("crop region %+v outside image bounds %v", r, img.Bounds())
	}

	cropped := imaging.Crop(img, px)

	if scale > 0 && scale != 1.0 {
		w := int(math.Round(float64(cropped.Bounds().Dx()) * scale))
		h := int(math.Round(float64(cropped.Bounds().Dy()) * scale))
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}
	return cropped, nil
}
