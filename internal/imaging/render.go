package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/area-measure-mcp/internal/measure"
)

const (
	strokeWidth  = 2
	labelOffset  = 5
	labelPadding = 2

	// Past this many frame areas a resampled crop is replaced by direct
	// nearest-pixel sampling into the frame.
	maxResampleFactor = 4
)

// PlaceholderColor fills the image area when a session has dimensions but
// no pixels.
var PlaceholderColor = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}

// ErrEmptyFrame is returned when the snapshot has no frame to draw into.
var ErrEmptyFrame = errors.New("frame has zero size")

// Render draws img and every overlay in snap into a frame-sized canvas.
//
// Only the visible part of the image is resampled, so the cost is bounded
// by the frame size regardless of zoom. img may be nil, in which case the
// displayed image area is filled with PlaceholderColor.
func Render(img image.Image, snap measure.Snapshot) (*image.RGBA, error) {
	fw := int(math.Round(snap.Frame.Width))
	fh := int(math.Round(snap.Frame.Height))
	if fw <= 0 || fh <= 0 {
		return nil, ErrEmptyFrame
	}

	dst := image.NewRGBA(image.Rect(0, 0, fw, fh))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(BackgroundColor), image.Point{}, draw.Src)

	if !snap.Loaded {
		return dst, nil
	}

	if img != nil {
		drawVisible(dst, img, snap)
	} else {
		bounds := toPixels(snap.Transform.DisplayedBounds(snap.Image, snap.Frame))
		draw.Draw(dst, bounds, image.NewUniform(PlaceholderColor), image.Point{}, draw.Src)
	}

	if c := snap.Calibration; c != nil {
		drawOverlay(dst, c.Screen, CalibrationColor, c.Label)
	}
	for _, m := range snap.Measurements {
		c, err := ParseHexColor(m.Color)
		if err != nil {
			c = PreviewColor
		}
		drawOverlay(dst, m.Screen, c, m.Label)
	}
	if p := snap.Pending; p != nil {
		screen := snap.Transform.ImageToScreenRect(*p, snap.Image, snap.Frame)
		drawOverlay(dst, screen, CalibrationColor, "")
	}
	if p := snap.Preview; p != nil {
		c := PreviewColor
		if snap.State == measure.DraggingCalibration {
			c = CalibrationColor
		}
		screen := snap.Transform.ImageToScreenRect(*p, snap.Image, snap.Frame)
		drawOverlay(dst, screen, c, "")
	}
	return dst, nil
}

// drawVisible crops the part of img under the frame, scales it to the
// display scale and places it at its screen offset.
func drawVisible(dst *image.RGBA, img image.Image, snap measure.Snapshot) {
	scale := snap.Transform.DisplayScale()
	if scale <= 0 {
		return
	}

	x0, y0 := snap.Transform.ScreenToImage(0, 0, snap.Image, snap.Frame)
	x1, y1 := snap.Transform.ScreenToImage(snap.Frame.Width, snap.Frame.Height, snap.Image, snap.Frame)
	visible := PixelBounds(measure.RectFromDrag(x0, y0, x1, y1), img.Bounds())
	if visible.Empty() {
		return
	}

	fw := math.Round(float64(visible.Dx()) * scale)
	fh := math.Round(float64(visible.Dy()) * scale)
	if fw < 1 || fh < 1 {
		return
	}
	if fw*fh > maxResampleFactor*float64(dst.Bounds().Dx()*dst.Bounds().Dy()) {
		sampleVisible(dst, img, snap)
		return
	}
	w, h := int(fw), int(fh)

	scaled := imaging.Resize(imaging.Crop(img, visible), w, h, imaging.Linear)

	origin := visible.Min.Sub(img.Bounds().Min)
	sx, sy := snap.Transform.ImageToScreen(float64(origin.X), float64(origin.Y), snap.Image, snap.Frame)
	at := image.Pt(int(math.Round(sx)), int(math.Round(sy)))
	draw.Draw(dst, scaled.Bounds().Add(at), scaled, scaled.Bounds().Min, draw.Over)
}

// sampleVisible fills each frame pixel from the image pixel under it.
func sampleVisible(dst *image.RGBA, img image.Image, snap measure.Snapshot) {
	b := img.Bounds()
	for y := 0; y < dst.Bounds().Dy(); y++ {
		for x := 0; x < dst.Bounds().Dx(); x++ {
			ix, iy := snap.Transform.ScreenToImage(float64(x)+0.5, float64(y)+0.5, snap.Image, snap.Frame)
			p := image.Pt(b.Min.X+int(math.Floor(ix)), b.Min.Y+int(math.Floor(iy)))
			if !p.In(b) {
				continue
			}
			dst.Set(x, y, img.At(p.X, p.Y))
		}
	}
}

func drawOverlay(dst *image.RGBA, r measure.Rect, c color.Color, label string) {
	px := toPixels(r)
	blendRect(dst, px, c, FillAlpha)
	strokeRect(dst, px, c, strokeWidth)
	if label != "" {
		drawLabel(dst, px.Min.X+labelOffset, px.Min.Y+labelOffset, label, c)
	}
}

func toPixels(r measure.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)), int(math.Round(r.Y+r.Height)),
	)
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color, width int) {
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// drawLabel writes text in LabelTextColor on a box filled with bg, with
// the box's top-left corner at (x, y).
func drawLabel(dst *image.RGBA, x, y int, text string, bg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(LabelTextColor),
		Face: face,
	}
	metrics := face.Metrics()
	width := d.MeasureString(text).Ceil()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	box := image.Rect(x, y, x+width+2*labelPadding, y+height+2*labelPadding)
	draw.Draw(dst, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dot = fixed.P(x+labelPadding, y+labelPadding+metrics.Ascent.Ceil())
	d.DrawString(text)
}
