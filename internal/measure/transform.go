package measure

import "math"

// Transform maps between screen space (frame pixels) and image space
// (natural image pixels). The image is centred in the frame at
// DisplayScale and then shifted by the pan offset.
type Transform struct {
	BaseScale  float64 `json:"base_scale"`
	ZoomFactor float64 `json:"zoom_factor"`
	PanX       float64 `json:"pan_x"`
	PanY       float64 `json:"pan_y"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewTransform returns an identity transform.
func NewTransform() Transform {
	return Transform{BaseScale: 1, ZoomFactor: 1}
}

// FitToFrame picks the largest base scale at which the whole image fits the
// frame with its aspect ratio preserved, and resets zoom and pan.
func (t *Transform) FitToFrame(image, frame Size) {
	t.BaseScale = math.Min(frame.Width/image.Width, frame.Height/image.Height)
	t.ZoomFactor = 1
	t.PanX, t.PanY = 0, 0
}

// DisplayScale is BaseScale*ZoomFactor.
func (t Transform) DisplayScale() float64 {
	return t.BaseScale * t.ZoomFactor
}

// Zoom multiplies the zoom factor. There is no clamping; a multiplier that
// is not a finite positive number is ignored.
func (t *Transform) Zoom(multiplier float64) {
	if !(multiplier > 0) || math.IsInf(multiplier, 0) {
		return
	}
	t.ZoomFactor *= multiplier
}

// Pan shifts the pan offset by (dx, dy) screen pixels.
func (t *Transform) Pan(dx, dy float64) {
	t.PanX += dx
	t.PanY += dy
}

// Offset returns the screen position of the image's top-left corner.
func (t Transform) Offset(image, frame Size) (x, y float64) {
	s := t.DisplayScale()
	x = (frame.Width-image.Width*s)/2 + t.PanX
	y = (frame.Height-image.Height*s)/2 + t.PanY
	return x, y
}

// ScreenToImage converts a screen point to image space. The result is
// undefined when DisplayScale is zero.
func (t Transform) ScreenToImage(sx, sy float64, image, frame Size) (x, y float64) {
	ox, oy := t.Offset(image, frame)
	s := t.DisplayScale()
	return (sx - ox) / s, (sy - oy) / s
}

// ImageToScreen converts an image-space point to screen space.
func (t Transform) ImageToScreen(x, y float64, image, frame Size) (sx, sy float64) {
	ox, oy := t.Offset(image, frame)
	s := t.DisplayScale()
	return x*s + ox, y*s + oy
}

// ImageToScreenRect projects an image-space rectangle onto the screen.
func (t Transform) ImageToScreenRect(r Rect, image, frame Size) Rect {
	sx, sy := t.ImageToScreen(r.X, r.Y, image, frame)
	s := t.DisplayScale()
	return Rect{X: sx, Y: sy, Width: r.Width * s, Height: r.Height * s}
}

// DisplayedBounds is the screen rectangle the whole image occupies.
func (t Transform) DisplayedBounds(image, frame Size) Rect {
	return t.ImageToScreenRect(Rect{Width: image.Width, Height: image.Height}, image, frame)
}
