package measure

import "math"

// Rect is an axis-aligned rectangle in image-space pixels. X,Y is the top-left
// corner; Width and Height are never negative.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromDrag normalises a drag between two corners given in any direction.
func RectFromDrag(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X:      math.Min(x0, x1),
		Y:      math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// PixelArea returns Width*Height.
func (r Rect) PixelArea() float64 {
	return r.Width * r.Height
}

// Finite reports whether every field and the pixel area are finite numbers.
func (r Rect) Finite() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height, r.PixelArea()} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}
