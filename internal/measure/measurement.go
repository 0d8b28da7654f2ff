package measure

import (
	"fmt"
	"math"
	"math/rand"
)

// DefaultPalette holds the measurement colors (blue, green and violet shades).
var DefaultPalette = []string{"#1E90FF", "#00BFFF", "#3CB371", "#2E8B57", "#8A2BE2", "#9370DB"}

// Measurement is a rectangle with its derived real area in mm².
type Measurement struct {
	Rect
	RealArea float64 `json:"real_area"`
	Color    string  `json:"color"`
}

// factorSource supplies the current calibration factor.
type factorSource interface {
	Factor() (float64, bool)
}

// MeasurementSet is an ordered list of measurements. Indices are positions,
// not identifiers: removing an entry shifts everything after it down by one.
type MeasurementSet struct {
	items   []Measurement
	palette []string
	rng     *rand.Rand
	source  factorSource
}

// NewMeasurementSet returns an empty set drawing colors from palette with
// rng. A nil or empty palette selects DefaultPalette; a nil rng is seeded
// with 1.
func NewMeasurementSet(palette []string, rng *rand.Rand) *MeasurementSet {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	p := make([]string, len(palette))
	copy(p, palette)
	return &MeasurementSet{palette: p, rng: rng}
}

// Add appends a measurement for rect. It fails with ErrNoCalibration when
// no calibration exists and with ErrInvalidArea when the rectangle or its
// real area is not finite.
func (s *MeasurementSet) Add(rect Rect) (Measurement, error) {
	if s.source == nil {
		return Measurement{}, ErrNoCalibration
	}
	factor, ok := s.source.Factor()
	if !ok {
		return Measurement{}, ErrNoCalibration
	}
	area := rect.PixelArea() * factor
	if !rect.Finite() || math.IsInf(area, 0) || math.IsNaN(area) {
		return Measurement{}, fmt.Errorf("%w: measurement rectangle %+v", ErrInvalidArea, rect)
	}
	m := Measurement{
		Rect:     rect,
		RealArea: area,
		Color:    s.palette[s.rng.Intn(len(s.palette))],
	}
	s.items = append(s.items, m)
	return m, nil
}

// RemoveAt deletes the measurement at index.
func (s *MeasurementSet) RemoveAt(index int) error {
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.items))
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return nil
}

// RecomputeAll sets every RealArea to pixel area times factor.
func (s *MeasurementSet) RecomputeAll(factor float64) {
	for i := range s.items {
		s.items[i].RealArea = s.items[i].PixelArea() * factor
	}
}

// Clear removes all measurements.
func (s *MeasurementSet) Clear() {
	s.items = nil
}

// Len returns the number of measurements.
func (s *MeasurementSet) Len() int {
	return len(s.items)
}

// All returns a copy of the measurements in display order.
func (s *MeasurementSet) All() []Measurement {
	out := make([]Measurement, len(s.items))
	copy(out, s.items)
	return out
}
