package measure

import (
	"fmt"
	"math"
)

// Calibration is a rectangle of known real-world area, in mm².
type Calibration struct {
	Rect
	RealArea float64 `json:"real_area"`
}

// CalibrationState owns the single calibration and the factor derived from
// it. Every successful change recomputes the attached measurement set.
type CalibrationState struct {
	cal          *Calibration
	factor       float64
	measurements *MeasurementSet
}

// NewCalibrationState attaches a calibration state to set. The set reads its
// conversion factor from the returned state.
func NewCalibrationState(set *MeasurementSet) *CalibrationState {
	c := &CalibrationState{factor: 1, measurements: set}
	if set != nil {
		set.source = c
	}
	return c
}

// validArea reports whether a is a finite positive number.
func validArea(a float64) bool {
	return a > 0 && !math.IsInf(a, 0) && !math.IsNaN(a)
}

// Set replaces the calibration with rect and realArea.
func (c *CalibrationState) Set(rect Rect, realArea float64) error {
	if !validArea(realArea) {
		return fmt.Errorf("%w: %v", ErrInvalidArea, realArea)
	}
	if !rect.Finite() || !(rect.PixelArea() > 0) {
		return fmt.Errorf("%w: calibration rectangle %+v has no finite area", ErrInvalidArea, rect)
	}
	if !validArea(realArea / rect.PixelArea()) {
		return fmt.Errorf("%w: %v mm² over %v px gives no usable factor", ErrInvalidArea, realArea, rect.PixelArea())
	}
	c.cal = &Calibration{Rect: rect, RealArea: realArea}
	c.recompute()
	return nil
}

// EditRealArea changes the real area of the existing calibration in place.
func (c *CalibrationState) EditRealArea(realArea float64) error {
	if c.cal == nil {
		return ErrNoCalibration
	}
	if !validArea(realArea) || !validArea(realArea/c.cal.PixelArea()) {
		return fmt.Errorf("%w: %v", ErrInvalidArea, realArea)
	}
	c.cal.RealArea = realArea
	c.recompute()
	return nil
}

// Reset removes the calibration and every measurement.
func (c *CalibrationState) Reset() {
	c.cal = nil
	c.factor = 1
	if c.measurements != nil {
		c.measurements.Clear()
	}
}

func (c *CalibrationState) recompute() {
	c.factor = c.cal.RealArea / c.cal.PixelArea()
	if c.measurements != nil {
		c.measurements.RecomputeAll(c.factor)
	}
}

// Factor returns the mm² per square image pixel and whether a calibration
// exists. Without one the factor is 1.
func (c *CalibrationState) Factor() (float64, bool) {
	return c.factor, c.cal != nil
}

// Calibration returns a copy of the current calibration.
func (c *CalibrationState) Calibration() (Calibration, bool) {
	if c.cal == nil {
		return Calibration{}, false
	}
	return *c.cal, true
}
