package measure

import (
	"fmt"

	"github.com/ironsheep/area-measure-mcp/internal/units"
)

// CalibrationView is a calibration prepared for rendering.
type CalibrationView struct {
	Calibration
	DisplayArea float64 `json:"display_area"`
	Screen      Rect    `json:"screen"`
	Label       string  `json:"label"`
}

// MeasurementView is a measurement prepared for rendering.
type MeasurementView struct {
	Index int `json:"index"`
	Measurement
	DisplayArea float64 `json:"display_area"`
	Screen      Rect    `json:"screen"`
	Label       string  `json:"label"`
}

// Snapshot is a read-only copy of everything a renderer needs.
type Snapshot struct {
	Loaded       bool              `json:"loaded"`
	Image        Size              `json:"image"`
	Frame        Size              `json:"frame"`
	Transform    Transform         `json:"transform"`
	DisplayScale float64           `json:"display_scale"`
	Mode         Mode              `json:"mode"`
	State        State             `json:"state"`
	Cursor       string            `json:"cursor"`
	Unit         units.Unit        `json:"unit"`
	Factor       float64           `json:"calibration_factor"`
	Calibration  *CalibrationView  `json:"calibration,omitempty"`
	Measurements []MeasurementView `json:"measurements"`
	Preview      *Rect             `json:"preview,omitempty"`
	Pending      *Rect             `json:"pending_calibration,omitempty"`
}

// Snapshot captures the current session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Loaded:       s.loaded,
		Image:        s.image,
		Frame:        s.frame,
		Transform:    s.transform,
		DisplayScale: s.transform.DisplayScale(),
		Mode:         s.mode,
		State:        s.state,
		Cursor:       s.Cursor(),
		Unit:         s.unit,
		Factor:       s.Factor(),
	}
	if c, ok := s.calibration.Calibration(); ok {
		snap.Calibration = &CalibrationView{
			Calibration: c,
			DisplayArea: units.Display(c.RealArea, s.unit),
			Screen:      s.transform.ImageToScreenRect(c.Rect, s.image, s.frame),
			Label:       "Cal: " + units.Format(c.RealArea, s.unit),
		}
	}
	items := s.measurements.All()
	snap.Measurements = make([]MeasurementView, len(items))
	for i, m := range items {
		snap.Measurements[i] = MeasurementView{
			Index:       i,
			Measurement: m,
			DisplayArea: units.Display(m.RealArea, s.unit),
			Screen:      s.transform.ImageToScreenRect(m.Rect, s.image, s.frame),
			Label:       units.Format(m.RealArea, s.unit),
		}
	}
	if r, ok := s.Preview(); ok {
		snap.Preview = &r
	}
	if r, ok := s.PendingCalibration(); ok {
		snap.Pending = &r
	}
	return snap
}

// Lines returns the measurement list as shown in the side panel,
// e.g. "Measurement 1: 20 cm2".
func (snap Snapshot) Lines() []string {
	out := make([]string, len(snap.Measurements))
	for i, m := range snap.Measurements {
		out[i] = fmt.Sprintf("Measurement %d: %s", i+1, m.Label)
	}
	return out
}
