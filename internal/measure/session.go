package measure

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/ironsheep/area-measure-mcp/internal/logging"
	"github.com/ironsheep/area-measure-mcp/internal/units"
)

// Zoom steps. Wheel and buttons are deliberately different affordances.
const (
	WheelZoomStep  = 1.1
	ButtonZoomStep = 1.2
)

// MinDragSize is the smallest accepted rectangle side, in image pixels.
// The threshold does not scale with zoom.
const MinDragSize = 10.0

// Mode selects what a pointer drag does.
type Mode string

const (
	ModeNone        Mode = "none"
	ModeCalibration Mode = "calibration"
	ModeMeasurement Mode = "measurement"
	ModePan         Mode = "pan"
)

// ParseMode converts a mode name; the empty string means ModeNone.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeNone, ModeCalibration, ModeMeasurement, ModePan:
		return m, nil
	case "":
		return ModeNone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// State is the interaction state.
type State int

const (
	Idle State = iota
	DraggingCalibration
	DraggingMeasurement
	Panning
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DraggingCalibration:
		return "dragging_calibration"
	case DraggingMeasurement:
		return "dragging_measurement"
	case Panning:
		return "panning"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome reports what a pointer-up did.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeDiscarded
	OutcomeCalibrationPending
	OutcomeMeasurementAdded
	OutcomeRejected
	OutcomePanned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeCalibrationPending:
		return "calibration_pending"
	case OutcomeMeasurementAdded:
		return "measurement_added"
	case OutcomeRejected:
		return "rejected"
	case OutcomePanned:
		return "panned"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Notifier receives errors the user has to be told about, such as an
// invalid calibration value or a measurement drawn before calibrating.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

// Notify calls f(err).
func (f NotifierFunc) Notify(err error) { f(err) }

// Settings tune a Session. Zero fields take their defaults.
type Settings struct {
	WheelStep   float64
	ButtonStep  float64
	MinDragSize float64
	Palette     []string
	Rand        *rand.Rand
	Unit        units.Unit
	Notifier    Notifier
}

// DefaultSettings returns the standard settings with a fixed color seed.
func DefaultSettings() Settings {
	return Settings{
		WheelStep:   WheelZoomStep,
		ButtonStep:  ButtonZoomStep,
		MinDragSize: MinDragSize,
		Palette:     DefaultPalette,
		Unit:        units.Canonical,
	}
}

// Session is the whole measurement model for one loaded image: transform,
// calibration, measurements and the pointer state machine. It is driven by
// a single event stream and is not safe for concurrent use.
type Session struct {
	settings Settings
	notifier Notifier
	log      zerolog.Logger

	loaded    bool
	image     Size
	frame     Size
	transform Transform

	mode  Mode
	state State
	unit  units.Unit

	calibration  *CalibrationState
	measurements *MeasurementSet

	// Drag start: image space for rectangles, screen space for panning.
	startX, startY       float64
	panStartX, panStartY float64

	preview *Rect
	pending *Rect
}

// NewSession returns an idle session with no image.
func NewSession(settings Settings) *Session {
	if !(settings.WheelStep > 0) {
		settings.WheelStep = WheelZoomStep
	}
	if !(settings.ButtonStep > 0) {
		settings.ButtonStep = ButtonZoomStep
	}
	if !(settings.MinDragSize > 0) {
		settings.MinDragSize = MinDragSize
	}
	if settings.Unit == "" {
		settings.Unit = units.Canonical
	}
	set := NewMeasurementSet(settings.Palette, settings.Rand)
	s := &Session{
		settings:     settings,
		notifier:     settings.Notifier,
		log:          logging.Module("session"),
		transform:    NewTransform(),
		mode:         ModeNone,
		unit:         settings.Unit,
		measurements: set,
		calibration:  NewCalibrationState(set),
	}
	return s
}

func (s *Session) notify(err error) {
	s.log.Warn().Err(err).Msg("user notice")
	if s.notifier != nil {
		s.notifier.Notify(err)
	}
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func validDimension(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// LoadImage fits an image of the given natural size into the frame.
// Calibration and measurements are kept; Reset clears them.
func (s *Session) LoadImage(imageWidth, imageHeight, frameWidth, frameHeight float64) error {
	for _, v := range []float64{imageWidth, imageHeight, frameWidth, frameHeight} {
		if !validDimension(v) {
			return fmt.Errorf("%w: image %vx%v, frame %vx%v", ErrInvalidDimensions,
				imageWidth, imageHeight, frameWidth, frameHeight)
		}
	}
	s.image = Size{Width: imageWidth, Height: imageHeight}
	s.frame = Size{Width: frameWidth, Height: frameHeight}
	s.transform.FitToFrame(s.image, s.frame)
	s.loaded = true
	s.toIdle()
	s.pending = nil
	s.log.Info().
		Float64("image_w", imageWidth).Float64("image_h", imageHeight).
		Float64("frame_w", frameWidth).Float64("frame_h", frameHeight).
		Float64("base_scale", s.transform.BaseScale).
		Msg("image loaded")
	return nil
}

// SetMode switches the interaction mode. A drag in progress is abandoned.
func (s *Session) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	if m == "" {
		m = ModeNone
	}
	s.mode = m
	s.toIdle()
	s.log.Debug().Str("mode", string(m)).Msg("mode changed")
	return nil
}

// SetUnit changes the display unit. Stored areas are unaffected.
func (s *Session) SetUnit(u units.Unit) error {
	parsed, err := units.Parse(string(u))
	if err != nil {
		return err
	}
	s.unit = parsed
	return nil
}

func (s *Session) toIdle() {
	s.state = Idle
	s.preview = nil
}

// PointerDown starts a drag at screen point (sx, sy). In calibration and
// measurement modes the press must land on the displayed image.
func (s *Session) PointerDown(sx, sy float64) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.state != Idle {
		return nil
	}
	switch s.mode {
	case ModePan:
		s.state = Panning
		s.startX, s.startY = sx, sy
		s.panStartX, s.panStartY = s.transform.PanX, s.transform.PanY
	case ModeCalibration, ModeMeasurement:
		if !s.transform.DisplayedBounds(s.image, s.frame).Contains(sx, sy) {
			return nil
		}
		s.startX, s.startY = s.transform.ScreenToImage(sx, sy, s.image, s.frame)
		if s.mode == ModeCalibration {
			s.state = DraggingCalibration
			s.pending = nil
		} else {
			s.state = DraggingMeasurement
		}
	}
	return nil
}

// PointerMove updates the pan offset or the live preview rectangle.
func (s *Session) PointerMove(sx, sy float64) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	switch s.state {
	case Panning:
		px := s.panStartX + (sx - s.startX)
		py := s.panStartY + (sy - s.startY)
		if finite(px) && finite(py) {
			s.transform.PanX, s.transform.PanY = px, py
		}
	case DraggingCalibration, DraggingMeasurement:
		ix, iy := s.transform.ScreenToImage(sx, sy, s.image, s.frame)
		if r := RectFromDrag(s.startX, s.startY, ix, iy); r.Finite() {
			s.preview = &r
		}
	}
	return nil
}

// PointerUp finishes the current drag. A rectangle with a side shorter than
// the minimum drag size is discarded. A calibration rectangle becomes pending
// until CompleteCalibration supplies its real area.
func (s *Session) PointerUp(sx, sy float64) (Outcome, error) {
	if !s.loaded {
		return OutcomeNone, ErrNotLoaded
	}
	state := s.state
	s.toIdle()
	switch state {
	case Panning:
		return OutcomePanned, nil
	case DraggingCalibration, DraggingMeasurement:
	default:
		return OutcomeNone, nil
	}

	ix, iy := s.transform.ScreenToImage(sx, sy, s.image, s.frame)
	w, h := ix-s.startX, iy-s.startY
	if math.Abs(w) < s.settings.MinDragSize || math.Abs(h) < s.settings.MinDragSize {
		s.log.Debug().Float64("w", w).Float64("h", h).Msg("drag below minimum size discarded")
		return OutcomeDiscarded, nil
	}
	rect := RectFromDrag(s.startX, s.startY, ix, iy)

	if state == DraggingCalibration {
		if !rect.Finite() {
			err := fmt.Errorf("%w: calibration rectangle %+v", ErrInvalidArea, rect)
			s.notify(err)
			return OutcomeRejected, err
		}
		s.pending = &rect
		return OutcomeCalibrationPending, nil
	}
	m, err := s.measurements.Add(rect)
	if err != nil {
		s.notify(err)
		return OutcomeRejected, err
	}
	s.log.Info().Int("index", s.measurements.Len()-1).Float64("real_area", m.RealArea).Msg("measurement added")
	return OutcomeMeasurementAdded, nil
}

// CompleteCalibration supplies the real area (mm²) for the pending
// calibration rectangle. The pending rectangle is consumed either way.
func (s *Session) CompleteCalibration(realArea float64) error {
	if s.pending == nil {
		return ErrNoPendingCalibration
	}
	rect := *s.pending
	s.pending = nil
	if err := s.calibration.Set(rect, realArea); err != nil {
		s.notify(err)
		return err
	}
	factor, _ := s.calibration.Factor()
	s.log.Info().Float64("real_area", realArea).Float64("factor", factor).Msg("calibration set")
	return nil
}

// CancelCalibration drops the pending calibration rectangle, if any.
func (s *Session) CancelCalibration() {
	s.pending = nil
}

// ProposeCalibration makes r, in image space, the pending calibration
// rectangle as if it had been dragged. r is clipped to the image and must
// still meet the minimum drag size.
func (s *Session) ProposeCalibration(r Rect) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	if !r.Finite() {
		return fmt.Errorf("%w: rectangle %+v is not finite", ErrInvalidArea, r)
	}
	x0, y0 := math.Max(r.X, 0), math.Max(r.Y, 0)
	x1 := math.Min(r.X+r.Width, s.image.Width)
	y1 := math.Min(r.Y+r.Height, s.image.Height)
	if x1-x0 < s.settings.MinDragSize || y1-y0 < s.settings.MinDragSize {
		return fmt.Errorf("%w: rectangle %+v is below the minimum size", ErrInvalidArea, r)
	}
	clipped := RectFromDrag(x0, y0, x1, y1)
	s.toIdle()
	s.pending = &clipped
	return nil
}

// PendingCalibration returns the rectangle awaiting a real area.
func (s *Session) PendingCalibration() (Rect, bool) {
	if s.pending == nil {
		return Rect{}, false
	}
	return *s.pending, true
}

// EditCalibrationArea changes the real area of the current calibration.
func (s *Session) EditCalibrationArea(realArea float64) error {
	if err := s.calibration.EditRealArea(realArea); err != nil {
		s.notify(err)
		return err
	}
	return nil
}

// DeleteMeasurement removes the measurement at index.
func (s *Session) DeleteMeasurement(index int) error {
	return s.measurements.RemoveAt(index)
}

// Wheel zooms in for a positive sign and out for a negative one.
func (s *Session) Wheel(deltaSign float64) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	switch {
	case deltaSign > 0:
		s.transform.Zoom(s.settings.WheelStep)
	case deltaSign < 0:
		s.transform.Zoom(1 / s.settings.WheelStep)
	}
	return nil
}

// ZoomIn applies one zoom-in button step.
func (s *Session) ZoomIn() error {
	if !s.loaded {
		return ErrNotLoaded
	}
	s.transform.Zoom(s.settings.ButtonStep)
	return nil
}

// ZoomOut applies one zoom-out button step.
func (s *Session) ZoomOut() error {
	if !s.loaded {
		return ErrNotLoaded
	}
	s.transform.Zoom(1 / s.settings.ButtonStep)
	return nil
}

// Reset clears calibration, measurements and panning, and returns to Idle.
// Zoom and the loaded image are kept.
func (s *Session) Reset() {
	s.calibration.Reset()
	s.transform.PanX, s.transform.PanY = 0, 0
	s.pending = nil
	s.toIdle()
	s.log.Info().Msg("session reset")
}

// Loaded reports whether an image has been loaded.
func (s *Session) Loaded() bool { return s.loaded }

// Mode returns the selected interaction mode.
func (s *Session) Mode() Mode { return s.mode }

// State returns the interaction state.
func (s *Session) State() State { return s.state }

// Unit returns the display unit.
func (s *Session) Unit() units.Unit { return s.unit }

// Transform returns a copy of the view transform.
func (s *Session) Transform() Transform { return s.transform }

// ImageSize returns the natural size of the loaded image.
func (s *Session) ImageSize() Size { return s.image }

// FrameSize returns the viewport size.
func (s *Session) FrameSize() Size { return s.frame }

// Factor returns the calibration factor (1 without calibration).
func (s *Session) Factor() float64 {
	f, _ := s.calibration.Factor()
	return f
}

// Calibration returns the current calibration.
func (s *Session) Calibration() (Calibration, bool) {
	return s.calibration.Calibration()
}

// Measurements returns the measurements in display order.
func (s *Session) Measurements() []Measurement {
	return s.measurements.All()
}

// Preview returns the live rectangle of the drag in progress.
func (s *Session) Preview() (Rect, bool) {
	if s.preview == nil {
		return Rect{}, false
	}
	return *s.preview, true
}

// Cursor names the pointer cursor a UI should show.
func (s *Session) Cursor() string {
	switch s.mode {
	case ModeCalibration, ModeMeasurement:
		return "crosshair"
	case ModePan:
		if s.state == Panning {
			return "grabbing"
		}
		return "grab"
	}
	return "default"
}
