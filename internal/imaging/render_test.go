package imaging

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/ironsheep/area-measure-mcp/internal/measure"
)

func newRenderSession(t *testing.T) *measure.Session {
	t.Helper()
	settings := measure.DefaultSettings()
	settings.Rand = rand.New(rand.NewSource(1))
	settings.Palette = []string{"#00FF00"}
	s := measure.NewSession(settings)
	if err := s.LoadImage(200, 100, 400, 400); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	return s
}

func dragScreen(t *testing.T, s *measure.Session, x0, y0, x1, y1 float64) measure.Outcome {
	t.Helper()
	if err := s.PointerDown(x0, y0); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}
	if err := s.PointerMove(x1, y1); err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}
	out, err := s.PointerUp(x1, y1)
	if err != nil {
		t.Fatalf("PointerUp failed: %v", err)
	}
	return out
}

func TestRender_EmptyFrame(t *testing.T) {
	if _, err := Render(nil, measure.Snapshot{}); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestRender_NotLoaded(t *testing.T) {
	snap := measure.Snapshot{Frame: measure.Size{Width: 20, Height: 10}}
	out, err := Render(nil, snap)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 10 {
		t.Errorf("size: got %v", out.Bounds())
	}
	if got := out.RGBAAt(5, 5); got != (color.RGBA{0x20, 0x20, 0x20, 0xFF}) {
		t.Errorf("background: got %v", got)
	}
}

func TestRender_ImageFitsFrame(t *testing.T) {
	s := newRenderSession(t)
	img := createInMemoryImage(200, 100, color.RGBA{255, 255, 0, 255})

	out, err := Render(img, s.Snapshot())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// 200x100 in 400x400 fits at scale 2, centered vertically at y 100..300.
	if got := out.RGBAAt(200, 200); got.R < 250 || got.G < 250 || got.B > 5 {
		t.Errorf("image center should be yellow, got %v", got)
	}
	if got := out.RGBAAt(200, 50); got != (color.RGBA{0x20, 0x20, 0x20, 0xFF}) {
		t.Errorf("letterbox should be background, got %v", got)
	}
}

func TestRender_Placeholder(t *testing.T) {
	s := newRenderSession(t)

	out, err := Render(nil, s.Snapshot())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := out.RGBAAt(200, 200); got != (color.RGBA{0x80, 0x80, 0x80, 0xFF}) {
		t.Errorf("placeholder: got %v", got)
	}
}

func TestRender_Overlays(t *testing.T) {
	s := newRenderSession(t)
	img := createInMemoryImage(200, 100, color.RGBA{0, 0, 0, 255})

	if err := s.SetMode(measure.ModeCalibration); err != nil {
		t.Fatal(err)
	}
	// Screen 0..80 across, 100..180 down is image 0..40 x 0..40.
	if out := dragScreen(t, s, 0, 100, 80, 180); out != measure.OutcomeCalibrationPending {
		t.Fatalf("expected pending calibration, got %v", out)
	}
	if err := s.CompleteCalibration(1600); err != nil {
		t.Fatalf("CompleteCalibration failed: %v", err)
	}

	if err := s.SetMode(measure.ModeMeasurement); err != nil {
		t.Fatal(err)
	}
	if out := dragScreen(t, s, 200, 200, 380, 280); out != measure.OutcomeMeasurementAdded {
		t.Fatalf("expected measurement, got %v", out)
	}

	out, err := Render(img, s.Snapshot())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// Calibration stroke is solid red.
	if got := out.RGBAAt(40, 100); got != (color.RGBA{0xFF, 0, 0, 0xFF}) {
		t.Errorf("calibration stroke: got %v", got)
	}
	// Measurement interior is a translucent green over black.
	got := out.RGBAAt(300, 270)
	if got.R != 0 || got.G < 70 || got.G > 85 || got.B != 0 {
		t.Errorf("measurement fill: got %v", got)
	}
	// Label box sits inside the top-left corner in the rect color.
	if got := out.RGBAAt(206, 206); got.G != 0xFF && got != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("label box: got %v", got)
	}
}

func TestRender_PreviewColor(t *testing.T) {
	s := newRenderSession(t)
	if err := s.SetMode(measure.ModeMeasurement); err != nil {
		t.Fatal(err)
	}
	if err := s.PointerDown(100, 150); err != nil {
		t.Fatal(err)
	}
	if err := s.PointerMove(200, 250); err != nil {
		t.Fatal(err)
	}

	out, err := Render(nil, s.Snapshot())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := out.RGBAAt(150, 150); got != (color.RGBA{0, 0, 0xFF, 0xFF}) {
		t.Errorf("preview stroke should be blue, got %v", got)
	}
}

func TestRender_HighZoomStaysFrameSized(t *testing.T) {
	s := newRenderSession(t)
	img := createInMemoryImage(200, 100, color.RGBA{255, 255, 0, 255})
	for i := 0; i < 40; i++ {
		if err := s.ZoomIn(); err != nil {
			t.Fatal(err)
		}
	}

	out, err := Render(img, s.Snapshot())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 400, 400) {
		t.Errorf("bounds: got %v", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got.R < 250 || got.G < 250 {
		t.Errorf("zoomed image should cover the frame, got %v", got)
	}
}
