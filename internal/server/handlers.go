package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/ironsheep/area-measure-mcp/internal/detection"
	"github.com/ironsheep/area-measure-mcp/internal/imaging"
	"github.com/ironsheep/area-measure-mcp/internal/measure"
	"github.com/ironsheep/area-measure-mcp/internal/ocr"
	"github.com/ironsheep/area-measure-mcp/internal/units"
)

const (
	defaultOCRScale        = 3.0
	defaultDetectMinArea   = 400.0
	defaultDetectTolerance = 0.85
)

var (
	errNoPixels      = errors.New("no image file loaded; measure_load_image with a path first")
	errNoCalibration = errors.New("no pending or current calibration rectangle")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "measure_pointer_down").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := sonic.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Debug().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	text, err := marshalResult(result)
	if err != nil {
		s.log.Error().Err(err).Str("tool", params.Name).Msg("tool result not encodable")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Notices raised by the session during the call are returned with the
// result of session-changing tools.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	s.notices = nil

	switch name {
	// Image and view
	case "measure_load_image":
		return s.handleLoadImage(args)
	case "measure_set_mode":
		return s.handleSetMode(args)
	case "measure_zoom":
		return s.handleZoom(args)
	case "measure_wheel":
		return s.handleWheel(args)

	// Pointer events
	case "measure_pointer_down":
		return s.handlePointerDown(args)
	case "measure_pointer_move":
		return s.handlePointerMove(args)
	case "measure_pointer_up":
		return s.handlePointerUp(args)

	// Calibration
	case "measure_complete_calibration":
		return s.handleCompleteCalibration(args)
	case "measure_cancel_calibration":
		s.session.CancelCalibration()
		return s.actionResult(""), nil
	case "measure_edit_calibration":
		return s.handleEditCalibration(args)
	case "measure_ocr_calibration":
		return s.handleOCRCalibration(args)
	case "measure_detect_calibration":
		return s.handleDetectCalibration(args)

	// Measurements and display
	case "measure_delete_measurement":
		return s.handleDeleteMeasurement(args)
	case "measure_set_unit":
		return s.handleSetUnit(args)
	case "measure_reset":
		s.session.Reset()
		return s.actionResult(""), nil
	case "measure_state":
		return s.handleState()
	case "measure_render":
		return s.handleRender(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// marshalResult converts a tool result to a pretty-printed JSON string.
func marshalResult(v interface{}) (string, error) {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(b), nil
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		return nil
	}
	if err := sonic.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func missing(name string) error {
	return fmt.Errorf("missing required argument: %s", name)
}

// ActionResult is returned by every tool that changes the session.
type ActionResult struct {
	// Outcome names what a pointer release did.
	Outcome string `json:"outcome,omitempty"`

	// Notices are the messages the user should be shown.
	Notices []string `json:"notices,omitempty"`

	State measure.Snapshot `json:"state"`
}

func (s *Server) actionResult(outcome string) *ActionResult {
	r := &ActionResult{
		Outcome: outcome,
		Notices: s.notices,
		State:   s.session.Snapshot(),
	}
	s.notices = nil
	return r
}

// === Image and View Handlers ===

type loadImageArgs struct {
	Path        string  `json:"path"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FrameWidth  float64 `json:"frame_width"`
	FrameHeight float64 `json:"frame_height"`
}

// LoadImageResult describes the loaded image and the fitted view.
type LoadImageResult struct {
	Image *imaging.ImageInfo `json:"image,omitempty"`
	State measure.Snapshot   `json:"state"`
}

func (s *Server) handleLoadImage(args json.RawMessage) (interface{}, error) {
	var a loadImageArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var info *imaging.ImageInfo
	width, height := a.Width, a.Height
	if a.Path != "" {
		var err error
		info, err = imaging.LoadImageInfo(s.cache, filepath.Clean(a.Path))
		if err != nil {
			return nil, err
		}
		width, height = float64(info.Width), float64(info.Height)
	} else if !(width > 0 && height > 0) {
		return nil, errors.New("either path or a positive width and height are required")
	}

	frameWidth, frameHeight := a.FrameWidth, a.FrameHeight
	if frameWidth == 0 {
		frameWidth = float64(s.cfg.FrameWidth)
	}
	if frameHeight == 0 {
		frameHeight = float64(s.cfg.FrameHeight)
	}

	if err := s.session.LoadImage(width, height, frameWidth, frameHeight); err != nil {
		if info != nil && info.Path != s.imagePath {
			s.cache.Evict(info.Path)
		}
		return nil, err
	}

	newPath := ""
	if info != nil {
		newPath = info.Path
	}
	switch {
	case newPath == "":
		// Sized-only loads have no pixels to keep.
		s.cache.Clear()
	case s.imagePath != "" && s.imagePath != newPath:
		s.cache.Evict(s.imagePath)
	}
	s.imagePath = newPath
	s.log.Debug().Str("path", newPath).Int("cached", s.cache.Len()).Msg("image switched")

	return &LoadImageResult{Image: info, State: s.session.Snapshot()}, nil
}

type setModeArgs struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(args json.RawMessage) (interface{}, error) {
	var a setModeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := measure.ParseMode(a.Mode)
	if err != nil {
		return nil, err
	}
	if err := s.session.SetMode(mode); err != nil {
		return nil, err
	}
	return s.actionResult(""), nil
}

type zoomArgs struct {
	Direction string `json:"direction"`
}

func (s *Server) handleZoom(args json.RawMessage) (interface{}, error) {
	var a zoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	var err error
	switch a.Direction {
	case "in":
		err = s.session.ZoomIn()
	case "out":
		err = s.session.ZoomOut()
	case "":
		return nil, missing("direction")
	default:
		return nil, fmt.Errorf("invalid direction %q: must be in or out", a.Direction)
	}
	if err != nil {
		return nil, err
	}
	return s.actionResult(""), nil
}

type wheelArgs struct {
	Delta *float64 `json:"delta"`
}

func (s *Server) handleWheel(args json.RawMessage) (interface{}, error) {
	var a wheelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Delta == nil {
		return nil, missing("delta")
	}
	if err := s.session.Wheel(*a.Delta); err != nil {
		return nil, err
	}
	return s.actionResult(""), nil
}

// === Pointer Event Handlers ===

type pointerArgs struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func decodePointer(args json.RawMessage) (x, y float64, err error) {
	var a pointerArgs
	if err := decodeArgs(args, &a); err != nil {
		return 0, 0, err
	}
	if a.X == nil {
		return 0, 0, missing("x")
	}
	if a.Y == nil {
		return 0, 0, missing("y")
	}
	return *a.X, *a.Y, nil
}

func (s *Server) handlePointerDown(args json.RawMessage) (interface{}, error) {
	x, y, err := decodePointer(args)
	if err != nil {
		return nil, err
	}
	if err := s.session.PointerDown(x, y); err != nil {
		return nil, err
	}
	return s.actionResult(""), nil
}

func (s *Server) handlePointerMove(args json.RawMessage) (interface{}, error) {
	x, y, err := decodePointer(args)
	if err != nil {
		return nil, err
	}
	if err := s.session.PointerMove(x, y); err != nil {
		return nil, err
	}
	return s.actionResult(""), nil
}

// handlePointerUp reports a rejected measurement as an outcome with a notice,
// not as a tool error.
func (s *Server) handlePointerUp(args json.RawMessage) (interface{}, error) {
	x, y, err := decodePointer(args)
	if err != nil {
		return nil, err
	}
	outcome, err := s.session.PointerUp(x, y)
	if err != nil && outcome != measure.OutcomeRejected {
		return nil, err
	}
	return s.actionResult(outcome.String()), nil
}

// === Calibration Handlers ===

type areaArgs struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

// canonicalArea converts the value to mm². An empty unit means mm².
func (a areaArgs) canonicalArea() (float64, error) {
	if a.Value == nil {
		return 0, missing("value")
	}
	unit, err := inputUnit(a.Unit)
	if err != nil {
		return 0, err
	}
	return units.ToCanonical(*a.Value, unit), nil
}

// inputUnit parses the unit a value was given in. Empty means mm².
func inputUnit(s string) (units.Unit, error) {
	if s == "" {
		return units.Canonical, nil
	}
	return units.Parse(s)
}

func (s *Server) handleCompleteCalibration(args json.RawMessage) (interface{}, error) {
	var a areaArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	area, err := a.canonicalArea()
	if err != nil {
		return nil, err
	}
	if err := s.session.CompleteCalibration(area); err != nil {
		return nil, err
	}
	return s.actionResult(""), nil
}

func (s *Server) handleEditCalibration(args json.RawMessage) (interface{}, error) {
	var a areaArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	area, err := a.canonicalArea()
	if err != nil {
		return nil, err
	}
	if err := s.session.EditCalibrationArea(area); err != nil {
		return nil, err
	}
	return s.actionResult(""), nil
}

type ocrCalibrationArgs struct {
	Scale float64 `json:"scale"`
	Unit  string  `json:"unit"`
	Apply bool    `json:"apply"`
}

// OCRCalibrationResult is the suggestion read from the calibration region.
type OCRCalibrationResult struct {
	Reading *ocr.Reading `json:"reading"`

	// Region is the image-space rectangle that was read.
	Region measure.Rect `json:"region"`

	// Pending reports whether Region is awaiting completion.
	Pending bool `json:"pending"`

	// SuggestedArea is the reading converted to mm², zero when nothing
	// was found.
	SuggestedArea float64 `json:"suggested_area_mm2"`

	Applied bool          `json:"applied"`
	State   *ActionResult `json:"state,omitempty"`
}

func (s *Server) handleOCRCalibration(args json.RawMessage) (interface{}, error) {
	var a ocrCalibrationArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = defaultOCRScale
	}
	unit, err := inputUnit(a.Unit)
	if err != nil {
		return nil, err
	}

	region, pending := s.session.PendingCalibration()
	if !pending {
		cal, ok := s.session.Calibration()
		if !ok {
			return nil, errNoCalibration
		}
		region = cal.Rect
	}

	img, err := s.loadedPixels()
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errNoPixels
	}
	crop, err := imaging.CropRect(img, region, a.Scale)
	if err != nil {
		return nil, err
	}
	reading, err := ocr.ReadNumber(crop, s.cfg.OCRLanguage)
	if err != nil {
		return nil, err
	}

	result := &OCRCalibrationResult{
		Reading: reading,
		Region:  region,
		Pending: pending,
	}
	if !reading.Found {
		return result, nil
	}
	result.SuggestedArea = units.ToCanonical(reading.Value, unit)
	s.log.Info().Str("text", reading.Text).Float64("area_mm2", result.SuggestedArea).Msg("calibration value read")

	if a.Apply {
		if pending {
			err = s.session.CompleteCalibration(result.SuggestedArea)
		} else {
			err = s.session.EditCalibrationArea(result.SuggestedArea)
		}
		if err != nil {
			return nil, err
		}
		result.Applied = true
		result.State = s.actionResult("")
	}
	return result, nil
}

type detectCalibrationArgs struct {
	MinArea   float64 `json:"min_area"`
	Tolerance float64 `json:"tolerance"`
	Propose   bool    `json:"propose"`
}

// DetectCalibrationResult lists rectangles that could serve as the
// calibration reference.
type DetectCalibrationResult struct {
	Candidates []detection.Candidate `json:"candidates"`
	Count      int                   `json:"count"`
	Proposed   bool                  `json:"proposed"`
	State      *ActionResult         `json:"state,omitempty"`
}

func (s *Server) handleDetectCalibration(args json.RawMessage) (interface{}, error) {
	var a detectCalibrationArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MinArea == 0 {
		a.MinArea = defaultDetectMinArea
	}
	if a.Tolerance == 0 {
		a.Tolerance = defaultDetectTolerance
	}

	img, err := s.loadedPixels()
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errNoPixels
	}

	candidates := detection.DetectRectangles(img, a.MinArea, a.Tolerance)
	result := &DetectCalibrationResult{
		Candidates: candidates,
		Count:      len(candidates),
	}
	s.log.Debug().Int("count", len(candidates)).Msg("calibration candidates detected")

	if a.Propose && len(candidates) > 0 {
		if err := s.session.ProposeCalibration(candidates[0].Rect); err != nil {
			return nil, err
		}
		result.Proposed = true
		result.State = s.actionResult("")
	}
	return result, nil
}

// === Measurement and Display Handlers ===

type deleteMeasurementArgs struct {
	Index *int `json:"index"`
}

func (s *Server) handleDeleteMeasurement(args json.RawMessage) (interface{}, error) {
	var a deleteMeasurementArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Index == nil {
		return nil, missing("index")
	}
	if err := s.session.DeleteMeasurement(*a.Index); err != nil {
		return nil, err
	}
	return s.actionResult(""), nil
}

type setUnitArgs struct {
	Unit string `json:"unit"`
}

func (s *Server) handleSetUnit(args json.RawMessage) (interface{}, error) {
	var a setUnitArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Unit == "" {
		return nil, missing("unit")
	}
	if err := s.session.SetUnit(units.Unit(a.Unit)); err != nil {
		return nil, err
	}
	return s.actionResult(""), nil
}

// StateResult is the full session state plus the measurement list text.
type StateResult struct {
	measure.Snapshot
	Lines     []string `json:"lines"`
	ImagePath string   `json:"image_path,omitempty"`
}

func (s *Server) handleState() (interface{}, error) {
	snap := s.session.Snapshot()
	return &StateResult{
		Snapshot:  snap,
		Lines:     snap.Lines(),
		ImagePath: s.imagePath,
	}, nil
}

type renderArgs struct {
	OutputPath  string `json:"output_path"`
	IncludeData *bool  `json:"include_data"`
}

// RenderResult describes a rendered view.
type RenderResult struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	OutputPath string `json:"output_path,omitempty"`
	ImageData  string `json:"image_base64,omitempty"`
	MimeType   string `json:"mime_type"`
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	includeData := a.IncludeData == nil || *a.IncludeData

	snap := s.session.Snapshot()
	if !snap.Loaded {
		return nil, measure.ErrNotLoaded
	}

	img, err := s.loadedPixels()
	if err != nil {
		return nil, err
	}
	canvas, err := imaging.Render(img, snap)
	if err != nil {
		return nil, err
	}

	result := &RenderResult{
		Width:    canvas.Bounds().Dx(),
		Height:   canvas.Bounds().Dy(),
		MimeType: "image/png",
	}
	if a.OutputPath != "" {
		if err := imaging.SavePNG(a.OutputPath, canvas); err != nil {
			return nil, err
		}
		result.OutputPath = a.OutputPath
	}
	if includeData {
		if result.ImageData, err = imaging.EncodePNGBase64(canvas); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// loadedPixels returns the decoded image behind the session, or nil when
// the session was loaded by dimensions only.
func (s *Server) loadedPixels() (image.Image, error) {
	if s.imagePath == "" {
		return nil, nil
	}
	return s.cache.Load(s.imagePath)
}
