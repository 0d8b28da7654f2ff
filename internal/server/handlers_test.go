package server

import (
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request through handleRequest.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// callOK calls a tool, fails on error and decodes the JSON text result.
func callOK(t *testing.T, s *Server, name string, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("%s: unexpected error: %v (%v)", name, resp.Error.Message, resp.Error.Data)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("%s: result should be a map", name)
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("%s: result should have one content block", name)
	}
	if content[0]["type"] != "text" {
		t.Fatalf("%s: content type: got %v", name, content[0]["type"])
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &decoded); err != nil {
		t.Fatalf("%s: result text is not JSON: %v", name, err)
	}
	return decoded
}

// callErr calls a tool and returns the error data, failing if it succeeded.
func callErr(t *testing.T, s *Server, name string, args map[string]interface{}) string {
	t.Helper()
	resp := callTool(t, s, name, args)
	if resp.Error == nil {
		t.Fatalf("%s: expected an error", name)
	}
	if resp.Error.Code != -32000 {
		t.Errorf("%s: code got %d, want -32000", name, resp.Error.Code)
	}
	data, _ := resp.Error.Data.(string)
	return data
}

func pt(x, y float64) map[string]interface{} {
	return map[string]interface{}{"x": x, "y": y}
}

func stateOf(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	state, ok := result["state"].(map[string]interface{})
	if !ok {
		t.Fatalf("result has no state: %v", result)
	}
	return state
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// loadDims loads a 1000x500 image by size into the 800x800 frame. The base
// scale is 0.8 and the image is displayed at y 200..600.
func loadDims(t *testing.T, s *Server) {
	t.Helper()
	callOK(t, s, "measure_load_image", map[string]interface{}{"width": 1000, "height": 500})
}

// calibrate draws image rect (0,0)-(100,50) and gives it 5 cm2, a factor of
// 0.1 mm2 per pixel.
func calibrate(t *testing.T, s *Server) {
	t.Helper()
	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "calibration"})
	callOK(t, s, "measure_pointer_down", pt(0, 200))
	callOK(t, s, "measure_pointer_move", pt(80, 240))
	up := callOK(t, s, "measure_pointer_up", pt(80, 240))
	if up["outcome"] != "calibration_pending" {
		t.Fatalf("outcome: got %v, want calibration_pending", up["outcome"])
	}
	callOK(t, s, "measure_complete_calibration", map[string]interface{}{"value": 5, "unit": "cm2"})
}

func TestHandleToolsCall_LoadImageFromFile(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	result := callOK(t, s, "measure_load_image", map[string]interface{}{"path": imgPath})

	info, ok := result["image"].(map[string]interface{})
	if !ok {
		t.Fatal("result should include image info")
	}
	if info["width"] != float64(100) || info["height"] != float64(80) {
		t.Errorf("dimensions: got %vx%v, want 100x80", info["width"], info["height"])
	}
	if info["format"] != "png" {
		t.Errorf("format: got %v, want png", info["format"])
	}
	state := stateOf(t, result)
	if state["loaded"] != true {
		t.Error("state should be loaded")
	}
	// 100x80 in 800x800 fits at 8x.
	if ds := state["display_scale"].(float64); !approxEqual(ds, 8) {
		t.Errorf("display_scale: got %v, want 8", ds)
	}
	if s.imagePath != imgPath {
		t.Errorf("imagePath: got %q, want %q", s.imagePath, imgPath)
	}
}

func TestHandleToolsCall_LoadImageCustomFrame(t *testing.T) {
	s := newTestServer(t)
	result := callOK(t, s, "measure_load_image", map[string]interface{}{
		"width": 200, "height": 100, "frame_width": 100, "frame_height": 100,
	})
	state := stateOf(t, result)
	if ds := state["display_scale"].(float64); !approxEqual(ds, 0.5) {
		t.Errorf("display_scale: got %v, want 0.5", ds)
	}
	if s.imagePath != "" {
		t.Errorf("dimension-only load should clear imagePath, got %q", s.imagePath)
	}
}

func TestHandleToolsCall_LoadImageErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"nonexistent file", map[string]interface{}{"path": "/nonexistent/image.png"}},
		{"no path or size", map[string]interface{}{}},
		{"zero height", map[string]interface{}{"width": 10, "height": 0}},
		{"negative frame", map[string]interface{}{"width": 10, "height": 10, "frame_width": -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callErr(t, s, "measure_load_image", tt.args)
		})
	}
	if s.session.Loaded() {
		t.Error("failed loads should leave the session unloaded")
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(t)
	data := callErr(t, s, "nonexistent_tool", map[string]interface{}{})
	if !strings.Contains(data, "unknown tool") {
		t.Errorf("error data: got %q", data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsCall(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`not json`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_InvalidArguments(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	data := callErr(t, s, "measure_pointer_down", map[string]interface{}{"x": "left", "y": 1})
	if !strings.Contains(data, "invalid arguments") {
		t.Errorf("error data: got %q", data)
	}
}

func TestHandleToolsCall_MissingArguments(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	tests := []struct {
		tool string
		args map[string]interface{}
		want string
	}{
		{"measure_pointer_down", map[string]interface{}{"x": 1}, "y"},
		{"measure_pointer_up", map[string]interface{}{"y": 1}, "x"},
		{"measure_wheel", map[string]interface{}{}, "delta"},
		{"measure_zoom", map[string]interface{}{}, "direction"},
		{"measure_complete_calibration", map[string]interface{}{"unit": "cm2"}, "value"},
		{"measure_delete_measurement", map[string]interface{}{}, "index"},
		{"measure_set_unit", map[string]interface{}{}, "unit"},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			data := callErr(t, s, tt.tool, tt.args)
			if data != "missing required argument: "+tt.want {
				t.Errorf("error data: got %q", data)
			}
		})
	}
}

func TestHandleToolsCall_PointerBeforeLoad(t *testing.T) {
	s := newTestServer(t)
	data := callErr(t, s, "measure_pointer_down", pt(10, 10))
	if !strings.Contains(data, "no image loaded") {
		t.Errorf("error data: got %q", data)
	}
	callErr(t, s, "measure_zoom", map[string]interface{}{"direction": "in"})
	callErr(t, s, "measure_wheel", map[string]interface{}{"delta": 1})
	callErr(t, s, "measure_render", map[string]interface{}{})
}

func TestHandleToolsCall_CalibrateAndMeasure(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)
	calibrate(t, s)

	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "measurement"})
	callOK(t, s, "measure_pointer_down", pt(400, 400))
	callOK(t, s, "measure_pointer_move", pt(480, 480))
	up := callOK(t, s, "measure_pointer_up", pt(480, 480))
	if up["outcome"] != "measurement_added" {
		t.Fatalf("outcome: got %v, want measurement_added", up["outcome"])
	}

	state := stateOf(t, up)
	if f := state["calibration_factor"].(float64); !approxEqual(f, 0.1) {
		t.Errorf("calibration_factor: got %v, want 0.1", f)
	}
	measurements := state["measurements"].([]interface{})
	if len(measurements) != 1 {
		t.Fatalf("measurements: got %d, want 1", len(measurements))
	}
	m := measurements[0].(map[string]interface{})
	if area := m["real_area"].(float64); !approxEqual(area, 1000) {
		t.Errorf("real_area: got %v, want 1000", area)
	}
	if m["label"] != "1000 mm2" {
		t.Errorf("label: got %v", m["label"])
	}

	callOK(t, s, "measure_set_unit", map[string]interface{}{"unit": "cm2"})
	got := callOK(t, s, "measure_state", map[string]interface{}{})
	lines := got["lines"].([]interface{})
	if len(lines) != 1 || lines[0] != "Measurement 1: 10 cm2" {
		t.Errorf("lines: got %v", lines)
	}
	cal := got["calibration"].(map[string]interface{})
	if cal["label"] != "Cal: 5 cm2" {
		t.Errorf("calibration label: got %v", cal["label"])
	}

	// Editing the calibration rescales the measurement.
	callOK(t, s, "measure_edit_calibration", map[string]interface{}{"value": 1000})
	got = callOK(t, s, "measure_state", map[string]interface{}{})
	m = got["measurements"].([]interface{})[0].(map[string]interface{})
	if area := m["real_area"].(float64); !approxEqual(area, 2000) {
		t.Errorf("real_area after edit: got %v, want 2000", area)
	}
}

func TestHandleToolsCall_MeasureWithoutCalibration(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "measurement"})
	callOK(t, s, "measure_pointer_down", pt(400, 400))
	up := callOK(t, s, "measure_pointer_up", pt(480, 480))

	if up["outcome"] != "rejected" {
		t.Errorf("outcome: got %v, want rejected", up["outcome"])
	}
	notices, ok := up["notices"].([]interface{})
	if !ok || len(notices) != 1 {
		t.Fatalf("notices: got %v", up["notices"])
	}
	if !strings.Contains(notices[0].(string), "no calibration") {
		t.Errorf("notice: got %v", notices[0])
	}

	// Notices do not carry over to the next call.
	next := callOK(t, s, "measure_state", map[string]interface{}{})
	if _, ok := next["notices"]; ok {
		t.Error("state should not repeat notices")
	}
}

func TestHandleToolsCall_SmallDragDiscarded(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "calibration"})
	callOK(t, s, "measure_pointer_down", pt(100, 300))
	// 7 screen px is under 10 image px at scale 0.8.
	up := callOK(t, s, "measure_pointer_up", pt(107, 307))
	if up["outcome"] != "discarded" {
		t.Errorf("outcome: got %v, want discarded", up["outcome"])
	}
	callErr(t, s, "measure_complete_calibration", map[string]interface{}{"value": 10})
}

func TestHandleToolsCall_CalibrationValidation(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	callErr(t, s, "measure_complete_calibration", map[string]interface{}{"value": 10})
	callErr(t, s, "measure_edit_calibration", map[string]interface{}{"value": 10})

	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "calibration"})
	callOK(t, s, "measure_pointer_down", pt(0, 200))
	callOK(t, s, "measure_pointer_up", pt(80, 240))

	data := callErr(t, s, "measure_complete_calibration", map[string]interface{}{"value": -1})
	if !strings.Contains(data, "invalid area") {
		t.Errorf("error data: got %q", data)
	}
	callErr(t, s, "measure_complete_calibration", map[string]interface{}{"value": 5, "unit": "acres"})

	state := callOK(t, s, "measure_state", map[string]interface{}{})
	if _, ok := state["calibration"]; ok {
		t.Error("no calibration should exist")
	}
}

func TestHandleToolsCall_CancelCalibration(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "calibration"})
	callOK(t, s, "measure_pointer_down", pt(0, 200))
	up := callOK(t, s, "measure_pointer_up", pt(80, 240))
	if _, ok := stateOf(t, up)["pending_calibration"]; !ok {
		t.Fatal("pending calibration should be reported")
	}

	result := callOK(t, s, "measure_cancel_calibration", nil)
	if _, ok := stateOf(t, result)["pending_calibration"]; ok {
		t.Error("pending calibration should be cleared")
	}
}

func TestHandleToolsCall_ZoomAndWheel(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	zoom := func(result map[string]interface{}) float64 {
		tr := stateOf(t, result)["transform"].(map[string]interface{})
		return tr["zoom_factor"].(float64)
	}

	if z := zoom(callOK(t, s, "measure_zoom", map[string]interface{}{"direction": "in"})); !approxEqual(z, 1.2) {
		t.Errorf("zoom in: got %v, want 1.2", z)
	}
	if z := zoom(callOK(t, s, "measure_zoom", map[string]interface{}{"direction": "out"})); !approxEqual(z, 1) {
		t.Errorf("zoom out: got %v, want 1", z)
	}
	if z := zoom(callOK(t, s, "measure_wheel", map[string]interface{}{"delta": 120})); !approxEqual(z, 1.1) {
		t.Errorf("wheel up: got %v, want 1.1", z)
	}
	if z := zoom(callOK(t, s, "measure_wheel", map[string]interface{}{"delta": -3})); !approxEqual(z, 1) {
		t.Errorf("wheel down: got %v, want 1", z)
	}
	callErr(t, s, "measure_zoom", map[string]interface{}{"direction": "sideways"})
}

func TestHandleToolsCall_Pan(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "pan"})
	down := callOK(t, s, "measure_pointer_down", pt(100, 100))
	if stateOf(t, down)["cursor"] != "grabbing" {
		t.Errorf("cursor while panning: got %v", stateOf(t, down)["cursor"])
	}
	callOK(t, s, "measure_pointer_move", pt(130, 90))
	up := callOK(t, s, "measure_pointer_up", pt(130, 90))

	tr := stateOf(t, up)["transform"].(map[string]interface{})
	if tr["pan_x"] != float64(30) || tr["pan_y"] != float64(-10) {
		t.Errorf("pan: got (%v, %v), want (30, -10)", tr["pan_x"], tr["pan_y"])
	}
}

func TestHandleToolsCall_SetModeInvalid(t *testing.T) {
	s := newTestServer(t)
	data := callErr(t, s, "measure_set_mode", map[string]interface{}{"mode": "erase"})
	if !strings.Contains(data, "unknown mode") {
		t.Errorf("error data: got %q", data)
	}
}

func TestHandleToolsCall_DeleteMeasurement(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)
	calibrate(t, s)

	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "measurement"})
	for _, x := range []float64{200, 400} {
		callOK(t, s, "measure_pointer_down", pt(x, 300))
		callOK(t, s, "measure_pointer_up", pt(x+80, 380))
	}

	callErr(t, s, "measure_delete_measurement", map[string]interface{}{"index": 2})
	result := callOK(t, s, "measure_delete_measurement", map[string]interface{}{"index": 0})
	measurements := stateOf(t, result)["measurements"].([]interface{})
	if len(measurements) != 1 {
		t.Fatalf("measurements: got %d, want 1", len(measurements))
	}
	if x := measurements[0].(map[string]interface{})["x"].(float64); !approxEqual(x, 500) {
		t.Errorf("remaining measurement x: got %v, want 500", x)
	}
}

func TestHandleToolsCall_Reset(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)
	calibrate(t, s)
	callOK(t, s, "measure_zoom", map[string]interface{}{"direction": "in"})

	result := callOK(t, s, "measure_reset", nil)
	state := stateOf(t, result)
	if _, ok := state["calibration"]; ok {
		t.Error("calibration should be cleared")
	}
	if f := state["calibration_factor"].(float64); f != 1 {
		t.Errorf("calibration_factor: got %v, want 1", f)
	}
	tr := state["transform"].(map[string]interface{})
	if !approxEqual(tr["zoom_factor"].(float64), 1.2) {
		t.Errorf("zoom should be kept, got %v", tr["zoom_factor"])
	}
}

func TestHandleToolsCall_Render(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 50, color.RGBA{0, 0, 255, 255})
	callOK(t, s, "measure_load_image", map[string]interface{}{
		"path": imgPath, "frame_width": 200, "frame_height": 200,
	})

	outPath := filepath.Join(t.TempDir(), "view.png")
	result := callOK(t, s, "measure_render", map[string]interface{}{"output_path": outPath})

	if result["width"] != float64(200) || result["height"] != float64(200) {
		t.Errorf("size: got %vx%v, want 200x200", result["width"], result["height"])
	}
	if result["mime_type"] != "image/png" {
		t.Errorf("mime_type: got %v", result["mime_type"])
	}
	data, err := base64.StdEncoding.DecodeString(result["image_base64"].(string))
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	decoded, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	r, g, b, _ := decoded.At(100, 100).RGBA()
	if r != 0 || g != 0 || b>>8 < 250 {
		t.Errorf("center pixel should be the blue image, got %v %v %v", r, g, b)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file not written: %v", err)
	}
}

func TestHandleToolsCall_RenderWithoutData(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	result := callOK(t, s, "measure_render", map[string]interface{}{"include_data": false})
	if _, ok := result["image_base64"]; ok {
		t.Error("image data should be omitted")
	}
	if result["width"] != float64(800) {
		t.Errorf("width: got %v, want 800", result["width"])
	}
}

func TestHandleToolsCall_OCRCalibrationErrors(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)

	data := callErr(t, s, "measure_ocr_calibration", nil)
	if !strings.Contains(data, "calibration rectangle") {
		t.Errorf("error data: got %q", data)
	}

	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "calibration"})
	callOK(t, s, "measure_pointer_down", pt(0, 200))
	callOK(t, s, "measure_pointer_up", pt(80, 240))

	data = callErr(t, s, "measure_ocr_calibration", nil)
	if !strings.Contains(data, "no image file loaded") {
		t.Errorf("error data: got %q", data)
	}
	callErr(t, s, "measure_ocr_calibration", map[string]interface{}{"unit": "furlong2"})
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := newTestServer(t)

	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			_, err := s.executeTool(tool.Name, json.RawMessage(`{}`))
			if err != nil && strings.Contains(err.Error(), "unknown tool") {
				t.Errorf("tool %s is listed but not dispatched", tool.Name)
			}
		})
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.executeTool("measure_set_mode", json.RawMessage(`{invalid`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestHandleToolsCall_DetectCalibration(t *testing.T) {
	s := newTestServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if x >= 20 && x < 80 && y >= 30 && y < 70 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "card.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	callOK(t, s, "measure_load_image", map[string]interface{}{"path": path})

	result := callOK(t, s, "measure_detect_calibration", map[string]interface{}{"propose": true})
	if result["count"] != float64(1) {
		t.Fatalf("count: got %v, want 1", result["count"])
	}
	if result["proposed"] != true {
		t.Error("largest candidate should be proposed")
	}
	pending, ok := stateOf(t, result)["pending_calibration"].(map[string]interface{})
	if !ok {
		t.Fatal("pending calibration missing")
	}
	if pending["x"] != float64(20) || pending["width"] != float64(60) || pending["height"] != float64(40) {
		t.Errorf("pending: got %v", pending)
	}

	// 60x40 card at 4 cm2 gives 400 mm2 over 2400 px.
	done := callOK(t, s, "measure_complete_calibration", map[string]interface{}{"value": 4, "unit": "cm2"})
	if f := stateOf(t, done)["calibration_factor"].(float64); !approxEqual(f, 400.0/2400.0) {
		t.Errorf("calibration_factor: got %v", f)
	}
}

func TestHandleToolsCall_DetectCalibrationNeedsFile(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)
	data := callErr(t, s, "measure_detect_calibration", nil)
	if !strings.Contains(data, "no image file loaded") {
		t.Errorf("error data: got %q", data)
	}
}

func TestHandleToolsCall_HugePointerRejected(t *testing.T) {
	s := newTestServer(t)
	loadDims(t, s)
	calibrate(t, s, 5)

	callOK(t, s, "measure_set_mode", map[string]interface{}{"mode": "measurement"})
	callOK(t, s, "measure_pointer_down", pt(100, 300))
	callOK(t, s, "measure_pointer_move", pt(1e308, 1e308))
	up := callOK(t, s, "measure_pointer_up", pt(1e308, 1e308))
	if up["outcome"] != "rejected" {
		t.Errorf("outcome: got %v, want rejected", up["outcome"])
	}
	notices, _ := up["notices"].([]interface{})
	if len(notices) != 1 || !strings.Contains(notices[0].(string), "invalid area") {
		t.Errorf("notices: got %v", up["notices"])
	}

	state := callOK(t, s, "measure_state", nil)
	if ms, _ := state["measurements"].([]interface{}); len(ms) != 0 {
		t.Errorf("measurements: got %d, want 0", len(ms))
	}
}

func TestMarshalResult_NonFinite(t *testing.T) {
	if _, err := marshalResult(map[string]float64{"area": math.Inf(1)}); err == nil {
		t.Error("expected an error for an infinite value")
	}
	text, err := marshalResult(map[string]float64{"area": 2})
	if err != nil || !strings.Contains(text, `"area": 2`) {
		t.Errorf("got %q, %v", text, err)
	}
}

func TestHandleToolsCall_LoadImageCacheHousekeeping(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 40, 30, color.RGBA{0, 0, 255, 255})

	callErr(t, s, "measure_load_image", map[string]interface{}{"path": imgPath, "frame_width": -5})
	if n := s.cache.Len(); n != 0 {
		t.Errorf("failed load left %d cached images", n)
	}

	callOK(t, s, "measure_load_image", map[string]interface{}{"path": imgPath})
	if n := s.cache.Len(); n != 1 {
		t.Fatalf("cached images: got %d, want 1", n)
	}

	loadDims(t, s)
	if n := s.cache.Len(); n != 0 {
		t.Errorf("sized-only load left %d cached images", n)
	}
}
