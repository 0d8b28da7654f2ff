package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func enumProp(description string, values ...string) map[string]interface{} {
	p := prop("string", description)
	p["enum"] = values
	return p
}

func pointerSchema(description string) map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"x": prop("number", "Screen X coordinate in the frame ("+description+")"),
		"y": prop("number", "Screen Y coordinate in the frame ("+description+")"),
	}, "x", "y")
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	unitProp := enumProp("Area unit", "mm2", "cm2", "in2")

	return []Tool{
		// Image and view
		{
			Name:        "measure_load_image",
			Description: "Load an image to measure, either from a file or by dimensions only, and fit it into the frame. Zoom resets; the calibration and measurements are kept.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":         prop("string", "Absolute path to the image file"),
				"width":        prop("number", "Image width in pixels when no path is given"),
				"height":       prop("number", "Image height in pixels when no path is given"),
				"frame_width":  prop("number", "Viewport width in screen pixels. Defaults to the configured frame"),
				"frame_height": prop("number", "Viewport height in screen pixels. Defaults to the configured frame"),
			}),
		},
		{
			Name:        "measure_set_mode",
			Description: "Select the interaction mode. Switching abandons a drag in progress.",
			InputSchema: objectSchema(map[string]interface{}{
				"mode": enumProp("Interaction mode", "none", "calibration", "measurement", "pan"),
			}, "mode"),
		},
		{
			Name:        "measure_zoom",
			Description: "Zoom the view in or out by the button step (1.2x). The image scales about its own center, which sits at the frame center shifted by the pan offset.",
			InputSchema: objectSchema(map[string]interface{}{
				"direction": enumProp("Zoom direction", "in", "out"),
			}, "direction"),
		},
		{
			Name:        "measure_wheel",
			Description: "Apply one mouse wheel step (1.1x). A positive delta zooms in, a negative delta zooms out.",
			InputSchema: objectSchema(map[string]interface{}{
				"delta": prop("number", "Wheel delta; only the sign is used"),
			}, "delta"),
		},

		// Pointer events
		{
			Name:        "measure_pointer_down",
			Description: "Press the pointer. Starts a calibration or measurement rectangle, or a pan, depending on the mode.",
			InputSchema: pointerSchema("press"),
		},
		{
			Name:        "measure_pointer_move",
			Description: "Move the pointer, updating the pan or the live rectangle preview.",
			InputSchema: pointerSchema("move"),
		},
		{
			Name:        "measure_pointer_up",
			Description: "Release the pointer. Rectangles smaller than the minimum size are discarded; a calibration rectangle waits for measure_complete_calibration.",
			InputSchema: pointerSchema("release"),
		},

		// Calibration
		{
			Name:        "measure_complete_calibration",
			Description: "Supply the real area of the pending calibration rectangle. Recomputes every measurement.",
			InputSchema: objectSchema(map[string]interface{}{
				"value": prop("number", "Real area of the rectangle, must be positive"),
				"unit":  unitProp,
			}, "value"),
		},
		{
			Name:        "measure_cancel_calibration",
			Description: "Discard the pending calibration rectangle.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "measure_edit_calibration",
			Description: "Change the real area of the current calibration. Recomputes every measurement.",
			InputSchema: objectSchema(map[string]interface{}{
				"value": prop("number", "New real area, must be positive"),
				"unit":  unitProp,
			}, "value"),
		},
		{
			Name:        "measure_ocr_calibration",
			Description: "Read a number printed inside the pending or current calibration rectangle with OCR and suggest it as the real area. Requires an image loaded from a file.",
			InputSchema: objectSchema(map[string]interface{}{
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Upscale factor applied to the crop before recognition",
					"default":     defaultOCRScale,
				},
				"unit": unitProp,
				"apply": map[string]interface{}{
					"type":        "boolean",
					"description": "Use the recognized value as the calibration area",
					"default":     false,
				},
			}),
		},

		{
			Name:        "measure_detect_calibration",
			Description: "Find filled rectangles, such as a reference card, that could serve as the calibration rectangle. Optionally make the largest one the pending calibration. Requires an image loaded from a file.",
			InputSchema: objectSchema(map[string]interface{}{
				"min_area": map[string]interface{}{
					"type":        "number",
					"description": "Minimum rectangle area in square image pixels",
					"default":     defaultDetectMinArea,
				},
				"tolerance": map[string]interface{}{
					"type":        "number",
					"description": "Minimum rectangularity (0.0 to 1.0)",
					"default":     defaultDetectTolerance,
				},
				"propose": map[string]interface{}{
					"type":        "boolean",
					"description": "Make the largest rectangle the pending calibration",
					"default":     false,
				},
			}),
		},

		// Measurements and display
		{
			Name:        "measure_delete_measurement",
			Description: "Delete a measurement by its 0-based index.",
			InputSchema: objectSchema(map[string]interface{}{
				"index": prop("integer", "0-based measurement index"),
			}, "index"),
		},
		{
			Name:        "measure_set_unit",
			Description: "Select the unit areas are displayed in. Stored values are not changed.",
			InputSchema: objectSchema(map[string]interface{}{
				"unit": unitProp,
			}, "unit"),
		},
		{
			Name:        "measure_reset",
			Description: "Clear the calibration, all measurements and the pan offset.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "measure_state",
			Description: "Return the current view, calibration and measurements with their screen rectangles and labels.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "measure_render",
			Description: "Render the current view with all overlays as a PNG, returned as base64 and/or written to a file.",
			InputSchema: objectSchema(map[string]interface{}{
				"output_path": prop("string", "Absolute path to write the PNG to"),
				"include_data": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the base64 PNG in the result",
					"default":     true,
				},
			}),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
