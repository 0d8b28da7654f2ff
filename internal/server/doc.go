// Package server implements the MCP (Model Context Protocol) server for the
// area measuring tool.
//
// The server drives one measure.Session from tool calls: an MCP client loads
// an image, sends pointer and zoom events in screen coordinates, supplies the
// calibration area and reads back the measured areas or a rendered view.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image and view:
//   - measure_load_image: Load a file, or dimensions only, and fit it to the frame
//   - measure_set_mode: none, calibration, measurement or pan
//   - measure_zoom: Button zoom in or out
//   - measure_wheel: One wheel step
//
// Pointer events:
//   - measure_pointer_down, measure_pointer_move, measure_pointer_up
//
// Calibration:
//   - measure_complete_calibration: Give the pending rectangle its real area
//   - measure_cancel_calibration: Drop the pending rectangle
//   - measure_edit_calibration: Change the real area of the calibration
//   - measure_ocr_calibration: Read the area printed inside the rectangle
//   - measure_detect_calibration: Find a reference card to calibrate against
//
// Measurements and display:
//   - measure_delete_measurement: Remove by index
//   - measure_set_unit: mm2, cm2 or in2
//   - measure_reset: Clear calibration and measurements
//   - measure_state: Full snapshot with labels
//   - measure_render: PNG of the current view
//
// # Result Format
//
// Tool results are JSON in a single text content block. Tools that change the
// session return the new snapshot and any user notices, such as a measurement
// drawn before calibrating.
//
// # Error Handling
//
// Protocol errors use standard JSON-RPC codes:
//   - -32601: Method not found
//   - -32602: Invalid params
//   - -32000: Tool execution failed (error message in data field)
//
// # Concurrency
//
// Requests are handled one at a time in arrival order, which is the order the
// session requires for its pointer events.
package server
