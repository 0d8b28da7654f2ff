// Package measure implements the calibration and measurement core of the
// area measurement tool.
//
// A Session owns one loaded image and everything derived from it:
//
//   - Transform: fit-to-frame base scale, zoom factor and pan offset, used to
//     map screen points to image pixels and back.
//   - CalibrationState: one rectangle with a known real area. Its factor
//     converts square image pixels into square millimetres.
//   - MeasurementSet: ordered rectangles whose real areas are recomputed from
//     scratch whenever the calibration changes.
//   - An interaction state machine driven by PointerDown, PointerMove and
//     PointerUp in the current Mode.
//
// # Coordinate System
//
// Screen coordinates are frame pixels with (0,0) at the top-left of the
// frame. Image coordinates are natural image pixels. The image is centred in
// the frame at DisplayScale = BaseScale*ZoomFactor and shifted by the pan
// offset:
//
//	offset = (frame - image*DisplayScale)/2 + pan
//	image  = (screen - offset)/DisplayScale
//
// # Calibration Protocol
//
// Completing a calibration drag does not ask for a value. The rectangle is
// held as pending and the caller supplies the real area afterwards with
// CompleteCalibration, which lets a UI prompt the user, read the value with
// OCR, or pass it straight from a test.
//
// # Units
//
// Every area is stored in mm². Conversion to the selected display unit
// happens only when building a Snapshot; see package units.
//
// # Concurrency
//
// A Session is meant to be driven by a single event stream and performs no
// locking. Callers that share one between goroutines must serialise access.
package measure
