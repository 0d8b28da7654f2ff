// Package ocr reads printed calibration values using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) to suggest the
// real area of a calibration rectangle from a number printed inside it, such as
// a label on a reference card. Recognition is restricted to digits and the
// "." and "," separators.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// TESSDATA_PREFIX may point Tesseract at a non-standard data directory.
//
// # Number Parsing
//
// ParseNumber is independent of Tesseract and accepts the common ways an area
// is printed: "500", "12.5", "12,5", "1,234.5". Only positive values count as
// found.
package ocr
