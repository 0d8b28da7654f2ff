// Package imaging holds the pixel side of the measuring tool: loading and
// caching images, drawing a session snapshot into a frame-sized canvas,
// cropping a calibration region, and PNG output.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner. Regions
// coming from the measure package are floating-point image-space rectangles;
// PixelBounds widens them to the integer pixels they touch.
//
// # Rendering
//
// Render draws only the part of the image under the frame. The visible crop is
// resampled with disintegration/imaging to the current display scale, or sampled
// pixel by pixel once the zoom is high enough that a resampled crop would dwarf
// the frame. Overlays follow on top:
//   - calibration rectangle in red with a "Cal: <area> <unit>" label
//   - measurements in their palette colors with "<area> <unit>" labels
//   - a pending calibration in red, unlabelled
//   - the live drag preview, red while calibrating and blue while measuring
//
// Fills use FillAlpha, strokes are two pixels wide and labels are drawn with
// the basicfont 7x13 face.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Render and the crop and
// encode helpers are stateless.
package imaging
