// Package detection finds filled rectangles in an image, such as a reference
// card of known size, that can be proposed as the calibration rectangle.
//
// # Algorithm Overview
//
//  1. Edge detection: convert to grayscale and mark pixels whose right or
//     lower neighbour differs by more than a fixed threshold
//  2. Contour finding: group edge pixels by 8-connected flood fill
//  3. Filtering: keep contours whose bounding box is large enough and whose
//     perimeter is close to that of the box
//
// # Coordinate System
//
// Candidate rectangles are in image pixel coordinates, the same space as
// measure.Rect, with the origin at the top-left of the image bounds.
//
// # Confidence Scores
//
// Confidence is the rectangularity of the contour: 1.0 when the contour
// length equals the perimeter of its bounding box, lower as they diverge.
//
// # Limitations
//
// Only solid, high contrast rectangles are found. Outlined shapes produce
// two contours, and photographs with soft edges may produce none.
package detection
