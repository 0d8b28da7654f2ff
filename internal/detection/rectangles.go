package detection

import (
	"image"
	"math"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/area-measure-mcp/internal/measure"
)

const (
	// Gray level step between neighbours that marks an edge pixel.
	edgeThreshold = 30

	// Contours with fewer pixels are noise.
	minContourPixels = 10
)

// Candidate is a filled, axis-aligned rectangle found in an image, such as
// a card or label photographed next to the object being measured.
type Candidate struct {
	// Rect is the rectangle in image-space pixels.
	Rect measure.Rect `json:"rect"`

	// PixelArea is Rect.Width * Rect.Height.
	PixelArea float64 `json:"pixel_area"`

	// FillColor is the hex color at the rectangle's center.
	FillColor string `json:"fill_color"`

	// Confidence is how closely the outline matches a rectangle's
	// perimeter (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

type point struct{ x, y int }

// DetectRectangles finds filled rectangles whose outline differs from the
// surroundings, largest first.
//
// minArea is in square image pixels. tolerance (0.0 to 1.0) is the lowest
// Confidence kept.
//
// # Algorithm
//
//  1. Grayscale the image and mark pixels whose right or lower neighbour
//     differs by more than edgeThreshold
//  2. Group edge pixels into 8-connected contours
//  3. Score each contour by comparing its pixel count with the perimeter of
//     its bounding box
//
// Edges are marked on the outer side of the left and top borders and the
// inner side of the right and bottom ones, so the bounding box of a contour
// is shifted one pixel up and left of the filled area it encloses.
//
// Only axis-aligned rectangles are found. Outlined (unfilled) rectangles
// produce a double edge and score low.
func DetectRectangles(img image.Image, minArea, tolerance float64) []Candidate {
	gray := imaging.Grayscale(img)
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	if width < 2 || height < 2 {
		return nil
	}

	edges := detectEdges(gray)
	candidates := make([]Candidate, 0)

	for _, contour := range findContours(edges, width, height) {
		minX, minY := width, height
		maxX, maxY := 0, 0
		for _, p := range contour {
			minX = min(minX, p.x)
			maxX = max(maxX, p.x)
			minY = min(minY, p.y)
			maxY = max(maxY, p.y)
		}

		rect := measure.Rect{
			X:      float64(minX + 1),
			Y:      float64(minY + 1),
			Width:  float64(maxX - minX),
			Height: float64(maxY - minY),
		}
		area := rect.PixelArea()
		if area <= 0 || area < minArea {
			continue
		}

		perimeter := 2 * (rect.Width + rect.Height)
		confidence := 1 - math.Abs(float64(len(contour))-perimeter)/perimeter
		if confidence < tolerance {
			continue
		}

		cx := img.Bounds().Min.X + int(rect.X+rect.Width/2)
		cy := img.Bounds().Min.Y + int(rect.Y+rect.Height/2)
		fill := ""
		if c, ok := colorful.MakeColor(img.At(cx, cy)); ok {
			fill = strings.ToUpper(c.Hex())
		}

		candidates = append(candidates, Candidate{
			Rect:       rect,
			PixelArea:  area,
			FillColor:  fill,
			Confidence: math.Max(0, confidence),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PixelArea > candidates[j].PixelArea
	})
	return candidates
}

// detectEdges marks pixels that differ from their right or lower neighbour.
// The last column and row are never edges.
func detectEdges(gray *image.NRGBA) [][]bool {
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	level := func(x, y int) int {
		return int(gray.Pix[y*gray.Stride+x*4])
	}

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		if y == height-1 {
			continue
		}
		for x := 0; x < width-1; x++ {
			c := level(x, y)
			if abs(c-level(x+1, y)) > edgeThreshold || abs(c-level(x, y+1)) > edgeThreshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// findContours groups edge pixels into 8-connected components.
func findContours(edges [][]bool, width, height int) [][]point {
	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	var contours [][]point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !edges[y][x] || visited[y][x] {
				continue
			}
			contour := floodFill(edges, visited, x, y)
			if len(contour) >= minContourPixels {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}

// floodFill collects the component containing (x, y) with an explicit
// stack.
func floodFill(edges, visited [][]bool, x, y int) []point {
	height, width := len(edges), len(edges[0])
	var contour []point
	stack := []point{{x, y}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.x < 0 || p.x >= width || p.y < 0 || p.y >= height {
			continue
		}
		if visited[p.y][p.x] || !edges[p.y][p.x] {
			continue
		}
		visited[p.y][p.x] = true
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx != 0 || dy != 0 {
					stack = append(stack, point{p.x + dx, p.y + dy})
				}
			}
		}
	}
	return contour
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
