package ocr

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

const (
	// Characters Tesseract may emit when reading a printed area value.
	numberWhitelist = "0123456789.,"

	// Crops shorter than this are upscaled before recognition.
	minTextHeight = 64
)

// Reading is the result of reading a printed number from an image region.
type Reading struct {
	// Text is the raw recognized text.
	Text string `json:"text"`

	// Value is the first positive number found in Text.
	Value float64 `json:"value"`

	// Found reports whether Value holds a number.
	Found bool `json:"found"`

	// Confidence is Tesseract's mean word confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// ReadNumber runs Tesseract over img restricted to digits and separators and
// returns the first positive number it recognizes.
//
// The image is converted to grayscale and upscaled when small, which is how a
// region cropped from a photographed ruler or label usually arrives. A Reading
// with Found false and no error means Tesseract ran but saw no number.
func ReadNumber(img image.Image, language string) (*Reading, error) {
	if language == "" {
		language = DefaultLanguage
	}

	prepared := imaging.Grayscale(img)
	if prepared.Bounds().Dy() < minTextHeight {
		prepared = imaging.Resize(prepared, 0, minTextHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, prepared, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetWhitelist(numberWhitelist); err != nil {
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	reading := &Reading{Text: strings.TrimSpace(text)}
	reading.Value, reading.Found = ParseNumber(reading.Text)

	// Confidence is best effort; the text is still useful without it.
	if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
		var sum float64
		var n int
		for _, box := range boxes {
			if box.Word == "" {
				continue
			}
			sum += box.Confidence
			n++
		}
		if n > 0 {
			reading.Confidence = sum / float64(n) / 100.0
		}
	}

	return reading, nil
}

var numberPattern = regexp.MustCompile(`\d[\d.,]*`)

// ParseNumber returns the first positive number in text.
//
// Separators follow these rules:
//   - with a dot present, commas are thousands separators
//   - a single comma followed by exactly three digits is a thousands separator
//   - any other single comma is the decimal separator
func ParseNumber(text string) (float64, bool) {
	for _, tok := range numberPattern.FindAllString(text, -1) {
		v, err := strconv.ParseFloat(normalizeNumber(tok), 64)
		if err != nil || math.IsInf(v, 0) || !(v > 0) {
			continue
		}
		return v, true
	}
	return 0, false
}

func normalizeNumber(tok string) string {
	tok = strings.TrimRight(tok, ".,")
	commas := strings.Count(tok, ",")
	switch {
	case commas == 0:
	case strings.Contains(tok, "."), commas > 1:
		tok = strings.ReplaceAll(tok, ",", "")
	default:
		i := strings.Index(tok, ",")
		if len(tok)-i-1 == 3 {
			tok = tok[:i] + tok[i+1:]
		} else {
			tok = tok[:i] + "." + tok[i+1:]
		}
	}
	return tok
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
