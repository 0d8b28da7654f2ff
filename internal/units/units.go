// Package units converts areas stored in the canonical unit (square
// millimetres) into the units offered for display.
package units

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Unit is a display unit for areas.
type Unit string

const (
	SquareMillimetre Unit = "mm2"
	SquareCentimetre Unit = "cm2"
	SquareInch       Unit = "in2"
)

// Canonical is the unit every stored area is expressed in.
const Canonical = SquareMillimetre

// mm2PerSquareInch is 25.4².
const mm2PerSquareInch = 645.16

// ErrUnknownUnit is returned by Parse for a name that is not a supported unit.
var ErrUnknownUnit = errors.New("unknown unit")

// All lists the supported units in menu order.
var All = []Unit{SquareMillimetre, SquareCentimetre, SquareInch}

// Parse accepts a unit name such as "cm2". Matching is case-insensitive and
// tolerates surrounding whitespace.
func Parse(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case SquareMillimetre, SquareCentimetre, SquareInch:
		return u, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownUnit, s)
}

// Factor returns the multiplier that converts canonical mm² into u.
// Unknown units fall back to 1.
func Factor(u Unit) float64 {
	switch u {
	case SquareCentimetre:
		return 0.01
	case SquareInch:
		return 1 / mm2PerSquareInch
	default:
		return 1
	}
}

// Convert scales a canonical area into u without rounding.
func Convert(canonical float64, u Unit) float64 {
	return canonical * Factor(u)
}

// Display returns the rounded value shown to the user.
func Display(canonical float64, u Unit) float64 {
	return math.Round(Convert(canonical, u))
}

// ToCanonical converts a value expressed in u back into mm².
func ToCanonical(value float64, u Unit) float64 {
	return value / Factor(u)
}

// Format renders a canonical area for labels, e.g. "20 cm2".
func Format(canonical float64, u Unit) string {
	return fmt.Sprintf("%.0f %s", Display(canonical, u), u)
}
