package measure

import "errors"

// Errors returned by the measurement core. None of them is fatal: the
// operation that returns one leaves all state untouched.
var (
	// ErrInvalidArea is returned for a real area that is not a finite
	// positive number, or for a rectangle whose pixel area is zero or not
	// finite.
	ErrInvalidArea = errors.New("invalid area")

	// ErrNoCalibration is returned when an operation needs a calibration
	// and none exists.
	ErrNoCalibration = errors.New("no calibration")

	// ErrIndexOutOfRange is returned when deleting a measurement that does
	// not exist.
	ErrIndexOutOfRange = errors.New("measurement index out of range")

	// ErrNotLoaded is returned for interaction before an image is loaded.
	ErrNotLoaded = errors.New("no image loaded")

	// ErrNoPendingCalibration is returned when completing a calibration
	// with no rectangle awaiting its area.
	ErrNoPendingCalibration = errors.New("no pending calibration")

	// ErrUnknownMode is returned for a mode name that is not recognized.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrInvalidDimensions is returned when an image or frame size is not
	// a finite positive number.
	ErrInvalidDimensions = errors.New("invalid image or frame dimensions")
)
