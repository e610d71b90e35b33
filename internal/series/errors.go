package series

import "errors"

// Sentinel errors for precondition failures. All exported entry points
// validate their inputs eagerly and wrap one of these, so callers can
// branch with errors.Is instead of string matching.
var (
	// ErrShape signals mismatched lengths between parallel arrays
	// (dates vs values, price vs volume, benchmark vs series).
	ErrShape = errors.New("series: shape mismatch")

	// ErrShortSeries signals an input shorter than the minimum length
	// required by the requested window or indicator.
	ErrShortSeries = errors.New("series: input too short")

	// ErrNanPresent signals a NaN in an input that requires dense data.
	ErrNanPresent = errors.New("series: NaN present in input")

	// ErrAllNaN signals an input with no valid observations at all.
	ErrAllNaN = errors.New("series: all values are NaN")

	// ErrDomain signals a parameter outside its valid range, such as a
	// non-positive window or a fast window not below the slow one.
	ErrDomain = errors.New("series: parameter out of domain")
)
