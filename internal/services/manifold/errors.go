package manifold

import (
	"errors"
	"fmt"
)

// InsufficientDataError reports an input series shorter than the
// minimum the requested operation needs.
type InsufficientDataError struct {
	Op   string
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need at least %d samples, got %d", e.Op, e.Need, e.Got)
}

// InvalidConfigurationError reports an unsupported timescale tag or an
// out-of-range configuration value.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// ErrLengthMismatch is returned when optional parallel arrays (volume,
// timestamps) do not match the price array length.
var ErrLengthMismatch = errors.New("manifold: parallel array length mismatch")

// IsInsufficientData reports whether err is an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var e *InsufficientDataError
	return errors.As(err, &e)
}

// IsInvalidConfiguration reports whether err is an InvalidConfigurationError.
func IsInvalidConfiguration(err error) bool {
	var e *InvalidConfigurationError
	return errors.As(err, &e)
}
