package gauss

import (
	"errors"
)

// Sentinel kinds for belief arithmetic errors. These allow errors.Is/As from callers.
var (
	ErrNegativeSigma        = errors.New("sigma must not be negative")
	ErrDivideByCertain      = errors.New("division by a certain belief")
	ErrNonPositivePrecision = errors.New("division produced non-positive precision")
)
