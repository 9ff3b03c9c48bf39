package engine

import (
	"errors"
	"fmt"
)

// ErrConfig marks structurally invalid configuration: a caller bug,
// not a data issue. Missing optional data never produces an error.
var ErrConfig = errors.New("invalid configuration")

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
