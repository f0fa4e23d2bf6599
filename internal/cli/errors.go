package cli

import (
	"errors"
	"fmt"
)

// ErrChecksFailed is returned when a command ran to completion but found
// invalid inputs, failing examples or definition errors. The report has
// already been written; callers only need the exit status.
var ErrChecksFailed = errors.New("cli: checks failed")

func checksFailed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrChecksFailed, fmt.Sprintf(format, args...))
}
