package cli

import (
	"errors"
	"fmt"

	"safebackup/internal/engine"
	"safebackup/pkg/fileops"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitValidation = 2
	ExitTraversal  = 3
	ExitNotFound   = 4
	ExitIO         = 5
	ExitUsage      = 64
)

// errUsage marks malformed invocations: bad flags, wrong argument count,
// missing input.
var errUsage = errors.New("usage error")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// ExitCode maps an error returned by Execute onto a process exit code.
func ExitCode(err error) int {
	var ioErr *engine.IOError
	switch {
	case err == nil:
		return ExitOK
	// Checked before ErrInvalidName: a ".." name is both.
	case errors.Is(err, fileops.ErrTraversal):
		return ExitTraversal
	case errors.Is(err, fileops.ErrInvalidName):
		return ExitValidation
	case errors.Is(err, engine.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, engine.ErrUnknownCommand), errors.Is(err, errUsage):
		return ExitUsage
	case errors.As(err, &ioErr):
		return ExitIO
	default:
		return ExitFailure
	}
}
