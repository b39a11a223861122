package engine

import (
	"errors"
	"fmt"

	"safebackup/pkg/fileops"
)

var (
	// ErrNotFound is returned when the file an operation needs does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrUnknownCommand is returned for a command word that is not one of
	// backup, restore or delete.
	ErrUnknownCommand = errors.New("unknown command")
)

// IOError reports a filesystem failure during an accepted operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsRejection reports whether err means the request was refused before any
// file was touched.
func IsRejection(err error) bool {
	return errors.Is(err, fileops.ErrInvalidName) ||
		errors.Is(err, fileops.ErrTraversal) ||
		errors.Is(err, ErrUnknownCommand)
}
