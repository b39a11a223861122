package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotRegularFile is returned when a copy source or removal target is a
// directory, device or other non-regular file.
var ErrNotRegularFile = errors.New("not a regular file")

// tempPrefix marks in-flight temporary files written by AtomicCopy.
const tempPrefix = ".safebackup-"

// AtomicCopy performs an atomic file copy operation from source to destination,
// both given relative to root. The destination either appears fully copied or
// keeps its previous state.
//
// The function uses a temporary file approach:
//  1. Creates a uniquely named temporary file in the destination directory
//  2. Copies all data to the temporary file
//  3. Applies the source's permission bits and syncs data to disk
//  4. Atomically renames the temporary file to the final destination
//
// Security considerations:
//   - Every open, rename and remove goes through root, so neither path can
//     escape it even through a symlink created after validation
//   - Temporary files are cleaned up on any failure
//
// Returns the number of bytes copied.
//
// Usage example:
//
//	n, err := fileops.AtomicCopy(base.Root(), "report.txt", "report.txt.bak")
//	if err != nil {
//	    return fmt.Errorf("backup failed: %w", err)
//	}
//
// Note: existing destination files are replaced without warning.
func AtomicCopy(root *os.Root, srcPath, destPath string) (int64, error) {
	// Refuse FIFOs and devices before open can block on them
	if info, err := root.Stat(srcPath); err == nil && !info.Mode().IsRegular() {
		return 0, fmt.Errorf("cannot copy %s: %w", srcPath, ErrNotRegularFile)
	}

	srcFile, err := root.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat source file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("cannot copy %s: %w", srcPath, ErrNotRegularFile)
	}
	perm := info.Mode().Perm()

	// Create temporary file in same directory as destination
	tempPath := filepath.Join(filepath.Dir(destPath), tempPrefix+uuid.NewString()+".tmp")
	tempFile, err := root.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	// Ensure cleanup of temp file if anything goes wrong
	var copySuccess bool
	defer func() {
		tempFile.Close()
		if !copySuccess {
			root.Remove(tempPath)
		}
	}()

	n, err := io.Copy(tempFile, srcFile)
	if err != nil {
		return 0, fmt.Errorf("failed to copy file contents: %w", err)
	}

	// The create mode was filtered by the umask
	if err := tempFile.Chmod(perm); err != nil {
		return 0, fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temporary file: %w", err)
	}

	// Atomic rename - this is the only visible state transition
	if err := root.Rename(tempPath, destPath); err != nil {
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	copySuccess = true
	return n, nil
}

// RemoveFile deletes a single non-directory entry relative to root.
// A missing entry yields an error matching fs.ErrNotExist.
func RemoveFile(root *os.Root, path string) error {
	info, err := root.Lstat(path)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot remove %s: %w", path, ErrNotRegularFile)
	}

	if err := root.Remove(path); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// EnsureDirectoryExists creates a directory and all necessary parent directories.
// This is equivalent to `mkdir -p` and is safe to call multiple times.
//
// The function sets directory permissions to 0755 (readable and executable by all,
// writable by owner only).
func EnsureDirectoryExists(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// IsTempFile reports whether name is an in-flight AtomicCopy temporary file.
func IsTempFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, tempPrefix) && strings.HasSuffix(base, ".tmp")
}
