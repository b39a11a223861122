package fileops

import (
	"os"
	"path/filepath"
	"strings"
)

// IsWithin reports whether target is a strict descendant of base. Both
// paths must already be absolute and canonical; no filesystem access is
// performed. base itself is not within base.
//
// Usage example:
//
//	fileops.IsWithin("/srv/data", "/srv/data/report.txt") // true
//	fileops.IsWithin("/srv/data", "/srv/data")            // false
//	fileops.IsWithin("/srv/data", "/srv/database")        // false
func IsWithin(base, target string) bool {
	if !filepath.IsAbs(base) || !filepath.IsAbs(target) {
		return false
	}

	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(target))
	if err != nil {
		return false
	}

	if rel == "." || rel == ".." || filepath.IsAbs(rel) {
		return false
	}

	// If relative path starts with .. then it's outside base
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Canonicalize returns the absolute, symlink-free form of path. The path
// must exist.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(ExpandPath(path))
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// ExpandPath expands a path that starts with "~/" to the user's home directory.
// This is a utility function for handling user home directory shortcuts.
//
// Usage example:
//
//	expanded := fileops.ExpandPath("~/Documents/file.txt")
//	// Returns something like "/home/user/Documents/file.txt"
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
