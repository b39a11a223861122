package fileops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrTraversal is matched by every *PathError, and by name validation
// failures that are themselves traversal attempts.
var ErrTraversal = errors.New("path traversal")

// PathError reports a path that resolves outside the base directory.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("path traversal attempt: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("path traversal attempt: %s", e.Path)
}

func (e *PathError) Unwrap() error { return e.Err }

func (e *PathError) Is(target error) bool { return target == ErrTraversal }

// ResolvedPath is an absolute, canonical path proven to lie strictly inside
// the BaseDir that produced it. Only BaseDir constructs non-zero values.
type ResolvedPath struct {
	abs string
	rel string
}

// String returns the absolute path.
func (p ResolvedPath) String() string { return p.abs }

// Rel returns the path relative to the base directory, suitable for
// operations on BaseDir.Root.
func (p ResolvedPath) Rel() string { return p.rel }

// IsZero reports whether p was never resolved.
func (p ResolvedPath) IsZero() bool { return p.abs == "" }

// BaseDir is the directory every operation is confined to. It is
// canonicalized once when opened; a base given as a symlink is followed
// at that point and its target becomes the base.
//
// All file I/O should go through Root, which refuses to leave the
// directory even if a symlink is swapped in after Resolve checked it.
type BaseDir struct {
	path string
	root *os.Root
}

// OpenBaseDir canonicalizes path and opens it as the containment root.
// The directory must already exist.
//
// Usage example:
//
//	base, err := fileops.OpenBaseDir(".")
//	if err != nil {
//	    return err
//	}
//	defer base.Close()
func OpenBaseDir(path string) (*BaseDir, error) {
	if path == "" {
		return nil, fmt.Errorf("base directory cannot be empty")
	}

	canonical, err := Canonicalize(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve base directory: %w", err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("cannot access base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base directory is not a directory: %s", canonical)
	}

	root, err := os.OpenRoot(canonical)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure root: %w", err)
	}

	return &BaseDir{path: canonical, root: root}, nil
}

// Path returns the canonical base directory.
func (b *BaseDir) Path() string { return b.path }

// Root returns the os.Root confined to the base directory.
func (b *BaseDir) Root() *os.Root { return b.root }

// Close releases the underlying root.
func (b *BaseDir) Close() error { return b.root.Close() }

// Resolve joins name onto the base directory, canonicalizes the result
// against the current filesystem state and verifies containment. It never
// caches: call it again for every operation.
//
// A name that does not exist yet resolves to its joined path; a symlink is
// followed and its destination must stay inside the base.
func (b *BaseDir) Resolve(name Name) (ResolvedPath, error) {
	if name.IsZero() {
		return ResolvedPath{}, &ValidationError{Kind: KindEmpty}
	}
	return b.resolveCandidate(filepath.Join(b.path, name.String()))
}

// Companion resolves the sibling of p formed by appending suffix to its
// name, such as the ".bak" artifact of a file. The companion is checked on
// its own, so a companion that is a symlink cannot escape either.
func (b *BaseDir) Companion(p ResolvedPath, suffix string) (ResolvedPath, error) {
	if p.IsZero() {
		return ResolvedPath{}, fmt.Errorf("cannot derive companion of unresolved path")
	}
	if _, err := ValidateName("x" + suffix); err != nil {
		return ResolvedPath{}, fmt.Errorf("invalid companion suffix %q: %w", suffix, err)
	}
	return b.resolveCandidate(p.abs + suffix)
}

// resolveCandidate canonicalizes candidate, whose parent directory must
// already be canonical.
func (b *BaseDir) resolveCandidate(candidate string) (ResolvedPath, error) {
	canonical := candidate

	info, err := os.Lstat(candidate)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		canonical, err = ValidateSymlinkSecurity(candidate, b.path)
		if err != nil {
			return ResolvedPath{}, &PathError{Path: candidate, Err: err}
		}
	case err == nil, errors.Is(err, fs.ErrNotExist):
		// Nothing to follow: the candidate is its own canonical form.
	default:
		return ResolvedPath{}, fmt.Errorf("cannot inspect %s: %w", candidate, err)
	}

	if !IsWithin(b.path, canonical) {
		return ResolvedPath{}, &PathError{Path: candidate}
	}

	rel, err := filepath.Rel(b.path, canonical)
	if err != nil {
		return ResolvedPath{}, &PathError{Path: candidate, Err: err}
	}

	return ResolvedPath{abs: canonical, rel: rel}, nil
}
