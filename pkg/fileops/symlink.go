package fileops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// IsSymlink checks if a given path is a symbolic link.
// This function uses lstat to examine the file without following symlinks.
//
// Usage example:
//
//	isLink, err := fileops.IsSymlink("/path/to/potential/symlink")
//	if err != nil {
//	    return fmt.Errorf("failed to check symlink: %w", err)
//	}
func IsSymlink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat path: %w", err)
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}

// ResolveSymlink resolves a symbolic link and returns the final target path.
// This function follows symlink chains until it reaches a non-symlink target,
// so it fails for dangling links and loops.
func ResolveSymlink(linkPath string) (string, error) {
	resolved, err := filepath.EvalSymlinks(linkPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve symlink: %w", err)
	}
	return resolved, nil
}

// GetSymlinkTarget returns the immediate target of a symbolic link without
// resolving the full chain. A relative target is returned joined onto the
// link's directory, so the result is always absolute when linkPath is.
func GetSymlinkTarget(linkPath string) (string, error) {
	isLink, err := IsSymlink(linkPath)
	if err != nil {
		return "", fmt.Errorf("cannot verify symlink: %w", err)
	}
	if !isLink {
		return "", fmt.Errorf("path is not a symbolic link: %s", linkPath)
	}

	target, err := os.Readlink(linkPath)
	if err != nil {
		return "", fmt.Errorf("failed to read symlink: %w", err)
	}

	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(linkPath), target)
	}
	return filepath.Clean(target), nil
}

// maxSymlinkHops matches the Linux MAXSYMLINKS limit.
const maxSymlinkHops = 40

// ValidateSymlinkSecurity checks that linkPath resolves inside base. base
// must be canonical. A link that cannot be fully resolved (dangling) is
// checked hop by hop along its chain; loops and unreadable
// links are rejected because their destination cannot be proven.
//
// On success the returned path is the canonical destination of the link
// (or, for a dangling link, the missing path at the end of its chain).
func ValidateSymlinkSecurity(linkPath, base string) (string, error) {
	resolved, err := ResolveSymlink(linkPath)
	if err == nil {
		if !IsWithin(base, resolved) {
			return "", fmt.Errorf("symlink target is outside base directory: %s", resolved)
		}
		return resolved, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("symlink cannot be resolved: %w", err)
	}

	// Dangling chain: follow it hop by hop, checking every hop.
	cur := linkPath
	for range maxSymlinkHops {
		target, err := GetSymlinkTarget(cur)
		if err != nil {
			return "", err
		}

		// The target's parent may itself be a symlink; canonicalize what exists.
		if dir, derr := filepath.EvalSymlinks(filepath.Dir(target)); derr == nil {
			target = filepath.Join(dir, filepath.Base(target))
		}

		if !IsWithin(base, target) {
			return "", fmt.Errorf("symlink target is outside base directory: %s", target)
		}

		if isLink, err := IsSymlink(target); err != nil || !isLink {
			return target, nil
		}
		cur = target
	}

	return "", fmt.Errorf("too many levels of symbolic links: %s", linkPath)
}
