// Package fileops provides secure single-file operations confined to a base
// directory.
//
// The package is organized around two types that can only be produced by
// passing a check:
//
//   - Name: a filename accepted by ValidateName (pure string inspection)
//   - ResolvedPath: a canonical path proven by BaseDir.Resolve to lie
//     strictly inside the base directory
//
// # Security Validation Pattern
//
//	name, err := fileops.ValidateName(raw)
//	if err != nil {
//	    return err // *ValidationError, matches ErrInvalidName
//	}
//	path, err := base.Resolve(name)
//	if err != nil {
//	    return err // *PathError, matches ErrTraversal
//	}
//	backup, err := base.Companion(path, ".bak")
//	if err != nil {
//	    return err
//	}
//
// # Atomic Operations
//
// AtomicCopy writes through a uniquely named temporary file that is synced
// and renamed onto the destination, so readers see either the old or the new
// content and never a partial file:
//
//	n, err := fileops.AtomicCopy(base.Root(), path.Rel(), backup.Rel())
//
// All I/O is performed through the base directory's os.Root. Resolution is
// the containment check; the root is what keeps a symlink swapped in between
// the check and the use from escaping.
package fileops
