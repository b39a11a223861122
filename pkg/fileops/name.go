package fileops

import (
	"errors"
	"fmt"
	"strings"
)

// MaxNameLength is the longest filename, in bytes, that ValidateName accepts.
const MaxNameLength = 255

// ErrInvalidName is matched by every *ValidationError via errors.Is.
var ErrInvalidName = errors.New("invalid filename")

// ValidationKind identifies which rule a rejected filename broke.
type ValidationKind int

const (
	KindEmpty ValidationKind = iota + 1
	KindTooLong
	KindIllegalSequence
	KindIllegalCharacter
)

func (k ValidationKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindTooLong:
		return "too long"
	case KindIllegalSequence:
		return "illegal sequence"
	case KindIllegalCharacter:
		return "illegal character"
	default:
		return fmt.Sprintf("ValidationKind(%d)", int(k))
	}
}

// ValidationError reports why ValidateName rejected its input.
type ValidationError struct {
	Kind  ValidationKind
	Input string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindEmpty:
		return "invalid filename: filename cannot be empty"
	case KindTooLong:
		return fmt.Sprintf("invalid filename: filename too long (%d bytes, max %d)", len(e.Input), MaxNameLength)
	case KindIllegalSequence:
		return fmt.Sprintf("invalid filename: path traversal sequence in %q", e.Input)
	case KindIllegalCharacter:
		return fmt.Sprintf("invalid filename: %q contains characters outside [A-Za-z0-9._-]", e.Input)
	default:
		return fmt.Sprintf("invalid filename: %q", e.Input)
	}
}

// Is makes every ValidationError match ErrInvalidName. An illegal sequence
// is a traversal attempt, so it also matches ErrTraversal.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrInvalidName:
		return true
	case ErrTraversal:
		return e.Kind == KindIllegalSequence
	}
	return false
}

// Name is a filename that passed ValidateName. The zero value is not a
// valid name and is refused by BaseDir.Resolve.
type Name struct {
	value string
}

// String returns the validated filename.
func (n Name) String() string { return n.value }

// IsZero reports whether n was produced by ValidateName.
func (n Name) IsZero() bool { return n.value == "" }

// ValidateName checks a raw filename supplied by the user. It performs
// pure string inspection, never touches the filesystem and never rewrites
// the input: the first violated rule is reported.
//
// Rules, in order:
//   - the name is not empty
//   - the name is at most MaxNameLength bytes
//   - the name has no NUL byte, no "..", and no leading path separator
//   - every byte is in [A-Za-z0-9._-]
//
// Usage example:
//
//	name, err := fileops.ValidateName("../../etc/passwd")
//	if errors.Is(err, fileops.ErrTraversal) {
//	    // rejected before any filesystem access
//	}
func ValidateName(raw string) (Name, error) {
	if raw == "" {
		return Name{}, &ValidationError{Kind: KindEmpty, Input: raw}
	}

	if len(raw) > MaxNameLength {
		return Name{}, &ValidationError{Kind: KindTooLong, Input: raw}
	}

	if strings.ContainsRune(raw, 0) ||
		strings.Contains(raw, "..") ||
		strings.HasPrefix(raw, "/") ||
		strings.HasPrefix(raw, `\`) {
		return Name{}, &ValidationError{Kind: KindIllegalSequence, Input: raw}
	}

	for i := 0; i < len(raw); i++ {
		if !isNameByte(raw[i]) {
			return Name{}, &ValidationError{Kind: KindIllegalCharacter, Input: raw}
		}
	}

	return Name{value: raw}, nil
}

func isNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '.' || c == '_' || c == '-'
}
