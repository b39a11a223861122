package engine

import (
	"fmt"
	"strings"
)

// Command is one of the supported file operations.
type Command int

const (
	Backup Command = iota + 1
	Restore
	Delete
)

// Commands lists every valid command in prompt order.
var Commands = []Command{Backup, Restore, Delete}

func (c Command) String() string {
	switch c {
	case Backup:
		return "backup"
	case Restore:
		return "restore"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// ParseCommand maps user input onto a Command. Surrounding whitespace and
// case are ignored.
func ParseCommand(s string) (Command, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "backup":
		return Backup, nil
	case "restore":
		return Restore, nil
	case "delete":
		return Delete, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
}

// Target selects which file Delete removes.
type Target int

const (
	TargetOriginal Target = iota
	TargetBackup
)

func (t Target) String() string {
	if t == TargetBackup {
		return "backup"
	}
	return "original"
}

// Request is a fully parsed operation. Name is the raw file name; the
// engine validates it.
type Request struct {
	Name    string
	Command Command
	Target  Target
}

// Result describes a completed operation.
type Result struct {
	Command Command
	// Name is the validated file name as given.
	Name string
	// Path is the file that was written or removed.
	Path string
	// Source is the file that was read, empty for Delete.
	Source string
	Bytes  int64
}
