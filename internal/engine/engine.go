// Package engine performs backup, restore and delete of single files
// confined to a base directory.
//
// Every entry point validates the raw name, resolves it against the base
// directory afresh, performs the operation through the base's os.Root and
// records exactly one operation log entry, whether the request succeeded,
// failed or was rejected.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"safebackup/internal/logging"
	"safebackup/internal/oplog"
	"safebackup/pkg/fileops"
)

// BackupSuffix is appended to a file name to form its backup.
const BackupSuffix = ".bak"

type Engine struct {
	base     *fileops.BaseDir
	recorder oplog.Recorder
	logger   *logging.AppLogger
	now      func() time.Time
}

type Option func(*Engine)

// WithRecorder sets the operation log sink.
func WithRecorder(r oplog.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.AppLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the timestamp source for log entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine confined to base. The caller keeps ownership of base.
func New(base *fileops.BaseDir, opts ...Option) *Engine {
	e := &Engine{
		base:     base,
		recorder: oplog.Nop{},
		logger:   logging.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute dispatches req to the matching operation.
func (e *Engine) Execute(ctx context.Context, req Request) (Result, error) {
	switch req.Command {
	case Backup:
		return e.Backup(ctx, req.Name)
	case Restore:
		return e.Restore(ctx, req.Name)
	case Delete:
		return e.Delete(ctx, req.Name, req.Target)
	default:
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command)
		e.record(req.Command.String(), req.Name, Result{}, err)
		return Result{}, err
	}
}

// Backup copies name to name.bak, replacing any previous backup.
func (e *Engine) Backup(ctx context.Context, name string) (Result, error) {
	return e.run(ctx, Backup, name, func(p fileops.ResolvedPath) (Result, error) {
		bak, err := e.companion(p)
		if err != nil {
			return Result{}, err
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		n, err := fileops.AtomicCopy(e.base.Root(), p.Rel(), bak.Rel())
		if err != nil {
			return Result{}, classify("backup", p.String(), err)
		}
		return Result{Path: bak.String(), Source: p.String(), Bytes: n}, nil
	})
}

// Restore replaces name with the content of name.bak. The backup is kept.
func (e *Engine) Restore(ctx context.Context, name string) (Result, error) {
	return e.run(ctx, Restore, name, func(p fileops.ResolvedPath) (Result, error) {
		bak, err := e.companion(p)
		if err != nil {
			return Result{}, err
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		n, err := fileops.AtomicCopy(e.base.Root(), bak.Rel(), p.Rel())
		if err != nil {
			return Result{}, classify("restore", bak.String(), err)
		}
		return Result{Path: p.String(), Source: bak.String(), Bytes: n}, nil
	})
}

// Delete removes name, or name.bak when target is TargetBackup. The other
// file is never touched.
func (e *Engine) Delete(ctx context.Context, name string, target Target) (Result, error) {
	return e.run(ctx, Delete, name, func(p fileops.ResolvedPath) (Result, error) {
		victim := p
		if target == TargetBackup {
			bak, err := e.companion(p)
			if err != nil {
				return Result{}, err
			}
			victim = bak
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if err := fileops.RemoveFile(e.base.Root(), victim.Rel()); err != nil {
			return Result{}, classify("delete", victim.String(), err)
		}
		return Result{Path: victim.String()}, nil
	})
}

// run validates and resolves name, then hands the resolved path to op.
func (e *Engine) run(ctx context.Context, cmd Command, raw string, op func(fileops.ResolvedPath) (Result, error)) (Result, error) {
	start := time.Now()
	defer e.logger.LogPerformance(cmd.String(), start)

	res, err := e.do(ctx, raw, op)
	res.Command = cmd

	e.record(cmd.String(), raw, res, err)
	if err != nil {
		e.logger.Debug("Operation failed", "command", cmd, "name", raw, "error", err)
		return res, err
	}

	e.logger.Info("Operation completed", "command", cmd, "path", res.Path, "bytes", res.Bytes)
	return res, nil
}

func (e *Engine) do(ctx context.Context, raw string, op func(fileops.ResolvedPath) (Result, error)) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	name, err := fileops.ValidateName(raw)
	if err != nil {
		return Result{}, err
	}

	p, err := e.base.Resolve(name)
	if err != nil {
		if errors.Is(err, fileops.ErrTraversal) {
			return Result{}, err
		}
		return Result{}, &IOError{Op: "resolve", Path: raw, Err: err}
	}

	res, err := op(p)
	res.Name = name.String()
	if err != nil && res.Path == "" {
		// Log against the resolved file even when the operation failed.
		res.Source = p.String()
	}
	return res, err
}

func (e *Engine) companion(p fileops.ResolvedPath) (fileops.ResolvedPath, error) {
	bak, err := e.base.Companion(p, BackupSuffix)
	if err != nil {
		if errors.Is(err, fileops.ErrTraversal) {
			return fileops.ResolvedPath{}, err
		}
		return fileops.ResolvedPath{}, &IOError{Op: "resolve", Path: p.String() + BackupSuffix, Err: err}
	}
	return bak, nil
}

func (e *Engine) record(command, raw string, res Result, err error) {
	entry := oplog.Entry{
		Time:    e.now(),
		Command: command,
		Path:    raw,
		Outcome: oplog.OutcomeSuccess,
		Bytes:   res.Bytes,
		Err:     err,
	}

	switch {
	case res.Path != "":
		entry.Path = res.Path
	case res.Source != "":
		entry.Path = res.Source
	}

	switch {
	case err == nil:
	case IsRejection(err):
		entry.Outcome = oplog.OutcomeRejected
	default:
		entry.Outcome = oplog.OutcomeFailure
	}

	e.recorder.Record(entry)
}

// classify maps a filesystem error onto the engine's error taxonomy.
func classify(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return &IOError{Op: op, Path: path, Err: err}
}
