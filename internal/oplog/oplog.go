// Package oplog records every accepted and rejected file operation.
//
// Recording is a side channel: a Recorder never returns an error and never
// blocks the operation that triggered it. Write failures are counted and
// otherwise dropped.
package oplog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"safebackup/pkg/fileops"

	"github.com/charmbracelet/log"
)

// TimeFormat is the timestamp layout of operation log lines.
const TimeFormat = "2006-01-02 15:04:05"

// Outcome is the final state of a recorded operation.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeRejected  Outcome = "rejected"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeInfo      Outcome = "info"
)

// Entry is one line of the operation log.
type Entry struct {
	Time    time.Time
	Command string
	// Path is the resolved path when resolution succeeded, otherwise the
	// raw input as given.
	Path    string
	Outcome Outcome
	Bytes   int64
	Err     error
	Message string
}

// Recorder is the operation log sink.
type Recorder interface {
	Record(Entry)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Entry)

func (f RecorderFunc) Record(e Entry) { f(e) }

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(Entry) {}

type multi []Recorder

func (m multi) Record(e Entry) {
	for _, r := range m {
		r.Record(e)
	}
}

// Multi fans every entry out to all recorders, skipping nil ones.
func Multi(recorders ...Recorder) Recorder {
	var m multi
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

// WriterRecorder encodes entries as log lines on an io.Writer.
type WriterRecorder struct {
	mu     sync.Mutex
	logger *log.Logger
	out    *droppingWriter
	closer io.Closer
	now    time.Time
}

// NewWriterRecorder returns a recorder writing to w in the given format.
func NewWriterRecorder(w io.Writer, formatter log.Formatter) *WriterRecorder {
	r := &WriterRecorder{out: &droppingWriter{w: w}}
	r.logger = log.NewWithOptions(r.out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      TimeFormat,
		TimeFunction:    r.entryTime,
		Formatter:       formatter,
		Level:           log.DebugLevel,
	})
	return r
}

// OpenFile opens (creating if needed) an append-only operation log at path.
// The file is private to the user.
func OpenFile(path string, formatter log.Formatter) (*WriterRecorder, error) {
	if err := fileops.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open operation log: %w", err)
	}

	r := NewWriterRecorder(f, formatter)
	r.closer = f
	return r, nil
}

// Record writes e. It never fails.
func (r *WriterRecorder) Record(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.now = e.Time
	if r.now.IsZero() {
		r.now = time.Now()
	}

	keyvals := []interface{}{"command", e.Command}
	if e.Path != "" {
		keyvals = append(keyvals, "path", e.Path)
	}
	keyvals = append(keyvals, "outcome", string(e.Outcome))
	if e.Bytes > 0 {
		keyvals = append(keyvals, "bytes", e.Bytes)
	}
	if e.Err != nil {
		keyvals = append(keyvals, "error", e.Err.Error())
	}

	msg := e.Message
	if msg == "" {
		msg = e.Command
	}

	switch e.Outcome {
	case OutcomeFailure:
		r.logger.Error(msg, keyvals...)
	case OutcomeRejected, OutcomeCancelled:
		r.logger.Warn(msg, keyvals...)
	default:
		r.logger.Info(msg, keyvals...)
	}
}

// Dropped returns how many writes failed since the recorder was created.
func (r *WriterRecorder) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.failed
}

// Close closes the underlying file, if the recorder owns one.
func (r *WriterRecorder) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *WriterRecorder) entryTime(time.Time) time.Time { return r.now }

// droppingWriter swallows write errors, counting them instead.
type droppingWriter struct {
	w      io.Writer
	failed int
}

func (d *droppingWriter) Write(p []byte) (int, error) {
	if _, err := d.w.Write(p); err != nil {
		d.failed++
	}
	return len(p), nil
}
