package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"safebackup/internal/engine"
	"safebackup/internal/oplog"
	"safebackup/pkg/fileops"
)

var timeNow = time.Now

// session runs one operation against an engine, prompting for whatever the
// command line did not provide.
type session struct {
	*prompter
	out      io.Writer
	styles   styles
	engine   *engine.Engine
	recorder oplog.Recorder
	banner   bool
}

func (s *session) run(ctx context.Context, opts *options, preset engine.Command, name string, haveName bool) error {
	if !haveName || (preset == 0 && opts.command == "") {
		s.showBanner()
	}

	if !haveName {
		var err error
		if name, err = s.ask(promptFile); err != nil {
			return err
		}
	}

	command := preset
	if command == 0 {
		word := opts.command
		if word == "" {
			var err error
			if word, err = s.ask(promptCommand); err != nil {
				return err
			}
		}

		var err error
		if command, err = engine.ParseCommand(word); err != nil {
			s.recorder.Record(oplog.Entry{
				Time:    timeNow(),
				Command: strings.TrimSpace(word),
				Path:    name,
				Outcome: oplog.OutcomeRejected,
				Err:     err,
			})
			return err
		}
	}

	req := engine.Request{Name: name, Command: command}
	if opts.deleteBackup {
		req.Target = engine.TargetBackup
	}

	if command == engine.Delete && !opts.yes {
		confirmed, err := s.confirmDelete(req)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(s.out, s.styles.Warning.Render("Deletion cancelled."))
			s.recorder.Record(oplog.Entry{
				Time:    timeNow(),
				Command: command.String(),
				Path:    name,
				Outcome: oplog.OutcomeCancelled,
			})
			return nil
		}
	}

	res, err := s.engine.Execute(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, s.styles.Success.Render(successMessage(res, req.Target)))
	return nil
}

// confirmDelete asks before deleting. Names that fail validation are not
// asked about: the engine rejects them anyway.
func (s *session) confirmDelete(req engine.Request) (bool, error) {
	if _, err := fileops.ValidateName(req.Name); err != nil {
		return true, nil
	}

	target := req.Name
	if req.Target == engine.TargetBackup {
		target += engine.BackupSuffix
	}
	return s.confirm(fmt.Sprintf("Are you sure you want to delete %s?", target))
}

func (s *session) showBanner() {
	if !s.banner {
		return
	}
	fmt.Fprintln(s.out, s.styles.Title.Render("SafeBackup"))
	fmt.Fprintln(s.out, s.styles.Subtitle.Render("Back up, restore or delete one file at a time."))
}

// note writes a session lifecycle entry to the operation log.
func (s *session) note(msg string) {
	s.recorder.Record(oplog.Entry{
		Time:    timeNow(),
		Command: "session",
		Outcome: oplog.OutcomeInfo,
		Message: msg,
	})
}

func successMessage(res engine.Result, target engine.Target) string {
	switch res.Command {
	case engine.Backup:
		return "Your backup created: " + res.Name + engine.BackupSuffix
	case engine.Restore:
		return "File restored from: " + res.Name + engine.BackupSuffix
	case engine.Delete:
		if target == engine.TargetBackup {
			return "Backup deleted: " + res.Name + engine.BackupSuffix
		}
		return "File deleted."
	default:
		return "Done."
	}
}
