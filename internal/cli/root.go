// Package cli wires configuration, logging, the operation log and the
// engine behind the safebackup command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"safebackup/internal/config"
	"safebackup/internal/engine"
	"safebackup/internal/logging"
	"safebackup/internal/oplog"
	"safebackup/pkg/fileops"

	"github.com/spf13/cobra"
)

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type options struct {
	configPath string
	baseDir    string
	logLevel   string
	logFormat  string
	oplogPath  string

	file         string
	command      string
	deleteBackup bool
	yes          bool
}

// NewRootCommand builds the safebackup command tree.
func NewRootCommand(streams Streams) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "safebackup",
		Short: "Back up, restore or delete a single file inside a base directory",
		Long: `safebackup copies a file to <name>.bak, restores it from there, or deletes
either one. File names are plain names inside the base directory; paths,
".." and symlinks leaving the directory are refused.

Without a subcommand it prompts for the file name and the command.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, opts, streams, 0, opts.file, cmd.Flags().Changed("file"))
		},
	}

	rootCmd.SetIn(streams.In)
	rootCmd.SetOut(streams.Out)
	rootCmd.SetErr(streams.Err)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	pf.StringVar(&opts.baseDir, "base-dir", "", "directory all operations are confined to")
	pf.StringVar(&opts.logLevel, "log-level", "", "diagnostic log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "", "diagnostic log format (text, json, logfmt)")
	pf.StringVar(&opts.oplogPath, "oplog", "", "operation log file, empty to disable")
	pf.BoolVar(&opts.deleteBackup, "backup", false, "delete the .bak file instead of the original")
	pf.BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation before deleting")

	rootCmd.Flags().StringVarP(&opts.file, "file", "f", "", "file name (prompted when omitted)")
	rootCmd.Flags().StringVarP(&opts.command, "command", "c", "", "backup, restore or delete (prompted when omitted)")

	for _, c := range engine.Commands {
		rootCmd.AddCommand(newOperationCommand(c, opts, streams))
	}

	return rootCmd
}

func newOperationCommand(c engine.Command, opts *options, streams Streams) *cobra.Command {
	short := map[engine.Command]string{
		engine.Backup:  "Copy <file> to <file>.bak",
		engine.Restore: "Replace <file> with the content of <file>.bak",
		engine.Delete:  "Delete <file>, or <file>.bak with --backup",
	}[c]

	return &cobra.Command{
		Use:   c.String() + " <file>",
		Short: short,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("%s requires exactly one file name, got %d", cmd.CommandPath(), len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, opts, streams, c, args[0], true)
		},
	}
}

// Execute runs the command line and returns the process exit code. Errors
// are reported on streams.Err.
func Execute(ctx context.Context, args []string, streams Streams) int {
	cmd := NewRootCommand(streams)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		st := newStyles(streams.Err)
		fmt.Fprintln(streams.Err, st.Error.Render("Error: "+err.Error()))
	}
	return ExitCode(err)
}

// runSession sets up one engine session and runs a single operation.
// A zero preset means the command comes from --command or a prompt, and
// the file name is prompted for unless haveName is set.
func runSession(cmd *cobra.Command, opts *options, streams Streams, preset engine.Command, name string, haveName bool) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := logging.NewAppLogger(logging.Options{
		Output: streams.Err,
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}

	base, err := fileops.OpenBaseDir(cfg.BaseDir)
	if err != nil {
		return err
	}
	defer base.Close()
	logger.Debug("Base directory opened", "path", base.Path())

	recorder, closeRecorder := openRecorder(cfg, logger)
	defer closeRecorder()

	s := &session{
		prompter: newPrompter(streams.In, streams.Out),
		out:      streams.Out,
		styles:   newStyles(streams.Out),
		engine:   engine.New(base, engine.WithRecorder(recorder), engine.WithLogger(logger)),
		recorder: recorder,
		banner:   isTerminal(streams.In),
	}

	s.note("session started")
	defer s.note("session ended")

	return s.run(cmd.Context(), opts, preset, name, haveName)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-dir") {
		cfg.BaseDir = opts.baseDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if flags.Changed("oplog") {
		cfg.Log.OperationLog = opts.oplogPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openRecorder opens the configured operation log. Failing to open it is
// logged and otherwise ignored.
// Entries are echoed to the diagnostic logger at debug level.
func openRecorder(cfg *config.Config, logger *logging.AppLogger) (oplog.Recorder, func()) {
	debug := oplog.RecorderFunc(func(e oplog.Entry) {
		logger.Debug("Operation recorded", "command", e.Command, "path", e.Path, "outcome", e.Outcome)
	})

	path := cfg.Log.OperationLog
	if path == "" {
		return debug, func() {}
	}

	// Validated with the rest of the config; unknown formats fall back to text.
	formatter, _ := logging.ParseFormat(cfg.Log.Format)

	rec, err := oplog.OpenFile(fileops.ExpandPath(path), formatter)
	if err != nil {
		logger.Warn("Operation log unavailable", "path", path, "error", err)
		return debug, func() {}
	}

	return oplog.Multi(rec, debug), func() {
		if n := rec.Dropped(); n > 0 {
			logger.Warn("Operation log entries dropped", "path", path, "count", n)
		}
		if err := rec.Close(); err != nil {
			logger.Warn("Failed to close operation log", "path", path, "error", err)
		}
	}
}
