package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"safebackup/internal/config"
	"safebackup/internal/engine"
	"safebackup/pkg/fileops"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir   string
	oplog string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	t.Setenv(config.ConfigPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DEBUG", "")

	return &testEnv{
		dir:   dir,
		oplog: filepath.Join(t.TempDir(), "state", "operations.log"),
	}
}

type runResult struct {
	code   int
	stdout string
	stderr string
}

// run executes the CLI with stdin, pinning the base dir and operation log
// to the test environment.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	full := append(append([]string{}, args...), "--base-dir="+e.dir, "--oplog="+e.oplog)
	code := Execute(context.Background(), full, Streams{
		In:  strings.NewReader(stdin),
		Out: &stdout,
		Err: &stderr,
	})
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (e *testEnv) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.dir, name))
	require.NoError(t, err)
	return string(data)
}

func (e *testEnv) entries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestScenarioBackup(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "test1.txt", "Test content")

	res := env.run(t, "test1.txt\nbackup\n")

	require.Equal(t, ExitOK, res.code, "stderr: %s", res.stderr)
	assert.Equal(t, "Test content", env.read(t, "test1.txt.bak"))
	assert.Contains(t, res.stdout, promptFile)
	assert.Contains(t, res.stdout, promptCommand)
	assert.Contains(t, res.stdout, "Your backup created: test1.txt.bak")
}

func TestScenarioTraversal(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "test1.txt", "Test content")
	before := env.entries(t)

	res := env.run(t, "../../etc/passwd\nbackup\n")

	assert.Equal(t, ExitTraversal, res.code)
	assert.NotEqual(t, ExitOK, res.code)
	assert.Equal(t, before, env.entries(t), "no file may be created")
	assert.Contains(t, res.stderr, "Error:")
}

func TestScenarioRestoreMissingBackup(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "test2.txt", "original")
	before := env.entries(t)

	res := env.run(t, "test2.txt\nrestore\n")

	assert.Equal(t, ExitNotFound, res.code)
	assert.Equal(t, before, env.entries(t))
	assert.Equal(t, "original", env.read(t, "test2.txt"))
	assert.Contains(t, res.stderr, "file not found")
}

func TestSubcommands(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "doc.txt", "v1")

	res := env.run(t, "", "backup", "doc.txt")
	require.Equal(t, ExitOK, res.code, "stderr: %s", res.stderr)
	assert.NotContains(t, res.stdout, promptFile, "subcommands do not prompt")

	env.write(t, "doc.txt", "v2")
	res = env.run(t, "", "restore", "doc.txt")
	require.Equal(t, ExitOK, res.code, "stderr: %s", res.stderr)
	assert.Contains(t, res.stdout, "File restored from: doc.txt.bak")
	assert.Equal(t, "v1", env.read(t, "doc.txt"))

	res = env.run(t, "", "delete", "doc.txt", "--backup", "--yes")
	require.Equal(t, ExitOK, res.code, "stderr: %s", res.stderr)
	assert.Contains(t, res.stdout, "Backup deleted: doc.txt.bak")
	assert.NoFileExists(t, filepath.Join(env.dir, "doc.txt.bak"))
	assert.FileExists(t, filepath.Join(env.dir, "doc.txt"))
}

func TestFlagsSkipPrompts(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "flags.txt", "via flags")

	res := env.run(t, "", "--file", "flags.txt", "--command", "BACKUP")

	require.Equal(t, ExitOK, res.code, "stderr: %s", res.stderr)
	assert.NotContains(t, res.stdout, promptFile)
	assert.NotContains(t, res.stdout, promptCommand)
	assert.Equal(t, "via flags", env.read(t, "flags.txt.bak"))
}

func TestDeleteConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		deleted bool
	}{
		{name: "yes deletes", answer: "yes", deleted: true},
		{name: "uppercase yes deletes", answer: "YES", deleted: true},
		{name: "no cancels", answer: "no"},
		{name: "y is not yes", answer: "y"},
		{name: "blank cancels", answer: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.write(t, "victim.txt", "data")
			env.write(t, "victim.txt.bak", "backup")

			res := env.run(t, "victim.txt\ndelete\n"+tt.answer+"\n")

			assert.Equal(t, ExitOK, res.code, "stderr: %s", res.stderr)
			assert.Contains(t, res.stdout, "Are you sure you want to delete victim.txt? (yes/no): ")
			if tt.deleted {
				assert.Contains(t, res.stdout, "File deleted.")
				assert.NoFileExists(t, filepath.Join(env.dir, "victim.txt"))
			} else {
				assert.Contains(t, res.stdout, "Deletion cancelled.")
				assert.FileExists(t, filepath.Join(env.dir, "victim.txt"))
			}
			assert.Equal(t, "backup", env.read(t, "victim.txt.bak"), "backup is never touched")
		})
	}
}

func TestDeleteMissingConfirmationInput(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "keep.txt", "data")

	res := env.run(t, "keep.txt\ndelete\n")

	assert.Equal(t, ExitUsage, res.code)
	assert.FileExists(t, filepath.Join(env.dir, "keep.txt"))
}

func TestDeleteInvalidNameSkipsConfirmation(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "bad name\ndelete\n")

	assert.Equal(t, ExitValidation, res.code)
	assert.NotContains(t, res.stdout, "Are you sure")
}

func TestRejectedInput(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  int
	}{
		{name: "unknown command", stdin: "a.txt\nremove\n", code: ExitUsage},
		{name: "empty file name", stdin: "\nbackup\n", code: ExitValidation},
		{name: "illegal character", stdin: "a b.txt\nbackup\n", code: ExitValidation},
		{name: "leading space is not trimmed", stdin: " a.txt\nbackup\n", code: ExitValidation},
		{name: "absolute path", stdin: "/etc/passwd\nbackup\n", code: ExitTraversal},
		{name: "no input", stdin: "", code: ExitUsage},
		{name: "missing command line", stdin: "a.txt\n", code: ExitUsage},
		{name: "extra root argument", args: []string{"copy"}, code: ExitUsage},
		{name: "subcommand without file", args: []string{"backup"}, code: ExitUsage},
		{name: "unknown flag", args: []string{"--frobnicate"}, code: ExitUsage},
		{name: "empty subcommand argument", args: []string{"backup", ""}, code: ExitValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.write(t, "a.txt", "a")

			res := env.run(t, tt.stdin, tt.args...)

			assert.Equal(t, tt.code, res.code, "stderr: %s", res.stderr)
			assert.NoFileExists(t, filepath.Join(env.dir, "a.txt.bak"))
		})
	}
}

func TestSymlinkOutsideBase(t *testing.T) {
	env := newTestEnv(t)
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0600))
	require.NoError(t, os.Symlink(secret, filepath.Join(env.dir, "link")))

	res := env.run(t, "", "delete", "link", "--yes")

	assert.Equal(t, ExitTraversal, res.code)
	assert.FileExists(t, secret)
}

func TestOperationLog(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "logged.txt", "x")

	require.Equal(t, ExitOK, env.run(t, "logged.txt\nbackup\n").code)
	require.Equal(t, ExitTraversal, env.run(t, "../x\nbackup\n").code)

	data, err := os.ReadFile(env.oplog)
	require.NoError(t, err)
	log := string(data)

	assert.Contains(t, log, "session started")
	assert.Contains(t, log, "session ended")
	assert.Contains(t, log, "command=backup")
	assert.Contains(t, log, filepath.Join(env.dir, "logged.txt.bak"))
	assert.Contains(t, log, "outcome=success")
	assert.Contains(t, log, "outcome=rejected")
	assert.Contains(t, log, "../x")

	info, err := os.Stat(env.oplog)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestOperationLogUnavailableDoesNotFail(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "a.txt", "a")

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))
	env.oplog = filepath.Join(blocker, "operations.log")

	res := env.run(t, "", "backup", "a.txt")

	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stderr, "Operation log unavailable")
}

func TestConfigFile(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "cfg.txt", "from config")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.DefaultConfig()
	cfg.BaseDir = env.dir
	cfg.Log.OperationLog = ""
	require.NoError(t, cfg.SaveTo(cfgPath))

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"backup", "cfg.txt", "--config", cfgPath}, Streams{
		In:  strings.NewReader(""),
		Out: &stdout,
		Err: &stderr,
	})

	require.Equal(t, ExitOK, code, "stderr: %s", stderr.String())
	assert.Equal(t, "from config", env.read(t, "cfg.txt.bak"))
}

func TestMissingBaseDir(t *testing.T) {
	env := newTestEnv(t)
	env.dir = filepath.Join(env.dir, "does-not-exist")

	res := env.run(t, "", "backup", "a.txt")

	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "cannot resolve base directory")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"traversal", &fileops.PathError{Path: "x"}, ExitTraversal},
		{"dotdot name", &fileops.ValidationError{Kind: fileops.KindIllegalSequence}, ExitTraversal},
		{"empty name", &fileops.ValidationError{Kind: fileops.KindEmpty}, ExitValidation},
		{"not found", fmt.Errorf("%w: x", engine.ErrNotFound), ExitNotFound},
		{"unknown command", engine.ErrUnknownCommand, ExitUsage},
		{"usage", usageErrorf("bad"), ExitUsage},
		{"io", &engine.IOError{Op: "backup", Path: "x", Err: errors.New("disk")}, ExitIO},
		{"other", errors.New("boom"), ExitFailure},
		{"cancelled", context.Canceled, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestPrompterTrimsLineTerminatorOnly(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader(" spaced \r\nlast"), &out)

	first, err := p.ask("q1: ")
	require.NoError(t, err)
	assert.Equal(t, " spaced ", first)

	last, err := p.ask("q2: ")
	require.NoError(t, err)
	assert.Equal(t, "last", last, "final line without newline is accepted")

	_, err = p.ask("q3: ")
	assert.ErrorIs(t, err, errUsage)
	assert.Equal(t, "q1: q2: q3: \n", out.String())
}
