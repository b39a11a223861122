package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	promptFile    = "Please enter your file name: "
	promptCommand = "Please enter your command (backup, restore, delete): "
)

// prompter reads answers line by line. Prompts are written unstyled so
// scripted callers see exactly the text above.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask writes question and returns the next line without its terminator.
// Nothing else is trimmed.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)

	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		if line == "" {
			fmt.Fprintln(p.out)
			return "", usageErrorf("no input provided")
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question. Only "yes", in any case, confirms.
func (p *prompter) confirm(question string) (bool, error) {
	answer, err := p.ask(question + " (yes/no): ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(answer), "yes"), nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
