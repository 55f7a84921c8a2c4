package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/casualjim/loom/session"
)

// ConsolePrompter answers Ask templates with line input from a reader,
// writing the question to a writer first. One line per question.
type ConsolePrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

var _ session.Prompter = (*ConsolePrompter)(nil)

// Console returns a prompter over stdin and stdout.
func Console() *ConsolePrompter {
	return NewConsole(os.Stdin, os.Stdout)
}

// NewConsole returns a prompter reading answers from in and writing
// questions to out.
func NewConsole(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{scanner: bufio.NewScanner(in), out: out}
}

// Ask implements session.Prompter. The default answer is shown alongside
// the question; mapping an empty reply onto it is the asking template's
// job. Input running out surfaces as io.EOF.
func (c *ConsolePrompter) Ask(ctx context.Context, _ *session.State, prompt, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if def != "" {
		fmt.Fprintf(c.out, "%s %s: ", color.CyanString(prompt), color.HiBlackString("[%s]", def))
	} else {
		fmt.Fprintf(c.out, "%s: ", color.CyanString(prompt))
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.scanner.Text()), nil
}
