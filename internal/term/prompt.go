// Package term implements the raw-terminal fallback for secret entry: a
// styled prompt on stderr, a no-echo line read, and erasure of the visible
// prompt transcript once the secret has been collected.
package term

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
	"github.com/charmbracelet/lipgloss"
	xterm "golang.org/x/term"
)

var (
	descStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	labelStyle = lipgloss.NewStyle().Bold(true)
)

const clearDown = "\x1b[J"

func cursorUp(n int) string {
	return fmt.Sprintf("\x1b[%dA", n)
}

// Prompter reads a secret directly from a terminal. Zero fields default to
// stdin and stderr.
type Prompter struct {
	In  *os.File
	Out io.Writer
}

// ReadSecret renders the description, the optional error and the label, then
// reads one line with echo suppressed and erases the transcript. It returns
// nil, nil when input ends before any line is read (user cancellation). The
// returned bytes are owned by the caller, who must wipe them after use.
//
// When In is an interactive terminal its line-discipline mode is captured
// before echo is disabled and restored exactly once on every exit path.
func (p *Prompter) ReadSecret(label, errMsg, desc string) ([]byte, error) {
	in, out := p.In, p.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}

	fmt.Fprintf(out, "%s\n\n", descStyle.Render(desc))
	rows := 3
	if errMsg != "" {
		fmt.Fprintf(out, "%s\n", errorStyle.Render(errMsg))
		rows = 4
	}
	fmt.Fprintf(out, "%s: ", labelStyle.Render(label))

	var restore func() error
	if xterm.IsTerminal(int(in.Fd())) {
		var err error
		restore, err = suppressEcho(int(in.Fd()))
		if err != nil {
			return nil, fmt.Errorf("failed to disable terminal echo: %w", err)
		}
	}

	line, readErr := readLine(in)
	if restore != nil {
		if err := restore(); err != nil && readErr == nil {
			memguard.WipeBytes(line)
			line = nil
			readErr = fmt.Errorf("failed to restore terminal mode: %w", err)
		}
	}

	if readErr == nil && line != nil {
		fmt.Fprintln(out)
	}

	// Erase the visible transcript regardless of how the read went.
	fmt.Fprintf(out, "%s%s", cursorUp(rows), clearDown)

	if errors.Is(readErr, io.EOF) {
		return nil, nil
	}
	if readErr != nil {
		return nil, readErr
	}
	return line, nil
}

// readLine reads byte-at-a-time up to and including one line terminator,
// which is stripped. io.EOF is returned only when the stream ends before any
// byte arrives; a final unterminated line is returned as data.
func readLine(r io.Reader) ([]byte, error) {
	line := []byte{}
	b := make([]byte, 1)
	for {
		n, err := r.Read(b)
		if n > 0 {
			if b[0] == '\n' {
				return line, nil
			}
			line = growWiping(line, b[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(line) == 0 {
					return nil, io.EOF
				}
				return line, nil
			}
			memguard.WipeBytes(line)
			return nil, err
		}
	}
}

// growWiping appends one byte, wiping the old backing array whenever the
// append reallocates.
func growWiping(dst []byte, b byte) []byte {
	if len(dst) < cap(dst) {
		return append(dst, b)
	}
	grown := make([]byte, len(dst), cap(dst)*2+16)
	copy(grown, dst)
	memguard.WipeBytes(dst)
	return append(grown, b)
}
