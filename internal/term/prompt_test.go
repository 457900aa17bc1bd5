//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package term

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeWith(t *testing.T, input string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	go func() {
		w.WriteString(input)
		w.Close()
	}()
	return r
}

func TestReadSecretFromPipe(t *testing.T) {
	var out bytes.Buffer
	p := &Prompter{In: pipeWith(t, "hunter2\n"), Out: &out}

	secret, err := p.ReadSecret("Password", "", "Please enter the master password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(secret))

	rendered := out.String()
	assert.Contains(t, rendered, "Password")
	assert.Contains(t, rendered, "Please enter the master password")
	assert.Contains(t, rendered, cursorUp(3), "transcript erase should move up three rows")
	assert.Contains(t, rendered, clearDown)
}

func TestReadSecretErrorLineAddsRow(t *testing.T) {
	var out bytes.Buffer
	p := &Prompter{In: pipeWith(t, "x\n"), Out: &out}

	_, err := p.ReadSecret("Password", "Bad password", "Try again")
	require.NoError(t, err)

	rendered := out.String()
	assert.Contains(t, rendered, "Bad password")
	assert.Contains(t, rendered, cursorUp(4), "an error line means one more row to erase")
}

func TestReadSecretEOFMeansCancelled(t *testing.T) {
	var out bytes.Buffer
	p := &Prompter{In: pipeWith(t, ""), Out: &out}

	secret, err := p.ReadSecret("Password", "", "desc")
	assert.NoError(t, err)
	assert.Nil(t, secret)
	// Transcript erase still happens on the cancellation path.
	assert.Contains(t, out.String(), clearDown)
}

func TestReadSecretEmptyLine(t *testing.T) {
	p := &Prompter{In: pipeWith(t, "\n"), Out: &bytes.Buffer{}}

	secret, err := p.ReadSecret("Password", "", "desc")
	require.NoError(t, err)
	require.NotNil(t, secret, "an empty entry is a secret, not a cancellation")
	assert.Len(t, secret, 0)
}

func TestReadSecretUnterminatedLastLine(t *testing.T) {
	p := &Prompter{In: pipeWith(t, "no-newline"), Out: &bytes.Buffer{}}

	secret, err := p.ReadSecret("Password", "", "desc")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", string(secret))
}

func TestReadSecretPTYRestoresMode(t *testing.T) {
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	defer ptmx.Close()
	defer tty.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		ptmx.WriteString("s3cr3t\n")
	}()

	var out bytes.Buffer
	p := &Prompter{In: tty, Out: &out}
	secret, err := p.ReadSecret("Password", "", "desc")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", string(secret))

	termios, err := getTermios(int(tty.Fd()))
	require.NoError(t, err)
	assert.NotZero(t, termios.Lflag&echoFlag, "echo must be restored after the read")
	assert.NotZero(t, termios.Lflag&icanonFlag, "canonical mode must be restored after the read")
}

func TestReadSecretPTYRestoresModeOnInterruptedRead(t *testing.T) {
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	defer tty.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		// Closing the master mid-read interrupts the slave side.
		ptmx.Close()
	}()

	p := &Prompter{In: tty, Out: &bytes.Buffer{}}
	secret, _ := p.ReadSecret("Password", "", "desc")
	assert.Nil(t, secret)

	termios, err := getTermios(int(tty.Fd()))
	require.NoError(t, err)
	assert.NotZero(t, termios.Lflag&echoFlag, "echo must be restored even when the read fails")
}

func TestTTYNameOnNonTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	assert.Equal(t, "", TTYName(r))
}

func TestStylesDoNotLeakIntoSecret(t *testing.T) {
	var out bytes.Buffer
	p := &Prompter{In: pipeWith(t, "plain\n"), Out: &out}

	secret, err := p.ReadSecret("Password", "", "desc")
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(secret), "\x1b"), "secret must carry no escape sequences")
}
