package pinentry

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptConn replays a fixed list of agent response lines and records
// everything the client sends.
type scriptConn struct {
	replies    []string
	sent       []string
	exitCode   int
	terminated bool
	closed     bool
}

func (c *scriptConn) WriteLine(line string) error {
	c.sent = append(c.sent, line)
	return nil
}

func (c *scriptConn) ReadLine() ([]byte, error) {
	if len(c.replies) == 0 {
		return nil, io.EOF
	}
	line := c.replies[0]
	c.replies = c.replies[1:]
	return []byte(line), nil
}

func (c *scriptConn) Close() error {
	c.closed = true
	return nil
}

func (c *scriptConn) Terminate() int {
	c.terminated = true
	return c.exitCode
}

func configReplies() []string {
	// Greeting, SETTITLE, SETPROMPT, SETDESC.
	return []string{"OK Pleased to meet you", "OK", "OK", "OK"}
}

func TestClientCollectsDataChunks(t *testing.T) {
	conn := &scriptConn{
		replies: append(configReplies(), "D abc", "D def", "OK"),
	}

	res := NewClient(conn).GetPin(Request{
		Title:  "askpass",
		Prompt: "Password",
		Desc:   "Please enter the password",
	})

	require.Equal(t, OutcomeSecret, res.Outcome)
	assert.Equal(t, "abcdef", string(res.Secret))
	assert.True(t, conn.closed, "completed dialogue should close the channel")
	assert.False(t, conn.terminated, "completed dialogue must not escalate")

	assert.Contains(t, conn.sent, "SETTITLE askpass")
	assert.Contains(t, conn.sent, "SETPROMPT Password:")
	assert.Contains(t, conn.sent, "SETDESC Please enter the password")
	assert.Contains(t, conn.sent, "GETPIN")
	assert.Equal(t, "BYE", conn.sent[len(conn.sent)-1])
}

func TestClientUnescapesSecret(t *testing.T) {
	conn := &scriptConn{
		replies: append(configReplies(), "D a%25b%0ac", "OK"),
	}

	res := NewClient(conn).GetPin(Request{Prompt: "Password", Desc: "d"})

	require.Equal(t, OutcomeSecret, res.Outcome)
	assert.Equal(t, "a%b\nc", string(res.Secret))
}

func TestClientEmptySecret(t *testing.T) {
	conn := &scriptConn{replies: append(configReplies(), "OK")}

	res := NewClient(conn).GetPin(Request{Prompt: "Password", Desc: "d"})

	require.Equal(t, OutcomeSecret, res.Outcome)
	assert.NotNil(t, res.Secret)
	assert.Len(t, res.Secret, 0)
}

func TestClientGetPinErrResponse(t *testing.T) {
	// Anything other than D/OK during collection is a recoverable decline,
	// not a dead dialogue.
	conn := &scriptConn{
		replies: append(configReplies(), "D abc", "ERR 83886179 Operation cancelled"),
	}

	res := NewClient(conn).GetPin(Request{Prompt: "Password", Desc: "d"})

	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Nil(t, res.Secret)
	assert.NoError(t, res.Err)
	assert.True(t, conn.closed)
	assert.False(t, conn.terminated)
	assert.Equal(t, "BYE", conn.sent[len(conn.sent)-1])
}

func TestClientErrorMessageAndOptions(t *testing.T) {
	conn := &scriptConn{
		// Greeting, SETTITLE, SETPROMPT, SETERROR, SETDESC, three OPTIONs.
		replies: []string{"OK", "OK", "OK", "OK", "OK", "OK", "OK", "OK", "OK"},
	}

	res := NewClient(conn).GetPin(Request{
		Title:   "askpass",
		Prompt:  "Password",
		Error:   "Bad password",
		Desc:    "Try again",
		TTYType: "xterm-256color",
		TTYName: "/dev/pts/3",
		Display: ":0",
	})

	require.Equal(t, OutcomeSecret, res.Outcome)
	assert.Contains(t, conn.sent, "SETERROR Bad password")
	assert.Contains(t, conn.sent, "OPTION ttytype=xterm-256color")
	assert.Contains(t, conn.sent, "OPTION ttyname=/dev/pts/3")
	assert.Contains(t, conn.sent, "OPTION display=:0")
}

func TestClientSkipsAbsentHints(t *testing.T) {
	conn := &scriptConn{replies: append(configReplies(), "OK")}

	NewClient(conn).GetPin(Request{Prompt: "Password", Desc: "d"})

	for _, line := range conn.sent {
		assert.NotContains(t, line, "OPTION", "absent hints must not be sent")
	}
}

func TestClientDeadOnGreetingCancelled(t *testing.T) {
	conn := &scriptConn{replies: []string{"ERR not ready"}, exitCode: 0}

	res := NewClient(conn).GetPin(Request{Prompt: "Password", Desc: "d"})

	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Nil(t, res.Secret)
	assert.True(t, conn.terminated)
}

func TestClientDeadUnavailableSentinel(t *testing.T) {
	conn := &scriptConn{replies: []string{"OK", "garbage"}, exitCode: ExitUnavailable}

	res := NewClient(conn).GetPin(Request{Prompt: "Password", Desc: "d"})

	assert.Equal(t, OutcomeUnavailable, res.Outcome)
	assert.True(t, conn.terminated)
}

func TestClientDeadAbnormalExit(t *testing.T) {
	conn := &scriptConn{replies: nil, exitCode: 3}

	res := NewClient(conn).GetPin(Request{Prompt: "Password", Desc: "d"})

	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.True(t, errors.Is(res.Err, ErrAgentFailed))
	assert.True(t, conn.terminated)
}

func TestClientDeadOnReadFailureMidCollect(t *testing.T) {
	conn := &scriptConn{
		replies:  append(configReplies(), "D abc"),
		exitCode: 1,
	}

	res := NewClient(conn).GetPin(Request{Prompt: "Password", Desc: "d"})

	require.Equal(t, OutcomeFailed, res.Outcome)
	assert.Nil(t, res.Secret)
	assert.True(t, conn.terminated)
}

func TestClientEscapesArguments(t *testing.T) {
	conn := &scriptConn{replies: append(configReplies(), "OK")}

	NewClient(conn).GetPin(Request{
		Prompt: "Password",
		Desc:   "line one\nline two is 100%",
	})

	assert.Contains(t, conn.sent, "SETDESC line one%0aline two is 100%25")
}
