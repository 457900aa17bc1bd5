package pinentry

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"

	"southwinds.dev/askpass/internal/debug"
)

// ErrAgentFailed reports an agent that died mid-dialogue with an exit status
// that is neither a clean cancellation nor the unavailable sentinel. The
// agent cannot be safely retried with secret material potentially in flight.
var ErrAgentFailed = errors.New("pinentry agent failed")

var errUnexpectedResponse = errors.New("unexpected response from agent")

// Conn is the transport the dialogue runs over. Process implements it; tests
// substitute scripted fakes.
type Conn interface {
	WriteLine(line string) error
	ReadLine() ([]byte, error)
	// Close ends a completed dialogue and reaps the agent.
	Close() error
	// Terminate shuts down a broken dialogue with escalating force and
	// returns the agent's exit code.
	Terminate() int
}

// Request carries the prompt content and environment hints for one dialogue.
// All fields are read-only for the duration of the call.
type Request struct {
	Title  string
	Prompt string // label; a ":" separator is appended before sending
	Error  string // optional prior-failure message
	Desc   string

	// Hints forwarded as OPTION commands when non-empty.
	TTYType string
	TTYName string
	Display string
}

// Outcome classifies how a dialogue ended.
type Outcome int

const (
	// OutcomeSecret means the agent returned a secret, possibly empty.
	OutcomeSecret Outcome = iota
	// OutcomeCancelled means the user declined, or the agent answered
	// GETPIN with something other than data.
	OutcomeCancelled
	// OutcomeUnavailable means the agent binary is missing; the caller
	// should fall back to direct terminal entry.
	OutcomeUnavailable
	// OutcomeFailed means the agent misbehaved and exited abnormally.
	OutcomeFailed
)

// Result is the terminal state of one dialogue. Secret is owned by the
// caller and must be wiped after use; it is non-nil only for OutcomeSecret.
type Result struct {
	Outcome Outcome
	Secret  []byte
	Err     error
}

// Client drives the fixed command/response dialogue with a running agent:
// greeting, SETTITLE/SETPROMPT/SETERROR/SETDESC, OPTION hints, GETPIN data
// collection, BYE. Any missing OK acknowledgement drops the dialogue into
// the dead state, where the agent is terminated and its exit code decides
// between cancellation, fallback and failure.
type Client struct {
	conn Conn
}

func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

// GetPin runs the full dialogue and returns its terminal state. The returned
// secret has already been unescaped; every intermediate copy is wiped before
// return.
func (c *Client) GetPin(req Request) Result {
	if err := c.check(); err != nil {
		return c.dead(err)
	}

	if err := c.sendChecked("SETTITLE", req.Title); err != nil {
		return c.dead(err)
	}
	prompt := req.Prompt
	if prompt != "" {
		prompt += ":"
	}
	if err := c.sendChecked("SETPROMPT", prompt); err != nil {
		return c.dead(err)
	}
	if req.Error != "" {
		if err := c.sendChecked("SETERROR", req.Error); err != nil {
			return c.dead(err)
		}
	}
	if err := c.sendChecked("SETDESC", req.Desc); err != nil {
		return c.dead(err)
	}

	for _, opt := range []struct{ key, val string }{
		{"ttytype", req.TTYType},
		{"ttyname", req.TTYName},
		{"display", req.Display},
	} {
		if opt.val == "" {
			continue
		}
		if err := c.sendChecked("OPTION", opt.key+"="+EscapeString(opt.val)); err != nil {
			return c.dead(err)
		}
	}

	secret, err := c.collect()
	if err != nil {
		return c.dead(err)
	}

	// The BYE acknowledgement is not checked; the agent is reaped either way.
	_ = c.send("BYE", "")
	_ = c.conn.Close()

	if secret == nil {
		return Result{Outcome: OutcomeCancelled}
	}
	plain := Unescape(secret)
	memguard.WipeBytes(secret)
	return Result{Outcome: OutcomeSecret, Secret: plain}
}

// collect runs the GETPIN loop. A nil, nil return means the agent answered
// with a non-data, non-OK line: the accumulated secret is discarded and the
// outcome is an ordinary cancellation, not a dead dialogue.
func (c *Client) collect() ([]byte, error) {
	if err := c.send("GETPIN", ""); err != nil {
		return nil, err
	}

	secret := []byte{}
	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			memguard.WipeBytes(secret)
			return nil, err
		}
		switch {
		case bytes.HasPrefix(line, []byte("D")):
			if len(line) > 2 {
				secret = appendWiping(secret, line[2:])
			}
			memguard.WipeBytes(line)
		case bytes.HasPrefix(line, []byte("OK")):
			memguard.WipeBytes(line)
			return secret, nil
		default:
			memguard.WipeBytes(line)
			memguard.WipeBytes(secret)
			return nil, nil
		}
	}
}

// dead terminates the agent and triages its exit status: 0 is a user
// cancellation, the sentinel means the binary is missing, anything else is
// an unrecoverable failure.
func (c *Client) dead(cause error) Result {
	code := c.conn.Terminate()
	debug.Print("pinentry: dead dialogue, agent exit code %d\n", code)
	switch code {
	case 0:
		return Result{Outcome: OutcomeCancelled}
	case ExitUnavailable:
		return Result{Outcome: OutcomeUnavailable}
	default:
		return Result{
			Outcome: OutcomeFailed,
			Err:     fmt.Errorf("%w: exit status %d: %v", ErrAgentFailed, code, cause),
		}
	}
}

func (c *Client) send(command, argument string) error {
	debug.Print("pinentry: send %s\n", command)
	if argument == "" {
		return c.conn.WriteLine(command)
	}
	return c.conn.WriteLine(command + " " + EscapeString(argument))
}

// check requires the next response line to begin with OK.
func (c *Client) check() error {
	line, err := c.conn.ReadLine()
	if err != nil {
		return err
	}
	ok := bytes.HasPrefix(line, []byte("OK"))
	memguard.WipeBytes(line)
	if !ok {
		return errUnexpectedResponse
	}
	return nil
}

func (c *Client) sendChecked(command, argument string) error {
	if err := c.send(command, argument); err != nil {
		return err
	}
	return c.check()
}

// appendWiping grows dst by src, wiping the old backing array whenever a
// reallocation leaves secret bytes behind.
func appendWiping(dst, src []byte) []byte {
	if len(dst)+len(src) <= cap(dst) {
		return append(dst, src...)
	}
	grown := make([]byte, len(dst), (len(dst)+len(src))*2)
	copy(grown, dst)
	memguard.WipeBytes(dst)
	return append(grown, src...)
}
