package pinentry

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ExitUnavailable is the sentinel exit code an agent wrapper reports when the
// real pinentry binary cannot be found or executed. Wrapper scripts exit with
// this code after a failed exec, so it arrives as a child exit status rather
// than a spawn error.
const ExitUnavailable = 76

// DefaultGracePeriod is how long Terminate waits at each escalation step
// before moving on to the next one.
const DefaultGracePeriod = time.Second

// ErrAgentUnavailable reports that the agent binary could not be started at
// all. Callers are expected to fall back to direct terminal entry.
var ErrAgentUnavailable = errors.New("pinentry agent not available")

// Process is a running secure-entry agent wired to the caller through two
// private pipes: one carrying commands to the agent's stdin, one carrying
// its newline-terminated responses back. The agent's stderr is deliberately
// detached so its diagnostics can never corrupt the protocol stream.
type Process struct {
	// Grace is the per-step wait used by Terminate. Tests shorten it.
	Grace time.Duration

	cmd    *exec.Cmd
	stdin  *os.File
	stdout *os.File
	out    *bufio.Reader
	done   chan struct{}
}

// StartProcess launches the agent by executable name using the standard
// lookup. A missing or non-executable binary is reported as
// ErrAgentUnavailable; any other spawn failure is a transport error.
//
// The pipes are created here rather than through the exec helpers so that
// reaping the child never closes the read end: output the agent wrote just
// before exiting stays readable until the dialogue drains it.
func StartProcess(program string) (*Process, error) {
	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create agent input pipe: %w", err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		return nil, fmt.Errorf("failed to create agent output pipe: %w", err)
	}

	cmd := exec.Command(program)
	// Stderr stays on the null device; only stdin and stdout are rewired
	// onto the protocol pipes.
	cmd.Stdin = inR
	cmd.Stdout = outW

	if err := cmd.Start(); err != nil {
		inR.Close()
		inW.Close()
		outR.Close()
		outW.Close()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAgentUnavailable, program)
		}
		return nil, fmt.Errorf("failed to start agent %s: %w", program, err)
	}
	// The child holds its own copies now; releasing ours lets its reads see
	// EOF when stdin closes and ours see EOF when it exits.
	inR.Close()
	outW.Close()

	p := &Process{
		Grace:  DefaultGracePeriod,
		cmd:    cmd,
		stdin:  inW,
		stdout: outR,
		out:    bufio.NewReader(outR),
		done:   make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// WriteLine sends one command line to the agent, appending the terminator.
func (p *Process) WriteLine(line string) error {
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("failed to write to agent: %w", err)
	}
	return nil
}

// ReadLine returns the next response line with its terminator stripped.
// A final unterminated line before EOF is returned as-is; EOF with no data
// is an error.
func (p *Process) ReadLine() ([]byte, error) {
	line, err := p.out.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return line, nil
		}
		return nil, fmt.Errorf("failed to read from agent: %w", err)
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line, nil
}

// Close ends a well-behaved dialogue: the write side is closed and the agent
// is reaped with a blocking wait. Use Terminate when the dialogue broke down.
func (p *Process) Close() error {
	_ = p.stdin.Close()
	<-p.done
	_ = p.stdout.Close()
	return nil
}

// Terminate shuts the agent down with escalating force and returns its exit
// code. The ladder is: non-blocking reap, wait one grace period and reap,
// SIGTERM, wait and reap, SIGKILL and block until reaped. The child is
// always reaped by the time Terminate returns.
func (p *Process) Terminate() int {
	_ = p.stdin.Close()
	defer p.stdout.Close()

	if p.reaped(0) {
		return p.ExitCode()
	}
	if p.reaped(p.Grace) {
		return p.ExitCode()
	}
	_ = p.cmd.Process.Signal(sigGraceful)
	if p.reaped(p.Grace) {
		return p.ExitCode()
	}
	_ = p.cmd.Process.Signal(sigForceful)
	<-p.done
	return p.ExitCode()
}

// ExitCode returns the reaped child's exit status, or -1 if the child was
// killed by a signal or has not been reaped.
func (p *Process) ExitCode() int {
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

func (p *Process) reaped(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-p.done:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-p.done:
		return true
	case <-t.C:
		return false
	}
}
