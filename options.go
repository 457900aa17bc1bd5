package askpass

import (
	"fmt"
	"os"

	"southwinds.dev/askpass/audit"
	"southwinds.dev/askpass/internal/term"
)

// Environment variables consulted by DefaultOptions. They are read once,
// when the options are built, never deep inside the protocol client.
const (
	// EnvDisablePinentry set to "1" forces the terminal fallback and
	// never spawns an agent.
	EnvDisablePinentry = "ASKPASS_DISABLE_PINENTRY"
	// EnvPinentryProgram overrides the agent executable name.
	EnvPinentryProgram = "ASKPASS_PINENTRY"
)

// DefaultPinentryProgram is the agent executable resolved through the
// standard lookup when no override is configured.
const DefaultPinentryProgram = "pinentry"

// Options configures one prompt invocation.
//
// The zero value is not usable directly; start from DefaultOptions, which
// resolves the environment-derived fields, and adjust from there.
type Options struct {
	// Title is forwarded to the agent as the window title.
	Title string `json:"title"`

	// PinentryProgram is the agent executable name.
	PinentryProgram string `json:"pinentry_program"`

	// DisablePinentry skips the agent entirely and prompts on the
	// terminal.
	DisablePinentry bool `json:"disable_pinentry"`

	// Hints forwarded to the agent as OPTION commands when non-empty.
	TTYType string `json:"-"`
	TTYName string `json:"-"`
	Display string `json:"-"`

	// EnableMemoryLock pins process memory for the prompt's lifetime so
	// collected secret bytes cannot be swapped to disk.
	EnableMemoryLock bool `json:"enable_memory_lock"`

	// Audit configures prompt lifecycle logging. Nil disables auditing.
	Audit *audit.Config `json:"audit,omitempty"`
}

// DefaultOptions builds Options from the environment: the fallback override,
// the agent program override, and the terminal hints (TERM, the controlling
// tty device, DISPLAY).
func DefaultOptions() Options {
	program := os.Getenv(EnvPinentryProgram)
	if program == "" {
		program = DefaultPinentryProgram
	}
	return Options{
		Title:           "askpass",
		PinentryProgram: program,
		DisablePinentry: os.Getenv(EnvDisablePinentry) == "1",
		TTYType:         os.Getenv("TERM"),
		TTYName:         term.TTYName(os.Stdin),
		Display:         os.Getenv("DISPLAY"),
	}
}

// Validate checks the options for operational correctness.
func (o Options) Validate() error {
	if !o.DisablePinentry && o.PinentryProgram == "" {
		return fmt.Errorf("pinentry program cannot be empty unless pinentry is disabled")
	}
	if o.Audit != nil && o.Audit.Enabled {
		switch o.Audit.Type {
		case audit.FileAuditType, audit.SyslogAuditType, audit.NoOp:
		default:
			return fmt.Errorf("unknown audit logger type: %s", o.Audit.Type)
		}
	}
	return nil
}
