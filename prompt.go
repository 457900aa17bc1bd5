// Package askpass acquires a secret interactively from a human operator for
// command-line credential tooling. The primary path drives a pinentry-style
// secure-entry agent over a line protocol on private pipes; when the agent
// is unavailable or explicitly disabled, the prompt falls back to direct
// terminal entry with echo suppressed. The secret is never written to disk,
// never echoed, and every intermediate copy is wiped before return.
package askpass

import (
	"errors"
	"fmt"

	"southwinds.dev/askpass/audit"
	"southwinds.dev/askpass/internal/mem"
	"southwinds.dev/askpass/internal/pinentry"
	"southwinds.dev/askpass/internal/term"
)

// Prompt collects a secret using options derived from the environment.
// label names what is being asked for, errMsg is an optional message about
// a prior failed attempt, and descFmt/args format the description shown to
// the user.
//
// A nil Secret with a nil error means the user cancelled. A non-nil Secret
// is owned by the caller, who must Wipe it after use.
func Prompt(label, errMsg, descFmt string, args ...interface{}) (*Secret, error) {
	return PromptWithOptions(DefaultOptions(), label, errMsg, descFmt, args...)
}

// PromptWithOptions is Prompt with explicit configuration.
func PromptWithOptions(opts Options, label, errMsg, descFmt string, args ...interface{}) (*Secret, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger, err := audit.NewLogger(opts.Audit)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit logging: %w", err)
	}
	defer logger.Close()

	if opts.EnableMemoryLock {
		if _, err := mem.Lock(); err == nil {
			defer func() { _ = mem.Unlock() }()
		}
	}

	desc := fmt.Sprintf(descFmt, args...)

	_ = logger.Log(audit.ActionPromptStarted, true, map[string]interface{}{
		"label": label,
	})

	if opts.DisablePinentry {
		return promptTerminal(logger, label, errMsg, desc)
	}

	proc, err := pinentry.StartProcess(opts.PinentryProgram)
	if err != nil {
		if errors.Is(err, pinentry.ErrAgentUnavailable) {
			_ = logger.Log(audit.ActionAgentUnavailable, false, map[string]interface{}{
				"program": opts.PinentryProgram,
			})
			return promptTerminal(logger, label, errMsg, desc)
		}
		_ = logger.Log(audit.ActionPromptFailed, false, map[string]interface{}{
			"mechanism": "pinentry",
			"error":     err.Error(),
		})
		return nil, err
	}

	result := pinentry.NewClient(proc).GetPin(pinentry.Request{
		Title:   opts.Title,
		Prompt:  label,
		Error:   errMsg,
		Desc:    desc,
		TTYType: opts.TTYType,
		TTYName: opts.TTYName,
		Display: opts.Display,
	})

	switch result.Outcome {
	case pinentry.OutcomeSecret:
		_ = logger.Log(audit.ActionPromptCompleted, true, map[string]interface{}{
			"mechanism": "pinentry",
			"label":     label,
		})
		return newSecret(result.Secret), nil
	case pinentry.OutcomeCancelled:
		_ = logger.Log(audit.ActionPromptCancelled, true, map[string]interface{}{
			"mechanism": "pinentry",
			"label":     label,
		})
		return nil, nil
	case pinentry.OutcomeUnavailable:
		_ = logger.Log(audit.ActionFallbackTerminal, true, map[string]interface{}{
			"program": opts.PinentryProgram,
		})
		return promptTerminal(logger, label, errMsg, desc)
	default:
		_ = logger.Log(audit.ActionPromptFailed, false, map[string]interface{}{
			"mechanism": "pinentry",
			"error":     result.Err.Error(),
		})
		return nil, result.Err
	}
}

func promptTerminal(logger audit.Logger, label, errMsg, desc string) (*Secret, error) {
	prompter := &term.Prompter{}
	data, err := prompter.ReadSecret(label, errMsg, desc)
	if err != nil {
		_ = logger.Log(audit.ActionPromptFailed, false, map[string]interface{}{
			"mechanism": "terminal",
			"error":     err.Error(),
		})
		return nil, err
	}
	if data == nil {
		_ = logger.Log(audit.ActionPromptCancelled, true, map[string]interface{}{
			"mechanism": "terminal",
			"label":     label,
		})
		return nil, nil
	}
	_ = logger.Log(audit.ActionPromptCompleted, true, map[string]interface{}{
		"mechanism": "terminal",
		"label":     label,
	})
	return newSecret(data), nil
}
