// Package audit records the lifecycle of interactive secret prompts: which
// entry mechanism served a request and how it ended. Events carry labels and
// outcomes only; secret material and prompt descriptions never reach a log.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config defines audit logging configuration.
type Config struct {
	Enabled  bool                   `json:"enabled"`
	Type     ConfigType             `json:"type"`    // "file", "syslog" or empty for no-op
	Options  map[string]interface{} `json:"options"` // Provider-specific options
	LogLevel string                 `json:"log_level,omitempty"`
}

type ConfigType string

const (
	FileAuditType   ConfigType = "file"
	SyslogAuditType ConfigType = "syslog"
	NoOp            ConfigType = ""
)

// Well-known prompt lifecycle actions.
const (
	ActionPromptStarted    = "prompt_started"
	ActionPromptCompleted  = "prompt_completed"
	ActionPromptCancelled  = "prompt_cancelled"
	ActionPromptFailed     = "prompt_failed"
	ActionAgentUnavailable = "agent_unavailable"
	ActionFallbackTerminal = "fallback_to_terminal"
)

// Logger interface for pluggable audit implementations.
type Logger interface {
	Log(action string, success bool, metadata map[string]interface{}) error
	Query(options QueryOptions) (QueryResult, error)
	Close() error
}

// Event represents one audit log record.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Success   bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	Mechanism string                 `json:"mechanism,omitempty"` // "pinentry" or "terminal"
	Label     string                 `json:"label,omitempty"`     // prompt label, never the secret
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Source    string                 `json:"source,omitempty"`
}

// QueryOptions filter audit log reads.
type QueryOptions struct {
	Since     *time.Time
	Until     *time.Time
	Action    string
	Mechanism string
	Success   *bool // nil = all, true = only success, false = only failures
	Limit     int
	Offset    int
}

// QueryResult contains the results of an audit query.
type QueryResult struct {
	Events     []Event `json:"events"`
	TotalCount int     `json:"total_count"`
	Filtered   int     `json:"filtered"`
	HasMore    bool    `json:"has_more"`
}

// NewLogger creates an appropriate logger based on configuration.
func NewLogger(config *Config) (Logger, error) {
	if config == nil || !config.Enabled {
		return &NoOpLogger{}, nil
	}

	switch config.Type {
	case FileAuditType:
		return NewFileLogger(config)
	case SyslogAuditType:
		return NewSyslogLogger(config)
	case NoOp:
		return &NoOpLogger{}, nil
	default:
		return nil, fmt.Errorf("unknown audit logger type: %s", config.Type)
	}
}

// parseOptions maps the generic options bag onto a provider options struct.
func parseOptions(options map[string]interface{}, target interface{}) error {
	if options == nil {
		return nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	return nil
}

// generateEventID creates a unique event ID.
func generateEventID() string {
	return uuid.NewString()
}
