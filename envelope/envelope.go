// Package envelope defines the JSON envelope used when the kernel's message
// stream crosses the process boundary, e.g. toward a logging collaborator or
// an external bus.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"
)

// Recognized message_type values at the kernel boundary.
const (
	TypeSimulationStatus = "simulation_status"
	TypeDataExchange     = "data_exchange"
	TypeControlCommand   = "control_command"
)

// Status values carried by a simulation_status payload.
const (
	StatusPending      = "pending"
	StatusInitializing = "initializing"
	StatusRunning      = "running"
	StatusPaused       = "paused"
	StatusCompleted    = "completed"
	StatusFailed       = "failed"
)

// Control commands accepted by the kernel. Commands are queued and acted on
// at step boundaries, never mid-step.
const (
	CommandPause  = "pause"
	CommandResume = "resume"
	CommandStop   = "stop"
)

// Envelope is the outer wrapper: an ISO-8601 timestamp, the run the message
// belongs to, a message_type discriminator and the typed payload.
type Envelope struct {
	Timestamp   time.Time       `json:"timestamp"`
	RunID       string          `json:"run_id"`
	MessageType string          `json:"message_type"`
	Payload     json.RawMessage `json:"payload"`
}

// SimulationStatus reports a run-level state transition. Cancelled is set on
// the final completed status when the run ended on an external stop command.
type SimulationStatus struct {
	Status    string `json:"status"`
	ErrorInfo string `json:"error_info,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// Signal is one observed value inside a data_exchange payload.
type Signal struct {
	SourceComponent string  `json:"source_component"`
	SourcePort      string  `json:"source_port"`
	Value           float64 `json:"value"`
}

// DataExchange mirrors one published in-process message to the outside.
type DataExchange struct {
	Time    float64  `json:"time"`
	Signals []Signal `json:"signals"`
}

// ControlCommand asks the kernel to pause, resume or stop between steps.
type ControlCommand struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Validate checks that the command verb is one the kernel recognizes.
func (c ControlCommand) Validate() error {
	switch c.Command {
	case CommandPause, CommandResume, CommandStop:
		return nil
	}
	return fmt.Errorf("unknown control command %q", c.Command)
}

// New wraps payload in an envelope stamped with the current wall-clock time.
func New(runID, messageType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", messageType, err)
	}
	return Envelope{
		Timestamp:   time.Now().UTC(),
		RunID:       runID,
		MessageType: messageType,
		Payload:     raw,
	}, nil
}

// Decode unmarshals the payload into v, which should match MessageType.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("envelope %s has no payload", e.MessageType)
	}
	return json.Unmarshal(e.Payload, v)
}
