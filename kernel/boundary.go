package kernel

import (
	"context"
	"fmt"

	"github.com/leixiaohui-1974/CHS-sub001/agent"
	"github.com/leixiaohui-1974/CHS-sub001/pkg/observability"
)

// Phase names the lifecycle call a fault was caught in.
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseStep     Phase = "step"
	PhaseMessage  Phase = "on_message"
	PhaseShutdown Phase = "shutdown"
)

// Fault is the record of one boundary-caught agent failure.
type Fault struct {
	AgentID string
	Phase   Phase
	Time    float64
	Err     error
}

func (f Fault) String() string {
	return fmt.Sprintf("agent %s failed during %s at t=%g: %v", f.AgentID, f.Phase, f.Time, f.Err)
}

// invoke runs one lifecycle call through the runtime boundary. An error
// return or a panic is converted into a Fault, the agent is marked Failed and
// removed from the bus, and invoke reports false. Nothing escapes to the
// caller; the boundary does not restart or retry.
func (k *Kernel) invoke(ctx context.Context, e *entry, phase Phase, fn func(context.Context) error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			k.fail(e, phase, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()

	if err := fn(ctx); err != nil {
		k.fail(e, phase, err)
		return false
	}
	return true
}

// invokeQuiet runs a call whose failure changes nothing: used for the
// shutdown attempt on an already-Failed agent, where errors and panics are
// swallowed and logged only.
func (k *Kernel) invokeQuiet(ctx context.Context, e *entry, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			k.log.Warn("shutdown of failed agent panicked",
				"agent", e.agent.ID(), "panic", fmt.Sprint(r))
		}
	}()

	if err := fn(ctx); err != nil {
		k.log.Warn("shutdown of failed agent errored",
			"agent", e.agent.ID(), "error", err)
	}
}

func (k *Kernel) fail(e *entry, phase Phase, err error) {
	fault := Fault{
		AgentID: e.agent.ID(),
		Phase:   phase,
		Time:    k.now,
		Err:     err,
	}
	k.faults = append(k.faults, fault)
	e.status = agent.StatusFailed

	// A failed agent no longer receives or blocks delivery accounting.
	k.bus.Remove(e.agent.ID())

	observability.RecordFault(string(phase))
	k.log.Error("agent fault contained",
		"agent", fault.AgentID,
		"phase", string(fault.Phase),
		"sim_time", fault.Time,
		"error", err)
}
