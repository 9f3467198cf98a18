package kernel

import (
	"context"
	"fmt"

	"github.com/leixiaohui-1974/CHS-sub001/envelope"
)

// Control queues a pause, resume or stop command. Safe to call from any
// goroutine while the run is in progress; the command takes effect at the
// next step boundary, never mid-step.
func (k *Kernel) Control(cmd envelope.ControlCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	select {
	case k.ctrl <- cmd:
		return nil
	default:
		return fmt.Errorf("control queue full, command %q dropped", cmd.Command)
	}
}

// checkControl drains pending control commands at a step boundary. It blocks
// while the run is paused and reports whether the loop should stop. Context
// cancellation is treated as a stop request: the loop exits cleanly with the
// last completed step's state intact.
func (k *Kernel) checkControl(ctx context.Context) (stop bool) {
	for {
		select {
		case <-ctx.Done():
			return true
		case cmd := <-k.ctrl:
			switch cmd.Command {
			case envelope.CommandStop:
				return true
			case envelope.CommandPause:
				if k.waitResume(ctx) {
					return true
				}
			case envelope.CommandResume:
				// Not paused; nothing to resume.
			}
		default:
			return false
		}
	}
}

// waitResume parks the loop until a resume or stop arrives. Returns true when
// the run should stop instead of resuming.
func (k *Kernel) waitResume(ctx context.Context) (stop bool) {
	k.emitStatus(envelope.StatusPaused, "")
	k.log.Info("run paused", "sim_time", k.now)

	for {
		select {
		case <-ctx.Done():
			return true
		case cmd := <-k.ctrl:
			switch cmd.Command {
			case envelope.CommandStop:
				return true
			case envelope.CommandResume:
				k.emitStatus(envelope.StatusRunning, "")
				k.log.Info("run resumed", "sim_time", k.now)
				return false
			case envelope.CommandPause:
				// Already paused.
			}
		}
	}
}
