package agent

// Status is the lifecycle state of a registered agent.
//
// Transitions: Created → Ready (successful setup) → Running (first successful
// step) → ShutDown (successful shutdown at run end). Any boundary-caught fault
// moves the agent to Failed, which is terminal: a Failed agent receives no
// further step invocations or message deliveries for the rest of the run.
type Status int

const (
	StatusCreated Status = iota
	StatusReady
	StatusRunning
	StatusFailed
	StatusShutDown
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusFailed:
		return "failed"
	case StatusShutDown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Live reports whether the agent still participates in the step loop.
func (s Status) Live() bool {
	return s == StatusReady || s == StatusRunning
}
