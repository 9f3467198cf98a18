package agent

import "context"

// Subscriber is the bus surface an agent sees during Setup. Subscription
// patterns use /-separated segments with an optional terminal # wildcard.
type Subscriber interface {
	// Subscribe registers interest in a topic pattern. Subscribing twice to
	// the identical pattern is idempotent. An invalid pattern (wildcard not
	// in terminal position) is rejected and fails the agent's setup.
	Subscribe(pattern string) error
}

// Agent is the interface every simulated component must implement.
//
// All calls are made from the kernel's single control goroutine, in
// registration order, so implementations do not need internal locking unless
// they share state with goroutines of their own. A call that returns an error
// or panics moves the agent to StatusFailed permanently; agents are not
// presumed re-enterable after a fault.
type Agent interface {
	// ID returns the unique, stable identifier for this agent instance.
	ID() string

	// Kind returns the agent's kind (e.g. "inflow", "recorder").
	Kind() string

	// Setup prepares the agent and declares its subscriptions. It runs once
	// before the first step. A setup failure excludes the agent from the run
	// without aborting it.
	Setup(ctx context.Context, sub Subscriber) error

	// OnMessage delivers one queued inbound message. Messages arrive in
	// publish order, all of them drained before the agent's Step call.
	// The message is owned by the receiver from this point on but must be
	// treated as immutable.
	OnMessage(ctx context.Context, msg *Message) error

	// Step advances the agent's internal model from virtual time t to t+dt.
	// Returned messages are published immediately, so agents later in
	// registration order can see them within the same iteration.
	Step(ctx context.Context, t, dt float64) ([]*Message, error)

	// Shutdown releases resources at the end of the run.
	Shutdown(ctx context.Context) error
}

// MeasurementTaker is an optional capability for agents that fuse an external
// measurement into their predicted state. The kernel subscribes the agent to
// the returned topic during setup; combining prediction and measurement is
// entirely the agent's concern (see the fusion package).
type MeasurementTaker interface {
	MeasurementTopic() string
}
