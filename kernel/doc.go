// Package kernel implements the deterministic, time-stepped simulation
// scheduler.
//
// The kernel owns the agent registry, the current virtual time, the step size
// and the run duration. A single control goroutine drives the loop: for every
// live agent in registration order it drains the agent's inbound queue,
// delivers each message through the runtime boundary, invokes the agent's
// step, and publishes whatever the step emitted. Messages published by an
// agent at time t are therefore visible within the same iteration to agents
// later in registration order, and on the next iteration to agents earlier in
// it. This rule is fixed and tested; it is what makes runs reproducible
// without a second bus-flush phase.
//
// Every lifecycle call crosses the runtime boundary: an error return or a
// panic is converted into a recorded Fault, the agent moves to StatusFailed
// and is excluded from the rest of the run, and the loop continues. The run
// itself only aborts when every agent fails setup (ErrNoViableAgents) or on
// an external stop, which is a clean completion carrying a cancellation flag.
package kernel
