// Package agent defines the contract between the simulation kernel and the
// units of simulated behavior it drives.
//
// An Agent is an independently implemented model or controller with private
// internal state. The kernel never inspects that state; all interaction goes
// through the lifecycle calls (Setup, OnMessage, Step, Shutdown) and all
// cross-agent influence flows through published messages.
//
// Agent kinds are registered with a factory so that a simulation can be
// assembled from a configuration file:
//
//	func init() {
//		agent.Register("inflow", func(def agent.Def) (agent.Agent, error) {
//			return NewInflow(def)
//		})
//	}
//
// Optional capabilities are expressed as additional interfaces checked at
// registration time rather than via embedding a mandatory base type. An agent
// that implements MeasurementTaker is subscribed to its measurement topic by
// the kernel before Setup runs.
package agent
