// Package bus implements the topic-based publish/subscribe message bus that
// connects simulation agents.
//
// Topics are /-separated segment strings. A subscription pattern may end in
// the multi-level wildcard segment #, which matches zero or more trailing
// topic segments; a wildcard anywhere else is rejected at subscribe time.
//
// The bus keeps one FIFO queue per subscriber. Publish enqueues a message
// exactly once per matching subscriber even when several of that subscriber's
// patterns match, and Drain hands the queue over in publish order. The
// scheduler's single control goroutine owns all mutation; the internal lock
// only guards against auxiliary readers such as metrics endpoints.
package bus
