package bus

import (
	"sync"

	"github.com/leixiaohui-1974/CHS-sub001/agent"
)

// Bus routes published messages to subscriber queues.
type Bus struct {
	mu    sync.RWMutex
	subs  map[string]*subscriber
	order []string // subscriber registration order, for deterministic iteration
}

type subscriber struct {
	id       string
	patterns []string
	queue    []*agent.Message
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string]*subscriber)}
}

// Subscribe registers agentID's interest in pattern. Duplicate identical
// subscriptions are idempotent; the agent still receives each matching
// message once.
func (b *Bus) Subscribe(agentID, pattern string) error {
	if err := ValidatePattern(pattern); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := b.subs[agentID]
	if sub == nil {
		sub = &subscriber{id: agentID}
		b.subs[agentID] = sub
		b.order = append(b.order, agentID)
	}
	for _, p := range sub.patterns {
		if p == pattern {
			return nil
		}
	}
	sub.patterns = append(sub.patterns, pattern)
	return nil
}

// Publish evaluates every active subscription against msg.Topic and enqueues
// the message exactly once per matching subscriber. It returns the number of
// queues the message was enqueued to.
func (b *Bus) Publish(msg *agent.Message) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, id := range b.order {
		sub := b.subs[id]
		for _, p := range sub.patterns {
			if Matches(p, msg.Topic) {
				sub.queue = append(sub.queue, msg)
				delivered++
				break
			}
		}
	}
	return delivered
}

// Drain returns and clears all messages queued for agentID since the last
// drain, in publish order. Once drained the messages are gone from the bus.
func (b *Bus) Drain(agentID string) []*agent.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := b.subs[agentID]
	if sub == nil || len(sub.queue) == 0 {
		return nil
	}
	queue := sub.queue
	sub.queue = nil
	return queue
}

// Remove drops all subscriptions and queued messages for agentID. Called when
// an agent fails or shuts down so it no longer participates in delivery
// accounting.
func (b *Bus) Remove(agentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[agentID]; !ok {
		return
	}
	delete(b.subs, agentID)
	for i, id := range b.order {
		if id == agentID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Patterns returns the active patterns for agentID in subscription order.
func (b *Bus) Patterns(agentID string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sub := b.subs[agentID]
	if sub == nil {
		return nil
	}
	out := make([]string, len(sub.patterns))
	copy(out, sub.patterns)
	return out
}

// Pending returns the number of undelivered messages queued for agentID.
func (b *Bus) Pending(agentID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if sub := b.subs[agentID]; sub != nil {
		return len(sub.queue)
	}
	return 0
}
