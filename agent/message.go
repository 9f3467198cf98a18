package agent

import "fmt"

// Message is the unit of communication between agents. A message is created
// by an agent during its step, stamped by the kernel on publish, owned by the
// bus until delivered, and never mutated after creation.
type Message struct {
	// Topic is the /-separated address the message is published to. Topics
	// are a shared namespace; no agent owns a topic.
	Topic string

	// Sender is the id of the publishing agent. Set by the kernel on
	// publish; any value the agent puts here is overwritten.
	Sender string

	// Payload carries the message body. The kernel is agnostic to its
	// contents; collaborating agents agree on the shape per topic.
	Payload any

	// SimTime is the virtual time at which the message was published.
	// Set by the kernel on publish.
	SimTime float64
}

// NewMessage creates a message for the given topic. Sender and SimTime are
// filled in by the kernel when the message is published.
func NewMessage(topic string, payload any) *Message {
	return &Message{Topic: topic, Payload: payload}
}

func (m *Message) String() string {
	return fmt.Sprintf("Message{topic:%s sender:%s t:%g}", m.Topic, m.Sender, m.SimTime)
}
