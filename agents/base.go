package agents

import (
	"context"

	"github.com/leixiaohui-1974/CHS-sub001/agent"
)

// BaseAgent carries the id/kind plumbing and no-op lifecycle defaults.
// Embed it and override the calls your agent actually needs.
type BaseAgent struct {
	id   string
	kind string
}

// NewBaseAgent creates the embeddable base from a configuration entry.
func NewBaseAgent(def agent.Def) BaseAgent {
	return BaseAgent{id: def.ID, kind: def.Kind}
}

func (b *BaseAgent) ID() string   { return b.id }
func (b *BaseAgent) Kind() string { return b.kind }

func (b *BaseAgent) Setup(context.Context, agent.Subscriber) error { return nil }

func (b *BaseAgent) OnMessage(context.Context, *agent.Message) error { return nil }

func (b *BaseAgent) Step(context.Context, float64, float64) ([]*agent.Message, error) {
	return nil, nil
}

func (b *BaseAgent) Shutdown(context.Context) error { return nil }
