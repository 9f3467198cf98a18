package agents

import (
	"context"
	"fmt"

	"github.com/leixiaohui-1974/CHS-sub001/agent"
)

// Inflow publishes a boundary-condition signal every step: either a constant
// value or a configured series indexed by step, holding the last sample once
// the series runs out. It is how measured or forecast inflows enter a run.
type Inflow struct {
	BaseAgent
	topic  string
	value  float64
	series []float64
	step   int
}

func init() {
	agent.Register("inflow", func(def agent.Def) (agent.Agent, error) {
		return NewInflow(def)
	})
}

// NewInflow builds an inflow source from its configuration. Parameters:
// topic (required), value (default 0) or series (list of per-step values).
func NewInflow(def agent.Def) (*Inflow, error) {
	topic := def.GetString("topic", "")
	if topic == "" {
		return nil, fmt.Errorf("inflow %s: missing topic parameter", def.ID)
	}

	in := &Inflow{
		BaseAgent: NewBaseAgent(def),
		topic:     topic,
		value:     def.GetFloat("value", 0),
	}
	if err := def.UnmarshalKey("series", &in.series); err != nil {
		return nil, fmt.Errorf("inflow %s: %w", def.ID, err)
	}
	return in, nil
}

func (in *Inflow) Step(_ context.Context, t, dt float64) ([]*agent.Message, error) {
	value := in.value
	if len(in.series) > 0 {
		idx := in.step
		if idx >= len(in.series) {
			idx = len(in.series) - 1 // hold the last sample
		}
		value = in.series[idx]
	}
	in.step++

	return []*agent.Message{agent.NewMessage(in.topic, value)}, nil
}
