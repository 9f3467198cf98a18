package agents

import (
	"context"
	"fmt"

	"github.com/leixiaohui-1974/CHS-sub001/agent"
	"github.com/leixiaohui-1974/CHS-sub001/fusion"
)

// Estimator tracks a scalar quantity with a linear drift model and corrects
// it against external measurements. It declares the MeasurementTaker
// capability, so the kernel subscribes it to its measurement topic; each step
// it predicts forward, fuses any measurement received since the last step,
// and publishes the corrected estimate.
type Estimator struct {
	BaseAgent
	measurementTopic string
	outTopic         string
	drift            float64 // state change per virtual second
	processVar       float64 // variance added per virtual second
	measurementVar   float64

	x, p float64

	pending []float64
}

func init() {
	agent.Register("estimator", func(def agent.Def) (agent.Agent, error) {
		return NewEstimator(def)
	})
}

// NewEstimator builds an estimator from its configuration. Parameters:
// measurement_topic and out_topic (required), initial_value, initial_variance,
// drift, process_variance, measurement_variance.
func NewEstimator(def agent.Def) (*Estimator, error) {
	mt := def.GetString("measurement_topic", "")
	out := def.GetString("out_topic", "")
	if mt == "" || out == "" {
		return nil, fmt.Errorf("estimator %s: measurement_topic and out_topic are required", def.ID)
	}

	return &Estimator{
		BaseAgent:        NewBaseAgent(def),
		measurementTopic: mt,
		outTopic:         out,
		drift:            def.GetFloat("drift", 0),
		processVar:       def.GetFloat("process_variance", 0.01),
		measurementVar:   def.GetFloat("measurement_variance", 1),
		x:                def.GetFloat("initial_value", 0),
		p:                def.GetFloat("initial_variance", 1),
	}, nil
}

// MeasurementTopic declares the state-fusion capability.
func (e *Estimator) MeasurementTopic() string { return e.measurementTopic }

func (e *Estimator) OnMessage(_ context.Context, msg *agent.Message) error {
	z, ok := numeric(msg.Payload)
	if !ok {
		return fmt.Errorf("estimator %s: non-numeric measurement on %s", e.ID(), msg.Topic)
	}
	e.pending = append(e.pending, z)
	return nil
}

func (e *Estimator) Step(_ context.Context, t, dt float64) ([]*agent.Message, error) {
	// Predict.
	e.x += e.drift * dt
	e.p += e.processVar * dt

	// Correct with every measurement received since the last step, in
	// delivery order.
	for _, z := range e.pending {
		e.x, e.p = fusion.FuseScalar(e.x, e.p, z, e.measurementVar)
	}
	e.pending = e.pending[:0]

	return []*agent.Message{agent.NewMessage(e.outTopic, e.x)}, nil
}

// Estimate returns the current value and variance, mainly for inspection.
func (e *Estimator) Estimate() (value, variance float64) {
	return e.x, e.p
}
