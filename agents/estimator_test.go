package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leixiaohui-1974/CHS-sub001/agent"
)

func newTestEstimator(t *testing.T, extra map[string]any) *Estimator {
	t.Helper()
	base := map[string]any{
		"measurement_topic": "obs/tank1/level",
		"out_topic":         "state/tank1/level",
	}
	for k, v := range extra {
		base[k] = v
	}
	e, err := NewEstimator(agent.Def{ID: "est1", Kind: "estimator", Extra: base})
	require.NoError(t, err)
	return e
}

func TestEstimator_RequiresTopics(t *testing.T) {
	_, err := NewEstimator(agent.Def{ID: "est1", Kind: "estimator"})
	assert.ErrorContains(t, err, "required")
}

func TestEstimator_DeclaresCapability(t *testing.T) {
	e := newTestEstimator(t, nil)
	var taker agent.MeasurementTaker = e
	assert.Equal(t, "obs/tank1/level", taker.MeasurementTopic())
}

func TestEstimator_PredictsWithoutMeasurements(t *testing.T) {
	e := newTestEstimator(t, map[string]any{
		"initial_value":    10.0,
		"drift":            0.5,
		"process_variance": 0.0,
	})

	out, err := e.Step(context.Background(), 0, 2)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "state/tank1/level", out[0].Topic)
	assert.InDelta(t, 11.0, out[0].Payload.(float64), 1e-12)
}

func TestEstimator_FusesMeasurement(t *testing.T) {
	e := newTestEstimator(t, map[string]any{
		"initial_value":        10.0,
		"initial_variance":     4.0,
		"process_variance":     0.0,
		"measurement_variance": 4.0,
	})

	msg := agent.NewMessage("obs/tank1/level", 12.0)
	require.NoError(t, e.OnMessage(context.Background(), msg))

	out, err := e.Step(context.Background(), 0, 1)
	require.NoError(t, err)

	// Equal variances: the corrected estimate is the mean and the variance
	// halves.
	assert.InDelta(t, 11.0, out[0].Payload.(float64), 1e-12)
	_, variance := e.Estimate()
	assert.InDelta(t, 2.0, variance, 1e-12)
}

func TestEstimator_RejectsNonNumericMeasurement(t *testing.T) {
	e := newTestEstimator(t, nil)
	err := e.OnMessage(context.Background(), agent.NewMessage("obs/tank1/level", "not a number"))
	assert.Error(t, err)
}

func TestEstimator_VarianceShrinksWithMeasurements(t *testing.T) {
	e := newTestEstimator(t, map[string]any{
		"initial_variance":     9.0,
		"process_variance":     0.0,
		"measurement_variance": 9.0,
	})

	_, before := e.Estimate()
	for i := 0; i < 3; i++ {
		require.NoError(t, e.OnMessage(context.Background(), agent.NewMessage("obs/tank1/level", 1.0)))
		_, err := e.Step(context.Background(), float64(i), 1)
		require.NoError(t, err)
	}
	_, after := e.Estimate()
	assert.Less(t, after, before)
}
