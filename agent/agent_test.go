package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDef_GetString(t *testing.T) {
	def := Def{ID: "g1", Kind: "gate", Extra: map[string]any{"topic": "gate/opening", "limit": 0.5}}

	assert.Equal(t, "gate/opening", def.GetString("topic", ""))
	assert.Equal(t, "fallback", def.GetString("missing", "fallback"))
	// Wrong type falls back to the default.
	assert.Equal(t, "fallback", def.GetString("limit", "fallback"))
}

func TestDef_GetFloat(t *testing.T) {
	def := Def{Extra: map[string]any{"dt": 0.5, "steps": 10}}

	assert.Equal(t, 0.5, def.GetFloat("dt", 0))
	assert.Equal(t, 10.0, def.GetFloat("steps", 0)) // yaml ints decode as int
	assert.Equal(t, 2.0, def.GetFloat("missing", 2.0))
}

func TestDef_UnmarshalKey(t *testing.T) {
	def := Def{Extra: map[string]any{
		"series": []any{1.0, 2.0, 3.0},
		"gains":  map[string]any{"kp": 0.8, "ki": 0.1},
	}}

	var series []float64
	require.NoError(t, def.UnmarshalKey("series", &series))
	assert.Equal(t, []float64{1, 2, 3}, series)

	var gains struct {
		Kp float64 `json:"kp"`
		Ki float64 `json:"ki"`
	}
	require.NoError(t, def.UnmarshalKey("gains", &gains))
	assert.Equal(t, 0.8, gains.Kp)

	// Absent keys are not an error; the target is left untouched.
	var absent []float64
	require.NoError(t, def.UnmarshalKey("nope", &absent))
	assert.Nil(t, absent)
}

type nullAgent struct{ id, kind string }

func (n *nullAgent) ID() string   { return n.id }
func (n *nullAgent) Kind() string { return n.kind }
func (n *nullAgent) Setup(context.Context, Subscriber) error { return nil }
func (n *nullAgent) OnMessage(context.Context, *Message) error { return nil }
func (n *nullAgent) Step(context.Context, float64, float64) ([]*Message, error) {
	return nil, nil
}
func (n *nullAgent) Shutdown(context.Context) error { return nil }

func TestRegistry_CreateWithRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("null", func(def Def) (Agent, error) {
		return &nullAgent{id: def.ID, kind: def.Kind}, nil
	})

	a, err := CreateWithRegistry(Def{ID: "n1", Kind: "null"}, reg)
	require.NoError(t, err)
	assert.Equal(t, "n1", a.ID())
	assert.Equal(t, "null", a.Kind())

	_, err = CreateWithRegistry(Def{ID: "x", Kind: "bogus"}, reg)
	assert.ErrorContains(t, err, "unknown agent kind")

	_, err = CreateWithRegistry(Def{Kind: "null"}, reg)
	assert.ErrorContains(t, err, "missing id")
}

func TestStatus_String(t *testing.T) {
	cases := map[Status]string{
		StatusCreated:  "created",
		StatusReady:    "ready",
		StatusRunning:  "running",
		StatusFailed:   "failed",
		StatusShutDown: "shutdown",
	}
	for s, want := range cases {
		assert.Equal(t, want, s.String())
	}
	assert.True(t, StatusReady.Live())
	assert.True(t, StatusRunning.Live())
	assert.False(t, StatusFailed.Live())
	assert.False(t, StatusShutDown.Live())
}
