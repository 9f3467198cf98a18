package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WireShape(t *testing.T) {
	env, err := New("run-42", TypeSimulationStatus, SimulationStatus{Status: StatusCompleted, Cancelled: true})
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	// Field names on the wire are fixed; external collaborators parse them.
	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Contains(t, wire, "timestamp")
	assert.Contains(t, wire, "run_id")
	assert.Contains(t, wire, "message_type")
	assert.Contains(t, wire, "payload")

	var roundTrip Envelope
	require.NoError(t, json.Unmarshal(raw, &roundTrip))
	var status SimulationStatus
	require.NoError(t, roundTrip.Decode(&status))
	assert.Equal(t, StatusCompleted, status.Status)
	assert.True(t, status.Cancelled)
}

func TestControlCommand_Validate(t *testing.T) {
	assert.NoError(t, ControlCommand{Command: CommandPause}.Validate())
	assert.NoError(t, ControlCommand{Command: CommandResume}.Validate())
	assert.NoError(t, ControlCommand{Command: CommandStop}.Validate())
	assert.Error(t, ControlCommand{Command: "restart"}.Validate())
	assert.Error(t, ControlCommand{}.Validate())
}

func TestDataExchange_Decode(t *testing.T) {
	env, err := New("run-1", TypeDataExchange, DataExchange{
		Time: 4,
		Signals: []Signal{
			{SourceComponent: "tank1", SourcePort: "tank1/level", Value: 2.5},
		},
	})
	require.NoError(t, err)

	var de DataExchange
	require.NoError(t, env.Decode(&de))
	require.Len(t, de.Signals, 1)
	assert.Equal(t, "tank1", de.Signals[0].SourceComponent)
	assert.Equal(t, 2.5, de.Signals[0].Value)
}

func TestEnvelope_DecodeEmptyPayload(t *testing.T) {
	var env Envelope
	assert.Error(t, env.Decode(&SimulationStatus{}))
}
