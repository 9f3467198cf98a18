package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/leixiaohui-1974/CHS-sub001/agent"
	"github.com/leixiaohui-1974/CHS-sub001/envelope"
)

// Recorder is the logging collaborator: it subscribes to one or more
// patterns, keeps every delivery, logs it, and optionally writes each one to
// an io.Writer as a data_exchange envelope in JSON-lines form. Durable replay
// is whatever the writer makes of it; the kernel itself keeps no message log.
type Recorder struct {
	BaseAgent
	patterns []string
	runID    string
	log      *slog.Logger
	out      io.Writer

	records []*agent.Message
}

func init() {
	agent.Register("recorder", func(def agent.Def) (agent.Agent, error) {
		return NewRecorder(def, nil)
	})
}

// NewRecorder builds a recorder from its configuration. Parameters:
// patterns (list, required), run_id (stamped on exported envelopes).
// out may be nil, disabling envelope export.
func NewRecorder(def agent.Def, out io.Writer) (*Recorder, error) {
	r := &Recorder{
		BaseAgent: NewBaseAgent(def),
		runID:     def.GetString("run_id", ""),
		log:       slog.Default().With("agent", def.ID),
		out:       out,
	}
	if err := def.UnmarshalKey("patterns", &r.patterns); err != nil {
		return nil, fmt.Errorf("recorder %s: %w", def.ID, err)
	}
	if len(r.patterns) == 0 {
		return nil, fmt.Errorf("recorder %s: missing patterns parameter", def.ID)
	}
	return r, nil
}

func (r *Recorder) Setup(_ context.Context, sub agent.Subscriber) error {
	for _, p := range r.patterns {
		if err := sub.Subscribe(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) OnMessage(_ context.Context, msg *agent.Message) error {
	r.records = append(r.records, msg)
	r.log.Info("recorded", "topic", msg.Topic, "sender", msg.Sender, "sim_time", msg.SimTime)

	if r.out == nil {
		return nil
	}
	value, ok := numeric(msg.Payload)
	if !ok {
		return nil
	}
	env, err := envelope.New(r.runID, envelope.TypeDataExchange, envelope.DataExchange{
		Time: msg.SimTime,
		Signals: []envelope.Signal{{
			SourceComponent: msg.Sender,
			SourcePort:      msg.Topic,
			Value:           value,
		}},
	})
	if err != nil {
		return err
	}
	line, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(r.out, "%s\n", line)
	return err
}

// Records returns everything received so far, in delivery order.
func (r *Recorder) Records() []*agent.Message {
	return r.records
}

func numeric(payload any) (float64, bool) {
	switch v := payload.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
