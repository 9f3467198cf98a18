package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leixiaohui-1974/CHS-sub001/agent"
	"github.com/leixiaohui-1974/CHS-sub001/bus"
	"github.com/leixiaohui-1974/CHS-sub001/envelope"
	"github.com/leixiaohui-1974/CHS-sub001/pkg/observability"
)

// ErrNoViableAgents is returned when every registered agent failed setup and
// the run aborts before the first step.
var ErrNoViableAgents = errors.New("no viable agents: every agent failed setup")

// Config holds the run parameters. DT and Duration are in virtual seconds.
type Config struct {
	RunID    string
	DT       float64
	Duration float64
}

// EnvelopeSink receives the externally visible message stream: status
// transitions always, mirrored data_exchange messages when export is enabled.
type EnvelopeSink func(envelope.Envelope)

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(k *Kernel) { k.log = log }
}

// WithEnvelopeSink attaches a sink for simulation_status envelopes.
func WithEnvelopeSink(sink EnvelopeSink) Option {
	return func(k *Kernel) { k.sink = sink }
}

// WithMessageExport mirrors every published message with a numeric payload to
// the envelope sink as a data_exchange envelope.
func WithMessageExport() Option {
	return func(k *Kernel) { k.exportData = true }
}

type entry struct {
	agent  agent.Agent
	status agent.Status
}

// Kernel is the simulation scheduler. Construct with New, add agents with
// Register, then call Run once.
type Kernel struct {
	cfg    Config
	bus    *bus.Bus
	log    *slog.Logger
	tracer trace.Tracer

	entries []*entry
	byID    map[string]*entry

	ctrl chan envelope.ControlCommand

	sink       EnvelopeSink
	exportData bool

	now       float64
	cancelled bool
	started   bool
	faults    []Fault
}

// New creates a kernel for one run. A zero or negative DT or Duration is a
// malformed configuration and is rejected here, before any agent is touched.
func New(cfg Config, opts ...Option) (*Kernel, error) {
	if cfg.DT <= 0 {
		return nil, fmt.Errorf("kernel config: dt must be > 0, got %g", cfg.DT)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("kernel config: duration must be > 0, got %g", cfg.Duration)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	k := &Kernel{
		cfg:    cfg,
		bus:    bus.New(),
		log:    slog.Default(),
		tracer: otel.Tracer("github.com/leixiaohui-1974/CHS-sub001/kernel"),
		byID:   make(map[string]*entry),
		ctrl:   make(chan envelope.ControlCommand, 64),
	}
	for _, opt := range opts {
		opt(k)
	}
	k.log = k.log.With("run_id", cfg.RunID)
	return k, nil
}

// RunID returns the identifier stamped on this run's envelopes.
func (k *Kernel) RunID() string { return k.cfg.RunID }

// Register adds an agent to the registry. Registration order is the
// invocation order inside every step and must not change between runs that
// are expected to be reproducible.
func (k *Kernel) Register(a agent.Agent) error {
	if k.started {
		return fmt.Errorf("cannot register agent %s: run already started", a.ID())
	}
	if _, exists := k.byID[a.ID()]; exists {
		return fmt.Errorf("agent %s already registered", a.ID())
	}
	e := &entry{agent: a, status: agent.StatusCreated}
	k.entries = append(k.entries, e)
	k.byID[a.ID()] = e
	return nil
}

// Status returns the lifecycle status of a registered agent.
func (k *Kernel) Status(agentID string) (agent.Status, bool) {
	e, ok := k.byID[agentID]
	if !ok {
		return 0, false
	}
	return e.status, true
}

// Faults returns the fault records collected so far, in occurrence order.
func (k *Kernel) Faults() []Fault {
	out := make([]Fault, len(k.faults))
	copy(out, k.faults)
	return out
}

// Report summarizes a finished run.
type Report struct {
	RunID     string
	Steps     int
	FinalTime float64
	Cancelled bool
	Faults    []Fault
	Statuses  map[string]agent.Status
}

// Run executes the simulation to completion. It returns ErrNoViableAgents
// when every agent fails setup; an external stop command or context
// cancellation ends the run cleanly with Report.Cancelled set. Agent faults
// never surface as an error here.
func (k *Kernel) Run(ctx context.Context) (*Report, error) {
	if k.started {
		return nil, errors.New("kernel already ran")
	}
	k.started = true

	ctx, span := k.tracer.Start(ctx, "kernel.run",
		trace.WithAttributes(
			attribute.String("run_id", k.cfg.RunID),
			attribute.Float64("dt", k.cfg.DT),
			attribute.Float64("duration", k.cfg.Duration),
			attribute.Int("agents", len(k.entries)),
		))
	defer span.End()

	k.emitStatus(envelope.StatusInitializing, "")
	if viable := k.setup(ctx); viable == 0 {
		k.emitStatus(envelope.StatusFailed, ErrNoViableAgents.Error())
		return k.report(0), ErrNoViableAgents
	}

	k.emitStatus(envelope.StatusRunning, "")
	steps := k.loop(ctx)
	k.shutdown(ctx)
	k.emitStatus(envelope.StatusCompleted, "")

	report := k.report(steps)
	k.log.Info("run finished",
		"steps", report.Steps,
		"final_time", report.FinalTime,
		"cancelled", report.Cancelled,
		"faults", len(report.Faults))
	return report, nil
}

// setup brings every registered agent from Created to Ready, honoring the
// runtime boundary, and returns the number of viable agents. Agents with the
// MeasurementTaker capability are subscribed to their measurement topic
// before their own Setup runs.
func (k *Kernel) setup(ctx context.Context) int {
	viable := 0
	for _, e := range k.entries {
		binding := &setupBinding{bus: k.bus, id: e.agent.ID()}
		if mt, ok := e.agent.(agent.MeasurementTaker); ok {
			_ = binding.Subscribe(mt.MeasurementTopic())
		}
		ok := k.invoke(ctx, e, PhaseSetup, func(ctx context.Context) error {
			if err := e.agent.Setup(ctx, binding); err != nil {
				return err
			}
			// A rejected pattern fails setup even when the agent
			// ignored the Subscribe return value.
			return binding.err
		})
		if ok {
			e.status = agent.StatusReady
			viable++
			k.log.Debug("agent ready", "agent", e.agent.ID(), "kind", e.agent.Kind())
		}
	}
	observability.SetLiveAgents(viable)
	return viable
}

// loop drives virtual time from 0 toward the configured duration, one dt per
// iteration, and returns the number of iterations executed. Virtual time is
// derived from the step index so that accumulated floating-point error cannot
// change the iteration count.
func (k *Kernel) loop(ctx context.Context) int {
	total := int(math.Ceil(k.cfg.Duration/k.cfg.DT - 1e-9))

	completed := 0
	for i := 0; i < total; i++ {
		k.now = float64(i) * k.cfg.DT

		stop := k.checkControl(ctx)
		if stop {
			k.cancelled = true
			k.log.Info("run stopped by external request", "sim_time", k.now, "steps_done", completed)
			break
		}

		k.step(ctx, i)
		completed++
	}
	k.now = float64(completed) * k.cfg.DT
	return completed
}

// step runs one iteration: every live agent, in registration order, first
// receives its queued messages, then advances by dt, and its emitted messages
// are published immediately.
func (k *Kernel) step(ctx context.Context, index int) {
	start := time.Now()
	ctx, span := k.tracer.Start(ctx, "kernel.step",
		trace.WithAttributes(
			attribute.Int("step", index),
			attribute.Float64("sim_time", k.now),
		))
	defer span.End()

	live := 0
	for _, e := range k.entries {
		if !e.status.Live() {
			continue
		}

		if !k.deliver(ctx, e) {
			continue // failed while handling a message; step is skipped
		}

		var out []*agent.Message
		ok := k.invoke(ctx, e, PhaseStep, func(ctx context.Context) error {
			var err error
			out, err = e.agent.Step(ctx, k.now, k.cfg.DT)
			return err
		})
		if !ok {
			continue
		}
		e.status = agent.StatusRunning
		live++

		for _, msg := range out {
			if msg == nil {
				continue
			}
			k.publish(e, msg)
		}
	}

	observability.SetLiveAgents(live)
	observability.RecordStep(time.Since(start))
}

// deliver drains and hands over the agent's inbound queue. Returns false when
// a message handler faulted; the remaining drained messages are dropped with
// the agent, which is no longer presumed safe to re-enter.
func (k *Kernel) deliver(ctx context.Context, e *entry) bool {
	for _, msg := range k.bus.Drain(e.agent.ID()) {
		msg := msg
		ok := k.invoke(ctx, e, PhaseMessage, func(ctx context.Context) error {
			return e.agent.OnMessage(ctx, msg)
		})
		if !ok {
			return false
		}
	}
	return true
}

// publish stamps and routes one outgoing message.
func (k *Kernel) publish(e *entry, msg *agent.Message) {
	msg.Sender = e.agent.ID()
	msg.SimTime = k.now

	deliveries := k.bus.Publish(msg)
	observability.RecordPublish(deliveries)

	if k.exportData {
		k.exportMessage(msg)
	}
}

// shutdown gives every agent a shutdown attempt at run end. A failure during
// a live agent's shutdown is a recorded fault; a Failed agent's shutdown
// errors are swallowed and logged only, since the agent is already terminal.
func (k *Kernel) shutdown(ctx context.Context) {
	for _, e := range k.entries {
		if e.status == agent.StatusFailed {
			k.invokeQuiet(ctx, e, func(ctx context.Context) error {
				return e.agent.Shutdown(ctx)
			})
			continue
		}
		ok := k.invoke(ctx, e, PhaseShutdown, func(ctx context.Context) error {
			return e.agent.Shutdown(ctx)
		})
		if ok {
			e.status = agent.StatusShutDown
		}
		k.bus.Remove(e.agent.ID())
	}
}

func (k *Kernel) report(steps int) *Report {
	statuses := make(map[string]agent.Status, len(k.entries))
	for _, e := range k.entries {
		statuses[e.agent.ID()] = e.status
	}
	return &Report{
		RunID:     k.cfg.RunID,
		Steps:     steps,
		FinalTime: k.now,
		Cancelled: k.cancelled,
		Faults:    k.Faults(),
		Statuses:  statuses,
	}
}

// emitStatus sends a simulation_status envelope to the sink, if any.
func (k *Kernel) emitStatus(status, errInfo string) {
	k.log.Info("simulation status", "status", status)
	if k.sink == nil {
		return
	}
	payload := envelope.SimulationStatus{
		Status:    status,
		ErrorInfo: errInfo,
		Cancelled: status == envelope.StatusCompleted && k.cancelled,
	}
	env, err := envelope.New(k.cfg.RunID, envelope.TypeSimulationStatus, payload)
	if err != nil {
		k.log.Error("encode status envelope", "error", err)
		return
	}
	k.sink(env)
}

// exportMessage mirrors a published message as a data_exchange envelope.
// Messages without a numeric payload are not exported.
func (k *Kernel) exportMessage(msg *agent.Message) {
	if k.sink == nil {
		return
	}
	value, ok := signalValue(msg.Payload)
	if !ok {
		return
	}
	payload := envelope.DataExchange{
		Time: msg.SimTime,
		Signals: []envelope.Signal{{
			SourceComponent: msg.Sender,
			SourcePort:      msg.Topic,
			Value:           value,
		}},
	}
	env, err := envelope.New(k.cfg.RunID, envelope.TypeDataExchange, payload)
	if err != nil {
		k.log.Error("encode data envelope", "error", err)
		return
	}
	k.sink(env)
}

func signalValue(payload any) (float64, bool) {
	switch v := payload.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case map[string]any:
		if inner, ok := v["value"]; ok {
			return signalValue(inner)
		}
	}
	return 0, false
}

// setupBinding is the Subscriber handed to an agent during Setup. The first
// subscription error sticks so the kernel can fail the setup even when the
// agent discards it.
type setupBinding struct {
	bus *bus.Bus
	id  string
	err error
}

func (s *setupBinding) Subscribe(pattern string) error {
	if err := s.bus.Subscribe(s.id, pattern); err != nil {
		if s.err == nil {
			s.err = err
		}
		return err
	}
	return nil
}
