package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/plugin/ai/timeout"
)

// Dispatcher runs one turn: it starts at the router and follows NextAgent
// until an agent leaves it unset.
//
// Dispatcher 负责单轮调度：从 router 出发，沿 NextAgent 依次调用，直到无下一个 agent。
type Dispatcher struct {
	registry *Registry
	hopLimit int
	metrics  *Metrics
}

// NewDispatcher creates a dispatcher. hopLimit defaults to timeout.MaxHops; metrics may be nil.
func NewDispatcher(registry *Registry, hopLimit int, metrics *Metrics) *Dispatcher {
	if hopLimit <= 0 {
		hopLimit = timeout.MaxHops
	}
	return &Dispatcher{registry: registry, hopLimit: hopLimit, metrics: metrics}
}

// HopLimit returns the configured bound on agent invocations per turn.
func (d *Dispatcher) HopLimit() int {
	return d.hopLimit
}

// RunTurn routes initial through the agent graph and returns the final state.
// initial is never modified. On a fault the returned state is a copy of initial
// carrying only an apology reply, and the error wraps ErrHopLimitExceeded,
// ErrUnknownAgent or ErrAgentFailed.
func (d *Dispatcher) RunTurn(ctx context.Context, initial *State) (*State, error) {
	start := time.Now()
	st := initial.Clone()
	current := AgentRouter
	hops := 0

	for current != "" {
		hops++
		if hops > d.hopLimit {
			return d.fault(initial, hops-1, start, MsgInternalFault,
				errors.Wrapf(ErrHopLimitExceeded, "limit %d, trace %v", d.hopLimit, st.Trace))
		}

		st.NextAgent = ""
		a, ok := d.registry.Get(current)
		if !ok {
			return d.fault(initial, hops-1, start, MsgUnknownAgent,
				errors.Wrapf(ErrUnknownAgent, "%q", current))
		}

		callStart := time.Now()
		err := safeHandle(ctx, a, st)
		if d.metrics != nil {
			d.metrics.RecordAgentCall(current, time.Since(callStart), err == nil)
		}
		st.Trace = append(st.Trace, current)
		if err != nil {
			return d.fault(initial, hops, start, MsgInternalFault,
				errors.Wrapf(ErrAgentFailed, "%s: %v", current, err))
		}
		current = st.NextAgent
	}

	if d.metrics != nil {
		d.metrics.RecordTurn(time.Since(start), hops, true)
	}
	slog.Debug("turn dispatched",
		"session_id", st.SessionID,
		"trace", st.Trace,
		"steps", len(st.Steps),
		"duration_ms", time.Since(start).Milliseconds())
	return st, nil
}

// fault logs err and returns a clean copy of initial with an apology.
func (d *Dispatcher) fault(initial *State, hops int, start time.Time, key MsgKey, err error) (*State, error) {
	slog.Error("turn aborted",
		"session_id", initial.SessionID,
		"hops", hops,
		"error", err)
	if d.metrics != nil {
		d.metrics.RecordTurn(time.Since(start), hops, false)
		d.metrics.RecordFault(err)
	}
	out := initial.Clone()
	out.NextAgent = ""
	out.Reply = out.T(key)
	return out, err
}
