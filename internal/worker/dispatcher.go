package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/charging-platform/cs-simulator/internal/logger"
	"github.com/charging-platform/cs-simulator/internal/metrics"
	"github.com/charging-platform/cs-simulator/internal/ocpp"
	"github.com/charging-platform/cs-simulator/internal/perfstats"
)

// Dispatcher routes incoming RequestEnvelopes to the Command Handler
// Table, fans each out to every targeted station, classifies the
// resulting OCPP response (or absence of one), and publishes exactly one
// ResponseEnvelope per targeted station back onto the Channel (§4.5-4.7).
type Dispatcher struct {
	registry *Registry
	channel  Channel
	perf     *perfstats.Recorder
	log      *logger.Logger
}

// NewDispatcher builds a Dispatcher bound to registry and channel.
func NewDispatcher(registry *Registry, channel Channel, perf *perfstats.Recorder, log *logger.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, channel: channel, perf: perf, log: log}
}

// Run subscribes to channel and dispatches every RequestEnvelope it
// receives until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	reqs, err := d.channel.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-reqs:
			if !ok {
				return nil
			}
			go d.dispatch(ctx, req)
		}
	}
}

// targets resolves an envelope's hashIds payload field into the concrete
// hashId list every handler invocation is scoped to. An envelope naming no
// hashIds targets every station this process owns. The legacy singular
// hashId field is never consulted here: dispatch() drops those envelopes
// outright before targets() is called.
func (d *Dispatcher) targets(req RequestEnvelope) []string {
	if ids := req.Payload.HashIds(); len(ids) > 0 {
		return ids
	}
	return d.registry.HashIds()
}

// strippedPayload removes the targeting fields (hashId, hashIds) before
// handing the payload to a handler; connectorIds is left intact since
// several handlers (ATG start/stop) read it themselves to scope their
// effect within one station.
func strippedPayload(p RequestPayload) RequestPayload {
	out := make(RequestPayload, len(p))
	for k, v := range p {
		if k == "hashId" || k == "hashIds" {
			continue
		}
		out[k] = v
	}
	return out
}

func (d *Dispatcher) dispatch(ctx context.Context, req RequestEnvelope) {
	if legacyId, ok := req.Payload.HashId(); ok {
		d.errorf("dropping request %s: legacy hashId field %q is deprecated, use hashIds", req.UUID, legacyId)
		return
	}

	handler, ok := handlerTable[req.Command]
	if !ok {
		unknown := &BaseError{Message: fmt.Sprintf("no handler registered for command %q", req.Command)}
		d.publish(req, ResponsePayload{
			Status:       StatusFailure,
			Command:      req.Command,
			ErrorMessage: unknown.Error(),
		})
		return
	}

	payload := strippedPayload(req.Payload)
	hashIds := d.targets(req)
	if len(hashIds) == 0 {
		d.publish(req, ResponsePayload{
			Status:       StatusFailure,
			Command:      req.Command,
			ErrorMessage: "no charging stations matched this request",
		})
		return
	}

	for _, hashId := range hashIds {
		d.invokeOne(ctx, req, hashId, handler, payload)
	}
}

// invokeOne guarantees exactly one ResponseEnvelope is published for
// hashId, whatever the handler does: a thrown Go error, a panic, or a
// returned OCPP response all resolve to one publish call.
func (d *Dispatcher) invokeOne(ctx context.Context, req RequestEnvelope, hashId string, handler handlerFunc, payload RequestPayload) {
	tok := d.perf.BeginMeasure(string(req.Command))
	defer d.perf.EndMeasure(string(req.Command), tok)

	defer func() {
		if r := recover(); r != nil {
			d.publish(req, ResponsePayload{
				HashId:         hashId,
				Status:         StatusFailure,
				Command:        req.Command,
				RequestPayload: payload,
				ErrorMessage:   fmt.Sprintf("panic: %v", r),
				ErrorStack:     string(debug.Stack()),
			})
			metrics.CommandsDispatched.WithLabelValues(string(req.Command), string(StatusFailure)).Inc()
		}
	}()

	entity, err := d.registry.Get(hashId)
	if err != nil {
		d.publish(req, ResponsePayload{
			HashId:         hashId,
			Status:         StatusFailure,
			Command:        req.Command,
			RequestPayload: payload,
			ErrorMessage:   err.Error(),
		})
		metrics.CommandsDispatched.WithLabelValues(string(req.Command), string(StatusFailure)).Inc()
		return
	}

	resp, err := handler(ctx, entity, payload)
	if err != nil {
		failure := ResponsePayload{
			HashId:         hashId,
			Status:         StatusFailure,
			Command:        req.Command,
			RequestPayload: payload,
			ErrorMessage:   err.Error(),
		}
		var ocppErr *ocpp.OCPPError
		if errors.As(err, &ocppErr) {
			failure.ErrorMessage = ocppErr.Message
			failure.ErrorDetails = map[string]interface{}{"code": ocppErr.Code, "details": ocppErr.Details}
		}
		d.publish(req, failure)
		metrics.CommandsDispatched.WithLabelValues(string(req.Command), string(StatusFailure)).Inc()
		return
	}

	status := StatusSuccess
	if !classify(req.Command, resp) {
		status = StatusFailure
	}
	d.publish(req, ResponsePayload{
		HashId:          hashId,
		Status:          status,
		Command:         req.Command,
		RequestPayload:  payload,
		CommandResponse: resp,
	})
	metrics.CommandsDispatched.WithLabelValues(string(req.Command), string(status)).Inc()
}

func (d *Dispatcher) publish(req RequestEnvelope, payload ResponsePayload) {
	env := ResponseEnvelope{UUID: req.UUID, Payload: payload}
	if err := d.channel.Publish(context.Background(), env); err != nil {
		d.errorf("failed to publish response for %s: %v", req.UUID, err)
	}
}

func (d *Dispatcher) errorf(format string, args ...interface{}) {
	if d.log != nil {
		d.log.Errorf(format, args...)
	}
}
