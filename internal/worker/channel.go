package worker

import "context"

// Channel is the transport the broadcast command bus rides on: requests
// come in, responses go out. internal/worker/kafkachannel.go adapts this
// to a real Kafka-backed deployment; InProcessChannel below is the
// in-memory implementation used by single-process runs and tests.
type Channel interface {
	// Subscribe returns a channel of incoming RequestEnvelopes, closed
	// when ctx is cancelled.
	Subscribe(ctx context.Context) (<-chan RequestEnvelope, error)
	// Publish emits a ResponseEnvelope.
	Publish(ctx context.Context, resp ResponseEnvelope) error
}

// InProcessChannel is a Channel backed by buffered Go channels, useful
// for embedding the dispatcher directly in cmd/simulator without standing
// up Kafka.
type InProcessChannel struct {
	requests  chan RequestEnvelope
	responses chan ResponseEnvelope
}

// NewInProcessChannel builds an InProcessChannel with the given buffer
// depth for both directions.
func NewInProcessChannel(buffer int) *InProcessChannel {
	return &InProcessChannel{
		requests:  make(chan RequestEnvelope, buffer),
		responses: make(chan ResponseEnvelope, buffer),
	}
}

// Send enqueues a request for the dispatcher to pick up. Exposed for
// callers driving the channel directly (e.g. cmd/simulator's own control
// surface, or tests).
func (c *InProcessChannel) Send(req RequestEnvelope) { c.requests <- req }

// Responses exposes the outgoing response stream for callers that want
// to consume published responses directly.
func (c *InProcessChannel) Responses() <-chan ResponseEnvelope { return c.responses }

func (c *InProcessChannel) Subscribe(ctx context.Context) (<-chan RequestEnvelope, error) {
	out := make(chan RequestEnvelope)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case req, ok := <-c.requests:
				if !ok {
					return
				}
				select {
				case out <- req:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *InProcessChannel) Publish(ctx context.Context, resp ResponseEnvelope) error {
	select {
	case c.responses <- resp:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
