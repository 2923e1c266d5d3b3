package core

import (
	"context"
	"errors"
	"fmt"
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Topic   string
	Payload any
}

// Publisher hands an event to the broadcast channel.
// Delivery is fire-and-forget: implementations must not wait for subscribers.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Sink is a named Publisher taking part in a Fanout.
type Sink struct {
	Name      string
	Publisher Publisher
}

// SinkResult is the outcome of publishing one event to one sink.
type SinkResult struct {
	Sink string
	Err  error
}

// DefaultSink names a publisher that is not a Fanout.
const DefaultSink = "default"

// Fanout hands every event to each sink in turn. All sinks are tried;
// their errors are joined.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, topic string, payload any) error {
	var errs []error
	for _, r := range f.PublishEach(ctx, topic, payload) {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Sink, r.Err))
		}
	}
	return errors.Join(errs...)
}

// PublishEach publishes to every sink and reports each result separately.
func (f Fanout) PublishEach(ctx context.Context, topic string, payload any) []SinkResult {
	results := make([]SinkResult, 0, len(f))
	for _, s := range f {
		results = append(results, SinkResult{Sink: s.Name, Err: s.Publisher.Publish(ctx, topic, payload)})
	}
	return results
}

// PublishEach publishes through p and reports a result per sink. A Fanout
// reports each of its sinks; any other publisher is reported as DefaultSink.
func PublishEach(ctx context.Context, p Publisher, topic string, payload any) []SinkResult {
	if f, ok := p.(Fanout); ok {
		return f.PublishEach(ctx, topic, payload)
	}
	return []SinkResult{{Sink: DefaultSink, Err: p.Publish(ctx, topic, payload)}}
}
