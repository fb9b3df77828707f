package events

import (
	"context"
)

// Publisher delivers menu events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, exchange string, event *Event, headers Headers) error
	Close() error
}

// PublishMenuEvent wraps payload in a v1 envelope carrying fresh trace and
// correlation ids and publishes it on the menu exchange.
func PublishMenuEvent(ctx context.Context, p Publisher, service, name string, payload any) error {
	headers := Headers{
		TraceID:       GenerateTraceID(),
		CorrelationID: GenerateCorrelationID(),
		Service:       service,
	}

	event, err := NewEvent(name, EventVersionV1, payload, headers)
	if err != nil {
		return err
	}
	return p.Publish(ctx, MenuExchange, event, headers)
}
