package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	exchange string
	event    *Event
	headers  Headers
}

func (p *capturePublisher) Publish(_ context.Context, exchange string, event *Event, headers Headers) error {
	p.exchange, p.event, p.headers = exchange, event, headers
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func TestPublishMenuEvent(t *testing.T) {
	p := &capturePublisher{}

	err := PublishMenuEvent(context.Background(), p, "menuo", ProductCreatedEvent, ProductPayload{
		ID:         11,
		CategoryID: 1,
		Name:       "Mango",
		Price:      decimal.NewFromInt(12),
	})
	require.NoError(t, err)

	assert.Equal(t, MenuExchange, p.exchange)
	assert.Equal(t, "product.created.v1", p.event.GetRoutingKey())
	assert.Equal(t, "menuo", p.headers.Service)
	assert.NotEmpty(t, p.headers.TraceID)
	assert.Equal(t, p.headers.TraceID, p.event.TraceID)

	var payload ProductPayload
	require.NoError(t, p.event.DecodePayload(&payload))
	assert.Equal(t, int64(11), payload.ID)
	assert.True(t, decimal.NewFromInt(12).Equal(payload.Price))
}

func TestEvent_RoundTripKeepsPayload(t *testing.T) {
	event, err := NewEvent(CategoryDeletedEvent, EventVersionV1, CategoryDeletedPayload{ID: 4}, Headers{TraceID: "t-1"})
	require.NoError(t, err)

	body, err := event.ToJSON()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(body, &decoded))

	var payload CategoryDeletedPayload
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, int64(4), payload.ID)
	assert.Equal(t, "t-1", decoded.TraceID)
}

func TestEvent_DecodePayloadRejectsEmpty(t *testing.T) {
	event := &Event{Event: SettingsSavedEvent}

	assert.Error(t, event.DecodePayload(&SettingsSavedPayload{}))
}
