package mq

import (
	"context"
	"encoding/json"
	"log"
)

// QueryResolvedChannel is the channel resolved-query events are published to.
const QueryResolvedChannel = "query_resolved"

// QueryResolvedEvent describes one successfully parsed inline query.
type QueryResolvedEvent struct {
	Platform   string `json:"platform"`
	Normalized string `json:"normalized"`
	Kind       string `json:"kind"`
	Items      int    `json:"items"`
}

// Events publishes fire-and-forget query events. A nil *Events is a no-op,
// so callers never check whether a broker is configured.
type Events struct {
	pub Publisher
}

func NewEvents(pub Publisher) *Events {
	return &Events{pub: pub}
}

// QueryResolved publishes one event. Failures are logged and dropped; the
// response path never depends on the publish outcome.
func (e *Events) QueryResolved(ctx context.Context, event QueryResolvedEvent) {
	if e == nil || e.pub == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	attrs := map[string]string{"platform": event.Platform}
	if _, err := e.pub.Publish(ctx, QueryResolvedChannel, data, attrs); err != nil {
		log.Printf("warn: publish query event: %v", err)
	}
}

// Close closes the underlying publisher.
func (e *Events) Close() error {
	if e == nil || e.pub == nil {
		return nil
	}
	return e.pub.Close()
}
