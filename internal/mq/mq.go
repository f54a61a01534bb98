package mq

import "context"

// Publisher defines the broker-agnostic publish operation used by the app.
// Nothing in this service consumes messages; events flow out to whatever
// analytics pipeline is subscribed on the broker side.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}
