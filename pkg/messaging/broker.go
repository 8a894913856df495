package messaging

import (
	"context"
)

// Broker defines the interface for message brokers. The realtime layer
// depends on it as the cross-process backplane: a room join on one
// process and an emit on another still reach the same logical room.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channels shared between the dispatcher, the outbox worker and the
// realtime bridge.
const (
	ChannelNotifications = "notifications"
	ChannelAppointments  = "appointments"
)
