package ws

import (
	"context"
	"encoding/json"

	"github.com/medbridge/portal-api/internal/service/notification"
	"github.com/medbridge/portal-api/pkg/logger"
	"github.com/medbridge/portal-api/pkg/messaging"
)

// Bridge relays committed notification events from the backplane into
// hub rooms. It is the only producer of realtime events; nothing emits
// before its database write is committed and published.
type Bridge struct {
	hub    *Hub
	broker messaging.Broker
	logger *logger.Logger
}

func NewBridge(hub *Hub, broker messaging.Broker, logger *logger.Logger) *Bridge {
	return &Bridge{hub: hub, broker: broker, logger: logger}
}

// Run consumes the notifications channel until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	messages, err := b.broker.Subscribe(ctx, messaging.ChannelNotifications)
	if err != nil {
		return err
	}

	b.logger.Info("realtime bridge started", "channel", messaging.ChannelNotifications)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-messages:
			if !ok {
				return nil
			}
			b.relay(data)
		}
	}
}

// relay delivers one backplane event to the owning patient's room only.
func (b *Bridge) relay(data []byte) {
	var evt notification.BroadcastEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		b.logger.Error(err, "failed to decode broadcast event")
		return
	}

	room := PatientRoom(evt.PatientID.String())

	b.hub.Broadcast(room, ServerMessage{
		Event: EventNotificationNew,
		Data:  evt.Notification,
	})
	if evt.Appointment != nil {
		b.hub.Broadcast(room, ServerMessage{
			Event: EventAppointmentUpdate,
			Data:  evt.Appointment,
		})
	}
}
