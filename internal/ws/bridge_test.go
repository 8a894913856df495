package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medbridge/portal-api/internal/model"
	"github.com/medbridge/portal-api/internal/service/notification"
	"github.com/medbridge/portal-api/pkg/logger"
)

type channelBroker struct {
	messages chan []byte
}

func (b *channelBroker) Publish(_ context.Context, _ string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.messages <- data
	return nil
}

func (b *channelBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.messages, nil
}

func (b *channelBroker) Close() error { return nil }

func waitFor(t *testing.T, client *Client) ServerMessage {
	t.Helper()
	select {
	case data := <-client.Send:
		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to decode server message: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ServerMessage{}
	}
}

func TestBridge_RelaysToPatientRoomOnly(t *testing.T) {
	hub := newTestHub()
	broker := &channelBroker{messages: make(chan []byte, 8)}
	bridge := NewBridge(hub, broker, logger.NewLogger(nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bridge.Run(ctx)

	owner := testClient("patient")
	other := testClient("patient")
	hub.Register(owner)
	hub.Register(other)
	join(hub, owner, PatientRoom(owner.Principal.ID.String()))
	join(hub, other, PatientRoom(other.Principal.ID.String()))

	apt := &model.Appointment{
		PatientID: owner.Principal.ID,
		Status:    model.AppointmentStatusConfirmed,
	}
	apt.ID = uuid.New()

	evt := notification.BroadcastEvent{
		Event:     notification.EventTypeNotificationCreated,
		PatientID: owner.Principal.ID,
		Notification: &model.Notification{
			ID:        uuid.New(),
			PatientID: owner.Principal.ID,
			Title:     "Appointment confirmed",
		},
		Appointment: apt,
	}
	if err := broker.Publish(ctx, "notifications", evt); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	first := waitFor(t, owner)
	if first.Event != EventNotificationNew {
		t.Fatalf("expected %s, got %s", EventNotificationNew, first.Event)
	}
	second := waitFor(t, owner)
	if second.Event != EventAppointmentUpdate {
		t.Fatalf("expected %s, got %s", EventAppointmentUpdate, second.Event)
	}

	select {
	case <-other.Send:
		t.Fatal("event leaked to another patient's room")
	default:
	}
}

func TestBridge_SkipsUndecodableMessages(t *testing.T) {
	hub := newTestHub()
	broker := &channelBroker{messages: make(chan []byte, 8)}
	bridge := NewBridge(hub, broker, logger.NewLogger(nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		bridge.Run(ctx)
		close(done)
	}()

	broker.messages <- []byte("{not json")
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop on context cancellation")
	}
}
