package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"

	"github.com/medbridge/portal-api/pkg/auth"
	"github.com/medbridge/portal-api/pkg/logger"
)

const handshakeSecret = "handshake-secret"

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	verifier, err := auth.NewJWTVerifier(handshakeSecret)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}

	engine := gin.New()
	engine.GET("/ws", NewHandler(hub, verifier, logger.NewLogger(nil)).Serve)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *gorillawebsocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readServerMessage(t *testing.T, conn *gorillawebsocket.Conn) ServerMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
	return msg
}

func signToken(t *testing.T, principal *auth.Principal) string {
	t.Helper()
	token, err := auth.SignToken(handshakeSecret, principal, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestServe_BadTokenGetsConnectError(t *testing.T) {
	hub := newTestHub()
	srv := startServer(t, hub)

	conn := dial(t, srv, "garbage")

	msg := readServerMessage(t, conn)
	if msg.Event != EventConnectError {
		t.Fatalf("expected %s, got %s", EventConnectError, msg.Event)
	}
	if hub.ClientCount() != 0 {
		t.Fatal("unauthenticated connection must not reach the hub")
	}
}

func TestServe_MissingTokenGetsConnectError(t *testing.T) {
	hub := newTestHub()
	srv := startServer(t, hub)

	conn := dial(t, srv, "")

	msg := readServerMessage(t, conn)
	if msg.Event != EventConnectError {
		t.Fatalf("expected %s, got %s", EventConnectError, msg.Event)
	}
}

func TestServe_JoinAndReceive(t *testing.T) {
	hub := newTestHub()
	srv := startServer(t, hub)

	principal := &auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
	conn := dial(t, srv, signToken(t, principal))

	room := PatientRoom(principal.ID.String())
	joinMsg, _ := json.Marshal(ClientMessage{Type: MessageJoin, Room: room})
	if err := conn.WriteMessage(gorillawebsocket.TextMessage, joinMsg); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	waitUntil(t, func() bool { return hub.RoomCount(room) == 1 })

	hub.Broadcast(room, ServerMessage{Event: EventNotificationNew, Data: map[string]string{"id": "n1"}})

	msg := readServerMessage(t, conn)
	if msg.Event != EventNotificationNew {
		t.Fatalf("expected %s, got %s", EventNotificationNew, msg.Event)
	}
}

func TestServe_DeniedJoinKeepsConnectionAlive(t *testing.T) {
	hub := newTestHub()
	srv := startServer(t, hub)

	principal := &auth.Principal{ID: uuid.New(), Role: auth.RolePatient}
	conn := dial(t, srv, signToken(t, principal))

	foreign := PatientRoom(uuid.NewString())
	joinMsg, _ := json.Marshal(ClientMessage{Type: MessageJoin, Room: foreign})
	if err := conn.WriteMessage(gorillawebsocket.TextMessage, joinMsg); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msg := readServerMessage(t, conn)
	if msg.Event != EventError {
		t.Fatalf("expected %s, got %s", EventError, msg.Event)
	}
	if hub.RoomCount(foreign) != 0 {
		t.Fatal("denied join must not add membership")
	}

	// The same connection can still join its own room afterwards.
	own := PatientRoom(principal.ID.String())
	joinMsg, _ = json.Marshal(ClientMessage{Type: MessageJoin, Room: own})
	if err := conn.WriteMessage(gorillawebsocket.TextMessage, joinMsg); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitUntil(t, func() bool { return hub.RoomCount(own) == 1 })
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
