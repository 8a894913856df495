package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/medbridge/portal-api/pkg/auth"
	"github.com/medbridge/portal-api/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests to realtime connections.
type Handler struct {
	hub      *Hub
	verifier auth.TokenVerifier
	logger   *logger.Logger
}

func NewHandler(hub *Hub, verifier auth.TokenVerifier, logger *logger.Logger) *Handler {
	return &Handler{hub: hub, verifier: verifier, logger: logger}
}

// Serve handles GET /ws. The token comes from the `token` query
// parameter or a bearer Authorization header. A failed handshake still
// upgrades so the client receives a connect_error event before close,
// but the connection never reaches the hub.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	principal, err := h.verifier.Verify(extractToken(c))
	if err != nil {
		h.rejectConn(conn, "authentication failed")
		return
	}

	client := newClient(principal)
	h.hub.Register(client)

	go writePump(client, conn)
	go readPump(h.hub, client, conn, h.logger)
}

func (h *Handler) rejectConn(conn *websocket.Conn, message string) {
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteJSON(ServerMessage{
		Event: EventConnectError,
		Data:  map[string]string{"message": message},
	})
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message),
		time.Now().Add(writeWait))
}

func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
