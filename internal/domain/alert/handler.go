package alert

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Dashboards only listen; inbound frames larger than this are abuse.
	maxMessageSize = 512
)

// Handler serves the staff alert websocket. The admin identity getter is
// injected so this package stays independent of the admin middleware.
type Handler struct {
	hub          *Hub
	adminFromCtx func(ctx context.Context) uuid.UUID
	upgrader     websocket.Upgrader
}

// NewHandler creates the alert stream handler
func NewHandler(hub *Hub, adminFromCtx func(ctx context.Context) uuid.UUID, allowedOrigins []string) *Handler {
	return &Handler{
		hub:          hub,
		adminFromCtx: adminFromCtx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")

				if len(allowedOrigins) == 0 {
					return true
				}

				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}

				log.Warn().Str("origin", origin).Msg("Alert stream origin rejected")
				return false
			},
		},
	}
}

// Stream handles GET /trust/alerts/stream
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	adminID := h.adminFromCtx(r.Context())
	if adminID == uuid.Nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Alert stream upgrade failed")
		return
	}

	client := &Connection{
		AdminID: adminID,
		Conn:    conn,
		Send:    make(chan []byte, 256),
	}

	h.hub.Register(client)

	go h.wsReader(client)
	go h.wsWriter(client)
}

func (h *Handler) wsReader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// The stream is one-way; drain until the client hangs up.
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("admin_id", client.AdminID.String()).Msg("Alert stream read error")
			}
			break
		}
	}
}

func (h *Handler) wsWriter(client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
