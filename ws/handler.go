package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// TokenValidator, upgrade isteğindeki token'ı doğrular ve user ID döner.
// Auth service bu arayüzü sağlar.
type TokenValidator interface {
	ValidateAccessToken(token string) (userID string, err error)
}

// Handler, /ws endpoint'inin HTTP handler'ı.
type Handler struct {
	hub       *Hub
	validator TokenValidator
	upgrader  websocket.Upgrader
}

func NewHandler(hub *Hub, validator TokenValidator, allowedOrigins []string) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &Handler{
		hub:       hub,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Origin'siz istekler (CLI client, test) kabul edilir.
				return origin == "" || origins[origin]
			},
		},
	}
}

// ServeWS, bağlantıyı upgrade eder. Browser WebSocket API'si header
// ekleyemediği için token query parametresiyle gelir.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.validator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	client := newClient(h.hub, conn, userID)
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()

	// İlk event: client kendi kimliğini ve online listesini öğrenir.
	h.hub.SendToUser(userID, OpReady, ReadyPayload{
		UserID:      userID,
		OnlineUsers: h.hub.OnlineUsers(),
	})
}
