package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nomadnotes/nomadnotes/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 90 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // SDP offer'lar birkaç KB olabilir
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısı. ReadPump ve WritePump kendi
// goroutine'lerinde çalışır; conn'a sadece WritePump yazar.
//
// send kanalı hiçbir zaman kapatılmaz: hub client'ı düşürdüğünde done'ı
// kapatır, WritePump oradan çıkar. Geciken bir gönderim (SendToUser,
// sendError) bu sayede kapalı kanala yazma panic'i üretemez.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	done   chan struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// ReadPump, bağlantıdan event okur ve hub callback'lerine dağıtır.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: user=%s err=%v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.sendError("invalid event format")
			continue
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	metrics.WSEventsTotal.WithLabelValues(event.Op).Inc()

	switch event.Op {
	case OpUserJoin:
		var p UserJoinPayload
		if !c.decode(event.Data, &p) {
			return
		}
		// Bildirilen kimlik JWT ile eşleşmezse bağlantı güvenilmezdir.
		if p.UserID != c.userID {
			log.Printf("[ws] user:join identity mismatch: conn=%s claimed=%s", c.userID, p.UserID)
			c.conn.Close()
		}

	case OpCallOffer:
		var p OfferPayload
		if !c.decode(event.Data, &p) {
			return
		}
		if c.hub.OnCallOffer != nil {
			go c.hub.OnCallOffer(c.userID, p)
		}

	case OpCallAnswer:
		var p AnswerPayload
		if !c.decode(event.Data, &p) {
			return
		}
		if c.hub.OnCallAnswer != nil {
			go c.hub.OnCallAnswer(c.userID, p)
		}

	case OpCallReject:
		var p TargetPayload
		if !c.decode(event.Data, &p) {
			return
		}
		if c.hub.OnCallReject != nil {
			go c.hub.OnCallReject(c.userID, p)
		}

	case OpCallEnd:
		var p TargetPayload
		if !c.decode(event.Data, &p) {
			return
		}
		if c.hub.OnCallEnd != nil {
			go c.hub.OnCallEnd(c.userID, p)
		}

	case OpICECandidate:
		var p CandidatePayload
		if !c.decode(event.Data, &p) {
			return
		}
		if c.hub.OnICECandidate != nil {
			go c.hub.OnICECandidate(c.userID, p)
		}

	case OpTyping:
		var p TypingPayload
		if !c.decode(event.Data, &p) {
			return
		}
		if c.hub.OnTyping != nil {
			go c.hub.OnTyping(c.userID, p)
		}

	case OpHeartbeat:
		// Uygulama seviyesi heartbeat; read deadline zaten pong'da uzar,
		// burada ek bir şey yapmaya gerek yok.

	default:
		c.sendError("unknown op: " + event.Op)
	}
}

func (c *Client) decode(data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		c.sendError("invalid payload")
		return false
	}
	return true
}

func (c *Client) sendError(message string) {
	data, _ := json.Marshal(ErrorPayload{Message: message})
	raw, _ := json.Marshal(Event{Op: OpErrorEvent, Data: data})
	select {
	case c.send <- raw:
	default:
	}
}

// WritePump, send kanalından mesaj yazar ve periyodik ping atar.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
