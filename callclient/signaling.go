package callclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nomadnotes/nomadnotes/ws"
)

const (
	reconnectAttempts = 5
	reconnectDelay    = time.Second
	signalWriteWait   = 10 * time.Second
)

// SignalEvents, Signaler'ın Engine'e ilettiği callback seti.
type SignalEvents struct {
	OnIncoming   func(from string, offer json.RawMessage, callType string)
	OnAccepted   func(answer json.RawMessage)
	OnRejected   func()
	OnEnded      func()
	OnBusy       func()
	OnCandidate  func(candidate json.RawMessage)
	OnSocketLost func()
	OnResumed    func()
}

// Signaler, sunucuyla WebSocket üzerinden sinyalleşme. Bağlantı kopunca
// reconnectAttempts kez, aralarında reconnectDelay bekleyerek yeniden dener;
// başaramazsa OnSocketLost kalıcılaşır.
type Signaler struct {
	serverURL string
	token     string
	userID    string
	events    SignalEvents

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

func NewSignaler(serverURL, token, userID string, events SignalEvents) *Signaler {
	return &Signaler{
		serverURL: serverURL,
		token:     token,
		userID:    userID,
		events:    events,
		done:      make(chan struct{}),
	}
}

// Connect, soketi kurar, user:join gönderir ve okuma döngüsünü başlatır.
func (s *Signaler) Connect(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if err := s.sendEvent(ws.OpUserJoin, ws.UserJoinPayload{UserID: s.userID}); err != nil {
		conn.Close()
		return err
	}

	go s.readLoop(conn)
	return nil
}

func (s *Signaler) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(s.serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	q := u.Query()
	q.Set("token", s.token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("signaling dial failed: %w", err)
	}
	return conn, nil
}

func (s *Signaler) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.handleDisconnect(conn)
			return
		}

		var event ws.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("[signaling] malformed event: %v", err)
			continue
		}
		s.dispatch(event)
	}
}

func (s *Signaler) dispatch(event ws.Event) {
	switch event.Op {
	case ws.OpCallIncoming:
		var p ws.IncomingPayload
		if json.Unmarshal(event.Data, &p) == nil && s.events.OnIncoming != nil {
			s.events.OnIncoming(p.From, p.Offer, p.Type)
		}
	case ws.OpCallAccepted:
		var p ws.AcceptedPayload
		if json.Unmarshal(event.Data, &p) == nil && s.events.OnAccepted != nil {
			s.events.OnAccepted(p.Answer)
		}
	case ws.OpCallRejected:
		if s.events.OnRejected != nil {
			s.events.OnRejected()
		}
	case ws.OpCallEnded:
		if s.events.OnEnded != nil {
			s.events.OnEnded()
		}
	case ws.OpCallBusy:
		if s.events.OnBusy != nil {
			s.events.OnBusy()
		}
	case ws.OpICECandidate:
		var p ws.CandidatePayload
		if json.Unmarshal(event.Data, &p) == nil && s.events.OnCandidate != nil {
			s.events.OnCandidate(p.Candidate)
		}
	case ws.OpReady, ws.OpPresence, ws.OpNotification, ws.OpMessageReceive, ws.OpTyping:
		// Çağrı dışı event'ler burada yok sayılır.
	case ws.OpErrorEvent:
		var p ws.ErrorPayload
		if json.Unmarshal(event.Data, &p) == nil {
			log.Printf("[signaling] server error: %s", p.Message)
		}
	}
}

// handleDisconnect, kopan bağlantıyı yeniden kurmaya çalışır.
func (s *Signaler) handleDisconnect(old *websocket.Conn) {
	s.mu.Lock()
	if s.closed || s.conn != old {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.mu.Unlock()

	if s.events.OnSocketLost != nil {
		s.events.OnSocketLost()
	}

	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		select {
		case <-s.done:
			return
		case <-time.After(reconnectDelay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		conn, err := s.dial(ctx)
		cancel()
		if err != nil {
			log.Printf("[signaling] reconnect attempt %d/%d failed: %v", attempt, reconnectAttempts, err)
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		if err := s.sendEvent(ws.OpUserJoin, ws.UserJoinPayload{UserID: s.userID}); err != nil {
			conn.Close()
			continue
		}

		go s.readLoop(conn)
		log.Printf("[signaling] reconnected after %d attempt(s)", attempt)
		if s.events.OnResumed != nil {
			s.events.OnResumed()
		}
		return
	}

	log.Printf("[signaling] gave up after %d reconnect attempts", reconnectAttempts)
}

func (s *Signaler) SendOffer(to string, offer json.RawMessage, callType string) error {
	return s.sendEvent(ws.OpCallOffer, ws.OfferPayload{To: to, Offer: offer, Type: callType})
}

func (s *Signaler) SendAnswer(to string, answer json.RawMessage) error {
	return s.sendEvent(ws.OpCallAnswer, ws.AnswerPayload{To: to, Answer: answer})
}

func (s *Signaler) SendReject(to string) error {
	return s.sendEvent(ws.OpCallReject, ws.TargetPayload{To: to})
}

func (s *Signaler) SendEnd(to string) error {
	return s.sendEvent(ws.OpCallEnd, ws.TargetPayload{To: to})
}

func (s *Signaler) SendCandidate(to string, candidate json.RawMessage) error {
	return s.sendEvent(ws.OpICECandidate, ws.CandidatePayload{To: to, Candidate: candidate})
}

func (s *Signaler) sendEvent(op string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payload marshal failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("signaling socket is down")
	}

	s.conn.SetWriteDeadline(time.Now().Add(signalWriteWait))
	return s.conn.WriteJSON(ws.Event{Op: op, Data: data})
}

// Close, signaler'ı kalıcı olarak kapatır; reconnect denemez.
func (s *Signaler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)

	if s.conn != nil {
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		return s.conn.Close()
	}
	return nil
}
