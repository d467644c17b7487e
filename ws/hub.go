package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"github.com/nomadnotes/nomadnotes/pkg/metrics"
)

// EventPublisher, servis katmanının hub'a event göndermek için kullandığı
// arayüz. Servisler hub'ın iç yapısını bilmez.
type EventPublisher interface {
	// SendToUser, kullanıcının tüm açık bağlantılarına event gönderir.
	// Kullanıcı online değilse false döner.
	SendToUser(userID, op string, payload any) bool
	IsOnline(userID string) bool
	OnlineUsers() []string
}

// Hub, tüm aktif WebSocket bağlantılarını yönetir. Bir kullanıcının birden
// fazla bağlantısı (sekme, cihaz) olabilir; SendToUser hepsine dağıtır.
//
// register/unregister/broadcast tek goroutine'de (Run) işlenir, clients
// map'ine dışarıdan erişim mutex ile korunur.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	seq atomic.Uint64

	// Event callback'leri main'de bağlanır. Nil callback'li op'lar yok sayılır.
	OnUserOnline   func(userID string)
	OnUserOffline  func(userID string)
	OnCallOffer    func(from string, p OfferPayload)
	OnCallAnswer   func(from string, p AnswerPayload)
	OnCallReject   func(from string, p TargetPayload)
	OnCallEnd      func(from string, p TargetPayload)
	OnICECandidate func(from string, p CandidatePayload)
	OnTyping       func(from string, p TypingPayload)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
	}
}

// Run, hub'ın ana döngüsü. main'de goroutine olarak başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	wasOnline := len(h.clients[c.userID]) > 0
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*Client]bool)
	}
	h.clients[c.userID][c] = true
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	log.Printf("[ws] client connected: user=%s", c.userID)

	// İlk bağlantıda presence duyurulur; ek sekmeler sessizdir.
	if !wasOnline && h.OnUserOnline != nil {
		h.OnUserOnline(c.userID)
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok || !set[c] {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	stillOnline := len(set) > 0
	if !stillOnline {
		delete(h.clients, c.userID)
	}
	// send kanalı hiç kapatılmaz; WritePump done üzerinden durdurulur.
	// Böylece map'ten düşmeyi kaçıran geç bir gönderim panic üretemez.
	close(c.done)
	h.mu.Unlock()

	metrics.WSConnections.Dec()
	log.Printf("[ws] client disconnected: user=%s", c.userID)

	if !stillOnline && h.OnUserOffline != nil {
		h.OnUserOffline(c.userID)
	}
}

// SendToUser, kullanıcının tüm bağlantılarına event gönderir.
func (h *Hub) SendToUser(userID, op string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ws] payload marshal failed: op=%s err=%v", op, err)
		return false
	}

	event := Event{Op: op, Data: data, Seq: h.seq.Add(1)}
	raw, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] event marshal failed: op=%s err=%v", op, err)
		return false
	}

	// Gönderim RLock altında yapılır; removeClient'ın Lock'u ile karşılıklı
	// dışlandığı için client map'ten düşerken araya gönderim giremez.
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.clients[userID]
	if len(set) == 0 {
		return false
	}

	for c := range set {
		select {
		case c.send <- raw:
		default:
			// Buffer dolu: client takılı kalmış demektir, bağlantı düşürülür.
			// unregister goroutine'de gönderilir; SendToUser hub'ın Run
			// goroutine'inden çağrıldığında (presence duyuruları) blokaj olmaz.
			log.Printf("[ws] send buffer full, dropping client: user=%s", c.userID)
			go func(c *Client) { h.unregister <- c }(c)
		}
	}
	return true
}

// BroadcastToAll, herkese event gönderir (presence duyuruları).
func (h *Hub) BroadcastToAll(op string, payload any) {
	for _, userID := range h.OnlineUsers() {
		h.SendToUser(userID, op, payload)
	}
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}
