// Package ws — WebSocket hub'ı ve gerçek zamanlı event protokolü.
//
// Tüm event'ler tek bir zarf içinde taşınır: op alanı event türünü, d alanı
// op'a özel payload'ı, s alanı sunucudan çıkan event'lerin monoton sıra
// numarasını taşır. Client s'yi sadece kopukluk tespiti için kullanır.
package ws

import "encoding/json"

// Event, WebSocket üzerindeki tüm mesajların zarfı.
type Event struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
	Seq  uint64          `json:"s,omitempty"`
}

// Client -> server op'ları.
const (
	OpUserJoin     = "user:join"
	OpCallOffer    = "call:offer"
	OpCallAnswer   = "call:answer"
	OpCallReject   = "call:reject"
	OpCallEnd      = "call:end"
	OpICECandidate = "ice:candidate" // iki yönlü
	OpTyping       = "typing"
	OpHeartbeat    = "heartbeat"
)

// Server -> client op'ları.
const (
	OpReady          = "ready"
	OpCallIncoming   = "call:incoming"
	OpCallAccepted   = "call:accepted"
	OpCallRejected   = "call:rejected"
	OpCallEnded      = "call:ended"
	OpCallBusy       = "call:busy"
	OpMessageReceive = "message:receive"
	OpMessageUpdate  = "message:update"
	OpMessageDelete  = "message:delete"
	OpPresence       = "presence"
	OpNotification   = "notification"
	OpErrorEvent     = "error"
)

// ReadyPayload, bağlantı kurulduğunda gönderilen ilk event.
type ReadyPayload struct {
	UserID      string   `json:"user_id"`
	OnlineUsers []string `json:"online_users"`
}

// UserJoinPayload, client'ın bağlantı sonrası kimlik bildirimi. user_id,
// JWT'den çözülen kimlikle eşleşmek zorundadır; aksi halde bağlantı kapatılır.
type UserJoinPayload struct {
	UserID string `json:"user_id"`
}

// OfferPayload, call:offer event'i. Sunucu offer içeriğini yorumlamaz,
// olduğu gibi karşı tarafa iletir.
type OfferPayload struct {
	To    string          `json:"to"`
	Offer json.RawMessage `json:"offer"`
	Type  string          `json:"type"`
}

// IncomingPayload, callee'ye iletilen call:incoming event'i.
type IncomingPayload struct {
	From  string          `json:"from"`
	Offer json.RawMessage `json:"offer"`
	Type  string          `json:"type"`
}

// AnswerPayload, call:answer event'i.
type AnswerPayload struct {
	To     string          `json:"to"`
	Answer json.RawMessage `json:"answer"`
}

// AcceptedPayload, caller'a iletilen call:accepted event'i.
type AcceptedPayload struct {
	Answer json.RawMessage `json:"answer"`
}

// TargetPayload, sadece hedef taşıyan event'ler (call:reject, call:end).
type TargetPayload struct {
	To string `json:"to"`
}

// CandidatePayload, ICE candidate relay'i. Gönderirken to doludur; alıcıya
// iletilirken to atılır, sadece candidate kalır.
type CandidatePayload struct {
	To        string          `json:"to,omitempty"`
	Candidate json.RawMessage `json:"candidate"`
}

// TypingPayload, yazıyor göstergesi.
type TypingPayload struct {
	To             string `json:"to"`
	ConversationID string `json:"conversation_id"`
}

// PresencePayload, bir kullanıcının online durum değişikliği.
type PresencePayload struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

// ErrorPayload, protokol hatalarında client'a gönderilir.
type ErrorPayload struct {
	Message string `json:"message"`
}
