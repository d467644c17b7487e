package models

import "time"

// Çağrı medya türleri.
const (
	CallTypeAudio = "audio"
	CallTypeVideo = "video"
)

// Sunucu tarafı çağrı durumları.
const (
	CallStateRinging = "ringing"
	CallStateActive  = "active"
)

// Çağrı sonuçları (call_logs.outcome).
const (
	CallOutcomeCompleted = "completed"
	CallOutcomeRejected  = "rejected"
	CallOutcomeMissed    = "missed"
	CallOutcomeBusy      = "busy"
	CallOutcomeFailed    = "failed"
)

// ActiveCall, sunucunun bellekte tuttuğu canlı çağrı kaydı. Sinyalleşme
// relay'dir; SDP/ICE içerikleri saklanmaz, sadece taraflar ve durum tutulur.
type ActiveCall struct {
	ID        string    `json:"id"`
	CallerID  string    `json:"caller_id"`
	CalleeID  string    `json:"callee_id"`
	CallType  string    `json:"call_type"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// Other, çağrıdaki karşı tarafın ID'sini döner.
func (c *ActiveCall) Other(userID string) string {
	if c.CallerID == userID {
		return c.CalleeID
	}
	return c.CallerID
}

// HasParty, kullanıcı bu çağrının tarafı mı.
func (c *ActiveCall) HasParty(userID string) bool {
	return c.CallerID == userID || c.CalleeID == userID
}

// CallLog, tamamlanmış çağrının kalıcı kaydı.
type CallLog struct {
	ID        string     `json:"id"`
	CallerID  string     `json:"caller_id"`
	CalleeID  string     `json:"callee_id"`
	CallType  string     `json:"call_type"`
	Outcome   string     `json:"outcome"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
