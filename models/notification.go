package models

import (
	"encoding/json"
	"time"
)

// Notification kind sabitleri.
const (
	NotifNewMatch         = "new_match"
	NotifNewMessage       = "new_message"
	NotifBookingRequested = "booking_requested"
	NotifBookingConfirmed = "booking_confirmed"
	NotifBookingDeclined  = "booking_declined"
	NotifBookingCancelled = "booking_cancelled"
	NotifMissedCall       = "missed_call"
)

type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
