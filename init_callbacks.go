package main

import (
	"context"

	"github.com/nomadnotes/nomadnotes/ws"
)

// initCallbacks, hub'dan gelen event'leri servislere bağlar. Hub transport'tan
// başka bir şey bilmez; tüm çağrı ve mesaj semantiği servislerde yaşar.
func initCallbacks(hub *ws.Hub, svcs *Services) {
	hub.OnUserOnline = func(userID string) {
		svcs.Calls.HandleReconnect(userID)
		hub.BroadcastToAll(ws.OpPresence, ws.PresencePayload{UserID: userID, Online: true})
	}

	hub.OnUserOffline = func(userID string) {
		svcs.Calls.HandleDisconnect(userID)
		hub.BroadcastToAll(ws.OpPresence, ws.PresencePayload{UserID: userID, Online: false})
	}

	hub.OnCallOffer = svcs.Calls.HandleOffer
	hub.OnCallAnswer = svcs.Calls.HandleAnswer
	hub.OnCallReject = svcs.Calls.HandleReject
	hub.OnCallEnd = svcs.Calls.HandleEnd
	hub.OnICECandidate = svcs.Calls.HandleCandidate

	hub.OnTyping = func(from string, p ws.TypingPayload) {
		svcs.Messages.NotifyTyping(context.Background(), from, p)
	}
}
