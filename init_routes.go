package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nomadnotes/nomadnotes/config"
	"github.com/nomadnotes/nomadnotes/middleware"
)

func initRoutes(h *Handlers, svcs *Services, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.Require(svcs.Auth)

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.HandleFunc("POST /api/auth/password-reset/request", h.Auth.RequestPasswordReset)
	mux.HandleFunc("POST /api/auth/password-reset/confirm", h.Auth.ResetPassword)

	// Users
	mux.Handle("GET /api/users/me", auth(http.HandlerFunc(h.Users.Me)))
	mux.Handle("PATCH /api/users/me", auth(http.HandlerFunc(h.Users.UpdateProfile)))
	mux.Handle("POST /api/users/me/avatar", auth(http.HandlerFunc(h.Users.UploadAvatar)))
	mux.Handle("GET /api/users/{id}", auth(http.HandlerFunc(h.Users.Get)))

	// Trips
	mux.Handle("POST /api/trips", auth(http.HandlerFunc(h.Trips.Create)))
	mux.Handle("GET /api/trips", auth(http.HandlerFunc(h.Trips.ListMine)))
	mux.Handle("GET /api/trips/{id}", auth(http.HandlerFunc(h.Trips.Get)))
	mux.Handle("PUT /api/trips/{id}", auth(http.HandlerFunc(h.Trips.Update)))
	mux.Handle("DELETE /api/trips/{id}", auth(http.HandlerFunc(h.Trips.Delete)))
	mux.Handle("POST /api/trips/{id}/itinerary", auth(http.HandlerFunc(h.Trips.AddItineraryItem)))
	mux.Handle("DELETE /api/trips/{id}/itinerary/{itemID}", auth(http.HandlerFunc(h.Trips.DeleteItineraryItem)))

	// Gear
	mux.Handle("POST /api/gear", auth(http.HandlerFunc(h.Gear.Create)))
	mux.Handle("GET /api/gear", auth(http.HandlerFunc(h.Gear.List)))
	mux.Handle("GET /api/gear/mine", auth(http.HandlerFunc(h.Gear.ListMine)))
	mux.Handle("GET /api/gear/{id}", auth(http.HandlerFunc(h.Gear.Get)))
	mux.Handle("PUT /api/gear/{id}", auth(http.HandlerFunc(h.Gear.Update)))
	mux.Handle("PATCH /api/gear/{id}/listed", auth(http.HandlerFunc(h.Gear.SetListed)))
	mux.Handle("POST /api/gear/{id}/image", auth(http.HandlerFunc(h.Gear.UploadImage)))
	mux.Handle("DELETE /api/gear/{id}", auth(http.HandlerFunc(h.Gear.Delete)))

	// Bookings
	mux.Handle("POST /api/bookings", auth(http.HandlerFunc(h.Bookings.Create)))
	mux.Handle("GET /api/bookings", auth(http.HandlerFunc(h.Bookings.ListMine)))
	mux.Handle("GET /api/bookings/owner", auth(http.HandlerFunc(h.Bookings.ListForMyGear)))
	mux.Handle("GET /api/bookings/{id}", auth(http.HandlerFunc(h.Bookings.Get)))
	mux.Handle("PATCH /api/bookings/{id}/status", auth(http.HandlerFunc(h.Bookings.Transition)))

	// Matching
	mux.Handle("GET /api/discover", auth(http.HandlerFunc(h.Matches.Discover)))
	mux.Handle("POST /api/swipes", auth(http.HandlerFunc(h.Matches.Swipe)))
	mux.Handle("GET /api/matches", auth(http.HandlerFunc(h.Matches.List)))
	mux.Handle("DELETE /api/matches/{userID}", auth(http.HandlerFunc(h.Matches.Unmatch)))

	// Messaging
	mux.Handle("POST /api/conversations", auth(http.HandlerFunc(h.Messages.OpenConversation)))
	mux.Handle("GET /api/conversations", auth(http.HandlerFunc(h.Messages.ListConversations)))
	mux.Handle("POST /api/conversations/{id}/messages", auth(http.HandlerFunc(h.Messages.Send)))
	mux.Handle("GET /api/conversations/{id}/messages", auth(http.HandlerFunc(h.Messages.History)))
	mux.Handle("PATCH /api/conversations/{id}/messages/{messageID}", auth(http.HandlerFunc(h.Messages.Edit)))
	mux.Handle("DELETE /api/conversations/{id}/messages/{messageID}", auth(http.HandlerFunc(h.Messages.Delete)))
	mux.Handle("POST /api/conversations/{id}/read", auth(http.HandlerFunc(h.Messages.MarkRead)))
	mux.Handle("GET /api/messages/search", auth(http.HandlerFunc(h.Messages.Search)))

	// Notifications & call history
	mux.Handle("GET /api/notifications", auth(http.HandlerFunc(h.Notifications.List)))
	mux.Handle("GET /api/notifications/unread", auth(http.HandlerFunc(h.Notifications.UnreadCount)))
	mux.Handle("POST /api/notifications/{id}/read", auth(http.HandlerFunc(h.Notifications.MarkRead)))
	mux.Handle("POST /api/notifications/read-all", auth(http.HandlerFunc(h.Notifications.MarkAllRead)))
	mux.Handle("GET /api/calls", auth(http.HandlerFunc(h.Notifications.CallHistory)))

	// Admin
	mux.Handle("GET /api/admin/stats", auth(http.HandlerFunc(h.Admin.Stats)))

	// WebSocket, metrics, uploads
	mux.HandleFunc("GET /ws", h.WS.ServeWS)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /uploads/", http.StripPrefix(cfg.Upload.ServePrefix,
		http.FileServer(http.Dir(cfg.Upload.Dir))))

	return mux
}
