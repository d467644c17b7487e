package main

import (
	"time"

	"github.com/nomadnotes/nomadnotes/handlers"
	"github.com/nomadnotes/nomadnotes/pkg/ratelimit"
	"github.com/nomadnotes/nomadnotes/ws"
)

// Handlers, HTTP handler instance'ları.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Trips         *handlers.TripHandler
	Gear          *handlers.GearHandler
	Bookings      *handlers.BookingHandler
	Matches       *handlers.MatchHandler
	Messages      *handlers.MessageHandler
	Notifications *handlers.NotificationHandler
	Admin         *handlers.AdminHandler
	WS            *ws.Handler

	loginLimiter *ratelimit.Limiter
}

func initHandlers(svcs *Services, repos *Repositories, hub *ws.Hub, allowedOrigins []string) *Handlers {
	// 15 dakikada 5 başarısız deneme sonrası login kilitlenir.
	loginLimiter := ratelimit.New(5, 15*time.Minute)

	return &Handlers{
		Auth:          handlers.NewAuthHandler(svcs.Auth, loginLimiter),
		Users:         handlers.NewUserHandler(svcs.Auth, svcs.Uploads),
		Trips:         handlers.NewTripHandler(svcs.Trips),
		Gear:          handlers.NewGearHandler(svcs.Gear, svcs.Uploads),
		Bookings:      handlers.NewBookingHandler(svcs.Bookings),
		Matches:       handlers.NewMatchHandler(svcs.Matches),
		Messages:      handlers.NewMessageHandler(svcs.Messages),
		Notifications: handlers.NewNotificationHandler(svcs.Notifications, svcs.Calls),
		Admin:         handlers.NewAdminHandler(repos.Stats),
		WS:            ws.NewHandler(hub, svcs.Auth, allowedOrigins),
		loginLimiter:  loginLimiter,
	}
}
