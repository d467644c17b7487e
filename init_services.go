package main

import (
	"github.com/nomadnotes/nomadnotes/config"
	"github.com/nomadnotes/nomadnotes/pkg/email"
	"github.com/nomadnotes/nomadnotes/pkg/geo"
	"github.com/nomadnotes/nomadnotes/services"
	"github.com/nomadnotes/nomadnotes/ws"
)

// Services, servis katmanının tamamı.
type Services struct {
	Auth          services.AuthService
	Trips         services.TripService
	Gear          services.GearService
	Bookings      services.BookingService
	Matches       services.MatchService
	Messages      services.MessageService
	Notifications services.NotificationService
	Calls         services.CallService
	Uploads       services.UploadService
}

func initServices(cfg *config.Config, repos *Repositories, hub *ws.Hub) (*Services, error) {
	mailer := email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From)
	geocoder := geo.NewNominatim()

	uploads, err := services.NewUploadService(cfg.Upload)
	if err != nil {
		return nil, err
	}

	notifications := services.NewNotificationService(repos.Notifications, hub)
	matches := services.NewMatchService(repos.Matches, repos.Trips, repos.Users, mailer, notifications)

	return &Services{
		Auth:          services.NewAuthService(repos.Users, repos.Sessions, repos.ResetTokens, mailer, cfg.JWT, cfg.Server.PublicBaseURL),
		Trips:         services.NewTripService(repos.Trips, geocoder),
		Gear:          services.NewGearService(repos.Gear),
		Bookings:      services.NewBookingService(repos.Bookings, repos.Gear, repos.Users, mailer, notifications),
		Matches:       matches,
		Messages:      services.NewMessageService(repos.Conversations, repos.Bookings, repos.Gear, repos.Users, matches, hub, notifications),
		Notifications: notifications,
		Calls:         services.NewCallService(hub, repos.CallLogs, repos.Users, matches, mailer, notifications, cfg.Call),
		Uploads:       uploads,
	}, nil
}
