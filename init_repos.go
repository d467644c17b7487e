package main

import (
	"database/sql"

	"github.com/nomadnotes/nomadnotes/repository"
)

// Repositories, tüm repository instance'larını bir arada tutar.
type Repositories struct {
	Users         repository.UserRepository
	Sessions      repository.SessionRepository
	ResetTokens   repository.ResetTokenRepository
	Trips         repository.TripRepository
	Gear          repository.GearRepository
	Bookings      repository.BookingRepository
	Matches       repository.MatchRepository
	Conversations repository.ConversationRepository
	Notifications repository.NotificationRepository
	CallLogs      repository.CallLogRepository
	Stats         repository.StatsRepository
}

func initRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Users:         repository.NewSQLiteUserRepository(db),
		Sessions:      repository.NewSQLiteSessionRepository(db),
		ResetTokens:   repository.NewSQLiteResetTokenRepository(db),
		Trips:         repository.NewSQLiteTripRepository(db),
		Gear:          repository.NewSQLiteGearRepository(db),
		Bookings:      repository.NewSQLiteBookingRepository(db),
		Matches:       repository.NewSQLiteMatchRepository(db),
		Conversations: repository.NewSQLiteConversationRepository(db),
		Notifications: repository.NewSQLiteNotificationRepository(db),
		CallLogs:      repository.NewSQLiteCallLogRepository(db),
		Stats:         repository.NewSQLiteStatsRepository(db),
	}
}
