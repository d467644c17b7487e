// NomadNotes sunucusu: gezi planlama, gear kiralama, seyahat eşleşmesi,
// mesajlaşma ve WebRTC çağrı sinyalleşmesi.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/nomadnotes/nomadnotes/config"
	"github.com/nomadnotes/nomadnotes/database"
	"github.com/nomadnotes/nomadnotes/ws"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("[main] database connection failed: %v", err)
	}
	defer db.Close()

	hub := ws.NewHub()
	go hub.Run()

	repos := initRepositories(db)
	svcs, err := initServices(cfg, repos, hub)
	if err != nil {
		log.Fatalf("[main] service init failed: %v", err)
	}
	initCallbacks(hub, svcs)
	handlers := initHandlers(svcs, repos, hub, cfg.Server.AllowedOrigins)
	mux := initRoutes(handlers, svcs, cfg)

	// Süresi dolan refresh session'ları saatte bir temizlenir.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := repos.Sessions.DeleteExpired(ctx, time.Now())
			cancel()
			if err != nil {
				log.Printf("[main] session cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("[main] cleaned up %d expired sessions", n)
			}
		}
	}()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // WebSocket bağlantıları uzun ömürlü
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
	handlers.loginLimiter.Close()
	log.Println("[main] bye")
}
