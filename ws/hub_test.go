package ws

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// Bağlantı düşerken araya giren gönderimlerin paniğe yol açmadığını
// doğrular: register/send/unregister aynı kullanıcı üzerinde yarıştırılır.
func TestSendRacingUnregisterDoesNotPanic(t *testing.T) {
	h := NewHub()
	go h.Run()

	for i := 0; i < 2000; i++ {
		c := newClient(h, nil, "u1")
		h.register <- c

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				h.SendToUser("u1", OpPresence, PresencePayload{UserID: "u1", Online: true})
			}
		}()
		go func() {
			defer wg.Done()
			h.unregister <- c
		}()
		wg.Wait()
	}
}

// Hub client'ı düşürdükten sonra send kanalı açık kalır; geciken bir
// sendError kapalı kanala yazma paniği üretmemeli.
func TestLateSendErrorAfterDrop(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := newClient(h, nil, "u1")
	h.register <- c
	h.unregister <- c

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("unregister sonrası done kapanmalı")
	}

	// ReadPump hâlâ hayattayken çalışabilecek geç yol.
	c.sendError("late")

	if h.IsOnline("u1") {
		t.Fatal("düşürülen client online görünmemeli")
	}
}

// Yavaş client düşürme, SendToUser hub'ın kendi goroutine'inden
// çağrıldığında da (presence broadcast) hub'ı kilitlememeli.
func TestSlowClientDropDoesNotBlockHub(t *testing.T) {
	h := NewHub()
	h.OnUserOnline = func(userID string) {
		h.BroadcastToAll(OpPresence, PresencePayload{UserID: userID, Online: true})
	}
	go h.Run()

	// Buffer'ı dolu client'lar her broadcast'te düşürülmeye çalışılır;
	// unregister buffer'ından fazlası aynı anda tetiklenir.
	for i := 0; i < 24; i++ {
		c := newClient(h, nil, fmt.Sprintf("u%d", i))
		for len(c.send) < cap(c.send) {
			c.send <- []byte("x")
		}
		h.register <- c
	}

	registered := make(chan struct{})
	go func() {
		h.register <- newClient(h, nil, "last")
		close(registered)
	}()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("hub yavaş client düşürürken bloke oldu")
	}
}
