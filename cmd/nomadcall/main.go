// nomadcall, sinyal sunucusuna karşı uçtan uca çağrı denemesi için komut
// satırı istemcisi. Gerçek cihaz medyası (mikrofon, kamera) kullanır.
//
//	nomadcall -server ws://localhost:8080/ws -token <jwt> -user <id>            # gelen çağrıyı bekle
//	nomadcall -server ws://localhost:8080/ws -token <jwt> -user <id> -call <id> # arama başlat
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nomadnotes/nomadnotes/callclient"
)

func main() {
	var (
		serverURL  = flag.String("server", "ws://localhost:8080/ws", "sinyal sunucusu websocket adresi")
		token      = flag.String("token", "", "erişim token'ı (zorunlu)")
		userID     = flag.String("user", "", "kendi kullanıcı id'si (zorunlu)")
		callPeer   = flag.String("call", "", "aranacak kullanıcı id'si; boşsa gelen çağrı beklenir")
		video      = flag.Bool("video", false, "görüntülü ara")
		autoAnswer = flag.Bool("auto-answer", true, "gelen çağrıyı otomatik kabul et")
	)
	flag.Parse()

	if *token == "" || *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	callType := "audio"
	if *video {
		callType = "video"
	}

	engine := callclient.NewEngine(nil, callclient.NewDeviceGateway())
	signaler := callclient.NewSignaler(*serverURL, *token, *userID, engine.SignalEvents())
	engine.SetSignaler(signaler)

	engine.OnStateChange = func(s callclient.Snapshot) {
		log.Printf("[nomadcall] state=%s peer=%s type=%s muted=%t", s.State, s.PeerID, s.CallType, s.Muted)

		if s.State == callclient.Ringing && *autoAnswer {
			log.Printf("[nomadcall] incoming %s call from %s, answering", s.CallType, s.PeerID)
			engine.AcceptCall()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := signaler.Connect(ctx); err != nil {
		log.Fatalf("[nomadcall] connect failed: %v", err)
	}
	log.Printf("[nomadcall] connected to %s as %s", *serverURL, *userID)

	if *callPeer != "" {
		log.Printf("[nomadcall] calling %s (%s)", *callPeer, callType)
		engine.StartCall(*callPeer, callType)
	} else {
		log.Printf("[nomadcall] waiting for incoming calls")
	}

	stdinCommands(engine)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Printf("[nomadcall] shutting down")
	engine.EndCall()
	time.Sleep(200 * time.Millisecond) // end sinyalinin gitmesi için
	engine.Close()
	signaler.Close()
}

// stdinCommands, çalışırken basit komutlar okur: m (mute), v (video), e (end).
func stdinCommands(engine *callclient.Engine) {
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			switch strings.TrimSpace(string(buf[:n])) {
			case "m":
				muted, err := engine.ToggleMute()
				if err != nil {
					log.Printf("[nomadcall] mute: %v", err)
					continue
				}
				log.Printf("[nomadcall] muted=%t", muted)
			case "v":
				off, err := engine.ToggleVideo()
				if err != nil {
					log.Printf("[nomadcall] video: %v", err)
					continue
				}
				log.Printf("[nomadcall] video_off=%t", off)
			case "e":
				engine.EndCall()
			}
		}
	}()
}
