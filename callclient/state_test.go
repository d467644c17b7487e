package callclient

import (
	"encoding/json"
	"testing"
)

func hasEffect(effects []Effect, want Effect) bool {
	for _, e := range effects {
		if e == want {
			return true
		}
	}
	return false
}

// advance, event dizisini sırayla uygular ve son durumu döner.
func advance(m Machine, events ...Event) Machine {
	for _, ev := range events {
		m, _ = Reduce(m, ev)
	}
	return m
}

var testOffer = json.RawMessage(`{"type":"offer","sdp":"v=0"}`)

func TestCallerFlow(t *testing.T) {
	m := Machine{State: Idle}

	m, effects := Reduce(m, StartCall{PeerID: "u2", CallType: "video"})
	if m.State != Calling {
		t.Fatalf("state = %v, want Calling", m.State)
	}
	if !hasEffect(effects, EffAcquireMedia) {
		t.Fatal("arama başlarken medya alınmalı")
	}

	m, effects = Reduce(m, MediaReady{})
	if m.State != Calling {
		t.Fatalf("state = %v, want Calling", m.State)
	}
	if !hasEffect(effects, EffCreatePeerAndOffer) || !hasEffect(effects, EffStartRingTimer) {
		t.Fatalf("medya hazır olunca offer gönderilip ring timer başlamalı, effects = %v", effects)
	}

	m, effects = Reduce(m, RemoteAccepted{Answer: testOffer})
	if m.State != InCall {
		t.Fatalf("state = %v, want InCall", m.State)
	}
	if !hasEffect(effects, EffApplyAnswer) || !hasEffect(effects, EffStopRingTimer) {
		t.Fatalf("kabul gelince answer uygulanıp timer durmalı, effects = %v", effects)
	}
}

func TestCalleeFlow(t *testing.T) {
	m := Machine{State: Idle}

	m, effects := Reduce(m, IncomingCall{PeerID: "u1", CallType: "audio", Offer: testOffer})
	if m.State != Ringing {
		t.Fatalf("state = %v, want Ringing", m.State)
	}
	// Çalarken medya ALINMAZ; sadece zil süresi başlar.
	if hasEffect(effects, EffAcquireMedia) {
		t.Fatal("çalma aşamasında medya alınmamalı")
	}
	if !hasEffect(effects, EffStartRingTimer) {
		t.Fatal("gelen çağrıda ring timer başlamalı")
	}
	if string(m.PendingOffer) != string(testOffer) {
		t.Fatal("offer kabul anına kadar saklanmalı")
	}

	m, effects = Reduce(m, Accept{})
	if !hasEffect(effects, EffAcquireMedia) || !hasEffect(effects, EffStopRingTimer) {
		t.Fatalf("kabulde medya alınıp timer durmalı, effects = %v", effects)
	}

	m, effects = Reduce(m, MediaReady{})
	if m.State != InCall {
		t.Fatalf("state = %v, want InCall", m.State)
	}
	if !hasEffect(effects, EffCreatePeerAndAnswer) {
		t.Fatalf("medya hazır olunca answer gönderilmeli, effects = %v", effects)
	}
	if m.PendingOffer != nil {
		t.Fatal("offer uygulandıktan sonra saklanmamalı")
	}
}

func TestHangUpReleasesEverything(t *testing.T) {
	inCall := advance(Machine{State: Idle},
		StartCall{PeerID: "u2", CallType: "audio"},
		MediaReady{},
		RemoteAccepted{Answer: testOffer},
	)

	m, effects := Reduce(inCall, HangUp{})
	if m.State != Idle {
		t.Fatalf("state = %v, want Idle", m.State)
	}
	if !hasEffect(effects, EffReleaseMedia) {
		t.Fatal("kapanışta medya bırakılmalı")
	}
	if !hasEffect(effects, EffClosePeer) {
		t.Fatal("kapanışta peer kapanmalı")
	}
	if !hasEffect(effects, EffSendEnd) {
		t.Fatal("kapanış karşı tarafa bildirilmeli")
	}
}

func TestHangUpIdempotent(t *testing.T) {
	inCall := advance(Machine{State: Idle},
		StartCall{PeerID: "u2", CallType: "audio"},
		MediaReady{},
		RemoteAccepted{Answer: testOffer},
	)

	m, _ := Reduce(inCall, HangUp{})
	m, effects := Reduce(m, HangUp{})
	if m.State != Idle {
		t.Fatalf("state = %v, want Idle", m.State)
	}
	if len(effects) != 0 {
		t.Fatalf("ikinci hangUp etki üretmemeli, effects = %v", effects)
	}
}

func TestDoubleHangUpRace(t *testing.T) {
	// İki taraf aynı anda kapatır: lokal hangUp'tan sonra gelen remote end
	// zararsız olmalı.
	inCall := advance(Machine{State: Idle},
		StartCall{PeerID: "u2", CallType: "audio"},
		MediaReady{},
		RemoteAccepted{Answer: testOffer},
	)

	m, _ := Reduce(inCall, HangUp{})
	m, effects := Reduce(m, RemoteEnded{})
	if m.State != Idle || len(effects) != 0 {
		t.Fatalf("Idle'da remote end no-op olmalı, state = %v effects = %v", m.State, effects)
	}
}

func TestMediaFailureWhileAcceptingRejects(t *testing.T) {
	m := advance(Machine{State: Idle},
		IncomingCall{PeerID: "u1", CallType: "video", Offer: testOffer},
		Accept{},
	)

	m, effects := Reduce(m, MediaFailed{})
	if m.State != Idle {
		t.Fatalf("state = %v, want Idle", m.State)
	}
	if !hasEffect(effects, EffSendReject) {
		t.Fatal("medya açılamayınca karşı tarafa reject gitmeli")
	}
	if !hasEffect(effects, EffReleaseMedia) {
		t.Fatal("kısmi açılmış medya bırakılmalı")
	}
}

func TestMediaFailureWhileCalling(t *testing.T) {
	m := advance(Machine{State: Idle}, StartCall{PeerID: "u2", CallType: "audio"})

	m, effects := Reduce(m, MediaFailed{})
	if m.State != Idle {
		t.Fatalf("state = %v, want Idle", m.State)
	}
	// Offer hiç gitmediği için karşı tarafa sinyal gitmez.
	if hasEffect(effects, EffSendEnd) || hasEffect(effects, EffSendReject) {
		t.Fatalf("gönderilmemiş çağrı için sinyal üretilmemeli, effects = %v", effects)
	}
}

func TestIncomingWhileBusySendsRejectOnly(t *testing.T) {
	inCall := advance(Machine{State: Idle},
		StartCall{PeerID: "u2", CallType: "audio"},
		MediaReady{},
		RemoteAccepted{Answer: testOffer},
	)

	m, effects := Reduce(inCall, IncomingCall{PeerID: "u3", CallType: "audio", Offer: testOffer})
	if m.State != InCall || m.PeerID != "u2" {
		t.Fatalf("mevcut çağrı korunmalı, state = %v peer = %s", m.State, m.PeerID)
	}
	if !hasEffect(effects, EffSendReject) {
		t.Fatal("meşgulken gelen çağrı reddedilmeli")
	}
}

func TestRemoteRejectedAndBusyEndCalling(t *testing.T) {
	for _, tc := range []struct {
		name string
		ev   Event
	}{
		{"rejected", RemoteRejected{}},
		{"busy", RemoteBusy{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := advance(Machine{State: Idle},
				StartCall{PeerID: "u2", CallType: "audio"},
				MediaReady{},
			)

			m, effects := Reduce(m, tc.ev)
			if m.State != Idle {
				t.Fatalf("state = %v, want Idle", m.State)
			}
			if !hasEffect(effects, EffReleaseMedia) || !hasEffect(effects, EffClosePeer) {
				t.Fatalf("kaynaklar bırakılmalı, effects = %v", effects)
			}
		})
	}
}

func TestRingTimeoutWhileRinging(t *testing.T) {
	m := advance(Machine{State: Idle},
		IncomingCall{PeerID: "u1", CallType: "audio", Offer: testOffer},
	)

	m, effects := Reduce(m, RingTimeout{})
	if m.State != Idle {
		t.Fatalf("state = %v, want Idle", m.State)
	}
	// Cevaplanmamış çağrıda peer hiç kurulmadı, medya hiç alınmadı ama reset
	// yine de release ister; engine açık kaynak yoksa no-op yapar.
	if !hasEffect(effects, EffReleaseMedia) {
		t.Fatalf("effects = %v", effects)
	}
}

func TestRingTimeoutWhileCalling(t *testing.T) {
	m := advance(Machine{State: Idle},
		StartCall{PeerID: "u2", CallType: "audio"},
		MediaReady{},
	)

	m, effects := Reduce(m, RingTimeout{})
	if m.State != Idle {
		t.Fatalf("state = %v, want Idle", m.State)
	}
	if !hasEffect(effects, EffSendEnd) {
		t.Fatal("cevapsız arama karşı tarafa end ile bildirilmeli")
	}
}

func TestInterruptedResume(t *testing.T) {
	inCall := advance(Machine{State: Idle},
		StartCall{PeerID: "u2", CallType: "audio"},
		MediaReady{},
		RemoteAccepted{Answer: testOffer},
	)

	m, effects := Reduce(inCall, SocketLost{})
	if m.State != Interrupted {
		t.Fatalf("state = %v, want Interrupted", m.State)
	}
	if !hasEffect(effects, EffStartGraceTimer) {
		t.Fatal("kopuklukta tolerans süresi başlamalı")
	}

	m, effects = Reduce(m, SocketResumed{})
	if m.State != InCall {
		t.Fatalf("state = %v, want InCall", m.State)
	}
	if !hasEffect(effects, EffStopGraceTimer) {
		t.Fatal("soket dönünce tolerans süresi durmalı")
	}
}

func TestGraceExpiredTearsDown(t *testing.T) {
	m := advance(Machine{State: Idle},
		StartCall{PeerID: "u2", CallType: "audio"},
		MediaReady{},
		RemoteAccepted{Answer: testOffer},
		SocketLost{},
	)

	m, effects := Reduce(m, GraceExpired{})
	if m.State != Idle {
		t.Fatalf("state = %v, want Idle", m.State)
	}
	if !hasEffect(effects, EffClosePeer) || !hasEffect(effects, EffReleaseMedia) {
		t.Fatalf("tolerans dolunca kaynaklar bırakılmalı, effects = %v", effects)
	}
	// Soket zaten kopuk, end gönderilemez; sunucu kendi grace'iyle kapatır.
	if hasEffect(effects, EffSendEnd) {
		t.Fatal("soket kopukken end gönderilmemeli")
	}
}

func TestSocketLostBeforeEstablished(t *testing.T) {
	m := advance(Machine{State: Idle}, StartCall{PeerID: "u2", CallType: "audio"}, MediaReady{})

	m, effects := Reduce(m, SocketLost{})
	if m.State != Idle {
		t.Fatalf("state = %v, want Idle", m.State)
	}
	if !hasEffect(effects, EffReleaseMedia) {
		t.Fatalf("effects = %v", effects)
	}
}

func TestLateMediaReleasedImmediately(t *testing.T) {
	// Çağrı medya açılırken kapandı: sonradan gelen MediaReady kaynağı hemen
	// bırakmalı, durum değişmemeli.
	m := Machine{State: Idle}

	m, effects := Reduce(m, MediaReady{})
	if m.State != Idle {
		t.Fatalf("state = %v, want Idle", m.State)
	}
	if !hasEffect(effects, EffReleaseMedia) {
		t.Fatal("geç gelen medya hemen bırakılmalı")
	}
}

func TestAcceptIgnoredOutsideRinging(t *testing.T) {
	for _, state := range []State{Idle, Calling, InCall, Interrupted} {
		m, effects := Reduce(Machine{State: state}, Accept{})
		if m.State != state || len(effects) != 0 {
			t.Fatalf("state %v: accept no-op olmalı", state)
		}
	}
}

func TestDoubleAcceptIgnored(t *testing.T) {
	m := advance(Machine{State: Idle},
		IncomingCall{PeerID: "u1", CallType: "audio", Offer: testOffer},
		Accept{},
	)

	m2, effects := Reduce(m, Accept{})
	if len(effects) != 0 {
		t.Fatalf("ikinci accept medyayı tekrar almamalı, effects = %v", effects)
	}
	if m2.State != m.State || m2.PeerID != m.PeerID {
		t.Fatal("ikinci accept durumu değiştirmemeli")
	}
}
