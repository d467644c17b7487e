package callclient

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
)

type fakeSignal struct {
	mu         sync.Mutex
	offers     []string // hedef kullanıcılar
	answers    []string
	rejects    []string
	ends       []string
	candidates []string
}

func (f *fakeSignal) SendOffer(to string, offer json.RawMessage, callType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers = append(f.offers, to)
	return nil
}

func (f *fakeSignal) SendAnswer(to string, answer json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, to)
	return nil
}

func (f *fakeSignal) SendReject(to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejects = append(f.rejects, to)
	return nil
}

func (f *fakeSignal) SendEnd(to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends = append(f.ends, to)
	return nil
}

func (f *fakeSignal) SendCandidate(to string, candidate json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, to)
	return nil
}

func (f *fakeSignal) count(which *[]string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(*which)
}

type fakePeer struct {
	mu          sync.Mutex
	offerCount  int
	answerCount int
	candidates  []json.RawMessage
	audioOff    bool
	videoOff    bool
	closed      bool
}

func (f *fakePeer) CreateOffer() (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offerCount++
	return json.RawMessage(`{"type":"offer"}`), nil
}

func (f *fakePeer) AcceptAnswer(raw json.RawMessage) error { return nil }

func (f *fakePeer) AnswerOffer(raw json.RawMessage) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answerCount++
	return json.RawMessage(`{"type":"answer"}`), nil
}

func (f *fakePeer) AddCandidate(raw json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, raw)
	return nil
}

func (f *fakePeer) SetAudioEnabled(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioOff = !enabled
	return nil
}

func (f *fakePeer) SetVideoEnabled(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoOff = !enabled
	return nil
}

func (f *fakePeer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePeer) candidateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.candidates)
}

type fakeGateway struct {
	mu       sync.Mutex
	err      error
	acquired int
	released int
}

func (f *fakeGateway) Acquire(ctx context.Context, video bool) (*MediaSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return &MediaSession{}, nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeSignal, *fakePeer, *fakeGateway) {
	t.Helper()

	signal := &fakeSignal{}
	peer := &fakePeer{}
	gateway := &fakeGateway{}

	engine := NewEngine(signal, gateway,
		WithRingTimeout(time.Hour),
		WithGracePeriod(time.Hour),
		withPeerFactory(func(api *webrtc.API, tracks []webrtc.TrackLocal, cb PeerCallbacks) (peerConn, error) {
			return peer, nil
		}),
	)
	t.Cleanup(engine.Close)
	return engine, signal, peer, gateway
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s beklenirken zaman aşımı", what)
}

func waitState(t *testing.T, engine *Engine, want State) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := engine.Snapshot()
		if s.State == want {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state %v beklenirken zaman aşımı, son durum %v", want, engine.Snapshot().State)
	return Snapshot{}
}

func TestEngineMuteWithoutRenegotiation(t *testing.T) {
	engine, signal, peer, _ := newTestEngine(t)

	engine.StartCall("u2", "audio")
	waitFor(t, "offer", func() bool { return signal.count(&signal.offers) == 1 })

	engine.SignalEvents().OnAccepted(json.RawMessage(`{"type":"answer"}`))
	waitState(t, engine, InCall)

	muted, err := engine.ToggleMute()
	if err != nil {
		t.Fatalf("ToggleMute: %v", err)
	}
	if !muted {
		t.Fatal("ilk toggle sessize almalı")
	}

	peer.mu.Lock()
	audioOff, offers := peer.audioOff, peer.offerCount
	peer.mu.Unlock()
	if !audioOff {
		t.Fatal("audio track kapatılmalı")
	}
	// Sessize alma yeniden müzakere tetiklemez: offer sayısı değişmez.
	if offers != 1 {
		t.Fatalf("offerCount = %d, want 1", offers)
	}
	if n := signal.count(&signal.offers); n != 1 {
		t.Fatalf("gönderilen offer = %d, want 1", n)
	}

	muted, err = engine.ToggleMute()
	if err != nil {
		t.Fatalf("ToggleMute: %v", err)
	}
	if muted {
		t.Fatal("ikinci toggle sesi geri açmalı")
	}
}

func TestEngineBuffersEarlyCandidates(t *testing.T) {
	engine, _, peer, _ := newTestEngine(t)
	events := engine.SignalEvents()

	events.OnIncoming("u1", json.RawMessage(`{"type":"offer"}`), "audio")
	waitState(t, engine, Ringing)

	// Peer henüz yokken gelen candidate'lar kaybolmamalı.
	events.OnCandidate(json.RawMessage(`{"candidate":"a"}`))
	events.OnCandidate(json.RawMessage(`{"candidate":"b"}`))

	engine.AcceptCall()
	waitState(t, engine, InCall)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && peer.candidateCount() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	if n := peer.candidateCount(); n != 2 {
		t.Fatalf("peer'a ulaşan candidate = %d, want 2", n)
	}

	events.OnCandidate(json.RawMessage(`{"candidate":"c"}`))
	engine.Snapshot() // loop'un işlemesini bekle
	if n := peer.candidateCount(); n != 3 {
		t.Fatalf("peer kurulduktan sonra candidate doğrudan eklenmeli, got %d", n)
	}
}

func TestEngineRejectsWhileBusy(t *testing.T) {
	engine, signal, _, _ := newTestEngine(t)
	events := engine.SignalEvents()

	engine.StartCall("u2", "audio")
	waitFor(t, "offer", func() bool { return signal.count(&signal.offers) == 1 })
	events.OnAccepted(json.RawMessage(`{"type":"answer"}`))
	waitState(t, engine, InCall)

	events.OnIncoming("u3", json.RawMessage(`{"type":"offer"}`), "audio")
	engine.Snapshot()

	signal.mu.Lock()
	rejects := append([]string(nil), signal.rejects...)
	signal.mu.Unlock()
	if len(rejects) != 1 || rejects[0] != "u3" {
		t.Fatalf("reject araya giren u3'e gitmeli, got %v", rejects)
	}

	if s := engine.Snapshot(); s.State != InCall || s.PeerID != "u2" {
		t.Fatalf("mevcut çağrı bozulmamalı, state = %v peer = %s", s.State, s.PeerID)
	}
}

func TestEngineEndCallIdempotent(t *testing.T) {
	engine, signal, peer, _ := newTestEngine(t)

	engine.StartCall("u2", "audio")
	waitFor(t, "offer", func() bool { return signal.count(&signal.offers) == 1 })
	engine.SignalEvents().OnAccepted(json.RawMessage(`{"type":"answer"}`))
	waitState(t, engine, InCall)

	engine.EndCall()
	engine.EndCall()
	engine.EndCall()
	waitState(t, engine, Idle)

	if n := signal.count(&signal.ends); n != 1 {
		t.Fatalf("end sinyali = %d, want 1", n)
	}
	peer.mu.Lock()
	closed := peer.closed
	peer.mu.Unlock()
	if !closed {
		t.Fatal("peer kapanmalı")
	}
}

func TestEngineMediaFailureSendsReject(t *testing.T) {
	signal := &fakeSignal{}
	gateway := &fakeGateway{err: ErrMediaPermission}

	engine := NewEngine(signal, gateway, WithRingTimeout(time.Hour))
	t.Cleanup(engine.Close)
	events := engine.SignalEvents()

	events.OnIncoming("u1", json.RawMessage(`{"type":"offer"}`), "video")
	waitState(t, engine, Ringing)

	engine.AcceptCall()
	waitState(t, engine, Idle)

	if n := signal.count(&signal.rejects); n != 1 {
		t.Fatalf("medya hatasında reject gitmeli, got %d", n)
	}
	if n := signal.count(&signal.answers); n != 0 {
		t.Fatalf("answer gitmemeli, got %d", n)
	}
}

func TestEngineToggleRequiresActiveCall(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	if _, err := engine.ToggleMute(); err == nil {
		t.Fatal("çağrı yokken mute hata dönmeli")
	}
}
