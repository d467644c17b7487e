package callclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pion/webrtc/v4"
)

const (
	defaultRingTimeout = 30 * time.Second
	defaultGracePeriod = 15 * time.Second
)

// ErrNoActiveCall, çağrı gerektiren bir işlem Idle'da çağrılınca döner.
var ErrNoActiveCall = errors.New("no active call")

// SignalSender, Engine'in Signaler'a olan dar bağımlılığı; testlerde sahtesi
// geçilir.
type SignalSender interface {
	SendOffer(to string, offer json.RawMessage, callType string) error
	SendAnswer(to string, answer json.RawMessage) error
	SendReject(to string) error
	SendEnd(to string) error
	SendCandidate(to string, candidate json.RawMessage) error
}

// peerConn, Peer'ın Engine tarafından kullanılan yüzeyi.
type peerConn interface {
	CreateOffer() (json.RawMessage, error)
	AcceptAnswer(raw json.RawMessage) error
	AnswerOffer(raw json.RawMessage) (json.RawMessage, error)
	AddCandidate(raw json.RawMessage) error
	SetAudioEnabled(enabled bool) error
	SetVideoEnabled(enabled bool) error
	Close() error
}

// peerFactory, test edilebilirlik için peer kurulumunu soyutlar.
type peerFactory func(api *webrtc.API, tracks []webrtc.TrackLocal, cb PeerCallbacks) (peerConn, error)

func defaultPeerFactory(api *webrtc.API, tracks []webrtc.TrackLocal, cb PeerCallbacks) (peerConn, error) {
	return NewPeer(api, tracks, cb)
}

// Snapshot, çağrının dışarıya görünen anlık durumu.
type Snapshot struct {
	State    State
	PeerID   string
	CallType string
	Muted    bool
	VideoOff bool
}

// Engine, çağrı yaşam döngüsünün kontrolcüsü. Tüm durum tek bir goroutine'de
// (run) değişir; public metodlar komutlarını bu goroutine'e postalar. Böylece
// FSM, timer'lar ve peer/medya kaynakları lock'suz tutarlı kalır.
type Engine struct {
	signal  SignalSender
	media   MediaGateway
	newPeer peerFactory

	ringTimeout time.Duration
	gracePeriod time.Duration

	// OnStateChange, her durum geçişinde run goroutine'inden çağrılır.
	OnStateChange func(Snapshot)
	// OnRemoteTrack, karşı tarafın medyası geldiğinde çağrılır.
	OnRemoteTrack func(track *webrtc.TrackRemote)

	cmds chan func()
	done chan struct{}

	// Aşağıdakilere sadece run goroutine'i dokunur.
	machine    Machine
	session    *MediaSession
	peer       peerConn
	ringTimer  *time.Timer
	graceTimer *time.Timer
	muted      bool
	videoOff   bool
	// earlyCandidates: peer henüz kurulmadan gelen remote candidate'lar.
	earlyCandidates []json.RawMessage
}

// EngineOption, Engine yapılandırması.
type EngineOption func(*Engine)

func WithRingTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.ringTimeout = d }
}

func WithGracePeriod(d time.Duration) EngineOption {
	return func(e *Engine) { e.gracePeriod = d }
}

func withPeerFactory(f peerFactory) EngineOption {
	return func(e *Engine) { e.newPeer = f }
}

func NewEngine(signal SignalSender, media MediaGateway, opts ...EngineOption) *Engine {
	e := &Engine{
		signal:      signal,
		media:       media,
		newPeer:     defaultPeerFactory,
		ringTimeout: defaultRingTimeout,
		gracePeriod: defaultGracePeriod,
		cmds:        make(chan func(), 64),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.run()
	return e
}

func (e *Engine) run() {
	for {
		select {
		case cmd := <-e.cmds:
			cmd()
		case <-e.done:
			// Kapanışta açık kaynaklar bırakılmaz.
			e.dispatch(HangUp{})
			return
		}
	}
}

func (e *Engine) post(cmd func()) {
	select {
	case e.cmds <- cmd:
	case <-e.done:
	}
}

// SetSignaler, signaler'ı sonradan bağlar. Signaler kendisi engine'in
// callback'lerine ihtiyaç duyduğundan kuruluş sırası döngüseldir; engine önce
// signal'sız yaratılır, signaler SignalEvents ile kurulur, Connect'ten önce
// buraya verilir.
func (e *Engine) SetSignaler(s SignalSender) {
	done := make(chan struct{})
	e.post(func() {
		e.signal = s
		close(done)
	})
	<-done
}

// SignalEvents, Signaler kurulurken verilecek callback setini döner.
func (e *Engine) SignalEvents() SignalEvents {
	return SignalEvents{
		OnIncoming: func(from string, offer json.RawMessage, callType string) {
			e.post(func() { e.dispatch(IncomingCall{PeerID: from, CallType: callType, Offer: offer}) })
		},
		OnAccepted: func(answer json.RawMessage) {
			e.post(func() { e.dispatch(RemoteAccepted{Answer: answer}) })
		},
		OnRejected: func() {
			e.post(func() { e.dispatch(RemoteRejected{}) })
		},
		OnEnded: func() {
			e.post(func() { e.dispatch(RemoteEnded{}) })
		},
		OnBusy: func() {
			e.post(func() { e.dispatch(RemoteBusy{}) })
		},
		OnCandidate: func(candidate json.RawMessage) {
			e.post(func() { e.handleRemoteCandidate(candidate) })
		},
		OnSocketLost: func() {
			e.post(func() { e.dispatch(SocketLost{}) })
		},
		OnResumed: func() {
			e.post(func() { e.dispatch(SocketResumed{}) })
		},
	}
}

// StartCall, peerID'yi arar. callType "audio" veya "video".
func (e *Engine) StartCall(peerID, callType string) {
	e.post(func() { e.dispatch(StartCall{PeerID: peerID, CallType: callType}) })
}

// AcceptCall, çalan çağrıyı kabul eder.
func (e *Engine) AcceptCall() {
	e.post(func() { e.dispatch(Accept{}) })
}

// RejectCall, çalan çağrıyı reddeder.
func (e *Engine) RejectCall() {
	e.post(func() { e.dispatch(Reject{}) })
}

// EndCall, çağrıyı bitirir. Aktif çağrı yoksa sessizce döner; arka arkaya
// birden çok kez çağrılması güvenlidir.
func (e *Engine) EndCall() {
	e.post(func() { e.dispatch(HangUp{}) })
}

// ToggleMute, mikrofonu açıp kapatır ve yeni durumu döner (true = sessiz).
func (e *Engine) ToggleMute() (bool, error) {
	return e.toggle(&e.muted, func(p peerConn, enabled bool) error {
		return p.SetAudioEnabled(enabled)
	})
}

// ToggleVideo, kamerayı açıp kapatır ve yeni durumu döner (true = kapalı).
func (e *Engine) ToggleVideo() (bool, error) {
	return e.toggle(&e.videoOff, func(p peerConn, enabled bool) error {
		return p.SetVideoEnabled(enabled)
	})
}

func (e *Engine) toggle(flag *bool, set func(peerConn, bool) error) (bool, error) {
	type result struct {
		value bool
		err   error
	}
	reply := make(chan result, 1)

	e.post(func() {
		if e.peer == nil || e.machine.State != InCall && e.machine.State != Interrupted {
			reply <- result{err: ErrNoActiveCall}
			return
		}
		next := !*flag
		if err := set(e.peer, !next); err != nil {
			reply <- result{value: *flag, err: err}
			return
		}
		*flag = next
		reply <- result{value: next}
	})

	select {
	case r := <-reply:
		return r.value, r.err
	case <-e.done:
		return false, ErrNoActiveCall
	}
}

// Snapshot, mevcut durumu döner.
func (e *Engine) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	e.post(func() { reply <- e.snapshot() })

	select {
	case s := <-reply:
		return s
	case <-e.done:
		return Snapshot{State: Idle}
	}
}

// Close, engine'i durdurur ve açık çağrıyı kapatır.
func (e *Engine) Close() {
	select {
	case <-e.done:
	default:
		close(e.done)
	}
}

func (e *Engine) snapshot() Snapshot {
	return Snapshot{
		State:    e.machine.State,
		PeerID:   e.machine.PeerID,
		CallType: e.machine.CallType,
		Muted:    e.muted,
		VideoOff: e.videoOff,
	}
}

// dispatch, event'i reducer'dan geçirir ve etkileri uygular. Sadece run
// goroutine'inden çağrılır.
func (e *Engine) dispatch(ev Event) {
	prev := e.machine
	next, effects := Reduce(prev, ev)
	e.machine = next

	for _, effect := range effects {
		e.apply(effect, prev, ev)
	}

	if prev.State != next.State && e.OnStateChange != nil {
		e.OnStateChange(e.snapshot())
	}
}

func (e *Engine) apply(effect Effect, prev Machine, ev Event) {
	switch effect {

	case EffAcquireMedia:
		video := e.machine.CallType == "video"
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			session, err := e.media.Acquire(ctx, video)
			e.post(func() {
				if err != nil {
					log.Printf("[engine] media acquire failed: %v", err)
					e.dispatch(MediaFailed{})
					return
				}
				e.session = session
				e.dispatch(MediaReady{})
			})
		}()

	case EffReleaseMedia:
		if e.session != nil {
			e.session.Close()
			e.session = nil
		}
		e.muted = false
		e.videoOff = false

	case EffCreatePeerAndOffer:
		if err := e.createPeer(); err != nil {
			e.dispatch(HangUp{})
			return
		}
		offer, err := e.peer.CreateOffer()
		if err != nil {
			log.Printf("[engine] offer create failed: %v", err)
			e.dispatch(HangUp{})
			return
		}
		if err := e.signal.SendOffer(e.machine.PeerID, offer, e.machine.CallType); err != nil {
			log.Printf("[engine] offer send failed: %v", err)
			e.dispatch(HangUp{})
		}

	case EffCreatePeerAndAnswer:
		if err := e.createPeer(); err != nil {
			e.dispatch(HangUp{})
			return
		}
		answer, err := e.peer.AnswerOffer(prev.PendingOffer)
		if err != nil {
			log.Printf("[engine] answer create failed: %v", err)
			e.dispatch(HangUp{})
			return
		}
		if err := e.signal.SendAnswer(e.machine.PeerID, answer); err != nil {
			log.Printf("[engine] answer send failed: %v", err)
			e.dispatch(HangUp{})
		}

	case EffApplyAnswer:
		accepted, ok := ev.(RemoteAccepted)
		if !ok || e.peer == nil {
			return
		}
		if err := e.peer.AcceptAnswer(accepted.Answer); err != nil {
			log.Printf("[engine] answer apply failed: %v", err)
			e.dispatch(HangUp{})
		}

	case EffSendReject:
		// Meşgulken gelen çağrının reddi event'teki kaynağa gider, aktif
		// çağrının peer'ı değişmez.
		target := prev.PeerID
		if inc, ok := ev.(IncomingCall); ok && prev.State != Idle {
			target = inc.PeerID
		}
		if err := e.signal.SendReject(target); err != nil {
			log.Printf("[engine] reject send failed: %v", err)
		}

	case EffSendEnd:
		if err := e.signal.SendEnd(prev.PeerID); err != nil {
			log.Printf("[engine] end send failed: %v", err)
		}

	case EffClosePeer:
		if e.peer != nil {
			e.peer.Close()
			e.peer = nil
		}
		e.earlyCandidates = nil

	case EffStartRingTimer:
		e.stopTimer(&e.ringTimer)
		e.ringTimer = time.AfterFunc(e.ringTimeout, func() {
			e.post(func() { e.dispatch(RingTimeout{}) })
		})

	case EffStopRingTimer:
		e.stopTimer(&e.ringTimer)

	case EffStartGraceTimer:
		e.stopTimer(&e.graceTimer)
		e.graceTimer = time.AfterFunc(e.gracePeriod, func() {
			e.post(func() { e.dispatch(GraceExpired{}) })
		})

	case EffStopGraceTimer:
		e.stopTimer(&e.graceTimer)
	}
}

func (e *Engine) createPeer() error {
	if e.session == nil {
		return fmt.Errorf("no media session")
	}

	peerID := e.machine.PeerID
	peer, err := e.newPeer(e.session.API, e.session.Tracks, PeerCallbacks{
		OnLocalCandidate: func(candidate json.RawMessage) {
			if err := e.signal.SendCandidate(peerID, candidate); err != nil {
				log.Printf("[engine] candidate send failed: %v", err)
			}
		},
		OnTrack: func(track *webrtc.TrackRemote) {
			if e.OnRemoteTrack != nil {
				e.OnRemoteTrack(track)
			}
		},
		OnDisconnected: func() {
			e.post(func() { e.dispatch(RemoteEnded{}) })
		},
	})
	if err != nil {
		log.Printf("[engine] peer create failed: %v", err)
		return err
	}
	e.peer = peer

	// Peer kurulmadan önce gelen candidate'lar şimdi eklenir; remote
	// description'dan önce gelenleri peer kendi içinde buffer'lar.
	for _, c := range e.earlyCandidates {
		if err := peer.AddCandidate(c); err != nil {
			log.Printf("[engine] early candidate add failed: %v", err)
		}
	}
	e.earlyCandidates = nil
	return nil
}

func (e *Engine) handleRemoteCandidate(candidate json.RawMessage) {
	switch e.machine.State {
	case Calling, Ringing, InCall, Interrupted:
		if e.peer == nil {
			e.earlyCandidates = append(e.earlyCandidates, candidate)
			return
		}
		if err := e.peer.AddCandidate(candidate); err != nil {
			log.Printf("[engine] candidate add failed: %v", err)
		}
	default:
		// Idle'da gelen candidate, kapanmış bir çağrının artığıdır.
	}
}

func (e *Engine) stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
