package callclient

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/pion/webrtc/v4"
)

// Varsayılan ICE yapılandırması. TURN kullanılmaz; simetrik NAT arkasındaki
// kullanıcılar için bağlantı kurulamayabilir, bu bilinen bir kısıttır.
var defaultICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302"}},
	{URLs: []string{"stun:stun1.l.google.com:19302"}},
	{URLs: []string{"stun:stun2.l.google.com:19302"}},
	{URLs: []string{"stun:stun3.l.google.com:19302"}},
	{URLs: []string{"stun:stun4.l.google.com:19302"}},
}

// Peer, tek bir çağrının RTCPeerConnection sarmalayıcısı.
//
// ICE candidate'ları remote description set edilmeden AddICECandidate'a
// verilemez; erken gelen candidate'lar buffer'lanır ve remote description
// uygulanınca sırayla eklenir.
type Peer struct {
	pc *webrtc.PeerConnection

	mu         sync.Mutex
	remoteSet  bool
	candidates []webrtc.ICECandidateInit

	// Kind bazında sender ve orijinal track; mute/unmute ReplaceTrack ile
	// yapılır, yeniden negotiation gerektirmez.
	senders map[webrtc.RTPCodecType]*webrtc.RTPSender
	tracks  map[webrtc.RTPCodecType]webrtc.TrackLocal
}

// PeerCallbacks, peer'dan Engine'e dönen olaylar.
type PeerCallbacks struct {
	OnLocalCandidate func(candidate json.RawMessage)
	OnTrack          func(track *webrtc.TrackRemote)
	OnDisconnected   func()
}

// NewPeer, yapılandırılmış bir peer connection kurar ve local track'leri
// ekler. api, medya oturumunun codec'leriyle hazırlanmış webrtc.API olmalıdır.
func NewPeer(api *webrtc.API, tracks []webrtc.TrackLocal, cb PeerCallbacks) (*Peer, error) {
	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers:           defaultICEServers,
		ICECandidatePoolSize: 10,
	})
	if err != nil {
		return nil, fmt.Errorf("peer connection create failed: %w", err)
	}

	p := &Peer{
		pc:      pc,
		senders: make(map[webrtc.RTPCodecType]*webrtc.RTPSender),
		tracks:  make(map[webrtc.RTPCodecType]webrtc.TrackLocal),
	}

	for _, track := range tracks {
		sender, err := pc.AddTrack(track)
		if err != nil {
			pc.Close()
			return nil, fmt.Errorf("track add failed: %w", err)
		}
		kind := track.Kind()
		p.senders[kind] = sender
		p.tracks[kind] = track
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil || cb.OnLocalCandidate == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			log.Printf("[peer] candidate marshal failed: %v", err)
			return
		}
		cb.OnLocalCandidate(raw)
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Printf("[peer] remote track: kind=%s codec=%s", track.Kind(), track.Codec().MimeType)
		if cb.OnTrack != nil {
			cb.OnTrack(track)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("[peer] connection state: %s", state)
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			if cb.OnDisconnected != nil {
				cb.OnDisconnected()
			}
		}
	})

	return p, nil
}

// CreateOffer, local offer üretir, set eder ve JSON olarak döner.
func (p *Peer) CreateOffer() (json.RawMessage, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("offer create failed: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("local description set failed: %w", err)
	}
	return json.Marshal(offer)
}

// AcceptAnswer, karşı tarafın answer'ını uygular ve buffer'daki
// candidate'ları boşaltır.
func (p *Peer) AcceptAnswer(raw json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &answer); err != nil {
		return fmt.Errorf("answer parse failed: %w", err)
	}
	if err := p.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("remote description set failed: %w", err)
	}
	return p.flushCandidates()
}

// AnswerOffer, karşı tarafın offer'ını uygular, answer üretir ve döner.
func (p *Peer) AnswerOffer(raw json.RawMessage) (json.RawMessage, error) {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &offer); err != nil {
		return nil, fmt.Errorf("offer parse failed: %w", err)
	}
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("remote description set failed: %w", err)
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("answer create failed: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("local description set failed: %w", err)
	}

	if err := p.flushCandidates(); err != nil {
		return nil, err
	}
	return json.Marshal(answer)
}

// AddCandidate, uzak candidate'ı ekler; remote description henüz yoksa
// buffer'lar.
func (p *Peer) AddCandidate(raw json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return fmt.Errorf("candidate parse failed: %w", err)
	}

	p.mu.Lock()
	if !p.remoteSet {
		p.candidates = append(p.candidates, candidate)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	return p.pc.AddICECandidate(candidate)
}

func (p *Peer) flushCandidates() error {
	p.mu.Lock()
	p.remoteSet = true
	buffered := p.candidates
	p.candidates = nil
	p.mu.Unlock()

	for _, c := range buffered {
		if err := p.pc.AddICECandidate(c); err != nil {
			return fmt.Errorf("buffered candidate add failed: %w", err)
		}
	}
	return nil
}

// SetAudioEnabled, mikrofonu açar/kapatır. ReplaceTrack SDP'yi değiştirmediği
// için karşı tarafla yeniden negotiation yapılmaz.
func (p *Peer) SetAudioEnabled(enabled bool) error {
	return p.setTrackEnabled(webrtc.RTPCodecTypeAudio, enabled)
}

// SetVideoEnabled, kamerayı açar/kapatır.
func (p *Peer) SetVideoEnabled(enabled bool) error {
	return p.setTrackEnabled(webrtc.RTPCodecTypeVideo, enabled)
}

func (p *Peer) setTrackEnabled(kind webrtc.RTPCodecType, enabled bool) error {
	p.mu.Lock()
	sender, ok := p.senders[kind]
	track := p.tracks[kind]
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("no %s track in this call", kind)
	}

	if enabled {
		return sender.ReplaceTrack(track)
	}
	return sender.ReplaceTrack(nil)
}

// Close, peer connection'ı kapatır. Birden fazla kez çağrılabilir.
func (p *Peer) Close() error {
	return p.pc.Close()
}
