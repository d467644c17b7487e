// Package callclient — 1:1 WebRTC çağrılarının istemci tarafı.
//
// Çağrı yaşam döngüsü saf bir state machine olarak modellenir: Reduce, mevcut
// durumu ve bir event'i alır, yeni durumu ve yapılması gereken yan etkilerin
// listesini döner. Yan etkiler (medya aç, offer gönder, peer kapat...) Engine
// tarafından uygulanır. Reducer'ın kendisi hiçbir I/O yapmaz, bu yüzden tüm
// geçişler timer'sız ve soket'siz test edilebilir.
package callclient

import "encoding/json"

// State, çağrının istemci tarafındaki durumu.
type State int

const (
	// Idle: aktif çağrı yok.
	Idle State = iota
	// Calling: offer gönderildi (veya medya açılıyor), cevap bekleniyor.
	Calling
	// Ringing: call:incoming alındı, kullanıcı kararı bekleniyor. Bu durumda
	// medya AÇILMAZ; kamera/mikrofon ancak kabul edilince açılır.
	Ringing
	// InCall: iki taraf bağlı, medya akıyor.
	InCall
	// Interrupted: görüşme sırasında sinyal soketi koptu; yeniden bağlanma
	// süresi doluncaya kadar medya ve peer ayakta tutulur.
	Interrupted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Calling:
		return "calling"
	case Ringing:
		return "ringing"
	case InCall:
		return "in_call"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Machine, reducer'ın üzerinde çalıştığı veri. Kopyalanarak taşınır.
type Machine struct {
	State    State
	PeerID   string
	CallType string

	// acquiring: medya açma devam ediyor (Calling'de offer öncesi,
	// Ringing'de accept sonrası).
	acquiring bool
	// accepting: Ringing'de kullanıcı kabul etti, medya bekleniyor.
	accepting bool

	// PendingOffer, Ringing'deyken saklanan karşı taraf offer'ı; medya
	// açıldığında peer'a uygulanır.
	PendingOffer json.RawMessage
}

// Event'ler. Kullanıcı aksiyonları, sinyal event'leri ve timer'lar aynı
// reducer'dan geçer.
type Event interface{ isCallEvent() }

type (
	// StartCall: kullanıcı arama başlattı.
	StartCall struct {
		PeerID   string
		CallType string
	}
	// IncomingCall: call:incoming alındı.
	IncomingCall struct {
		PeerID   string
		CallType string
		Offer    json.RawMessage
	}
	// Accept: kullanıcı gelen çağrıyı kabul etti.
	Accept struct{}
	// Reject: kullanıcı gelen çağrıyı reddetti.
	Reject struct{}
	// HangUp: kullanıcı çağrıyı bitirdi. Her durumda güvenlidir; aktif çağrı
	// yoksa hiçbir etki üretmez.
	HangUp struct{}
	// MediaReady: getUserMedia başarılı.
	MediaReady struct{}
	// MediaFailed: getUserMedia başarısız (izin yok, cihaz yok, cihaz meşgul).
	MediaFailed struct{}
	// RemoteAccepted: call:accepted alındı.
	RemoteAccepted struct{ Answer json.RawMessage }
	// RemoteRejected: call:rejected alındı.
	RemoteRejected struct{}
	// RemoteEnded: call:ended alındı.
	RemoteEnded struct{}
	// RemoteBusy: call:busy alındı.
	RemoteBusy struct{}
	// RingTimeout: çalma süresi doldu.
	RingTimeout struct{}
	// SocketLost: sinyal soketi koptu.
	SocketLost struct{}
	// SocketResumed: sinyal soketi geri geldi.
	SocketResumed struct{}
	// GraceExpired: kopukluk toleransı doldu.
	GraceExpired struct{}
)

func (StartCall) isCallEvent()      {}
func (IncomingCall) isCallEvent()   {}
func (Accept) isCallEvent()         {}
func (Reject) isCallEvent()         {}
func (HangUp) isCallEvent()         {}
func (MediaReady) isCallEvent()     {}
func (MediaFailed) isCallEvent()    {}
func (RemoteAccepted) isCallEvent() {}
func (RemoteRejected) isCallEvent() {}
func (RemoteEnded) isCallEvent()    {}
func (RemoteBusy) isCallEvent()     {}
func (RingTimeout) isCallEvent()    {}
func (SocketLost) isCallEvent()     {}
func (SocketResumed) isCallEvent()  {}
func (GraceExpired) isCallEvent()   {}

// Effect, Engine'in uygulayacağı yan etki.
type Effect int

const (
	EffAcquireMedia Effect = iota
	EffReleaseMedia
	EffCreatePeerAndOffer  // peer kur, offer üret ve gönder
	EffCreatePeerAndAnswer // peer kur, PendingOffer'ı uygula, answer gönder
	EffApplyAnswer         // gelen answer'ı peer'a uygula
	EffSendReject
	EffSendEnd
	EffClosePeer
	EffStartRingTimer
	EffStopRingTimer
	EffStartGraceTimer
	EffStopGraceTimer
)

// Reduce, saf geçiş fonksiyonu. Tanınmayan (geçersiz durumda gelen) event'ler
// durumu değiştirmez ve etki üretmez; bu, çifte hang-up gibi yarışları
// kendiliğinden zararsız kılar.
func Reduce(m Machine, ev Event) (Machine, []Effect) {
	switch e := ev.(type) {

	case StartCall:
		if m.State != Idle {
			return m, nil
		}
		m.State = Calling
		m.PeerID = e.PeerID
		m.CallType = e.CallType
		m.acquiring = true
		return m, []Effect{EffAcquireMedia}

	case IncomingCall:
		if m.State != Idle {
			// Meşgulken gelen çağrı reddedilir, mevcut çağrı etkilenmez.
			return m, []Effect{EffSendReject}
		}
		m.State = Ringing
		m.PeerID = e.PeerID
		m.CallType = e.CallType
		m.PendingOffer = e.Offer
		return m, []Effect{EffStartRingTimer}

	case Accept:
		if m.State != Ringing || m.accepting {
			return m, nil
		}
		m.accepting = true
		return m, []Effect{EffStopRingTimer, EffAcquireMedia}

	case Reject:
		if m.State != Ringing {
			return m, nil
		}
		return reset(m), []Effect{EffStopRingTimer, EffSendReject}

	case HangUp:
		switch m.State {
		case Calling:
			return reset(m), []Effect{EffStopRingTimer, EffSendEnd, EffClosePeer, EffReleaseMedia}
		case Ringing:
			// Ringing'de hangUp reject anlamına gelir.
			return reset(m), []Effect{EffStopRingTimer, EffSendReject, EffReleaseMedia}
		case InCall:
			return reset(m), []Effect{EffSendEnd, EffClosePeer, EffReleaseMedia}
		case Interrupted:
			return reset(m), []Effect{EffStopGraceTimer, EffClosePeer, EffReleaseMedia}
		default:
			// Idle'da hangUp no-op'tur.
			return m, nil
		}

	case MediaReady:
		if m.State == Calling && m.acquiring {
			m.acquiring = false
			return m, []Effect{EffCreatePeerAndOffer, EffStartRingTimer}
		}
		if m.State == Ringing && m.accepting {
			m.State = InCall
			m.accepting = false
			m.PendingOffer = nil
			return m, []Effect{EffCreatePeerAndAnswer}
		}
		// Geç gelen medya (çağrı bu arada kapanmış): hemen bırakılır.
		return m, []Effect{EffReleaseMedia}

	case MediaFailed:
		if m.State == Calling && m.acquiring {
			return reset(m), []Effect{EffReleaseMedia}
		}
		if m.State == Ringing && m.accepting {
			// Kabul edilmiş ama medya açılamamış çağrı karşı tarafa
			// reject olarak yansır.
			return reset(m), []Effect{EffSendReject, EffReleaseMedia}
		}
		return m, nil

	case RemoteAccepted:
		if m.State != Calling || m.acquiring {
			return m, nil
		}
		m.State = InCall
		return m, []Effect{EffStopRingTimer, EffApplyAnswer}

	case RemoteRejected, RemoteBusy:
		if m.State != Calling {
			return m, nil
		}
		return reset(m), []Effect{EffStopRingTimer, EffClosePeer, EffReleaseMedia}

	case RemoteEnded:
		switch m.State {
		case Calling:
			return reset(m), []Effect{EffStopRingTimer, EffClosePeer, EffReleaseMedia}
		case Ringing:
			return reset(m), []Effect{EffStopRingTimer, EffReleaseMedia}
		case InCall:
			return reset(m), []Effect{EffClosePeer, EffReleaseMedia}
		case Interrupted:
			return reset(m), []Effect{EffStopGraceTimer, EffClosePeer, EffReleaseMedia}
		default:
			return m, nil
		}

	case RingTimeout:
		switch m.State {
		case Calling:
			return reset(m), []Effect{EffSendEnd, EffClosePeer, EffReleaseMedia}
		case Ringing:
			return reset(m), []Effect{EffReleaseMedia}
		default:
			return m, nil
		}

	case SocketLost:
		if m.State == InCall {
			m.State = Interrupted
			return m, []Effect{EffStartGraceTimer}
		}
		if m.State == Calling || m.State == Ringing {
			// Kurulmamış çağrı soket olmadan kurtarılamaz.
			return reset(m), []Effect{EffStopRingTimer, EffClosePeer, EffReleaseMedia}
		}
		return m, nil

	case SocketResumed:
		if m.State != Interrupted {
			return m, nil
		}
		m.State = InCall
		return m, []Effect{EffStopGraceTimer}

	case GraceExpired:
		if m.State != Interrupted {
			return m, nil
		}
		return reset(m), []Effect{EffClosePeer, EffReleaseMedia}
	}

	return m, nil
}

func reset(m Machine) Machine {
	return Machine{State: Idle}
}
