package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nomadnotes/nomadnotes/config"
	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg/email"
	"github.com/nomadnotes/nomadnotes/pkg/metrics"
	"github.com/nomadnotes/nomadnotes/repository"
	"github.com/nomadnotes/nomadnotes/ws"
)

// CallService, 1:1 görüşmelerin sunucu tarafı. Sunucu bir relay'dir: SDP ve
// ICE içeriklerini yorumlamadan karşı tarafa iletir, sadece kimin kiminle
// görüştüğünü ve çağrının durumunu takip eder.
//
// Kurallar:
//   - Bir kullanıcı aynı anda tek çağrıda olabilir; meşgulken gelen offer'a
//     caller'a call:busy döner.
//   - Ringing çağrı RingTimeout içinde cevaplanmazsa missed sayılır, iki
//     tarafa call:ended gider, callee'ye kaçırılan çağrı bildirimi düşer.
//   - Taraflardan biri kopunca ReconnectGrace beklenir; süre içinde geri
//     gelmezse çağrı failed olarak kapatılır.
//   - EndCall idempotenttir: çağrı zaten kapanmışsa sessizce yok sayılır.
type CallService interface {
	HandleOffer(from string, p ws.OfferPayload)
	HandleAnswer(from string, p ws.AnswerPayload)
	HandleReject(from string, p ws.TargetPayload)
	HandleEnd(from string, p ws.TargetPayload)
	HandleCandidate(from string, p ws.CandidatePayload)
	HandleDisconnect(userID string)
	HandleReconnect(userID string)

	History(ctx context.Context, userID string) ([]models.CallLog, error)
}

type callService struct {
	mu          sync.Mutex
	activeCalls map[string]*models.ActiveCall // callID -> call
	userCalls   map[string]string             // userID -> callID
	ringTimers  map[string]*time.Timer        // callID -> ring timeout
	graceTimers map[string]*time.Timer        // callID -> reconnect grace

	publisher     ws.EventPublisher
	callLogs      repository.CallLogRepository
	users         repository.UserRepository
	matches       matchChecker
	mailer        email.EmailSender
	notifications NotificationService
	cfg           config.CallConfig
}

func NewCallService(
	publisher ws.EventPublisher,
	callLogs repository.CallLogRepository,
	users repository.UserRepository,
	matches matchChecker,
	mailer email.EmailSender,
	notifications NotificationService,
	cfg config.CallConfig,
) CallService {
	return &callService{
		activeCalls:   make(map[string]*models.ActiveCall),
		userCalls:     make(map[string]string),
		ringTimers:    make(map[string]*time.Timer),
		graceTimers:   make(map[string]*time.Timer),
		publisher:     publisher,
		callLogs:      callLogs,
		users:         users,
		matches:       matches,
		mailer:        mailer,
		notifications: notifications,
		cfg:           cfg,
	}
}

func (s *callService) HandleOffer(from string, p ws.OfferPayload) {
	if p.To == "" || p.To == from {
		return
	}
	if p.Type != models.CallTypeAudio && p.Type != models.CallTypeVideo {
		p.Type = models.CallTypeVideo
	}

	// Sadece eşleşmiş kullanıcılar birbirini arayabilir.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	matched, err := s.matches.AreMatched(ctx, from, p.To)
	cancel()
	if err != nil {
		log.Printf("[call] match kontrolü başarısız: %v", err)
		return
	}
	if !matched {
		s.publisher.SendToUser(from, ws.OpErrorEvent, ws.ErrorPayload{Message: "call not allowed"})
		return
	}

	s.mu.Lock()

	if _, busy := s.userCalls[from]; busy {
		s.mu.Unlock()
		s.publisher.SendToUser(from, ws.OpCallBusy, struct{}{})
		return
	}
	if _, busy := s.userCalls[p.To]; busy {
		s.mu.Unlock()
		s.logCall(&models.ActiveCall{
			ID: uuid.NewString(), CallerID: from, CalleeID: p.To,
			CallType: p.Type, StartedAt: time.Now().UTC(),
		}, models.CallOutcomeBusy, nil)
		s.publisher.SendToUser(from, ws.OpCallBusy, struct{}{})
		return
	}
	if !s.publisher.IsOnline(p.To) {
		s.mu.Unlock()
		call := &models.ActiveCall{
			ID: uuid.NewString(), CallerID: from, CalleeID: p.To,
			CallType: p.Type, StartedAt: time.Now().UTC(),
		}
		s.logCall(call, models.CallOutcomeMissed, nil)
		s.notifyMissed(call)
		s.publisher.SendToUser(from, ws.OpCallEnded, struct{}{})
		return
	}

	call := &models.ActiveCall{
		ID:        uuid.NewString(),
		CallerID:  from,
		CalleeID:  p.To,
		CallType:  p.Type,
		State:     models.CallStateRinging,
		StartedAt: time.Now().UTC(),
	}
	s.activeCalls[call.ID] = call
	s.userCalls[from] = call.ID
	s.userCalls[p.To] = call.ID
	s.ringTimers[call.ID] = time.AfterFunc(s.cfg.RingTimeout, func() {
		s.ringTimeout(call.ID)
	})
	s.mu.Unlock()

	metrics.ActiveCalls.Inc()
	log.Printf("[call] ringing: id=%s caller=%s callee=%s type=%s", call.ID, from, p.To, p.Type)

	s.publisher.SendToUser(p.To, ws.OpCallIncoming, ws.IncomingPayload{
		From:  from,
		Offer: p.Offer,
		Type:  p.Type,
	})
}

func (s *callService) HandleAnswer(from string, p ws.AnswerPayload) {
	s.mu.Lock()
	call := s.callBetween(from, p.To)
	if call == nil || call.State != models.CallStateRinging || call.CalleeID != from {
		s.mu.Unlock()
		return
	}

	call.State = models.CallStateActive
	s.stopTimerLocked(s.ringTimers, call.ID)
	s.mu.Unlock()

	log.Printf("[call] answered: id=%s", call.ID)
	s.publisher.SendToUser(call.CallerID, ws.OpCallAccepted, ws.AcceptedPayload{Answer: p.Answer})
}

func (s *callService) HandleReject(from string, p ws.TargetPayload) {
	s.mu.Lock()
	call := s.callBetween(from, p.To)
	if call == nil || call.State != models.CallStateRinging || call.CalleeID != from {
		s.mu.Unlock()
		return
	}
	s.removeCallLocked(call)
	s.mu.Unlock()

	metrics.ActiveCalls.Dec()
	log.Printf("[call] rejected: id=%s", call.ID)

	s.logCall(call, models.CallOutcomeRejected, nil)
	s.publisher.SendToUser(call.CallerID, ws.OpCallRejected, struct{}{})
}

func (s *callService) HandleEnd(from string, p ws.TargetPayload) {
	s.mu.Lock()
	call := s.callBetween(from, p.To)
	if call == nil {
		// Çağrı zaten kapanmış; çifte hang-up yarışında ikinci end buraya düşer.
		s.mu.Unlock()
		return
	}
	wasActive := call.State == models.CallStateActive
	s.removeCallLocked(call)
	s.mu.Unlock()

	metrics.ActiveCalls.Dec()
	log.Printf("[call] ended: id=%s by=%s", call.ID, from)

	if wasActive {
		now := time.Now().UTC()
		s.logCall(call, models.CallOutcomeCompleted, &now)
	} else {
		// Caller daha çalarken vazgeçti; callee için kaçırılmış sayılır.
		s.logCall(call, models.CallOutcomeMissed, nil)
		s.notifyMissed(call)
	}

	s.publisher.SendToUser(call.Other(from), ws.OpCallEnded, struct{}{})
}

func (s *callService) HandleCandidate(from string, p ws.CandidatePayload) {
	s.mu.Lock()
	call := s.callBetween(from, p.To)
	s.mu.Unlock()

	// Candidate'lar sadece canlı bir çağrının tarafları arasında taşınır;
	// ringing aşamasında da iletilir, client tarafı buffer'lar.
	if call == nil {
		return
	}

	s.publisher.SendToUser(p.To, ws.OpICECandidate, ws.CandidatePayload{
		Candidate: p.Candidate,
	})
}

// HandleDisconnect, kullanıcının tüm soketleri kapandığında çağrılır.
func (s *callService) HandleDisconnect(userID string) {
	s.mu.Lock()
	callID, ok := s.userCalls[userID]
	if !ok {
		s.mu.Unlock()
		return
	}
	call := s.activeCalls[callID]

	if call.State == models.CallStateRinging {
		// Çalarken kopan taraf için grace beklenmez.
		s.removeCallLocked(call)
		s.mu.Unlock()

		metrics.ActiveCalls.Dec()
		if userID == call.CallerID {
			s.logCall(call, models.CallOutcomeFailed, nil)
			s.publisher.SendToUser(call.CalleeID, ws.OpCallEnded, struct{}{})
		} else {
			s.logCall(call, models.CallOutcomeMissed, nil)
			s.notifyMissed(call)
			s.publisher.SendToUser(call.CallerID, ws.OpCallEnded, struct{}{})
		}
		return
	}

	// Aktif görüşmede kopma: yeniden bağlanma şansı tanınır.
	if _, waiting := s.graceTimers[callID]; !waiting {
		s.graceTimers[callID] = time.AfterFunc(s.cfg.ReconnectGrace, func() {
			s.graceExpired(callID, userID)
		})
		log.Printf("[call] party disconnected, grace started: id=%s user=%s", callID, userID)
	}
	s.mu.Unlock()
}

// HandleReconnect, kullanıcı tekrar online olduğunda grace timer'ını iptal eder.
func (s *callService) HandleReconnect(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	callID, ok := s.userCalls[userID]
	if !ok {
		return
	}
	if timer, waiting := s.graceTimers[callID]; waiting {
		timer.Stop()
		delete(s.graceTimers, callID)
		log.Printf("[call] party reconnected within grace: id=%s user=%s", callID, userID)
	}
}

func (s *callService) History(ctx context.Context, userID string) ([]models.CallLog, error) {
	return s.callLogs.ListByUser(ctx, userID, 50)
}

func (s *callService) ringTimeout(callID string) {
	s.mu.Lock()
	call, ok := s.activeCalls[callID]
	if !ok || call.State != models.CallStateRinging {
		s.mu.Unlock()
		return
	}
	s.removeCallLocked(call)
	s.mu.Unlock()

	metrics.ActiveCalls.Dec()
	log.Printf("[call] ring timeout: id=%s", callID)

	s.logCall(call, models.CallOutcomeMissed, nil)
	s.notifyMissed(call)
	s.publisher.SendToUser(call.CallerID, ws.OpCallEnded, struct{}{})
	s.publisher.SendToUser(call.CalleeID, ws.OpCallEnded, struct{}{})
}

func (s *callService) graceExpired(callID, disconnectedID string) {
	s.mu.Lock()
	call, ok := s.activeCalls[callID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.graceTimers, callID)
	s.removeCallLocked(call)
	s.mu.Unlock()

	metrics.ActiveCalls.Dec()
	log.Printf("[call] grace expired, ending call: id=%s", callID)

	now := time.Now().UTC()
	s.logCall(call, models.CallOutcomeFailed, &now)
	s.publisher.SendToUser(call.Other(disconnectedID), ws.OpCallEnded, struct{}{})
}

// callBetween, iki kullanıcı arasındaki canlı çağrıyı döner. Lock'lu çağrılır.
func (s *callService) callBetween(a, b string) *models.ActiveCall {
	callID, ok := s.userCalls[a]
	if !ok {
		return nil
	}
	call := s.activeCalls[callID]
	if call == nil || !call.HasParty(b) {
		return nil
	}
	return call
}

// removeCallLocked, çağrıyı tüm map'lerden ve timer'lardan temizler.
func (s *callService) removeCallLocked(call *models.ActiveCall) {
	delete(s.activeCalls, call.ID)
	delete(s.userCalls, call.CallerID)
	delete(s.userCalls, call.CalleeID)
	s.stopTimerLocked(s.ringTimers, call.ID)
	s.stopTimerLocked(s.graceTimers, call.ID)
}

func (s *callService) stopTimerLocked(timers map[string]*time.Timer, callID string) {
	if timer, ok := timers[callID]; ok {
		timer.Stop()
		delete(timers, callID)
	}
}

func (s *callService) logCall(call *models.ActiveCall, outcome string, endedAt *time.Time) {
	metrics.CallsTotal.WithLabelValues(call.CallType, outcome).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := &models.CallLog{
		ID:        uuid.NewString(),
		CallerID:  call.CallerID,
		CalleeID:  call.CalleeID,
		CallType:  call.CallType,
		Outcome:   outcome,
		StartedAt: call.StartedAt,
		EndedAt:   endedAt,
	}
	if err := s.callLogs.Create(ctx, entry); err != nil {
		log.Printf("[call] log write failed: id=%s err=%v", call.ID, err)
	}
}

// notifyMissed, callee'ye kaçırılan çağrı bildirimi ve e-postası gönderir.
func (s *callService) notifyMissed(call *models.ActiveCall) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.notifications.Notify(ctx, call.CalleeID, models.NotifMissedCall, map[string]any{
		"caller_id": call.CallerID,
		"call_type": call.CallType,
	})

	caller, err := s.users.GetByID(ctx, call.CallerID)
	if err != nil {
		return
	}
	callee, err := s.users.GetByID(ctx, call.CalleeID)
	if err != nil {
		return
	}
	if err := s.mailer.SendMissedCall(callee.Email, callee.DisplayName, caller.DisplayName, call.CallType); err != nil {
		log.Printf("[call] missed call email failed: callee=%s err=%v", call.CalleeID, err)
	}
}
