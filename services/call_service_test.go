package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nomadnotes/nomadnotes/config"
	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/ws"
)

type sentEvent struct {
	To string
	Op string
}

type fakePublisher struct {
	mu      sync.Mutex
	offline map[string]bool
	sent    []sentEvent
}

func (f *fakePublisher) SendToUser(userID, op string, payload any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEvent{To: userID, Op: op})
	return !f.offline[userID]
}

func (f *fakePublisher) IsOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.offline[userID]
}

func (f *fakePublisher) OnlineUsers() []string { return nil }

func (f *fakePublisher) setOffline(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline[userID] = true
}

// events, verilen kullanıcıya giden op listesini döner.
func (f *fakePublisher) events(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ops []string
	for _, e := range f.sent {
		if e.To == userID {
			ops = append(ops, e.Op)
		}
	}
	return ops
}

type fakeCallLogs struct {
	mu      sync.Mutex
	entries []models.CallLog
}

func (f *fakeCallLogs) Create(ctx context.Context, entry *models.CallLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeCallLogs) ListByUser(ctx context.Context, userID string, limit int) ([]models.CallLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var logs []models.CallLog
	for _, e := range f.entries {
		if e.CallerID == userID || e.CalleeID == userID {
			logs = append(logs, e)
		}
	}
	return logs, nil
}

func (f *fakeCallLogs) outcomes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		out = append(out, e.Outcome)
	}
	return out
}

type fakeCallUsers struct{}

func (fakeCallUsers) Create(ctx context.Context, user *models.User) error { return nil }

func (fakeCallUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Email: id + "@example.com", DisplayName: id}, nil
}

func (fakeCallUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, pkg.ErrNotFound
}

func (fakeCallUsers) Update(ctx context.Context, user *models.User) error { return nil }

func (fakeCallUsers) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return nil
}

func (fakeCallUsers) GetProfiles(ctx context.Context, ids []string) (map[string]models.PublicProfile, error) {
	return map[string]models.PublicProfile{}, nil
}

type fakeMailer struct {
	mu          sync.Mutex
	missedCalls []string // callee e-postaları
}

func (f *fakeMailer) SendPasswordReset(to, displayName, resetURL string) error { return nil }

func (f *fakeMailer) SendBookingRequested(to, ownerName, renterName, gearTitle string, start, end time.Time) error {
	return nil
}

func (f *fakeMailer) SendBookingConfirmed(to, renterName, gearTitle string, start, end time.Time) error {
	return nil
}

func (f *fakeMailer) SendNewMatch(to, displayName, matchedName string) error { return nil }

func (f *fakeMailer) SendMissedCall(to, displayName, callerName, callType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missedCalls = append(f.missedCalls, to)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (f *fakeNotifier) Notify(ctx context.Context, userID, kind string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

func (f *fakeNotifier) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeNotifier) MarkRead(ctx context.Context, userID, notificationID string) error { return nil }

func (f *fakeNotifier) MarkAllRead(ctx context.Context, userID string) (int64, error) { return 0, nil }

func (f *fakeNotifier) UnreadCount(ctx context.Context, userID string) (int, error) { return 0, nil }

type fakeMatches struct {
	unmatched bool
}

func (f *fakeMatches) AreMatched(ctx context.Context, userA, userB string) (bool, error) {
	return !f.unmatched, nil
}

type callFixture struct {
	svc      CallService
	pub      *fakePublisher
	logs     *fakeCallLogs
	matches  *fakeMatches
	mailer   *fakeMailer
	notifier *fakeNotifier
}

func newCallFixture(cfg config.CallConfig) *callFixture {
	if cfg.RingTimeout == 0 {
		cfg.RingTimeout = time.Hour
	}
	if cfg.ReconnectGrace == 0 {
		cfg.ReconnectGrace = time.Hour
	}

	f := &callFixture{
		pub:      &fakePublisher{offline: make(map[string]bool)},
		logs:     &fakeCallLogs{},
		matches:  &fakeMatches{},
		mailer:   &fakeMailer{},
		notifier: &fakeNotifier{},
	}
	f.svc = NewCallService(f.pub, f.logs, fakeCallUsers{}, f.matches, f.mailer, f.notifier, cfg)
	return f
}

func lastOp(t *testing.T, ops []string) string {
	t.Helper()
	if len(ops) == 0 {
		t.Fatal("hiç event gönderilmemiş")
	}
	return ops[len(ops)-1]
}

var testSDP = json.RawMessage(`{"type":"offer","sdp":"v=0"}`)

func TestOfferRingsCallee(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})

	if got := lastOp(t, f.pub.events("u2")); got != ws.OpCallIncoming {
		t.Fatalf("callee'ye giden op = %s, want %s", got, ws.OpCallIncoming)
	}
}

func TestAnswerReachesCaller(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeVideo})
	f.svc.HandleAnswer("u2", ws.AnswerPayload{To: "u1", Answer: testSDP})

	if got := lastOp(t, f.pub.events("u1")); got != ws.OpCallAccepted {
		t.Fatalf("caller'a giden op = %s, want %s", got, ws.OpCallAccepted)
	}
}

func TestAnswerOnlyFromCallee(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})
	// Caller kendi çağrısını "cevaplayamaz".
	f.svc.HandleAnswer("u1", ws.AnswerPayload{To: "u2", Answer: testSDP})

	for _, op := range f.pub.events("u1") {
		if op == ws.OpCallAccepted {
			t.Fatal("caller'dan gelen answer yok sayılmalı")
		}
	}
}

func TestRejectNotifiesCaller(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})
	f.svc.HandleReject("u2", ws.TargetPayload{To: "u1"})

	if got := lastOp(t, f.pub.events("u1")); got != ws.OpCallRejected {
		t.Fatalf("caller'a giden op = %s, want %s", got, ws.OpCallRejected)
	}
	if got := f.logs.outcomes(); len(got) != 1 || got[0] != models.CallOutcomeRejected {
		t.Fatalf("outcomes = %v, want [rejected]", got)
	}
}

func TestBusyCallee(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	// u2 ile u3 görüşüyor.
	f.svc.HandleOffer("u2", ws.OfferPayload{To: "u3", Offer: testSDP, Type: models.CallTypeAudio})
	f.svc.HandleAnswer("u3", ws.AnswerPayload{To: "u2", Answer: testSDP})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})

	if got := lastOp(t, f.pub.events("u1")); got != ws.OpCallBusy {
		t.Fatalf("caller'a giden op = %s, want %s", got, ws.OpCallBusy)
	}
	if got := f.logs.outcomes(); len(got) != 1 || got[0] != models.CallOutcomeBusy {
		t.Fatalf("outcomes = %v, want [busy]", got)
	}
	// u2'nin aktif çağrısı bozulmamalı: answer'dan sonra gelen end hala işler.
	f.svc.HandleEnd("u2", ws.TargetPayload{To: "u3"})
	if got := lastOp(t, f.pub.events("u3")); got != ws.OpCallEnded {
		t.Fatalf("u3'e giden op = %s, want %s", got, ws.OpCallEnded)
	}
}

func TestOfflineCalleeIsMissed(t *testing.T) {
	f := newCallFixture(config.CallConfig{})
	f.pub.setOffline("u2")

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})

	if got := lastOp(t, f.pub.events("u1")); got != ws.OpCallEnded {
		t.Fatalf("caller'a giden op = %s, want %s", got, ws.OpCallEnded)
	}
	if got := f.logs.outcomes(); len(got) != 1 || got[0] != models.CallOutcomeMissed {
		t.Fatalf("outcomes = %v, want [missed]", got)
	}

	f.notifier.mu.Lock()
	kinds := append([]string(nil), f.notifier.kinds...)
	f.notifier.mu.Unlock()
	if len(kinds) != 1 || kinds[0] != models.NotifMissedCall {
		t.Fatalf("notification kinds = %v, want [missed_call]", kinds)
	}

	f.mailer.mu.Lock()
	mails := len(f.mailer.missedCalls)
	f.mailer.mu.Unlock()
	if mails != 1 {
		t.Fatalf("missed call e-postası = %d, want 1", mails)
	}
}

func TestEndIdempotent(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})
	f.svc.HandleAnswer("u2", ws.AnswerPayload{To: "u1", Answer: testSDP})

	// İki taraf da aynı anda kapatır.
	f.svc.HandleEnd("u1", ws.TargetPayload{To: "u2"})
	f.svc.HandleEnd("u2", ws.TargetPayload{To: "u1"})

	if got := f.logs.outcomes(); len(got) != 1 || got[0] != models.CallOutcomeCompleted {
		t.Fatalf("outcomes = %v, want [completed]", got)
	}

	ended := 0
	f.pub.mu.Lock()
	for _, e := range f.pub.sent {
		if e.Op == ws.OpCallEnded {
			ended++
		}
	}
	f.pub.mu.Unlock()
	if ended != 1 {
		t.Fatalf("call:ended sayısı = %d, want 1", ended)
	}
}

func TestCallerCancelWhileRingingIsMissed(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})
	f.svc.HandleEnd("u1", ws.TargetPayload{To: "u2"})

	if got := f.logs.outcomes(); len(got) != 1 || got[0] != models.CallOutcomeMissed {
		t.Fatalf("outcomes = %v, want [missed]", got)
	}
	if got := lastOp(t, f.pub.events("u2")); got != ws.OpCallEnded {
		t.Fatalf("callee'ye giden op = %s, want %s", got, ws.OpCallEnded)
	}
}

func TestRingTimeout(t *testing.T) {
	f := newCallFixture(config.CallConfig{RingTimeout: 20 * time.Millisecond, ReconnectGrace: time.Hour})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if out := f.logs.outcomes(); len(out) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := f.logs.outcomes(); len(got) != 1 || got[0] != models.CallOutcomeMissed {
		t.Fatalf("outcomes = %v, want [missed]", got)
	}
	if got := lastOp(t, f.pub.events("u1")); got != ws.OpCallEnded {
		t.Fatalf("caller'a giden op = %s, want %s", got, ws.OpCallEnded)
	}
	if got := lastOp(t, f.pub.events("u2")); got != ws.OpCallEnded {
		t.Fatalf("callee'ye giden op = %s, want %s", got, ws.OpCallEnded)
	}

	// Çağrı temizlendi: taraflar yeni çağrı başlatabilir.
	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})
	if got := lastOp(t, f.pub.events("u2")); got != ws.OpCallIncoming {
		t.Fatalf("yeni çağrı çalmalı, op = %s", got)
	}
}

func TestDisconnectGraceExpires(t *testing.T) {
	f := newCallFixture(config.CallConfig{RingTimeout: time.Hour, ReconnectGrace: 20 * time.Millisecond})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})
	f.svc.HandleAnswer("u2", ws.AnswerPayload{To: "u1", Answer: testSDP})

	f.svc.HandleDisconnect("u2")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if out := f.logs.outcomes(); len(out) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := f.logs.outcomes(); len(got) != 1 || got[0] != models.CallOutcomeFailed {
		t.Fatalf("outcomes = %v, want [failed]", got)
	}
	if got := lastOp(t, f.pub.events("u1")); got != ws.OpCallEnded {
		t.Fatalf("kalan tarafa giden op = %s, want %s", got, ws.OpCallEnded)
	}
}

func TestReconnectWithinGrace(t *testing.T) {
	f := newCallFixture(config.CallConfig{RingTimeout: time.Hour, ReconnectGrace: 50 * time.Millisecond})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})
	f.svc.HandleAnswer("u2", ws.AnswerPayload{To: "u1", Answer: testSDP})

	f.svc.HandleDisconnect("u2")
	f.svc.HandleReconnect("u2")

	time.Sleep(100 * time.Millisecond)

	if got := f.logs.outcomes(); len(got) != 0 {
		t.Fatalf("grace içinde dönen taraf çağrıyı düşürmemeli, outcomes = %v", got)
	}

	// Çağrı hala canlı: end normal şekilde tamamlanır.
	f.svc.HandleEnd("u1", ws.TargetPayload{To: "u2"})
	if got := f.logs.outcomes(); len(got) != 1 || got[0] != models.CallOutcomeCompleted {
		t.Fatalf("outcomes = %v, want [completed]", got)
	}
}

func TestDisconnectWhileRingingTearsDown(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})
	f.svc.HandleDisconnect("u2")

	// Callee çalarken koptu: kaçırılmış sayılır, caller'a end gider.
	if got := f.logs.outcomes(); len(got) != 1 || got[0] != models.CallOutcomeMissed {
		t.Fatalf("outcomes = %v, want [missed]", got)
	}
	if got := lastOp(t, f.pub.events("u1")); got != ws.OpCallEnded {
		t.Fatalf("caller'a giden op = %s, want %s", got, ws.OpCallEnded)
	}
}

func TestCandidateRelayOnlyBetweenParties(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeAudio})

	f.svc.HandleCandidate("u1", ws.CandidatePayload{To: "u2", Candidate: testSDP})
	if got := lastOp(t, f.pub.events("u2")); got != ws.OpICECandidate {
		t.Fatalf("callee'ye giden op = %s, want %s", got, ws.OpICECandidate)
	}

	// Çağrının tarafı olmayan birinden gelen candidate iletilmez.
	f.svc.HandleCandidate("u9", ws.CandidatePayload{To: "u2", Candidate: testSDP})
	count := 0
	for _, op := range f.pub.events("u2") {
		if op == ws.OpICECandidate {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("u2'ye ulaşan candidate = %d, want 1", count)
	}
}

func TestSelfCallIgnored(t *testing.T) {
	f := newCallFixture(config.CallConfig{})

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u1", Offer: testSDP, Type: models.CallTypeAudio})

	if n := len(f.pub.events("u1")); n != 0 {
		t.Fatalf("kendini arama hiçbir event üretmemeli, got %d", n)
	}
}

func TestUnmatchedOfferRefused(t *testing.T) {
	f := newCallFixture(config.CallConfig{})
	f.matches.unmatched = true

	f.svc.HandleOffer("u1", ws.OfferPayload{To: "u2", Offer: testSDP, Type: models.CallTypeVideo})

	if got := lastOp(t, f.pub.events("u1")); got != ws.OpErrorEvent {
		t.Fatalf("eşleşmemiş arama error döndürmeli, got %q", got)
	}
	if n := len(f.pub.events("u2")); n != 0 {
		t.Fatalf("callee'ye hiçbir şey gitmemeli, got %d", n)
	}
	if n := len(f.logs.entries); n != 0 {
		t.Fatalf("call log yazılmamalı, got %d", n)
	}
}
