package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nomadnotes/nomadnotes/config"
	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
)

type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[user.Email]; exists {
		return pkg.ErrAlreadyExists
	}
	cp := *user
	f.byID[user.ID] = &cp
	f.byEmail[user.Email] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[user.ID]
	if !ok {
		return pkg.ErrNotFound
	}
	*u = *user
	return nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return pkg.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserStore) GetProfiles(ctx context.Context, ids []string) (map[string]models.PublicProfile, error) {
	return map[string]models.PublicProfile{}, nil
}

type fakeSessionStore struct {
	mu     sync.Mutex
	byHash map[string]*models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{byHash: make(map[string]*models.Session)}
}

func (f *fakeSessionStore) Create(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *session
	f.byHash[session.RefreshTokenHash] = &cp
	return nil
}

func (f *fakeSessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byHash[tokenHash]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, s := range f.byHash {
		if s.ID == id {
			delete(f.byHash, hash)
			return nil
		}
	}
	return pkg.ErrNotFound
}

func (f *fakeSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for hash, s := range f.byHash {
		if s.UserID == userID {
			delete(f.byHash, hash)
		}
	}
	return nil
}

func (f *fakeSessionStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byHash)
}

type fakeResetStore struct {
	mu     sync.Mutex
	byHash map[string]*models.PasswordResetToken
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{byHash: make(map[string]*models.PasswordResetToken)}
}

func (f *fakeResetStore) Create(ctx context.Context, token *models.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.byHash[token.TokenHash] = &cp
	return nil
}

func (f *fakeResetStore) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byHash[tokenHash]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeResetStore) MarkUsed(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range f.byHash {
		if t.ID == id {
			t.UsedAt = &now
			return nil
		}
	}
	return pkg.ErrNotFound
}

func newAuthFixture() (AuthService, *fakeSessionStore) {
	sessions := newFakeSessionStore()
	svc := NewAuthService(
		newFakeUserStore(),
		sessions,
		newFakeResetStore(),
		&fakeMailer{},
		config.JWTConfig{
			Secret:          "test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		"http://localhost:8080",
	)
	return svc, sessions
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "mina@example.com", Password: "correct horse", DisplayName: "Mina",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("kayıtta token çifti dönmeli")
	}

	uid, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if uid != user.ID {
		t.Fatalf("uid = %s, want %s", uid, user.ID)
	}

	if _, _, err := svc.Login(ctx, &models.LoginRequest{Email: "mina@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "mina@example.com", Password: "correct horse", DisplayName: "Mina",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, err := svc.Login(ctx, &models.LoginRequest{Email: "mina@example.com", Password: "wrong"})
	if !errors.Is(err, pkg.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	// Olmayan hesap da aynı hatayı döner.
	_, _, err = svc.Login(ctx, &models.LoginRequest{Email: "yok@example.com", Password: "whatever"})
	if !errors.Is(err, pkg.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestDuplicateRegister(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	req := &models.RegisterRequest{Email: "mina@example.com", Password: "correct horse", DisplayName: "Mina"}
	if _, _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("Register: %v", err)
	}

	req2 := &models.RegisterRequest{Email: "mina@example.com", Password: "other pass 1", DisplayName: "Mina 2"}
	if _, _, err := svc.Register(ctx, req2); !errors.Is(err, pkg.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, sessions := newAuthFixture()
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "mina@example.com", Password: "correct horse", DisplayName: "Mina",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token rotasyonla değişmeli")
	}
	if sessions.count() != 1 {
		t.Fatalf("session sayısı = %d, want 1", sessions.count())
	}

	// Eski token artık geçersiz.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, &models.RegisterRequest{
		Email: "mina@example.com", Password: "correct horse", DisplayName: "Mina",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	// Tekrarlanan logout sessizce geçer.
	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("ikinci Logout: %v", err)
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture()

	if _, err := svc.ValidateAccessToken("not-a-jwt"); !errors.Is(err, pkg.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
