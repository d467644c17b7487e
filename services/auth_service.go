// Package services — iş mantığı katmanı. Her servis repository arayüzlerine
// ve diğer servislerin dar arayüzlerine bağımlıdır; handler'lar servisleri
// çağırır, servisler HTTP'den habersizdir.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nomadnotes/nomadnotes/config"
	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/pkg/email"
	"github.com/nomadnotes/nomadnotes/repository"
)

const bcryptCost = 12

type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, *models.TokenPair, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, *models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(token string) (userID string, err error)

	RequestPasswordReset(ctx context.Context, emailAddr string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	SetAvatar(ctx context.Context, userID, avatarURL string) (*models.User, error)
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	resets   repository.ResetTokenRepository
	mailer   email.EmailSender
	jwtCfg   config.JWTConfig
	baseURL  string
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	resets repository.ResetTokenRepository,
	mailer email.EmailSender,
	jwtCfg config.JWTConfig,
	baseURL string,
) AuthService {
	return &authService{
		users:    users,
		sessions: sessions,
		resets:   resets,
		mailer:   mailer,
		jwtCfg:   jwtCfg,
		baseURL:  baseURL,
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, *models.TokenPair, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("password hash failed: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[auth] user registered: %s", user.ID)
	return user, pair, nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, *models.TokenPair, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Hesap var mı yok mu bilgisi sızdırılmaz.
		return nil, nil, pkg.Wrap(pkg.ErrUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, pkg.Wrap(pkg.ErrUnauthorized, "invalid credentials")
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[auth] user logged in: %s", user.ID)
	return user, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	session, err := s.sessions.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, pkg.Wrap(pkg.ErrUnauthorized, "invalid refresh token")
	}

	if time.Now().After(session.ExpiresAt) {
		s.sessions.Delete(ctx, session.ID)
		return nil, pkg.Wrap(pkg.ErrUnauthorized, "refresh token expired")
	}

	// Rotation: eski session silinir, yenisi oluşturulur.
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, session.UserID)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessions.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		// Zaten geçersiz token için logout idempotent davranır.
		return nil
	}
	return s.sessions.Delete(ctx, session.ID)
}

func (s *authService) ValidateAccessToken(tokenStr string) (string, error) {
	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", pkg.Wrap(pkg.ErrUnauthorized, "invalid access token")
	}
	return claims.UserID, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		// Hesap yoksa da başarı dönülür; enumeration engellenir.
		log.Printf("[auth] password reset requested for unknown email")
		return nil
	}

	raw, err := randomToken()
	if err != nil {
		return err
	}

	reset := &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return err
	}

	resetURL := s.baseURL + "/reset-password?token=" + raw
	if err := s.mailer.SendPasswordReset(user.Email, user.DisplayName, resetURL); err != nil {
		log.Printf("[auth] password reset email failed: user=%s err=%v", user.ID, err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return pkg.Wrap(pkg.ErrBadRequest, "password must be at least 8 characters")
	}

	reset, err := s.resets.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		return pkg.Wrap(pkg.ErrBadRequest, "invalid or expired reset token")
	}
	if reset.UsedAt != nil || time.Now().After(reset.ExpiresAt) {
		return pkg.Wrap(pkg.ErrBadRequest, "invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("password hash failed: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, reset.UserID, string(hash)); err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return err
	}

	// Şifre değişince tüm oturumlar düşürülür.
	if err := s.sessions.DeleteByUser(ctx, reset.UserID); err != nil {
		log.Printf("[auth] session cleanup after reset failed: user=%s err=%v", reset.UserID, err)
	}

	log.Printf("[auth] password reset completed: user=%s", reset.UserID)
	return nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.HomeBase != nil {
		user.HomeBase = req.HomeBase
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) SetAvatar(ctx context.Context, userID, avatarURL string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = &avatarURL
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) issueTokens(ctx context.Context, userID string) (*models.TokenPair, error) {
	now := time.Now()
	claims := models.TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.AccessTokenTTL)),
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("access token sign failed: %w", err)
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:               uuid.NewString(),
		UserID:           userID,
		RefreshTokenHash: hashToken(refresh),
		ExpiresAt:        now.Add(s.jwtCfg.RefreshTokenTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtCfg.AccessTokenTTL.Seconds()),
	}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
