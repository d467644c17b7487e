// Package models — domain tipleri ve istek/yanıt DTO'ları.
package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/nomadnotes/nomadnotes/pkg"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Bio          *string   `json:"bio,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	HomeBase     *string   `json:"home_base,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicProfile, başka kullanıcılara gösterilen alt küme.
type PublicProfile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	HomeBase    *string `json:"home_base,omitempty"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		HomeBase:    u.HomeBase,
	}
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (r *RegisterRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.DisplayName = strings.TrimSpace(r.DisplayName)

	if _, err := mail.ParseAddress(r.Email); err != nil {
		return pkg.Wrap(pkg.ErrBadRequest, "invalid email address")
	}
	if len(r.Password) < 8 {
		return pkg.Wrap(pkg.ErrBadRequest, "password must be at least 8 characters")
	}
	if r.DisplayName == "" || len(r.DisplayName) > 64 {
		return pkg.Wrap(pkg.ErrBadRequest, "display name must be 1-64 characters")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if r.Email == "" || r.Password == "" {
		return pkg.Wrap(pkg.ErrBadRequest, "email and password are required")
	}
	return nil
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	HomeBase    *string `json:"home_base,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName != nil {
		trimmed := strings.TrimSpace(*r.DisplayName)
		if trimmed == "" || len(trimmed) > 64 {
			return pkg.Wrap(pkg.ErrBadRequest, "display name must be 1-64 characters")
		}
		r.DisplayName = &trimmed
	}
	if r.Bio != nil && len(*r.Bio) > 500 {
		return pkg.Wrap(pkg.ErrBadRequest, "bio must be at most 500 characters")
	}
	return nil
}
