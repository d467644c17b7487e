package handlers

import (
	"log"
	"net/http"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/pkg/ratelimit"
	"github.com/nomadnotes/nomadnotes/services"
)

type AuthHandler struct {
	auth         services.AuthService
	loginLimiter *ratelimit.Limiter
}

func NewAuthHandler(auth services.AuthService, loginLimiter *ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{auth: auth, loginLimiter: loginLimiter}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, tokens, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, map[string]any{
		"user":   user,
		"tokens": tokens,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if !h.loginLimiter.Allow(ip) {
		retry := h.loginLimiter.RetryAfterSeconds(ip)
		log.Printf("[auth] login rate limited: ip=%s", ip)
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests, ratelimit.FormatRetryMessage(retry))
		return
	}

	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, tokens, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	h.loginLimiter.Reset(ip)
	pkg.JSON(w, http.StatusOK, map[string]any{
		"user":   user,
		"tokens": tokens,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		pkg.Error(w, err)
		return
	}
	// Hesap var mı yok mu ayrımı yapılmaz.
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "if the account exists, an email was sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
