// Package middleware — HTTP middleware'leri.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nomadnotes/nomadnotes/handlers"
	"github.com/nomadnotes/nomadnotes/pkg"
)

// TokenValidator, access token doğrulayan dar arayüz; auth service sağlar.
type TokenValidator interface {
	ValidateAccessToken(token string) (userID string, err error)
}

// Require, Authorization header'ındaki Bearer token'ı doğrular ve user ID'yi
// request context'ine koyar.
func Require(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := validator.ValidateAccessToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), handlers.UserContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
