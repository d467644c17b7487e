// Package handlers — HTTP katmanı. Handler'lar isteği parse eder, servisi
// çağırır ve pkg.JSON / pkg.Error ile yanıtı yazar; iş mantığı içermez.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nomadnotes/nomadnotes/pkg"
)

type contextKey string

// UserContextKey, auth middleware'in doğrulanmış user ID'yi koyduğu anahtar.
const UserContextKey contextKey = "userID"

// UserID, istekten doğrulanmış kullanıcı kimliğini okur. Auth middleware'den
// geçmeyen bir route'ta çağrılırsa boş döner.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserContextKey).(string)
	return id
}

// decodeBody, JSON gövdesini parse eder; hatada yanıtı yazar ve false döner.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
