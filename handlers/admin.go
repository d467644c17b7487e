package handlers

import (
	"net/http"

	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/repository"
)

type AdminHandler struct {
	stats repository.StatsRepository
}

func NewAdminHandler(stats repository.StatsRepository) *AdminHandler {
	return &AdminHandler{stats: stats}
}

// Stats, platform geneli özet sayılar.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.Collect(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, s)
}
