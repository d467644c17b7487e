package handlers

import (
	"net/http"
	"strconv"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/services"
)

type MatchHandler struct {
	matches services.MatchService
}

func NewMatchHandler(matches services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

func (h *MatchHandler) Discover(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	candidates, err := h.matches.Discover(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, candidates)
}

func (h *MatchHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	var req models.SwipeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.matches.Swipe(r.Context(), UserID(r.Context()), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, result)
}

func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matches.ListMatches(r.Context(), UserID(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, matches)
}

func (h *MatchHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	if err := h.matches.Unmatch(r.Context(), UserID(r.Context()), r.PathValue("userID")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "unmatched"})
}
