package handlers

import (
	"net/http"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/services"
)

type BookingHandler struct {
	bookings services.BookingService
}

func NewBookingHandler(bookings services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	b, err := h.bookings.Create(r.Context(), UserID(r.Context()), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, b)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.bookings.Get(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, b)
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	items, err := h.bookings.ListMine(r.Context(), UserID(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, items)
}

func (h *BookingHandler) ListForMyGear(w http.ResponseWriter, r *http.Request) {
	items, err := h.bookings.ListForMyGear(r.Context(), UserID(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	b, err := h.bookings.Transition(r.Context(), UserID(r.Context()), r.PathValue("id"), req.Status)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, b)
}
