package handlers

import (
	"net/http"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/services"
)

type TripHandler struct {
	trips services.TripService
}

func NewTripHandler(trips services.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTripRequest
	if !decodeBody(w, r, &req) {
		return
	}

	trip, err := h.trips.Create(r.Context(), UserID(r.Context()), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, trip)
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	trip, err := h.trips.Get(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, trip)
}

func (h *TripHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	trips, err := h.trips.ListMine(r.Context(), UserID(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, trips)
}

func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTripRequest
	if !decodeBody(w, r, &req) {
		return
	}

	trip, err := h.trips.Update(r.Context(), UserID(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, trip)
}

func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.trips.Delete(r.Context(), UserID(r.Context()), r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *TripHandler) AddItineraryItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateItineraryItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	item, err := h.trips.AddItineraryItem(r.Context(), UserID(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, item)
}

func (h *TripHandler) DeleteItineraryItem(w http.ResponseWriter, r *http.Request) {
	err := h.trips.DeleteItineraryItem(r.Context(), UserID(r.Context()), r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
