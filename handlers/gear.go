package handlers

import (
	"net/http"
	"strconv"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/services"
)

type GearHandler struct {
	gear    services.GearService
	uploads services.UploadService
}

func NewGearHandler(gear services.GearService, uploads services.UploadService) *GearHandler {
	return &GearHandler{gear: gear, uploads: uploads}
}

func (h *GearHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGearRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g, err := h.gear.Create(r.Context(), UserID(r.Context()), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, g)
}

func (h *GearHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.gear.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, g)
}

func (h *GearHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	items, err := h.gear.List(r.Context(), models.GearFilter{
		Category: q.Get("category"),
		Location: q.Get("location"),
		Query:    q.Get("q"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, items)
}

func (h *GearHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	items, err := h.gear.ListMine(r.Context(), UserID(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, items)
}

func (h *GearHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGearRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g, err := h.gear.Update(r.Context(), UserID(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, g)
}

func (h *GearHandler) SetListed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Listed bool `json:"listed"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.gear.SetListed(r.Context(), UserID(r.Context()), r.PathValue("id"), req.Listed); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]bool{"listed": req.Listed})
}

func (h *GearHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	url, err := h.uploads.SaveImage(file, header)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.gear.SetImage(r.Context(), UserID(r.Context()), r.PathValue("id"), url); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"image_url": url})
}

func (h *GearHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.gear.Delete(r.Context(), UserID(r.Context()), r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
