package handlers

import (
	"net/http"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/services"
)

type UserHandler struct {
	auth    services.AuthService
	uploads services.UploadService
}

func NewUserHandler(auth services.AuthService, uploads services.UploadService) *UserHandler {
	return &UserHandler{auth: auth, uploads: uploads}
}

// Me, oturum sahibinin tam profili.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUser(r.Context(), UserID(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, user)
}

// Get, başka bir kullanıcının public profili.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, user.Public())
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), UserID(r.Context()), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, user)
}

// UploadAvatar, multipart form'dan avatar görseli alır.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.auth.SetAvatar(r.Context(), UserID(r.Context()), url); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}
