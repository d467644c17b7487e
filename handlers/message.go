package handlers

import (
	"net/http"
	"strconv"

	"github.com/nomadnotes/nomadnotes/models"
	"github.com/nomadnotes/nomadnotes/pkg"
	"github.com/nomadnotes/nomadnotes/services"
)

type MessageHandler struct {
	messages services.MessageService
}

func NewMessageHandler(messages services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	conv, err := h.messages.OpenConversation(r.Context(), UserID(r.Context()), req.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, conv)
}

func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.messages.ListConversations(r.Context(), UserID(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, summaries)
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.messages.Send(r.Context(), UserID(r.Context()), r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body string `json:"body"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.messages.Edit(r.Context(), UserID(r.Context()), r.PathValue("id"), r.PathValue("messageID"), req.Body)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.messages.Delete(r.Context(), UserID(r.Context()), r.PathValue("id"), r.PathValue("messageID"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	msgs, err := h.messages.History(r.Context(), UserID(r.Context()), r.PathValue("id"), q.Get("before"), limit)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msgs)
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.MarkRead(r.Context(), UserID(r.Context()), r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messages.Search(r.Context(), UserID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msgs)
}
