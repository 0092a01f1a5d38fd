package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	chatModel "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/auth"
	chatService "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/pkg/utils"
)

// Handler exposes chat sessions of the authenticated user.
type Handler struct {
	chatSvc *chatService.Service
	log     *logger.Logger
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, log *logger.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		log:     logger.OrNop(log).With("handler", "chat"),
	}
}

// RegisterRoutes mounts chat routes; they expect an authenticated user on the context.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chats", h.handleOpenChat)
	r.Get("/users/{userID}/chats/{personaID}", h.handleActiveHistory)
	r.Get("/chats/{chatID}/messages", h.handleHistory)
	r.Post("/chats/{chatID}/messages", h.handleSendMessage)
	r.Delete("/chats/{chatID}", h.handleCloseChat)
}

func (h *Handler) handleOpenChat(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var payload struct {
		PersonaID int64 `json:"personaId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.PersonaID <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "personaId is required")
		return
	}

	c, created, err := h.chatSvc.OpenChat(r.Context(), u.ID, payload.PersonaID)
	if err != nil {
		h.fail(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.RespondJSON(w, status, c)
}

func (h *Handler) handleActiveHistory(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	personaID, ok := pathID(w, r, "personaID")
	if !ok {
		return
	}
	if userID != u.ID {
		utils.RespondError(w, http.StatusForbidden, "cannot read another user's chats")
		return
	}

	history, err := h.chatSvc.ActiveHistory(r.Context(), userID, personaID)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, history)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedChat(w, r)
	if !ok {
		return
	}
	history, err := h.chatSvc.History(r.Context(), c.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, history)
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedChat(w, r)
	if !ok {
		return
	}
	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exchange, err := h.chatSvc.Answer(r.Context(), c, payload.Content)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, exchange)
}

func (h *Handler) handleCloseChat(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedChat(w, r)
	if !ok {
		return
	}
	if _, err := h.chatSvc.CloseChat(r.Context(), c.ID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ownedChat(w http.ResponseWriter, r *http.Request) (chatModel.Chat, bool) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return chatModel.Chat{}, false
	}
	chatID, ok := pathID(w, r, "chatID")
	if !ok {
		return chatModel.Chat{}, false
	}
	c, err := h.chatSvc.OwnedChat(r.Context(), chatID, u.ID)
	if err != nil {
		h.fail(w, err)
		return chatModel.Chat{}, false
	}
	return c, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status, message := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("chat request failed", "error", err)
	}
	utils.RespondError(w, status, message)
}

// ErrorStatus maps chat service errors to an HTTP status and client message.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chatService.ErrEmptyMessage), errors.Is(err, chatService.ErrPersonaRequired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chatService.ErrChatNotFound):
		return http.StatusNotFound, "chat not found"
	case errors.Is(err, chatService.ErrCreateFailed), errors.Is(err, chatService.ErrPersonaNotFound):
		return http.StatusNotFound, "persona not found"
	case errors.Is(err, chatService.ErrChatClosed):
		return http.StatusConflict, "chat is closed"
	case errors.Is(err, chatService.ErrNoAnswer), errors.Is(err, agent.ErrModel),
		errors.Is(err, agent.ErrUnrecoverable), errors.Is(err, agent.ErrNoAnswer):
		return http.StatusBadGateway, "failed to generate a response"
	}
	return http.StatusInternalServerError, "internal error"
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}
