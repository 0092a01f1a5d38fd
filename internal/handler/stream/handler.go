package stream

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/handler/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/auth"
	chatService "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/pkg/utils"
)

// Handler streams persona answers over Server-Sent Events and websockets.
type Handler struct {
	chatSvc    *chatService.Service
	log        *logger.Logger
	pongWait   time.Duration
	pingPeriod time.Duration
}

// Option customises a Handler.
type Option func(*Handler)

// WithKeepalive overrides how long a websocket may stay silent and how often
// it is pinged. pingPeriod must be shorter than pongWait.
func WithKeepalive(pongWait, pingPeriod time.Duration) Option {
	return func(h *Handler) {
		h.pongWait, h.pingPeriod = pongWait, pingPeriod
	}
}

// New creates a stream handler.
func New(chatSvc *chatService.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		chatSvc:    chatSvc,
		log:        logger.OrNop(log).With("handler", "stream"),
		pongWait:   defaultPongWait,
		pingPeriod: defaultPingPeriod,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the SSE and websocket endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{chatID}", h.handleSSE)
	r.Get("/ws/chats/{chatID}", h.handleWebSocket)
}

// Event is the payload of one SSE frame.
type Event struct {
	RequestID string       `json:"requestId"`
	ChatID    int64        `json:"chatId"`
	Step      *agent.Trace `json:"step,omitempty"`
	Reply     *chatReply   `json:"reply,omitempty"`
	Finished  bool         `json:"finished,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type chatReply struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// handleSSE answers ?message= in the chat and emits start, step, message and
// end events, or an error event when generation fails.
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil || chatID <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "invalid chatID")
		return
	}
	message := r.URL.Query().Get("message")
	if strings.TrimSpace(message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}
	c, err := h.chatSvc.OwnedChat(r.Context(), chatID, u.ID)
	if err != nil {
		status, msg := chat.ErrorStatus(err)
		utils.RespondError(w, status, msg)
		return
	}

	requestID := uuid.NewString()
	log := h.log.With("chat_id", c.ID, "request_id", requestID)
	send := func(name string, ev Event) {
		ev.RequestID, ev.ChatID = requestID, c.ID
		if err := utils.SendSSEEvent(w, flusher, name, ev); err != nil {
			log.Warn("sse write failed", "event", name, "error", err)
		}
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	send("start", Event{})

	exchange, err := h.chatSvc.Answer(r.Context(), c, message, agent.WithStepHandler(func(tr agent.Trace) {
		send("step", Event{Step: &tr})
	}))
	if err != nil {
		_, msg := chat.ErrorStatus(err)
		log.Error("stream answer failed", "error", err)
		send("error", Event{Error: msg})
		return
	}

	send("message", Event{Reply: &chatReply{ID: exchange.Reply.ID, Content: exchange.Reply.Content}})
	send("end", Event{Finished: true})
	log.Info("stream completed", "steps", len(exchange.Steps))
}
