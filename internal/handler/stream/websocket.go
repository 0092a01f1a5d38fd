package stream

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/handler/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/auth"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/pkg/utils"
)

const (
	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = 54 * time.Second
	writeWait         = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(*http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type inboundMessage struct {
	Message string `json:"message"`
}

// Frame is one outbound websocket message.
type Frame struct {
	Type      string       `json:"type"`
	ChatID    int64        `json:"chatId"`
	Step      *agent.Trace `json:"step,omitempty"`
	Reply     *chatReply   `json:"reply,omitempty"`
	Error     string       `json:"error,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// wsConn serialises writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(f Frame) error {
	f.Timestamp = time.Now().Unix()
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(f)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// handleWebSocket answers every inbound {"message": "..."} frame in the chat.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
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
	c, err := h.chatSvc.OwnedChat(r.Context(), chatID, u.ID)
	if err != nil {
		status, msg := chat.ErrorStatus(err)
		utils.RespondError(w, status, msg)
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer raw.Close()
	conn := &wsConn{conn: raw}
	log := h.log.With("chat_id", c.ID)
	log.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = raw.SetReadDeadline(time.Now().Add(h.pongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	go pingLoop(ctx, conn, h.pingPeriod)

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "error", err)
			}
			return
		}
		// Pongs are only handled inside reads, so an answer may outlive pongWait.
		_ = raw.SetReadDeadline(time.Time{})

		// The chat may have been closed since the previous frame.
		if c, err = h.chatSvc.OwnedChat(ctx, chatID, u.ID); err != nil {
			_, text := chat.ErrorStatus(err)
			_ = conn.send(Frame{Type: "error", ChatID: chatID, Error: text})
			return
		}
		exchange, err := h.chatSvc.Answer(ctx, c, msg.Message, agent.WithStepHandler(func(tr agent.Trace) {
			_ = conn.send(Frame{Type: "step", ChatID: c.ID, Step: &tr})
		}))
		_ = raw.SetReadDeadline(time.Now().Add(h.pongWait))
		if err != nil {
			_, text := chat.ErrorStatus(err)
			if sendErr := conn.send(Frame{Type: "error", ChatID: c.ID, Error: text}); sendErr != nil {
				return
			}
			continue
		}
		reply := &chatReply{ID: exchange.Reply.ID, Content: exchange.Reply.Content}
		if err := conn.send(Frame{Type: "message", ChatID: c.ID, Reply: reply}); err != nil {
			return
		}
	}
}

func pingLoop(ctx context.Context, conn *wsConn, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
