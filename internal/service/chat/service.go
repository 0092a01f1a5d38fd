package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/analytics"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrChatNotFound    = errors.New("chat not found")
	ErrChatClosed      = errors.New("chat is closed")
	ErrEmptyMessage    = errors.New("message content is empty")
	ErrInvalidRole     = errors.New("invalid message role")
	ErrPersonaNotFound = errors.New("persona not found")
	ErrCreateFailed    = errors.New("chat could not be created")
	ErrAppendFailed    = errors.New("message could not be stored")
	ErrNoAnswer        = errors.New("no answer generated")
)

const lockStripes = 64

// Briefer resolves a persona id into its formatted briefing.
type Briefer interface {
	Briefing(ctx context.Context, personaID int64) (ai.Briefing, bool, error)
}

// Responder answers a question as a persona.
type Responder interface {
	Run(ctx context.Context, briefing ai.Briefing, question string, opts ...agent.RunOption) (agent.Result, error)
}

// Exchange is one answered turn: the stored question and the stored reply.
type Exchange struct {
	Question chat.Message  `json:"question"`
	Reply    chat.Message  `json:"reply"`
	Steps    []agent.Trace `json:"steps,omitempty"`
}

// Service keeps one active chat per (user, persona) and persists each turn
// around the persona agent.
type Service struct {
	store     chat.Store
	briefer   Briefer
	responder Responder
	sink      analytics.Sink
	log       *logger.Logger

	locks [lockStripes]sync.Mutex
}

// NewService wires the manager. A nil sink discards analytics.
func NewService(store chat.Store, briefer Briefer, responder Responder, sink analytics.Sink, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		briefer:   briefer,
		responder: responder,
		sink:      analytics.OrNop(sink),
		log:       logger.OrNop(log).With("service", "chat"),
	}
}

// ActiveChat looks up the single active chat for the pair.
func (s *Service) ActiveChat(ctx context.Context, userID, personaID int64) (chat.Chat, bool, error) {
	return s.store.ActiveChat(ctx, userID, personaID)
}

// CreateChat starts a new chat. Integrity failures from the store, such as an
// unknown user or persona, come back as ErrCreateFailed.
func (s *Service) CreateChat(ctx context.Context, userID, personaID int64) (chat.Chat, error) {
	if personaID <= 0 {
		return chat.Chat{}, ErrPersonaRequired
	}
	c, err := s.store.CreateChat(ctx, userID, personaID)
	if errors.Is(err, chat.ErrIntegrity) {
		s.log.Warn("chat create rejected", "user_id", userID, "persona_id", personaID, "error", err)
		return chat.Chat{}, fmt.Errorf("%w: user %d, persona %d", ErrCreateFailed, userID, personaID)
	}
	if err != nil {
		return chat.Chat{}, err
	}
	return c, nil
}

// OpenChat returns the active chat for the pair, creating it when absent.
// Concurrent calls for the same pair observe the same chat.
func (s *Service) OpenChat(ctx context.Context, userID, personaID int64) (chat.Chat, bool, error) {
	mu := s.lockFor(userID, personaID)
	mu.Lock()
	defer mu.Unlock()

	if c, ok, err := s.store.ActiveChat(ctx, userID, personaID); err != nil || ok {
		return c, false, err
	}
	c, err := s.CreateChat(ctx, userID, personaID)
	if err != nil {
		return chat.Chat{}, false, err
	}
	s.log.Info("chat opened", "chat_id", c.ID, "user_id", userID, "persona_id", personaID)
	return c, true, nil
}

// FindChat returns the chat with the given id.
func (s *Service) FindChat(ctx context.Context, chatID int64) (chat.Chat, bool, error) {
	return s.store.FindChat(ctx, chatID)
}

// OwnedChat returns the chat only when it belongs to userID; chats of other
// users are reported as ErrChatNotFound.
func (s *Service) OwnedChat(ctx context.Context, chatID, userID int64) (chat.Chat, error) {
	c, ok, err := s.store.FindChat(ctx, chatID)
	if err != nil {
		return chat.Chat{}, err
	}
	if !ok || c.UserID != userID {
		return chat.Chat{}, fmt.Errorf("%w: %d", ErrChatNotFound, chatID)
	}
	return c, nil
}

// CloseChat deactivates a chat; the next OpenChat starts a fresh one.
func (s *Service) CloseChat(ctx context.Context, chatID int64) (bool, error) {
	return s.store.CloseChat(ctx, chatID)
}

// AppendMessage stores trimmed, non-empty content under the chat.
func (s *Service) AppendMessage(ctx context.Context, chatID int64, role chat.Role, content string) (chat.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return chat.Message{}, ErrEmptyMessage
	}
	if !role.Valid() {
		return chat.Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	msg, err := s.store.AppendMessage(ctx, chatID, role, content)
	if errors.Is(err, chat.ErrIntegrity) {
		return chat.Message{}, fmt.Errorf("%w: chat %d", ErrAppendFailed, chatID)
	}
	return msg, err
}

// History returns the chat's messages oldest first.
func (s *Service) History(ctx context.Context, chatID int64) ([]chat.Message, error) {
	msgs, err := s.store.History(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return msgs, nil
}

// ActiveHistory returns the history of the pair's active chat, or an empty
// list when there is none.
func (s *Service) ActiveHistory(ctx context.Context, userID, personaID int64) ([]chat.Message, error) {
	c, ok, err := s.store.ActiveChat(ctx, userID, personaID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []chat.Message{}, nil
	}
	return s.History(ctx, c.ID)
}

// Answer stores the user's message, asks the chat's persona and stores the
// reply. Nothing is written when the persona cannot be resolved. When
// generation fails the user's message stays stored and no reply is appended.
func (s *Service) Answer(ctx context.Context, c chat.Chat, content string, opts ...agent.RunOption) (ex Exchange, err error) {
	defer func() {
		s.sink.Record(analytics.CategoryChat, analytics.Event("chat_message", analytics.Status(err),
			"chat_id", c.ID, "persona_id", c.PersonaID))
	}()

	if !c.IsActive {
		return Exchange{}, ErrChatClosed
	}
	if strings.TrimSpace(content) == "" {
		return Exchange{}, ErrEmptyMessage
	}

	briefing, ok, err := s.briefer.Briefing(ctx, c.PersonaID)
	if err != nil {
		return Exchange{}, err
	}
	if !ok {
		return Exchange{}, fmt.Errorf("%w: %d", ErrPersonaNotFound, c.PersonaID)
	}

	question, err := s.AppendMessage(ctx, c.ID, chat.RoleUser, content)
	if err != nil {
		return Exchange{}, err
	}
	ex.Question = question

	res, err := s.responder.Run(ctx, briefing, question.Content, opts...)
	if err != nil {
		s.log.Error("persona agent failed", "chat_id", c.ID, "persona", briefing.Name, "error", err)
		return ex, err
	}
	ex.Steps = res.Steps
	if strings.TrimSpace(res.Answer) == "" {
		return ex, ErrNoAnswer
	}

	reply, err := s.AppendMessage(ctx, c.ID, chat.RoleAssistant, res.Answer)
	if err != nil {
		return ex, err
	}
	ex.Reply = reply
	return ex, nil
}

func (s *Service) lockFor(userID, personaID int64) *sync.Mutex {
	h := uint64(userID)*31 + uint64(personaID)
	return &s.locks[h%lockStripes]
}
