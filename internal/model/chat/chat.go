package chat

import (
	"context"
	"errors"
	"time"
)

// ErrIntegrity reports a referential failure on create, e.g. a chat for an unknown persona
// or a message for an unknown chat.
var ErrIntegrity = errors.New("integrity violation")

// Chat is a persistent conversation between one user and one persona.
// At most one chat per (UserID, PersonaID) is active at a time.
type Chat struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	PersonaID int64     `json:"personaId"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists chats and their append-only message log.
type Store interface {
	ActiveChat(ctx context.Context, userID, personaID int64) (Chat, bool, error)
	CreateChat(ctx context.Context, userID, personaID int64) (Chat, error)
	FindChat(ctx context.Context, id int64) (Chat, bool, error)
	CloseChat(ctx context.Context, id int64) (bool, error)
	AppendMessage(ctx context.Context, chatID int64, role Role, content string) (Message, error)
	History(ctx context.Context, chatID int64) ([]Message, error)
}
