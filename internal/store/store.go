// Package store holds the persistence adapters: an in-memory implementation
// for development and tests, and a gorm-backed relational implementation.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
)

// Store is the union of every persistence contract.
type Store interface {
	persona.Store
	chat.Store
	user.Store
}

// New builds the store selected by driver ("memory", "sqlite" or "postgres")
// and migrates relational schemas. The returned close func is never nil.
func New(ctx context.Context, driver, dsn string, logg *logger.Logger) (Store, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "memory":
		return NewMemory(), func() error { return nil }, nil
	default:
		g, err := Open(driver, dsn, logg)
		if err != nil {
			return nil, nil, err
		}
		if err := g.Migrate(ctx); err != nil {
			_ = g.Close()
			return nil, nil, err
		}
		return g, g.Close, nil
	}
}

// SeedIfEmpty saves the given profiles when the catalog has no personas yet.
// It reports how many profiles were written.
func SeedIfEmpty(ctx context.Context, s persona.Store, profiles []persona.Profile) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, profile := range profiles {
		if _, err := persona.SaveProfile(ctx, s, profile); err != nil {
			return i, fmt.Errorf("seed persona %q: %w", profile.Name, err)
		}
	}
	return len(profiles), nil
}
