package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
)

// ErrNoPersonas is returned by Catalog when the store holds no personas.
var ErrNoPersonas = errors.New("no personas available")

// Service assembles persona briefings from the store.
type Service struct {
	personas persona.Store
	log      *logger.Logger
}

// NewService creates a briefing service over the persona store.
func NewService(personas persona.Store, log *logger.Logger) *Service {
	return &Service{personas: personas, log: logger.OrNop(log).With("service", "ai")}
}

// Briefing loads one persona with its records and formats it.
func (s *Service) Briefing(ctx context.Context, personaID int64) (Briefing, bool, error) {
	profile, ok, err := persona.LoadProfile(ctx, s.personas, personaID)
	if err != nil {
		return Briefing{}, false, fmt.Errorf("load persona %d: %w", personaID, err)
	}
	if !ok {
		return Briefing{}, false, nil
	}
	return NewBriefing(profile), true, nil
}

// Catalog formats every persona in catalog order. It is re-read on each call.
func (s *Service) Catalog(ctx context.Context) ([]Briefing, error) {
	profiles, err := persona.LoadProfiles(ctx, s.personas)
	if err != nil {
		return nil, fmt.Errorf("load personas: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrNoPersonas
	}
	out := make([]Briefing, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, NewBriefing(p))
	}
	s.log.Debug("persona catalog loaded", "count", len(out))
	return out, nil
}
