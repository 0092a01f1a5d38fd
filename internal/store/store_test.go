package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"sqlite": func(t *testing.T) Store {
			s, closeFn, err := New(context.Background(), "sqlite", "", logger.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = closeFn() })
			return s
		},
	}
}

func TestPersonaLifecycle(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			created, err := s.Create(ctx, persona.Persona{Name: "  Alice ", Nationality: "Irish", Birthdate: persona.NewDate(1990, time.January, 2)})
			require.NoError(t, err)
			assert.NotZero(t, created.ID)
			assert.Equal(t, "Alice", created.Name)

			got, ok, err := s.FindByID(ctx, created.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "1990-01-02", got.Birthdate.String())

			newName := "Alicia"
			updated, ok, err := s.Update(ctx, created.ID, persona.Patch{Name: &newName})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "Alicia", updated.Name)
			assert.Equal(t, "Irish", updated.Nationality)

			_, ok, err = s.Update(ctx, created.ID+100, persona.Patch{Name: &newName})
			require.NoError(t, err)
			assert.False(t, ok)

			empty := " "
			_, _, err = s.Update(ctx, created.ID, persona.Patch{Name: &empty})
			assert.ErrorIs(t, err, persona.ErrValidation)

			deleted, err := s.Delete(ctx, created.ID)
			require.NoError(t, err)
			assert.True(t, deleted)

			_, ok, err = s.FindByID(ctx, created.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			deleted, err = s.Delete(ctx, created.ID)
			require.NoError(t, err)
			assert.False(t, deleted)
		})
	}
}

func TestChildRecordsRequirePersona(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			_, err := s.AddHobby(ctx, persona.Hobby{PersonaID: 42, Type: persona.HobbyOther, Name: "Chess", Frequency: persona.FrequencyOften})
			assert.ErrorIs(t, err, persona.ErrPersonaNotFound)

			p, err := s.Create(ctx, persona.Persona{Name: "Bob"})
			require.NoError(t, err)

			first, err := s.AddOccupation(ctx, persona.Occupation{PersonaID: p.ID, Position: "Baker", Workplace: "Bakery", DateStarted: persona.NewDate(2010, time.May, 1)})
			require.NoError(t, err)
			second, err := s.AddOccupation(ctx, persona.Occupation{PersonaID: p.ID, Position: "Owner", Workplace: "Bakery", DateStarted: persona.NewDate(2015, time.May, 1)})
			require.NoError(t, err)

			list, err := s.Occupations(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, first.ID, list[0].ID)
			assert.Equal(t, second.ID, list[1].ID)

			_, err = s.AddEducation(ctx, persona.Education{
				PersonaID:   p.ID,
				Level:       persona.LevelBachelor,
				Course:      "Baking",
				School:      "School",
				DateStarted: persona.NewDate(2005, time.September, 1),
				IsGraduated: true,
			})
			assert.ErrorIs(t, err, persona.ErrValidation)

			deleted, err := s.Delete(ctx, p.ID)
			require.NoError(t, err)
			require.True(t, deleted)

			_, ok, err := s.FindOccupation(ctx, first.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestActiveChatAndHistory(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			u, err := s.CreateUser(ctx, user.User{Name: "Ana", Email: "Ana@Example.com", PasswordHash: "x"})
			require.NoError(t, err)
			assert.Equal(t, "ana@example.com", u.Email)

			_, err = s.CreateUser(ctx, user.User{Name: "Ana 2", Email: "ana@example.com", PasswordHash: "y"})
			assert.ErrorIs(t, err, user.ErrEmailTaken)

			p, err := s.Create(ctx, persona.Persona{Name: "Bob"})
			require.NoError(t, err)

			_, ok, err := s.ActiveChat(ctx, u.ID, p.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = s.CreateChat(ctx, u.ID, p.ID+99)
			assert.ErrorIs(t, err, chat.ErrIntegrity)

			c, err := s.CreateChat(ctx, u.ID, p.ID)
			require.NoError(t, err)
			assert.True(t, c.IsActive)

			active, ok, err := s.ActiveChat(ctx, u.ID, p.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, c.ID, active.ID)

			m1, err := s.AppendMessage(ctx, c.ID, chat.RoleUser, "hi")
			require.NoError(t, err)
			m2, err := s.AppendMessage(ctx, c.ID, chat.RoleAssistant, "hello")
			require.NoError(t, err)

			_, err = s.AppendMessage(ctx, c.ID+50, chat.RoleUser, "lost")
			assert.ErrorIs(t, err, chat.ErrIntegrity)

			history, err := s.History(ctx, c.ID)
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, m1.ID, history[0].ID)
			assert.Equal(t, m2.ID, history[1].ID)
			assert.Equal(t, chat.RoleAssistant, history[1].Role)

			closed, err := s.CloseChat(ctx, c.ID)
			require.NoError(t, err)
			assert.True(t, closed)
			_, ok, err = s.ActiveChat(ctx, u.ID, p.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	n, err := SeedIfEmpty(ctx, s, persona.Seed())
	require.NoError(t, err)
	assert.Equal(t, len(persona.Seed()), n)

	n, err = SeedIfEmpty(ctx, s, persona.Seed())
	require.NoError(t, err)
	assert.Zero(t, n)

	profiles, err := persona.LoadProfiles(ctx, s)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "Sofia", profiles[0].Name)
	assert.Len(t, profiles[0].Educations, 2)
}
