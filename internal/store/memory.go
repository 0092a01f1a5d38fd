package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
)

var (
	_ persona.Store = (*Memory)(nil)
	_ chat.Store    = (*Memory)(nil)
	_ user.Store    = (*Memory)(nil)
)

// table is an id-keyed row set with a monotonically increasing sequence.
type table[T any] struct {
	seq  int64
	rows map[int64]T
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[int64]T)}
}

func (t *table[T]) insert(build func(id int64) T) T {
	t.seq++
	row := build(t.seq)
	t.rows[t.seq] = row
	return row
}

func (t *table[T]) get(id int64) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) remove(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// filter returns matching rows ordered by id, i.e. insertion order.
func (t *table[T]) filter(keep func(T) bool) []T {
	ids := make([]int64, 0, len(t.rows))
	for id, row := range t.rows {
		if keep == nil || keep(row) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) removeWhere(match func(T) bool) {
	for id, row := range t.rows {
		if match(row) {
			delete(t.rows, id)
		}
	}
}

// Memory implements every store contract in process memory.
type Memory struct {
	mu  sync.RWMutex
	now func() time.Time

	personas    table[persona.Persona]
	educations  table[persona.Education]
	occupations table[persona.Occupation]
	hobbies     table[persona.Hobby]
	users       table[user.User]
	chats       table[chat.Chat]
	messages    table[chat.Message]
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		now:         func() time.Time { return time.Now().UTC() },
		personas:    newTable[persona.Persona](),
		educations:  newTable[persona.Education](),
		occupations: newTable[persona.Occupation](),
		hobbies:     newTable[persona.Hobby](),
		users:       newTable[user.User](),
		chats:       newTable[chat.Chat](),
		messages:    newTable[chat.Message](),
	}
}

func (m *Memory) List(_ context.Context) ([]persona.Persona, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.personas.filter(nil), nil
}

func (m *Memory) FindByID(_ context.Context, id int64) (persona.Persona, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.personas.get(id)
	return p, ok, nil
}

func (m *Memory) Create(_ context.Context, p persona.Persona) (persona.Persona, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return persona.Persona{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.personas.insert(func(id int64) persona.Persona {
		p.ID = id
		return p
	}), nil
}

func (m *Memory) Update(_ context.Context, id int64, patch persona.Patch) (persona.Persona, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.personas.get(id)
	if !ok {
		return persona.Persona{}, false, nil
	}
	patch.Apply(&p)
	if err := p.Validate(); err != nil {
		return persona.Persona{}, true, err
	}
	m.personas.rows[id] = p
	return p, true, nil
}

// Delete removes the persona together with its records.
func (m *Memory) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.personas.remove(id) {
		return false, nil
	}
	m.educations.removeWhere(func(e persona.Education) bool { return e.PersonaID == id })
	m.occupations.removeWhere(func(o persona.Occupation) bool { return o.PersonaID == id })
	m.hobbies.removeWhere(func(h persona.Hobby) bool { return h.PersonaID == id })
	return true, nil
}

func (m *Memory) Educations(_ context.Context, personaID int64) ([]persona.Education, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.educations.filter(func(e persona.Education) bool { return e.PersonaID == personaID }), nil
}

func (m *Memory) FindEducation(_ context.Context, id int64) (persona.Education, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.educations.get(id)
	return e, ok, nil
}

func (m *Memory) AddEducation(_ context.Context, e persona.Education) (persona.Education, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return persona.Education{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.personas.get(e.PersonaID); !ok {
		return persona.Education{}, persona.ErrPersonaNotFound
	}
	return m.educations.insert(func(id int64) persona.Education {
		e.ID = id
		return e
	}), nil
}

func (m *Memory) UpdateEducation(_ context.Context, id int64, patch persona.EducationPatch) (persona.Education, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.educations.get(id)
	if !ok {
		return persona.Education{}, false, nil
	}
	patch.Apply(&e)
	if err := e.Validate(); err != nil {
		return persona.Education{}, true, err
	}
	m.educations.rows[id] = e
	return e, true, nil
}

func (m *Memory) DeleteEducation(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.educations.remove(id), nil
}

func (m *Memory) Occupations(_ context.Context, personaID int64) ([]persona.Occupation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.occupations.filter(func(o persona.Occupation) bool { return o.PersonaID == personaID }), nil
}

func (m *Memory) FindOccupation(_ context.Context, id int64) (persona.Occupation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.occupations.get(id)
	return o, ok, nil
}

func (m *Memory) AddOccupation(_ context.Context, o persona.Occupation) (persona.Occupation, error) {
	o.Normalize()
	if err := o.Validate(); err != nil {
		return persona.Occupation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.personas.get(o.PersonaID); !ok {
		return persona.Occupation{}, persona.ErrPersonaNotFound
	}
	return m.occupations.insert(func(id int64) persona.Occupation {
		o.ID = id
		return o
	}), nil
}

func (m *Memory) UpdateOccupation(_ context.Context, id int64, patch persona.OccupationPatch) (persona.Occupation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.occupations.get(id)
	if !ok {
		return persona.Occupation{}, false, nil
	}
	patch.Apply(&o)
	if err := o.Validate(); err != nil {
		return persona.Occupation{}, true, err
	}
	m.occupations.rows[id] = o
	return o, true, nil
}

func (m *Memory) DeleteOccupation(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.occupations.remove(id), nil
}

func (m *Memory) Hobbies(_ context.Context, personaID int64) ([]persona.Hobby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hobbies.filter(func(h persona.Hobby) bool { return h.PersonaID == personaID }), nil
}

func (m *Memory) FindHobby(_ context.Context, id int64) (persona.Hobby, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hobbies.get(id)
	return h, ok, nil
}

func (m *Memory) AddHobby(_ context.Context, h persona.Hobby) (persona.Hobby, error) {
	h.Normalize()
	if err := h.Validate(); err != nil {
		return persona.Hobby{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.personas.get(h.PersonaID); !ok {
		return persona.Hobby{}, persona.ErrPersonaNotFound
	}
	return m.hobbies.insert(func(id int64) persona.Hobby {
		h.ID = id
		return h
	}), nil
}

func (m *Memory) UpdateHobby(_ context.Context, id int64, patch persona.HobbyPatch) (persona.Hobby, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hobbies.get(id)
	if !ok {
		return persona.Hobby{}, false, nil
	}
	patch.Apply(&h)
	if err := h.Validate(); err != nil {
		return persona.Hobby{}, true, err
	}
	m.hobbies.rows[id] = h
	return h, true, nil
}

func (m *Memory) DeleteHobby(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hobbies.remove(id), nil
}

func (m *Memory) CreateUser(_ context.Context, u user.User) (user.User, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users.rows {
		if existing.Email == email {
			return user.User{}, user.ErrEmailTaken
		}
	}
	return m.users.insert(func(id int64) user.User {
		u.ID = id
		u.Email = email
		u.CreatedAt = m.now()
		return u
	}), nil
}

func (m *Memory) FindUser(_ context.Context, id int64) (user.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users.get(id)
	return u, ok, nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (user.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users.rows {
		if u.Email == email {
			return u, true, nil
		}
	}
	return user.User{}, false, nil
}

func (m *Memory) ActiveChat(_ context.Context, userID, personaID int64) (chat.Chat, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches := m.chats.filter(func(c chat.Chat) bool {
		return c.UserID == userID && c.PersonaID == personaID && c.IsActive
	})
	if len(matches) == 0 {
		return chat.Chat{}, false, nil
	}
	return matches[0], true, nil
}

// CreateChat requires both the user and the persona to exist.
func (m *Memory) CreateChat(_ context.Context, userID, personaID int64) (chat.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users.get(userID); !ok {
		return chat.Chat{}, chat.ErrIntegrity
	}
	if _, ok := m.personas.get(personaID); !ok {
		return chat.Chat{}, chat.ErrIntegrity
	}
	return m.chats.insert(func(id int64) chat.Chat {
		return chat.Chat{ID: id, UserID: userID, PersonaID: personaID, IsActive: true, CreatedAt: m.now()}
	}), nil
}

func (m *Memory) FindChat(_ context.Context, id int64) (chat.Chat, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chats.get(id)
	return c, ok, nil
}

func (m *Memory) CloseChat(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats.get(id)
	if !ok {
		return false, nil
	}
	c.IsActive = false
	m.chats.rows[id] = c
	return true, nil
}

func (m *Memory) AppendMessage(_ context.Context, chatID int64, role chat.Role, content string) (chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats.get(chatID); !ok {
		return chat.Message{}, chat.ErrIntegrity
	}
	return m.messages.insert(func(id int64) chat.Message {
		return chat.Message{ID: id, ChatID: chatID, Role: role, Content: content, CreatedAt: m.now()}
	}), nil
}

func (m *Memory) History(_ context.Context, chatID int64) ([]chat.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.messages.filter(func(msg chat.Message) bool { return msg.ChatID == chatID }), nil
}
