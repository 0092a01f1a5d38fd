package store

import (
	"time"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
)

// Row types mirror the relational schema. Domain records never carry gorm tags.

type personaRow struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Name        string     `gorm:"size:100;not null"`
	Birthdate   *time.Time `gorm:"type:date"`
	Gender      string     `gorm:"size:16"`
	Nationality string     `gorm:"size:100"`
}

func (personaRow) TableName() string { return "personas" }

func toPersonaRow(p persona.Persona) personaRow {
	return personaRow{
		ID:          p.ID,
		Name:        p.Name,
		Birthdate:   p.Birthdate.Ptr(),
		Gender:      string(p.Gender),
		Nationality: p.Nationality,
	}
}

func (r personaRow) domain() persona.Persona {
	return persona.Persona{
		ID:          r.ID,
		Name:        r.Name,
		Birthdate:   persona.DateFromPtr(r.Birthdate),
		Gender:      persona.Gender(r.Gender),
		Nationality: r.Nationality,
	}
}

type educationRow struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	PersonaID    int64      `gorm:"index;not null"`
	Level        string     `gorm:"size:16;not null"`
	Course       string     `gorm:"size:100;not null"`
	School       string     `gorm:"size:100;not null"`
	DateStarted  time.Time  `gorm:"type:date;not null"`
	DateFinished *time.Time `gorm:"type:date"`
	IsGraduated  bool       `gorm:"not null;default:false"`
	Grade        *float64
}

func (educationRow) TableName() string { return "educations" }

func toEducationRow(e persona.Education) educationRow {
	return educationRow{
		ID:           e.ID,
		PersonaID:    e.PersonaID,
		Level:        string(e.Level),
		Course:       e.Course,
		School:       e.School,
		DateStarted:  e.DateStarted.Time,
		DateFinished: e.DateFinished.Ptr(),
		IsGraduated:  e.IsGraduated,
		Grade:        e.Grade,
	}
}

func (r educationRow) domain() persona.Education {
	return persona.Education{
		ID:           r.ID,
		PersonaID:    r.PersonaID,
		Level:        persona.EducationLevel(r.Level),
		Course:       r.Course,
		School:       r.School,
		DateStarted:  persona.DateOf(r.DateStarted),
		DateFinished: persona.DateFromPtr(r.DateFinished),
		IsGraduated:  r.IsGraduated,
		Grade:        r.Grade,
	}
}

type occupationRow struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	PersonaID    int64      `gorm:"index;not null"`
	Position     string     `gorm:"size:100;not null"`
	Workplace    string     `gorm:"size:100;not null"`
	DateStarted  time.Time  `gorm:"type:date;not null"`
	DateFinished *time.Time `gorm:"type:date"`
}

func (occupationRow) TableName() string { return "occupations" }

func toOccupationRow(o persona.Occupation) occupationRow {
	return occupationRow{
		ID:           o.ID,
		PersonaID:    o.PersonaID,
		Position:     o.Position,
		Workplace:    o.Workplace,
		DateStarted:  o.DateStarted.Time,
		DateFinished: o.DateFinished.Ptr(),
	}
}

func (r occupationRow) domain() persona.Occupation {
	return persona.Occupation{
		ID:           r.ID,
		PersonaID:    r.PersonaID,
		Position:     r.Position,
		Workplace:    r.Workplace,
		DateStarted:  persona.DateOf(r.DateStarted),
		DateFinished: persona.DateFromPtr(r.DateFinished),
	}
}

type hobbyRow struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	PersonaID int64  `gorm:"index;not null"`
	Type      string `gorm:"size:32;not null"`
	Name      string `gorm:"size:100;not null"`
	Freq      string `gorm:"size:16;not null"`
}

func (hobbyRow) TableName() string { return "hobbies" }

func toHobbyRow(h persona.Hobby) hobbyRow {
	return hobbyRow{
		ID:        h.ID,
		PersonaID: h.PersonaID,
		Type:      string(h.Type),
		Name:      h.Name,
		Freq:      string(h.Frequency),
	}
}

func (r hobbyRow) domain() persona.Hobby {
	return persona.Hobby{
		ID:        r.ID,
		PersonaID: r.PersonaID,
		Type:      persona.HobbyType(r.Type),
		Name:      r.Name,
		Frequency: persona.HobbyFrequency(r.Freq),
	}
}

type userRow struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	Name         string     `gorm:"size:100;not null"`
	Email        string     `gorm:"size:255;not null;uniqueIndex"`
	Birthdate    *time.Time `gorm:"type:date"`
	PasswordHash string     `gorm:"size:255;not null"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) domain() user.User {
	u := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
	if r.Birthdate != nil {
		u.Birthdate = *r.Birthdate
	}
	return u
}

type chatRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"index:idx_chat_pair;not null"`
	PersonaID int64     `gorm:"index:idx_chat_pair;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (chatRow) TableName() string { return "chats" }

func (r chatRow) domain() chat.Chat {
	return chat.Chat{ID: r.ID, UserID: r.UserID, PersonaID: r.PersonaID, IsActive: r.IsActive, CreatedAt: r.CreatedAt}
}

type messageRow struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ChatID    int64     `gorm:"index;not null"`
	Role      string    `gorm:"size:16;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (messageRow) TableName() string { return "chat_messages" }

func (r messageRow) domain() chat.Message {
	return chat.Message{ID: r.ID, ChatID: r.ChatID, Role: chat.Role(r.Role), Content: r.Content, CreatedAt: r.CreatedAt}
}

func allRows() []any {
	return []any{
		&personaRow{}, &educationRow{}, &occupationRow{}, &hobbyRow{},
		&userRow{}, &chatRow{}, &messageRow{},
	}
}
