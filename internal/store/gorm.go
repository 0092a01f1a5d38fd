package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
)

var (
	_ persona.Store = (*Gorm)(nil)
	_ chat.Store    = (*Gorm)(nil)
	_ user.Store    = (*Gorm)(nil)
)

// ErrUnknownDriver is returned by Open for drivers other than sqlite and postgres.
var ErrUnknownDriver = errors.New("unknown database driver")

// Gorm implements the store contracts over a relational database.
type Gorm struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to sqlite or postgres. An empty sqlite DSN opens a private in-memory database.
func Open(driver, dsn string, logg *logger.Logger) (*Gorm, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "sqlite":
		if dsn == "" {
			dsn = "file::memory:"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLog(logg),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if strings.EqualFold(driver, "sqlite") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// every pooled connection would otherwise see its own in-memory database
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return NewGorm(db, logg), nil
}

// NewGorm wraps an existing connection.
func NewGorm(db *gorm.DB, logg *logger.Logger) *Gorm {
	return &Gorm{db: db, log: logger.OrNop(logg).With("repo", "GormStore")}
}

// Migrate creates or updates every table.
func (g *Gorm) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(allRows()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	g.log.Debug("schema migrated", "tables", len(allRows()))
	return nil
}

// Close releases the underlying connection pool.
func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// first loads one row by primary key, reporting absence with false.
func first[T any](ctx context.Context, db *gorm.DB, id int64) (T, bool, error) {
	var row T
	err := db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, false, nil
	}
	if err != nil {
		return row, false, err
	}
	return row, true, nil
}

// remove hard-deletes one row by primary key.
func remove[T any](ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	var row T
	res := db.WithContext(ctx).Delete(&row, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (g *Gorm) personaExists(ctx context.Context, tx *gorm.DB, id int64) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).Model(&personaRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g *Gorm) List(ctx context.Context) ([]persona.Persona, error) {
	var rows []personaRow
	if err := g.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]persona.Persona, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (g *Gorm) FindByID(ctx context.Context, id int64) (persona.Persona, bool, error) {
	row, ok, err := first[personaRow](ctx, g.db, id)
	return row.domain(), ok, err
}

func (g *Gorm) Create(ctx context.Context, p persona.Persona) (persona.Persona, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return persona.Persona{}, err
	}
	row := toPersonaRow(p)
	row.ID = 0
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return persona.Persona{}, err
	}
	return row.domain(), nil
}

func (g *Gorm) Update(ctx context.Context, id int64, patch persona.Patch) (persona.Persona, bool, error) {
	var (
		out   persona.Persona
		found bool
	)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, ok, err := first[personaRow](ctx, tx, id)
		if err != nil || !ok {
			return err
		}
		found = true
		p := row.domain()
		patch.Apply(&p)
		if err := p.Validate(); err != nil {
			return err
		}
		updated := toPersonaRow(p)
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = updated.domain()
		return nil
	})
	return out, found, err
}

// Delete removes the persona and its records in one transaction.
func (g *Gorm) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{&educationRow{}, &occupationRow{}, &hobbyRow{}} {
			if err := tx.Where("persona_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		ok, err := remove[personaRow](ctx, tx, id)
		deleted = ok
		return err
	})
	return deleted, err
}

func (g *Gorm) Educations(ctx context.Context, personaID int64) ([]persona.Education, error) {
	var rows []educationRow
	if err := g.db.WithContext(ctx).Where("persona_id = ?", personaID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]persona.Education, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (g *Gorm) FindEducation(ctx context.Context, id int64) (persona.Education, bool, error) {
	row, ok, err := first[educationRow](ctx, g.db, id)
	return row.domain(), ok, err
}

func (g *Gorm) AddEducation(ctx context.Context, e persona.Education) (persona.Education, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return persona.Education{}, err
	}
	row := toEducationRow(e)
	row.ID = 0
	if err := g.createChild(ctx, e.PersonaID, &row); err != nil {
		return persona.Education{}, err
	}
	return row.domain(), nil
}

func (g *Gorm) UpdateEducation(ctx context.Context, id int64, patch persona.EducationPatch) (persona.Education, bool, error) {
	var (
		out   persona.Education
		found bool
	)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, ok, err := first[educationRow](ctx, tx, id)
		if err != nil || !ok {
			return err
		}
		found = true
		e := row.domain()
		patch.Apply(&e)
		if err := e.Validate(); err != nil {
			return err
		}
		updated := toEducationRow(e)
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = updated.domain()
		return nil
	})
	return out, found, err
}

func (g *Gorm) DeleteEducation(ctx context.Context, id int64) (bool, error) {
	return remove[educationRow](ctx, g.db, id)
}

func (g *Gorm) Occupations(ctx context.Context, personaID int64) ([]persona.Occupation, error) {
	var rows []occupationRow
	if err := g.db.WithContext(ctx).Where("persona_id = ?", personaID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]persona.Occupation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (g *Gorm) FindOccupation(ctx context.Context, id int64) (persona.Occupation, bool, error) {
	row, ok, err := first[occupationRow](ctx, g.db, id)
	return row.domain(), ok, err
}

func (g *Gorm) AddOccupation(ctx context.Context, o persona.Occupation) (persona.Occupation, error) {
	o.Normalize()
	if err := o.Validate(); err != nil {
		return persona.Occupation{}, err
	}
	row := toOccupationRow(o)
	row.ID = 0
	if err := g.createChild(ctx, o.PersonaID, &row); err != nil {
		return persona.Occupation{}, err
	}
	return row.domain(), nil
}

func (g *Gorm) UpdateOccupation(ctx context.Context, id int64, patch persona.OccupationPatch) (persona.Occupation, bool, error) {
	var (
		out   persona.Occupation
		found bool
	)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, ok, err := first[occupationRow](ctx, tx, id)
		if err != nil || !ok {
			return err
		}
		found = true
		o := row.domain()
		patch.Apply(&o)
		if err := o.Validate(); err != nil {
			return err
		}
		updated := toOccupationRow(o)
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = updated.domain()
		return nil
	})
	return out, found, err
}

func (g *Gorm) DeleteOccupation(ctx context.Context, id int64) (bool, error) {
	return remove[occupationRow](ctx, g.db, id)
}

func (g *Gorm) Hobbies(ctx context.Context, personaID int64) ([]persona.Hobby, error) {
	var rows []hobbyRow
	if err := g.db.WithContext(ctx).Where("persona_id = ?", personaID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]persona.Hobby, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (g *Gorm) FindHobby(ctx context.Context, id int64) (persona.Hobby, bool, error) {
	row, ok, err := first[hobbyRow](ctx, g.db, id)
	return row.domain(), ok, err
}

func (g *Gorm) AddHobby(ctx context.Context, h persona.Hobby) (persona.Hobby, error) {
	h.Normalize()
	if err := h.Validate(); err != nil {
		return persona.Hobby{}, err
	}
	row := toHobbyRow(h)
	row.ID = 0
	if err := g.createChild(ctx, h.PersonaID, &row); err != nil {
		return persona.Hobby{}, err
	}
	return row.domain(), nil
}

func (g *Gorm) UpdateHobby(ctx context.Context, id int64, patch persona.HobbyPatch) (persona.Hobby, bool, error) {
	var (
		out   persona.Hobby
		found bool
	)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, ok, err := first[hobbyRow](ctx, tx, id)
		if err != nil || !ok {
			return err
		}
		found = true
		h := row.domain()
		patch.Apply(&h)
		if err := h.Validate(); err != nil {
			return err
		}
		updated := toHobbyRow(h)
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = updated.domain()
		return nil
	})
	return out, found, err
}

func (g *Gorm) DeleteHobby(ctx context.Context, id int64) (bool, error) {
	return remove[hobbyRow](ctx, g.db, id)
}

// createChild inserts a persona-owned row after checking the owner exists.
func (g *Gorm) createChild(ctx context.Context, personaID int64, row any) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := g.personaExists(ctx, tx, personaID)
		if err != nil {
			return err
		}
		if !ok {
			return persona.ErrPersonaNotFound
		}
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return persona.ErrPersonaNotFound
			}
			return err
		}
		return nil
	})
}

func (g *Gorm) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	row := userRow{
		Name:         strings.TrimSpace(u.Name),
		Email:        strings.ToLower(strings.TrimSpace(u.Email)),
		PasswordHash: u.PasswordHash,
	}
	if !u.Birthdate.IsZero() {
		b := u.Birthdate
		row.Birthdate = &b
	}
	if _, taken, err := g.FindUserByEmail(ctx, row.Email); err != nil {
		return user.User{}, err
	} else if taken {
		return user.User{}, user.ErrEmailTaken
	}
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return row.domain(), nil
}

func (g *Gorm) FindUser(ctx context.Context, id int64) (user.User, bool, error) {
	row, ok, err := first[userRow](ctx, g.db, id)
	return row.domain(), ok, err
}

func (g *Gorm) FindUserByEmail(ctx context.Context, email string) (user.User, bool, error) {
	var row userRow
	err := g.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.User{}, false, nil
	}
	if err != nil {
		return user.User{}, false, err
	}
	return row.domain(), true, nil
}

func (g *Gorm) ActiveChat(ctx context.Context, userID, personaID int64) (chat.Chat, bool, error) {
	var row chatRow
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND persona_id = ? AND is_active = ?", userID, personaID, true).
		Order("id ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return chat.Chat{}, false, nil
	}
	if err != nil {
		return chat.Chat{}, false, err
	}
	return row.domain(), true, nil
}

// CreateChat fails with chat.ErrIntegrity when the user or persona is missing.
func (g *Gorm) CreateChat(ctx context.Context, userID, personaID int64) (chat.Chat, error) {
	row := chatRow{UserID: userID, PersonaID: personaID, IsActive: true}
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&userRow{}).Where("id = ?", userID).Count(&users).Error; err != nil {
			return err
		}
		ok, err := g.personaExists(ctx, tx, personaID)
		if err != nil {
			return err
		}
		if users == 0 || !ok {
			return chat.ErrIntegrity
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return chat.Chat{}, chat.ErrIntegrity
		}
		return chat.Chat{}, err
	}
	return row.domain(), nil
}

func (g *Gorm) FindChat(ctx context.Context, id int64) (chat.Chat, bool, error) {
	row, ok, err := first[chatRow](ctx, g.db, id)
	return row.domain(), ok, err
}

func (g *Gorm) CloseChat(ctx context.Context, id int64) (bool, error) {
	res := g.db.WithContext(ctx).Model(&chatRow{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (g *Gorm) AppendMessage(ctx context.Context, chatID int64, role chat.Role, content string) (chat.Message, error) {
	row := messageRow{ChatID: chatID, Role: string(role), Content: content}
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chats int64
		if err := tx.Model(&chatRow{}).Where("id = ?", chatID).Count(&chats).Error; err != nil {
			return err
		}
		if chats == 0 {
			return chat.ErrIntegrity
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return chat.Message{}, chat.ErrIntegrity
		}
		return chat.Message{}, err
	}
	return row.domain(), nil
}

func (g *Gorm) History(ctx context.Context, chatID int64) ([]chat.Message, error) {
	var rows []messageRow
	if err := g.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]chat.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}
