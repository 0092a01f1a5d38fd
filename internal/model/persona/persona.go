package persona

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation marks every rejected persona, education, occupation or hobby payload.
var ErrValidation = errors.New("validation failed")

const maxTextLength = 100

// Gender is the optional gender attribute of a persona.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) valid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Persona is a synthetic identity the assistant can impersonate.
// Educations, occupations and hobbies reference it by PersonaID and are
// loaded through the Store, never stored on the persona itself.
type Persona struct {
	ID          int64  `json:"id" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	Birthdate   Date   `json:"birthdate" yaml:"birthdate"`
	Gender      Gender `json:"gender" yaml:"gender"`
	Nationality string `json:"nationality" yaml:"nationality"`
}

// Normalize trims free-text fields in place.
func (p *Persona) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Nationality = strings.TrimSpace(p.Nationality)
}

// Validate checks the record invariants. Birthdates in the future are rejected.
func (p Persona) Validate() error {
	if err := requireText("name", p.Name); err != nil {
		return err
	}
	if !p.Birthdate.IsZero() && p.Birthdate.After(Today().Time) {
		return invalid("birthdate cannot be in the future")
	}
	if !p.Gender.valid() {
		return invalid("gender must be one of Male, Female, Other")
	}
	return nil
}

// Patch carries a partial persona update; nil fields are left untouched.
type Patch struct {
	Name        *string `json:"name"`
	Birthdate   *Date   `json:"birthdate"`
	Gender      *Gender `json:"gender"`
	Nationality *string `json:"nationality"`
}

// Apply merges the supplied fields into p.
func (patch Patch) Apply(p *Persona) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Birthdate != nil {
		p.Birthdate = *patch.Birthdate
	}
	if patch.Gender != nil {
		p.Gender = *patch.Gender
	}
	if patch.Nationality != nil {
		p.Nationality = *patch.Nationality
	}
	p.Normalize()
}

// Profile is a persona together with its related records, in storage order.
type Profile struct {
	Persona     `yaml:",inline"`
	Educations  []Education  `json:"educations" yaml:"educations"`
	Occupations []Occupation `json:"occupations" yaml:"occupations"`
	Hobbies     []Hobby      `json:"hobbies" yaml:"hobbies"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func requireText(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return invalid("%s cannot be empty", field)
	}
	if len([]rune(trimmed)) > maxTextLength {
		return invalid("%s must be at most %d characters", field, maxTextLength)
	}
	return nil
}
