package persona

import (
	"context"
	"errors"
)

// ErrPersonaNotFound is returned when a child record references a persona that does not exist.
var ErrPersonaNotFound = errors.New("persona not found")

// Store is the persistence contract for personas and their records.
// Lookups report absence with a false flag instead of an error.
type Store interface {
	List(ctx context.Context) ([]Persona, error)
	FindByID(ctx context.Context, id int64) (Persona, bool, error)
	Create(ctx context.Context, p Persona) (Persona, error)
	Update(ctx context.Context, id int64, patch Patch) (Persona, bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	Educations(ctx context.Context, personaID int64) ([]Education, error)
	FindEducation(ctx context.Context, id int64) (Education, bool, error)
	AddEducation(ctx context.Context, e Education) (Education, error)
	UpdateEducation(ctx context.Context, id int64, patch EducationPatch) (Education, bool, error)
	DeleteEducation(ctx context.Context, id int64) (bool, error)

	Occupations(ctx context.Context, personaID int64) ([]Occupation, error)
	FindOccupation(ctx context.Context, id int64) (Occupation, bool, error)
	AddOccupation(ctx context.Context, o Occupation) (Occupation, error)
	UpdateOccupation(ctx context.Context, id int64, patch OccupationPatch) (Occupation, bool, error)
	DeleteOccupation(ctx context.Context, id int64) (bool, error)

	Hobbies(ctx context.Context, personaID int64) ([]Hobby, error)
	FindHobby(ctx context.Context, id int64) (Hobby, bool, error)
	AddHobby(ctx context.Context, h Hobby) (Hobby, error)
	UpdateHobby(ctx context.Context, id int64, patch HobbyPatch) (Hobby, bool, error)
	DeleteHobby(ctx context.Context, id int64) (bool, error)
}

// LoadProfile fetches a persona and queries its related records.
func LoadProfile(ctx context.Context, store Store, id int64) (Profile, bool, error) {
	p, ok, err := store.FindByID(ctx, id)
	if err != nil || !ok {
		return Profile{}, false, err
	}
	return loadChildren(ctx, store, p)
}

// LoadProfiles returns every persona with its records, in catalog order.
func LoadProfiles(ctx context.Context, store Store) ([]Profile, error) {
	personas, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, 0, len(personas))
	for _, p := range personas {
		profile, _, err := loadChildren(ctx, store, p)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// SaveProfile creates the persona and all of its records.
func SaveProfile(ctx context.Context, store Store, profile Profile) (Profile, error) {
	created, err := store.Create(ctx, profile.Persona)
	if err != nil {
		return Profile{}, err
	}
	out := Profile{Persona: created}
	for _, e := range profile.Educations {
		e.PersonaID = created.ID
		saved, err := store.AddEducation(ctx, e)
		if err != nil {
			return Profile{}, err
		}
		out.Educations = append(out.Educations, saved)
	}
	for _, o := range profile.Occupations {
		o.PersonaID = created.ID
		saved, err := store.AddOccupation(ctx, o)
		if err != nil {
			return Profile{}, err
		}
		out.Occupations = append(out.Occupations, saved)
	}
	for _, h := range profile.Hobbies {
		h.PersonaID = created.ID
		saved, err := store.AddHobby(ctx, h)
		if err != nil {
			return Profile{}, err
		}
		out.Hobbies = append(out.Hobbies, saved)
	}
	return out, nil
}

func loadChildren(ctx context.Context, store Store, p Persona) (Profile, bool, error) {
	educations, err := store.Educations(ctx, p.ID)
	if err != nil {
		return Profile{}, false, err
	}
	occupations, err := store.Occupations(ctx, p.ID)
	if err != nil {
		return Profile{}, false, err
	}
	hobbies, err := store.Hobbies(ctx, p.ID)
	if err != nil {
		return Profile{}, false, err
	}
	return Profile{Persona: p, Educations: educations, Occupations: occupations, Hobbies: hobbies}, true, nil
}
