package persona

import "strings"

// EducationLevel enumerates the supported academic degrees.
type EducationLevel string

const (
	LevelHighschool EducationLevel = "Highschool"
	LevelBachelor   EducationLevel = "Bachelor"
	LevelMaster     EducationLevel = "Master"
	LevelPhD        EducationLevel = "PhD"
)

func (l EducationLevel) valid() bool {
	switch l {
	case LevelHighschool, LevelBachelor, LevelMaster, LevelPhD:
		return true
	}
	return false
}

// Education is one academic record of a persona.
type Education struct {
	ID           int64          `json:"id" yaml:"-"`
	PersonaID    int64          `json:"personaId" yaml:"-"`
	Level        EducationLevel `json:"level" yaml:"level"`
	Course       string         `json:"course" yaml:"course"`
	School       string         `json:"school" yaml:"school"`
	DateStarted  Date           `json:"dateStarted" yaml:"dateStarted"`
	DateFinished Date           `json:"dateFinished" yaml:"dateFinished"`
	IsGraduated  bool           `json:"isGraduated" yaml:"isGraduated"`
	Grade        *float64       `json:"grade" yaml:"grade"`
}

func (e *Education) Normalize() {
	e.Course = strings.TrimSpace(e.Course)
	e.School = strings.TrimSpace(e.School)
}

// Validate enforces: graduated implies a finish date, finish >= start, grade within 0..20.
func (e Education) Validate() error {
	if !e.Level.valid() {
		return invalid("level must be one of Highschool, Bachelor, Master, PhD")
	}
	if err := requireText("course", e.Course); err != nil {
		return err
	}
	if err := requireText("school", e.School); err != nil {
		return err
	}
	if e.DateStarted.IsZero() {
		return invalid("dateStarted is required")
	}
	if e.IsGraduated && e.DateFinished.IsZero() {
		return invalid("dateFinished must be set when isGraduated is true")
	}
	if !e.DateFinished.IsZero() && e.DateFinished.Before(e.DateStarted.Time) {
		return invalid("dateFinished must not be before dateStarted")
	}
	if e.Grade != nil && (*e.Grade < 0 || *e.Grade > 20) {
		return invalid("grade must be between 0 and 20")
	}
	return nil
}

type EducationPatch struct {
	Level        *EducationLevel `json:"level"`
	Course       *string         `json:"course"`
	School       *string         `json:"school"`
	DateStarted  *Date           `json:"dateStarted"`
	DateFinished *Date           `json:"dateFinished"`
	IsGraduated  *bool           `json:"isGraduated"`
	Grade        *float64        `json:"grade"`
}

func (patch EducationPatch) Apply(e *Education) {
	if patch.Level != nil {
		e.Level = *patch.Level
	}
	if patch.Course != nil {
		e.Course = *patch.Course
	}
	if patch.School != nil {
		e.School = *patch.School
	}
	if patch.DateStarted != nil {
		e.DateStarted = *patch.DateStarted
	}
	if patch.DateFinished != nil {
		e.DateFinished = *patch.DateFinished
	}
	if patch.IsGraduated != nil {
		e.IsGraduated = *patch.IsGraduated
	}
	if patch.Grade != nil {
		grade := *patch.Grade
		e.Grade = &grade
	}
	e.Normalize()
}

// Occupation is one job held by a persona.
type Occupation struct {
	ID           int64  `json:"id" yaml:"-"`
	PersonaID    int64  `json:"personaId" yaml:"-"`
	Position     string `json:"position" yaml:"position"`
	Workplace    string `json:"workplace" yaml:"workplace"`
	DateStarted  Date   `json:"dateStarted" yaml:"dateStarted"`
	DateFinished Date   `json:"dateFinished" yaml:"dateFinished"`
}

func (o *Occupation) Normalize() {
	o.Position = strings.TrimSpace(o.Position)
	o.Workplace = strings.TrimSpace(o.Workplace)
}

func (o Occupation) Validate() error {
	if err := requireText("position", o.Position); err != nil {
		return err
	}
	if err := requireText("workplace", o.Workplace); err != nil {
		return err
	}
	if o.DateStarted.IsZero() {
		return invalid("dateStarted is required")
	}
	if !o.DateFinished.IsZero() && o.DateFinished.Before(o.DateStarted.Time) {
		return invalid("dateFinished must not be before dateStarted")
	}
	return nil
}

type OccupationPatch struct {
	Position     *string `json:"position"`
	Workplace    *string `json:"workplace"`
	DateStarted  *Date   `json:"dateStarted"`
	DateFinished *Date   `json:"dateFinished"`
}

func (patch OccupationPatch) Apply(o *Occupation) {
	if patch.Position != nil {
		o.Position = *patch.Position
	}
	if patch.Workplace != nil {
		o.Workplace = *patch.Workplace
	}
	if patch.DateStarted != nil {
		o.DateStarted = *patch.DateStarted
	}
	if patch.DateFinished != nil {
		o.DateFinished = *patch.DateFinished
	}
	o.Normalize()
}

// HobbyType groups hobbies into a fixed set of categories.
type HobbyType string

const (
	HobbySportsFitness      HobbyType = "sports_fitness"
	HobbyArtsCrafts         HobbyType = "arts_crafts"
	HobbyMusicPerformance   HobbyType = "music_performance"
	HobbyGamingTech         HobbyType = "gaming_tech"
	HobbyFoodCooking        HobbyType = "food_cooking"
	HobbyTravelOutdoors     HobbyType = "travel_outdoors"
	HobbyReadingLearning    HobbyType = "reading_learning"
	HobbyCollectingBuilding HobbyType = "collecting_building"
	HobbyOther              HobbyType = "other"
)

func (t HobbyType) valid() bool {
	switch t {
	case HobbySportsFitness, HobbyArtsCrafts, HobbyMusicPerformance, HobbyGamingTech,
		HobbyFoodCooking, HobbyTravelOutdoors, HobbyReadingLearning, HobbyCollectingBuilding, HobbyOther:
		return true
	}
	return false
}

// HobbyFrequency says how often a persona engages in a hobby.
type HobbyFrequency string

const (
	FrequencyOften     HobbyFrequency = "often"
	FrequencySometimes HobbyFrequency = "sometimes"
	FrequencyRarely    HobbyFrequency = "rarely"
)

func (f HobbyFrequency) valid() bool {
	switch f {
	case FrequencyOften, FrequencySometimes, FrequencyRarely:
		return true
	}
	return false
}

type Hobby struct {
	ID        int64          `json:"id" yaml:"-"`
	PersonaID int64          `json:"personaId" yaml:"-"`
	Type      HobbyType      `json:"type" yaml:"type"`
	Name      string         `json:"name" yaml:"name"`
	Frequency HobbyFrequency `json:"freq" yaml:"freq"`
}

func (h *Hobby) Normalize() {
	h.Name = strings.TrimSpace(h.Name)
}

func (h Hobby) Validate() error {
	if !h.Type.valid() {
		return invalid("unknown hobby type %q", h.Type)
	}
	if err := requireText("name", h.Name); err != nil {
		return err
	}
	if !h.Frequency.valid() {
		return invalid("freq must be one of often, sometimes, rarely")
	}
	return nil
}

type HobbyPatch struct {
	Type      *HobbyType      `json:"type"`
	Name      *string         `json:"name"`
	Frequency *HobbyFrequency `json:"freq"`
}

func (patch HobbyPatch) Apply(h *Hobby) {
	if patch.Type != nil {
		h.Type = *patch.Type
	}
	if patch.Name != nil {
		h.Name = *patch.Name
	}
	if patch.Frequency != nil {
		h.Frequency = *patch.Frequency
	}
	h.Normalize()
}
