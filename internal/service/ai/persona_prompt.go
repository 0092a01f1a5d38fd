package ai

import (
	"strconv"
	"strings"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
)

const (
	NoEducations  = "no listed educations"
	NoOccupations = "no listed occupations"
	NoHobbies     = "no listed hobbies"

	notSpecified = "Not specified"
	unknownDate  = "Unknown"
	ongoing      = "present"
	noGrade      = "n/a"
	separator    = "; "
)

// Briefing is the flattened persona context handed to a reasoning agent.
type Briefing struct {
	ID          int64
	Name        string
	Nationality string
	Birthdate   string
	Gender      string
	Hobbies     string
	Occupations string
	Educations  string
}

// NewBriefing formats a profile. Missing nationality and gender become
// "Not specified"; a missing birthdate becomes "Unknown".
func NewBriefing(p persona.Profile) Briefing {
	b := Briefing{
		ID:          p.ID,
		Name:        p.Name,
		Nationality: orDefault(p.Nationality, notSpecified),
		Birthdate:   orDefault(p.Birthdate.String(), unknownDate),
		Gender:      orDefault(string(p.Gender), notSpecified),
		Hobbies:     FormatHobbies(p.Hobbies),
		Occupations: FormatOccupations(p.Occupations),
		Educations:  FormatEducation(p.Educations),
	}
	return b
}

// Variables exposes the briefing as prompt template variables.
func (b Briefing) Variables() map[string]any {
	return map[string]any{
		"name":        b.Name,
		"nationality": b.Nationality,
		"birthdate":   b.Birthdate,
		"gender":      b.Gender,
		"hobbies":     b.Hobbies,
		"occupations": b.Occupations,
		"educations":  b.Educations,
	}
}

// FormatEducation renders educations in input order.
func FormatEducation(educations []persona.Education) string {
	if len(educations) == 0 {
		return NoEducations
	}
	parts := make([]string, 0, len(educations))
	for _, e := range educations {
		grade := noGrade
		if e.Grade != nil {
			grade = formatGrade(*e.Grade)
		}
		parts = append(parts, string(e.Level)+" in "+e.Course+" at "+e.School+" "+
			span(e.DateStarted, e.DateFinished)+
			" (Graduated: "+formatBool(e.IsGraduated)+" - Grade: "+grade+")")
	}
	return strings.Join(parts, separator)
}

// FormatOccupations renders occupations in input order.
func FormatOccupations(occupations []persona.Occupation) string {
	if len(occupations) == 0 {
		return NoOccupations
	}
	parts := make([]string, 0, len(occupations))
	for _, o := range occupations {
		parts = append(parts, o.Position+" at "+o.Workplace+" "+span(o.DateStarted, o.DateFinished))
	}
	return strings.Join(parts, separator)
}

// FormatHobbies renders hobbies in input order.
func FormatHobbies(hobbies []persona.Hobby) string {
	if len(hobbies) == 0 {
		return NoHobbies
	}
	parts := make([]string, 0, len(hobbies))
	for _, h := range hobbies {
		parts = append(parts, string(h.Type)+" named "+h.Name+" "+string(h.Frequency))
	}
	return strings.Join(parts, separator)
}

// formatGrade always keeps a decimal part: 17 renders as "17.0".
func formatGrade(g float64) string {
	s := strconv.FormatFloat(g, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func span(started, finished persona.Date) string {
	end := ongoing
	if !finished.IsZero() {
		end = finished.String()
	}
	return started.String() + " - " + end
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
