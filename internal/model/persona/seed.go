package persona

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Seed provides the default personas loaded into an empty store.
func Seed() []Profile {
	grade := func(v float64) *float64 { return &v }

	return []Profile{
		{
			Persona: Persona{
				Name:        "Sofia",
				Birthdate:   NewDate(1994, time.March, 12),
				Gender:      GenderFemale,
				Nationality: "Portuguese",
			},
			Educations: []Education{
				{
					Level:        LevelBachelor,
					Course:       "Computer Science",
					School:       "University of Porto",
					DateStarted:  NewDate(2012, time.September, 15),
					DateFinished: NewDate(2015, time.July, 10),
					IsGraduated:  true,
					Grade:        grade(16.4),
				},
				{
					Level:        LevelMaster,
					Course:       "Data Engineering",
					School:       "Instituto Superior Técnico",
					DateStarted:  NewDate(2015, time.September, 20),
					DateFinished: NewDate(2017, time.July, 5),
					IsGraduated:  true,
					Grade:        grade(17.1),
				},
			},
			Occupations: []Occupation{
				{Position: "Backend Engineer", Workplace: "Farfetch", DateStarted: NewDate(2017, time.October, 1), DateFinished: NewDate(2021, time.March, 31)},
				{Position: "Staff Engineer", Workplace: "Feedzai", DateStarted: NewDate(2021, time.April, 1)},
			},
			Hobbies: []Hobby{
				{Type: HobbyTravelOutdoors, Name: "Surfing", Frequency: FrequencyOften},
				{Type: HobbyReadingLearning, Name: "Science fiction novels", Frequency: FrequencySometimes},
			},
		},
		{
			Persona: Persona{
				Name:        "Kenji",
				Birthdate:   NewDate(1986, time.November, 3),
				Gender:      GenderMale,
				Nationality: "Japanese",
			},
			Educations: []Education{
				{
					Level:        LevelHighschool,
					Course:       "Culinary Arts",
					School:       "Tsuji Culinary Institute",
					DateStarted:  NewDate(2002, time.April, 8),
					DateFinished: NewDate(2005, time.March, 20),
					IsGraduated:  true,
				},
			},
			Occupations: []Occupation{
				{Position: "Sous Chef", Workplace: "Den", DateStarted: NewDate(2008, time.June, 1), DateFinished: NewDate(2014, time.December, 31)},
				{Position: "Head Chef", Workplace: "Kenji's Kitchen", DateStarted: NewDate(2015, time.February, 1)},
			},
			Hobbies: []Hobby{
				{Type: HobbyFoodCooking, Name: "Fermentation", Frequency: FrequencyOften},
				{Type: HobbyTravelOutdoors, Name: "Mountain hiking", Frequency: FrequencySometimes},
				{Type: HobbyMusicPerformance, Name: "Shamisen", Frequency: FrequencyRarely},
			},
		},
		{
			Persona: Persona{
				Name:        "Amara",
				Birthdate:   NewDate(1990, time.May, 21),
				Gender:      GenderFemale,
				Nationality: "Nigerian",
			},
			Educations: []Education{
				{
					Level:        LevelPhD,
					Course:       "Atmospheric Physics",
					School:       "University of Cape Town",
					DateStarted:  NewDate(2014, time.February, 3),
					DateFinished: NewDate(2018, time.November, 30),
					IsGraduated:  true,
					Grade:        grade(18),
				},
			},
			Occupations: []Occupation{
				{Position: "Climate Scientist", Workplace: "African Climate Policy Centre", DateStarted: NewDate(2019, time.January, 14)},
			},
			Hobbies: []Hobby{
				{Type: HobbySportsFitness, Name: "Long-distance running", Frequency: FrequencyOften},
				{Type: HobbyArtsCrafts, Name: "Photography", Frequency: FrequencySometimes},
			},
		},
	}
}

type seedFile struct {
	Personas []Profile `yaml:"personas"`
}

// LoadSeed decodes persona profiles from a YAML document and validates them.
func LoadSeed(r io.Reader) ([]Profile, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode persona seed: %w", err)
	}
	for i := range doc.Personas {
		profile := &doc.Personas[i]
		profile.Persona.Normalize()
		if err := profile.Persona.Validate(); err != nil {
			return nil, fmt.Errorf("persona #%d: %w", i+1, err)
		}
		for j := range profile.Educations {
			profile.Educations[j].Normalize()
			if err := profile.Educations[j].Validate(); err != nil {
				return nil, fmt.Errorf("persona %q education #%d: %w", profile.Name, j+1, err)
			}
		}
		for j := range profile.Occupations {
			profile.Occupations[j].Normalize()
			if err := profile.Occupations[j].Validate(); err != nil {
				return nil, fmt.Errorf("persona %q occupation #%d: %w", profile.Name, j+1, err)
			}
		}
		for j := range profile.Hobbies {
			profile.Hobbies[j].Normalize()
			if err := profile.Hobbies[j].Validate(); err != nil {
				return nil, fmt.Errorf("persona %q hobby #%d: %w", profile.Name, j+1, err)
			}
		}
	}
	return doc.Personas, nil
}

// LoadSeedFile is LoadSeed over a file path.
func LoadSeedFile(path string) ([]Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open persona seed: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}
