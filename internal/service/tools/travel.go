package tools

import (
	"context"
	"fmt"
	"strings"
)

const (
	TravelToolName = "TravelRecommendation"

	travelDescription = `Recommend activities based on weather conditions.
Input: Weather description (e.g., 'sunny', 'rainy', 'cloudy', 'snowy')
Returns: List of suitable activities`
)

type activityGroup struct {
	keywords   []string
	activities []string
}

// Checked in order; the first group with a keyword contained in the description wins.
var activityGroups = []activityGroup{
	{
		keywords: []string{"clear", "sunny"},
		activities: []string{
			"Visit outdoor attractions and parks",
			"Walking tours of the city",
			"Outdoor dining at local restaurants",
			"Photography excursions",
			"Beach activities (if coastal)",
		},
	},
	{
		keywords: []string{"clouds"},
		activities: []string{
			"Museum visits",
			"Indoor markets and shopping",
			"Cultural sites and galleries",
			"Local cuisine food tour",
			"Architecture walking tour",
		},
	},
	{
		keywords: []string{"rain"},
		activities: []string{
			"Art museums and galleries",
			"Indoor shopping centers",
			"Cooking classes",
			"Spa and wellness centers",
			"Theater or cinema",
		},
	},
	{
		keywords: []string{"snow"},
		activities: []string{
			"Winter sports (skiing, snowboarding)",
			"Ice skating",
			"Visit winter festivals",
			"Cozy cafes and restaurants",
			"Indoor attractions",
		},
	},
}

// Travel maps a weather description to a canned activity list.
type Travel struct{}

func NewTravel() Travel { return Travel{} }

func (Travel) Name() string        { return TravelToolName }
func (Travel) Description() string { return travelDescription }

func (t Travel) Invoke(ctx context.Context, input string) string {
	return contain(ctx, TravelToolName, input, func(_ context.Context, desc string) (string, error) {
		return Recommend(desc), nil
	}, func(err error) string {
		return fmt.Sprintf("Unable to recommend activities for %s: %v", input, err)
	})
}

// Recommend is the pure matching logic behind the travel tool.
func Recommend(weatherDesc string) string {
	desc := strings.TrimSpace(weatherDesc)
	lower := strings.ToLower(desc)
	for _, group := range activityGroups {
		for _, kw := range group.keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Recommended activities for %s weather:", desc)
			for _, a := range group.activities {
				b.WriteString("\n- ")
				b.WriteString(a)
			}
			return b.String()
		}
	}
	return fmt.Sprintf("For %s weather, consider checking indoor and outdoor options based on comfort level.", desc)
}
