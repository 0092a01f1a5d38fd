package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStepAction(t *testing.T) {
	step, err := ParseStep("I should look up the weather.\nAction: WeatherLookup\nAction Input: \"Porto\"\nObservation: sunny and 30C\nThought: done")
	require.NoError(t, err)
	assert.Equal(t, KindAct, step.Kind)
	assert.Equal(t, "WeatherLookup", step.Tool)
	assert.Equal(t, "Porto", step.Input)
	assert.Equal(t, "I should look up the weather.", step.Thought)
}

func TestParseStepFinish(t *testing.T) {
	step, err := ParseStep("I now know the final answer\nFinal Answer: I love surfing.\nEspecially in winter.")
	require.NoError(t, err)
	assert.Equal(t, KindFinish, step.Kind)
	assert.Equal(t, "I love surfing.\nEspecially in winter.", step.Answer)
}

func TestParseStepThink(t *testing.T) {
	step, err := ParseStep("Thought: I need to consider my hobbies first.")
	require.NoError(t, err)
	assert.Equal(t, KindThink, step.Kind)
	assert.Equal(t, "I need to consider my hobbies first.", step.Thought)
}

func TestParseStepErrors(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{"", ErrEmptyOutput},
		{"   \n ", ErrEmptyOutput},
		{"Observation: made up", ErrEmptyOutput},
		{"Hello there!", ErrMissingAction},
		{"Action: WebSearch", ErrMissingActionArgs},
		{"Action:\nAction Input: x", ErrMissingToolName},
		{"Action Input: x", ErrMissingAction},
		{"Final Answer:", ErrEmptyOutput},
		{"Action: X\nAction Input: y\nFinal Answer: z", ErrAmbiguousStep},
	}
	for _, tc := range cases {
		_, err := ParseStep(tc.raw)
		assert.ErrorIs(t, err, tc.want, "input %q", tc.raw)
	}
}
