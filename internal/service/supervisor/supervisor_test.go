package supervisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/testutil"
)

type staticCatalog struct {
	briefings []ai.Briefing
	err       error
}

func (c staticCatalog) Catalog(context.Context) ([]ai.Briefing, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.briefings) == 0 {
		return nil, ai.ErrNoPersonas
	}
	return c.briefings, nil
}

type stubRunner struct {
	asked []string
	err   error
	panic bool
}

func (r *stubRunner) Run(_ context.Context, b ai.Briefing, question string, _ ...agent.RunOption) (agent.Result, error) {
	if r.panic {
		panic("boom")
	}
	r.asked = append(r.asked, b.Name)
	if r.err != nil {
		return agent.Result{}, r.err
	}
	return agent.Result{Answer: b.Name + " says hi", Iterations: 1}, nil
}

var aliceAndBob = staticCatalog{briefings: []ai.Briefing{
	{ID: 1, Name: "Alice", Nationality: "Irish", Hobbies: "other named Chess often"},
	{ID: 2, Name: "Bob", Nationality: "Kenyan", Hobbies: "music_performance named Jazz often"},
}}

func newSupervisor(t *testing.T, catalog Catalog, model *testutil.ScriptedModel, runner Runner) *Supervisor {
	t.Helper()
	router, err := NewRouter(context.Background(), model)
	require.NoError(t, err)
	s, err := New(context.Background(), catalog, router, runner, 0, nil)
	require.NoError(t, err)
	return s
}

func TestAskDirectMentionSkipsModel(t *testing.T) {
	model := testutil.NewScriptedModel("Alice")
	runner := &stubRunner{}
	s := newSupervisor(t, aliceAndBob, model, runner)

	res, ok := s.Ask(context.Background(), "What does Bob think about jazz?")
	require.True(t, ok)
	assert.Equal(t, "Bob", res.Persona)
	assert.Equal(t, int64(2), res.PersonaID)
	assert.Equal(t, RouteDirect, res.Route)
	assert.Equal(t, "Bob says hi", res.Answer)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.Zero(t, model.Calls())
	assert.Equal(t, []string{"Bob"}, runner.asked)
}

func TestAskDirectMentionFirstInCatalogWins(t *testing.T) {
	s := newSupervisor(t, aliceAndBob, testutil.NewScriptedModel(), &stubRunner{})

	res, ok := s.Ask(context.Background(), "bob and ALICE, who cooks better?")
	require.True(t, ok)
	assert.Equal(t, "Alice", res.Persona)
}

func TestAskFallbackRouting(t *testing.T) {
	cases := []struct {
		reply   string
		persona string
		route   Route
	}{
		{"Bob", "Bob", RouteLLM},
		{"  Bob\n", "Bob", RouteLLM},
		{"Charlie", "Alice", RouteFallback},
		{"bob", "Alice", RouteFallback},
		{"", "Alice", RouteFallback},
	}
	for _, tc := range cases {
		t.Run(tc.reply, func(t *testing.T) {
			model := testutil.NewScriptedModel(tc.reply)
			s := newSupervisor(t, aliceAndBob, model, &stubRunner{})

			res, ok := s.Ask(context.Background(), "Who likes music?")
			require.True(t, ok)
			assert.Equal(t, tc.persona, res.Persona)
			assert.Equal(t, tc.route, res.Route)
			assert.Equal(t, 1, model.Calls())
			assert.Contains(t, model.LastInput(), "Available personas: Alice, Bob.")
		})
	}
}

func TestAskWholeWordsOnly(t *testing.T) {
	model := testutil.NewScriptedModel("Alice")
	s := newSupervisor(t, aliceAndBob, model, &stubRunner{})

	res, ok := s.Ask(context.Background(), "Is Bobby a good name?")
	require.True(t, ok)
	assert.Equal(t, RouteLLM, res.Route)
	assert.Equal(t, 1, model.Calls())
}

func TestAskFailuresAreAbsent(t *testing.T) {
	cases := map[string]struct {
		catalog Catalog
		model   *testutil.ScriptedModel
		runner  *stubRunner
		q       string
	}{
		"runner error":  {aliceAndBob, testutil.NewScriptedModel(), &stubRunner{err: errors.New("llm down")}, "Bob?"},
		"runner panic":  {aliceAndBob, testutil.NewScriptedModel(), &stubRunner{panic: true}, "Bob?"},
		"router error":  {aliceAndBob, testutil.NewScriptedModel(), &stubRunner{}, "anyone?"},
		"empty catalog": {staticCatalog{}, testutil.NewScriptedModel("Bob"), &stubRunner{}, "anyone?"},
		"blank":         {aliceAndBob, testutil.NewScriptedModel("Bob"), &stubRunner{}, "   "},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := newSupervisor(t, tc.catalog, tc.model, tc.runner)
			res, ok := s.Ask(context.Background(), tc.q)
			assert.False(t, ok)
			assert.Empty(t, res.Answer)
		})
	}
}

func TestDelegateRecordsReport(t *testing.T) {
	s := newSupervisor(t, aliceAndBob, testutil.NewScriptedModel(), &stubRunner{})
	state := &State{
		Question: "Bob?",
		Reports:  map[string]Report{},
		chosen:   aliceAndBob.briefings[1],
	}
	state.ChosenPersona = "Bob"

	out, err := s.delegate(context.Background(), state)
	require.NoError(t, err)
	require.NoError(t, out.Validate())
	report := out.Reports["Bob"]
	assert.Equal(t, []string{"Bob"}, out.CompletedPersonas)
	assert.Equal(t, []string{
		"Answered in Bob's style.",
		"Persona context: nationality=Kenyan, hobbies=music_performance named Jazz often",
	}, report.KeyFindings)
}

func TestStateValidate(t *testing.T) {
	assert.Error(t, (*State)(nil).Validate())
	assert.Error(t, (&State{Question: "q"}).Validate())
	assert.Error(t, (&State{Question: "q", ChosenPersona: "Bob", FinalAnswer: "a"}).Validate())
}

func TestDirectMentionTokenizer(t *testing.T) {
	catalog := []ai.Briefing{{Name: "Mary Jane"}, {Name: "C.J. (Jr)"}}

	b, ok := directMention("what would mary   jane do?", catalog)
	require.True(t, ok)
	assert.Equal(t, "Mary Jane", b.Name)

	b, ok = directMention("ask c j jr please", catalog)
	require.True(t, ok)
	assert.Equal(t, "C.J. (Jr)", b.Name)

	_, ok = directMention("mary went home", catalog)
	assert.False(t, ok)
}
