// Package supervisor routes a question to the most relevant persona and
// packages that persona's answer with a confidence score.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
)

// DefaultConfidence is attached to every successful persona report.
const DefaultConfidence = 0.9

// Route says how the answering persona was selected.
type Route string

const (
	RouteDirect   Route = "direct"
	RouteLLM      Route = "llm"
	RouteFallback Route = "fallback"
)

const (
	nodeLoad     = "load"
	nodeRoute    = "route"
	nodeDelegate = "delegate"
)

var errIncompleteState = errors.New("supervisor state incomplete")

// Report is one persona agent's answer to a routed question.
type Report struct {
	PersonaName string
	Response    string
	Confidence  float64
	KeyFindings []string
}

// State is created per Ask and flows through the graph nodes.
type State struct {
	Question          string
	Catalog           []ai.Briefing
	Route             Route
	ChosenPersona     string
	ChosenPersonaID   int64
	CompletedPersonas []string
	Reports           map[string]Report
	FinalAnswer       string
	Confidence        float64
	Steps             []agent.Trace

	chosen  ai.Briefing
	runOpts []agent.RunOption
}

// Validate checks that every field read by callers has been populated.
func (s *State) Validate() error {
	switch {
	case s == nil:
		return fmt.Errorf("%w: nil state", errIncompleteState)
	case strings.TrimSpace(s.Question) == "":
		return fmt.Errorf("%w: question", errIncompleteState)
	case s.ChosenPersona == "":
		return fmt.Errorf("%w: chosen persona", errIncompleteState)
	case strings.TrimSpace(s.FinalAnswer) == "":
		return fmt.Errorf("%w: final answer", errIncompleteState)
	}
	if _, ok := s.Reports[s.ChosenPersona]; !ok {
		return fmt.Errorf("%w: report for %s", errIncompleteState, s.ChosenPersona)
	}
	return nil
}

// Result is what callers of Ask receive.
type Result struct {
	Answer     string        `json:"output"`
	Confidence float64       `json:"confidence"`
	Persona    string        `json:"persona"`
	PersonaID  int64         `json:"personaId"`
	Route      Route         `json:"route"`
	Steps      []agent.Trace `json:"steps,omitempty"`
}

// Catalog supplies personas; it is consulted on every Ask.
type Catalog interface {
	Catalog(ctx context.Context) ([]ai.Briefing, error)
}

// Runner answers as one persona.
type Runner interface {
	Run(ctx context.Context, briefing ai.Briefing, question string, opts ...agent.RunOption) (agent.Result, error)
}

// Chooser picks a persona when the question names none.
type Chooser interface {
	Choose(ctx context.Context, question string, catalog []ai.Briefing) (ai.Briefing, Route, error)
}

// Supervisor owns the compiled load→route→delegate graph.
type Supervisor struct {
	catalog    Catalog
	chooser    Chooser
	runner     Runner
	confidence float64
	graph      compose.Runnable[*State, *State]
	log        *logger.Logger
}

// New compiles the routing graph once. A confidence of zero selects DefaultConfidence.
func New(ctx context.Context, catalog Catalog, chooser Chooser, runner Runner, confidence float64, log *logger.Logger) (*Supervisor, error) {
	if catalog == nil || chooser == nil || runner == nil {
		return nil, errors.New("supervisor: catalog, chooser and runner are required")
	}
	if confidence <= 0 {
		confidence = DefaultConfidence
	}
	s := &Supervisor{
		catalog:    catalog,
		chooser:    chooser,
		runner:     runner,
		confidence: confidence,
		log:        logger.OrNop(log).With("service", "supervisor"),
	}

	g := compose.NewGraph[*State, *State]()
	if err := g.AddLambdaNode(nodeLoad, compose.InvokableLambda(s.load)); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(nodeRoute, compose.InvokableLambda(s.route)); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(nodeDelegate, compose.InvokableLambda(s.delegate)); err != nil {
		return nil, err
	}
	for _, edge := range [][2]string{
		{compose.START, nodeLoad},
		{nodeLoad, nodeRoute},
		{nodeRoute, nodeDelegate},
		{nodeDelegate, compose.END},
	} {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return nil, err
		}
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("supervisor"))
	if err != nil {
		return nil, fmt.Errorf("failed to compile supervisor graph: %w", err)
	}
	s.graph = runnable
	return s, nil
}

// Ask routes the question and returns the chosen persona's answer. Any error
// or panic inside the workflow is logged and reported as ok=false.
func (s *Supervisor) Ask(ctx context.Context, question string, opts ...agent.RunOption) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("supervisor workflow panicked", "panic", r)
			recordFailure()
			res, ok = Result{}, false
		}
	}()

	state := &State{
		Question: strings.TrimSpace(question),
		Reports:  make(map[string]Report),
		runOpts:  opts,
	}
	out, err := s.graph.Invoke(ctx, state)
	if err == nil {
		err = out.Validate()
	}
	if err != nil {
		s.log.Error("supervisor workflow failed", "error", err)
		recordFailure()
		return Result{}, false
	}

	recordRoute(out.Route)
	return Result{
		Answer:     out.FinalAnswer,
		Confidence: out.Confidence,
		Persona:    out.ChosenPersona,
		PersonaID:  out.ChosenPersonaID,
		Route:      out.Route,
		Steps:      out.Steps,
	}, true
}

func (s *Supervisor) load(ctx context.Context, state *State) (*State, error) {
	if state.Question == "" {
		return nil, fmt.Errorf("%w: question", errIncompleteState)
	}
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	state.Catalog = catalog
	return state, nil
}

func (s *Supervisor) route(ctx context.Context, state *State) (*State, error) {
	if b, ok := directMention(state.Question, state.Catalog); ok {
		state.chosen, state.Route = b, RouteDirect
	} else {
		b, route, err := s.chooser.Choose(ctx, state.Question, state.Catalog)
		if err != nil {
			return nil, err
		}
		state.chosen, state.Route = b, route
	}
	state.ChosenPersona = state.chosen.Name
	state.ChosenPersonaID = state.chosen.ID
	s.log.Debug("persona selected", "persona", state.ChosenPersona, "route", state.Route)
	return state, nil
}

func (s *Supervisor) delegate(ctx context.Context, state *State) (*State, error) {
	res, err := s.runner.Run(ctx, state.chosen, state.Question, state.runOpts...)
	if err != nil {
		return nil, fmt.Errorf("persona %s: %w", state.chosen.Name, err)
	}
	report := Report{
		PersonaName: state.chosen.Name,
		Response:    res.Answer,
		Confidence:  s.confidence,
		KeyFindings: []string{
			fmt.Sprintf("Answered in %s's style.", state.chosen.Name),
			fmt.Sprintf("Persona context: nationality=%s, hobbies=%s", state.chosen.Nationality, state.chosen.Hobbies),
		},
	}
	state.Reports[report.PersonaName] = report
	state.CompletedPersonas = append(state.CompletedPersonas, report.PersonaName)
	state.FinalAnswer = report.Response
	state.Confidence = report.Confidence
	state.Steps = res.Steps
	return state, nil
}
