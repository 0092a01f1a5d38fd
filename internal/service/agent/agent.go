// Package agent runs the single-persona Thought/Action/Observation loop.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/tools"
)

const (
	DefaultMaxIterations    = 10
	DefaultMaxParseFailures = 3
)

var (
	// ErrUnrecoverable is returned after too many consecutive malformed steps.
	ErrUnrecoverable = errors.New("agent could not produce a well-formed step")
	// ErrNoAnswer is returned when forced termination yields empty output.
	ErrNoAnswer = errors.New("agent produced no answer")
	// ErrModel wraps failures of the underlying chat model.
	ErrModel = errors.New("chat model call failed")
)

// Trace is one completed iteration of the loop.
type Trace struct {
	Iteration   int    `json:"iteration"`
	Kind        string `json:"kind"`
	Thought     string `json:"thought,omitempty"`
	Tool        string `json:"tool,omitempty"`
	Input       string `json:"input,omitempty"`
	Observation string `json:"observation,omitempty"`
}

// Result is the outcome of one Run.
type Result struct {
	Answer     string
	Steps      []Trace
	Iterations int
	// Forced is set when the iteration cap was reached and the answer came
	// from the extra completion.
	Forced bool
}

// Config bounds the loop.
type Config struct {
	MaxIterations    int
	MaxParseFailures int
}

// Agent answers questions as a persona, optionally calling tools.
type Agent struct {
	chain       compose.Runnable[map[string]any, *schema.Message]
	tools       *tools.Registry
	maxIter     int
	maxFailures int
	log         *logger.Logger
}

// New compiles the prompt+model chain once; Run may be called concurrently.
func New(ctx context.Context, chatModel model.BaseChatModel, registry *tools.Registry, cfg Config, log *logger.Logger) (*Agent, error) {
	if chatModel == nil {
		return nil, errors.New("agent: chat model is required")
	}
	if registry == nil {
		empty, _ := tools.NewRegistry()
		registry = empty
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxParseFailures <= 0 {
		cfg.MaxParseFailures = DefaultMaxParseFailures
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemTemplate),
		schema.UserMessage(userTemplate),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile agent chain: %w", err)
	}

	return &Agent{
		chain:       runnable,
		tools:       registry,
		maxIter:     cfg.MaxIterations,
		maxFailures: cfg.MaxParseFailures,
		log:         logger.OrNop(log).With("service", "agent"),
	}, nil
}

// RunOption customises a single Run.
type RunOption func(*runOptions)

type runOptions struct {
	onStep func(Trace)
}

// WithStepHandler is called synchronously after every iteration.
func WithStepHandler(fn func(Trace)) RunOption {
	return func(o *runOptions) { o.onStep = fn }
}

// Run executes the loop for one question. Tool failures are observations,
// never errors; only model failures, repeated malformed output or an empty
// forced answer surface as errors.
func (a *Agent) Run(ctx context.Context, briefing ai.Briefing, question string, opts ...RunOption) (Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	vars := briefing.Variables()
	vars["tools"] = a.tools.Describe()
	vars["tool_names"] = strings.Join(a.tools.Names(), ", ")
	vars["input"] = question

	var (
		scratch  strings.Builder
		result   Result
		failures int
	)
	log := a.log.With("persona", briefing.Name)

	for i := 1; i <= a.maxIter; i++ {
		if err := ctx.Err(); err != nil {
			recordOutcome(outcomeFailed)
			return result, err
		}
		result.Iterations = i

		raw, err := a.complete(ctx, vars, scratch.String())
		if err != nil {
			recordOutcome(outcomeFailed)
			return result, err
		}

		step, perr := ParseStep(raw)
		trace := Trace{Iteration: i}
		var observation string

		switch {
		case perr != nil:
			failures++
			log.Warn("malformed agent step", "iteration", i, "error", perr)
			if failures >= a.maxFailures {
				recordOutcome(outcomeFailed)
				return result, fmt.Errorf("%w: %v", ErrUnrecoverable, perr)
			}
			trace.Kind = "error"
			observation = "Invalid or incomplete response: " + perr.Error()

		case step.Kind == KindFinish:
			trace.Kind = KindFinish.String()
			trace.Thought = step.Thought
			result.Steps = append(result.Steps, trace)
			result.Answer = step.Answer
			recordIterations(i)
			recordOutcome(outcomeFinished)
			return result, nil

		case step.Kind == KindThink:
			failures = 0
			trace.Kind = KindThink.String()
			trace.Thought = step.Thought
			observation = thinkObservation

		case step.Kind == KindAct:
			trace.Kind = KindAct.String()
			trace.Thought = step.Thought
			trace.Tool = step.Tool
			trace.Input = step.Input
			t, ok := a.tools.Lookup(step.Tool)
			if !ok {
				failures++
				if failures >= a.maxFailures {
					recordOutcome(outcomeFailed)
					return result, fmt.Errorf("%w: unknown tool %q", ErrUnrecoverable, step.Tool)
				}
				observation = fmt.Sprintf("%s is not a valid tool, try one of [%s].", step.Tool, strings.Join(a.tools.Names(), ", "))
			} else {
				failures = 0
				observation = t.Invoke(ctx, step.Input)
				log.Debug("tool invoked", "tool", t.Name(), "iteration", i)
			}
		}

		trace.Observation = observation
		result.Steps = append(result.Steps, trace)
		if o.onStep != nil {
			o.onStep(trace)
		}
		scratch.WriteString(strings.TrimSpace(truncateObservation(raw)))
		scratch.WriteString("\nObservation: ")
		scratch.WriteString(observation)
		scratch.WriteString("\nThought: ")
	}

	// Iteration cap reached: ask once more for a final answer.
	recordIterations(a.maxIter)
	raw, err := a.complete(ctx, vars, scratch.String()+forcedSuffix)
	if err != nil {
		recordOutcome(outcomeFailed)
		return result, err
	}
	result.Forced = true
	answer := forcedAnswer(raw)
	if answer == "" {
		recordOutcome(outcomeFailed)
		return result, ErrNoAnswer
	}
	result.Answer = answer
	log.Info("agent stopped at iteration cap", "iterations", a.maxIter)
	recordOutcome(outcomeForced)
	return result, nil
}

func (a *Agent) complete(ctx context.Context, vars map[string]any, scratchpad string) (string, error) {
	input := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		input[k] = v
	}
	input["agent_scratchpad"] = scratchpad

	msg, err := a.chain.Invoke(ctx, input,
		compose.WithChatModelOption(model.WithStop([]string{"\n" + labelObservation})))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModel, err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

// forcedAnswer prefers a labelled final answer and falls back to the raw text.
func forcedAnswer(raw string) string {
	if step, err := ParseStep(raw); err == nil && step.Kind == KindFinish {
		return step.Answer
	}
	text := strings.TrimSpace(truncateObservation(raw))
	if idx := strings.LastIndex(text, labelFinal); idx >= 0 {
		text = strings.TrimSpace(text[idx+len(labelFinal):])
	}
	return text
}
