package agent

import (
	"errors"
	"strings"
)

// Kind tags a parsed reasoning step.
type Kind int

const (
	KindThink Kind = iota + 1
	KindAct
	KindFinish
)

func (k Kind) String() string {
	switch k {
	case KindThink:
		return "think"
	case KindAct:
		return "act"
	case KindFinish:
		return "finish"
	}
	return "unknown"
}

// Step is one model turn in the Thought/Action/Observation protocol.
type Step struct {
	Kind    Kind
	Thought string
	Tool    string // KindAct
	Input   string // KindAct
	Answer  string // KindFinish
}

var (
	ErrEmptyOutput       = errors.New("empty model output")
	ErrAmbiguousStep     = errors.New("output contains both a final answer and an action")
	ErrMissingActionArgs = errors.New("Invalid Format: Missing 'Action Input:' after 'Action:'")
	ErrMissingAction     = errors.New("Invalid Format: Missing 'Action:' after 'Thought:'")
	ErrMissingToolName   = errors.New("Invalid Format: 'Action:' names no tool")
)

const (
	labelThought     = "Thought:"
	labelAction      = "Action:"
	labelActionInput = "Action Input:"
	labelFinal       = "Final Answer:"
	labelObservation = "Observation:"
)

type section struct {
	label string
	text  []string
}

// ParseStep converts raw model output into a Step. Anything the model wrote
// after a hallucinated "Observation:" line is ignored.
func ParseStep(raw string) (Step, error) {
	text := strings.TrimSpace(truncateObservation(raw))
	if text == "" {
		return Step{}, ErrEmptyOutput
	}

	sections := splitSections(text)
	var (
		step                        Step
		hasAction, hasInput, hasFin bool
	)
	for _, s := range sections {
		body := strings.TrimSpace(strings.Join(s.text, "\n"))
		switch s.label {
		case labelThought, "":
			if step.Thought == "" {
				step.Thought = body
			} else if body != "" {
				step.Thought += "\n" + body
			}
		case labelAction:
			hasAction = true
			step.Tool = body
		case labelActionInput:
			hasInput = true
			step.Input = cleanInput(body)
		case labelFinal:
			hasFin = true
			step.Answer = body
		}
	}

	switch {
	case hasFin && hasAction:
		return Step{}, ErrAmbiguousStep
	case hasFin:
		step.Kind = KindFinish
		if step.Answer == "" {
			return Step{}, ErrEmptyOutput
		}
		return step, nil
	case hasAction:
		if !hasInput {
			return Step{}, ErrMissingActionArgs
		}
		if step.Tool == "" {
			return Step{}, ErrMissingToolName
		}
		step.Kind = KindAct
		return step, nil
	case hasInput:
		return Step{}, ErrMissingAction
	}

	// A bare thought is only accepted when explicitly labelled.
	if sections[0].label == labelThought && step.Thought != "" {
		step.Kind = KindThink
		return step, nil
	}
	return Step{}, ErrMissingAction
}

func truncateObservation(raw string) string {
	if strings.HasPrefix(strings.TrimSpace(raw), labelObservation) {
		return ""
	}
	if idx := strings.Index(raw, "\n"+labelObservation); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

// splitSections groups lines under the label that starts them. Text before
// the first label belongs to an unlabelled section treated as thought.
func splitSections(text string) []section {
	var out []section
	current := section{}
	flush := func() {
		if current.label != "" || len(current.text) > 0 {
			out = append(out, current)
		}
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		label, rest, ok := matchLabel(trimmed)
		if ok {
			flush()
			current = section{label: label, text: []string{rest}}
			continue
		}
		current.text = append(current.text, line)
	}
	flush()
	return out
}

func matchLabel(line string) (label, rest string, ok bool) {
	for _, l := range []string{labelThought, labelActionInput, labelAction, labelFinal} {
		if strings.HasPrefix(line, l) {
			return l, strings.TrimSpace(line[len(l):]), true
		}
	}
	return "", "", false
}

func cleanInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
