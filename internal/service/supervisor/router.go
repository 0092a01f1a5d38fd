package supervisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
)

const routerSystemPrompt = `You are a supervisor routing questions to the right persona.
Available personas: {names}.
Reply with exactly one persona name from the list and nothing else.`

const routerUserPrompt = `Question: {question}`

// Router asks the language model which persona should answer.
type Router struct {
	chooser compose.Runnable[map[string]any, *schema.Message]
}

// NewRouter compiles the persona-choice chain.
func NewRouter(ctx context.Context, chatModel model.BaseChatModel) (*Router, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(routerSystemPrompt),
		schema.UserMessage(routerUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile router chain: %w", err)
	}
	return &Router{chooser: runnable}, nil
}

// Choose returns the persona named by the model. A reply that does not exactly
// match a catalog name, once trimmed, selects the first persona. Model errors
// are returned to the caller.
func (r *Router) Choose(ctx context.Context, question string, catalog []ai.Briefing) (ai.Briefing, Route, error) {
	if len(catalog) == 0 {
		return ai.Briefing{}, "", ai.ErrNoPersonas
	}
	names := make([]string, 0, len(catalog))
	for _, b := range catalog {
		names = append(names, b.Name)
	}

	msg, err := r.chooser.Invoke(ctx, map[string]any{
		"names":    strings.Join(names, ", "),
		"question": question,
	})
	if err != nil {
		return ai.Briefing{}, "", fmt.Errorf("router invoke: %w", err)
	}

	var reply string
	if msg != nil {
		reply = strings.TrimSpace(msg.Content)
	}
	for _, b := range catalog {
		if b.Name == reply {
			return b, RouteLLM, nil
		}
	}
	return catalog[0], RouteFallback, nil
}
