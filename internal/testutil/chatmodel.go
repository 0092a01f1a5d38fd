// Package testutil provides fakes shared by package tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrScriptExhausted is returned once every scripted reply has been used.
var ErrScriptExhausted = errors.New("scripted model: no replies left")

var _ model.BaseChatModel = (*ScriptedModel)(nil)

// ScriptedModel is a chat model that answers from a fixed script or a responder func.
type ScriptedModel struct {
	mu      sync.Mutex
	replies []string
	respond func(input []*schema.Message) (string, error)
	calls   [][]*schema.Message
}

// NewScriptedModel replays replies in order, then fails with ErrScriptExhausted.
func NewScriptedModel(replies ...string) *ScriptedModel {
	return &ScriptedModel{replies: replies}
}

// NewFuncModel answers every call with respond.
func NewFuncModel(respond func(input []*schema.Message) (string, error)) *ScriptedModel {
	return &ScriptedModel{respond: respond}
}

func (m *ScriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	respond := m.respond
	var (
		reply string
		err   error
	)
	if respond == nil {
		if len(m.replies) == 0 {
			err = ErrScriptExhausted
		} else {
			reply, m.replies = m.replies[0], m.replies[1:]
		}
	}
	m.mu.Unlock()

	if respond != nil {
		reply, err = respond(input)
	}
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(reply, nil), nil
}

func (m *ScriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Calls returns the number of Generate invocations.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastInput returns the concatenated contents of the most recent prompt.
func (m *ScriptedModel) LastInput() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return Flatten(m.calls[len(m.calls)-1])
}

// Flatten joins message contents with newlines.
func Flatten(msgs []*schema.Message) string {
	out := ""
	for i, msg := range msgs {
		if i > 0 {
			out += "\n"
		}
		out += msg.Content
	}
	return out
}
