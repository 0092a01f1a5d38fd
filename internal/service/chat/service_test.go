package chat_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modelchat "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/analytics"
	chat "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/store"
)

type responderFunc func(ctx context.Context, b ai.Briefing, q string) (agent.Result, error)

func (f responderFunc) Run(ctx context.Context, b ai.Briefing, q string, _ ...agent.RunOption) (agent.Result, error) {
	return f(ctx, b, q)
}

type recordingSink struct {
	mu     sync.Mutex
	events []analytics.Fields
}

func (s *recordingSink) Record(_ string, f analytics.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, f)
}

type fixture struct {
	mem     *store.Memory
	svc     *chat.Service
	sink    *recordingSink
	userID  int64
	persona int64
}

func newFixture(t *testing.T, responder chat.Responder) fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	u, err := mem.CreateUser(ctx, user.User{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	p, err := mem.Create(ctx, persona.Persona{Name: "Sofia", Nationality: "Portuguese"})
	require.NoError(t, err)

	sink := &recordingSink{}
	svc := chat.NewService(mem, ai.NewService(mem, nil), responder, sink, nil)
	return fixture{mem: mem, svc: svc, sink: sink, userID: u.ID, persona: p.ID}
}

func echo(_ context.Context, b ai.Briefing, q string) (agent.Result, error) {
	return agent.Result{Answer: b.Name + " heard: " + q}, nil
}

func TestActiveChatIsIdempotent(t *testing.T) {
	f := newFixture(t, responderFunc(echo))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, ok, err := f.svc.ActiveChat(ctx, f.userID, f.persona)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	created, err := f.svc.CreateChat(ctx, f.userID, f.persona)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, ok, err := f.svc.ActiveChat(ctx, f.userID, f.persona)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, created.ID, got.ID)
	}
}

func TestOpenChatConcurrentCallsShareOneChat(t *testing.T) {
	f := newFixture(t, responderFunc(echo))
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, _, err := f.svc.OpenChat(ctx, f.userID, f.persona)
			assert.NoError(t, err)
			ids[i] = c.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestCreateChatIntegrityFailure(t *testing.T) {
	f := newFixture(t, responderFunc(echo))

	_, err := f.svc.CreateChat(context.Background(), f.userID, 999)
	assert.ErrorIs(t, err, chat.ErrCreateFailed)
	_, err = f.svc.CreateChat(context.Background(), 999, f.persona)
	assert.ErrorIs(t, err, chat.ErrCreateFailed)
	_, err = f.svc.CreateChat(context.Background(), f.userID, 0)
	assert.ErrorIs(t, err, chat.ErrPersonaRequired)
}

func TestAppendMessageKeepsOrder(t *testing.T) {
	f := newFixture(t, responderFunc(echo))
	ctx := context.Background()
	c, _, err := f.svc.OpenChat(ctx, f.userID, f.persona)
	require.NoError(t, err)

	m1, err := f.svc.AppendMessage(ctx, c.ID, modelchat.RoleUser, "  hello  ")
	require.NoError(t, err)
	m2, err := f.svc.AppendMessage(ctx, c.ID, modelchat.RoleAssistant, "hi there")
	require.NoError(t, err)
	assert.Equal(t, "hello", m1.Content)

	history, err := f.svc.History(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, []int64{m1.ID, m2.ID}, []int64{history[0].ID, history[1].ID})

	_, err = f.svc.AppendMessage(ctx, c.ID, modelchat.RoleUser, "   ")
	assert.ErrorIs(t, err, chat.ErrEmptyMessage)
	_, err = f.svc.AppendMessage(ctx, 404, modelchat.RoleUser, "hello")
	assert.ErrorIs(t, err, chat.ErrAppendFailed)
	_, err = f.svc.AppendMessage(ctx, c.ID, modelchat.Role("system"), "hello")
	assert.ErrorIs(t, err, chat.ErrInvalidRole)
}

func TestAnswerPersistsQuestionBeforeGenerating(t *testing.T) {
	var f fixture
	var seenDuringRun int
	f = newFixture(t, responderFunc(func(ctx context.Context, b ai.Briefing, q string) (agent.Result, error) {
		c, _, _ := f.svc.ActiveChat(ctx, f.userID, f.persona)
		history, _ := f.svc.History(ctx, c.ID)
		seenDuringRun = len(history)
		return echo(ctx, b, q)
	}))
	ctx := context.Background()
	c, _, err := f.svc.OpenChat(ctx, f.userID, f.persona)
	require.NoError(t, err)

	ex, err := f.svc.Answer(ctx, c, "Do you surf?")
	require.NoError(t, err)
	assert.Equal(t, 1, seenDuringRun)
	assert.Equal(t, modelchat.RoleUser, ex.Question.Role)
	assert.Equal(t, modelchat.RoleAssistant, ex.Reply.Role)
	assert.Equal(t, "Sofia heard: Do you surf?", ex.Reply.Content)

	history, err := f.svc.ActiveHistory(ctx, f.userID, f.persona)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Len(t, f.sink.events, 1)
	assert.Equal(t, analytics.StatusSuccess, f.sink.events[0]["status"])
}

func TestAnswerFailedGenerationKeepsOnlyQuestion(t *testing.T) {
	cases := map[string]responderFunc{
		"agent error": func(context.Context, ai.Briefing, string) (agent.Result, error) {
			return agent.Result{}, agent.ErrUnrecoverable
		},
		"blank answer": func(context.Context, ai.Briefing, string) (agent.Result, error) {
			return agent.Result{Answer: "  "}, nil
		},
	}
	for name, responder := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, responder)
			ctx := context.Background()
			c, _, err := f.svc.OpenChat(ctx, f.userID, f.persona)
			require.NoError(t, err)

			_, err = f.svc.Answer(ctx, c, "hello?")
			require.Error(t, err)

			history, err := f.svc.History(ctx, c.ID)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, modelchat.RoleUser, history[0].Role)
			assert.Equal(t, analytics.StatusError, f.sink.events[0]["status"])
		})
	}
}

func TestAnswerMissingPersonaWritesNothing(t *testing.T) {
	called := false
	f := newFixture(t, responderFunc(func(context.Context, ai.Briefing, string) (agent.Result, error) {
		called = true
		return agent.Result{Answer: "x"}, nil
	}))
	ctx := context.Background()
	c, _, err := f.svc.OpenChat(ctx, f.userID, f.persona)
	require.NoError(t, err)

	_, err = f.mem.Delete(ctx, f.persona)
	require.NoError(t, err)

	_, err = f.svc.Answer(ctx, c, "anyone there?")
	assert.ErrorIs(t, err, chat.ErrPersonaNotFound)
	assert.False(t, called)

	history, err := f.svc.History(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCloseChatStartsFreshChat(t *testing.T) {
	f := newFixture(t, responderFunc(echo))
	ctx := context.Background()
	first, created, err := f.svc.OpenChat(ctx, f.userID, f.persona)
	require.NoError(t, err)
	assert.True(t, created)

	ok, err := f.svc.CloseChat(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)

	closed, _, err := f.svc.FindChat(ctx, first.ID)
	require.NoError(t, err)
	_, err = f.svc.Answer(ctx, closed, "still there?")
	assert.True(t, errors.Is(err, chat.ErrChatClosed))

	second, created, err := f.svc.OpenChat(ctx, f.userID, f.persona)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)

	history, err := f.svc.ActiveHistory(ctx, f.userID, 12345)
	require.NoError(t, err)
	assert.Empty(t, history)
}
