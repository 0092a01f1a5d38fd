package stream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modelchat "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/auth"
	chatService "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/tools"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/store"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/testutil"
)

// toolThenAnswer calls the clock tool once per question and then answers.
func toolThenAnswer(input []*schema.Message) (string, error) {
	if !strings.Contains(testutil.Flatten(input), "Observation: noon") {
		return "Let me check the time.\nAction: Clock\nAction Input: now", nil
	}
	return "Final Answer: It is noon.", nil
}

type fixture struct {
	router http.Handler
	chatID int64
	mem    *store.Memory
}

func setup(t *testing.T, respond func([]*schema.Message) (string, error), opts ...Option) fixture {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	u, err := mem.CreateUser(ctx, user.User{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	p, err := mem.Create(ctx, persona.Persona{Name: "Sofia"})
	require.NoError(t, err)

	clock := tools.Func{ToolName: "Clock", ToolDescription: "current time", Fn: func(context.Context, string) (string, error) {
		return "noon", nil
	}}
	registry, err := tools.NewRegistry(clock)
	require.NoError(t, err)
	a, err := agent.New(ctx, testutil.NewFuncModel(respond), registry, agent.Config{MaxIterations: 3}, nil)
	require.NoError(t, err)

	svc := chatService.NewService(mem, ai.NewService(mem, nil), a, nil, nil)
	c, _, err := svc.OpenChat(ctx, u.ID, p.ID)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), u)))
		})
	})
	New(svc, nil, opts...).RegisterRoutes(r)
	return fixture{router: r, chatID: c.ID, mem: mem}
}

func TestSSEEmitsStepsThenMessage(t *testing.T) {
	f := setup(t, toolThenAnswer)

	req := httptest.NewRequest(http.MethodGet, "/stream/1?message=what+time+is+it", nil)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
	body := resp.Body.String()
	order := []string{"event: start", "event: step", "event: message", "event: end"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(body, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}
	assert.Contains(t, body, `"content":"It is noon."`)
	assert.Contains(t, body, `"tool":"Clock"`)

	history, err := f.mem.History(context.Background(), f.chatID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, modelchat.RoleAssistant, history[1].Role)
}

func TestSSEReportsGenerationFailure(t *testing.T) {
	f := setup(t, func([]*schema.Message) (string, error) {
		return "no format at all", nil
	})

	req := httptest.NewRequest(http.MethodGet, "/stream/1?message=hello", nil)
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)

	body := resp.Body.String()
	assert.Contains(t, body, "event: error")
	assert.NotContains(t, body, "event: end")

	history, err := f.mem.History(context.Background(), f.chatID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSSERejectsBadRequests(t *testing.T) {
	f := setup(t, toolThenAnswer)

	cases := map[string]int{
		"/stream/1":             http.StatusBadRequest,
		"/stream/1?message=%20": http.StatusBadRequest,
		"/stream/abc?message=x": http.StatusBadRequest,
		"/stream/99?message=x":  http.StatusNotFound,
	}
	for path, want := range cases {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		f.router.ServeHTTP(resp, req)
		assert.Equal(t, want, resp.Code, path)
	}
}

func dial(t *testing.T, f fixture) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chats/1"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return conn
}

func TestWebSocketAnswersEachMessage(t *testing.T) {
	conn := dial(t, setup(t, toolThenAnswer))

	require.NoError(t, conn.WriteJSON(inboundMessage{Message: "what time is it?"}))
	var frames []Frame
	for {
		var frame Frame
		require.NoError(t, conn.ReadJSON(&frame))
		frames = append(frames, frame)
		if frame.Type == "message" || frame.Type == "error" {
			break
		}
	}
	require.GreaterOrEqual(t, len(frames), 2)
	assert.Equal(t, "step", frames[0].Type)
	final := frames[len(frames)-1]
	require.Equal(t, "message", final.Type)
	assert.Equal(t, "It is noon.", final.Reply.Content)

	require.NoError(t, conn.WriteJSON(inboundMessage{Message: "   "}))
	var errFrame Frame
	require.NoError(t, conn.ReadJSON(&errFrame))
	assert.Equal(t, "error", errFrame.Type)
}

func TestWebSocketSurvivesAnswersSlowerThanPongWait(t *testing.T) {
	slow := func([]*schema.Message) (string, error) {
		time.Sleep(300 * time.Millisecond)
		return "Final Answer: Worth the wait.", nil
	}
	conn := dial(t, setup(t, slow, WithKeepalive(100*time.Millisecond, 30*time.Millisecond)))

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(inboundMessage{Message: "take your time"}))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var frame Frame
		require.NoError(t, conn.ReadJSON(&frame), "answer %d", i+1)
		require.Equal(t, "message", frame.Type)
		assert.Equal(t, "Worth the wait.", frame.Reply.Content)
	}
}
