package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/auth"
	chatService "github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/chat"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/supervisor"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/tools"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/store"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/testutil"
)

func newDeps(t *testing.T, withModel bool) Deps {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	for _, name := range []string{"Alice", "Bob"} {
		_, err := mem.Create(ctx, persona.Persona{Name: name})
		require.NoError(t, err)
	}
	briefings := ai.NewService(mem, nil)
	d := Deps{
		Personas:  mem,
		Briefings: briefings,
		Auth:      auth.NewService(mem, "secret", time.Minute, nil),
	}
	if !withModel {
		return d
	}

	chatModel := testutil.NewFuncModel(func(input []*schema.Message) (string, error) {
		if strings.Contains(testutil.Flatten(input), "Available personas") {
			return "Alice", nil
		}
		return "Final Answer: Happy to help.", nil
	})
	registry, err := tools.NewRegistry(tools.NewTravel())
	require.NoError(t, err)
	a, err := agent.New(ctx, chatModel, registry, agent.Config{}, nil)
	require.NoError(t, err)
	router, err := supervisor.NewRouter(ctx, chatModel)
	require.NoError(t, err)
	sup, err := supervisor.New(ctx, briefings, router, a, 0, nil)
	require.NoError(t, err)

	d.Agent = a
	d.Supervisor = sup
	d.Chat = chatService.NewService(mem, briefings, a, nil, nil)
	return d
}

func request(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestOperationalEndpoints(t *testing.T) {
	h := NewRouter(newDeps(t, false))

	assert.Equal(t, http.StatusOK, request(t, h, http.MethodGet, "/healthz", "", "").Code)
	metrics := request(t, h, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, metrics.Code)

	preflight := request(t, h, http.MethodOptions, "/api/personas", "", "")
	assert.Equal(t, http.StatusNoContent, preflight.Code)
	assert.Equal(t, "*", preflight.Header().Get("Access-Control-Allow-Origin"))
}

func TestWithoutChatModel(t *testing.T) {
	h := NewRouter(newDeps(t, false))

	assert.Equal(t, http.StatusOK, request(t, h, http.MethodGet, "/api/personas", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, request(t, h, http.MethodPost, "/api/ask", "", `{"question":"hi"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, request(t, h, http.MethodPost, "/api/chats", "", `{"personaId":1}`).Code)
}

func TestEndToEndChat(t *testing.T) {
	h := NewRouter(newDeps(t, true))

	resp := request(t, h, http.MethodPost, "/api/auth/register", "",
		`{"name":"Ana","email":"ana@example.com","password":"Sup3rSecret"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = request(t, h, http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"Sup3rSecret"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var tok auth.Token
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tok))

	assert.Equal(t, http.StatusUnauthorized, request(t, h, http.MethodPost, "/api/chats", "", `{"personaId":2}`).Code)

	resp = request(t, h, http.MethodPost, "/api/chats", tok.AccessToken, `{"personaId":2}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = request(t, h, http.MethodPost, "/api/chats/1/messages", tok.AccessToken, `{"content":"Hello Bob"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "Happy to help.")

	resp = request(t, h, http.MethodPost, "/api/ask", "", `{"question":"Who likes surfing?"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var answer supervisor.Result
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &answer))
	assert.Equal(t, "Alice", answer.Persona)
	assert.Equal(t, supervisor.RouteLLM, answer.Route)
	assert.Equal(t, "Happy to help.", answer.Answer)
}
