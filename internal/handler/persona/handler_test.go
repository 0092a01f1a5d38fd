package persona

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/analytics"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/store"
)

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Record(_ string, f analytics.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, f["event"].(string)+":"+f["status"].(string))
}

func setupRouter() (*chi.Mux, *recordingSink) {
	sink := &recordingSink{}
	r := chi.NewRouter()
	New(store.NewMemory(), sink, nil).RegisterRoutes(r)
	return r, sink
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestPersonaCRUD(t *testing.T) {
	r, sink := setupRouter()

	resp := do(t, r, http.MethodPost, "/personas", map[string]any{
		"name": "Sofia", "birthdate": "1994-03-12", "gender": "Female", "nationality": "Portuguese",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "Sofia", created.Name)

	resp = do(t, r, http.MethodPatch, "/personas/1", map[string]any{"nationality": "Brazilian"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"nationality":"Brazilian"`)

	resp = do(t, r, http.MethodGet, "/personas/1", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"hobbies"`)

	resp = do(t, r, http.MethodDelete, "/personas/1", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = do(t, r, http.MethodGet, "/personas/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	assert.Equal(t, []string{
		"persona_create:success",
		"persona_update:success",
		"persona_get:success",
		"persona_delete:success",
		"persona_get:success",
	}, sink.events)
}

func TestPersonaValidationErrors(t *testing.T) {
	r, _ := setupRouter()

	cases := map[string]any{
		"blank name":   map[string]any{"name": "   "},
		"bad gender":   map[string]any{"name": "Sofia", "gender": "Robot"},
		"future birth": map[string]any{"name": "Sofia", "birthdate": "2999-01-01"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, r, http.MethodPost, "/personas", body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/personas", bytes.NewBufferString("{not json"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, r, http.MethodGet, "/personas/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestChildRecords(t *testing.T) {
	r, sink := setupRouter()
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/personas", map[string]any{"name": "Sofia"}).Code)

	resp := do(t, r, http.MethodPost, "/personas/1/hobbies", map[string]any{
		"type": "travel_outdoors", "name": "Surfing", "freq": "often",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"personaId":1`)

	resp = do(t, r, http.MethodPost, "/personas/1/educations", map[string]any{
		"level": "Master", "course": "CS", "school": "FEUP", "dateStarted": "2016-09-01", "isGraduated": true,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, "graduated without finish date")

	resp = do(t, r, http.MethodPost, "/personas/42/occupations", map[string]any{
		"position": "Engineer", "workplace": "Acme", "dateStarted": "2020-01-01",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, r, http.MethodGet, "/personas/1/hobbies", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Surfing")

	resp = do(t, r, http.MethodGet, "/personas/1/educations", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())

	resp = do(t, r, http.MethodGet, "/personas/42/hobbies", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, r, http.MethodPatch, "/hobbies/1", map[string]any{"freq": "rarely"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"freq":"rarely"`)

	resp = do(t, r, http.MethodPatch, "/hobbies/1", map[string]any{"freq": "daily"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/hobbies/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/hobbies/1", nil).Code)

	assert.Contains(t, sink.events, "occupation_create:error")
	assert.Contains(t, sink.events, "hobby_delete:success")
}
