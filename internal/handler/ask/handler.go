package ask

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/agent"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/analytics"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/supervisor"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/pkg/utils"
)

const maxQuestionLen = 250

// Asker routes a question to the best persona.
type Asker interface {
	Ask(ctx context.Context, question string, opts ...agent.RunOption) (supervisor.Result, bool)
}

// Briefer resolves a persona id into its briefing.
type Briefer interface {
	Briefing(ctx context.Context, personaID int64) (ai.Briefing, bool, error)
}

// Runner answers as one persona.
type Runner interface {
	Run(ctx context.Context, briefing ai.Briefing, question string, opts ...agent.RunOption) (agent.Result, error)
}

// Handler serves one-shot questions that are not tied to a chat.
type Handler struct {
	asker   Asker
	briefer Briefer
	runner  Runner
	sink    analytics.Sink
	log     *logger.Logger
}

func New(asker Asker, briefer Briefer, runner Runner, sink analytics.Sink, log *logger.Logger) *Handler {
	return &Handler{
		asker:   asker,
		briefer: briefer,
		runner:  runner,
		sink:    analytics.OrNop(sink),
		log:     logger.OrNop(log).With("handler", "ask"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ask", h.handleAsk)
	r.Post("/qa", h.handleQA)
}

type qaResponse struct {
	Output    string        `json:"output"`
	Persona   string        `json:"persona"`
	PersonaID int64         `json:"personaId"`
	Steps     []agent.Trace `json:"steps,omitempty"`
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Question string `json:"question"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question, ok := validQuestion(w, payload.Question)
	if !ok {
		return
	}

	res, ok := h.asker.Ask(r.Context(), question)
	status := analytics.StatusSuccess
	if !ok {
		status = analytics.StatusError
	}
	h.sink.Record(analytics.CategoryChat, analytics.Event("supervisor_ask", status,
		"persona", res.Persona, "route", string(res.Route)))
	if !ok {
		utils.RespondError(w, http.StatusBadGateway, "could not answer the question")
		return
	}
	utils.RespondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleQA(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Question  string `json:"question"`
		PersonaID int64  `json:"personaId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question, ok := validQuestion(w, payload.Question)
	if !ok {
		return
	}

	briefing, found, err := h.briefer.Briefing(r.Context(), payload.PersonaID)
	if err != nil {
		h.log.Error("persona lookup failed", "persona_id", payload.PersonaID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !found {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}

	res, err := h.runner.Run(r.Context(), briefing, question)
	h.sink.Record(analytics.CategoryChat, analytics.Event("persona_qa", analytics.Status(err),
		"persona_id", briefing.ID))
	if err != nil {
		h.log.Error("persona answer failed", "persona", briefing.Name, "error", err)
		utils.RespondError(w, http.StatusBadGateway, "could not answer the question")
		return
	}
	utils.RespondJSON(w, http.StatusOK, qaResponse{
		Output:    res.Answer,
		Persona:   briefing.Name,
		PersonaID: briefing.ID,
		Steps:     res.Steps,
	})
}

func validQuestion(w http.ResponseWriter, raw string) (string, bool) {
	q := strings.TrimSpace(raw)
	if q == "" || utf8.RuneCountInString(q) > maxQuestionLen {
		utils.RespondError(w, http.StatusBadRequest, "question must be 1-250 characters")
		return "", false
	}
	return q, true
}
