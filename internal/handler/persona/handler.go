package persona

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/persona"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/analytics"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/pkg/utils"
)

// Handler serves the persona catalogue and its records.
type Handler struct {
	personas persona.Store
	sink     analytics.Sink
	log      *logger.Logger
}

// New creates the persona handler.
func New(personas persona.Store, sink analytics.Sink, log *logger.Logger) *Handler {
	return &Handler{
		personas: personas,
		sink:     analytics.OrNop(sink),
		log:      logger.OrNop(log).With("handler", "persona"),
	}
}

// RegisterRoutes mounts persona, education, occupation and hobby routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleList)
	r.Post("/personas", h.handleCreate)
	r.Get("/personas/{personaID}", h.handleGet)
	r.Patch("/personas/{personaID}", h.handleUpdate)
	r.Delete("/personas/{personaID}", h.handleDelete)

	mount(h, r, "educations", resource[persona.Education, persona.EducationPatch]{
		entity: "education",
		list:   h.personas.Educations,
		find:   h.personas.FindEducation,
		add: func(ctx context.Context, personaID int64, e persona.Education) (persona.Education, error) {
			e.PersonaID = personaID
			return h.personas.AddEducation(ctx, e)
		},
		update: h.personas.UpdateEducation,
		remove: h.personas.DeleteEducation,
	})
	mount(h, r, "occupations", resource[persona.Occupation, persona.OccupationPatch]{
		entity: "occupation",
		list:   h.personas.Occupations,
		find:   h.personas.FindOccupation,
		add: func(ctx context.Context, personaID int64, o persona.Occupation) (persona.Occupation, error) {
			o.PersonaID = personaID
			return h.personas.AddOccupation(ctx, o)
		},
		update: h.personas.UpdateOccupation,
		remove: h.personas.DeleteOccupation,
	})
	mount(h, r, "hobbies", resource[persona.Hobby, persona.HobbyPatch]{
		entity: "hobby",
		list:   h.personas.Hobbies,
		find:   h.personas.FindHobby,
		add: func(ctx context.Context, personaID int64, hb persona.Hobby) (persona.Hobby, error) {
			hb.PersonaID = personaID
			return h.personas.AddHobby(ctx, hb)
		},
		update: h.personas.UpdateHobby,
		remove: h.personas.DeleteHobby,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	personas, err := h.personas.List(r.Context())
	h.record("persona_list", err)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, personas)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body persona.Persona
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	body.ID = 0
	created, err := h.personas.Create(r.Context(), body)
	h.record("persona_create", err, "persona_id", created.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "personaID")
	if !ok {
		return
	}
	profile, found, err := persona.LoadProfile(r.Context(), h.personas, id)
	h.record("persona_get", err, "persona_id", id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !found {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "personaID")
	if !ok {
		return
	}
	var patch persona.Patch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, found, err := h.personas.Update(r.Context(), id, patch)
	h.record("persona_update", err, "persona_id", id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !found {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "personaID")
	if !ok {
		return
	}
	found, err := h.personas.Delete(r.Context(), id)
	h.record("persona_delete", err, "persona_id", id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !found {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) record(event string, err error, kv ...any) {
	h.sink.Record(analytics.CategoryEndpoints, analytics.Event(event, analytics.Status(err), kv...))
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, persona.ErrValidation):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, persona.ErrPersonaNotFound):
		utils.RespondError(w, http.StatusNotFound, "persona not found")
	default:
		h.log.Error("persona request failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}
