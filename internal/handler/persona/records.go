package persona

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/pkg/utils"
)

// resource binds one persona child record type to the store.
type resource[T, P any] struct {
	entity string
	list   func(ctx context.Context, personaID int64) ([]T, error)
	find   func(ctx context.Context, id int64) (T, bool, error)
	add    func(ctx context.Context, personaID int64, record T) (T, error)
	update func(ctx context.Context, id int64, patch P) (T, bool, error)
	remove func(ctx context.Context, id int64) (bool, error)
}

// mount registers list/create under the persona and get/update/delete by id.
func mount[T, P any](h *Handler, r chi.Router, plural string, res resource[T, P]) {
	notFound := res.entity + " not found"

	r.Get("/personas/{personaID}/"+plural, func(w http.ResponseWriter, r *http.Request) {
		personaID, ok := pathID(w, r, "personaID")
		if !ok {
			return
		}
		_, found, err := h.personas.FindByID(r.Context(), personaID)
		if err == nil && !found {
			h.record(res.entity+"_list", nil, "persona_id", personaID)
			utils.RespondError(w, http.StatusNotFound, "persona not found")
			return
		}
		var records []T
		if err == nil {
			records, err = res.list(r.Context(), personaID)
		}
		h.record(res.entity+"_list", err, "persona_id", personaID)
		if err != nil {
			h.fail(w, err)
			return
		}
		if records == nil {
			records = []T{}
		}
		utils.RespondJSON(w, http.StatusOK, records)
	})

	r.Post("/personas/{personaID}/"+plural, func(w http.ResponseWriter, r *http.Request) {
		personaID, ok := pathID(w, r, "personaID")
		if !ok {
			return
		}
		var body T
		if err := utils.DecodeJSON(r, &body); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		created, err := res.add(r.Context(), personaID, body)
		h.record(res.entity+"_create", err, "persona_id", personaID)
		if err != nil {
			h.fail(w, err)
			return
		}
		utils.RespondJSON(w, http.StatusCreated, created)
	})

	r.Get("/"+plural+"/{recordID}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "recordID")
		if !ok {
			return
		}
		record, found, err := res.find(r.Context(), id)
		h.record(res.entity+"_get", err, res.entity+"_id", id)
		if err != nil {
			h.fail(w, err)
			return
		}
		if !found {
			utils.RespondError(w, http.StatusNotFound, notFound)
			return
		}
		utils.RespondJSON(w, http.StatusOK, record)
	})

	r.Patch("/"+plural+"/{recordID}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "recordID")
		if !ok {
			return
		}
		var patch P
		if err := utils.DecodeJSON(r, &patch); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		updated, found, err := res.update(r.Context(), id, patch)
		h.record(res.entity+"_update", err, res.entity+"_id", id)
		if err != nil {
			h.fail(w, err)
			return
		}
		if !found {
			utils.RespondError(w, http.StatusNotFound, notFound)
			return
		}
		utils.RespondJSON(w, http.StatusOK, updated)
	})

	r.Delete("/"+plural+"/{recordID}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "recordID")
		if !ok {
			return
		}
		found, err := res.remove(r.Context(), id)
		h.record(res.entity+"_delete", err, res.entity+"_id", id)
		if err != nil {
			h.fail(w, err)
			return
		}
		if !found {
			utils.RespondError(w, http.StatusNotFound, notFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
