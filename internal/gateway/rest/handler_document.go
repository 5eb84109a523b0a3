package rest

import (
	"encoding/json"
	"net/http"

	"github.com/facetbase/facetd/pkg/model"
)

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	docID := r.PathValue("id")

	doc, err := h.engine.GetDocument(r.Context(), collection, docID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	var data model.Document
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}

	doc, err := h.engine.PutDocument(r.Context(), collection, data)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	docID := r.PathValue("id")

	var data model.Document
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	// The path wins over any id carried in the body.
	data.SetID(docID)

	doc, err := h.engine.PutDocument(r.Context(), collection, data)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	docID := r.PathValue("id")

	if err := h.engine.DeleteDocument(r.Context(), collection, docID); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var q model.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	// The collection comes from the path, not the payload.
	q.Collection = r.PathValue("collection")

	if err := validateQuery(q); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	docs, err := h.engine.ExecuteQuery(r.Context(), q)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}
