package rest

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"

	"github.com/facetbase/facetd/internal/engine"
)

var browseDecoder = newBrowseDecoder()

func newBrowseDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	// Facet parameters share the query string with the control parameters.
	d.IgnoreUnknownKeys(true)
	return d
}

// facetValues strips the underscore-prefixed control parameters, leaving
// only the facet parameters.
func facetValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

func (h *Handler) handleBrowse(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	values := r.URL.Query()

	var opts engine.BrowseOptions
	if err := browseDecoder.Decode(&opts, values); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid browse parameters")
		return
	}

	result, err := h.engine.Browse(r.Context(), collection, facetValues(values), opts)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"collections": h.engine.Collections(),
	})
}
