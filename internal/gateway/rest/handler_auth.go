package rest

import (
	"errors"
	"net/http"

	"github.com/facetbase/facetd/internal/auth"
	"github.com/facetbase/facetd/pkg/model"
)

type tokenRequest struct {
	Name string `json:"name" validate:"required"`
	Key  string `json:"key" validate:"required"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[tokenRequest](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	token, err := h.auth.Exchange(r.Context(), auth.TokenRequest{Name: req.Name, Key: req.Key})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials")
			return
		}
		if model.IsCanceled(err) {
			w.WriteHeader(499)
			return
		}
		writeInternalError(w, err, "Token exchange failed")
		return
	}

	writeJSON(w, http.StatusOK, token)
}
