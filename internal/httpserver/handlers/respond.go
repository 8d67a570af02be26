package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"admincore/internal/apperr"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// respondError maps the error taxonomy onto HTTP statuses. Internal detail
// (persistence errors in particular) is never echoed to the caller.
func respondError(w http.ResponseWriter, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		respondJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, apperr.ErrUnauthenticated):
		respondJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthenticated"})
	case errors.Is(err, apperr.ErrAuthFailure):
		respondJSON(w, http.StatusUnauthorized, map[string]any{"error": "authentication failed"})
	case errors.Is(err, apperr.ErrForbidden):
		respondJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
	default:
		respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

// validationFields flattens validator errors into a field->message map.
func validationFields(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	} else {
		fields["payload"] = err.Error()
	}
	return fields
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.NewValidation("payload", "malformed json")
	}
	return nil
}
