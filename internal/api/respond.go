package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain error kinds onto HTTP status codes. Storage and
// unclassified errors hide their detail behind a generic 500 body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case apperr.KindInvalidArgument:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case apperr.KindAlreadyExists:
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case apperr.KindUnauthenticated:
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
