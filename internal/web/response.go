package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/vbonduro/foodgram/internal/domain"
)

const maxBodySize = 20 << 20

func detail(msg string) map[string]string {
	return map[string]string{"detail": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into dst. Malformed bodies are
// reported as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("non_field_errors", "Request body is empty.")
		}
		return domain.NewValidationError("non_field_errors", "Malformed JSON: "+err.Error())
	}
	return nil
}

// writeError maps service errors to HTTP responses. Unexpected errors are
// logged and hidden behind a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, detail("Not found."))
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAbsent):
		writeJSON(w, http.StatusBadRequest, map[string]string{"errors": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Token")
		writeJSON(w, http.StatusUnauthorized, detail("Invalid token."))
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, detail("You do not have permission to perform this action."))
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, detail("Internal server error."))
	}
}

// parseID extracts the {id} path variable. Malformed ids cannot name an
// existing object, so they answer 404.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}
