package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-expense-tracker/internal/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json"

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errors.ErrUnauthorized), errors.Is(err, errors.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errors.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeError writes err as a JSON error body. Only Public messages reach the client;
// anything else is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := errors.Message(err, http.StatusText(status))
	if status == http.StatusInternalServerError {
		log.Err(err).Msg("request failed")
		message = "Internal server error"
	}
	writeJSON(w, status, errorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// decodeJSON reads the request body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.BadRequest("Request body too large", err)
		case stderrors.Is(err, io.EOF):
			return errors.BadRequest("Request body is required", err)
		}
		return errors.BadRequest("Invalid request body", err)
	}
	return nil
}

// pathID parses the {id} path value
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("Validation failed (numeric string is expected)")
	}
	return id, nil
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.NotFound("Cannot "+r.Method+" "+r.URL.Path))
	}
}
