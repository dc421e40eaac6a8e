package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error  string            `json:"error"`
	Fields validation.Errors `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps store errors to HTTP statuses. ErrInvalidToken is checked
// before ErrNotFound, which it wraps.
func statusOf(err error) int {
	var fields validation.Errors

	switch {
	case errors.As(err, &fields), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, cmsdb.ErrInvalidToken), errors.Is(err, cmsdb.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, cmsdb.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cmsdb.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)

	resp := errorResponse{Error: err.Error()}

	var fields validation.Errors
	if errors.As(err, &fields) {
		resp.Error = "validation failed"
		resp.Fields = fields
	}

	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)

		resp.Error = "internal server error"
	}

	writeJSON(w, status, resp)
}

// decode reads a single JSON value from the request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))

	err := dec.Decode(v)
	if err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", errBadRequest, err)
	}

	return nil
}

// validRequest is a request body that checks itself.
type validRequest interface {
	Validate() error
}

// decodeValid decodes v and runs its ozzo validation rules.
func decodeValid(r *http.Request, v validRequest) error {
	err := decode(r, v)
	if err != nil {
		return err
	}

	return v.Validate()
}
