package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/dshills/piicleaner/internal/pii"
)

// problem is an RFC 9457 problem document.
type problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
	// Index locates the offending batch element.
	Index *int `json:"index,omitempty"`
}

// requestError is a malformed request body or a missing field.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func missingField(name string) error {
	return &requestError{msg: fmt.Sprintf("missing required field %q", name)}
}

var errEmptyBody = errors.New("empty body")

// decode reads a JSON body into out. On failure it writes the problem
// response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	err := decodeJSON(r, out)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeProblem(w, r, problem{
			Type:   "too_large",
			Title:  "Request body too large",
			Status: http.StatusRequestEntityTooLarge,
			Detail: fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit),
		})
		return false
	}
	s.respondProblem(w, r, &requestError{msg: err.Error()})
	return false
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// respondProblem maps err onto a problem response: bad selections,
// strategies and inputs are 400, unknown cleaner names 422.
func (s *Server) respondProblem(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unknown *pii.UnknownDetectorError
		config  *pii.InvalidConfigurationError
		input   *pii.InvalidInputError
		request *requestError
	)
	p := problem{Detail: err.Error()}
	switch {
	case errors.As(err, &unknown):
		p.Type, p.Title, p.Status = "unknown_cleaner", "Unknown cleaner", http.StatusUnprocessableEntity
	case errors.As(err, &config):
		p.Type, p.Title, p.Status = "invalid_configuration", "Invalid configuration", http.StatusBadRequest
	case errors.As(err, &input):
		p.Type, p.Title, p.Status = "invalid_input", "Invalid input", http.StatusBadRequest
		p.Index = &input.Index
	case errors.As(err, &request):
		p.Type, p.Title, p.Status = "invalid_request", "Invalid request", http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		p.Type, p.Title, p.Status = "cancelled", "Request cancelled", http.StatusServiceUnavailable
	default:
		s.log.Error("request failed", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
		p.Type, p.Title, p.Status = "internal", "Internal error", http.StatusInternalServerError
		p.Detail = "internal error"
	}
	s.writeProblem(w, r, p)
}

func (s *Server) writeProblem(w http.ResponseWriter, r *http.Request, p problem) {
	p.RequestID = requestIDFrom(r.Context())
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
