package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/grammar"
	"github.com/syntaxis/syntaxis/logger"
	"github.com/syntaxis/syntaxis/resolve"
	"github.com/syntaxis/syntaxis/template"
)

// maxBodyBytes bounds request bodies; templates are short.
const maxBodyBytes = 64 << 10

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error       string   `json:"error"`
	Kind        string   `json:"kind,omitempty"`
	Offset      *int     `json:"offset,omitempty"`
	Group       int      `json:"group,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Hints       []string `json:"hints,omitempty"`
	RequestID   string   `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// readJSON reads and decodes a JSON request body
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewInvalidRequestError("invalid request body: %v", err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var pe *template.ParseError
	var incomplete *resolve.IncompleteFeaturesError
	switch {
	case errors.As(err, &pe), errors.IsInvalidRequestError(err):
		return http.StatusBadRequest
	case errors.As(err, &incomplete), errors.Is(err, generate.ErrNoMatchingWord),
		errors.IsAny(err, grammar.ErrUnknownFeature, grammar.ErrUnknownPartOfSpeech):
		return http.StatusUnprocessableEntity
	case errors.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.IsConflictError(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeWrappedError logs err and writes it with a status derived from its
// type. Internal errors are reported by context only.
func writeWrappedError(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error, context string) {
	status := statusFor(err)
	body := errorResponse{
		Error:     err.Error(),
		Hints:     errors.GetAllHints(err),
		RequestID: logger.RequestIDFromContext(r.Context()),
	}

	var pe *template.ParseError
	if errors.As(err, &pe) {
		body.Error = pe.Error()
		body.Kind = string(pe.Kind)
		if pe.Offset >= 0 {
			body.Offset = &pe.Offset
		}
		body.Group = pe.Group
		body.Suggestions = pe.Suggestions
	}

	if status == http.StatusInternalServerError {
		log.Errorw(context, logger.FieldError, err, logger.FieldPath, r.URL.Path)
		body.Error = context
		body.Hints = nil
	} else {
		log.Debugw(context, logger.FieldError, err, logger.FieldStatus, status)
	}
	writeJSON(w, status, body)
}
