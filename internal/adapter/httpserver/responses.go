// Package httpserver contains HTTP handlers and middleware.
//
// It provides the REST API for jobs, applications, reputation, assistance,
// and sourcing agents. The package follows clean architecture principles and
// keeps HTTP concerns out of the business logic.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clearpathhq/clearpath/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrMissingFeedback):
		code = http.StatusBadRequest
		codeStr = "MISSING_FEEDBACK"
	case errors.Is(err, domain.ErrIncompleteScheduling):
		code = http.StatusBadRequest
		codeStr = "INCOMPLETE_SCHEDULING"
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrInvalidCredentials):
		code = http.StatusUnauthorized
		codeStr = "INVALID_CREDENTIALS"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicateApplication):
		code = http.StatusConflict
		codeStr = "DUPLICATE_APPLICATION"
	case errors.Is(err, domain.ErrInvalidTransition):
		code = http.StatusConflict
		codeStr = "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrVersionConflict):
		code = http.StatusConflict
		codeStr = "VERSION_CONFLICT"
	case errors.Is(err, domain.ErrConflict):
		code = http.StatusConflict
		codeStr = "CONFLICT"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
