// Package server provides the HTTP REST API for the discovery survey.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/cb-discovery/internal/analysis"
	"github.com/jonathan/cb-discovery/internal/db"
	"github.com/jonathan/cb-discovery/internal/llm"
	"github.com/jonathan/cb-discovery/internal/session"
	"github.com/jonathan/cb-discovery/internal/survey"
)

// ErrStorageDisabled is returned when an operation needs the submission database
// and none is configured.
var ErrStorageDisabled = errors.New("submission storage is not configured")

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid role or password"
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ErrForbidden indicates the caller may not act on a resource
type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	if e.Message == "" {
		return "forbidden"
	}
	return e.Message
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation  *ErrValidation
		credentials *ErrInvalidCredentials
		notFound    *ErrNotFound
		forbidden   *ErrForbidden
		stepOrder   *survey.ErrStepOrder
		missing     *survey.ErrMissingRequired
		blank       *survey.ErrBlankAnswer
		invalid     *survey.ErrInvalidAnswer
		unknown     *survey.ErrUnknownQuestion
		navigation  *survey.ErrNavigation
		incomplete  *survey.ErrIncomplete
		shortOutput *analysis.ErrShortOutput
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &missing), errors.As(err, &blank),
		errors.As(err, &invalid), errors.As(err, &navigation), errors.As(err, &incomplete),
		errors.Is(err, analysis.ErrExpertRequired):
		return http.StatusBadRequest
	case errors.As(err, &credentials):
		return http.StatusUnauthorized
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &notFound), errors.As(err, &unknown),
		errors.Is(err, session.ErrNotFound), errors.Is(err, db.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.As(err, &stepOrder), errors.Is(err, session.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &shortOutput), errors.Is(err, llm.ErrMalformedQuestion):
		return http.StatusBadGateway
	case errors.Is(err, llm.ErrUnavailable), errors.Is(err, ErrStorageDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
