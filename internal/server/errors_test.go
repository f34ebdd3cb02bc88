package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/cb-discovery/internal/analysis"
	"github.com/jonathan/cb-discovery/internal/db"
	"github.com/jonathan/cb-discovery/internal/llm"
	"github.com/jonathan/cb-discovery/internal/session"
	"github.com/jonathan/cb-discovery/internal/survey"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", &ErrValidation{Field: "role", Message: "required"}, http.StatusBadRequest},
		{"missing required", &survey.ErrMissingRequired{IDs: []string{"Q1"}}, http.StatusBadRequest},
		{"blank answer", &survey.ErrBlankAnswer{Index: 0}, http.StatusBadRequest},
		{"invalid answer", &survey.ErrInvalidAnswer{QuestionID: "Q2", Reason: "bad"}, http.StatusBadRequest},
		{"navigation", &survey.ErrNavigation{Message: "first"}, http.StatusBadRequest},
		{"incomplete", &survey.ErrIncomplete{Section: "Step 1"}, http.StatusBadRequest},
		{"expert required", analysis.ErrExpertRequired, http.StatusBadRequest},
		{"credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"forbidden", &ErrForbidden{}, http.StatusForbidden},
		{"not found", &ErrNotFound{Kind: "session", ID: "x"}, http.StatusNotFound},
		{"unknown question", &survey.ErrUnknownQuestion{ID: "Q99"}, http.StatusNotFound},
		{"session missing", session.ErrNotFound, http.StatusNotFound},
		{"wrapped submission missing", fmt.Errorf("%w: abc", db.ErrSubmissionNotFound), http.StatusNotFound},
		{"session conflict", fmt.Errorf("save: %w", session.ErrConflict), http.StatusConflict},
		{"step order", &survey.ErrStepOrder{Action: "submit", Want: survey.StepSubmit, Got: survey.StepFixed}, http.StatusConflict},
		{"short output", &analysis.ErrShortOutput{Kind: "expert analysis", Length: 2}, http.StatusBadGateway},
		{"malformed question", fmt.Errorf("failed: %w", llm.ErrMalformedQuestion), http.StatusBadGateway},
		{"llm unavailable", fmt.Errorf("expert analysis failed: %w", llm.ErrUnavailable), http.StatusServiceUnavailable},
		{"storage disabled", ErrStorageDisabled, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: role - required", (&ErrValidation{Field: "role", Message: "required"}).Error())
	assert.Equal(t, "validation error: invalid request body", (&ErrValidation{Message: "invalid request body"}).Error())
	assert.Equal(t, "session not found: abc", (&ErrNotFound{Kind: "session", ID: "abc"}).Error())
	assert.Equal(t, "forbidden", (&ErrForbidden{}).Error())
}
