package server

import (
	"net/http"

	"github.com/jonathan/cb-discovery/internal/llm"
	"github.com/jonathan/cb-discovery/internal/types"
)

// defaultFollowUpCount is used when a request does not ask for a count.
const defaultFollowUpCount = 3

func (s *Server) handleListQuestions(w http.ResponseWriter, _ *http.Request) {
	questions := s.catalog.ForMode(s.testMode)
	jsonResponse(w, s.logger, http.StatusOK, map[string]any{
		"questions": questions,
		"total":     len(questions),
		"test_mode": s.testMode,
	})
}

func (s *Server) handleQuestionTip(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q, ok := s.catalog.Question(id)
	if !ok {
		writeError(w, s.logger, &ErrNotFound{Kind: "question", ID: id})
		return
	}
	tip := llm.HelpTip(r.Context(), s.completer, s.logger, q.Text, q.Tooltip)
	jsonResponse(w, s.logger, http.StatusOK, map[string]string{"id": q.ID, "tip": tip})
}

func (s *Server) handleFollowUps(w http.ResponseWriter, r *http.Request) {
	var req types.FollowUpRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.Count == 0 {
		req.Count = defaultFollowUpCount
	}
	questions := s.followups.FollowUps(r.Context(), req.Answer, req.Count)
	jsonResponse(w, s.logger, http.StatusOK, map[string]any{"questions": questions})
}
