package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/cb-discovery/internal/analysis"
	"github.com/jonathan/cb-discovery/internal/db"
	"github.com/jonathan/cb-discovery/internal/metrics"
	"github.com/jonathan/cb-discovery/internal/rendering"
	"github.com/jonathan/cb-discovery/internal/scoring"
	"github.com/jonathan/cb-discovery/internal/types"
)

// SpecRequest carries the expert analysis a functional specification is drafted from.
type SpecRequest struct {
	Expert string `json:"expert" validate:"max=65536"`
}

// SpecView is a drafted functional specification.
type SpecView struct {
	Spec     string `json:"spec"`
	Filename string `json:"filename"`
}

// InsightsView is the report of the most recently analyzed submission.
type InsightsView struct {
	SubmissionID string               `json:"submission_id"`
	Org          types.Org            `json:"org"`
	Report       types.MaturityReport `json:"report"`
	Markdown     string               `json:"markdown"`
}

// submission loads a stored submission by its path or session ID.
func (s *Server) submission(ctx context.Context, rawID string) (*types.Submission, error) {
	if s.submissions == nil {
		return nil, ErrStorageDisabled
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, &ErrNotFound{Kind: "submission", ID: rawID}
	}
	return sub, nil
}

// parseFilter reads the list filter from the query string.
func parseFilter(r *http.Request) (db.Filter, error) {
	q := r.URL.Query()
	filter := db.Filter{
		OrgContains:       q.Get("org"),
		SubmitterContains: q.Get("submitter"),
	}
	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := types.SubmissionStatus(strings.ToLower(strings.TrimSpace(part)))
			switch status {
			case types.StatusSubmitted, types.StatusAnalyzed:
				filter.Statuses = append(filter.Statuses, status)
			case "":
			default:
				return db.Filter{}, &ErrValidation{Field: "status", Message: "must be submitted or analyzed"}
			}
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return db.Filter{}, &ErrValidation{Field: "limit", Message: "must be a positive integer"}
		}
		filter.Limit = limit
	}
	return filter.Normalize(), nil
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.submissions == nil {
		writeError(w, s.logger, ErrStorageDisabled)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	subs, err := s.submissions.ListSubmissions(r.Context(), filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusOK, map[string]any{
		"submissions": subs,
		"count":       len(subs),
	})
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.submission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusOK, sub)
}

// handleSubmissionScores computes and stores the report unless one exists.
// ?force=true recomputes.
func (s *Server) handleSubmissionScores(w http.ResponseWriter, r *http.Request) {
	sub, err := s.submission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if sub.Scores != nil && !force {
		jsonResponse(w, s.logger, http.StatusOK, ScoresView{
			SubmissionID: sub.ID.String(),
			Report:       *sub.Scores,
			Markdown:     rendering.MaturityMarkdown(*sub.Scores),
		})
		return
	}

	report := scoring.ScoreSubmission(sub.Answers)
	metrics.ScoresComputed.WithLabelValues(sourceAdmin).Inc()
	if err := s.submissions.SaveScores(r.Context(), sub.ID, report); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.logger.Info("scores computed", zap.String("submission_id", sub.ID.String()), zap.Int("overall", report.Overall))
	jsonResponse(w, s.logger, http.StatusOK, ScoresView{
		SubmissionID: sub.ID.String(),
		Report:       report,
		Markdown:     rendering.MaturityMarkdown(report),
	})
}

func (s *Server) handleSubmissionAnalytics(w http.ResponseWriter, r *http.Request) {
	sub, err := s.submission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusOK, analysis.Summarize(sub.Answers))
}

func (s *Server) handleSubmissionAnalysis(w http.ResponseWriter, r *http.Request) {
	sub, err := s.submission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	result, err := s.analyst.Run(r.Context(), sub.Answers, analysis.Summarize(sub.Answers))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusOK, result)
}

func (s *Server) handleSubmissionSpec(w http.ResponseWriter, r *http.Request) {
	var req SpecRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	sub, err := s.submission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	spec, err := s.analyst.FunctionalSpec(r.Context(), sub.Answers, req.Expert)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusOK, SpecView{
		Spec:     spec,
		Filename: rendering.WithExtension(rendering.SpecFilename(s.now()), rendering.FormatMarkdown),
	})
}

// handleSubmissionReport downloads the stored report, scoring on the fly when
// none was saved yet.
func (s *Server) handleSubmissionReport(w http.ResponseWriter, r *http.Request) {
	sub, err := s.submission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	report := sub.Scores
	if report == nil {
		computed := scoring.ScoreSubmission(sub.Answers)
		metrics.ScoresComputed.WithLabelValues(sourceAdmin).Inc()
		report = &computed
	}
	s.download(w, r, s.reportDocument(*report))
}

func (s *Server) handleSubmissionResponses(w http.ResponseWriter, r *http.Request) {
	sub, err := s.submission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.download(w, r, responsesDocument(*sub))
}

// handleInsights shows the next steps for the latest analyzed submission.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.submissions == nil {
		writeError(w, s.logger, ErrStorageDisabled)
		return
	}
	subs, err := s.submissions.ListSubmissions(r.Context(), db.Filter{
		Statuses: []types.SubmissionStatus{types.StatusAnalyzed},
		Limit:    1,
	}.Normalize())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if len(subs) == 0 || subs[0].Scores == nil {
		writeError(w, s.logger, &ErrNotFound{Kind: "analyzed submission", ID: "latest"})
		return
	}
	latest := subs[0]
	jsonResponse(w, s.logger, http.StatusOK, InsightsView{
		SubmissionID: latest.ID.String(),
		Org:          latest.Org,
		Report:       *latest.Scores,
		Markdown:     rendering.InsightsMarkdown(*latest.Scores, s.nextSteps),
	})
}
