package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/cb-discovery/internal/metrics"
	"github.com/jonathan/cb-discovery/internal/rendering"
	"github.com/jonathan/cb-discovery/internal/scoring"
	"github.com/jonathan/cb-discovery/internal/server/middleware"
	"github.com/jonathan/cb-discovery/internal/session"
	"github.com/jonathan/cb-discovery/internal/survey"
	"github.com/jonathan/cb-discovery/internal/types"
)

// Score sources for metrics
const (
	sourceSession = "session"
	sourceAdmin   = "admin"
)

// ProgressView counts answered fixed questions.
type ProgressView struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// DeepDiveView is the deep-dive position of a session.
type DeepDiveView struct {
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SessionView is the client-facing state of a wizard session.
type SessionView struct {
	ID            string                `json:"id"`
	Step          string                `json:"step"`
	StepNumber    int                   `json:"step_number"`
	Username      string                `json:"username"`
	Role          types.Role            `json:"role"`
	TestMode      bool                  `json:"test_mode"`
	Progress      ProgressView          `json:"progress"`
	QuestionIndex int                   `json:"question_index"`
	Question      *types.Question       `json:"question,omitempty"`
	Answer        any                   `json:"answer,omitempty"`
	DeepDive      *DeepDiveView         `json:"deep_dive,omitempty"`
	OrgName       string                `json:"org_name,omitempty"`
	Contact       string                `json:"contact,omitempty"`
	SubmissionID  string                `json:"submission_id,omitempty"`
	Scores        *types.MaturityReport `json:"scores,omitempty"`
	Step1Complete bool                  `json:"step1_complete"`
	Step2Complete bool                  `json:"step2_complete"`
	Step3Complete bool                  `json:"step3_complete"`
}

// ScoresView is a computed maturity report with its markdown rendering.
type ScoresView struct {
	SubmissionID string               `json:"submission_id,omitempty"`
	Report       types.MaturityReport `json:"report"`
	Markdown     string               `json:"markdown"`
}

func (s *Server) view(sess survey.Session) SessionView {
	answered, total := sess.Progress(s.catalog)
	v := SessionView{
		ID:            sess.ID,
		Step:          sess.Step.String(),
		StepNumber:    int(sess.Step) + 1,
		Username:      sess.Username,
		Role:          sess.Role,
		TestMode:      sess.TestMode,
		Progress:      ProgressView{Answered: answered, Total: total},
		QuestionIndex: sess.FixedIndex,
		OrgName:       sess.OrgName,
		Contact:       sess.Contact,
		SubmissionID:  sess.SubmissionID,
		Scores:        sess.Scores,
		Step1Complete: sess.Step1Complete(),
		Step2Complete: sess.Step2Complete(),
		Step3Complete: sess.Step3Complete(),
	}
	if q, err := sess.CurrentQuestion(s.catalog); err == nil {
		v.Question = &q
		v.Answer = sess.FixedAnswers[q.ID]
	}
	if question, answer, err := sess.CurrentDeepDive(); err == nil {
		v.DeepDive = &DeepDiveView{
			Index:    sess.DeepDiveIndex,
			Total:    survey.DeepDiveQuestions,
			Question: question,
			Answer:   answer,
		}
	}
	return v
}

// loadSession returns the session named in the path if it belongs to the caller.
func (s *Server) loadSession(r *http.Request) (survey.Session, error) {
	id, err := middleware.GetIdentity(r)
	if err != nil {
		return survey.Session{}, &ErrForbidden{Message: "not signed in"}
	}
	sessionID := r.PathValue("id")
	sess, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return survey.Session{}, &ErrNotFound{Kind: "session", ID: sessionID}
		}
		return survey.Session{}, err
	}
	if sess.Username != id.Username || sess.Role != id.Role {
		return survey.Session{}, &ErrForbidden{Message: "session belongs to another user"}
	}
	return sess, nil
}

type transition func(ctx context.Context, sess survey.Session, now time.Time) (survey.Session, error)

// advance loads the caller's session, applies fn and stores the result.
func (s *Server) advance(w http.ResponseWriter, r *http.Request, fn transition) {
	sess, err := s.loadSession(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	next, err := fn(r.Context(), sess, s.now())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := s.sessions.Save(r.Context(), next); err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusOK, s.view(next))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.GetIdentity(r)
	if err != nil {
		writeError(w, s.logger, &ErrForbidden{Message: "not signed in"})
		return
	}
	sess := survey.NewSession(uuid.NewString(), id.Username, id.Role, s.testMode, s.now())
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusCreated, s.view(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusOK, s.view(sess))
}

func (s *Server) handleFixedAnswer(w http.ResponseWriter, r *http.Request) {
	var req types.AnswerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	qid := r.PathValue("qid")
	s.advance(w, r, func(_ context.Context, sess survey.Session, now time.Time) (survey.Session, error) {
		return sess.AnswerFixed(s.catalog, qid, req.Value, req.Other, now)
	})
}

func (s *Server) handleFixedNext(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, func(_ context.Context, sess survey.Session, now time.Time) (survey.Session, error) {
		return sess.NextFixed(s.catalog, now)
	})
}

func (s *Server) handleFixedBack(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, func(_ context.Context, sess survey.Session, now time.Time) (survey.Session, error) {
		return sess.BackFixed(now)
	})
}

func (s *Server) handleFixedFinish(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, func(_ context.Context, sess survey.Session, now time.Time) (survey.Session, error) {
		return sess.FinishFixed(s.catalog, now)
	})
}

func (s *Server) handleDeepDiveAnswer(w http.ResponseWriter, r *http.Request) {
	var req types.TextRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.advance(w, r, func(_ context.Context, sess survey.Session, now time.Time) (survey.Session, error) {
		return sess.AnswerDeepDive(req.Text, now)
	})
}

func (s *Server) handleDeepDiveNext(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, func(ctx context.Context, sess survey.Session, now time.Time) (survey.Session, error) {
		return sess.AdvanceDeepDive(ctx, s.followups, now)
	})
}

func (s *Server) handleDeepDiveBack(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, func(_ context.Context, sess survey.Session, now time.Time) (survey.Session, error) {
		return sess.BackDeepDive(now)
	})
}

func (s *Server) handleDeepDiveFinish(w http.ResponseWriter, r *http.Request) {
	s.advance(w, r, func(_ context.Context, sess survey.Session, now time.Time) (survey.Session, error) {
		return sess.FinishDeepDive(now)
	})
}

// handleSubmit stores the submission and moves the session to analytics.
// The submission ID comes from the session, so when the session save fails
// a retry overwrites the same row instead of adding one.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req types.SubmitRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if s.submissions == nil {
		writeError(w, s.logger, ErrStorageDisabled)
		return
	}

	sess, err := s.loadSession(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	now := s.now()
	sess, err = sess.SetOrganization(req.OrgName, req.Contact, now)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	sub, next, err := sess.Submit(sess.SubmissionKey(), now)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if _, err := s.submissions.CreateSubmission(r.Context(), sub); err != nil {
		writeError(w, s.logger, err)
		return
	}
	metrics.Submissions.Inc()
	s.logger.Info("survey submitted",
		zap.String("submission_id", sub.ID.String()),
		zap.String("username", sub.SubmittedBy),
		zap.String("role", string(sub.Role)),
	)

	if err := s.sessions.Save(r.Context(), next); err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusCreated, s.view(next))
}

// handleSessionScores scores the session's submitted answers and stores the report.
func (s *Server) handleSessionScores(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if sess.SubmissionID == "" {
		writeError(w, s.logger, &survey.ErrStepOrder{Action: "compute scores", Want: survey.StepAnalytics, Got: sess.Step})
		return
	}

	report := scoring.ScoreSubmission(types.Answers{Fixed: sess.Fixed, Section2: sess.DeepDiveEntries()})
	metrics.ScoresComputed.WithLabelValues(sourceSession).Inc()

	if s.submissions != nil {
		subID, err := uuid.Parse(sess.SubmissionID)
		if err != nil {
			writeError(w, s.logger, fmt.Errorf("session has a malformed submission id: %w", err))
			return
		}
		if err := s.submissions.SaveScores(r.Context(), subID, report); err != nil {
			writeError(w, s.logger, err)
			return
		}
	}

	next := sess.WithScores(report, s.now())
	if err := s.sessions.Save(r.Context(), next); err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, s.logger, http.StatusOK, ScoresView{
		SubmissionID: sess.SubmissionID,
		Report:       report,
		Markdown:     rendering.MaturityMarkdown(report),
	})
}

// handleSessionReport downloads the session's maturity report.
func (s *Server) handleSessionReport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if sess.Scores == nil {
		writeError(w, s.logger, &ErrValidation{Field: "scores", Message: "compute the maturity scores first"})
		return
	}
	s.download(w, r, s.reportDocument(*sess.Scores))
}

// handleSessionResponses downloads the stored answers of the session's submission.
func (s *Server) handleSessionResponses(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if sess.SubmissionID == "" {
		writeError(w, s.logger, &survey.ErrStepOrder{Action: "download responses", Want: survey.StepAnalytics, Got: sess.Step})
		return
	}
	sub, err := s.submission(r.Context(), sess.SubmissionID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.download(w, r, responsesDocument(*sub))
}

func (s *Server) reportDocument(report types.MaturityReport) rendering.Document {
	return rendering.Document{
		Title:    rendering.ReportTitle,
		Markdown: rendering.FullReportMarkdown(report, s.nextSteps),
		Filename: rendering.ReportFilename(s.now()),
	}
}

func responsesDocument(sub types.Submission) rendering.Document {
	return rendering.Document{
		Title:    rendering.ResponsesTitle,
		Markdown: rendering.ResponsesMarkdown(sub),
		Filename: rendering.ResponsesFilename,
	}
}

// download exports doc in the ?format= format (markdown by default) as an attachment.
func (s *Server) download(w http.ResponseWriter, r *http.Request, doc rendering.Document) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(rendering.FormatMarkdown)
	}
	format, err := rendering.ParseFormat(name)
	if err != nil {
		writeError(w, s.logger, &ErrValidation{Field: "format", Message: err.Error()})
		return
	}

	data, err := s.exporter.Export(r.Context(), doc, format)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendering.WithExtension(doc.Filename, format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write download", zap.Error(err))
	}
}
