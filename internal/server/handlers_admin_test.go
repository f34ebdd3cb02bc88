package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cb-discovery/internal/analysis"
	"github.com/jonathan/cb-discovery/internal/llm"
	"github.com/jonathan/cb-discovery/internal/types"
)

// stubCompleter returns a fixed response for every request.
type stubCompleter struct {
	response string
}

func (c stubCompleter) Generate(context.Context, llm.Request) (string, error) {
	return c.response, nil
}

func seedSubmission(t *testing.T, env *testEnv, org, by string, createdAt time.Time) uuid.UUID {
	t.Helper()
	id, err := env.subs.CreateSubmission(context.Background(), types.Submission{
		Org: types.Org{Name: org},
		Answers: types.Answers{
			Fixed: []types.AnswerRecord{
				{ID: "Q1", Question: "What is the goal?", Answer: "Secure card services with monitoring", Type: types.QuestionText},
			},
			Section2: []types.DeepDiveEntry{{Question: "What is your goal in this POC?", Answer: "Reduce call volume", Step: 1}},
		},
		Status:      types.StatusSubmitted,
		SubmittedBy: by,
		Role:        types.RoleUser,
		CreatedAt:   createdAt,
		SubmittedAt: createdAt,
	})
	require.NoError(t, err)
	return id
}

func adminToken(t *testing.T, env *testEnv) string {
	t.Helper()
	return env.login(t, types.RoleAdmin, "root", testAdminPassword).Token
}

func TestListSubmissions(t *testing.T) {
	env := newTestEnv(t)
	tok := adminToken(t, env)
	now := time.Now().UTC()
	older := seedSubmission(t, env, "Acme Bank", "jane", now.Add(-time.Hour))
	newer := seedSubmission(t, env, "Globex Credit Union", "bob", now)

	var resp struct {
		Submissions []types.Submission `json:"submissions"`
		Count       int                `json:"count"`
	}

	rec := env.do(t, http.MethodGet, "/admin/submissions", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, newer, resp.Submissions[0].ID)
	assert.Equal(t, older, resp.Submissions[1].ID)

	rec = env.do(t, http.MethodGet, "/admin/submissions?org=acme&submitter=JA", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, older, resp.Submissions[0].ID)

	rec = env.do(t, http.MethodGet, "/admin/submissions?status=analyzed", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/admin/submissions?status=draft", tok, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/admin/submissions?limit=abc", tok, nil).Code)
}

func TestGetSubmission(t *testing.T) {
	env := newTestEnv(t)
	tok := adminToken(t, env)
	id := seedSubmission(t, env, "Acme Bank", "jane", time.Now())

	rec := env.do(t, http.MethodGet, "/admin/submissions/"+id.String(), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sub types.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "Acme Bank", sub.Org.Name)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/admin/submissions/"+uuid.NewString(), tok, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/admin/submissions/not-a-uuid", tok, nil).Code)
}

func TestSubmissionScoresAndInsights(t *testing.T) {
	env := newTestEnv(t)
	tok := adminToken(t, env)
	id := seedSubmission(t, env, "Acme Bank", "jane", time.Now())

	rec := env.do(t, http.MethodGet, "/admin/insights", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/submissions/"+id.String()+"/scores", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first ScoresView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, id.String(), first.SubmissionID)

	stored, err := env.subs.GetSubmission(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAnalyzed, stored.Status)

	// An existing report is returned as is
	rec = env.do(t, http.MethodPost, "/admin/submissions/"+id.String()+"/scores", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var second ScoresView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.Report, second.Report)

	rec = env.do(t, http.MethodGet, "/admin/insights", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var insights InsightsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insights))
	assert.Equal(t, id.String(), insights.SubmissionID)
	assert.Equal(t, "Acme Bank", insights.Org.Name)
	assert.NotEmpty(t, insights.Markdown)

	rec = env.do(t, http.MethodGet, "/admin/submissions/"+id.String()+"/report?format=txt", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".txt")

	rec = env.do(t, http.MethodGet, "/admin/submissions/"+id.String()+"/responses", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Secure card services with monitoring")
}

func TestSubmissionAnalytics(t *testing.T) {
	env := newTestEnv(t)
	tok := adminToken(t, env)
	id := seedSubmission(t, env, "Acme Bank", "jane", time.Now())

	rec := env.do(t, http.MethodGet, "/admin/submissions/"+id.String()+"/analytics", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary analysis.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Fixed.Answered)
	assert.NotEmpty(t, summary.ExecutiveSummary)
}

func TestSubmissionAnalysis_Unavailable(t *testing.T) {
	env := newTestEnv(t)
	tok := adminToken(t, env)
	id := seedSubmission(t, env, "Acme Bank", "jane", time.Now())

	rec := env.do(t, http.MethodPost, "/admin/submissions/"+id.String()+"/analysis", tok, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmissionAnalysisAndSpec(t *testing.T) {
	const output = "Consolidated analysis: the bank needs a secure card-services assistant."
	env := newTestEnv(t, func(_ *Config, d *Deps) { d.Completer = stubCompleter{response: output} })
	tok := adminToken(t, env)
	id := seedSubmission(t, env, "Acme Bank", "jane", time.Now())

	rec := env.do(t, http.MethodPost, "/admin/submissions/"+id.String()+"/analysis", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result analysis.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, output, result.Expert)
	assert.Equal(t, output, result.Discrepancies)

	rec = env.do(t, http.MethodPost, "/admin/submissions/"+id.String()+"/spec", tok, SpecRequest{Expert: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/submissions/"+id.String()+"/spec", tok, SpecRequest{Expert: result.Expert})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var spec SpecView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, output, spec.Spec)
	assert.Regexp(t, `^Functional_Spec_\d{8}_\d{6}\.md$`, spec.Filename)
}

func TestAdminRoutes_StorageDisabled(t *testing.T) {
	env := newTestEnv(t, func(_ *Config, d *Deps) { d.Submissions = nil })
	tok := adminToken(t, env)

	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/admin/submissions", tok, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/admin/insights", tok, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/admin/submissions/"+uuid.NewString(), tok, nil).Code)
}
