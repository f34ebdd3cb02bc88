package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cb-discovery/internal/types"
)

const sampleSubmission = `{
  "org": {"name": "Acme Bank", "contact": "ops@acme.test"},
  "answers": {
    "fixed": [
      {"id": "Q1", "question": "What is the goal?", "answer": "Secure card services with audit logging and monitoring", "type": "text"},
      {"id": "Q2", "question": "Which use cases?", "answer": ["Card services", "Fund transfer"], "type": "multiselect"}
    ],
    "section2": [{"question": "What is your goal in this POC?", "answer": "Reduce call volume by 30%", "step": 1}]
  },
  "status": "submitted",
  "submitted_by": "jane",
  "role": "User"
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadSubmission(t *testing.T) {
	sub, err := readSubmission(writeFile(t, "sub.json", sampleSubmission))
	require.NoError(t, err)
	assert.Equal(t, "Acme Bank", sub.Org.Name)
	assert.Len(t, sub.Answers.Fixed, 2)

	bare, err := readSubmission(writeFile(t, "answers.json", `{"fixed": [{"question": "Q", "answer": "A"}]}`))
	require.NoError(t, err)
	assert.Len(t, bare.Answers.Fixed, 1)

	_, err = readSubmission(writeFile(t, "bad.json", `[1, 2]`))
	assert.Error(t, err)

	_, err = readSubmission(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestScoreCommand_JSON(t *testing.T) {
	path := writeFile(t, "sub.json", sampleSubmission)

	out, err := execute(t, "score", path, "--format", "json", "--summary=true")
	require.NoError(t, err)

	var payload struct {
		Report  types.MaturityReport `json:"report"`
		Summary map[string]any       `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.NotEmpty(t, payload.Report.Pillars)
	assert.Contains(t, payload.Summary, "executive_summary")
}

func TestScoreCommand_Markdown(t *testing.T) {
	path := writeFile(t, "sub.json", sampleSubmission)

	out, err := execute(t, "score", path, "--format", "markdown", "--summary=false")
	require.NoError(t, err)
	assert.Contains(t, out, "## Summary Scores")
	assert.Contains(t, out, "**Overall:**")
}

func TestScoreCommand_Text(t *testing.T) {
	path := writeFile(t, "sub.json", sampleSubmission)

	out, err := execute(t, "score", path, "--format", "text", "--summary=false")
	require.NoError(t, err)
	assert.Contains(t, out, "┌")
}

func TestScoreCommand_BadFormat(t *testing.T) {
	path := writeFile(t, "sub.json", sampleSubmission)
	_, err := execute(t, "score", path, "--format", "yaml", "--summary=false")
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	path := writeFile(t, "sub.json", sampleSubmission)
	outDir := t.TempDir()

	out, err := execute(t, "render", path, "--doc", "responses", "--format", "html", "--out", outDir)
	require.NoError(t, err)
	written := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(outDir, "CB_Survey_Responses.html"), written)

	data, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Acme Bank")

	out, err = execute(t, "render", path, "--doc", "report", "--format", "md", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(strings.TrimSpace(out)), "CB_Discovery_Report_")
}

func TestRenderDocument(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	stored := types.MaturityReport{Pillars: []types.PillarScore{{Name: "Business", Score: 7, Stage: types.StageDeveloping}}, Overall: 7}

	doc, err := renderDocument(types.Submission{Scores: &stored}, docReport, now)
	require.NoError(t, err)
	assert.Equal(t, "CB_Discovery_Report_20240301_093000", doc.Filename)
	assert.Contains(t, doc.Markdown, "**Overall:** 7")

	_, err = renderDocument(types.Submission{}, "invoice", now)
	assert.Error(t, err)
}

func TestQuestionsCommand(t *testing.T) {
	out, err := execute(t, "questions", "--test-mode=true", "--catalog", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Q1")
	assert.NotContains(t, out, "Q4 ")
	assert.Contains(t, out, "3 of 12 questions valid")

	_, err = execute(t, "questions", "--test-mode=false", "--catalog", writeFile(t, "bad.json", `{"not": "a list"}`))
	assert.Error(t, err)
}

func TestMigrateCommand_List(t *testing.T) {
	out, err := execute(t, "migrate", "--list=true")
	require.NoError(t, err)
	assert.Contains(t, out, "001_submissions.sql")
}
