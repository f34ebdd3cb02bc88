package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cb-discovery/internal/types"
)

func TestFilterNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        Filter
		wantLimit int
	}{
		{"zero uses default", Filter{}, DefaultListLimit},
		{"negative uses default", Filter{Limit: -3}, DefaultListLimit},
		{"within range kept", Filter{Limit: 25}, 25},
		{"upper bound kept", Filter{Limit: MaxListLimit}, MaxListLimit},
		{"above range clamped", Filter{Limit: 5000}, MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestFilterNormalize_Statuses(t *testing.T) {
	got := Filter{}.Normalize()
	assert.Equal(t, []types.SubmissionStatus{types.StatusSubmitted, types.StatusAnalyzed}, got.Statuses)

	got = Filter{Statuses: []types.SubmissionStatus{types.StatusAnalyzed}}.Normalize()
	assert.Equal(t, []types.SubmissionStatus{types.StatusAnalyzed}, got.Statuses)
}

func TestFilterNormalize_TrimsText(t *testing.T) {
	got := Filter{OrgContains: "  Acme ", SubmitterContains: "\tjane\n"}.Normalize()
	assert.Equal(t, "Acme", got.OrgContains)
	assert.Equal(t, "jane", got.SubmitterContains)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "acme", escapeLike("acme"))
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
}

func TestMigrations(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "migrations/001_submissions.sql", names[0])

	sql, err := migrationFiles.ReadFile(names[0])
	require.NoError(t, err)
	assert.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS submissions")
}
