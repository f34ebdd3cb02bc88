package scoring

import (
	"math/rand"
	"net/url"
	"strings"
	"testing"

	"github.com/jonathan/cb-discovery/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textAnswer(s string) types.AnswerRecord {
	return types.AnswerRecord{Question: "q", Answer: s, Type: types.QuestionText}
}

func pillarScore(t *testing.T, r types.MaturityReport, name string) types.PillarScore {
	t.Helper()
	for _, p := range r.Pillars {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("pillar %q not in report", name)
	return types.PillarScore{}
}

func TestScore_EmptyInput(t *testing.T) {
	report := Score(nil, nil)

	require.Len(t, report.Pillars, 7)
	for _, p := range report.Pillars {
		assert.Equal(t, 1, p.Score, p.Name)
		assert.Equal(t, types.StageNascent, p.Stage, p.Name)
	}
	assert.Equal(t, 7, report.Overall)
}

func TestScore_PillarOrder(t *testing.T) {
	report := Score([]types.AnswerRecord{textAnswer("anything")}, nil)

	names := make([]string, len(report.Pillars))
	for i, p := range report.Pillars {
		names[i] = p.Name
	}
	assert.Equal(t, PillarNames(), names)
	assert.Equal(t, PillarBusiness, names[0])
	assert.Equal(t, PillarValidation, names[6])
}

func TestScore_TechnologyScenario(t *testing.T) {
	answers := []types.AnswerRecord{textAnswer("api"), textAnswer("sso"), textAnswer("otp")}

	report := Score(answers, nil)

	tech := pillarScore(t, report, PillarTechnology)
	assert.Equal(t, 7, tech.Score)
	assert.Equal(t, types.StageEmerging, tech.Stage)
	for _, p := range report.Pillars {
		if p.Name == PillarTechnology {
			continue
		}
		assert.Equal(t, 1, p.Score, p.Name)
		assert.Equal(t, types.StageNascent, p.Stage, p.Name)
	}
	assert.Equal(t, 13, report.Overall)
}

func TestScore_FollowUpsContribute(t *testing.T) {
	followups := []types.FollowUp{{Question: "Which channels?", Answer: "WhatsApp and IVR"}}

	report := Score(nil, followups)

	assert.Equal(t, 5, pillarScore(t, report, PillarTechnology).Score)
}

func TestScore_Deterministic(t *testing.T) {
	answers := []types.AnswerRecord{
		textAnswer("We track CSAT and NPS across the omni-channel journey"),
		{Question: "Channels", Answer: []any{"WhatsApp", "Web"}, Type: types.QuestionMultiSelect},
		{Question: "Readiness", Answer: 4, Type: types.QuestionLikert},
	}
	followups := []types.FollowUp{{Answer: "Red-team evaluation before sign-off"}}

	first := Score(answers, followups)
	second := Score(answers, followups)

	assert.Equal(t, first, second)
}

func TestScore_CaseInsensitive(t *testing.T) {
	upper := Score([]types.AnswerRecord{textAnswer("MIDDLEWARE SSO")}, nil)
	lower := Score([]types.AnswerRecord{textAnswer("middleware sso")}, nil)

	assert.Equal(t, lower, upper)
	assert.Equal(t, SafetyRule().Hits(BuildCorpus([]types.AnswerRecord{textAnswer("RISK")}, nil)),
		SafetyRule().Hits(BuildCorpus([]types.AnswerRecord{textAnswer("risk")}, nil)))
}

func TestScore_ListFlattening(t *testing.T) {
	tests := []struct {
		name   string
		answer any
	}{
		{"string slice", []string{"Others: fraud", "bias"}},
		{"decoded JSON list", []any{"Others: fraud", "bias"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Score([]types.AnswerRecord{{Question: "Concerns", Answer: tt.answer, Type: types.QuestionMultiSelect}}, nil)

			assert.Equal(t, 3, pillarScore(t, report, PillarRisk).Score)
		})
	}
}

func TestScore_KeywordCountedOnce(t *testing.T) {
	report := Score([]types.AnswerRecord{textAnswer("api api api API")}, nil)

	assert.Equal(t, 3, pillarScore(t, report, PillarTechnology).Score)
}

func TestScore_SubstringMatch(t *testing.T) {
	// "ha" is an infrastructure keyword and matches inside "chat".
	report := Score([]types.AnswerRecord{textAnswer("chat")}, nil)

	assert.Equal(t, 3, pillarScore(t, report, PillarInfrastructure).Score)
}

func TestScore_Saturation(t *testing.T) {
	for _, p := range Pillars() {
		t.Run(p.Name, func(t *testing.T) {
			report := Score([]types.AnswerRecord{textAnswer(strings.Join(p.Keywords, " "))}, nil)

			want := min(1+2*len(p.Keywords), 20)
			assert.Equal(t, want, pillarScore(t, report, p.Name).Score)
		})
	}

	infra := Pillars()[4]
	require.GreaterOrEqual(t, len(infra.Keywords), 10)
	report := Score([]types.AnswerRecord{textAnswer(strings.Join(infra.Keywords, " "))}, nil)
	assert.Equal(t, 20, pillarScore(t, report, PillarInfrastructure).Score)
	assert.Equal(t, types.StageLeading, pillarScore(t, report, PillarInfrastructure).Stage)
}

func TestScore_NilStringerAnswer(t *testing.T) {
	answers := []types.AnswerRecord{
		{ID: "1", Answer: (*url.URL)(nil)},
		{ID: "2", Answer: []any{(*url.URL)(nil), "api"}},
	}

	var report types.MaturityReport
	require.NotPanics(t, func() { report = Score(answers, nil) })
	assert.Equal(t, 3, pillarScore(t, report, PillarTechnology).Score)
}

func TestScore_Bounds(t *testing.T) {
	var vocab []string
	for _, p := range Pillars() {
		vocab = append(vocab, p.Keywords...)
	}
	vocab = append(vocab, "bank", "customer", "", "Others: x")

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rng.Intn(40)
		words := make([]string, n)
		for j := range words {
			words[j] = vocab[rng.Intn(len(vocab))]
		}

		report := Score([]types.AnswerRecord{textAnswer(strings.Join(words, " "))}, nil)

		require.Len(t, report.Pillars, 7)
		sum := 0
		for _, p := range report.Pillars {
			assert.GreaterOrEqual(t, p.Score, 1)
			assert.LessOrEqual(t, p.Score, 20)
			assert.Equal(t, StageFor(p.Score), p.Stage)
			sum += p.Score
		}
		assert.Equal(t, sum, report.Overall)
		assert.GreaterOrEqual(t, report.Overall, 7)
		assert.LessOrEqual(t, report.Overall, 140)
	}
}

func TestScoreSubmission(t *testing.T) {
	answers := types.Answers{
		Fixed: []types.AnswerRecord{textAnswer("api")},
		Section2: []types.DeepDiveEntry{
			{Question: "What is your goal in this POC?", Answer: "SSO for the app", Step: 1},
		},
		Open: []types.OpenBlock{
			{Prompt: "Auth", Answer: "", FollowUps: []types.FollowUp{{Question: "How?", Answer: "otp"}}},
		},
	}

	report := ScoreSubmission(answers)

	assert.Equal(t, 7, pillarScore(t, report, PillarTechnology).Score)
}
