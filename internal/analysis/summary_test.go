package analysis

import (
	"testing"

	"github.com/jonathan/cb-discovery/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnswers() types.Answers {
	return types.Answers{
		Fixed: []types.AnswerRecord{
			{ID: "1", Question: "Goals?", Answer: "Improve growth and reduce risk"},
			{ID: "2", Question: "Journeys?", Answer: []string{"Onboarding", "Card services"}},
			{ID: "3", Question: "Languages?", Answer: "no"},
			{ID: "4", Answer: nil},
		},
		Open: []types.OpenBlock{{
			Prompt: "Blockers?",
			Answer: "Legacy middleware is a blocker",
			FollowUps: []types.FollowUp{
				{Question: "Owner?", Answer: "ops team"},
				{Question: "When?", Answer: " "},
			},
		}},
		Section2: []types.DeepDiveEntry{
			{Question: "What is your goal in this POC?", Answer: "Improve containment", Step: 1},
		},
	}
}

func TestSummarize_Completion(t *testing.T) {
	s := Summarize(sampleAnswers())

	assert.Equal(t, Completion{Answered: 2, Missing: 2}, s.Fixed)
	assert.Equal(t, []string{"Languages?", "Q4"}, s.MissingFixed)
	assert.Equal(t, Completion{Answered: 2, Missing: 0}, s.Open)
	assert.Equal(t, Completion{Answered: 1, Missing: 1}, s.FollowUps)
	assert.Equal(t, 2, s.FollowUps.Total())
}

func TestSummarize_Extremes(t *testing.T) {
	s := Summarize(sampleAnswers())

	// Equal-length answers: the first one wins
	assert.Equal(t, "Improve growth and reduce risk", s.Longest)
	assert.Equal(t, "no", s.Shortest)

	empty := Summarize(types.Answers{})
	assert.Empty(t, empty.Longest)
	assert.Empty(t, empty.Shortest)
}

func TestSummarize_KeywordsAndSentiment(t *testing.T) {
	s := Summarize(sampleAnswers())

	require.Len(t, s.TopKeywords, TopKeywordCount)
	assert.Equal(t, WordCount{Word: "improve", Count: 2}, s.TopKeywords[0])
	assert.Equal(t, []string{"growth", "reduce", "risk", "onboarding"}, []string{
		s.TopKeywords[1].Word, s.TopKeywords[2].Word, s.TopKeywords[3].Word, s.TopKeywords[4].Word,
	})
	assert.Equal(t, 3, s.Positive)
	assert.Equal(t, 2, s.Negative)
}

func TestSummarize_SafetyExcludesFollowUps(t *testing.T) {
	a := sampleAnswers()
	a.Open[0].FollowUps = append(a.Open[0].FollowUps, types.FollowUp{Question: "Controls?", Answer: "privacy security compliance"})

	s := Summarize(a)
	assert.Equal(t, 4, s.Safety.Score)
	assert.Equal(t, types.SafetyBelow, s.Safety.Verdict)
}

func TestSummarize_Radar(t *testing.T) {
	s := Summarize(sampleAnswers())
	assert.Len(t, s.Radar, 7)

	a := sampleAnswers()
	a.PillarScores = []int{1, 2, 3, 4, 5, 6, 7}
	s = Summarize(a)
	for i, p := range s.Radar {
		assert.Equal(t, i+1, p.Score, p.Pillar)
	}
}

func TestSummarize_Text(t *testing.T) {
	s := Summarize(sampleAnswers())

	assert.Contains(t, s.ExecutiveSummary, "AI Safety Score: 4/20")
	assert.Contains(t, s.ExecutiveSummary, "Positive Indicators: 3")
	assert.Contains(t, s.ExecutiveSummary, "Risk Indicators: 2")
	assert.Contains(t, s.ExecutiveSummary, "Most Common Topics: improve, growth, reduce")

	assert.Equal(t,
		"Safety Score: 4/20, Top Keywords: improve (2), growth (1), reduce (1), risk (1), onboarding (1), Positive Sentiment: 3, Negative Sentiment: 2",
		s.Line())

	assert.Contains(t, Summarize(types.Answers{}).ExecutiveSummary, "Most Common Topics: N/A")
	assert.Len(t, s.RedTeamPrompts, 5)
}

func TestLanguage(t *testing.T) {
	m := Language("the api is secure. data platform! really?")

	assert.Equal(t, 7, m.TotalWords)
	assert.Equal(t, 7, m.UniqueWords)
	assert.InDelta(t, 100.0, m.Complexity, 0.001)
	assert.InDelta(t, 32.0/7.0, m.AvgWordLength, 0.001)
	assert.Equal(t, "STANDARD", m.Depth)
	assert.Equal(t, 3, m.Sentences)
	assert.Equal(t, "CONCISE", m.Readability)
	assert.Equal(t, 3, m.TechTerms)
	assert.Equal(t, 0, m.BusinessTerms)
	assert.Equal(t, "DEVELOPING", m.Expertise)
}

func TestLanguage_Labels(t *testing.T) {
	m := Language("infrastructure architecture")
	assert.Equal(t, "EXPERT", m.Depth)

	m = Language("abcdef abcdef")
	assert.Equal(t, "ADVANCED", m.Depth)
	assert.InDelta(t, 50.0, m.Complexity, 0.001)

	empty := Language("")
	assert.Zero(t, empty.TotalWords)
	assert.Zero(t, empty.Complexity)
	assert.Equal(t, "STANDARD", empty.Depth)
}
