package scoring

import "github.com/jonathan/cb-discovery/internal/types"

// Score computes the maturity report for answers and follow-ups.
// It always returns one entry per pillar in report order and never fails.
func Score(answers []types.AnswerRecord, followups []types.FollowUp) types.MaturityReport {
	return ScoreCorpus(BuildCorpus(answers, followups))
}

// ScoreCorpus computes the maturity report for an already built corpus.
func ScoreCorpus(corpus string) types.MaturityReport {
	report := types.MaturityReport{Pillars: make([]types.PillarScore, 0, len(maturityPillars))}
	for _, p := range maturityPillars {
		score := p.Rule(MaturityMultiplier, MaturityBase, MaturityCap).Score(corpus)
		report.Pillars = append(report.Pillars, types.PillarScore{
			Name:  p.Name,
			Score: score,
			Stage: StageFor(score),
		})
		report.Overall += score
	}
	return report
}

// ScoreSubmission scores stored submission answers.
func ScoreSubmission(a types.Answers) types.MaturityReport {
	return Score(SubmissionInputs(a))
}
