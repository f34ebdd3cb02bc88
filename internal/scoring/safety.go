package scoring

import "github.com/jonathan/cb-discovery/internal/types"

// Safety posture parameters
const (
	SafetyMultiplier = 3
	SafetyBase       = 1
	SafetyCap        = 20
	// SafetyThreshold is the minimum satisfactory posture score.
	SafetyThreshold = 10
)

var safetyKeywords = []string{
	"bias", "fairness", "ethics", "content", "monitor",
	"red-team", "risk", "compliance", "security", "privacy",
}

// SafetyKeywords returns a copy of the AI safety vocabulary.
func SafetyKeywords() []string {
	return append([]string(nil), safetyKeywords...)
}

// SafetyRule is the single-pillar rule behind the AI safety posture.
func SafetyRule() Rule {
	return Rule{Keywords: safetyKeywords, Multiplier: SafetyMultiplier, Base: SafetyBase, Cap: SafetyCap}
}

// Safety scores the AI safety posture of a lowercase corpus.
func Safety(corpus string) types.SafetyPosture {
	score := SafetyRule().Score(corpus)
	verdict := types.SafetyBelow
	if score >= SafetyThreshold {
		verdict = types.SafetySatisfactory
	}
	return types.SafetyPosture{Score: score, Max: SafetyCap, Verdict: verdict}
}
