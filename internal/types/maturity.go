package types

// Stage is a discrete maturity label derived from a pillar score.
type Stage string

// Maturity stages in ascending order
const (
	StageNascent    Stage = "Nascent"
	StageEmerging   Stage = "Emerging"
	StageDeveloping Stage = "Developing"
	StageAdvanced   Stage = "Advanced"
	StageLeading    Stage = "Leading"
)

// PillarScore is the score and stage of a single pillar.
type PillarScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Stage Stage  `json:"stage"`
}

// MaturityReport is the scored result for a set of answers.
// Overall is the sum of pillar scores.
type MaturityReport struct {
	Pillars []PillarScore `json:"pillars"`
	Overall int           `json:"overall"`
}

// SafetyVerdict is the binary outcome of the AI safety posture check.
type SafetyVerdict string

// Safety verdicts
const (
	SafetySatisfactory SafetyVerdict = "satisfactory"
	SafetyBelow        SafetyVerdict = "below recommended threshold"
)

// SafetyPosture is the single-score AI safety assessment.
type SafetyPosture struct {
	Score   int           `json:"score"`
	Max     int           `json:"max"`
	Verdict SafetyVerdict `json:"verdict"`
}

// RadarPoint is one axis of the maturity radar.
type RadarPoint struct {
	Pillar string `json:"pillar"`
	Score  int    `json:"score"`
}
