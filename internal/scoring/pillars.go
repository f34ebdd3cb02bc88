package scoring

import "github.com/jonathan/cb-discovery/internal/types"

// Pillar names in report order
const (
	PillarBusiness       = "Business & Strategic Alignment"
	PillarScope          = "Scope & Use Cases"
	PillarTechnology     = "Technology & Integration"
	PillarRisk           = "Risk, Governance & Operations"
	PillarInfrastructure = "Infrastructure, AI Readiness & Security"
	PillarModel          = "Model & Platform"
	PillarValidation     = "Validation & Testing"
)

// Maturity rule parameters
const (
	MaturityMultiplier = 2
	MaturityBase       = 1
	MaturityCap        = 20
)

// Pillar is a named scoring dimension with a fixed keyword set.
type Pillar struct {
	Name     string
	Keywords []string
}

// Rule returns the scoring rule for the pillar.
func (p Pillar) Rule(multiplier, base, limit int) Rule {
	return Rule{Keywords: p.Keywords, Multiplier: multiplier, Base: base, Cap: limit}
}

var maturityPillars = []Pillar{
	{PillarBusiness, []string{"kpi", "csat", "nps", "journey", "omni", "target", "conversion"}},
	{PillarScope, []string{"intent", "journey", "transfer", "transaction", "multilingual", "language"}},
	{PillarTechnology, []string{"api", "middleware", "sso", "otp", "biometric", "whatsapp", "ivr"}},
	{PillarRisk, []string{"handoff", "sla", "monitor", "feedback", "bias", "fairness", "ethics", "content"}},
	{PillarInfrastructure, []string{
		"gpu", "h100", "a100", "mlops", "databricks", "sagemaker", "vertex", "gateway", "apigee",
		"kong", "mulesoft", "prometheus", "grafana", "elastic", "dr", "ha", "sandbox",
	}},
	{PillarModel, []string{"openai", "azure", "anthropic", "cohere", "dbrx", "llama", "embedding", "fine-tune"}},
	{PillarValidation, []string{"eval", "dataset", "metrics", "red-team", "test", "qa", "sign-off", "sandbox"}},
}

// threshold pairs a minimum score with its stage, ascending.
type threshold struct {
	min   int
	stage types.Stage
}

var stageThresholds = []threshold{
	{1, types.StageNascent},
	{5, types.StageEmerging},
	{10, types.StageDeveloping},
	{15, types.StageAdvanced},
	{20, types.StageLeading},
}

// Pillars returns a copy of the maturity pillar table in report order.
func Pillars() []Pillar {
	return clonePillars(maturityPillars)
}

// PillarNames returns the pillar names in report order.
func PillarNames() []string {
	names := make([]string, len(maturityPillars))
	for i, p := range maturityPillars {
		names[i] = p.Name
	}
	return names
}

// StageFor maps a score to its stage. Thresholds are checked low to high and
// the last one met wins; scores below 1 are Nascent.
func StageFor(score int) types.Stage {
	stage := types.StageNascent
	for _, t := range stageThresholds {
		if score >= t.min {
			stage = t.stage
		}
	}
	return stage
}

func clonePillars(in []Pillar) []Pillar {
	out := make([]Pillar, len(in))
	for i, p := range in {
		out[i] = Pillar{Name: p.Name, Keywords: append([]string(nil), p.Keywords...)}
	}
	return out
}
