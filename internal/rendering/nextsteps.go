package rendering

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed next_steps.yaml
var defaultNextSteps []byte

// NextSteps maps a pillar name to its recommended actions.
type NextSteps map[string][]string

type nextStepsFile struct {
	NextSteps NextSteps `yaml:"next_steps"`
}

// DefaultNextSteps returns the embedded recommendations.
func DefaultNextSteps() (NextSteps, error) {
	return ParseNextSteps(defaultNextSteps)
}

// LoadNextSteps reads recommendations from a YAML file.
func LoadNextSteps(path string) (NextSteps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateError{Message: fmt.Sprintf("failed to read next steps file: %s", path), Cause: err}
	}
	return ParseNextSteps(data)
}

// ParseNextSteps parses a YAML document with a top-level next_steps map.
func ParseNextSteps(data []byte) (NextSteps, error) {
	var f nextStepsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &TemplateError{Message: "failed to parse next steps", Cause: err}
	}
	if f.NextSteps == nil {
		f.NextSteps = NextSteps{}
	}
	return f.NextSteps, nil
}

// For returns the steps for a pillar, or nil.
func (n NextSteps) For(pillar string) []string {
	return n[pillar]
}
