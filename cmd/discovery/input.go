package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/cb-discovery/internal/types"
)

// readSubmission loads a submission document from path. A bare answers
// document (with a top-level "fixed" list) is accepted too.
func readSubmission(path string) (types.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Submission{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return types.Submission{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var sub types.Submission
	if _, ok := probe["answers"]; ok {
		if err := json.Unmarshal(data, &sub); err != nil {
			return types.Submission{}, fmt.Errorf("failed to parse submission %s: %w", path, err)
		}
		return sub, nil
	}
	if err := json.Unmarshal(data, &sub.Answers); err != nil {
		return types.Submission{}, fmt.Errorf("failed to parse answers %s: %w", path, err)
	}
	return sub, nil
}
