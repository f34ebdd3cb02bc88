package scoring

import (
	"fmt"
	"strings"

	"github.com/jonathan/cb-discovery/internal/types"
)

// Stringify converts an answer value to the text it contributes to a corpus.
// Lists are flattened element by element and joined with spaces; nil is empty.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, " ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, " ")
	default:
		// fmt calls String on Stringers and prints <nil> for nil receivers.
		return fmt.Sprint(val)
	}
}

// BuildCorpus joins every answer value and follow-up answer into one lowercase string.
func BuildCorpus(answers []types.AnswerRecord, followups []types.FollowUp) string {
	parts := make([]string, 0, len(answers)+len(followups))
	for _, a := range answers {
		parts = append(parts, Stringify(a.Answer))
	}
	for _, f := range followups {
		parts = append(parts, f.Answer)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// SubmissionInputs flattens stored answers into scorer inputs.
// Open-ended and deep-dive answers are treated as follow-up answers.
func SubmissionInputs(a types.Answers) ([]types.AnswerRecord, []types.FollowUp) {
	var followups []types.FollowUp
	for _, b := range a.OpenBlocks() {
		followups = append(followups, types.FollowUp{Question: b.Prompt, Answer: b.Answer})
		followups = append(followups, b.FollowUps...)
	}
	return a.Fixed, followups
}
