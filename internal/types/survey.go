// Package types provides type definitions for structured data used throughout the discovery service.
package types

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType is the input kind of a survey question.
type QuestionType string

// Supported question types
const (
	QuestionText        QuestionType = "text"
	QuestionSelect      QuestionType = "select"
	QuestionMultiSelect QuestionType = "multiselect"
	QuestionLikert      QuestionType = "likert"
)

// Likert describes the range and labels of a likert-scale question.
type Likert struct {
	Min    int      `json:"min"`
	Max    int      `json:"max"`
	Labels []string `json:"labels,omitempty"`
}

// Question is one entry of the fixed-question catalog.
type Question struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Tooltip   string       `json:"tooltip,omitempty"`
	Type      QuestionType `json:"type"`
	Options   []string     `json:"options,omitempty"`
	// AutoMulti defaults to true when absent; see survey.EffectiveType.
	AutoMulti *bool        `json:"auto_multi,omitempty"`
	Likert    *Likert      `json:"likert,omitempty"`
	Pillar    string       `json:"pillar"`
	Category  string       `json:"category"`
	Required  bool         `json:"required"`
}

// AnswerRecord is a captured answer to a fixed question.
// Answer holds a string, a list of strings, a number (likert) or nil.
type AnswerRecord struct {
	ID       string       `json:"id,omitempty"`
	Question string       `json:"question"`
	Answer   any          `json:"answer"`
	Pillar   string       `json:"pillar"`
	Category string       `json:"category"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required"`
}

// FollowUp is a follow-up question and its answer nested under an open-ended block.
type FollowUp struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

// OpenBlock is an open-ended prompt with its answer and follow-ups.
type OpenBlock struct {
	Prompt    string     `json:"prompt"`
	Answer    string     `json:"answer"`
	FollowUps []FollowUp `json:"followups,omitempty"`
}

// DeepDiveEntry is one answered deep-dive question as stored with a submission.
type DeepDiveEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Step     int    `json:"step"`
}

// Answers groups every answer captured for a submission.
type Answers struct {
	Fixed    []AnswerRecord  `json:"fixed"`
	Section2 []DeepDiveEntry `json:"section2,omitempty"`
	Open     []OpenBlock     `json:"open,omitempty"`
	// PillarScores overrides radar inference when present.
	PillarScores []int `json:"pillar_scores,omitempty"`
}

// Org identifies the organization a submission was made for.
type Org struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// SubmissionStatus is the lifecycle state of a submission.
type SubmissionStatus string

// Submission statuses
const (
	StatusSubmitted SubmissionStatus = "submitted"
	StatusAnalyzed  SubmissionStatus = "analyzed"
)

// Submission is a stored survey document.
type Submission struct {
	ID          uuid.UUID        `json:"id"`
	Org         Org              `json:"org"`
	Answers     Answers          `json:"answers"`
	Scores      *MaturityReport  `json:"scores,omitempty"`
	Status      SubmissionStatus `json:"status"`
	SubmittedBy string           `json:"submitted_by"`
	Role        Role             `json:"role"`
	CreatedAt   time.Time        `json:"created_at"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

// OpenBlocks returns the open-ended content of a submission as blocks.
// Deep-dive entries are folded in as blocks without follow-ups.
func (a Answers) OpenBlocks() []OpenBlock {
	blocks := make([]OpenBlock, 0, len(a.Open)+len(a.Section2))
	blocks = append(blocks, a.Open...)
	for _, e := range a.Section2 {
		blocks = append(blocks, OpenBlock{Prompt: e.Question, Answer: e.Answer})
	}
	return blocks
}

// FollowUps returns every follow-up nested under the open blocks.
func (a Answers) FollowUps() []FollowUp {
	var out []FollowUp
	for _, b := range a.OpenBlocks() {
		out = append(out, b.FollowUps...)
	}
	return out
}
