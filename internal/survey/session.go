package survey

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cb-discovery/internal/types"
)

// Step is a stage of the survey wizard.
type Step int

// Wizard steps in order
const (
	StepFixed Step = iota
	StepDeepDive
	StepSubmit
	StepAnalytics
)

func (s Step) String() string {
	switch s {
	case StepFixed:
		return "fixed questions"
	case StepDeepDive:
		return "deep dive"
	case StepSubmit:
		return "submit"
	case StepAnalytics:
		return "analytics"
	default:
		return fmt.Sprintf("step %d", int(s))
	}
}

// Deep-dive section limits
const (
	DeepDiveOpening   = "What is your goal in this POC?"
	DeepDiveQuestions = 5
)

// QuestionGenerator produces the deep-dive question for step (1-based) from the previous answer.
type QuestionGenerator interface {
	NextQuestion(ctx context.Context, step int, previousAnswer string) (string, error)
}

// Session is the serializable state of one user's pass through the wizard.
// Transitions never modify the receiver; they return an updated copy.
type Session struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Role     types.Role `json:"role"`
	TestMode bool       `json:"test_mode"`
	Step     Step       `json:"step"`

	FixedIndex   int                  `json:"fixed_index"`
	FixedAnswers map[string]any       `json:"fixed_answers,omitempty"`
	Fixed        []types.AnswerRecord `json:"fixed,omitempty"`

	DeepDiveQuestions []string `json:"deep_dive_questions,omitempty"`
	DeepDiveAnswers   []string `json:"deep_dive_answers,omitempty"`
	DeepDiveIndex     int      `json:"deep_dive_index"`

	OrgName string `json:"org_name,omitempty"`
	Contact string `json:"contact,omitempty"`

	SubmissionID string                `json:"submission_id,omitempty"`
	Scores       *types.MaturityReport `json:"scores,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the number of stored writes this copy was loaded at.
	// Stores bump it on save and reject copies that are behind.
	Version int64 `json:"version"`
}

// NewSession starts a wizard at the first fixed question.
func NewSession(id, username string, role types.Role, testMode bool, now time.Time) Session {
	return Session{
		ID:           id,
		Username:     strings.TrimSpace(username),
		Role:         role,
		TestMode:     testMode,
		Step:         StepFixed,
		FixedAnswers: map[string]any{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	return s.clone()
}

func (s Session) clone() Session {
	out := s
	out.FixedAnswers = maps.Clone(s.FixedAnswers)
	if out.FixedAnswers == nil {
		out.FixedAnswers = map[string]any{}
	}
	out.Fixed = append([]types.AnswerRecord(nil), s.Fixed...)
	out.DeepDiveQuestions = append([]string(nil), s.DeepDiveQuestions...)
	out.DeepDiveAnswers = append([]string(nil), s.DeepDiveAnswers...)
	if s.Scores != nil {
		scores := *s.Scores
		scores.Pillars = append([]types.PillarScore(nil), s.Scores.Pillars...)
		out.Scores = &scores
	}
	return out
}

func (s Session) require(action string, want Step) error {
	if s.Step != want {
		return &ErrStepOrder{Action: action, Want: want, Got: s.Step}
	}
	return nil
}

// Step1Complete reports whether the fixed questions were captured.
func (s Session) Step1Complete() bool { return s.Step > StepFixed }

// Step2Complete reports whether the deep dive was finished.
func (s Session) Step2Complete() bool { return s.Step > StepDeepDive }

// Step3Complete reports whether the survey was submitted.
func (s Session) Step3Complete() bool { return s.Step > StepSubmit }

// CurrentQuestion returns the fixed question the wizard is positioned on.
func (s Session) CurrentQuestion(c *Catalog) (types.Question, error) {
	if err := s.require("show a fixed question", StepFixed); err != nil {
		return types.Question{}, err
	}
	qs := c.ForMode(s.TestMode)
	if s.FixedIndex < 0 || s.FixedIndex >= len(qs) {
		return types.Question{}, &ErrNavigation{Message: "no question at the current position"}
	}
	return qs[s.FixedIndex], nil
}

// Progress returns how many session questions have a non-empty answer.
func (s Session) Progress(c *Catalog) (answered, total int) {
	qs := c.ForMode(s.TestMode)
	for _, q := range qs {
		if !answerMissing(q, s.FixedAnswers[q.ID]) {
			answered++
		}
	}
	return answered, len(qs)
}

// AnswerFixed records the answer to a fixed question of the session.
func (s Session) AnswerFixed(c *Catalog, questionID string, raw any, other string, now time.Time) (Session, error) {
	if err := s.require("answer a fixed question", StepFixed); err != nil {
		return s, err
	}
	q, ok := findQuestion(c.ForMode(s.TestMode), questionID)
	if !ok {
		return s, &ErrUnknownQuestion{ID: questionID}
	}
	value, err := NormalizeAnswer(q, raw, other)
	if err != nil {
		return s, err
	}
	out := s.clone()
	out.FixedAnswers[q.ID] = value
	out.UpdatedAt = now
	return out, nil
}

// NextFixed moves to the next fixed question.
func (s Session) NextFixed(c *Catalog, now time.Time) (Session, error) {
	if err := s.require("move to the next question", StepFixed); err != nil {
		return s, err
	}
	if s.FixedIndex >= len(c.ForMode(s.TestMode))-1 {
		return s, &ErrNavigation{Message: "already at the last fixed question"}
	}
	out := s.clone()
	out.FixedIndex++
	out.UpdatedAt = now
	return out, nil
}

// BackFixed moves to the previous fixed question.
func (s Session) BackFixed(now time.Time) (Session, error) {
	if err := s.require("move to the previous question", StepFixed); err != nil {
		return s, err
	}
	if s.FixedIndex == 0 {
		return s, &ErrNavigation{Message: "already at the first fixed question"}
	}
	out := s.clone()
	out.FixedIndex--
	out.UpdatedAt = now
	return out, nil
}

// FinishFixed validates required answers, captures the fixed answer records
// and opens the deep dive.
func (s Session) FinishFixed(c *Catalog, now time.Time) (Session, error) {
	if err := s.require("finish the fixed questions", StepFixed); err != nil {
		return s, err
	}
	qs := c.ForMode(s.TestMode)
	if missing := ValidateRequired(qs, s.FixedAnswers); len(missing) > 0 {
		return s, &ErrMissingRequired{IDs: missing}
	}

	out := s.clone()
	out.Fixed = make([]types.AnswerRecord, 0, len(qs))
	for _, q := range qs {
		out.Fixed = append(out.Fixed, types.AnswerRecord{
			ID:       q.ID,
			Question: q.Text,
			Answer:   s.FixedAnswers[q.ID],
			Pillar:   q.Pillar,
			Category: q.Category,
			Type:     q.Type,
			Required: q.Required,
		})
	}
	out.FixedAnswers = map[string]any{}
	out.Step = StepDeepDive
	out.DeepDiveQuestions = []string{DeepDiveOpening}
	out.DeepDiveAnswers = []string{""}
	out.DeepDiveIndex = 0
	out.UpdatedAt = now
	return out, nil
}

// CurrentDeepDive returns the deep-dive question and answer at the current position.
func (s Session) CurrentDeepDive() (question, answer string, err error) {
	if err := s.require("show a deep-dive question", StepDeepDive); err != nil {
		return "", "", err
	}
	return s.DeepDiveQuestions[s.DeepDiveIndex], s.DeepDiveAnswers[s.DeepDiveIndex], nil
}

// AnswerDeepDive records the answer to the current deep-dive question.
func (s Session) AnswerDeepDive(text string, now time.Time) (Session, error) {
	if err := s.require("answer a deep-dive question", StepDeepDive); err != nil {
		return s, err
	}
	out := s.clone()
	out.DeepDiveAnswers[out.DeepDiveIndex] = text
	out.UpdatedAt = now
	return out, nil
}

// AdvanceDeepDive moves to the next deep-dive question, asking gen for a new
// one when the wizard is at the newest question.
func (s Session) AdvanceDeepDive(ctx context.Context, gen QuestionGenerator, now time.Time) (Session, error) {
	if err := s.require("advance the deep dive", StepDeepDive); err != nil {
		return s, err
	}
	if s.DeepDiveIndex >= DeepDiveQuestions-1 {
		return s, &ErrNavigation{Message: "deep dive is at its last question; finish the section instead"}
	}
	answer := s.DeepDiveAnswers[s.DeepDiveIndex]
	if strings.TrimSpace(answer) == "" {
		return s, &ErrBlankAnswer{Index: s.DeepDiveIndex}
	}

	out := s.clone()
	if out.DeepDiveIndex+1 < len(out.DeepDiveQuestions) {
		out.DeepDiveIndex++
		out.UpdatedAt = now
		return out, nil
	}

	next, err := gen.NextQuestion(ctx, out.DeepDiveIndex+2, answer)
	if err != nil {
		return s, fmt.Errorf("failed to generate follow-up question: %w", err)
	}
	out.DeepDiveQuestions = append(out.DeepDiveQuestions, next)
	out.DeepDiveAnswers = append(out.DeepDiveAnswers, "")
	out.DeepDiveIndex++
	out.UpdatedAt = now
	return out, nil
}

// BackDeepDive moves to the previous deep-dive question.
func (s Session) BackDeepDive(now time.Time) (Session, error) {
	if err := s.require("go back in the deep dive", StepDeepDive); err != nil {
		return s, err
	}
	if s.DeepDiveIndex == 0 {
		return s, &ErrNavigation{Message: "already at the first deep-dive question"}
	}
	out := s.clone()
	out.DeepDiveIndex--
	out.UpdatedAt = now
	return out, nil
}

// FinishDeepDive closes the deep dive once the last question is answered.
func (s Session) FinishDeepDive(now time.Time) (Session, error) {
	if err := s.require("finish the deep dive", StepDeepDive); err != nil {
		return s, err
	}
	if s.DeepDiveIndex != DeepDiveQuestions-1 {
		return s, &ErrNavigation{Message: fmt.Sprintf("answer all %d deep-dive questions before finishing", DeepDiveQuestions)}
	}
	if strings.TrimSpace(s.DeepDiveAnswers[s.DeepDiveIndex]) == "" {
		return s, &ErrBlankAnswer{Index: s.DeepDiveIndex}
	}
	out := s.clone()
	out.Step = StepSubmit
	out.UpdatedAt = now
	return out, nil
}

// SetOrganization records the optional organization details of step 3.
func (s Session) SetOrganization(name, contact string, now time.Time) (Session, error) {
	if err := s.require("set organization details", StepSubmit); err != nil {
		return s, err
	}
	out := s.clone()
	out.OrgName = strings.TrimSpace(name)
	out.Contact = strings.TrimSpace(contact)
	out.UpdatedAt = now
	return out, nil
}

// Submit builds the submission document and moves the session to analytics.
func (s Session) Submit(id uuid.UUID, now time.Time) (types.Submission, Session, error) {
	if err := s.require("submit", StepSubmit); err != nil {
		return types.Submission{}, s, err
	}
	if len(s.Fixed) == 0 {
		return types.Submission{}, s, &ErrIncomplete{Section: "Step 1 (Fixed Questions)"}
	}
	entries := s.DeepDiveEntries()
	if len(entries) == 0 {
		return types.Submission{}, s, &ErrIncomplete{Section: "Step 2 (Open-Ended Questions)"}
	}

	sub := types.Submission{
		ID:          id,
		Org:         types.Org{Name: s.OrgName, Contact: s.Contact},
		Answers:     types.Answers{Fixed: append([]types.AnswerRecord(nil), s.Fixed...), Section2: entries},
		Status:      types.StatusSubmitted,
		SubmittedBy: s.Username,
		Role:        s.Role,
		CreatedAt:   now.UTC(),
		SubmittedAt: now,
	}

	out := s.clone()
	out.SubmissionID = id.String()
	out.Step = StepAnalytics
	out.UpdatedAt = now
	return sub, out, nil
}

// submissionNamespace scopes session-derived submission IDs.
var submissionNamespace = uuid.MustParse("6f1c2e7a-4b8d-5e3f-9a21-c0d4b7e85a16")

// SubmissionKey is the ID this session submits under. It depends only on the
// session ID, so a retried submit writes the same submission.
func (s Session) SubmissionKey() uuid.UUID {
	return uuid.NewSHA1(submissionNamespace, []byte(s.ID))
}

// DeepDiveEntries returns the answered deep-dive questions numbered from 1.
func (s Session) DeepDiveEntries() []types.DeepDiveEntry {
	var entries []types.DeepDiveEntry
	for i, q := range s.DeepDiveQuestions {
		if i >= len(s.DeepDiveAnswers) {
			break
		}
		a := s.DeepDiveAnswers[i]
		if q == "" || strings.TrimSpace(a) == "" {
			continue
		}
		entries = append(entries, types.DeepDiveEntry{Question: q, Answer: a, Step: i + 1})
	}
	return entries
}

// WithScores attaches a computed maturity report.
func (s Session) WithScores(report types.MaturityReport, now time.Time) Session {
	out := s.clone()
	out.Scores = &report
	out.UpdatedAt = now
	return out
}

func findQuestion(qs []types.Question, id string) (types.Question, bool) {
	for _, q := range qs {
		if q.ID == id {
			return q, true
		}
	}
	return types.Question{}, false
}
