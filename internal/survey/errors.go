package survey

import (
	"fmt"
	"strings"
)

// ErrStepOrder indicates an action was attempted in the wrong wizard step.
type ErrStepOrder struct {
	Action string
	Want   Step
	Got    Step
}

func (e *ErrStepOrder) Error() string {
	return fmt.Sprintf("cannot %s during %s (requires %s)", e.Action, e.Got, e.Want)
}

// ErrMissingRequired lists required questions that are unanswered.
type ErrMissingRequired struct {
	IDs []string
}

func (e *ErrMissingRequired) Error() string {
	return "please answer all required questions: " + strings.Join(e.IDs, ", ")
}

// ErrBlankAnswer indicates the current deep-dive answer is empty.
type ErrBlankAnswer struct {
	Index int
}

func (e *ErrBlankAnswer) Error() string {
	return fmt.Sprintf("deep-dive question %d needs an answer before continuing", e.Index+1)
}

// ErrInvalidAnswer indicates a value that does not fit its question.
type ErrInvalidAnswer struct {
	QuestionID string
	Reason     string
}

func (e *ErrInvalidAnswer) Error() string {
	return fmt.Sprintf("invalid answer for %s: %s", e.QuestionID, e.Reason)
}

// ErrUnknownQuestion indicates a question ID that is not part of the session.
type ErrUnknownQuestion struct {
	ID string
}

func (e *ErrUnknownQuestion) Error() string {
	return fmt.Sprintf("unknown question: %s", e.ID)
}

// ErrNavigation indicates a move past either end of a wizard section.
type ErrNavigation struct {
	Message string
}

func (e *ErrNavigation) Error() string {
	return e.Message
}

// ErrIncomplete indicates submission before the earlier sections were completed.
type ErrIncomplete struct {
	Section string
}

func (e *ErrIncomplete) Error() string {
	return fmt.Sprintf("please complete %s first", e.Section)
}
