package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/cb-discovery/internal/prompts"
	"go.uber.org/zap"
)

// MaxFollowUps bounds the number of follow-ups generated per answer.
const MaxFollowUps = 5

var fallbackFollowUps = []string{
	"Which systems/APIs are involved here?",
	"How will you measure success in this area?",
	"What security or compliance constraints apply?",
	"Who owns this process end-to-end?",
	"What is the main failure mode today?",
}

var defaultQuestions = []string{
	"Please provide more details.",
	"Any metrics?",
	"Any blockers?",
	"Owners?",
	"Risks?",
}

var (
	leadingFenceRe = regexp.MustCompile("^```[a-zA-Z]*")
	junkLines      = map[string]bool{"[": true, "]": true, "ok": true, "": true, "null": true}
)

// ErrMalformedQuestion is returned when a deep-dive response is not a JSON list of one question.
var ErrMalformedQuestion = errors.New("model did not return exactly one question")

// FallbackFollowUps returns the first k deterministic follow-up questions.
func FallbackFollowUps(k int) []string {
	return head(fallbackFollowUps, k)
}

// DefaultQuestions returns the first k generic questions used when a response is unusable.
func DefaultQuestions(k int) []string {
	return head(defaultQuestions, k)
}

func head(list []string, k int) []string {
	k = max(0, min(k, len(list)))
	return append([]string(nil), list[:k]...)
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = leadingFenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
}

// ParseQuestions extracts up to k questions from a model response. It accepts
// a JSON array of strings or one question per line, ignoring entries of five
// characters or fewer, and falls back to DefaultQuestions.
func ParseQuestions(raw string, k int) []string {
	content := stripFences(raw)

	var arr []any
	if err := json.Unmarshal([]byte(content), &arr); err == nil {
		var out []string
		for _, item := range arr {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); len(s) > 5 {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return head(out, k)
		}
	}

	var lines []string
	for _, ln := range strings.Split(content, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		ln = strings.TrimSpace(strings.Trim(ln, "- •* "))
		if junkLines[ln] || len(ln) <= 5 {
			continue
		}
		lines = append(lines, ln)
	}
	if len(lines) > 0 {
		return head(lines, k)
	}
	return DefaultQuestions(k)
}

// ParseSingleQuestion extracts the one question of a deep-dive response.
func ParseSingleQuestion(raw string) (string, error) {
	array := ExtractJSONArray(CleanJSONBlock(raw))
	if array == "" {
		return "", ErrMalformedQuestion
	}
	var list []string
	if err := json.Unmarshal([]byte(array), &list); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedQuestion, err)
	}
	if len(list) != 1 || strings.TrimSpace(list[0]) == "" {
		return "", ErrMalformedQuestion
	}
	return strings.TrimSpace(list[0]), nil
}

// FollowUpGenerator produces follow-up and deep-dive questions.
type FollowUpGenerator struct {
	completer Completer
	logger    *zap.Logger
}

// NewFollowUpGenerator creates a generator backed by completer.
func NewFollowUpGenerator(completer Completer, logger *zap.Logger) *FollowUpGenerator {
	if completer == nil {
		completer = Unavailable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowUpGenerator{completer: completer, logger: logger}
}

// FollowUps returns k follow-up questions for an answer. It never fails: with
// no provider it returns the deterministic list, and on provider errors the
// generic defaults.
func (g *FollowUpGenerator) FollowUps(ctx context.Context, answer string, k int) []string {
	k = max(1, min(k, MaxFollowUps))

	prompt, err := prompts.Render(prompts.SurveyFile, "followups-user", map[string]string{
		"Answer": answer,
		"Count":  strconv.Itoa(k),
	})
	if err != nil {
		g.logger.Error("follow-up prompt unavailable", zap.Error(err))
		return FallbackFollowUps(k)
	}

	raw, err := g.completer.Generate(ctx, Request{
		System: prompts.MustGet(prompts.SurveyFile, "followups-system"),
		Prompt: prompt,
		Tier:   TierStandard,
		JSON:   true,
	})
	if err != nil {
		if IsUnavailable(err) {
			return FallbackFollowUps(k)
		}
		g.logger.Warn("follow-up generation failed; using defaults", zap.Error(err))
		return DefaultQuestions(k)
	}
	return ParseQuestions(raw, k)
}

// NextQuestion generates the deep-dive question for step from the previous
// answer. With no provider the deterministic list is cycled by step.
func (g *FollowUpGenerator) NextQuestion(ctx context.Context, step int, previousAnswer string) (string, error) {
	prompt, err := prompts.Render(prompts.SurveyFile, "deep-dive-user", map[string]string{"Answer": previousAnswer})
	if err != nil {
		return "", err
	}

	raw, err := g.completer.Generate(ctx, Request{
		System: prompts.MustGet(prompts.SurveyFile, "deep-dive-system"),
		Prompt: prompt,
		Tier:   TierLite,
		JSON:   true,
	})
	if err != nil {
		if IsUnavailable(err) {
			return fallbackFollowUps[(max(step, 1)-1)%len(fallbackFollowUps)], nil
		}
		return "", err
	}

	q, err := ParseSingleQuestion(raw)
	if err != nil {
		g.logger.Warn("unusable deep-dive response", zap.Int("step", step), zap.String("raw", raw))
		return "", err
	}
	return q, nil
}
