package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/cb-discovery/internal/llm"
	"github.com/jonathan/cb-discovery/internal/prompts"
	"github.com/jonathan/cb-discovery/internal/scoring"
	"github.com/jonathan/cb-discovery/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Minimum usable output lengths
const (
	MinExpertLength = 10
	MinSpecLength   = 20
)

// ErrExpertRequired is returned when a functional specification is requested
// without a usable expert analysis.
var ErrExpertRequired = errors.New("expert analysis is required before generating a functional specification")

// ErrShortOutput indicates a model response too short to be useful.
type ErrShortOutput struct {
	Kind   string
	Length int
}

func (e *ErrShortOutput) Error() string {
	return fmt.Sprintf("%s output is too short (%d characters)", e.Kind, e.Length)
}

// Analysis is the combined result of Run.
type Analysis struct {
	Expert        string `json:"expert"`
	Discrepancies string `json:"discrepancies"`
}

// Analyst produces LLM-backed analyses of submissions.
type Analyst struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewAnalyst creates an analyst backed by completer.
func NewAnalyst(completer llm.Completer, logger *zap.Logger) *Analyst {
	if completer == nil {
		completer = llm.Unavailable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyst{completer: completer, logger: logger}
}

// ExpertAnalysis asks for a consolidated requirements analysis of the answers.
func (a *Analyst) ExpertAnalysis(ctx context.Context, answers types.Answers, summary Summary) (string, error) {
	questions, replies := surveyLists(answers)
	prompt, err := prompts.Render(prompts.AnalysisFile, "expert-analysis", map[string]string{
		"Questions": questions,
		"Answers":   replies,
		"Summary":   summary.Line(),
	})
	if err != nil {
		return "", err
	}

	out, err := a.completer.Generate(ctx, llm.Request{Prompt: prompt, Tier: llm.TierAdvanced})
	if err != nil {
		return "", fmt.Errorf("expert analysis failed: %w", err)
	}
	out = strings.TrimSpace(out)
	if len(out) < MinExpertLength {
		return "", &ErrShortOutput{Kind: "expert analysis", Length: len(out)}
	}
	return out, nil
}

// FunctionalSpec drafts a functional specification from a prior expert analysis.
func (a *Analyst) FunctionalSpec(ctx context.Context, answers types.Answers, expert string) (string, error) {
	expert = strings.TrimSpace(expert)
	if len(expert) < MinExpertLength {
		return "", ErrExpertRequired
	}

	questions, replies := fixedLists(answers.Fixed)
	openQuestions, openAnswers := openLists(answers.OpenBlocks())
	prompt, err := prompts.Render(prompts.AnalysisFile, "functional-spec", map[string]string{
		"Expert":        expert,
		"Questions":     questions,
		"Answers":       replies,
		"OpenQuestions": openQuestions,
		"OpenAnswers":   openAnswers,
	})
	if err != nil {
		return "", err
	}

	out, err := a.completer.Generate(ctx, llm.Request{
		System: prompts.MustGet(prompts.AnalysisFile, "functional-spec-system"),
		Prompt: prompt,
		Tier:   llm.TierAdvanced,
	})
	if err != nil {
		return "", fmt.Errorf("functional specification failed: %w", err)
	}
	out = strings.TrimSpace(out)
	if len(out) < MinSpecLength {
		return "", &ErrShortOutput{Kind: "functional specification", Length: len(out)}
	}
	return out, nil
}

// Discrepancies asks for contradictions and incomplete responses across all answers.
func (a *Analyst) Discrepancies(ctx context.Context, answers types.Answers) (string, error) {
	var qa strings.Builder
	for _, f := range answers.Fixed {
		fmt.Fprintf(&qa, "Q: %s\nA: %s\n\n", f.Question, scoring.Stringify(f.Answer))
	}
	for _, b := range answers.OpenBlocks() {
		fmt.Fprintf(&qa, "Q: %s\nA: %s\n\n", b.Prompt, b.Answer)
	}

	prompt, err := prompts.Render(prompts.AnalysisFile, "discrepancy-check", map[string]string{
		"QA": strings.TrimSpace(qa.String()),
	})
	if err != nil {
		return "", err
	}
	out, err := a.completer.Generate(ctx, llm.Request{Prompt: prompt, Tier: llm.TierStandard})
	if err != nil {
		return "", fmt.Errorf("discrepancy check failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Run executes the expert analysis and the discrepancy check concurrently.
func (a *Analyst) Run(ctx context.Context, answers types.Answers, summary Summary) (Analysis, error) {
	var result Analysis
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := a.ExpertAnalysis(gctx, answers, summary)
		if err != nil {
			return err
		}
		result.Expert = out
		return nil
	})
	g.Go(func() error {
		out, err := a.Discrepancies(gctx, answers)
		if err != nil {
			return err
		}
		result.Discrepancies = out
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Warn("analysis failed", zap.Error(err))
		return Analysis{}, err
	}
	return result, nil
}

func numbered(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func fixedLists(fixed []types.AnswerRecord) (questions, answers string) {
	qs := make([]string, 0, len(fixed))
	as := make([]string, 0, len(fixed))
	for _, f := range fixed {
		qs = append(qs, questionLabel(f))
		as = append(as, scoring.Stringify(f.Answer))
	}
	return numbered(qs), numbered(as)
}

func openLists(blocks []types.OpenBlock) (questions, answers string) {
	qs := make([]string, 0, len(blocks))
	as := make([]string, 0, len(blocks))
	for i, b := range blocks {
		prompt := b.Prompt
		if prompt == "" {
			prompt = fmt.Sprintf("Open %d", i+1)
		}
		qs = append(qs, prompt)
		as = append(as, b.Answer)
	}
	return numbered(qs), numbered(as)
}

// surveyLists numbers every fixed and open-ended question with its answer.
func surveyLists(answers types.Answers) (questions, replies string) {
	var qs, as []string
	for _, f := range answers.Fixed {
		qs = append(qs, questionLabel(f))
		as = append(as, scoring.Stringify(f.Answer))
	}
	for i, b := range answers.OpenBlocks() {
		prompt := b.Prompt
		if prompt == "" {
			prompt = fmt.Sprintf("Open %d", i+1)
		}
		qs = append(qs, prompt)
		as = append(as, b.Answer)
	}
	return numbered(qs), numbered(as)
}
