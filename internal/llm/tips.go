package llm

import (
	"context"
	"strings"

	"github.com/jonathan/cb-discovery/internal/prompts"
	"go.uber.org/zap"
)

// DefaultTip is shown when neither a tooltip nor a generated tip is available.
const DefaultTip = "Provide clear, specific, and relevant details to help us understand your answer."

// minTooltipLength is the shortest tooltip shown as-is.
const minTooltipLength = 10

// HelpTip explains how to answer a question. A tooltip of at least ten
// characters wins; otherwise a tip is generated, falling back to DefaultTip.
func HelpTip(ctx context.Context, completer Completer, logger *zap.Logger, question, tooltip string) string {
	if tip := strings.TrimSpace(tooltip); len(tip) >= minTooltipLength {
		return tip
	}
	if completer == nil {
		return DefaultTip
	}

	prompt, err := prompts.Render(prompts.SurveyFile, "help-tip", map[string]string{"Question": question})
	if err != nil {
		return DefaultTip
	}
	tip, err := completer.Generate(ctx, Request{Prompt: prompt, Tier: TierLite})
	if err != nil {
		if !IsUnavailable(err) && logger != nil {
			logger.Warn("help tip generation failed", zap.Error(err))
		}
		return DefaultTip
	}
	if tip = strings.TrimSpace(tip); tip == "" {
		return DefaultTip
	}
	return tip
}
