package rendering

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/cb-discovery/internal/scoring"
	"github.com/jonathan/cb-discovery/internal/types"
)

// ReportTitle heads the maturity report.
const ReportTitle = "Conversational Banking Pre‑POC Discovery — Results"

// ResponsesTitle heads the survey responses document.
const ResponsesTitle = "Conversational Banking Survey Responses"

// submissionDateLayout formats the submission date in the responses document.
const submissionDateLayout = "2006-01-02 15:04:05"

// MaturityMarkdown renders the summary scores of a maturity report.
func MaturityMarkdown(report types.MaturityReport) string {
	var sb strings.Builder
	sb.WriteString("# " + ReportTitle + "\n\n")
	sb.WriteString("## Summary Scores\n")
	for _, p := range report.Pillars {
		fmt.Fprintf(&sb, "- **%s** — %d (%s)\n", p.Name, p.Score, p.Stage)
	}
	fmt.Fprintf(&sb, "\n**Overall:** %d\n", report.Overall)
	return sb.String()
}

// ScoringExplanation describes how pillar and overall scores are computed.
func ScoringExplanation() string {
	return fmt.Sprintf(`**Score Calculation Logic:**
- For each pillar, answers are scanned for pillar-specific keywords.
- Each keyword hit adds %d points to the pillar, with a base score of %d per pillar.
- The total score per pillar is capped at %d.
- Pillar stages are assigned based on thresholds: Nascent (1+), Emerging (5+), Developing (10+), Advanced (15+), Leading (20).
- The **Overall Score** is the sum of all pillar scores.
`, scoring.MaturityMultiplier, scoring.MaturityBase, scoring.MaturityCap)
}

// InsightsMarkdown renders pillar insights, the scoring explanation and the
// recommended next steps for each pillar that has any.
func InsightsMarkdown(report types.MaturityReport, steps NextSteps) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Overall Score:** %d\n\n", report.Overall)
	sb.WriteString("### Pillar Insights:\n")
	for _, p := range report.Pillars {
		fmt.Fprintf(&sb, "- **%s**: %d (%s)\n", p.Name, p.Score, p.Stage)
	}
	sb.WriteString("\n---\n\n#### How Overall Score is Calculated\n\n")
	sb.WriteString(ScoringExplanation())
	sb.WriteString("\n### Recommended Next Steps:\n")
	for _, p := range report.Pillars {
		list := steps.For(p.Name)
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n**%s**:\n", p.Name)
		for _, s := range list {
			sb.WriteString("- " + s + "\n")
		}
	}
	return sb.String()
}

// FullReportMarkdown is the maturity report followed by its insights.
func FullReportMarkdown(report types.MaturityReport, steps NextSteps) string {
	return MaturityMarkdown(report) + "\n## Insights & Next Steps\n\n" + InsightsMarkdown(report, steps)
}

// ResponsesMarkdown renders a submission as the survey responses document.
// All text is folded to ASCII.
func ResponsesMarkdown(sub types.Submission) string {
	var sb strings.Builder
	line := func(format string, args ...any) {
		sb.WriteString(ToASCII(fmt.Sprintf(format, args...)))
		sb.WriteString("\n")
	}
	text := func(s string) string { return EscapeMarkdown(s) }

	line("# %s", ResponsesTitle)
	if sub.Org.Name != "" || sub.Org.Contact != "" {
		line("")
		line("## Organization Information")
		line("")
		if sub.Org.Name != "" {
			line("Organization: %s  ", text(sub.Org.Name))
		}
		if sub.Org.Contact != "" {
			line("Contact: %s  ", text(sub.Org.Contact))
		}
	}

	line("")
	line("## Section 1: Fixed Questions")
	for i, q := range sub.Answers.Fixed {
		qtype := q.Type
		if qtype == "" {
			qtype = types.QuestionText
		}
		line("")
		line("**Q%d: %s**  ", i+1, text(q.Question))
		line("*Type: %s*  ", qtype)
		line("A%d: %s", i+1, text(AnswerText(q.Answer)))
	}

	if len(sub.Answers.Section2) > 0 {
		line("")
		line("## Section 2: Open-Ended Questions")
		for _, e := range sub.Answers.Section2 {
			if e.Question == "" || e.Answer == "" {
				continue
			}
			line("")
			line("**Q%d: %s**  ", e.Step, text(e.Question))
			line("A%d: %s", e.Step, text(e.Answer))
		}
	}

	submittedBy := sub.SubmittedBy
	if submittedBy == "" {
		submittedBy = "N/A"
	}
	line("")
	line("## Section 3: Submission Details")
	line("")
	line("Submitted by: %s  ", text(submittedBy))
	line("Role: %s  ", sub.Role)
	line("Submission Date: %s", submissionDate(sub).Format(submissionDateLayout))
	return sb.String()
}

func submissionDate(sub types.Submission) time.Time {
	if !sub.SubmittedAt.IsZero() {
		return sub.SubmittedAt
	}
	return sub.CreatedAt
}

// AnswerText renders an answer for display; lists are comma-joined.
func AnswerText(v any) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = scoring.Stringify(item)
		}
		return strings.Join(parts, ", ")
	default:
		return scoring.Stringify(v)
	}
}
