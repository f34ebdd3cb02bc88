// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/cb-discovery/internal/analysis"
	"github.com/jonathan/cb-discovery/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// barWidth is the width of a full score bar
	barWidth = 20
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// bar renders score out of limit as a fixed-width bar.
func bar(score, limit int) string {
	if limit <= 0 {
		return strings.Repeat("·", barWidth)
	}
	filled := min(barWidth, max(0, score*barWidth/limit))
	return strings.Repeat("█", filled) + strings.Repeat("·", barWidth-filled)
}

// PrintMaturityReport outputs pillar scores with stages and the overall total.
func (p *Printer) PrintMaturityReport(report *types.MaturityReport, pillarMax int) {
	if report == nil || len(report.Pillars) == 0 {
		return
	}

	var sb strings.Builder
	for _, ps := range report.Pillars {
		sb.WriteString(fmt.Sprintf("%-18s %s %2d  %s\n", ps.Name, bar(ps.Score, pillarMax), ps.Score, ps.Stage))
	}
	sb.WriteString(fmt.Sprintf("\nOverall: %d", report.Overall))

	p.printBox("MATURITY SCORES", sb.String())
}

// PrintSummary outputs the analytics summary of a submission.
func (p *Printer) PrintSummary(s *analysis.Summary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Fixed answered:     %d/%d\n", s.Fixed.Answered, s.Fixed.Total()))
	sb.WriteString(fmt.Sprintf("Open answered:      %d/%d\n", s.Open.Answered, s.Open.Total()))
	sb.WriteString(fmt.Sprintf("Follow-ups:         %d/%d\n", s.FollowUps.Answered, s.FollowUps.Total()))
	sb.WriteString(fmt.Sprintf("Sentiment:          +%d / -%d\n", s.Positive, s.Negative))
	sb.WriteString(fmt.Sprintf("AI safety:          %d/%d (%s)\n", s.Safety.Score, s.Safety.Max, s.Safety.Verdict))
	sb.WriteString(fmt.Sprintf("Expertise:          %s\n", s.Language.Expertise))

	if len(s.TopKeywords) > 0 {
		words := make([]string, len(s.TopKeywords))
		for i, w := range s.TopKeywords {
			words[i] = fmt.Sprintf("%s(%d)", w.Word, w.Count)
		}
		sb.WriteString(fmt.Sprintf("Top words:          %s\n", strings.Join(words, ", ")))
	}
	if len(s.MissingFixed) > 0 {
		sb.WriteString(fmt.Sprintf("\nMissing answers (%d):\n", len(s.MissingFixed)))
		for _, m := range s.MissingFixed {
			sb.WriteString(fmt.Sprintf("  - %s\n", m))
		}
	}

	p.printBox("SURVEY ANALYTICS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRadar outputs the radar pillar scores.
func (p *Printer) PrintRadar(points []types.RadarPoint, pillarMax int) {
	if len(points) == 0 {
		return
	}

	var sb strings.Builder
	for _, pt := range points {
		sb.WriteString(fmt.Sprintf("%-18s %s %2d\n", pt.Pillar, bar(pt.Score, pillarMax), pt.Score))
	}

	p.printBox("MATURITY RADAR", strings.TrimSuffix(sb.String(), "\n"))
}
