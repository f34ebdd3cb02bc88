package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cb-discovery/internal/analysis"
	"github.com/jonathan/cb-discovery/internal/metrics"
	"github.com/jonathan/cb-discovery/internal/observability"
	"github.com/jonathan/cb-discovery/internal/rendering"
	"github.com/jonathan/cb-discovery/internal/scoring"
)

var (
	scoreFormat  string
	scoreSummary bool
)

var scoreCmd = &cobra.Command{
	Use:   "score <submission.json>",
	Short: "Score a submission file and print the maturity report",
	Long: `Score reads a stored submission (or a bare answers document) and prints its
maturity report as boxed text, markdown or JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreFormat, "format", "f", "text", "Output format: text, markdown or json")
	scoreCmd.Flags().BoolVar(&scoreSummary, "summary", false, "Include the analytics summary and radar")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	sub, err := readSubmission(args[0])
	if err != nil {
		return err
	}
	report := scoring.ScoreSubmission(sub.Answers)
	metrics.ScoresComputed.WithLabelValues("cli").Inc()

	out := cmd.OutOrStdout()
	switch scoreFormat {
	case "json":
		payload := map[string]any{"report": report}
		if scoreSummary {
			payload["summary"] = analysis.Summarize(sub.Answers)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "markdown", "md":
		steps, err := rendering.DefaultNextSteps()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, rendering.FullReportMarkdown(report, steps))
		return err
	case "text":
		p := observability.NewPrinter(out)
		p.PrintMaturityReport(&report, scoring.MaturityCap)
		if scoreSummary {
			summary := analysis.Summarize(sub.Answers)
			p.PrintSummary(&summary)
			p.PrintRadar(summary.Radar, scoring.MaturityCap)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want text, markdown or json)", scoreFormat)
	}
}
