package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/cb-discovery/internal/rendering"
	"github.com/jonathan/cb-discovery/internal/scoring"
	"github.com/jonathan/cb-discovery/internal/types"
)

// Documents the render command can produce
const (
	docReport    = "report"
	docResponses = "responses"
)

var (
	renderDoc        string
	renderFormat     string
	renderOutDir     string
	renderChromePath string
	renderTimeout    time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render <submission.json>",
	Short: "Render a submission's report or responses to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderDoc, "doc", "d", docReport, "Document to render: report or responses")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "md", "Output format: md, html, pdf or txt")
	renderCmd.Flags().StringVarP(&renderOutDir, "out", "o", ".", "Output directory")
	renderCmd.Flags().StringVar(&renderChromePath, "chrome", "", "Chrome/Chromium binary for PDF output (defaults to CHROME_PATH or auto-detect)")
	renderCmd.Flags().DurationVar(&renderTimeout, "timeout", 60*time.Second, "PDF render timeout")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := rendering.ParseFormat(renderFormat)
	if err != nil {
		return err
	}
	sub, err := readSubmission(args[0])
	if err != nil {
		return err
	}

	doc, err := renderDocument(sub, renderDoc, time.Now())
	if err != nil {
		return err
	}

	chromePath := renderChromePath
	if chromePath == "" {
		chromePath = os.Getenv("CHROME_PATH")
	}
	exporter := rendering.NewExporter(rendering.NewChromiumPDFRenderer(chromePath, renderTimeout))
	data, err := exporter.Export(cmd.Context(), doc, format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(renderOutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(renderOutDir, rendering.WithExtension(doc.Filename, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// renderDocument builds the named document for sub. The report uses stored
// scores when present.
func renderDocument(sub types.Submission, name string, now time.Time) (rendering.Document, error) {
	switch name {
	case docReport:
		report := scoring.ScoreSubmission(sub.Answers)
		if sub.Scores != nil {
			report = *sub.Scores
		}
		steps, err := rendering.DefaultNextSteps()
		if err != nil {
			return rendering.Document{}, err
		}
		return rendering.Document{
			Title:    rendering.ReportTitle,
			Markdown: rendering.FullReportMarkdown(report, steps),
			Filename: rendering.ReportFilename(now),
		}, nil
	case docResponses:
		return rendering.Document{
			Title:    rendering.ResponsesTitle,
			Markdown: rendering.ResponsesMarkdown(sub),
			Filename: rendering.ResponsesFilename,
		}, nil
	default:
		return rendering.Document{}, fmt.Errorf("unknown document %q (want %s or %s)", name, docReport, docResponses)
	}
}
