package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/cb-discovery/internal/survey"
)

var (
	questionsCatalog  string
	questionsTestMode bool
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Validate and list the fixed-question catalog",
	RunE:  runQuestions,
}

func init() {
	questionsCmd.Flags().StringVar(&questionsCatalog, "catalog", "", "Path to a questions.json catalog (defaults to the embedded one)")
	questionsCmd.Flags().BoolVar(&questionsTestMode, "test-mode", false, "List only the questions asked in test mode")
	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(cmd *cobra.Command, _ []string) error {
	catalog, err := loadCatalog(questionsCatalog)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	qs := catalog.ForMode(questionsTestMode)
	for _, q := range qs {
		required := ""
		if q.Required {
			required = " *"
		}
		fmt.Fprintf(out, "%-4s [%s] %s%s\n", q.ID, survey.EffectiveType(q), q.Text, required)
		if len(q.Options) > 0 {
			fmt.Fprintf(out, "     options: %s\n", strings.Join(q.Options, ", "))
		}
	}
	fmt.Fprintf(out, "%d of %d questions valid\n", len(qs), catalog.Len())
	return nil
}
