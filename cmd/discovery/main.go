// Package main provides the entry point for the conversational banking discovery service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/cb-discovery/internal/config"
	"github.com/jonathan/cb-discovery/internal/logging"
	"github.com/jonathan/cb-discovery/internal/survey"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Conversational Banking Pre-POC Discovery service",
	Long: `Discovery runs the conversational banking pre-POC survey: a guided questionnaire,
an LLM deep dive, keyword-based maturity scoring and downloadable reports.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file (environment variables override it)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger described by cfg.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// loadCatalog returns the catalog at path, or the embedded one when path is empty.
func loadCatalog(path string) (*survey.Catalog, error) {
	if path == "" {
		return survey.DefaultCatalog()
	}
	return survey.LoadCatalogFile(path)
}
