package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gl-bank-reconciler/cmd/reconciler/config"
	"gl-bank-reconciler/internal/reconciler"
	"gl-bank-reconciler/internal/reporter"
)

// Flags for the reconcile command
var (
	glFile       string
	bankFile     string
	outputFormat string
	outputFile   string
	maxItems     int

	targetMatchRate     float64
	maxRounds           int
	exactTolerance      float64
	dateTolerance       int
	similarityThreshold float64
	partialMin          float64
	partialTolerancePct float64
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile GL activity against a bank statement",
	Long: `Reconcile matches general ledger transactions against bank statement
records through up to five matching strategies applied over bounded rounds,
then reports every match with its strategy, confidence, and rationale.

This command requires:
- A GL activity file (CSV format)
- A bank statement file (CSV format)

Examples:
  # Basic reconciliation with console output
  reconciler reconcile --gl-file gl_activity.csv --bank-file statement.csv

  # Full audit document as JSON
  reconciler reconcile --gl-file gl.csv --bank-file bank.csv \
    --output-format json --output-file audit_report.json

  # Tighter matching
  reconciler reconcile --gl-file gl.csv --bank-file bank.csv \
    --target-match-rate 95 --date-tolerance 1 --similarity-threshold 0.8`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&glFile, "gl-file", "g", "", "path to GL activity CSV file (required)")
	reconcileCmd.Flags().StringVarP(&bankFile, "bank-file", "b", "", "path to bank statement CSV file (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reconcileCmd.Flags().IntVar(&maxItems, "max-items", 50, "maximum matches and leftovers listed in console output")

	// Matching configuration flags
	reconcileCmd.Flags().Float64Var(&targetMatchRate, "target-match-rate", -1, "match rate percentage that stops iteration early (0-100)")
	reconcileCmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "maximum matching rounds")
	reconcileCmd.Flags().Float64Var(&exactTolerance, "exact-tolerance", -1, "absolute amount tolerance for exact matching")
	reconcileCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", -1, "date matching tolerance in days")
	reconcileCmd.Flags().Float64Var(&similarityThreshold, "similarity-threshold", -1, "minimum description similarity ratio (0-1)")
	reconcileCmd.Flags().Float64Var(&partialMin, "partial-min", -1, "minimum GL amount for partial matching")
	reconcileCmd.Flags().Float64Var(&partialTolerancePct, "partial-tolerance-pct", -1, "relative tolerance for partial matching (0-1)")

	reconcileCmd.MarkFlagRequired("gl-file")
	reconcileCmd.MarkFlagRequired("bank-file")

	viper.BindPFlag("gl-file", reconcileCmd.Flags().Lookup("gl-file"))
	viper.BindPFlag("bank-file", reconcileCmd.Flags().Lookup("bank-file"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("max-items", reconcileCmd.Flags().Lookup("max-items"))
	viper.BindPFlag("target-match-rate", reconcileCmd.Flags().Lookup("target-match-rate"))
	viper.BindPFlag("max-rounds", reconcileCmd.Flags().Lookup("max-rounds"))
	viper.BindPFlag("exact-tolerance", reconcileCmd.Flags().Lookup("exact-tolerance"))
	viper.BindPFlag("date-tolerance", reconcileCmd.Flags().Lookup("date-tolerance"))
	viper.BindPFlag("similarity-threshold", reconcileCmd.Flags().Lookup("similarity-threshold"))
	viper.BindPFlag("partial-min", reconcileCmd.Flags().Lookup("partial-min"))
	viper.BindPFlag("partial-tolerance-pct", reconcileCmd.Flags().Lookup("partial-tolerance-pct"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Viper values allow overrides from the config file and environment
	glFile = viper.GetString("gl-file")
	bankFile = viper.GetString("bank-file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	maxItems = viper.GetInt("max-items")
	targetMatchRate = viper.GetFloat64("target-match-rate")
	maxRounds = viper.GetInt("max-rounds")
	exactTolerance = viper.GetFloat64("exact-tolerance")
	dateTolerance = viper.GetInt("date-tolerance")
	similarityThreshold = viper.GetFloat64("similarity-threshold")
	partialMin = viper.GetFloat64("partial-min")
	partialTolerancePct = viper.GetFloat64("partial-tolerance-pct")

	if glFile == "" {
		return fmt.Errorf("gl-file is required")
	}
	if bankFile == "" {
		return fmt.Errorf("bank-file is required")
	}

	if err := validateFileExists(glFile, "GL activity file"); err != nil {
		return err
	}
	if err := validateFileExists(bankFile, "bank statement file"); err != nil {
		return err
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if targetMatchRate > 100.0 {
		return fmt.Errorf("target match rate must be between 0 and 100")
	}
	if similarityThreshold > 1.0 {
		return fmt.Errorf("similarity threshold must be between 0 and 1")
	}
	if partialTolerancePct > 1.0 {
		return fmt.Errorf("partial tolerance must be between 0 and 1")
	}
	if maxRounds < 0 {
		return fmt.Errorf("max rounds cannot be negative")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "GL file: %s\n", glFile)
		fmt.Fprintf(os.Stderr, "Bank file: %s\n", bankFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	matchConfig := config.CreateMatchConfig(config.MatchOverrides{
		TargetMatchRate:     targetMatchRate,
		MaxRounds:           maxRounds,
		ExactTolerance:      exactTolerance,
		DateToleranceDays:   dateTolerance,
		SimilarityThreshold: similarityThreshold,
		PartialMin:          partialMin,
		PartialTolerancePct: partialTolerancePct,
	})

	service, err := reconciler.NewService(&reconciler.Options{
		GLFile:        glFile,
		BankFile:      bankFile,
		GLParser:      config.CreateGLParserConfig(),
		BankParser:    config.CreateBankParserConfig(),
		MatchConfig:   matchConfig,
		EngineVersion: version,
	})
	if err != nil {
		return err
	}

	report, err := service.Run(ctx)
	if err != nil {
		return err
	}

	reportWriter, err := reporter.NewReporter(config.CreateReportConfig(outputFormat, maxItems))
	if err != nil {
		return fmt.Errorf("failed to create reporter: %w", err)
	}

	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportWriter.Write(output, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReconciliation completed.\n")
		fmt.Fprintf(os.Stderr, "Matched %d of %d GL transactions (%.1f%%) across %d round(s).\n",
			report.Summary.MatchedCount, report.Summary.TotalGLCount,
			report.Summary.MatchRate, report.Metadata.Rounds)
	}

	return nil
}
