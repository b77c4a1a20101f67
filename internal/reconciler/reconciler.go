// Package reconciler wires parsing, matching, and audit reporting into one
// reconciliation run: load both ledger exports, drive the iterative matching
// engine over them, and assemble the audit report from the terminal state.
package reconciler

import (
	"context"
	"time"

	"gl-bank-reconciler/internal/audit"
	"gl-bank-reconciler/internal/matcher"
	"gl-bank-reconciler/internal/parsers"
	"gl-bank-reconciler/pkg/errors"
	"gl-bank-reconciler/pkg/logger"
)

// Options configures one reconciliation run. Nil parser or match
// configurations fall back to the documented defaults.
type Options struct {
	GLFile        string
	BankFile      string
	GLParser      *parsers.LedgerParserConfig
	BankParser    *parsers.LedgerParserConfig
	MatchConfig   *matcher.Config
	EngineVersion string
}

// Service runs reconciliations. A single service can run multiple times;
// each run builds fresh pools and a fresh controller.
type Service struct {
	options *Options
	log     logger.Logger
}

// NewService validates the options and builds a reconciliation service
func NewService(options *Options) (*Service, error) {
	if options == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "options", nil, nil)
	}
	if options.GLFile == "" {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "gl_file", "", nil).
			WithSuggestion("Provide the GL activity export path")
	}
	if options.BankFile == "" {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "bank_file", "", nil).
			WithSuggestion("Provide the bank statement export path")
	}

	if options.GLParser == nil {
		options.GLParser = parsers.DefaultGLParserConfig()
	}
	if options.BankParser == nil {
		options.BankParser = parsers.DefaultBankParserConfig()
	}
	if options.MatchConfig == nil {
		options.MatchConfig = matcher.DefaultConfig()
	}
	if err := options.MatchConfig.Validate(); err != nil {
		return nil, err
	}

	return &Service{
		options: options,
		log:     logger.WithComponent("reconciler"),
	}, nil
}

// Run executes one complete reconciliation and returns the audit report.
func (s *Service) Run(ctx context.Context) (*audit.Report, error) {
	startedAt := time.Now()

	s.log.WithFields(logger.Fields{
		"gl_file":   s.options.GLFile,
		"bank_file": s.options.BankFile,
	}).Info("Starting reconciliation")

	glParser, err := parsers.NewLedgerParser(s.options.GLParser)
	if err != nil {
		return nil, err
	}
	bankParser, err := parsers.NewLedgerParser(s.options.BankParser)
	if err != nil {
		return nil, err
	}

	glRecords, glStats, err := glParser.ParseFile(ctx, s.options.GLFile)
	if err != nil {
		return nil, err
	}
	bankRecords, bankStats, err := bankParser.ParseFile(ctx, s.options.BankFile)
	if err != nil {
		return nil, err
	}

	glPool, err := matcher.NewPool(s.options.GLParser.Side, glRecords)
	if err != nil {
		return nil, err
	}
	bankPool, err := matcher.NewPool(s.options.BankParser.Side, bankRecords)
	if err != nil {
		return nil, err
	}

	controller, err := matcher.NewController(s.options.MatchConfig, glPool, bankPool)
	if err != nil {
		return nil, err
	}

	result, err := controller.Run()
	if err != nil {
		return nil, err
	}

	recorder := audit.NewRecorder(glPool, bankPool)
	if err := recorder.RecordRun(result); err != nil {
		return nil, err
	}

	unparseable := glStats.Unparseable + bankStats.Unparseable
	summary := matcher.Summarize(glPool, bankPool, unparseable)

	report, err := audit.BuildReport(audit.Metadata{
		GeneratedAt:   time.Now(),
		EngineVersion: s.options.EngineVersion,
		GLSource:      s.options.GLFile,
		BankSource:    s.options.BankFile,
		FinalState:    string(result.FinalState),
		Rounds:        result.Rounds,
	}, recorder, summary)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logger.Fields{
		"duration":    time.Since(startedAt).String(),
		"final_state": string(result.FinalState),
		"match_rate":  summary.MatchRate,
		"matched":     summary.MatchedCount,
		"unmatched":   len(summary.UnmatchedGLIDs),
		"unparseable": unparseable,
	}).Info("Reconciliation finished")

	return report, nil
}
