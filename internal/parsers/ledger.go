package parsers

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"gl-bank-reconciler/internal/models"
	"gl-bank-reconciler/pkg/errors"
	"gl-bank-reconciler/pkg/logger"
)

// LedgerParser reads one ledger export into transaction records according to
// its configured column layout.
type LedgerParser struct {
	baseParser
	config *LedgerParserConfig
}

// NewLedgerParser validates the layout configuration and builds a parser
func NewLedgerParser(config *LedgerParserConfig) (*LedgerParser, error) {
	if config == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "ledger_parser_config", nil, nil)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "ledger_parser_config", config.Side, err).
			WithSuggestion("Check the ledger parser column configuration")
	}

	component := "gl_parser"
	if config.Side == models.SideBank {
		component = "bank_parser"
	}

	return &LedgerParser{
		baseParser: baseParser{
			hasHeader: config.HasHeader,
			delimiter: config.Delimiter,
			logger:    logger.WithComponent(component),
		},
		config: config,
	}, nil
}

// ParseFile reads the whole export. Rows that cannot become valid records
// are counted in the stats and skipped; the error return is reserved for
// failures that make the file as a whole unusable.
func (lp *LedgerParser) ParseFile(ctx context.Context, filePath string) ([]*models.TransactionRecord, *ParseStats, error) {
	lp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"side":      string(lp.config.Side),
	}).Info("Starting ledger parsing")

	file, reader, err := lp.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := newParseContext(ctx)
	stats := NewParseStats()

	if err := lp.readHeaders(reader, parseCtx, filePath, lp.requiredHeaders()); err != nil {
		return nil, stats, err
	}

	var records []*models.TransactionRecord

	for {
		if parseCtx.IsCancelled() {
			return records, stats, errors.InternalError(errors.CodeUnexpectedError,
				"ledger_parsing", fmt.Errorf("parsing cancelled by context"))
		}

		row, err := lp.readRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			lp.logger.WithError(err).WithField("line_number", parseCtx.LineNumber).Warn("Failed to read CSV row")
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "failed to read CSV row",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		record, parseErr := lp.recordFromRow(row, parseCtx, stats.RecordsParsed)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := record.Validate(); err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   "record",
				Value:   record.ID,
				Message: "record validation failed",
				Err:     err,
			})
			continue
		}

		records = append(records, record)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	lp.logger.WithFields(logger.Fields{
		"file_path":     filePath,
		"side":          string(lp.config.Side),
		"total_lines":   stats.TotalLines,
		"records_valid": stats.RecordsValid,
		"unparseable":   stats.Unparseable,
	}).Info("Ledger parsing completed")

	if stats.HasErrors() {
		lp.logger.WithField("sample_errors", stats.SampleErrors(3)).Warn("Encountered unparseable rows")
	}

	return records, stats, nil
}

// requiredHeaders returns the column names that must exist in the header row
func (lp *LedgerParser) requiredHeaders() []string {
	required := []string{lp.config.GetColumnName("description")}
	if lp.config.usesNetting() {
		required = append(required,
			lp.config.GetColumnName("debit"),
			lp.config.GetColumnName("credit"))
	} else {
		required = append(required, lp.config.GetColumnName("amount"))
	}
	return required
}

// recordFromRow builds one transaction record from a CSV row. seq is the
// 1-based data row number used to synthesize IDs for exports without one.
func (lp *LedgerParser) recordFromRow(row []string, parseCtx *parseContext, seq int) (*models.TransactionRecord, *ParseError) {
	id := lp.fieldValue(row, parseCtx, lp.config.GetColumnName("id"))
	if id == "" {
		id = fmt.Sprintf("%d_%s", seq, lp.config.Side)
	}

	amount, parseErr := lp.parseAmount(row, parseCtx)
	if parseErr != nil {
		return nil, parseErr
	}

	description := lp.fieldValue(row, parseCtx, lp.config.GetColumnName("description"))
	date := lp.parseDate(row, parseCtx)

	record := models.NewRecord(id, lp.config.Side, amount, date, description)
	record.SourceAccount = lp.fieldValue(row, parseCtx, lp.config.GetColumnName("account"))

	return record, nil
}

// parseAmount extracts the signed amount, netting debit and credit columns
// when no single amount column is configured. An empty debit or credit cell
// counts as zero; a malformed value rejects the row.
func (lp *LedgerParser) parseAmount(row []string, parseCtx *parseContext) (decimal.Decimal, *ParseError) {
	if !lp.config.usesNetting() {
		raw := lp.fieldValue(row, parseCtx, lp.config.GetColumnName("amount"))
		amount, err := models.ParseDecimalFromString(raw)
		if err != nil {
			return decimal.Zero, &ParseError{
				Line:    parseCtx.LineNumber,
				Field:   lp.config.GetColumnName("amount"),
				Value:   raw,
				Message: "invalid amount",
				Err:     err,
			}
		}
		return amount, nil
	}

	debit, parseErr := lp.parseOptionalAmount(row, parseCtx, "debit")
	if parseErr != nil {
		return decimal.Zero, parseErr
	}
	credit, parseErr := lp.parseOptionalAmount(row, parseCtx, "credit")
	if parseErr != nil {
		return decimal.Zero, parseErr
	}

	return models.NetAmount(debit, credit), nil
}

func (lp *LedgerParser) parseOptionalAmount(row []string, parseCtx *parseContext, standardName string) (decimal.Decimal, *ParseError) {
	raw := lp.fieldValue(row, parseCtx, lp.config.GetColumnName(standardName))
	if raw == "" {
		return decimal.Zero, nil
	}

	amount, err := models.ParseDecimalFromString(raw)
	if err != nil {
		return decimal.Zero, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   lp.config.GetColumnName(standardName),
			Value:   raw,
			Message: fmt.Sprintf("invalid %s amount", standardName),
			Err:     err,
		}
	}
	return amount, nil
}

// parseDate extracts the record date, trying the fallback column when the
// primary is empty or malformed. A record without a usable date is still
// valid; it just never matches through the date-aware strategy.
func (lp *LedgerParser) parseDate(row []string, parseCtx *parseContext) time.Time {
	for _, standardName := range []string{"date", "fallback_date"} {
		raw := lp.fieldValue(row, parseCtx, lp.config.GetColumnName(standardName))
		if raw == "" {
			continue
		}
		if date, err := models.ParseDateWithFormats(raw); err == nil {
			return date
		}
		lp.logger.WithFields(logger.Fields{
			"line_number": parseCtx.LineNumber,
			"value":       raw,
		}).Debug("Unparseable date, trying fallback")
	}
	return time.Time{}
}
