// Package parsers reads GL activity and bank statement CSV exports into
// transaction records.
//
// Real ledger exports are messy: header names vary between systems, amounts
// arrive either signed or split into debit/credit columns, dates come in a
// dozen formats, and individual rows are frequently broken. Parsing degrades
// gracefully: a row that cannot be turned into a valid record is counted and
// sampled into the parse statistics, and parsing continues. Unparseable rows
// surface in the reconciliation summary so reviewers know how much of the
// ledger the match rate actually covers.
//
// Example usage:
//
//	parser, err := parsers.NewLedgerParser(parsers.DefaultGLParserConfig())
//	records, stats, err := parser.ParseFile(ctx, "gl_activity.csv")
package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"gl-bank-reconciler/pkg/errors"
	"gl-bank-reconciler/pkg/logger"
)

// ParseError describes one row that could not become a valid record
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d (%s='%s'): %s: %v",
			e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d (%s='%s'): %s",
		e.Line, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseStats holds the outcome of parsing one file. Unparseable counts rows
// that were read but rejected; reads that failed at the CSV layer count too.
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	Unparseable   int
	Errors        []*ParseError
}

// NewParseStats creates an empty ParseStats
func NewParseStats() *ParseStats {
	return &ParseStats{Errors: make([]*ParseError, 0)}
}

// AddError records one rejected row
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
	ps.Unparseable++
}

// HasErrors reports whether any rows were rejected
func (ps *ParseStats) HasErrors() bool {
	return ps.Unparseable > 0
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d unparseable",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.Unparseable)
}

// SampleErrors returns up to maxSamples error messages for logging
func (ps *ParseStats) SampleErrors(maxSamples int) []string {
	limit := len(ps.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	var samples []string
	for i := 0; i < limit; i++ {
		samples = append(samples, ps.Errors[i].Error())
	}
	return samples
}

// parseContext holds state while walking one file
type parseContext struct {
	LineNumber int
	Headers    []string
	HeaderMap  map[string]int
	ctx        context.Context
}

func newParseContext(ctx context.Context) *parseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &parseContext{
		HeaderMap: make(map[string]int),
		ctx:       ctx,
	}
}

// IsCancelled checks whether the surrounding operation was cancelled
func (pc *parseContext) IsCancelled() bool {
	select {
	case <-pc.ctx.Done():
		return true
	default:
		return false
	}
}

// ColumnIndex returns the index of a column by name, case-insensitively,
// or -1 when absent
func (pc *parseContext) ColumnIndex(name string) int {
	if index, exists := pc.HeaderMap[name]; exists {
		return index
	}

	lowerName := strings.ToLower(name)
	for header, index := range pc.HeaderMap {
		if strings.ToLower(header) == lowerName {
			return index
		}
	}

	return -1
}

// baseParser provides the CSV plumbing shared by both ledger layouts
type baseParser struct {
	hasHeader bool
	delimiter rune
	logger    logger.Logger
}

// openFile opens a CSV file and returns a configured reader
func (bp *baseParser) openFile(filePath string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open CSV file")

		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	return file, reader, nil
}

// readHeaders reads the header row and validates required columns
func (bp *baseParser) readHeaders(reader *csv.Reader, parseCtx *parseContext, filePath string, required []string) error {
	if !bp.hasHeader {
		parseCtx.Headers = append(parseCtx.Headers, required...)
		bp.buildHeaderMap(parseCtx)
		return nil
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return errors.ValidationError(errors.CodeMissingField, "file_content", "empty", nil).
				WithSuggestion("Ensure the file contains header and data rows")
		}
		return errors.ParseError(errors.CodeInvalidFormat, filePath, 1, "headers", "", err).
			WithSuggestion("Check the file format and ensure it's a valid CSV")
	}

	parseCtx.LineNumber++
	parseCtx.Headers = make([]string, len(headers))
	for i, header := range headers {
		parseCtx.Headers[i] = strings.TrimSpace(header)
	}
	bp.buildHeaderMap(parseCtx)

	var missing []string
	for _, name := range required {
		if name != "" && parseCtx.ColumnIndex(name) == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		bp.logger.WithFields(logger.Fields{
			"missing_headers":   missing,
			"available_headers": parseCtx.Headers,
		}).Error("Required headers are missing")

		return errors.ParseError(errors.CodeMissingColumn, filePath, parseCtx.LineNumber,
			"headers", strings.Join(missing, ", "), nil).
			WithSuggestion(fmt.Sprintf("Ensure the CSV file contains these headers: %s", strings.Join(missing, ", ")))
	}

	return nil
}

func (bp *baseParser) buildHeaderMap(parseCtx *parseContext) {
	parseCtx.HeaderMap = make(map[string]int, len(parseCtx.Headers))
	for i, header := range parseCtx.Headers {
		parseCtx.HeaderMap[header] = i
	}
}

// readRecord reads the next non-empty CSV record
func (bp *baseParser) readRecord(reader *csv.Reader, parseCtx *parseContext) ([]string, error) {
	for {
		record, err := reader.Read()
		if err != nil {
			return nil, err
		}

		parseCtx.LineNumber++

		if bp.isEmptyRecord(record) {
			continue
		}
		return record, nil
	}
}

func (bp *baseParser) isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// fieldValue retrieves a field by column name, empty string when the column
// is absent or the row is short
func (bp *baseParser) fieldValue(record []string, parseCtx *parseContext, name string) string {
	if name == "" {
		return ""
	}
	index := parseCtx.ColumnIndex(name)
	if index == -1 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}
