package parsers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"gl-bank-reconciler/internal/models"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLedgerParserConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*LedgerParserConfig)
		expectErr bool
	}{
		{"default gl is valid", func(c *LedgerParserConfig) {}, false},
		{"missing description", func(c *LedgerParserConfig) { c.DescriptionColumn = "" }, true},
		{"missing date", func(c *LedgerParserConfig) { c.DateColumn = "" }, true},
		{"no amount source", func(c *LedgerParserConfig) {
			c.DebitColumn = ""
			c.CreditColumn = ""
		}, true},
		{"single amount column suffices", func(c *LedgerParserConfig) {
			c.DebitColumn = ""
			c.CreditColumn = ""
			c.AmountColumn = "Amount"
		}, false},
		{"invalid side", func(c *LedgerParserConfig) { c.Side = models.Side("NEITHER") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGLParserConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestParseFileNetsDebitAndCredit(t *testing.T) {
	path := writeTempCSV(t, "gl.csv", `Transaction_ID,GL_Account,Description,Debit,Credit,Effective Date
GL-1,7401,ACH PAYMENT VENDOR,1500.00,,2024-03-15
GL-2,7401,CUSTOMER REFUND,,-250.50,2024-03-16
GL-3,7402,WIRE SETTLEMENT,"2,000.00",,2024-03-17
`)

	parser, err := NewLedgerParser(DefaultGLParserConfig())
	if err != nil {
		t.Fatalf("NewLedgerParser() unexpected error: %v", err)
	}

	records, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() unexpected error: %v", err)
	}

	if stats.RecordsValid != 3 || stats.Unparseable != 0 {
		t.Fatalf("stats = %s", stats)
	}

	if !records[0].Amount.Equal(decimal.NewFromFloat(1500.00)) {
		t.Errorf("record 0 amount = %s, want 1500", records[0].Amount)
	}
	if !records[1].Amount.Equal(decimal.NewFromFloat(-250.50)) {
		t.Errorf("record 1 amount = %s, want -250.5", records[1].Amount)
	}
	if !records[2].Amount.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("record 2 amount = %s, want 2000", records[2].Amount)
	}

	if records[0].SourceAccount != "7401" {
		t.Errorf("record 0 account = %q, want 7401", records[0].SourceAccount)
	}
	if records[0].Type != models.TypeACH {
		t.Errorf("record 0 type = %v, want ACH", records[0].Type)
	}
	if !records[0].HasDate() {
		t.Error("record 0 should have a date")
	}
}

func TestParseFileCountsUnparseableRows(t *testing.T) {
	path := writeTempCSV(t, "gl.csv", `Transaction_ID,GL_Account,Description,Debit,Credit,Effective Date
GL-1,7401,ACH PAYMENT,100.00,,2024-03-15
GL-2,7401,BROKEN ROW,not-a-number,,2024-03-16
GL-3,7401,CHECK 100,250.00,,2024-03-17
`)

	parser, err := NewLedgerParser(DefaultGLParserConfig())
	if err != nil {
		t.Fatalf("NewLedgerParser() unexpected error: %v", err)
	}

	records, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() unexpected error: %v", err)
	}

	// Bad rows never abort the file; they are counted and skipped
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
	if stats.Unparseable != 1 {
		t.Errorf("unparseable = %d, want 1", stats.Unparseable)
	}
	if !stats.HasErrors() {
		t.Error("HasErrors() should be true")
	}
	if samples := stats.SampleErrors(5); len(samples) != 1 {
		t.Errorf("sample errors = %d, want 1", len(samples))
	}
}

func TestParseFileDateFallback(t *testing.T) {
	path := writeTempCSV(t, "gl.csv", `Transaction_ID,Description,Debit,Credit,Effective Date,Actual Date
GL-1,ACH PAYMENT,100.00,,,2024-03-20
GL-2,CHECK 200,50.00,,unreadable,2024-03-21
GL-3,WIRE IN,75.00,,,
`)

	parser, err := NewLedgerParser(DefaultGLParserConfig())
	if err != nil {
		t.Fatalf("NewLedgerParser() unexpected error: %v", err)
	}

	records, _, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	if !records[0].HasDate() || records[0].Date.Day() != 20 {
		t.Errorf("record 0 should fall back to the actual date, got %v", records[0].Date)
	}
	if !records[1].HasDate() || records[1].Date.Day() != 21 {
		t.Errorf("record 1 should fall back past the unreadable date, got %v", records[1].Date)
	}
	// A record without any usable date stays valid
	if records[2].HasDate() {
		t.Errorf("record 2 should have no date, got %v", records[2].Date)
	}
}

func TestParseFileGeneratesMissingIDs(t *testing.T) {
	path := writeTempCSV(t, "bank.csv", `Description,Debit,Credit,Post Date
ACH VENDOR PAYMENT,,100.00,2024-03-15
BRANCH DEPOSIT,,250.00,2024-03-16
`)

	parser, err := NewLedgerParser(DefaultBankParserConfig())
	if err != nil {
		t.Fatalf("NewLedgerParser() unexpected error: %v", err)
	}

	records, _, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	if records[0].ID != "1_BANK" || records[1].ID != "2_BANK" {
		t.Errorf("generated IDs = %q, %q, want 1_BANK, 2_BANK", records[0].ID, records[1].ID)
	}
	if records[0].Side != models.SideBank {
		t.Errorf("side = %v, want BANK", records[0].Side)
	}
}

func TestParseFileSkipsEmptyRows(t *testing.T) {
	path := writeTempCSV(t, "bank.csv", `Transaction_ID,Description,Debit,Credit,Post Date
B-1,ACH PAYMENT,,100.00,2024-03-15

,,,,
B-2,CHECK 9,,50.00,2024-03-16
`)

	parser, err := NewLedgerParser(DefaultBankParserConfig())
	if err != nil {
		t.Fatalf("NewLedgerParser() unexpected error: %v", err)
	}

	records, stats, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() unexpected error: %v", err)
	}
	if len(records) != 2 || stats.Unparseable != 0 {
		t.Errorf("records = %d, unparseable = %d, want 2 and 0", len(records), stats.Unparseable)
	}
}

func TestParseFileMissingRequiredHeader(t *testing.T) {
	path := writeTempCSV(t, "gl.csv", `Transaction_ID,Memo,Debit,Credit,Effective Date
GL-1,ACH PAYMENT,100.00,,2024-03-15
`)

	parser, err := NewLedgerParser(DefaultGLParserConfig())
	if err != nil {
		t.Fatalf("NewLedgerParser() unexpected error: %v", err)
	}

	if _, _, err := parser.ParseFile(context.Background(), path); err == nil {
		t.Fatal("expected error for missing Description header, got nil")
	}
}

func TestParseFileMissingFile(t *testing.T) {
	parser, err := NewLedgerParser(DefaultGLParserConfig())
	if err != nil {
		t.Fatalf("NewLedgerParser() unexpected error: %v", err)
	}

	if _, _, err := parser.ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestParseFileColumnAliases(t *testing.T) {
	cfg := DefaultBankParserConfig()
	cfg.ColumnAliases = map[string]string{}
	cfg.IDColumn = "ref_number"
	cfg.DescriptionColumn = "transaction_details"
	cfg.DateColumn = "value_date"

	path := writeTempCSV(t, "bank.csv", `ref_number,transaction_details,Debit,Credit,value_date
R-1,WIRE TRANSFER IN,,5000.00,2024-03-15
`)

	parser, err := NewLedgerParser(cfg)
	if err != nil {
		t.Fatalf("NewLedgerParser() unexpected error: %v", err)
	}

	records, _, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].ID != "R-1" || records[0].Type != models.TypeWire {
		t.Errorf("record = %+v", records[0])
	}
}

func TestNewLedgerParserRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultGLParserConfig()
	cfg.DescriptionColumn = ""

	if _, err := NewLedgerParser(cfg); err == nil {
		t.Fatal("expected configuration error, got nil")
	}
}
