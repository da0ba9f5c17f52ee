// Package revolut parses Revolut CSV statement exports into normalized
// transactions.
package revolut

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcosogg/budgetflow/internal/category"
	"github.com/marcosogg/budgetflow/internal/dedup"
	"github.com/marcosogg/budgetflow/internal/domain"
	"github.com/marcosogg/budgetflow/internal/monthspan"
)

const (
	// MaxFileSize is the largest statement accepted, in bytes. Revolut
	// exports for one month are well under this.
	MaxFileSize = 1 << 20

	// MaxTransactions caps the row count of a single import.
	MaxTransactions = 1000

	// completedState is the only row state admitted for import.
	completedState = "COMPLETED"

	// repaymentMarker identifies internal credit card transfers, which are
	// not spend.
	repaymentMarker = "credit card repayment"

	positionalDateFormat = "2006-01-02 15:04:05"
	headerDateFormat     = "02/01/2006 15:04"
)

// validityCutoff rejects rows with garbage future dates. A statement export
// never contains transactions this far out.
var validityCutoff = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

// Layout selects between the two Revolut export formats in circulation.
type Layout int

const (
	// LayoutAuto detects the layout from the header line.
	LayoutAuto Layout = iota
	// LayoutPositional is the 10-column export (Type, Product, Started
	// Date, Completed Date, Description, Amount, Fee, Currency, State,
	// Balance) with "2006-01-02 15:04:05" dates.
	LayoutPositional
	// LayoutHeader is the reduced export with named columns (Type,
	// Product, Completed Date, Description, Amount, Currency, State) and
	// "02/01/2006 15:04" dates.
	LayoutHeader
)

// Positional column indexes for LayoutPositional.
const (
	colType = iota
	colProduct
	colStartedDate
	colCompletedDate
	colDescription
	colAmount
	colFee
	colCurrency
	colState
	colBalance
	positionalNumFields
)

// ParseOptions configures a single import.
type ParseOptions struct {
	// Filename tags each transaction description for provenance and
	// duplicate-file detection.
	Filename string
	// UserID owns the resulting transactions.
	UserID string
	// Month and Year scope the import; rows outside the target month are
	// skipped silently.
	Month time.Month
	Year  int
	// Layout overrides detection when the caller knows the export format.
	Layout Layout
}

// ImportResult is the outcome of one parse. Partial success is a valid
// outcome: Transactions and Errors can both be non-empty.
type ImportResult struct {
	Transactions []domain.Transaction `json:"transactions"`
	// Errors lists row-indexed validation failures. They never abort the
	// import.
	Errors []string `json:"errors"`
	// Warnings carries human-readable notes from amount transforms.
	Warnings []string `json:"warnings"`
	// UnmappedCategories lists descriptions that classified as
	// Uncategorized, unique and in first-seen order, for user review.
	UnmappedCategories []string `json:"unmappedCategories"`
}

// Parser converts Revolut statement exports into normalized transactions.
type Parser struct {
	table *category.Table
	sink  FailureSink
}

// NewParser creates a parser over the given mapping table. The failure sink
// receives failed row batches for later retry; pass nil to disable.
func NewParser(table *category.Table, sink FailureSink) *Parser {
	return &Parser{table: table, sink: sink}
}

// DetectLayout picks the export layout from the first line of the file.
// The positional export has exactly 10 columns; the reduced export has
// fewer.
func DetectLayout(header []byte) Layout {
	r := csv.NewReader(strings.NewReader(string(header)))
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	record, err := r.Read()
	if err != nil {
		return LayoutHeader
	}
	if len(record) == positionalNumFields {
		return LayoutPositional
	}
	return LayoutHeader
}

// Parse reads one statement export and returns normalized, classified,
// deduplicated transactions scoped to the target month.
//
// Validation failures are collected in ImportResult.Errors rather than
// aborting: whatever rows survive are still returned. When any row failed,
// the raw failed batch is recorded through the failure sink before
// returning.
func (p *Parser) Parse(ctx context.Context, r io.Reader, opts ParseOptions) (*ImportResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if opts.UserID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if err := domain.ValidatePeriod(opts.Month, opts.Year); err != nil {
		return nil, err
	}

	result := &ImportResult{
		Transactions:       []domain.Transaction{},
		Errors:             []string{},
		Warnings:           []string{},
		UnmappedCategories: []string{},
	}

	// Size limit is checked before parsing: read one byte past the cap to
	// tell an at-limit file from an over-limit one.
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read statement: %w", err)
	}
	if len(data) > MaxFileSize {
		result.Errors = append(result.Errors,
			fmt.Sprintf("file exceeds the %d byte limit", MaxFileSize))
		return result, nil
	}

	layout := opts.Layout
	if layout == LayoutAuto {
		layout = DetectLayout(data)
	}

	csvReader := csv.NewReader(strings.NewReader(string(data)))
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV content from %s: %w", opts.Filename, err)
	}
	if len(records) < 2 {
		result.Errors = append(result.Errors, "statement contains no transaction rows")
		return result, nil
	}

	cols, err := resolveColumns(layout, records[0])
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	rows := records[1:]
	if len(rows) > MaxTransactions {
		result.Errors = append(result.Errors,
			fmt.Sprintf("file contains %d rows, limit is %d", len(rows), MaxTransactions))
		return result, nil
	}

	var (
		txns       []domain.Transaction
		failedRows [][]string
		unmapped   = make(map[string]bool)
	)

	for i, record := range rows {
		rowNum := i + 2 // 1-based, counting the header line

		row, ok := readRow(record, cols)
		if !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: expected at least %d fields, got %d", rowNum, cols.minFields(), len(record)))
			failedRows = append(failedRows, record)
			continue
		}

		// Admission filters, in order. Later filters assume earlier ones
		// ran. Rows failing these are not data errors; they are skipped
		// silently.
		if !strings.EqualFold(row.state, completedState) {
			continue
		}
		if row.completedDate == "" {
			continue
		}
		rawAmount, err := decimal.NewFromString(row.amount)
		if err != nil || !rawAmount.IsNegative() {
			continue
		}
		if strings.Contains(strings.ToLower(row.description), repaymentMarker) {
			continue
		}

		date, err := time.ParseInLocation(cols.dateFormat, row.completedDate, time.UTC)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: invalid completed date %q", rowNum, row.completedDate))
			failedRows = append(failedRows, record)
			continue
		}
		if date.After(validityCutoff) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: date %s is past the validity cutoff", rowNum, date.Format("2006-01-02")))
			failedRows = append(failedRows, record)
			continue
		}

		// Scoping, not a data error: rows outside the target month are
		// expected in multi-month exports.
		if !monthspan.InImportWindow(date, opts.Month, opts.Year) {
			continue
		}

		match := p.table.Classify(row.description)
		amount, warning := match.Transform(rawAmount)
		if warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", rowNum, warning))
		}
		if match.Category == domain.Uncategorized && !unmapped[row.description] {
			unmapped[row.description] = true
			result.UnmappedCategories = append(result.UnmappedCategories, row.description)
		}

		description := row.description
		if opts.Filename != "" {
			description = fmt.Sprintf("%s (file: %s)", row.description, opts.Filename)
		}

		txn, err := domain.NewTransaction(uuid.NewString(), opts.UserID, date, description, amount, match.Category)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			failedRows = append(failedRows, record)
			continue
		}
		txn.OriginalCategory = row.txnType
		if row.currency != "" {
			txn.Currency = row.currency
		}
		txns = append(txns, *txn)
	}

	result.Transactions = dedup.Dedupe(txns)

	// Persist the failed batch for retry before returning. Sink failures
	// are reported but never mask the parse outcome.
	if len(result.Errors) > 0 && p.sink != nil {
		batch := FailedBatch{
			Filename:  opts.Filename,
			Timestamp: time.Now().UTC(),
			Errors:    result.Errors,
			Rows:      failedRows,
		}
		if err := p.sink.Record(ctx, batch); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to record failed rows for retry: %v", err))
		}
	}

	return result, nil
}

// columnSet resolves field positions and the date format for one layout.
type columnSet struct {
	typeIdx      int
	completedIdx int
	descIdx      int
	amountIdx    int
	currencyIdx  int // -1 when the layout has no currency column
	stateIdx     int
	dateFormat   string
}

func (c columnSet) minFields() int {
	min := c.stateIdx
	for _, idx := range []int{c.typeIdx, c.completedIdx, c.descIdx, c.amountIdx, c.currencyIdx} {
		if idx > min {
			min = idx
		}
	}
	return min + 1
}

// resolveColumns maps the header record to column positions. The positional
// layout trusts fixed indexes; the header layout resolves columns by name.
func resolveColumns(layout Layout, header []string) (columnSet, error) {
	if layout == LayoutPositional {
		if len(header) != positionalNumFields {
			return columnSet{}, fmt.Errorf("positional layout requires %d columns, got %d", positionalNumFields, len(header))
		}
		return columnSet{
			typeIdx:      colType,
			completedIdx: colCompletedDate,
			descIdx:      colDescription,
			amountIdx:    colAmount,
			currencyIdx:  colCurrency,
			stateIdx:     colState,
			dateFormat:   positionalDateFormat,
		}, nil
	}

	byName := make(map[string]int, len(header))
	for i, name := range header {
		byName[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := columnSet{currencyIdx: -1, dateFormat: headerDateFormat}
	required := []struct {
		name string
		idx  *int
	}{
		{"type", &cols.typeIdx},
		{"completed date", &cols.completedIdx},
		{"description", &cols.descIdx},
		{"amount", &cols.amountIdx},
		{"state", &cols.stateIdx},
	}
	for _, col := range required {
		idx, ok := byName[col.name]
		if !ok {
			return columnSet{}, fmt.Errorf("missing required column %q", col.name)
		}
		*col.idx = idx
	}
	if idx, ok := byName["currency"]; ok {
		cols.currencyIdx = idx
	}
	return cols, nil
}

// rawRow is one admitted CSV record with fields extracted by position.
type rawRow struct {
	txnType       string
	completedDate string
	description   string
	amount        string
	currency      string
	state         string
}

func readRow(record []string, cols columnSet) (rawRow, bool) {
	if len(record) < cols.minFields() {
		return rawRow{}, false
	}

	row := rawRow{
		txnType:       strings.TrimSpace(record[cols.typeIdx]),
		completedDate: strings.TrimSpace(record[cols.completedIdx]),
		description:   strings.TrimSpace(record[cols.descIdx]),
		amount:        strings.TrimSpace(record[cols.amountIdx]),
		state:         strings.TrimSpace(record[cols.stateIdx]),
	}
	if cols.currencyIdx >= 0 {
		row.currency = strings.TrimSpace(record[cols.currencyIdx])
	}
	return row, true
}
