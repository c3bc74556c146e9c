package ingest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/JonMunkholm/loanledger/internal/core"
	"github.com/JonMunkholm/loanledger/internal/logging"
)

// NoFallback disables the fallback header row.
const NoFallback = -1

// contextCheckInterval is how many rows are processed between ctx checks.
const contextCheckInterval = 100

// Options configures a Pipeline.
type Options struct {
	ScanWindow   int
	HeaderTokens [][]string
	// FallbackHeaderRow is used when no header is found in the scan window.
	// NoFallback makes that case a HeaderNotFound failure.
	FallbackHeaderRow int
	Synonyms          Synonyms
}

// DefaultOptions returns the standard ingestion settings.
func DefaultOptions() Options {
	return Options{
		ScanWindow:        DefaultScanWindow,
		HeaderTokens:      DefaultHeaderTokens,
		FallbackHeaderRow: 2,
		Synonyms:          DefaultSynonyms(),
	}
}

// Pipeline turns documents into ledgers. It holds no state between calls.
type Pipeline struct {
	opts Options
}

// NewPipeline creates a pipeline. Zero-valued scan window, tokens and
// synonyms take their defaults.
func NewPipeline(opts Options) *Pipeline {
	if opts.ScanWindow <= 0 {
		opts.ScanWindow = DefaultScanWindow
	}
	if len(opts.HeaderTokens) == 0 {
		opts.HeaderTokens = DefaultHeaderTokens
	}
	if len(opts.Synonyms) == 0 {
		opts.Synonyms = DefaultSynonyms()
	}
	return &Pipeline{opts: opts}
}

// Report describes what an ingestion did to the source rows.
type Report struct {
	Fingerprint     string         `json:"fingerprint"`
	FileName        string         `json:"fileName"`
	HeaderRow       int            `json:"headerRow"`
	HeaderFallback  bool           `json:"headerFallback"`
	Columns         Mapping        `json:"columns"`
	RowsRead        int            `json:"rowsRead"`
	RowsSkipped     int            `json:"rowsSkipped"`
	UnknownStatuses map[string]int `json:"unknownStatuses,omitempty"`
	InvalidAmounts  int            `json:"invalidAmounts"`
	ClampedAmounts  int            `json:"clampedAmounts"`
	GeneratedIDs    int            `json:"generatedIds"`
	DuplicateIDs    []string       `json:"duplicateIds,omitempty"`
	EvaluatedAt     time.Time      `json:"evaluatedAt"`
}

// Clone returns a deep copy.
func (r Report) Clone() Report {
	r.Columns = maps.Clone(r.Columns)
	r.UnknownStatuses = maps.Clone(r.UnknownStatuses)
	r.DuplicateIDs = slices.Clone(r.DuplicateIDs)
	return r
}

// Result is a successful ingestion.
type Result struct {
	Ledger *core.Ledger
	Report Report
}

// Clone returns a copy whose ledger can be edited independently.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	return &Result{Ledger: r.Ledger.Clone(), Report: r.Report.Clone()}
}

// Ingest reads doc and builds a ledger. now is the evaluation instant for
// derived fields. Failures are *Error values.
func (p *Pipeline) Ingest(ctx context.Context, doc Document, now time.Time) (*Result, error) {
	grid, err := ReadSheet(doc)
	if err != nil {
		return nil, err
	}
	res, err := p.Build(ctx, grid, now)
	if err != nil {
		return nil, err
	}
	res.Report.Fingerprint = doc.Fingerprint()
	res.Report.FileName = doc.Name
	return res, nil
}

// Build runs header location, column mapping, normalization and derivation
// over an already-read grid.
func (p *Pipeline) Build(ctx context.Context, grid RawSheet, now time.Time) (*Result, error) {
	logger := logging.FromContext(ctx)

	headerRow, fallback, err := p.locate(grid)
	if err != nil {
		return nil, err
	}
	if fallback {
		logger.Warn("header not found in scan window, using fallback row",
			"scan_window", p.opts.ScanWindow,
			"row", headerRow,
		)
	}

	header := make([]string, len(grid[headerRow]))
	for i, v := range grid[headerRow] {
		header[i] = cellText(v)
	}

	mapping := Resolve(header, p.opts.Synonyms)
	if missing := mapping.Missing(); len(missing) > 0 {
		return nil, &Error{Kind: KindMissingRequiredColumns, Missing: missing}
	}
	logger.Debug("columns resolved", "header_row", headerRow, "columns", len(mapping))

	report := Report{
		HeaderRow:      headerRow,
		HeaderFallback: fallback,
		Columns:        mapping,
		EvaluatedAt:    now,
	}

	b := rowBuilder{mapping: mapping, now: now, report: &report, seen: make(map[string]bool)}
	var records []core.Record
	for i := headerRow + 1; i < len(grid); i++ {
		if (i-headerRow)%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("ingestion cancelled: %w", err)
			}
		}

		report.RowsRead++
		rec, ok := b.build(grid[i], i+1)
		if !ok {
			report.RowsSkipped++
			continue
		}
		records = append(records, rec)
	}

	ledger, err := core.NewLedger(records)
	if err != nil {
		return nil, parseFailure(fmt.Errorf("build ledger: %w", err))
	}

	logger.Info("ingestion complete",
		"header_row", headerRow,
		"records", ledger.Len(),
		"skipped", report.RowsSkipped,
		"clamped_amounts", report.ClampedAmounts,
		"duplicate_ids", len(report.DuplicateIDs),
	)
	return &Result{Ledger: ledger, Report: report}, nil
}

func (p *Pipeline) locate(grid RawSheet) (row int, fallback bool, err error) {
	if len(grid) == 0 {
		return 0, false, parseFailure(ErrEmptyFile)
	}
	if row, ok := LocateHeader(grid, p.opts.ScanWindow, p.opts.HeaderTokens); ok {
		return row, false, nil
	}
	fb := p.opts.FallbackHeaderRow
	if fb < 0 || fb >= len(grid) {
		return 0, false, &Error{Kind: KindHeaderNotFound, ScanWindow: p.opts.ScanWindow}
	}
	return fb, true, nil
}

// rowBuilder normalizes data rows into records.
type rowBuilder struct {
	mapping Mapping
	now     time.Time
	report  *Report
	seen    map[string]bool
}

func (b *rowBuilder) cell(row []any, f core.Field) any {
	col, ok := b.mapping.Lookup(f)
	if !ok || col.Index >= len(row) {
		return nil
	}
	return row[col.Index]
}

// build returns false for rows that carry neither an id nor an amount.
func (b *rowBuilder) build(row []any, line int) (core.Record, bool) {
	if isEmptyRow(row) {
		return core.Record{}, false
	}

	id := textOr(b.cell(row, core.FieldID), "")
	rawAmount := b.cell(row, core.FieldAmount)
	if id == "" && cellText(rawAmount) == "" {
		return core.Record{}, false
	}

	if id == "" {
		id = fmt.Sprintf("ROW-%d", line)
		b.report.GeneratedIDs++
	}
	id = b.unique(id)

	amount, ok := NormalizeAmount(rawAmount)
	if !ok && cellText(rawAmount) != "" {
		b.report.InvalidAmounts++
	}
	if amount < 0 {
		amount = 0
		b.report.ClampedAmounts++
	}

	rawStatus := collapseSpace(cellText(b.cell(row, core.FieldStatus)))
	status, ok := core.ParseStatus(rawStatus)
	if !ok {
		status = core.StatusSolicitud
		if b.report.UnknownStatuses == nil {
			b.report.UnknownStatuses = make(map[string]int)
		}
		b.report.UnknownStatuses[rawStatus]++
	}

	created := ParseDate(b.cell(row, core.FieldCreatedAt))
	closed := ParseDate(b.cell(row, core.FieldClosedAt))

	return core.Record{
		ID:        id,
		Client:    freeTextOr(b.cell(row, core.FieldClient), core.DefaultClient),
		Amount:    amount,
		Status:    status,
		Advisor:   freeTextOr(b.cell(row, core.FieldAdvisor), core.DefaultAdvisor),
		Lot:       freeTextOr(b.cell(row, core.FieldLot), core.DefaultLot),
		CreatedAt: created,
		ClosedAt:  closed,
		DaysOpen:  DaysOpen(created, closed, b.now),
		Notes:     textCell(b.cell(row, core.FieldNotes)),
	}, true
}

// unique suffixes repeated ids with -2, -3 and so on.
func (b *rowBuilder) unique(id string) string {
	if !b.seen[id] {
		b.seen[id] = true
		return id
	}
	b.report.DuplicateIDs = append(b.report.DuplicateIDs, id)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if !b.seen[candidate] {
			b.seen[candidate] = true
			return candidate
		}
	}
}
