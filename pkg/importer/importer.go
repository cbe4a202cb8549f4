// Package importer loads tool rack spreadsheets into tool_rack_layout.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tealeg/xlsx/v3"

	"tool-rack-lookup/internal/models"
)

const (
	defaultMaxErrors = 50
	maxSamples       = 10
	rackMin, rackMax = 1, 40
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ImportOptions configures one import run.
type ImportOptions struct {
	CustomerID  int64
	Sheet       string // overrides the mapping's sheet; default is the first sheet
	MappingPath string // "" uses the embedded mapping
	DryRun      bool
	MaxErrors   int // default 50
}

// RowError describes a problem with one spreadsheet row. Row is 1-based as
// shown in spreadsheet tools.
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Updated  int        `json:"updated"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Warnings int        `json:"warnings"`
	Samples  []RowError `json:"error_samples,omitempty"`
	Warned   []RowError `json:"warning_samples,omitempty"`
}

type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Warnings int            `json:"warnings"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

// ErrTooManyErrors stops an import once the row error budget is exhausted.
var ErrTooManyErrors = errors.New("too many row errors")

// rowWriter persists one mapped tool and reports whether it was newly inserted.
type rowWriter interface {
	Upsert(ctx context.Context, customerID int64, t models.Tool) (inserted bool, err error)
}

// ImportExcel reads an .xlsx workbook and upserts its rows for one customer
// inside a single transaction. A dry run rolls the transaction back.
func ImportExcel(ctx context.Context, db *pgxpool.Pool, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{DryRun: opts.DryRun, Sheets: []SheetSummary{}}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = defaultMaxErrors
	}

	mapping, err := LoadMapping(opts.MappingPath)
	if err != nil {
		return summary, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("read workbook: %w", err)
	}
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("open workbook: %w", err)
	}

	sheet, err := pickSheet(file, opts.Sheet, mapping.Sheet)
	if err != nil {
		return summary, err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return summary, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := customerExists(ctx, tx, opts.CustomerID); err != nil {
		return summary, err
	}

	sheetSummary, err := processSheet(ctx, txWriter{tx: tx}, sheet, mapping, opts)
	summary.add(sheetSummary)
	if err != nil {
		return summary, err
	}

	if opts.DryRun {
		return summary, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return summary, fmt.Errorf("commit import: %w", err)
	}
	return summary, nil
}

func (s *ImportSummary) add(sheet SheetSummary) {
	s.Sheets = append(s.Sheets, sheet)
	s.Inserted += sheet.Inserted
	s.Updated += sheet.Updated
	s.Skipped += sheet.Skipped
	s.Errors += sheet.Errors
	s.Warnings += sheet.Warnings
}

func pickSheet(file *xlsx.File, override, fromMapping string) (*xlsx.Sheet, error) {
	name := override
	if name == "" {
		name = fromMapping
	}
	if name == "" {
		if len(file.Sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		return file.Sheets[0], nil
	}
	sheet, ok := file.Sheet[name]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", name)
	}
	return sheet, nil
}

func customerExists(ctx context.Context, tx pgx.Tx, customerID int64) error {
	sql, args, err := psql.Select("1").From("customers").Where(sq.Eq{"id": customerID}).ToSql()
	if err != nil {
		return err
	}
	var one int
	if err := tx.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("customer %d not found", customerID)
		}
		return fmt.Errorf("look up customer %d: %w", customerID, err)
	}
	return nil
}

func processSheet(ctx context.Context, w rowWriter, sheet *xlsx.Sheet, mapping *MappingConfig, opts ImportOptions) (SheetSummary, error) {
	summary := SheetSummary{Name: sheet.Name}

	if sheet.MaxRow == 0 {
		return summary, fmt.Errorf("sheet %q is empty", sheet.Name)
	}
	header, err := readRow(sheet, 0)
	if err != nil {
		return summary, fmt.Errorf("read header row: %w", err)
	}
	cols, err := mapping.ResolveHeaders(header)
	if err != nil {
		return summary, fmt.Errorf("sheet %q: %w", sheet.Name, err)
	}

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		cells, err := readRow(sheet, rowIdx)
		if err != nil {
			summary.fail(rowIdx, err)
			continue
		}
		if blank(cells) {
			summary.Skipped++
			continue
		}

		tool, warnings, err := MapRow(cols, cells)
		for _, msg := range warnings {
			summary.warn(rowIdx, msg)
		}
		if err != nil {
			summary.fail(rowIdx, err)
		} else if inserted, err := w.Upsert(ctx, opts.CustomerID, tool); err != nil {
			summary.fail(rowIdx, err)
		} else if inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}

		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("%w: %d in sheet %q", ErrTooManyErrors, summary.Errors, sheet.Name)
		}
	}
	return summary, nil
}

func (s *SheetSummary) fail(rowIdx int, err error) {
	s.Errors++
	if len(s.Samples) < maxSamples {
		s.Samples = append(s.Samples, RowError{Sheet: s.Name, Row: rowIdx + 1, Message: err.Error()})
	}
}

func (s *SheetSummary) warn(rowIdx int, msg string) {
	s.Warnings++
	if len(s.Warned) < maxSamples {
		s.Warned = append(s.Warned, RowError{Sheet: s.Name, Row: rowIdx + 1, Message: msg})
	}
}

func readRow(sheet *xlsx.Sheet, idx int) ([]string, error) {
	row, err := sheet.Row(idx)
	if err != nil {
		return nil, err
	}
	cells := make([]string, sheet.MaxCol)
	for col := 0; col < sheet.MaxCol; col++ {
		cells[col] = strings.TrimSpace(row.GetCell(col).String())
	}
	return cells, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// MapRow converts one row's cells into a Tool using the resolved header
// positions. Rack numbers outside the physical rack are returned as warnings.
func MapRow(cols map[int]string, cells []string) (models.Tool, []string, error) {
	var (
		t        models.Tool
		warnings []string
	)
	for idx, col := range cols {
		if idx >= len(cells) || cells[idx] == "" {
			continue
		}
		v := cells[idx]
		switch col {
		case "tool_no":
			t.ToolNo = v
		case "wo_no":
			t.WorkOrderNo = v
		case "rack_no":
			t.RackNo = v
			if n, err := strconv.Atoi(v); err != nil || strconv.Itoa(n) != v || n < rackMin || n > rackMax {
				warnings = append(warnings, fmt.Sprintf("rack number %q is outside %d-%d and will not be highlighted", v, rackMin, rackMax))
			}
		case "location":
			t.Location = v
		case "name":
			t.Name = &v
		case "description":
			t.Description = &v
		case "category":
			t.Category = &v
		case "status":
			status, err := ParseStatus(v)
			if err != nil {
				return t, warnings, err
			}
			t.Status = &status
		case "last_maintained":
			ts, err := ParseDate(v)
			if err != nil {
				return t, warnings, err
			}
			t.LastMaintained = &ts
		case "image_url":
			t.ImageURL = &v
		}
	}
	if t.ToolNo == "" {
		return t, warnings, errors.New("tool number is empty")
	}
	return t, warnings, nil
}

// ParseStatus accepts stored values and their display labels, e.g. "In Use".
func ParseStatus(s string) (string, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case models.ToolStatusAvailable, models.ToolStatusInUse, models.ToolStatusMaintenance:
		return norm, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
}

func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

type txWriter struct {
	tx pgx.Tx
}

// Upsert writes one tool under a savepoint so a failing row does not abort
// the surrounding transaction.
func (w txWriter) Upsert(ctx context.Context, customerID int64, t models.Tool) (bool, error) {
	sql, args, err := upsertQuery(customerID, t).ToSql()
	if err != nil {
		return false, err
	}

	sp, err := w.tx.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("savepoint: %w", err)
	}
	var inserted bool
	if err := sp.QueryRow(ctx, sql, args...).Scan(&inserted); err != nil {
		_ = sp.Rollback(ctx)
		return false, fmt.Errorf("upsert tool %s: %w", t.ToolNo, err)
	}
	if err := sp.Commit(ctx); err != nil {
		return false, fmt.Errorf("release savepoint: %w", err)
	}
	return inserted, nil
}

func upsertQuery(customerID int64, t models.Tool) sq.InsertBuilder {
	return psql.Insert("tool_rack_layout").
		Columns("customer_id", "tool_no", "wo_no", "rack_no", "location",
			"name", "description", "category", "status", "last_maintained", "image_url").
		Values(customerID, t.ToolNo, t.WorkOrderNo, t.RackNo, t.Location,
			t.Name, t.Description, t.Category, t.Status, t.LastMaintained, t.ImageURL).
		Suffix(`ON CONFLICT (customer_id, tool_no) DO UPDATE SET
			wo_no = COALESCE(NULLIF(EXCLUDED.wo_no, ''), tool_rack_layout.wo_no),
			rack_no = COALESCE(NULLIF(EXCLUDED.rack_no, ''), tool_rack_layout.rack_no),
			location = COALESCE(NULLIF(EXCLUDED.location, ''), tool_rack_layout.location),
			name = COALESCE(EXCLUDED.name, tool_rack_layout.name),
			description = COALESCE(EXCLUDED.description, tool_rack_layout.description),
			category = COALESCE(EXCLUDED.category, tool_rack_layout.category),
			status = COALESCE(EXCLUDED.status, tool_rack_layout.status),
			last_maintained = COALESCE(EXCLUDED.last_maintained, tool_rack_layout.last_maintained),
			image_url = COALESCE(EXCLUDED.image_url, tool_rack_layout.image_url),
			updated_at = now()
		RETURNING (xmax = 0) AS inserted`)
}
