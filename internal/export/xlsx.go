// Package export writes the edited ledger as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/loanledger/internal/core"
)

// SheetName is the single data sheet of an export.
const SheetName = "Datos Editados"

// ContentType is the MIME type of an export.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Headers are the column titles, in column order.
var Headers = []string{
	"ID Solicitud",
	"Cliente",
	"Monto a financiar",
	"Estado",
	"Operador coloca",
	"Lote",
	"Fecha de creación",
	"Último cambio de estado",
	"Días transcurridos",
	"Notas",
}

const (
	moneyFormat = "#,##0.00"
	dateFormat  = "dd/mm/yyyy"
)

// Write encodes records as an xlsx workbook. Amounts are numeric cells,
// dates are date cells and statuses are text.
func Write(w io.Writer, records []core.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range records {
		row := []any{
			r.ID,
			r.Client,
			r.Amount,
			string(r.Status),
			r.Advisor,
			r.Lot,
			dateCell(r.CreatedAt),
			dateCell(r.ClosedAt),
			r.DaysOpen,
			r.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if n := len(records); n > 0 {
		last := n + 1
		if err := f.SetCellStyle(SheetName, "C2", fmt.Sprintf("C%d", last), styles.money); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
		if err := f.SetCellStyle(SheetName, "G2", fmt.Sprintf("H%d", last), styles.date); err != nil {
			return fmt.Errorf("style dates: %w", err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "J", 18); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type styleSet struct {
	header int
	money  int
	date   int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error

	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	money := moneyFormat
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &money}); err != nil {
		return s, fmt.Errorf("money style: %w", err)
	}
	date := dateFormat
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &date}); err != nil {
		return s, fmt.Errorf("date style: %w", err)
	}
	return s, nil
}

func dateCell(d pgtype.Date) any {
	if !d.Valid {
		return nil
	}
	return d.Time
}
