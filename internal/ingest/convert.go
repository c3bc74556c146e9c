package ingest

// convert.go coerces raw cells into typed record values.
//
// Cells come from two sources: xlsx numeric cells arrive as float64 (amounts
// and Excel serial dates), everything else as text. Text dates are read
// day-first, as exported by Mexican branch systems.

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/loanledger/internal/core"
)

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// Day-first layouts, tried in order. Layouts with a 2-digit year use Go's
// fixed pivot (69-99 is 19xx, 00-68 is 20xx) so parsing stays pure.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2-1-2006",
	"2.1.2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"2/1/06",
	"2-1-06",
	"2.1.06",
}

// NormalizeAmount coerces a cell to an amount. Numeric cells pass through
// unchanged. Text is stripped of currency symbols and separators. Anything
// unparseable, including blank, is 0 with ok=false.
func NormalizeAmount(v any) (amount float64, ok bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		if f, ok := core.ParseMoney(CleanCell(x)); ok {
			return f, true
		}
	}
	return 0, false
}

// ParseDate coerces a cell to a nullable date at midnight UTC.
func ParseDate(v any) pgtype.Date {
	switch x := v.(type) {
	case float64:
		return serialDate(x)
	case time.Time:
		return dateOf(x)
	case string:
		return parseDateText(CleanCell(x))
	}
	return pgtype.Date{}
}

func serialDate(serial float64) pgtype.Date {
	if serial < 1 || serial > maxExcelSerial {
		return pgtype.Date{}
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return pgtype.Date{}
	}
	return dateOf(t)
}

func parseDateText(s string) pgtype.Date {
	if s == "" {
		return pgtype.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOf(t)
		}
	}
	return pgtype.Date{}
}

func dateOf(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// textOr returns the cleaned cell text, or def when blank.
func textOr(v any, def string) string {
	if s := collapseSpace(cellText(v)); s != "" {
		return s
	}
	return def
}

// freeTextOr returns free text with runs of whitespace collapsed, or def when
// blank.
func freeTextOr(v any, def string) string {
	if s := collapseSpace(textCell(v)); s != "" {
		return s
	}
	return def
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
