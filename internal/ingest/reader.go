package ingest

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// Document is one uploaded file.
type Document struct {
	Name string
	Data []byte
}

// Fingerprint identifies the document by content.
func (d Document) Fingerprint() string {
	sum := sha256.Sum256(d.Data)
	return hex.EncodeToString(sum[:])
}

// RawSheet is a headerless grid of cells. Each cell is a string or a
// float64; xlsx numeric cells keep their numeric type.
type RawSheet [][]any

// ReadSheet decodes the first sheet of an xlsx workbook or a CSV file.
// Any failure is a ParseFailure.
func ReadSheet(doc Document) (RawSheet, error) {
	if len(bytes.TrimSpace(doc.Data)) == 0 {
		return nil, parseFailure(ErrEmptyFile)
	}

	var (
		grid RawSheet
		err  error
	)
	switch {
	case bytes.HasPrefix(doc.Data, zipMagic):
		grid, err = readXLSX(doc.Data)
	case bytes.HasPrefix(doc.Data, oleMagic):
		err = fmt.Errorf("%w: legacy .xls workbook", ErrUnsupportedFormat)
	default:
		grid, err = readCSV(doc.Data)
	}
	if err != nil {
		return nil, parseFailure(err)
	}
	if len(grid) == 0 {
		return nil, parseFailure(ErrEmptyFile)
	}
	return grid, nil
}

func readXLSX(data []byte) (RawSheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	grid := make(RawSheet, len(rows))
	for r, row := range rows {
		cells := make([]any, len(row))
		for c, v := range row {
			cells[c] = typedCell(f, sheet, c, r, v)
		}
		grid[r] = cells
	}
	return grid, nil
}

// typedCell keeps text cells as strings and turns numeric cells into float64.
func typedCell(f *excelize.File, sheet string, col, row int, v string) any {
	if v == "" {
		return ""
	}
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return v
	}
	ct, err := f.GetCellType(sheet, ref)
	if err != nil {
		return v
	}
	switch ct {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeBool, excelize.CellTypeError:
		return v
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

func readCSV(data []byte) (RawSheet, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode windows-1252: %w", err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	grid := make(RawSheet, len(records))
	for i, rec := range records {
		cells := make([]any, len(rec))
		for j, v := range rec {
			cells[j] = v
		}
		grid[i] = cells
	}
	return grid, nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab across
// the first lines. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	lines := strings.SplitN(string(data), "\n", 11)
	if len(lines) > 10 {
		lines = lines[:10]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		count := 0
		for _, l := range lines {
			count += strings.Count(l, string(d))
		}
		if count > bestCount {
			best, bestCount = d, count
		}
	}
	return best
}

// CleanCell trims whitespace, spreadsheet formula wrappers (="...") and
// surrounding quotes from a text cell.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// cellText renders any cell as cleaned text.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return CleanCell(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return CleanCell(fmt.Sprint(x))
	}
}

// textCell renders a free-text cell. Only a balanced ="..." wrapper is
// removed; other quotes and a bare leading = are part of the text.
func textCell(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		s = fmt.Sprint(x)
	}

	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		if inner := s[2 : len(s)-1]; !strings.Contains(inner, `"`) {
			s = strings.TrimSpace(inner)
		}
	}
	return s
}

func isEmptyRow(row []any) bool {
	for _, v := range row {
		if cellText(v) != "" {
			return false
		}
	}
	return true
}
