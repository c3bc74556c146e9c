package ingest

import "strings"

// DefaultScanWindow is how many leading rows are searched for the header.
const DefaultScanWindow = 10

// DefaultHeaderTokens: a header row mentions an amount and a status.
var DefaultHeaderTokens = [][]string{
	{"monto"},
	{"estado", "estatus"},
}

// LocateHeader returns the index of the first row within scanWindow rows
// that satisfies every token set. A row satisfies a set when some cell,
// lower-cased, contains one of the set's tokens. Earliest match wins.
func LocateHeader(grid RawSheet, scanWindow int, tokenSets [][]string) (int, bool) {
	if scanWindow <= 0 {
		scanWindow = DefaultScanWindow
	}
	limit := min(scanWindow, len(grid))

	for i := 0; i < limit; i++ {
		if rowMatches(grid[i], tokenSets) {
			return i, true
		}
	}
	return -1, false
}

func rowMatches(row []any, tokenSets [][]string) bool {
	if len(tokenSets) == 0 {
		return false
	}
	cells := make([]string, len(row))
	for i, v := range row {
		cells[i] = strings.ToLower(cellText(v))
	}
	for _, set := range tokenSets {
		if !anyCellContains(cells, set) {
			return false
		}
	}
	return true
}

func anyCellContains(cells, tokens []string) bool {
	for _, c := range cells {
		if c == "" {
			continue
		}
		for _, tok := range tokens {
			if strings.Contains(c, strings.ToLower(tok)) {
				return true
			}
		}
	}
	return false
}
