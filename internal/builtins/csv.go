package builtins

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xlake-project/xlake/internal/value"
)

// readCSV reads path's header row and every subsequent row as plain string
// cells, the shape column-type inference runs over.
func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csvsrc: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("csvsrc: parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// inferIntegerColumns reports, per column index, whether every row's cell
// in that column parses as a base-10 integer — the same "attempt integer
// parse of every row" rule srcs/local/csv.rs applies.
func inferIntegerColumns(header []string, rows [][]string) []bool {
	isInt := make([]bool, len(header))
	for i := range header {
		isInt[i] = true
	}
	for _, row := range rows {
		for i := range header {
			if i >= len(row) {
				isInt[i] = false
				continue
			}
			if _, err := strconv.ParseInt(row[i], 10, 64); err != nil {
				isInt[i] = false
			}
		}
	}
	return isInt
}

func parseIntCell(cell string) value.Value {
	n, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		return value.String(cell)
	}
	return value.Int(n)
}
