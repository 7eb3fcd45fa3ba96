// Package table turns messy publisher grids (csv or spreadsheet cell
// matrices) into long-format tables: one row per temporal/categorical
// key combination with a single numeric measure.
package table

import (
	"strconv"
	"strings"

	"nistats/lib/errs"
	"nistats/lib/textutil"
)

// Row is one observation. A suppressed or unavailable source cell is
// Missing, which is deliberately distinct from zero: rates can be
// legitimately zero.
type Row struct {
	Period  string
	Dims    map[string]string
	Value   float64
	Missing bool
}

type Table struct {
	// dimension column names in a fixed order
	Dims []string
	Rows []Row
}

// sentinel cell values publishers use for suppressed/unavailable
// figures. mapped to missing, never to zero.
var sentinels = map[string]bool{
	"":    true,
	"-":   true,
	"–":   true,
	"..":  true,
	"*":   true,
	"n/a": true,
}

// ParseValue coerces a cell to a number. The second return is true
// when the cell held a missing-value sentinel.
func ParseValue(cell string) (float64, bool, error) {
	cell = strings.TrimSpace(cell)
	if sentinels[strings.ToLower(cell)] {
		return 0, true, nil
	}
	cell = strings.ReplaceAll(cell, ",", "")
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false, err
	}
	return v, false, nil
}

// FindHeaderRow scans the first `window` rows for the first one where
// every wanted substring (pre-normalized) occurs in some cell.
func FindHeaderRow(grid [][]string, window int, want []string) (int, bool) {
	if window > len(grid) {
		window = len(grid)
	}
	for i := 0; i < window; i++ {
		if rowMatchesHeader(grid[i], want) {
			return i, true
		}
	}
	return 0, false
}

func rowMatchesHeader(row []string, want []string) bool {
	for _, w := range want {
		found := false
		for _, cell := range row {
			if strings.Contains(textutil.NormalizeName(cell), w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return len(want) > 0
}

// Schema describes how to find and reshape the data region of a grid.
type Schema struct {
	// spreadsheet sheet name, empty means the first sheet
	Sheet string
	// how many leading rows to scan for the header, default 10
	HeaderWindow int
	// pre-normalized substrings that identify the header row, all must
	// occur somewhere in it
	HeaderMatch []string
	// raw header name (normalized) -> standard vocabulary name.
	// unmapped source columns are dropped.
	Rename map[string]string
	// standard name of the temporal key column
	Period string
	// standard names of the categorical dimension columns
	DimColumns []string
	// standard name of the measure column, for grids already in long
	// format. mutually exclusive with WideColumns.
	Value string
	// standard names of measure columns to melt into long format
	WideColumns []string
	// dimension the melted column labels become categories of
	WideDim string
	// standard column names whose blank cells repeat the value above
	// (merged cells in the source arrive this way)
	ForwardFill []string
}

func (s Schema) window() int {
	if s.HeaderWindow <= 0 {
		return 10
	}
	return s.HeaderWindow
}

// Normalize locates the header row, renames columns to the standard
// vocabulary, forward-fills merged-cell gaps, melts wide measure
// columns and coerces values. The output depends only on the input
// grid. Structural problems surface as validation errors scoped to
// `source`.
func Normalize(source string, grid [][]string, schema Schema) (Table, error) {
	headerIdx, ok := FindHeaderRow(grid, schema.window(), schema.HeaderMatch)
	if !ok {
		return Table{}, errs.Validation(
			source,
			"no header row matching %v within the first %d rows",
			schema.HeaderMatch, schema.window(),
		)
	}

	colIdx := map[string]int{}
	for i, cell := range grid[headerIdx] {
		standard, ok := schema.Rename[textutil.NormalizeName(cell)]
		if !ok {
			continue
		}
		if _, dup := colIdx[standard]; !dup {
			colIdx[standard] = i
		}
	}

	required := append([]string{schema.Period}, schema.DimColumns...)
	if schema.Value != "" {
		required = append(required, schema.Value)
	}
	required = append(required, schema.WideColumns...)
	for _, name := range required {
		if _, ok := colIdx[name]; !ok {
			return Table{}, errs.Validation(source, "required column %q absent after renaming", name)
		}
	}

	fill := map[string]bool{}
	for _, name := range schema.ForwardFill {
		fill[name] = true
	}

	dims := append([]string{}, schema.DimColumns...)
	if schema.WideDim != "" {
		dims = append(dims, schema.WideDim)
	}

	out := Table{Dims: dims}
	previous := map[string]string{}
	for _, raw := range grid[headerIdx+1:] {
		if blankRow(raw) {
			continue
		}

		cellAt := func(name string) string {
			i := colIdx[name]
			if i >= len(raw) {
				return ""
			}
			cell := strings.TrimSpace(raw[i])
			if cell == "" && fill[name] {
				cell = previous[name]
			} else if fill[name] {
				previous[name] = cell
			}
			return cell
		}

		period := cellAt(schema.Period)
		if period == "" {
			continue
		}
		rowDims := map[string]string{}
		for _, name := range schema.DimColumns {
			rowDims[name] = cellAt(name)
		}

		if schema.Value != "" {
			v, missing, err := ParseValue(cellAt(schema.Value))
			if err != nil {
				return Table{}, errs.Validation(
					source, "bad value %q in column %q for period %q",
					cellAt(schema.Value), schema.Value, period,
				).Wrap(err)
			}
			out.Rows = append(out.Rows, Row{
				Period:  period,
				Dims:    rowDims,
				Value:   v,
				Missing: missing,
			})
			continue
		}

		for _, wide := range schema.WideColumns {
			v, missing, err := ParseValue(cellAt(wide))
			if err != nil {
				return Table{}, errs.Validation(
					source, "bad value %q in column %q for period %q",
					cellAt(wide), wide, period,
				).Wrap(err)
			}
			meltDims := map[string]string{schema.WideDim: wide}
			for k, v := range rowDims {
				meltDims[k] = v
			}
			out.Rows = append(out.Rows, Row{
				Period:  period,
				Dims:    meltDims,
				Value:   v,
				Missing: missing,
			})
		}
	}

	return out, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
