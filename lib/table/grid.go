package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadGrid loads a downloaded file into a cell matrix, dispatching on
// the extension the cache preserved from the source url.
func ReadGrid(path, sheet string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, sheet)
	}
	return nil, fmt.Errorf("unsupported file extension on %q", path)
}

func ReadCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	// publisher csvs have ragged footers and stray quotes
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// ReadXLSX reads one sheet as a cell matrix. An empty sheet name means
// the first sheet in the workbook.
func ReadXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %q has no sheets", path)
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet)
}
