package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"nistats/lib/table"

	pretty "github.com/jedib0t/go-pretty/v6/table"
)

func outputWriter() (io.Writer, func() error, error) {
	if flagOutput == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(flagOutput)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func render(tbl table.Table, caption string) error {
	w, closeOutput, err := outputWriter()
	if err != nil {
		return err
	}

	switch flagFormat {
	case "table":
		renderPretty(w, tbl, caption)
	case "csv":
		err = renderCsv(w, tbl)
	case "json":
		err = renderJson(w, tbl)
	default:
		err = fmt.Errorf("unknown output format %q", flagFormat)
	}

	// a failed close means the file did not flush to disk
	if closeErr := closeOutput(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func renderPretty(w io.Writer, tbl table.Table, caption string) {
	t := pretty.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(pretty.StyleLight)
	if caption != "" {
		t.SetCaption("%s", caption)
	}

	header := pretty.Row{"Period"}
	for _, dim := range tbl.Dims {
		header = append(header, dim)
	}
	header = append(header, "Value")
	t.AppendHeader(header)

	for _, row := range tbl.Rows {
		out := pretty.Row{row.Period}
		for _, dim := range tbl.Dims {
			out = append(out, row.Dims[dim])
		}
		out = append(out, formatValue(row))
		t.AppendRow(out)
	}
	t.Render()
}

func renderCsv(w io.Writer, tbl table.Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{"period"}, tbl.Dims...)
	header = append(header, "value")
	err := cw.Write(header)
	if err != nil {
		return err
	}

	for _, row := range tbl.Rows {
		record := []string{row.Period}
		for _, dim := range tbl.Dims {
			record = append(record, row.Dims[dim])
		}
		record = append(record, formatValue(row))
		err := cw.Write(record)
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderJson(w io.Writer, tbl table.Table) error {
	type observation struct {
		Period string            `json:"period"`
		Dims   map[string]string `json:"dims,omitempty"`
		Value  *float64          `json:"value"`
	}

	out := make([]observation, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		obs := observation{Period: row.Period, Dims: row.Dims}
		if !row.Missing {
			v := row.Value
			obs.Value = &v
		}
		out = append(out, obs)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// missing prints as the sentinel it arrived as, never as zero
func formatValue(row table.Row) string {
	if row.Missing {
		return "-"
	}
	return strconv.FormatFloat(row.Value, 'f', -1, 64)
}
