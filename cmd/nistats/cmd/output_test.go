package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"nistats/lib/table"

	"github.com/stretchr/testify/require"
)

func exampleTable() table.Table {
	return table.Table{
		Dims: []string{"sex"},
		Rows: []table.Row{
			{Period: "March 2024", Dims: map[string]string{"sex": "Male"}, Value: 820},
			{Period: "March 2024", Dims: map[string]string{"sex": "Female"}, Value: 790},
			{Period: "March 2024", Dims: map[string]string{"sex": "Persons"}, Missing: true},
		},
	}
}

func TestRenderWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "births.csv")
	flagFormat = "csv"
	flagOutput = path
	t.Cleanup(func() { flagFormat = "table"; flagOutput = "" })

	require.NoError(t, render(exampleTable(), ""))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t,
		"period,sex,value\n"+
			"March 2024,Male,820\n"+
			"March 2024,Female,790\n"+
			"March 2024,Persons,-\n",
		string(contents),
	)
}

func TestRenderOutputFileNotWritable(t *testing.T) {
	// the output path's directory does not exist, so opening the file
	// fails and render must surface it instead of exiting clean
	flagFormat = "csv"
	flagOutput = filepath.Join(t.TempDir(), "missing", "births.csv")
	t.Cleanup(func() { flagFormat = "table"; flagOutput = "" })

	require.Error(t, render(exampleTable(), ""))
}

func TestRenderUnknownFormat(t *testing.T) {
	flagFormat = "yaml"
	t.Cleanup(func() { flagFormat = "table" })

	err := render(exampleTable(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "yaml")
}
