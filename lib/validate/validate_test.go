package validate

import (
	"context"
	"testing"

	"nistats/lib/errs"
	"nistats/lib/table"

	"github.com/stretchr/testify/require"
)

func birthsRow(period, sex string, value float64) table.Row {
	return table.Row{
		Period: period,
		Dims:   map[string]string{"sex": sex},
		Value:  value,
	}
}

func birthsTable() table.Table {
	return table.Table{
		Dims: []string{"sex"},
		Rows: []table.Row{
			birthsRow("January 2024", "Male", 840),
			birthsRow("January 2024", "Female", 800),
			birthsRow("January 2024", "Persons", 1640),
			birthsRow("February 2024", "Male", 750),
			birthsRow("February 2024", "Female", 760),
			birthsRow("February 2024", "Persons", 1510),
			birthsRow("March 2024", "Male", 820),
			birthsRow("March 2024", "Female", 790),
			birthsRow("March 2024", "Persons", 1610),
		},
	}
}

var sexSumsToPersons = Relationship{
	Name:  "male+female equals persons",
	Dim:   "sex",
	Total: "Persons",
	Parts: []string{"Male", "Female"},
}

func TestCheckPasses(t *testing.T) {
	err := Check(context.Background(), "nisra", birthsTable(), []Relationship{sexSumsToPersons})
	require.NoError(t, err)
}

func TestCheckNamesOffendingGroup(t *testing.T) {
	tbl := birthsTable()
	// perturb February's male count by one unit
	tbl.Rows[3].Value = 751

	err := Check(context.Background(), "nisra", tbl, []Relationship{sexSumsToPersons})
	require.Error(t, err)
	require.True(t, errs.IsValidation(err))
	require.Contains(t, err.Error(), "February 2024")
	require.NotContains(t, err.Error(), "January 2024")
}

func TestCheckTolerance(t *testing.T) {
	tbl := table.Table{
		Dims: []string{"sex"},
		Rows: []table.Row{
			birthsRow("Q1 2024", "Male", 10.02),
			birthsRow("Q1 2024", "Female", 10.01),
			birthsRow("Q1 2024", "Persons", 20.0),
		},
	}

	rel := sexSumsToPersons
	rel.Tolerance = 0.05
	require.NoError(t, Check(context.Background(), "nisra", tbl, []Relationship{rel}))

	rel.Tolerance = 0.001
	require.Error(t, Check(context.Background(), "nisra", tbl, []Relationship{rel}))
}

func TestCheckSkipsMissingGroups(t *testing.T) {
	tbl := birthsTable()
	// provisional month: all cells suppressed
	tbl.Rows = append(tbl.Rows,
		table.Row{Period: "April 2024", Dims: map[string]string{"sex": "Male"}, Missing: true},
		table.Row{Period: "April 2024", Dims: map[string]string{"sex": "Female"}, Missing: true},
		table.Row{Period: "April 2024", Dims: map[string]string{"sex": "Persons"}, Missing: true},
	)

	require.NoError(t, Check(context.Background(), "nisra", tbl, []Relationship{sexSumsToPersons}))
}

func TestCheckGroupsByOtherDims(t *testing.T) {
	tbl := table.Table{
		Dims: []string{"geography", "sex"},
		Rows: []table.Row{
			{Period: "2024", Dims: map[string]string{"geography": "Belfast", "sex": "Male"}, Value: 5},
			{Period: "2024", Dims: map[string]string{"geography": "Belfast", "sex": "Female"}, Value: 6},
			{Period: "2024", Dims: map[string]string{"geography": "Belfast", "sex": "Persons"}, Value: 11},
			{Period: "2024", Dims: map[string]string{"geography": "Derry", "sex": "Male"}, Value: 3},
			{Period: "2024", Dims: map[string]string{"geography": "Derry", "sex": "Female"}, Value: 4},
			{Period: "2024", Dims: map[string]string{"geography": "Derry", "sex": "Persons"}, Value: 8},
		},
	}

	require.NoError(t, Check(context.Background(), "nisra", tbl, []Relationship{sexSumsToPersons}))

	tbl.Rows[5].Value = 9
	err := Check(context.Background(), "nisra", tbl, []Relationship{sexSumsToPersons})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Derry")
}
