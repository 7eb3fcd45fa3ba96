// Package nisra covers publications of the Northern Ireland Statistics
// and Research Agency.
package nisra

import (
	"context"
	"regexp"
	"time"

	"nistats/lib/discover"
	"nistats/lib/pipeline"
	"nistats/lib/table"
	"nistats/lib/validate"
)

// Births is the monthly births release: one row per registration month
// and sex category.
var Births = pipeline.Source{
	Name:        "nisra-births",
	Description: "Monthly births registered in Northern Ireland, by sex",
	MotherPage:  "https://www.nisra.gov.uk/publications/monthly-births",
	Match: discover.Match{
		TextContains:  []string{"births"},
		HrefPattern:   regexp.MustCompile(`\.(csv|xlsx)$`),
		PeriodPattern: regexp.MustCompile(`([A-Z][a-z]+ \d{4})`),
	},
	// monthly release, re-check daily
	TTL: time.Hour * 24,
	Schema: table.Schema{
		HeaderMatch: []string{"month", "male", "female"},
		Rename: map[string]string{
			"registrationmonth": "period",
			"month":             "period",
			"male":              "Male",
			"female":            "Female",
			"allbirths":         "Persons",
			"total":             "Persons",
		},
		Period:      "period",
		WideColumns: []string{"Male", "Female", "Persons"},
		WideDim:     "sex",
	},
	Checks: []validate.Relationship{{
		Name:  "male plus female equals persons",
		Dim:   "sex",
		Total: "Persons",
		Parts: []string{"Male", "Female"},
	}},
}

// GetLatestBirths discovers, downloads and validates the latest
// monthly births release.
func GetLatestBirths(ctx context.Context, pl pipeline.Pipeline, force bool) (pipeline.Result, error) {
	return pl.Run(ctx, Births, force)
}

// ParseBirthsFile normalizes an already-downloaded births file.
func ParseBirthsFile(path string) (table.Table, error) {
	return pipeline.ParseFile(Births, path)
}

// ValidateBirths checks that male plus female births equal the
// published persons figure for every month.
func ValidateBirths(ctx context.Context, tbl table.Table) error {
	return pipeline.Validate(ctx, Births, tbl)
}
