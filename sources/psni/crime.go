// Package psni covers statistical publications of the Police Service
// of Northern Ireland.
package psni

import (
	"context"
	"regexp"
	"time"

	"nistats/lib/discover"
	"nistats/lib/pipeline"
	"nistats/lib/table"
	"nistats/lib/validate"
)

// crimeTypes are the published offence groups. The release also
// carries a "Total police recorded crime" category which must equal
// their sum within each month.
var crimeTypes = []string{
	"Violence against the person",
	"Sexual offences",
	"Robbery",
	"Burglary",
	"Theft",
	"Criminal damage",
	"Drug offences",
	"Other offences",
}

// RecordedCrime is the monthly police recorded crime release, long
// format: one row per month and offence group.
var RecordedCrime = pipeline.Source{
	Name:        "psni-crime",
	Description: "Monthly police recorded crime in Northern Ireland, by offence group",
	MotherPage:  "https://www.psni.police.uk/about-us/our-publications-and-reports/official-statistics",
	Match: discover.Match{
		TextContains:  []string{"recordedcrime"},
		HrefPattern:   regexp.MustCompile(`\.(csv|xlsx)$`),
		PeriodPattern: regexp.MustCompile(`([A-Z][a-z]+ \d{4})`),
	},
	// monthly release, re-check daily
	TTL: time.Hour * 24,
	Schema: table.Schema{
		HeaderMatch: []string{"month", "crimetype", "offences"},
		Rename: map[string]string{
			"month":     "period",
			"crimetype": "crime_type",
			"offences":  "offences",
			"recorded":  "offences",
		},
		Period:     "period",
		DimColumns: []string{"crime_type"},
		Value:      "offences",
		// the month arrives merged across its offence groups
		ForwardFill: []string{"period"},
	},
	Checks: []validate.Relationship{{
		Name:  "offence groups sum to total recorded crime",
		Dim:   "crime_type",
		Total: "Total police recorded crime",
		Parts: crimeTypes,
	}},
}

// GetLatestCrime discovers, downloads and validates the latest monthly
// recorded crime release.
func GetLatestCrime(ctx context.Context, pl pipeline.Pipeline, force bool) (pipeline.Result, error) {
	return pl.Run(ctx, RecordedCrime, force)
}

// ParseCrimeFile normalizes an already-downloaded recorded crime file.
func ParseCrimeFile(path string) (table.Table, error) {
	return pipeline.ParseFile(RecordedCrime, path)
}

// ValidateCrime checks that the offence groups sum to the published
// total for every month.
func ValidateCrime(ctx context.Context, tbl table.Table) error {
	return pipeline.Validate(ctx, RecordedCrime, tbl)
}
