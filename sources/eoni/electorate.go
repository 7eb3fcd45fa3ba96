// Package eoni covers figures published by the Electoral Office for
// Northern Ireland.
package eoni

import (
	"context"
	"regexp"
	"time"

	"nistats/lib/discover"
	"nistats/lib/pipeline"
	"nistats/lib/table"
	"nistats/lib/validate"
)

// the 18 parliamentary constituencies. The release carries a
// "Northern Ireland" row which must equal their sum.
var constituencies = []string{
	"Belfast East",
	"Belfast North",
	"Belfast South and Mid Down",
	"Belfast West",
	"East Antrim",
	"East Londonderry",
	"Fermanagh and South Tyrone",
	"Foyle",
	"Lagan Valley",
	"Mid Ulster",
	"Newry and Armagh",
	"North Antrim",
	"North Down",
	"South Antrim",
	"South Down",
	"Strangford",
	"Upper Bann",
	"West Tyrone",
}

// Electorate is the eligible electorate release, one row per register
// revision and constituency.
var Electorate = pipeline.Source{
	Name:        "eoni-electorate",
	Description: "Eligible electorate in Northern Ireland, by parliamentary constituency",
	MotherPage:  "https://www.eoni.org.uk/About-EONI/Facts-and-figures",
	Match: discover.Match{
		TextContains:  []string{"electorate"},
		HrefPattern:   regexp.MustCompile(`\.(csv|xlsx)$`),
		PeriodPattern: regexp.MustCompile(`(\d{4})`),
	},
	// revised a handful of times a year, re-check weekly
	TTL: time.Hour * 24 * 7,
	Schema: table.Schema{
		HeaderMatch: []string{"constituency", "eligibleelectorate"},
		Rename: map[string]string{
			"revisiondate":            "period",
			"year":                    "period",
			"constituency":            "constituency",
			"eligibleelectorate":      "electorate",
			"totaleligibleelectorate": "electorate",
		},
		Period:      "period",
		DimColumns:  []string{"constituency"},
		Value:       "electorate",
		ForwardFill: []string{"period"},
	},
	Checks: []validate.Relationship{{
		Name:  "constituencies sum to the Northern Ireland figure",
		Dim:   "constituency",
		Total: "Northern Ireland",
		Parts: constituencies,
	}},
}

// GetLatestElectorate discovers, downloads and validates the latest
// electorate figures.
func GetLatestElectorate(ctx context.Context, pl pipeline.Pipeline, force bool) (pipeline.Result, error) {
	return pl.Run(ctx, Electorate, force)
}

// ParseElectorateFile normalizes an already-downloaded electorate file.
func ParseElectorateFile(path string) (table.Table, error) {
	return pipeline.ParseFile(Electorate, path)
}

// ValidateElectorate checks that the constituencies sum to the
// published Northern Ireland total for every revision.
func ValidateElectorate(ctx context.Context, tbl table.Table) error {
	return pipeline.Validate(ctx, Electorate, tbl)
}
