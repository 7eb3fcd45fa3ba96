// Package validate recomputes the arithmetic relationships a publisher
// declares implicitly in its tables, e.g. disaggregated categories
// summing to a published total, and fails fast on the first mismatch.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"nistats/lib/errs"
	"nistats/lib/table"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("nistats.lib.validate")

// DefaultTolerance absorbs nothing: published counts are exact. Rates
// rounded for publication need a per-relationship override (one
// rounding step of the published precision).
const DefaultTolerance = 1e-6

// Relationship declares that within every group sharing a temporal key
// (and any dimensions other than Dim), the rows whose Dim category is
// in Parts must sum to the row whose category is Total.
type Relationship struct {
	Name      string
	Dim       string
	Total     string
	Parts     []string
	Tolerance float64
}

func (r Relationship) tolerance() float64 {
	if r.Tolerance <= 0 {
		return DefaultTolerance
	}
	return r.Tolerance
}

type group struct {
	total    float64
	hasTotal bool
	sum      float64
	parts    int
	missing  bool
}

// Check verifies every relationship against the table. The first
// mismatch raises a validation error scoped to `source` naming the
// group and both values; success logs and returns nil. Groups with a
// missing total or missing parts are skipped, missing is not zero.
func Check(ctx context.Context, source string, t table.Table, rels []Relationship) error {
	ctx, span := tracer.Start(ctx, "Check")
	defer span.End()
	span.SetAttributes(attribute.String("source", source))

	for _, rel := range rels {
		err := checkRelationship(ctx, source, t, rel)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "relationship check failed")
			return err
		}
	}

	slog.InfoContext(
		ctx, "validation passed",
		"source", source,
		"relationships", len(rels),
		"rows", len(t.Rows),
	)
	return nil
}

func checkRelationship(ctx context.Context, source string, t table.Table, rel Relationship) error {
	parts := map[string]bool{}
	for _, p := range rel.Parts {
		parts[p] = true
	}

	groups := map[string]*group{}
	var order []string
	for _, row := range t.Rows {
		category, ok := row.Dims[rel.Dim]
		if !ok {
			return errs.Validation(source, "relationship %q checks unknown dimension %q", rel.Name, rel.Dim)
		}

		key := groupKey(t, row, rel.Dim)
		g := groups[key]
		if g == nil {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}

		switch {
		case category == rel.Total:
			if row.Missing {
				g.missing = true
				continue
			}
			g.total = row.Value
			g.hasTotal = true
		case parts[category]:
			if row.Missing {
				g.missing = true
				continue
			}
			g.sum += row.Value
			g.parts++
		}
	}
	sort.Strings(order)

	checked := 0
	for _, key := range order {
		g := groups[key]
		if g.missing || !g.hasTotal || g.parts == 0 {
			continue
		}
		if diff := math.Abs(g.sum - g.total); diff > rel.tolerance() {
			return errs.Validation(
				source,
				"%s: group %q: sum of parts %v != total %v (tolerance %v)",
				rel.Name, key, g.sum, g.total, rel.tolerance(),
			)
		}
		checked++
	}

	slog.DebugContext(
		ctx, "relationship holds",
		"source", source,
		"relationship", rel.Name,
		"groups", checked,
	)
	return nil
}

// groupKey is the temporal key plus every dimension except the one
// being checked.
func groupKey(t table.Table, row table.Row, checked string) string {
	var b strings.Builder
	b.WriteString(row.Period)
	for _, dim := range t.Dims {
		if dim == checked {
			continue
		}
		fmt.Fprintf(&b, "|%s=%s", dim, row.Dims[dim])
	}
	return b.String()
}
