// Package pipeline composes the four stages every source family used
// to hand-write (discover, download, parse, validate) into one engine
// driven by a Source configuration. Stages run linearly and
// synchronously, a failed stage is terminal for the call.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"nistats/lib/discover"
	"nistats/lib/errs"
	"nistats/lib/fetch"
	"nistats/lib/table"
	"nistats/lib/validate"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("nistats.lib.pipeline")

// Source is the full configuration of one data source family.
type Source struct {
	// short identifier, also the scope on raised errors ("nisra-births")
	Name string
	// one-line description for the CLI listing
	Description string
	// the publisher's listing page publications are discovered on
	MotherPage string
	Match      discover.Match
	// how long a downloaded file stays fresh. publication cadence
	// drives this: 24h for monthly releases up to a year for annual ones.
	TTL    time.Duration
	Schema table.Schema
	Checks []validate.Relationship
}

type Result struct {
	Publication discover.Publication
	// local path of the cached download
	Path  string
	Table table.Table
}

type Pipeline struct {
	client *resty.Client
	cache  fetch.Cache
}

func New(client *resty.Client, cache fetch.Cache) Pipeline {
	return Pipeline{client: client, cache: cache}
}

// Run walks one source through all four stages. `force` bypasses the
// download cache.
func (p Pipeline) Run(ctx context.Context, src Source, force bool) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", src.Name),
		attribute.Bool("force", force),
	)

	pub, err := discover.Latest(ctx, p.client, src.Name, src.MotherPage, src.Match)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery failed")
		return Result{}, err
	}
	slog.InfoContext(
		ctx, "discovered publication",
		"source", src.Name,
		"url", pub.URL,
		"period", pub.Period,
	)

	path, err := p.cache.Download(ctx, src.Name, pub.URL, src.TTL, force)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "download failed")
		return Result{}, err
	}

	tbl, err := ParseFile(src, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return Result{}, err
	}

	err = Validate(ctx, src, tbl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return Result{}, err
	}

	return Result{
		Publication: pub,
		Path:        path,
		Table:       tbl,
	}, nil
}

// ParseFile normalizes an already-downloaded file against the source's
// schema. Exposed so callers can reparse cached files offline.
func ParseFile(src Source, path string) (table.Table, error) {
	grid, err := table.ReadGrid(path, src.Schema.Sheet)
	if err != nil {
		return table.Table{}, errs.Validation(src.Name, "reading %s", path).Wrap(err)
	}
	return table.Normalize(src.Name, grid, src.Schema)
}

// Validate recomputes the source's declared arithmetic relationships.
func Validate(ctx context.Context, src Source, tbl table.Table) error {
	return validate.Check(ctx, src.Name, tbl, src.Checks)
}
