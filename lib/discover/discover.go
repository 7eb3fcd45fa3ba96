// Package discover locates the latest publication link on a
// publisher's listing page ("mother page"). Selection is first match
// wins in document order, which leans entirely on the convention that
// these pages list publications newest first.
package discover

import (
	"bytes"
	"context"
	"regexp"

	"nistats/lib/errs"
	"nistats/lib/htmlutil"
	"nistats/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("nistats.lib.discover")

// Publication identifies one discovered release. It has no identity
// beyond its url.
type Publication struct {
	URL        string
	Period     string
	MotherPage string
}

type Match struct {
	// substrings that must all occur in the anchor text, pre-normalized
	// with textutil.NormalizeName (lowercase, no whitespace)
	TextContains []string
	// optional pattern the resolved href must match
	HrefPattern *regexp.Regexp
	// optional pattern run against the anchor text to pull out the
	// declared period label (first capture group if present, otherwise
	// the whole match). Anchors without a period are not candidates.
	PeriodPattern *regexp.Regexp
}

func (m Match) matchAnchor(motherPage string, anchor htmlutil.Anchor) (Publication, bool) {
	if !textutil.MatchAll(anchor.Name, m.TextContains) {
		return Publication{}, false
	}

	href, err := htmlutil.ResolveHref(motherPage, anchor.Href)
	if err != nil {
		return Publication{}, false
	}
	if m.HrefPattern != nil && !m.HrefPattern.MatchString(href) {
		return Publication{}, false
	}

	period := ""
	if m.PeriodPattern != nil {
		groups := m.PeriodPattern.FindStringSubmatch(anchor.Name)
		if groups == nil {
			return Publication{}, false
		}
		period = groups[0]
		if len(groups) > 1 {
			period = groups[1]
		}
	}

	return Publication{
		URL:        href,
		Period:     period,
		MotherPage: motherPage,
	}, true
}

// Latest fetches the mother page and returns the first anchor matching
// `match`. Zero matching anchors is a not-found error scoped to
// `source`, never an empty publication.
func Latest(ctx context.Context, client *resty.Client, source, motherPage string, match Match) (Publication, error) {
	ctx, span := tracer.Start(ctx, "Latest")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", source),
		attribute.String("mother_page", motherPage),
	)

	res, err := client.R().
		SetContext(ctx).
		Get(motherPage)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch mother page")
		return Publication{}, errs.NotFound(source, "fetching mother page %s", motherPage).Wrap(err)
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		notFound := errs.NotFound(source, "fetching mother page %s: status %d", motherPage, res.StatusCode())
		span.RecordError(notFound)
		span.SetStatus(codes.Error, "mother page returned a bad status")
		return Publication{}, notFound
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse mother page html")
		return Publication{}, errs.NotFound(source, "parsing mother page %s", motherPage).Wrap(err)
	}

	anchors := htmlutil.GetAnchors(ctx, doc.Find("a"))
	for _, anchor := range anchors {
		pub, ok := match.matchAnchor(motherPage, anchor)
		if !ok {
			continue
		}
		span.AddEvent("matched", trace.WithAttributes(
			attribute.String("url", pub.URL),
			attribute.String("period", pub.Period),
		))
		return pub, nil
	}

	return Publication{}, errs.NotFound(
		source,
		"no anchor on %s matched %v",
		motherPage, match.TextContains,
	)
}
