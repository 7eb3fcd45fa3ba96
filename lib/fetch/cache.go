package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"nistats/lib/errs"

	"github.com/PuerkitoBio/purell"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("nistats.lib.fetch")

// Cache is an on-disk byte cache keyed by a hash of the normalized
// source url. Files are plain bytes, freshness comes from the file
// mtime, last write wins. Single caller at a time is assumed.
type Cache struct {
	dir    string
	client *resty.Client
}

func NewCache(client *resty.Client, dir string) (Cache, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return Cache{}, err
	}
	return Cache{dir: dir, client: client}, nil
}

func (c Cache) Dir() string {
	return c.dir
}

// Path returns the cache location for a url: a per-source directory
// holding files named by a hash of the normalized url plus the
// original file extension, so parsers can dispatch on it.
func (c Cache) Path(source, rawurl string) (string, error) {
	link, err := url.Parse(rawurl)
	if err != nil {
		return "", err
	}
	// purell.NormalizeURL mutates link in place (FlagAddTrailingSlash
	// appends "/" to the path), so grab the extension first.
	ext := path.Ext(link.Path)
	normalized := purell.NormalizeURL(
		link,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagsUnsafeNonGreedy,
	)
	sum := sha256.Sum256([]byte(normalized))
	key := hex.EncodeToString(sum[:])[:32] + ext
	return filepath.Join(c.dir, source, key), nil
}

// Download returns a local path holding the bytes of `rawurl`. A
// cached copy younger than `ttl` is returned without touching the
// network unless `force` is set. Failures after the client's retries
// are exhausted, and non-2xx responses, surface as not-found errors
// scoped to `source`.
func (c Cache) Download(ctx context.Context, source, rawurl string, ttl time.Duration, force bool) (string, error) {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()
	span.SetAttributes(
		attribute.String("url", rawurl),
		attribute.String("source", source),
	)

	cachePath, err := c.Path(source, rawurl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return "", errs.NotFound(source, "invalid download url %q", rawurl).Wrap(err)
	}

	if !force {
		info, err := os.Stat(cachePath)
		if err == nil && time.Since(info.ModTime()) < ttl {
			slog.DebugContext(
				ctx, "cache hit",
				"source", source,
				"url", rawurl,
				"age", time.Since(info.ModTime()).Round(time.Second),
			)
			span.AddEvent("cache hit")
			return cachePath, nil
		}
	}

	res, err := c.client.R().
		SetContext(ctx).
		Get(rawurl)
	if err != nil {
		return "", errs.NotFound(source, "downloading %s", rawurl).Wrap(err)
	}
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return "", errs.NotFound(source, "downloading %s: status %d", rawurl, res.StatusCode())
	}

	err = os.MkdirAll(filepath.Dir(cachePath), 0755)
	if err != nil {
		return "", err
	}
	err = os.WriteFile(cachePath, res.Body(), 0644)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write cache file")
		return "", err
	}

	slog.InfoContext(
		ctx, "downloaded",
		"source", source,
		"url", rawurl,
		"bytes", len(res.Body()),
		"path", cachePath,
	)
	return cachePath, nil
}
