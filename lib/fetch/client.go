// Package fetch holds the shared retrying HTTP client and the
// content-addressed download cache every source family goes through.
package fetch

import (
	"net/http/cookiejar"
	"time"

	"nistats/lib/restyutil"
	"nistats/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// NewClient builds the client used for both mother-page fetches and
// file downloads: 30s timeout, a few retries with backoff for
// transient failures, and a browser user agent since some publisher
// CDNs refuse obvious bots.
func NewClient() *resty.Client {
	client := newBaseClient()
	telemetry.InstrumentResty(client, "nistats.lib.fetch")
	return client
}

// NewDebugClient is NewClient but it also dumps every http exchange
// into `dumpDir`, one file per request. The span instrumentation moves
// to lib/restyutil so each request carries exactly one span.
func NewDebugClient(dumpDir string) *resty.Client {
	client := newBaseClient()
	restyutil.InstrumentClient(
		client,
		otel.Tracer("nistats.lib.fetch"),
		restyutil.NewFilesystemOutput(dumpDir),
	)
	return client
}

func newBaseClient() *resty.Client {
	client := resty.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(time.Second)
	client.SetRetryMaxWaitTime(time.Second * 10)

	return client
}
