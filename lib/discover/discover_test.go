package discover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"nistats/lib/errs"
	"nistats/lib/fetch"
	"nistats/lib/telemetry"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

const motherPage = `<html><body>
<h1>Monthly births</h1>
<ul>
	<li><a href="/files/births-april-2024.csv">Monthly births April 2024</a></li>
	<li><a href="/files/births-march-2024.csv">Monthly births March 2024</a></li>
	<li><a href="/files/births-february-2024.csv">Monthly births February 2024</a></li>
	<li><a href="/about">About these statistics</a></li>
</ul>
</body></html>`

func newMotherPage(t *testing.T, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestFirstMatchWins(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:discover")
	defer cleanup()

	srv := newMotherPage(t, motherPage)

	pub, err := Latest(context.Background(), fetch.NewClient(), "nisra", srv.URL, Match{
		TextContains:  []string{"monthlybirths"},
		HrefPattern:   regexp.MustCompile(`\.csv$`),
		PeriodPattern: regexp.MustCompile(`([A-Z][a-z]+ \d{4})$`),
	})
	require.NoError(t, err)

	require.Equal(t, srv.URL+"/files/births-april-2024.csv", pub.URL)
	require.Equal(t, "April 2024", pub.Period)
	require.Equal(t, srv.URL, pub.MotherPage)
}

func TestLatestNoMatchingAnchor(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:discover")
	defer cleanup()

	srv := newMotherPage(t, motherPage)

	_, err := Latest(context.Background(), fetch.NewClient(), "nisra", srv.URL, Match{
		TextContains: []string{"monthlydeaths"},
	})
	require.Error(t, err)
	require.True(t, errs.IsNotFound(err))
}

func TestLatestHrefPatternFilters(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:discover")
	defer cleanup()

	page := `<html><body>
	<a href="/publications/crime-2024">Police recorded crime March 2024</a>
	<a href="/files/crime-march-2024.xlsx">Police recorded crime March 2024</a>
	</body></html>`
	srv := newMotherPage(t, page)

	pub, err := Latest(context.Background(), fetch.NewClient(), "psni", srv.URL, Match{
		TextContains: []string{"recordedcrime"},
		HrefPattern:  regexp.MustCompile(`\.xlsx$`),
	})
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/files/crime-march-2024.xlsx", pub.URL)
}

func TestLatestMotherPageDown(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:discover")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := Latest(context.Background(), fetch.NewClient(), "eoni", srv.URL, Match{})
	require.Error(t, err)
	require.True(t, errs.IsNotFound(err))
}

func TestLatestBadStatusMarksSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := Latest(context.Background(), fetch.NewClient(), "eoni", srv.URL, Match{})
	require.Error(t, err)

	var latest sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		if span.Name() == "Latest" {
			latest = span
		}
	}
	require.NotNil(t, latest, "no Latest span recorded")
	require.Equal(t, codes.Error, latest.Status().Code)
	require.NotEmpty(t, latest.Events(), "failure must be recorded on the span")
}
