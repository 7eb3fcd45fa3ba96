package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"nistats/lib/discover"
	"nistats/lib/errs"
	"nistats/lib/fetch"
	"nistats/lib/table"
	"nistats/lib/telemetry"
	"nistats/lib/validate"

	"github.com/stretchr/testify/require"
)

const birthsListing = `<html><body>
<a href="/files/births-march-2024.csv">Monthly births March 2024</a>
<a href="/files/births-february-2024.csv">Monthly births February 2024</a>
</body></html>`

const birthsCsv = `Registration Month,Male,Female,All Births
January 2024,840,800,1640
February 2024,750,760,1510
March 2024,820,790,1610
`

const birthsCsvBroken = `Registration Month,Male,Female,All Births
January 2024,840,800,1640
February 2024,751,760,1510
March 2024,820,790,1610
`

func birthsSource(motherPage string) Source {
	return Source{
		Name:       "births",
		MotherPage: motherPage,
		Match: discover.Match{
			TextContains: []string{"monthlybirths"},
		},
		TTL: time.Hour,
		Schema: table.Schema{
			HeaderMatch: []string{"month", "male", "female"},
			Rename: map[string]string{
				"registrationmonth": "period",
				"male":              "Male",
				"female":            "Female",
				"allbirths":         "Persons",
			},
			Period:      "period",
			WideColumns: []string{"Male", "Female", "Persons"},
			WideDim:     "sex",
		},
		Checks: []validate.Relationship{{
			Name:  "male+female equals persons",
			Dim:   "sex",
			Total: "Persons",
			Parts: []string{"Male", "Female"},
		}},
	}
}

func newPipeline(t *testing.T, handler http.Handler) (Pipeline, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := fetch.NewClient()
	cache, err := fetch.NewCache(client, t.TempDir())
	require.NoError(t, err)
	return New(client, cache), srv
}

func TestRunEndToEnd(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:pipeline")
	defer cleanup()

	var downloads atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(birthsListing))
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		w.Write([]byte(birthsCsv))
	})

	pl, srv := newPipeline(t, mux)
	src := birthsSource(srv.URL)
	src.Match.PeriodPattern = regexp.MustCompile(`([A-Z][a-z]+ \d{4})$`)

	res, err := pl.Run(context.Background(), src, false)
	require.NoError(t, err)
	require.Equal(t, "March 2024", res.Publication.Period)
	require.Equal(t, srv.URL+"/files/births-march-2024.csv", res.Publication.URL)
	require.Len(t, res.Table.Rows, 9)

	// second run inside the ttl parses the cached file
	_, err = pl.Run(context.Background(), src, false)
	require.NoError(t, err)
	require.Equal(t, int64(1), downloads.Load())

	// reparsing the cached file offline gives the same table
	reparsed, err := ParseFile(src, res.Path)
	require.NoError(t, err)
	require.Equal(t, res.Table, reparsed)
}

func TestRunValidationFailureNamesMonth(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:pipeline")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(birthsListing))
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(birthsCsvBroken))
	})

	pl, srv := newPipeline(t, mux)
	src := birthsSource(srv.URL)

	_, err := pl.Run(context.Background(), src, false)
	require.Error(t, err)
	require.True(t, errs.IsValidation(err))
	require.Contains(t, err.Error(), "February 2024")
}

func TestRunDiscoveryFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:pipeline")
	defer cleanup()

	pl, srv := newPipeline(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>nothing here</body></html>"))
	}))

	src := birthsSource(srv.URL)

	_, err := pl.Run(context.Background(), src, false)
	require.Error(t, err)
	require.True(t, errs.IsNotFound(err))
}
