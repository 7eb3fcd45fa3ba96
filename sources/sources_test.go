package sources

import (
	"testing"

	"nistats/lib/errs"

	"github.com/stretchr/testify/require"
)

func TestAllNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, src := range All() {
		require.False(t, seen[src.Name], "duplicate source name %q", src.Name)
		seen[src.Name] = true

		require.NotEmpty(t, src.MotherPage, "%s has no mother page", src.Name)
		require.NotZero(t, src.TTL, "%s has no ttl", src.Name)
		require.NotEmpty(t, src.Schema.HeaderMatch, "%s cannot locate a header", src.Name)
		require.NotEmpty(t, src.Checks, "%s has no validation checks", src.Name)
	}
}

func TestLookup(t *testing.T) {
	src, err := Lookup("nisra-births")
	require.NoError(t, err)
	require.Equal(t, "nisra-births", src.Name)

	_, err = Lookup("nisra-birth")
	require.Error(t, err)
	require.True(t, errs.IsNotFound(err))
	require.Contains(t, err.Error(), `"nisra-births"`)

	_, err = Lookup("zzzzzzzzzzzzzzzzzzzzzz")
	require.Error(t, err)
	require.True(t, errs.IsNotFound(err))
}
