// Package sources aggregates every configured source family for
// name-based dispatch from the CLI.
package sources

import (
	"nistats/lib/errs"
	"nistats/lib/pipeline"
	"nistats/sources/eoni"
	"nistats/sources/nisra"
	"nistats/sources/psni"

	"github.com/antzucaro/matchr"
)

func All() []pipeline.Source {
	return []pipeline.Source{
		nisra.Births,
		psni.RecordedCrime,
		eoni.Electorate,
	}
}

// Lookup resolves a source by name. Unknown names raise a not-found
// error, with the closest known name when one is plausibly a typo.
func Lookup(name string) (pipeline.Source, error) {
	closest := ""
	closestDistance := 0
	for _, src := range All() {
		if src.Name == name {
			return src, nil
		}
		d := matchr.Levenshtein(name, src.Name)
		if closest == "" || d < closestDistance {
			closest = src.Name
			closestDistance = d
		}
	}

	if closestDistance <= len(closest)/2 {
		return pipeline.Source{}, errs.NotFound("sources", "unknown source %q, did you mean %q?", name, closest)
	}
	return pipeline.Source{}, errs.NotFound("sources", "unknown source %q", name)
}
