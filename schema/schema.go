// Package schema offers small table-lookup conveniences layered on top
// of store.World's byte-wise, case-sensitive FindTable.
package schema

import (
	"github.com/jinzhu/inflection"

	"github.com/kruemmel-python/worldsql/store"
)

// SuggestTable is called after FindTable has already failed: it tries the
// singular and plural forms of name against the world's table names and
// returns the first match, so a query against "citys" or "cities" can be
// corrected to "city" (or vice versa) in an error message.
func SuggestTable(w store.World, name string) (string, bool) {
	candidates := []string{inflection.Singular(name), inflection.Plural(name)}
	names := w.TableNames()
	for _, cand := range candidates {
		if cand == name {
			continue
		}
		for _, known := range names {
			if known == cand {
				return known, true
			}
		}
	}
	return "", false
}
