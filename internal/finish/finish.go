// Package finish implements the finish-ordering rule:
// remap to ordinals, sort, remap back. Never an alphabetic sort, since
// "etched" < "foil" < "nonfoil" alphabetically would misorder the set.
package finish

import "sort"

var ordinal = map[string]int{
	"nonfoil": 0,
	"foil":    1,
	"etched":  2,
}

// Sort orders a slice of finish strings nonfoil < foil < etched in place
// and returns it for chaining. Unknown finish values sort last, stably,
// rather than panicking — an upstream source adding a new finish string
// is a LookupMiss-shaped situation, not fatal.
func Sort(finishes []string) []string {
	sort.SliceStable(finishes, func(i, j int) bool {
		return rank(finishes[i]) < rank(finishes[j])
	})
	return finishes
}

func rank(f string) int {
	if r, ok := ordinal[f]; ok {
		return r
	}
	return len(ordinal)
}

// Less reports whether finish a sorts before finish b under the
// nonfoil/foil/etched ordinal, for use in comparators elsewhere (e.g.
// price-row sort keys in the streaming JSON writer).
func Less(a, b string) bool {
	return rank(a) < rank(b)
}
