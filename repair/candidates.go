package repair

import (
	"sort"

	"github.com/entropydec/gsrb/layout"
)

// candidateFilter narrows the set of children eligible for speculative
// exploration clicks.
type candidateFilter func(children map[*layout.Node]bool) []*layout.Node

// defaultFilter keeps every child as a candidate.
func defaultFilter(children map[*layout.Node]bool) []*layout.Node {
	result := make([]*layout.Node, 0, len(children))
	for c := range children {
		result = append(result, c)
	}
	return result
}

// defaultKey orders candidates top-to-bottom, left-to-right.
func defaultKey(n *layout.Node) [2]int {
	c := layout.Coordinates(n)
	return [2]int{c.Y0, c.X0}
}

var excludedCandidateClasses = map[string]bool{
	"android.widget.CheckBox": true,
	"android.widget.EditText": true,
	"android.widget.Switch":   true,
}

// optimizeFilter drops uninteractive-for-exploration classes and collapses
// each list-item group (children sharing a non-overlap ancestor) down to
// its single best representative, picking the one whose class is
// TextView, positioned highest/leftmost, with the shortest text, then the
// shortest content-desc, as a tiebreaker.
func optimizeFilter(nonOverlap map[*layout.Node]*layout.Node) candidateFilter {
	key := func(n *layout.Node) [5]int {
		c := layout.Coordinates(n)
		classRank := 1
		if n.Attr("class") == "android.widget.TextView" {
			classRank = 0
		}
		return [5]int{classRank, c.Y0, c.X0, len(n.Attr("text")), len(n.Attr("content-desc"))}
	}

	return func(children map[*layout.Node]bool) []*layout.Node {
		var result []*layout.Node
		groups := map[*layout.Node][]*layout.Node{}
		for c := range children {
			if excludedCandidateClasses[c.Attr("class")] {
				continue
			}
			if parent, ok := nonOverlap[c]; ok {
				groups[parent] = append(groups[parent], c)
			} else {
				result = append(result, c)
			}
		}
		for _, siblings := range groups {
			if len(siblings) == 1 {
				result = append(result, siblings[0])
				continue
			}
			sort.Slice(siblings, func(i, j int) bool { return less5(key(siblings[i]), key(siblings[j])) })
			result = append(result, siblings[0])
		}
		return result
	}
}

func less5(a, b [5]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// customKey is the 11-field lexicographic sort key used to order
// exploration candidates: uniqueness/presence of id, text, and
// content-desc, each value's occurrence count, then position.
type customKey struct {
	idUnique, textUnique, descUnique int
	idEmpty, textEmpty, descEmpty    int
	idNum, textNum, descNum          int
	y0, x0                           int
}

func less(a, b customKey) bool {
	af := [11]int{a.idUnique, a.textUnique, a.descUnique, a.idEmpty, a.textEmpty, a.descEmpty, a.idNum, a.textNum, a.descNum, a.y0, a.x0}
	bf := [11]int{b.idUnique, b.textUnique, b.descUnique, b.idEmpty, b.textEmpty, b.descEmpty, b.idNum, b.textNum, b.descNum, b.y0, b.x0}
	for i := range af {
		if af[i] != bf[i] {
			return af[i] < bf[i]
		}
	}
	return false
}

// optimizeKey builds the customKey comparator scoped to the occurrence
// counts of resource-id/text/content-desc within candidates.
func optimizeKey(candidates []*layout.Node) func(*layout.Node) customKey {
	idCount := map[string]int{}
	textCount := map[string]int{}
	descCount := map[string]int{}
	for _, c := range candidates {
		idCount[c.Attr("resource-id")]++
		textCount[c.Attr("text")]++
		descCount[c.Attr("content-desc")]++
	}
	return func(c *layout.Node) customKey {
		id, text, desc := c.Attr("resource-id"), c.Attr("text"), c.Attr("content-desc")
		coord := layout.Coordinates(c)
		boolInt := func(b bool) int {
			if b {
				return 0
			}
			return 1
		}
		return customKey{
			idUnique:   boolInt(id != "" && idCount[id] == 1),
			textUnique: boolInt(text != "" && textCount[text] == 1),
			descUnique: boolInt(desc != "" && descCount[desc] == 1),
			idEmpty:    boolInt(id == ""),
			textEmpty:  boolInt(text == ""),
			descEmpty:  boolInt(desc == ""),
			idNum:      idCount[id],
			textNum:    textCount[text],
			descNum:    descCount[desc],
			y0:         coord.Y0,
			x0:         coord.X0,
		}
	}
}
