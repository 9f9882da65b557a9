// Package match implements the layout-to-layout widget matcher: an 8-phase
// pipeline that maps old-UI widgets onto their counterparts in a new UI,
// first by attribute agreement, then by SIFT keypoint geometry, then by
// parent-scoped and possibility-scored fallbacks.
package match

import (
	"github.com/entropydec/gsrb/layout"
	"github.com/rs/zerolog/log"
)

// scoreThreshold is the minimum matched-fraction for a Result to be
// considered a successful layout match.
const scoreThreshold = 0.8

// Result is the outcome of matching one old Layout against one new Layout.
type Result struct {
	Score   float64
	IsMatch bool

	// Matched holds every old-to-new widget pair the pipeline committed
	// to with confidence.
	Matched map[*layout.Node]*layout.Node
	// Possible holds, for an old widget the pipeline could not commit to
	// a single new widget, the set of plausible new-widget candidates.
	Possible map[*layout.Node]map[*layout.Node]bool

	OldNotMatched map[*layout.Node]bool
	NewNotMatched map[*layout.Node]bool
}

func newResult() *Result {
	return &Result{
		Matched:       map[*layout.Node]*layout.Node{},
		Possible:      map[*layout.Node]map[*layout.Node]bool{},
		OldNotMatched: map[*layout.Node]bool{},
		NewNotMatched: map[*layout.Node]bool{},
	}
}

// Info carries the cross-layout matching state threaded through every
// phase: the running set of spoken-for nodes (on both sides), the sibling
// parents discovered while matching list items, and the SIFT keypoint
// correspondences computed once up front.
type Info struct {
	Old, New *layout.Layout

	matched        map[*layout.Node]bool
	matchedParents map[*layout.Node]*layout.Node
	matchedPoints  []PointMatch
}

// NewInfo builds an Info for old/new, computing SIFT keypoint
// correspondences between their screenshots when both are present.
func NewInfo(old, new *layout.Layout) *Info {
	info := &Info{
		Old: old, New: new,
		matched:        map[*layout.Node]bool{},
		matchedParents: map[*layout.Node]*layout.Node{},
	}
	if len(old.PNG) > 0 && len(new.PNG) > 0 {
		points, err := siftKeypointMatches(old.PNG, new.PNG)
		if err != nil {
			log.Warn().Err(err).Msg("sift keypoint matching failed, continuing without it")
		} else {
			info.matchedPoints = points
		}
	}
	return info
}

func isMatchedEither(info *Info, n *layout.Node) bool { return info.matched[n] }

func subtract(set map[*layout.Node]bool, remove map[*layout.Node]bool) map[*layout.Node]bool {
	out := map[*layout.Node]bool{}
	for n := range set {
		if !remove[n] {
			out[n] = true
		}
	}
	return out
}

// predicate is a symmetric node-pair matching criterion used by a phase.
type predicate func(a, b *layout.Node) bool

// matchSure performs the "sure match" phase: for every still-unmatched old
// candidate, if exactly one still-unmatched new candidate satisfies
// predicate, commit the pair and propagate to list-item siblings. Repeats
// to a fixed point, since each commitment can make a previously-ambiguous
// pair unique.
func matchSure(info *Info, result *Result, pred predicate) {
	oldCandidates := subtract(info.Old.Children, info.Old.NonUnique)
	newCandidates := subtract(info.New.Children, info.New.NonUnique)

	update := true
	for update {
		update = false
		for oldChild := range oldCandidates {
			if info.matched[oldChild] {
				continue
			}
			var candidates []*layout.Node
			for newChild := range newCandidates {
				if info.matched[newChild] {
					continue
				}
				if pred(oldChild, newChild) {
					candidates = append(candidates, newChild)
				}
			}
			if len(candidates) == 1 {
				update = true
				candidate := candidates[0]
				result.Matched[oldChild] = candidate
				info.matched[oldChild] = true
				info.matched[candidate] = true
				matchSibling(oldChild, candidate, info, result)
			}
		}
	}
}

// matchSibling matches the remaining list-item siblings of a just-matched
// pair, when both sides are list items sharing a non-overlap parent.
func matchSibling(old, new *layout.Node, info *Info, result *Result) {
	oldParent, oldOK := info.Old.NonOverlap[old]
	newParent, newOK := info.New.NonOverlap[new]
	if !oldOK || !newOK {
		return
	}
	info.matchedParents[oldParent] = newParent

	var oldSiblings, newSiblings []*layout.Node
	for k, v := range info.Old.NonOverlap {
		if v == oldParent && k != old {
			oldSiblings = append(oldSiblings, k)
		}
	}
	for k, v := range info.New.NonOverlap {
		if v == newParent && k != new {
			newSiblings = append(newSiblings, k)
		}
	}

	for _, oldSibling := range oldSiblings {
		if info.matched[oldSibling] {
			continue
		}
		var candidates []*layout.Node
		for _, newSibling := range newSiblings {
			if info.matched[newSibling] {
				continue
			}
			if layout.IsMatch(oldSibling, newSibling, false) {
				candidates = append(candidates, newSibling)
			}
		}
		if len(candidates) == 1 {
			candidate := candidates[0]
			result.Matched[oldSibling] = candidate
			info.matched[oldSibling] = true
			info.matched[candidate] = true
		}
	}
}

// matchParents matches container nodes by a relaxed predicate, recording
// unique pairs in info.matchedParents for optimizeMatch to scope into.
func matchParents(info *Info, pred predicate) {
	matchedParents := map[*layout.Node]bool{}
	for oldParent := range info.Old.Parents {
		if matchedParents[oldParent] {
			continue
		}
		var candidates []*layout.Node
		for newParent := range info.New.Parents {
			if matchedParents[newParent] {
				continue
			}
			if pred(oldParent, newParent) {
				candidates = append(candidates, newParent)
			}
		}
		if len(candidates) == 1 {
			candidate := candidates[0]
			info.matchedParents[oldParent] = candidate
			matchedParents[oldParent] = true
			matchedParents[candidate] = true
		}
	}
}

// optimizeMatch matches children scoped to an already-matched parent pair,
// giving a tighter candidate pool than a global pass would.
func optimizeMatch(info *Info, result *Result, pred predicate) {
	for oldParent, newParent := range info.matchedParents {
		var oldChildren, newChildren []*layout.Node
		for _, n := range oldParent.Iter() {
			if info.Old.Children[n] {
				oldChildren = append(oldChildren, n)
			}
		}
		for _, n := range newParent.Iter() {
			if info.New.Children[n] {
				newChildren = append(newChildren, n)
			}
		}

		for _, oldChild := range oldChildren {
			if info.matched[oldChild] {
				continue
			}
			var candidates []*layout.Node
			for _, newChild := range newChildren {
				if info.matched[newChild] {
					continue
				}
				if pred(oldChild, newChild) {
					candidates = append(candidates, newChild)
				}
			}
			if len(candidates) == 1 {
				candidate := candidates[0]
				result.Matched[oldChild] = candidate
				info.matched[oldChild] = true
				info.matched[candidate] = true
			}
		}
	}
}

// uniqueMatch pairs EditText widgets by class alone, when the EditText
// class occurs exactly once among each side's Children and both of those
// widgets are still unmatched.
func uniqueMatch(info *Info, result *Result) {
	for oldChild := range info.Old.UniqueChildren {
		if info.matched[oldChild] {
			continue
		}
		var candidates []*layout.Node
		for newChild := range info.New.UniqueChildren {
			if info.matched[newChild] {
				continue
			}
			if layout.AttrEqual(oldChild, newChild, "class") && oldChild.Attr("class") == "android.widget.EditText" {
				candidates = append(candidates, newChild)
			}
		}
		if len(candidates) == 1 {
			candidate := candidates[0]
			result.Matched[oldChild] = candidate
			info.matched[oldChild] = true
			info.matched[candidate] = true
		}
	}
}

var siftExcludeClasses = map[string]bool{
	"android.widget.CheckBox": true,
	"android.widget.EditText": true,
	"android.widget.Switch":   true,
}

// siftMatch matches textless widgets by the fraction of SIFT keypoint
// correspondences whose old endpoint falls inside the old widget and whose
// new endpoint falls inside the candidate. Repeats to a fixed point.
func siftMatch(info *Info, result *Result) {
	if len(info.matchedPoints) == 0 {
		return
	}
	update := true
	for update {
		update = false
		for oldChild := range info.Old.Children {
			if info.matched[oldChild] || oldChild.Attr("text") != "" || siftExcludeClasses[oldChild.Attr("class")] {
				continue
			}
			var oldMatches []PointMatch
			for _, pm := range info.matchedPoints {
				if layout.IsInBound(pm.Old.X, pm.Old.Y, oldChild) {
					oldMatches = append(oldMatches, pm)
				}
			}
			if len(oldMatches) < 1 {
				continue
			}
			var candidates []*layout.Node
			for newChild := range info.New.Children {
				if info.matched[newChild] || newChild.Attr("text") != "" || siftExcludeClasses[newChild.Attr("class")] {
					continue
				}
				count := 0
				for _, pm := range oldMatches {
					if layout.IsInBound(pm.New.X, pm.New.Y, newChild) {
						count++
					}
				}
				if float64(count)/float64(len(oldMatches)) >= 0.6 {
					candidates = append(candidates, newChild)
				}
			}
			if len(candidates) == 1 {
				update = true
				candidate := candidates[0]
				result.Matched[oldChild] = candidate
				info.matched[oldChild] = true
				info.matched[candidate] = true
			}
		}
	}
}

// getUniquePossible returns the single candidate whose attr (case-folded)
// equals old's and whose class matches old's, when exactly one candidate
// qualifies.
func getUniquePossible(attr string, old *layout.Node, candidates map[*layout.Node]bool) *layout.Node {
	oldAttr := lower(old.Attr(attr))
	if oldAttr == "" {
		return nil
	}
	var found *layout.Node
	count := 0
	for c := range candidates {
		if lower(c.Attr(attr)) == oldAttr && c.Attr("class") == old.Attr("class") {
			found = c
			count++
		}
	}
	if count == 1 {
		return found
	}
	return nil
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// matchPossible matches every remaining old child against every candidate
// satisfying pred, recording a possible-match set unless exactly one
// candidate is picked out by the text/content-desc/resource-id tiebreaker
// (resource-id only applies to non-list-item widgets).
func matchPossible(info *Info, result *Result, pred predicate) {
	for oldChild := range info.Old.Children {
		if info.matched[oldChild] {
			continue
		}
		candidates := map[*layout.Node]bool{}
		for newChild := range info.New.Children {
			if info.matched[newChild] {
				continue
			}
			if pred(oldChild, newChild) {
				candidates[newChild] = true
			}
		}
		if len(candidates) == 0 {
			continue
		}

		candidate := getUniquePossible("text", oldChild, candidates)
		if candidate == nil {
			candidate = getUniquePossible("content-desc", oldChild, candidates)
		}
		if candidate == nil {
			if c := getUniquePossible("resource-id", oldChild, candidates); c != nil {
				if _, isListItem := info.Old.NonOverlap[oldChild]; !isListItem {
					candidate = c
				}
			}
		}

		if candidate != nil {
			result.Matched[oldChild] = candidate
			info.matched[oldChild] = true
			info.matched[candidate] = true
		} else {
			result.Possible[oldChild] = candidates
		}
	}
}

func setNotMatch(info *Info, result *Result) {
	newPossible := map[*layout.Node]bool{}
	for _, set := range result.Possible {
		for n := range set {
			newPossible[n] = true
		}
	}
	for x := range info.Old.Children {
		if result.Matched[x] == nil {
			if _, ok := result.Possible[x]; !ok {
				result.OldNotMatched[x] = true
			}
		}
	}
	matchedNew := map[*layout.Node]bool{}
	for _, v := range result.Matched {
		matchedNew[v] = true
	}
	for x := range info.New.Children {
		if !matchedNew[x] && !newPossible[x] {
			result.NewNotMatched[x] = true
		}
	}
}

func setMatchScore(result *Result) {
	matchedNum := len(result.Matched)
	possibleNum := len(result.Possible)
	notMatch := len(result.OldNotMatched)
	total := matchedNum + possibleNum + notMatch
	if total != 0 {
		result.Score = float64(matchedNum+possibleNum) / float64(total)
	}
	result.IsMatch = result.Score >= scoreThreshold
}

// Layout runs the full 8-phase matching pipeline between old and new,
// returning the committed pairs, the possible-match sets, and the derived
// score.
func Layout(old, new *layout.Layout) *Result {
	result := newResult()
	info := NewInfo(old, new)

	matchSure(info, result, func(a, b *layout.Node) bool { return layout.IsMatch(a, b, true) })
	matchSure(info, result, func(a, b *layout.Node) bool { return layout.IsLike(a, b, true) })

	siftMatch(info, result)
	matchParents(info, func(a, b *layout.Node) bool { return layout.IsMatch(a, b, false) })
	optimizeMatch(info, result, func(a, b *layout.Node) bool { return layout.IsLike(a, b, false) })
	uniqueMatch(info, result)

	matchPossible(info, result, func(a, b *layout.Node) bool { return layout.IsMatch(a, b, false) })

	setNotMatch(info, result)
	setMatchScore(result)

	return result
}
