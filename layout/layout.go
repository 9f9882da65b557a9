package layout

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Layout holds one parsed screen: the raw hierarchy XML and screenshot PNG
// it was built from, plus every index the matcher consumes.
type Layout struct {
	XML string
	PNG []byte

	Root *Node

	// Children is the set of leaf widgets eligible to participate in
	// matching.
	Children map[*Node]bool
	// Parents is the set of container nodes eligible to anchor matching.
	Parents map[*Node]bool
	// ChildParent maps every node to its direct parent.
	ChildParent map[*Node]*Node
	// NonOverlap maps a list-item child to the highest ancestor that does
	// not overlap any other list item's chosen ancestor.
	NonOverlap map[*Node]*Node
	// NonUnique is the set of list-item children sharing an
	// (id, content-desc, text) triple with at least one sibling.
	NonUnique map[*Node]bool
	// UniqueChildren is the set of children whose class occurs exactly
	// once among Children.
	UniqueChildren map[*Node]bool
}

// New parses xmlDump and builds a Layout with all derived indices.
func New(xmlDump string, png []byte) (*Layout, error) {
	root, err := Parse(xmlDump)
	if err != nil {
		return nil, errors.Wrap(err, "parse layout")
	}
	Preprocess(root)

	l := &Layout{
		XML:            xmlDump,
		PNG:            png,
		Root:           root,
		NonOverlap:     map[*Node]*Node{},
		NonUnique:      map[*Node]bool{},
		UniqueChildren: map[*Node]bool{},
	}
	l.Children = getChildren(root)
	l.Parents = compressParents(getParents(root))
	l.ChildParent = childParentMap(root)
	l.UniqueChildren = getUniqueChildren(l.Children)

	for _, group := range getListItems(l.Children) {
		for child, parent := range getNonOverlap(group, l.ChildParent) {
			l.NonOverlap[child] = parent
		}
		for n := range getNonUnique(group) {
			l.NonUnique[n] = true
		}
	}
	return l, nil
}

// Digest renders every non-Google-keyboard child's key attributes, one per
// line, for inclusion in debug output.
func (l *Layout) Digest() string {
	var lines []string
	for c := range l.Children {
		if strings.HasPrefix(c.Attr("resource-id"), "com.google.android") {
			continue
		}
		lines = append(lines, Digest(c))
	}
	sortStrings(lines)
	return fmt.Sprintf("```%s```", strings.Join(lines, "\n"))
}

func getValidNode(root *Node) map[*Node]bool {
	result := map[*Node]bool{}
	for _, n := range root.Iter() {
		if IsChild(n) && n.Attr("clickable") == "true" {
			for x := range result {
				if IsChild(x) && IsCover(n, x) {
					delete(result, x)
				}
			}
		}
		if IsChild(n) && n.Attr("clickable") == "false" {
			covered := false
			for m := range result {
				if IsChild(m) && m.Attr("clickable") == "true" && IsCover(m, n) {
					covered = true
					break
				}
			}
			if covered {
				continue
			}
		}
		result[n] = true
	}
	return result
}

func getChildren(root *Node) map[*Node]bool {
	result := map[*Node]bool{}
	for n := range getValidNode(root) {
		if IsChild(n) {
			result[n] = true
		}
	}
	return result
}

func getParents(root *Node) map[*Node]bool {
	result := map[*Node]bool{}
	for _, n := range root.Iter() {
		if IsParent(n) {
			result[n] = true
		}
	}
	return result
}

// compressParents drops any parent whose sole child is another parent,
// collapsing single-child wrapper containers onto the parent they wrap.
func compressParents(parents map[*Node]bool) map[*Node]bool {
	remove := map[*Node]bool{}
	for a := range parents {
		for b := range parents {
			if a != b && len(b.Children) == 1 && b.Children[0] == a {
				remove[b] = true
			}
		}
	}
	result := map[*Node]bool{}
	for p := range parents {
		if !remove[p] {
			result[p] = true
		}
	}
	return result
}

func childParentMap(root *Node) map[*Node]*Node {
	result := map[*Node]*Node{}
	for _, p := range append([]*Node{root}, root.Iter()...) {
		for _, c := range p.Children {
			result[c] = p
		}
	}
	return result
}

// getListItems groups children sharing a non-empty resource-id, for any
// group with more than one member: these are candidate list-item repeats.
func getListItems(children map[*Node]bool) [][]*Node {
	groups := map[string][]*Node{}
	var order []string
	for c := range children {
		id := c.Attr("resource-id")
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], c)
	}
	var result [][]*Node
	for _, id := range order {
		if id != "" && len(groups[id]) > 1 {
			result = append(result, groups[id])
		}
	}
	return result
}

// getNonOverlap finds, for each child in a list-item group, the highest
// ancestor that can be promoted without overlapping any other child's
// chosen ancestor in the same group.
func getNonOverlap(children []*Node, cp map[*Node]*Node) map[*Node]*Node {
	result := map[*Node]*Node{}
	for _, c := range children {
		result[c] = c
	}
	update := true
	for update {
		update = false
		for _, child := range children {
			currentParent := result[child]
			nextParent, ok := cp[currentParent]
			if !ok || nextParent.Tag == "hierarchy" {
				continue
			}
			overlapsAny := false
			for _, other := range children {
				if other == child {
					continue
				}
				if Overlap(nextParent, result[other]) {
					overlapsAny = true
					break
				}
			}
			if !overlapsAny {
				result[child] = nextParent
				update = true
			}
		}
	}
	return result
}

func nodeHash(n *Node) [3]string {
	return [3]string{n.Attr("resource-id"), n.Attr("content-desc"), n.Attr("text")}
}

// getNonUnique returns the subset of children sharing an
// (id, content-desc, text) triple with at least one other child in the
// group.
func getNonUnique(children []*Node) map[*Node]bool {
	counts := map[[3]string]int{}
	for _, c := range children {
		counts[nodeHash(c)]++
	}
	result := map[*Node]bool{}
	for _, c := range children {
		if counts[nodeHash(c)] > 1 {
			result[c] = true
		}
	}
	return result
}

// getUniqueChildren returns children whose class occurs exactly once.
func getUniqueChildren(children map[*Node]bool) map[*Node]bool {
	result := map[*Node]bool{}
	seen := map[string]bool{}
	for c := range children {
		class := c.Attr("class")
		if !seen[class] {
			seen[class] = true
			result[c] = true
		} else {
			for x := range result {
				if x.Attr("class") == class {
					delete(result, x)
				}
			}
		}
	}
	return result
}
