// Package layout parses a UI Automator hierarchy dump into a queryable tree
// and derives the indices the matcher and repair driver rely on: the set of
// interaction-eligible leaves, container nodes, child-to-parent links, and
// list-item groupings (spec.md §3-4.2).
package layout

import (
	"fmt"
	"regexp"
	"strconv"
)

// Node is one element of a parsed UI Automator hierarchy dump. Identity is
// by pointer: two Nodes are never considered equal just because their
// attributes match, matching spec.md's "identity is by object reference
// within one Layout" invariant.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Parent   *Node
	Children []*Node
}

// newNode allocates a Node with an initialized attribute map.
func newNode(tag string) *Node {
	return &Node{Tag: tag, Attrs: make(map[string]string)}
}

// Attr returns the named attribute's value, or "" if unset.
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// SetAttr sets the named attribute, used by preprocessing to denote derived
// fields (x, y, w, h, <attr>-index).
func (n *Node) SetAttr(name, value string) {
	n.Attrs[name] = value
}

// IntAttr parses the named attribute as an integer, defaulting to def on
// a missing or malformed value.
func (n *Node) IntAttr(name string, def int) int {
	v, ok := n.Attrs[name]
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Iter returns every "node"-tagged descendant of n (n itself included if it
// is tagged "node"), in document order, matching Python's
// Element.iter("node").
func (n *Node) Iter() []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur.Tag == "node" {
			out = append(out, cur)
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Coordinate is the parsed form of a node's bounds attribute.
type Coordinate struct {
	X0, Y0, X1, Y1 int
}

var boundsPattern = regexp.MustCompile(`^\s*\[(\d+)\s*,\s*(\d+)]\[(\d+)\s*,\s*(\d+)]\s*$`)

// ParseBounds parses a bounds string of the form "[x0,y0][x1,y1]". A
// malformed string yields the zero Coordinate, per spec.md §3.
func ParseBounds(bounds string) Coordinate {
	m := boundsPattern.FindStringSubmatch(bounds)
	if m == nil {
		return Coordinate{}
	}
	x0, _ := strconv.Atoi(m[1])
	y0, _ := strconv.Atoi(m[2])
	x1, _ := strconv.Atoi(m[3])
	y1, _ := strconv.Atoi(m[4])
	return Coordinate{x0, y0, x1, y1}
}

// Coordinates returns the parsed bounds of n.
func Coordinates(n *Node) Coordinate {
	bounds, ok := n.Attrs["bounds"]
	if !ok {
		bounds = "[0,0][0,0]"
	}
	return ParseBounds(bounds)
}

// Digest renders the attributes the matcher cares about into a short,
// human-readable form for debug logging, mirroring the original's
// utils/element.digest.
func Digest(n *Node) string {
	return fmt.Sprintf(
		"{c:%q t:%q d:%q r:%q b:%q}",
		n.Attr("class"), n.Attr("text"), n.Attr("content-desc"),
		n.Attr("resource-id"), n.Attr("bounds"),
	)
}
