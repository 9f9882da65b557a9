package layout

import "strconv"

// Preprocess prepares a freshly parsed hierarchy for matching: system UI
// chrome unrelated to the app under test is dropped, and each node is
// annotated with its per-attribute occurrence index and denoted bounds.
func Preprocess(root *Node) {
	RemoveNode(root, func(n *Node) bool { return n.Attr("package") == "com.android.systemui" })
	DenoteIndex(root)
	DenoteBounds(root)
}

// RemoveNode drops every direct child of root (which must be the
// "hierarchy" root element) satisfying predicate.
func RemoveNode(root *Node, predicate func(*Node) bool) {
	if root.Tag != "hierarchy" {
		return
	}
	kept := root.Children[:0]
	for _, c := range root.Children {
		if predicate(c) {
			continue
		}
		kept = append(kept, c)
	}
	root.Children = kept
}

var indexedAttrs = [...]string{"class", "resource-id", "content-desc", "text"}

// DenoteIndex annotates every "node" descendant with <attr>-index fields:
// the zero-based ordinal of its value among other nodes sharing that value,
// in document order. Nodes with an empty attribute value get index -1.
// Nodes whose resource-id starts with com.google.android are skipped
// entirely, matching the original's exclusion of Google-keyboard chrome.
func DenoteIndex(root *Node) {
	counters := map[string]map[string]int{}
	for _, a := range indexedAttrs {
		counters[a] = map[string]int{}
	}
	for _, n := range root.Iter() {
		if hasPrefix(n.Attr("resource-id"), "com.google.android") {
			continue
		}
		for _, a := range indexedAttrs {
			v := n.Attr(a)
			if v != "" {
				n.SetAttr(a+"-index", strconv.Itoa(counters[a][v]))
				counters[a][v]++
			} else {
				n.SetAttr(a+"-index", "-1")
			}
		}
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// DenoteBounds annotates every "node" descendant with x, y, w, h derived
// from its parsed bounds.
func DenoteBounds(root *Node) {
	for _, n := range root.Iter() {
		c := Coordinates(n)
		n.SetAttr("x", strconv.Itoa(c.X0))
		n.SetAttr("y", strconv.Itoa(c.Y0))
		n.SetAttr("w", strconv.Itoa(c.X1-c.X0))
		n.SetAttr("h", strconv.Itoa(c.Y1-c.Y0))
	}
}
