package layout

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// similarityThreshold is the minimum Levenshtein ratio for attrLike to
// consider two attribute values similar.
const similarityThreshold = 0.70

var resourceIDPrefix = regexp.MustCompile(`^(?:[A-Za-z][A-Za-z\d_]*)(?:\.[A-Za-z][A-Za-z\d_]*)*:id/(.*)$`)

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

func stripResourceIDPrefix(s string) string {
	if s == "" {
		return s
	}
	if m := resourceIDPrefix.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// AttrEqual reports whether a and b have equal values for the given
// attribute (or a's name1 against b's name2, when name2 is supplied). An
// empty value on either side is never considered equal.
func AttrEqual(a, b *Node, name1 string, name2 ...string) bool {
	n2 := name1
	if len(name2) > 0 {
		n2 = name2[0]
	}
	attrA := strings.ToLower(strings.TrimSpace(a.Attr(name1)))
	attrB := strings.ToLower(strings.TrimSpace(b.Attr(n2)))
	if attrA == "" || attrB == "" {
		return false
	}
	return normalize(attrA) == normalize(attrB)
}

// AttrLike reports whether a and b have similar values for the given
// attribute, using a Levenshtein-ratio threshold. resource-id values are
// stripped of their package/type prefix before comparison.
func AttrLike(a, b *Node, name1 string, name2 ...string) bool {
	n2 := name1
	if len(name2) > 0 {
		n2 = name2[0]
	}
	attrA := strings.ToLower(strings.TrimSpace(a.Attr(name1)))
	if name1 == "resource-id" {
		attrA = stripResourceIDPrefix(attrA)
	}
	attrB := strings.ToLower(strings.TrimSpace(b.Attr(n2)))
	if n2 == "resource-id" {
		attrB = stripResourceIDPrefix(attrB)
	}
	if attrA == "" || attrB == "" {
		return false
	}
	attrA = normalize(attrA)
	attrB = normalize(attrB)

	distance := levenshtein.ComputeDistance(attrA, attrB)
	maxLen := len(attrA)
	if len(attrB) > maxLen {
		maxLen = len(attrB)
	}
	if maxLen == 0 {
		return true
	}
	ratio := 1 - float64(distance)/float64(maxLen)
	return ratio >= similarityThreshold
}

var listClasses = map[string]bool{
	"android.view.ViewGroup":                   true,
	"android.widget.GridView":                  true,
	"android.widget.ListView":                  true,
	"android.widget.FrameLayout":                true,
	"android.widget.GridLayout":                true,
	"android.widget.LinearLayout":              true,
	"android.widget.RelativeLayout":            true,
	"androidx.recyclerview.widget.RecyclerView": true,
}

// IsList reports whether node's class is one of the known container classes
// treated as a list/group rather than a leaf widget.
func IsList(node *Node) bool {
	return listClasses[node.Attr("class")]
}

const maxChildArea = 1080 * 1920 * 0.6

// IsChild reports whether node is eligible to participate in matching as a
// leaf widget.
func IsChild(node *Node) bool {
	if !node.IsLeaf() {
		return false
	}
	if strings.HasPrefix(node.Attr("resource-id"), "com.google.android.inputmethod") {
		return false
	}
	w, h := node.IntAttr("w", 0), node.IntAttr("h", 0)
	if w == 0 || h == 0 {
		return false
	}
	if float64(w*h) >= maxChildArea {
		return false
	}
	notList := !IsList(node)
	hasText := node.Attr("text") != ""
	notEmpty := hasText || node.Attr("content-desc") != "" || node.Attr("resource-id") != ""
	bigEnough := w >= 15 && h >= 15
	return notList && (notEmpty || bigEnough)
}

// IsParent reports whether node is eligible to anchor matching as a
// container: it must carry an id or description and have children (or be a
// list class).
func IsParent(node *Node) bool {
	w, h := node.IntAttr("w", 0), node.IntAttr("h", 0)
	if w == 0 || h == 0 {
		return false
	}
	notEmpty := node.Attr("resource-id") != "" || node.Attr("content-desc") != ""
	return notEmpty && (len(node.Children) > 0 || IsList(node))
}

// IsCover reports whether a covers b: b's center point lies inside a's
// bounds, meaning an interaction aimed at b is effectively captured by a.
func IsCover(a, b *Node) bool {
	ac, bc := Coordinates(a), Coordinates(b)
	centerX := float64(bc.X0+bc.X1) / 2
	centerY := float64(bc.Y0+bc.Y1) / 2
	hCover := float64(ac.X0) <= centerX && centerX <= float64(ac.X1)
	vCover := float64(ac.Y0) <= centerY && centerY <= float64(ac.Y1)
	return hCover && vCover
}

// Overlap reports whether a and b's bounds intersect.
//
// BUG: the horizontal bound is computed as min(ax1, ax1) rather than
// min(ax1, bx1), a defect inherited verbatim from the original
// implementation; this makes Overlap looser than true rectangle
// intersection: the horizontal check passes whenever max(ax0, bx0) < ax1,
// so a b lying entirely to the left of a still overlaps it horizontally.
func Overlap(a, b *Node) bool {
	ac, bc := Coordinates(a), Coordinates(b)
	xMin, xMax := min(ac.X1, ac.X1), max(ac.X0, bc.X0)
	hOverlap := xMin > xMax
	yMin, yMax := min(ac.Y1, bc.Y1), max(ac.Y0, bc.Y0)
	vOverlap := yMin > yMax
	return hOverlap && vOverlap
}

// IsMatch reports whether a and b agree on at least two (strict) or one
// (non-strict) of resource-id, content-desc, and text.
func IsMatch(a, b *Node, strict bool) bool {
	equal := 0
	if AttrEqual(a, b, "resource-id") {
		equal++
	}
	if AttrEqual(a, b, "content-desc") {
		equal++
	}
	if AttrEqual(a, b, "text") {
		equal++
	}
	if strict {
		return equal >= 2
	}
	return equal >= 1
}

var radioButtonClass = "android.widget.RadioButton"

// IsLike reports whether a and b are a plausible fuzzy match, following the
// original's layered heuristic: an EditText pair sharing only a similar
// resource-id, a similar text/description (cross or same attribute) plus,
// when strict, a similar id, or an exact text/description swap outside
// RadioButtons.
func IsLike(a, b *Node, strict bool) bool {
	if a.Attr("text") == "" && b.Attr("text") == "" &&
		a.Attr("content-desc") == "" && b.Attr("content-desc") == "" &&
		AttrLike(a, b, "resource-id") &&
		a.Attr("class") == b.Attr("class") &&
		a.Attr("class") == "android.widget.EditText" {
		return true
	}

	idOK := AttrLike(a, b, "resource-id") || !strict
	contentOK := AttrLike(a, b, "text") ||
		AttrLike(a, b, "content-desc") ||
		AttrLike(a, b, "text", "content-desc") ||
		AttrLike(a, b, "content-desc", "text")
	if idOK && contentOK {
		return true
	}

	if (AttrEqual(a, b, "text", "content-desc") || AttrEqual(a, b, "content-desc", "text")) &&
		a.Attr("class") != radioButtonClass && b.Attr("class") != radioButtonClass {
		return true
	}

	return false
}

// IsInBound reports whether the point (px, py) lies strictly inside node's
// denoted x/y/w/h box.
func IsInBound(px, py float64, node *Node) bool {
	x, y := float64(node.IntAttr("x", 0)), float64(node.IntAttr("y", 0))
	w, h := float64(node.IntAttr("w", 0)), float64(node.IntAttr("h", 0))
	return x < px && px < x+w && y < py && py < y+h
}

var diffAttrs = []string{
	"resource-id", "text", "content-desc", "class",
	"resource-id-index", "text-index", "content-desc-index", "class-index",
}

// IsDiff reports whether a and b differ on any attribute the repair
// driver's rendered diff report cares about, filling diffs with the
// (old, new) value pair for every attribute it checked.
func IsDiff(a, b *Node, diffs map[string][2]string) bool {
	result := false
	for _, attr := range diffAttrs {
		va, vb := a.Attr(attr), b.Attr(attr)
		if diffs != nil {
			diffs[attr] = [2]string{va, vb}
		}
		if va != vb {
			result = true
		}
	}
	return result
}

// TreeEqual reports whether two hierarchy trees are structurally identical,
// ignoring attribute order.
func TreeEqual(a, b *Node) bool {
	return canonical(a) == canonical(b)
}

func canonical(n *Node) string {
	var sb strings.Builder
	writeCanonical(&sb, n)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, n *Node) {
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sortStrings(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(n.Attrs[k])
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	for _, c := range n.Children {
		writeCanonical(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteByte('>')
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
