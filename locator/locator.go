// Package locator defines the criteria-based widget locator used by
// recorded steps and reconstructed from matched layout nodes during repair.
package locator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/entropydec/gsrb/criterion"
	"github.com/entropydec/gsrb/layout"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// attrPreference is the order Locator.FromNode tries attributes in when
// deriving a locator from a matched node.
var attrPreference = []string{"text", "content-desc", "resource-id"}

// Locator identifies a widget by one or more criteria, disambiguated by
// index when more than one node satisfies every criterion.
type Locator struct {
	Criteria map[criterion.Criterion]string
	Index    int
}

// New builds a Locator from the given criteria at the given index.
func New(criteria map[criterion.Criterion]string, index int) Locator {
	return Locator{Criteria: criteria, Index: index}
}

// FindInLayout returns the index-th node in root satisfying every
// criterion, or nil if none does.
func (l Locator) FindInLayout(root *layout.Node) *layout.Node {
	var matched []*layout.Node
	for _, n := range root.Iter() {
		if l.matches(n) {
			matched = append(matched, n)
		}
	}
	if len(matched) == 0 || l.Index >= len(matched) {
		return nil
	}
	return matched[l.Index]
}

func (l Locator) matches(n *layout.Node) bool {
	for c, v := range l.Criteria {
		if !c.Match(n, v) {
			return false
		}
	}
	return true
}

// ToKwargs renders the locator's criteria as the external parameter names a
// concrete device driver's selector expects (resourceId, description,
// className, text).
func (l Locator) ToKwargs() map[string]string {
	kwargs := make(map[string]string, len(l.Criteria))
	for c, v := range l.Criteria {
		kwargs[c.ParamName()] = v
	}
	return kwargs
}

type jsonLocator struct {
	Criteria map[string]string `json:"criteria"`
	Index    int               `json:"index,omitempty"`
}

// ToDict serializes the locator into the record.txt wire shape.
func (l Locator) ToDict() map[string]interface{} {
	criteria := make(map[string]string, len(l.Criteria))
	for c, v := range l.Criteria {
		criteria[c.String()] = v
	}
	d := map[string]interface{}{"criteria": criteria}
	if l.Index != 0 {
		d["index"] = l.Index
	}
	return d
}

// MarshalJSON implements json.Marshaler.
func (l Locator) MarshalJSON() ([]byte, error) {
	criteria := make(map[string]string, len(l.Criteria))
	for c, v := range l.Criteria {
		criteria[c.String()] = v
	}
	return json.Marshal(jsonLocator{Criteria: criteria, Index: l.Index})
}

// UnmarshalJSON implements json.Unmarshaler. Unknown criterion names are
// dropped with a warning, matching the original's from_dict tolerance.
func (l *Locator) UnmarshalJSON(data []byte) error {
	var jl jsonLocator
	if err := json.Unmarshal(data, &jl); err != nil {
		return errors.Wrap(err, "unmarshal locator")
	}
	criteria := make(map[criterion.Criterion]string, len(jl.Criteria))
	for name, v := range jl.Criteria {
		c, ok := criterion.FromName(name)
		if !ok {
			log.Warn().Str("criterion", name).Msg("unknown criterion")
			continue
		}
		criteria[c] = v
	}
	l.Criteria = criteria
	l.Index = jl.Index
	return nil
}

// FromNode derives a Locator from a matched node, preferring text, then
// content-desc, then resource-id, falling back to class when none of those
// are set.
func FromNode(n *layout.Node) Locator {
	for _, attr := range attrPreference {
		identifier := n.Attr(attr)
		if identifier == "" {
			continue
		}
		c, _ := criterion.FromName(attrCriterionName(attr))
		index := n.IntAttr(attr+"-index", 0)
		return New(map[criterion.Criterion]string{c: identifier}, index)
	}
	identifier := n.Attr("class")
	index := n.IntAttr("class-index", 0)
	return New(map[criterion.Criterion]string{criterion.Class: identifier}, index)
}

func attrCriterionName(attr string) string {
	switch attr {
	case "text":
		return "TEXT"
	case "content-desc":
		return "DESC"
	case "resource-id":
		return "ID"
	default:
		return "CLASS"
	}
}

// GenerateU2 renders the locator the way a record.txt-derived script would:
// `(k1="v1", k2="v2"[, instance=N])`, with values double-quoted and
// escaped as Go's %q does, and keys ordered by Criterion's declaration
// order for determinism.
func (l Locator) GenerateU2() string {
	var criteria []criterion.Criterion
	for c := range l.Criteria {
		criteria = append(criteria, c)
	}
	sort.Slice(criteria, func(i, j int) bool { return criterion.Less(criteria[i], criteria[j]) })

	var parts []string
	for _, c := range criteria {
		parts = append(parts, fmt.Sprintf("%s=%q", c.ParamName(), l.Criteria[c]))
	}
	if l.Index != 0 {
		parts = append(parts, "instance="+strconv.Itoa(l.Index))
	}
	out := "("
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out + ")"
}

// Equal reports whether l and other identify the same criteria set and
// index.
func (l Locator) Equal(other Locator) bool {
	if l.Index != other.Index || len(l.Criteria) != len(other.Criteria) {
		return false
	}
	for c, v := range l.Criteria {
		if ov, ok := other.Criteria[c]; !ok || ov != v {
			return false
		}
	}
	return true
}
