// Package criterion defines the predicate enumeration used to locate widgets
// by a single XML attribute.
package criterion

import "github.com/entropydec/gsrb/layout"

// Criterion names one XML attribute a Locator can match against. The zero
// value is ID.
type Criterion int

const (
	// ID matches a node's resource-id attribute.
	ID Criterion = iota
	// Desc matches a node's content-desc attribute.
	Desc
	// Class matches a node's class attribute.
	Class
	// Text matches a node's text attribute.
	Text
)

// xmlAttr is the hierarchy-dump attribute name backing each Criterion.
var xmlAttr = map[Criterion]string{
	ID:    "resource-id",
	Desc:  "content-desc",
	Class: "class",
	Text:  "text",
}

// paramName is the external parameter name (as used by record.txt locators
// and by the rendered device-driver calls) backing each Criterion.
var paramName = map[Criterion]string{
	ID:    "resourceId",
	Desc:  "description",
	Class: "className",
	Text:  "text",
}

// names is the serialization name used in record.txt's criteria map.
var names = map[Criterion]string{
	ID:    "ID",
	Desc:  "DESC",
	Class: "CLASS",
	Text:  "TEXT",
}

var byName = map[string]Criterion{
	"ID":   ID,
	"DESC": Desc,
	"CLASS": Class,
	"TEXT": Text,
}

var byParamName = map[string]Criterion{
	"resourceId":  ID,
	"description": Desc,
	"className":   Class,
	"text":        Text,
}

// Attr returns the XML attribute name this Criterion reads.
func (c Criterion) Attr() string { return xmlAttr[c] }

// ParamName returns the external parameter name used in device-driver calls.
func (c Criterion) ParamName() string { return paramName[c] }

// String implements fmt.Stringer, returning the serialization name.
func (c Criterion) String() string { return names[c] }

// Match reports whether node satisfies this criterion against identifier.
func (c Criterion) Match(node *layout.Node, identifier string) bool {
	return node.Attr(c.Attr()) == identifier
}

// FromName parses a serialization name (as stored in record.txt) into a
// Criterion. ok is false for unrecognized names.
func FromName(name string) (c Criterion, ok bool) {
	c, ok = byName[name]
	return
}

// FromParamName parses an external parameter name (resourceId, description,
// className, text) into a Criterion. ok is false for unrecognized names.
func FromParamName(name string) (c Criterion, ok bool) {
	c, ok = byParamName[name]
	return
}

// Less orders criteria ID < Desc < Class < Text, matching spec.md's
// enumeration order.
func Less(a, b Criterion) bool { return a < b }
