package layout

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Parse decodes a UI Automator hierarchy dump into a Node tree rooted at the
// "hierarchy" element.
func Parse(data string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(data))
	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrap(err, "decode hierarchy xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := newNode(t.Name.Local)
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				n.Parent = parent
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return nil, errors.New("empty hierarchy document")
	}
	return root, nil
}
