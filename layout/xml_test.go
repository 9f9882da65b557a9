package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuildsNestedTreeWithAttrs(t *testing.T) {
	root, err := Parse(`<hierarchy rotation="0"><node text="a"><node text="b"/></node></hierarchy>`)
	require.NoError(t, err)

	assert.Equal(t, "hierarchy", root.Tag)
	assert.Equal(t, "0", root.Attr("rotation"))
	require.Len(t, root.Children, 1)

	child := root.Children[0]
	assert.Equal(t, "a", child.Attr("text"))
	assert.Same(t, root, child.Parent)

	require.Len(t, child.Children, 1)
	assert.Equal(t, "b", child.Children[0].Attr("text"))
}

func TestParseEmptyDocumentErrors(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}

func TestParseMalformedXMLErrors(t *testing.T) {
	_, err := Parse("<hierarchy><node>")
	assert.Error(t, err)
}
