package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listXML = `<hierarchy>
	<node class="android.widget.FrameLayout" bounds="[0,0][1080,1920]">
		<node resource-id="com.app:id/row" bounds="[0,0][1080,200]">
			<node resource-id="com.app:id/title" class="android.widget.TextView" text="Item" bounds="[0,0][500,100]"/>
		</node>
		<node resource-id="com.app:id/row" bounds="[0,200][1080,400]">
			<node resource-id="com.app:id/title" class="android.widget.TextView" text="Item" bounds="[0,200][500,300]"/>
		</node>
		<node resource-id="com.app:id/search" class="android.widget.EditText" bounds="[0,400][1080,500]"/>
	</node>
</hierarchy>`

func TestLayoutNewDerivesChildrenAndListItemIndices(t *testing.T) {
	l, err := New(listXML, nil)
	require.NoError(t, err)

	require.Len(t, l.Children, 3)

	var titles []*Node
	for c := range l.Children {
		if c.Attr("resource-id") == "com.app:id/title" {
			titles = append(titles, c)
		}
	}
	require.Len(t, titles, 2)

	for _, title := range titles {
		assert.True(t, l.NonUnique[title], "title node should be flagged non-unique within its list group")
		_, ok := l.NonOverlap[title]
		assert.True(t, ok, "title node should have a non-overlap ancestor")
	}
}

func TestLayoutNewDerivesUniqueChildrenByClass(t *testing.T) {
	l, err := New(listXML, nil)
	require.NoError(t, err)

	var editText *Node
	for c := range l.Children {
		if c.Attr("class") == "android.widget.EditText" {
			editText = c
		}
	}
	require.NotNil(t, editText)
	assert.True(t, l.UniqueChildren[editText])

	for c := range l.Children {
		if c.Attr("class") == "android.widget.TextView" {
			assert.False(t, l.UniqueChildren[c], "class occurring twice should not be unique")
		}
	}
}

func TestLayoutNewBuildsChildParentMap(t *testing.T) {
	l, err := New(listXML, nil)
	require.NoError(t, err)

	for c := range l.Children {
		parent, ok := l.ChildParent[c]
		require.True(t, ok)
		assert.NotNil(t, parent)
	}
}

func TestLayoutDigestOmitsGoogleKeyboardNodesAndIsDeterministic(t *testing.T) {
	l, err := New(listXML, nil)
	require.NoError(t, err)

	first := l.Digest()
	second := l.Digest()
	assert.Equal(t, first, second)
	assert.NotContains(t, first, "com.google.android.inputmethod")
}
