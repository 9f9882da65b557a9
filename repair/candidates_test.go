package repair

import (
	"testing"

	"github.com/entropydec/gsrb/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(t *testing.T, attrs string) *layout.Node {
	t.Helper()
	root, err := layout.Parse(`<hierarchy><node ` + attrs + `/></hierarchy>`)
	require.NoError(t, err)
	return root.Iter()[0]
}

func TestDefaultFilterKeepsEveryChild(t *testing.T) {
	a := node(t, `text="a"`)
	b := node(t, `text="b"`)
	children := map[*layout.Node]bool{a: true, b: true}
	assert.Len(t, defaultFilter(children), 2)
}

func TestDefaultKeyOrdersTopLeft(t *testing.T) {
	top := node(t, `bounds="[0,0][10,10]"`)
	bottom := node(t, `bounds="[0,50][10,60]"`)
	assert.True(t, defaultKey(top) != defaultKey(bottom))
	assert.Less(t, defaultKey(top)[0], defaultKey(bottom)[0])
}

func TestOptimizeFilterExcludesEditTextAndCheckbox(t *testing.T) {
	editText := node(t, `class="android.widget.EditText"`)
	checkbox := node(t, `class="android.widget.CheckBox"`)
	button := node(t, `class="android.widget.Button"`)
	children := map[*layout.Node]bool{editText: true, checkbox: true, button: true}

	filter := optimizeFilter(map[*layout.Node]*layout.Node{})
	result := filter(children)

	assert.Len(t, result, 1)
	assert.Equal(t, button, result[0])
}

func TestOptimizeFilterCollapsesListGroupToBestRepresentative(t *testing.T) {
	parentA := node(t, `resource-id="group"`)
	parentB := node(t, `resource-id="group"`)
	textView := node(t, `class="android.widget.TextView" bounds="[0,0][10,10]" text="hi"`)
	imageView := node(t, `class="android.widget.ImageView" bounds="[0,0][10,10]"`)
	nonOverlap := map[*layout.Node]*layout.Node{textView: parentA, imageView: parentA}
	children := map[*layout.Node]bool{textView: true, imageView: true}

	filter := optimizeFilter(nonOverlap)
	result := filter(children)

	require.Len(t, result, 1)
	assert.Equal(t, textView, result[0])
	_ = parentB
}

func TestOptimizeKeyPrefersUniqueIDTextDesc(t *testing.T) {
	unique := node(t, `resource-id="uniq" text="a" bounds="[0,0][1,1]"`)
	duplicateA := node(t, `resource-id="dup" text="b" bounds="[0,0][1,1]"`)
	duplicateB := node(t, `resource-id="dup" text="b" bounds="[0,0][1,1]"`)

	keyFn := optimizeKey([]*layout.Node{unique, duplicateA, duplicateB})

	ku := keyFn(unique)
	kd := keyFn(duplicateA)
	assert.Equal(t, 0, ku.idUnique)
	assert.Equal(t, 1, kd.idUnique)
	assert.True(t, less(ku, kd))
}

func TestLessIsStrictWeakOrdering(t *testing.T) {
	a := customKey{idUnique: 0}
	b := customKey{idUnique: 1}
	assert.True(t, less(a, b))
	assert.False(t, less(b, a))
	assert.False(t, less(a, a))
}
