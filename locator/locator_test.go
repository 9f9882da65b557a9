package locator

import (
	"encoding/json"
	"testing"

	"github.com/entropydec/gsrb/criterion"
	"github.com/entropydec/gsrb/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseLayout(t *testing.T, xml string) *layout.Node {
	t.Helper()
	root, err := layout.Parse(xml)
	require.NoError(t, err)
	return root
}

func TestFindInLayoutDisambiguatesByIndex(t *testing.T) {
	root := parseLayout(t, `<hierarchy>
		<node class="android.widget.Button" text="Item"/>
		<node class="android.widget.Button" text="Item"/>
	</hierarchy>`)

	l0 := New(map[criterion.Criterion]string{criterion.Text: "Item"}, 0)
	l1 := New(map[criterion.Criterion]string{criterion.Text: "Item"}, 1)

	got0 := l0.FindInLayout(root)
	got1 := l1.FindInLayout(root)
	require.NotNil(t, got0)
	require.NotNil(t, got1)
	assert.NotSame(t, got0, got1)
}

func TestFindInLayoutReturnsNilWhenIndexOutOfRange(t *testing.T) {
	root := parseLayout(t, `<hierarchy><node text="Item"/></hierarchy>`)
	l := New(map[criterion.Criterion]string{criterion.Text: "Item"}, 1)
	assert.Nil(t, l.FindInLayout(root))
}

func TestToKwargsUsesParamNames(t *testing.T) {
	l := New(map[criterion.Criterion]string{criterion.ID: "com.app:id/btn"}, 0)
	kwargs := l.ToKwargs()
	assert.Equal(t, "com.app:id/btn", kwargs[criterion.ID.ParamName()])
}

func TestFromNodePrefersTextOverDescAndID(t *testing.T) {
	n := parseLayout(t, `<hierarchy><node text="Sign In" content-desc="desc" resource-id="id1"/></hierarchy>`).Iter()[0]
	l := FromNode(n)
	assert.Equal(t, "Sign In", l.Criteria[criterion.Text])
	assert.Len(t, l.Criteria, 1)
}

func TestFromNodeFallsBackToDescThenID(t *testing.T) {
	n := parseLayout(t, `<hierarchy><node content-desc="desc" resource-id="id1"/></hierarchy>`).Iter()[0]
	l := FromNode(n)
	assert.Equal(t, "desc", l.Criteria[criterion.Desc])

	n2 := parseLayout(t, `<hierarchy><node resource-id="id1"/></hierarchy>`).Iter()[0]
	l2 := FromNode(n2)
	assert.Equal(t, "id1", l2.Criteria[criterion.ID])
}

func TestFromNodeFallsBackToClass(t *testing.T) {
	n := parseLayout(t, `<hierarchy><node class="android.widget.Button"/></hierarchy>`).Iter()[0]
	l := FromNode(n)
	assert.Equal(t, "android.widget.Button", l.Criteria[criterion.Class])
}

func TestJSONRoundTrip(t *testing.T) {
	l := New(map[criterion.Criterion]string{criterion.Text: "OK", criterion.ID: "btn"}, 2)
	data, err := json.Marshal(l)
	require.NoError(t, err)

	var got Locator
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, l.Equal(got))
}

func TestUnmarshalDropsUnknownCriterion(t *testing.T) {
	var l Locator
	err := json.Unmarshal([]byte(`{"criteria":{"TEXT":"OK","BOGUS":"x"}}`), &l)
	require.NoError(t, err)
	assert.Len(t, l.Criteria, 1)
	assert.Equal(t, "OK", l.Criteria[criterion.Text])
}

func TestGenerateU2OrdersCriteriaAndIncludesInstance(t *testing.T) {
	l := New(map[criterion.Criterion]string{criterion.Text: "OK", criterion.ID: "btn"}, 2)
	assert.Equal(t, `(resourceId="btn", text="OK", instance=2)`, l.GenerateU2())
}

func TestGenerateU2OmitsInstanceWhenZero(t *testing.T) {
	l := New(map[criterion.Criterion]string{criterion.Text: "OK"}, 0)
	assert.Equal(t, `(text="OK")`, l.GenerateU2())
}

func TestLocatorEqual(t *testing.T) {
	a := New(map[criterion.Criterion]string{criterion.Text: "OK"}, 0)
	b := New(map[criterion.Criterion]string{criterion.Text: "OK"}, 0)
	assert.True(t, a.Equal(b))

	c := New(map[criterion.Criterion]string{criterion.Text: "Cancel"}, 0)
	assert.False(t, a.Equal(c))
}
