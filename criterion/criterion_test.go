package criterion

import (
	"testing"

	"github.com/entropydec/gsrb/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeWith(attrs map[string]string) *layout.Node {
	xml := `<node`
	for k, v := range attrs {
		xml += ` ` + k + `="` + v + `"`
	}
	xml += `/>`
	n, err := layout.Parse(xml)
	if err != nil {
		panic(err)
	}
	return n
}

func TestMatch(t *testing.T) {
	n := nodeWith(map[string]string{"resource-id": "com.app:id/btn", "text": "OK"})
	assert.True(t, ID.Match(n, "com.app:id/btn"))
	assert.False(t, ID.Match(n, "other"))
	assert.True(t, Text.Match(n, "OK"))
}

func TestParamNameRoundTrip(t *testing.T) {
	for _, c := range []Criterion{ID, Desc, Class, Text} {
		got, ok := FromParamName(c.ParamName())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
}

func TestFromNameRoundTrip(t *testing.T) {
	for _, c := range []Criterion{ID, Desc, Class, Text} {
		got, ok := FromName(c.String())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
	_, ok := FromName("BOGUS")
	assert.False(t, ok)
}

func TestLessOrder(t *testing.T) {
	assert.True(t, Less(ID, Desc))
	assert.True(t, Less(Desc, Class))
	assert.True(t, Less(Class, Text))
	assert.False(t, Less(Text, ID))
}
