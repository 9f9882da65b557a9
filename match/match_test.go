package match

import (
	"testing"

	"github.com/entropydec/gsrb/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<hierarchy>
	<node class="android.widget.FrameLayout" bounds="[0,0][1080,1920]">
		<node resource-id="com.app:id/login" class="android.widget.Button" text="Log In" bounds="[100,100][300,200]"/>
		<node resource-id="com.app:id/signup" class="android.widget.Button" text="Sign Up" bounds="[100,300][300,400]"/>
	</node>
</hierarchy>`

func buildLayout(t *testing.T, xml string) *layout.Layout {
	t.Helper()
	l, err := layout.New(xml, nil)
	require.NoError(t, err)
	return l
}

func TestLayoutMatchIdenticalScreensScoresFull(t *testing.T) {
	old := buildLayout(t, sampleXML)
	new_ := buildLayout(t, sampleXML)

	result := Layout(old, new_)

	assert.True(t, result.IsMatch)
	assert.Equal(t, 1.0, result.Score)
	assert.Empty(t, result.OldNotMatched)
	assert.Empty(t, result.NewNotMatched)
	assert.Len(t, result.Matched, 2)
}

func TestLayoutMatchRenamedWidgetGoesUnmatched(t *testing.T) {
	old := buildLayout(t, sampleXML)

	renamed := `<hierarchy>
		<node class="android.widget.FrameLayout" bounds="[0,0][1080,1920]">
			<node resource-id="com.app:id/login_v2" class="android.widget.Button" text="Log In Now" bounds="[100,100][300,200]"/>
			<node resource-id="com.app:id/signup" class="android.widget.Button" text="Sign Up" bounds="[100,300][300,400]"/>
		</node>
	</hierarchy>`
	new_ := buildLayout(t, renamed)

	result := Layout(old, new_)

	require.Len(t, result.Matched, 1)
	for old, newNode := range result.Matched {
		assert.Equal(t, "Sign Up", old.Attr("text"))
		assert.Equal(t, "Sign Up", newNode.Attr("text"))
	}
	assert.Len(t, result.OldNotMatched, 1)
	for n := range result.OldNotMatched {
		assert.Equal(t, "Log In", n.Attr("text"))
	}
}

func TestLayoutMatchCompletelyDifferentScreenHasLowScore(t *testing.T) {
	old := buildLayout(t, sampleXML)

	unrelated := `<hierarchy>
		<node class="android.widget.FrameLayout" bounds="[0,0][1080,1920]">
			<node resource-id="com.app:id/settings" class="android.widget.TextView" text="Settings" bounds="[100,100][300,200]"/>
			<node resource-id="com.app:id/logout" class="android.widget.TextView" text="Logout" bounds="[100,300][300,400]"/>
		</node>
	</hierarchy>`
	new_ := buildLayout(t, unrelated)

	result := Layout(old, new_)

	assert.False(t, result.IsMatch)
	assert.Len(t, result.OldNotMatched, 2)
}
