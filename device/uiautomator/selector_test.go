package uiautomator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectorFromKwargsMapsAllFields(t *testing.T) {
	s := selectorFromKwargs(map[string]string{
		"text":        "OK",
		"className":   "android.widget.Button",
		"description": "desc",
		"resourceId":  "com.app:id/btn",
	}, 2)

	assert.Equal(t, "OK", s.Text)
	assert.Equal(t, "android.widget.Button", s.ClassName)
	assert.Equal(t, "desc", s.Description)
	assert.Equal(t, "com.app:id/btn", s.ResourceID)
	assert.Equal(t, 2, s.Instance)
}

func TestSelectorFromKwargsOmitsZeroInstance(t *testing.T) {
	s := selectorFromKwargs(map[string]string{"text": "OK"}, 0)
	assert.Equal(t, 0, s.Instance)
}

func TestSelectorFromKwargsIgnoresUnknownKeys(t *testing.T) {
	s := selectorFromKwargs(map[string]string{"bogus": "x"}, 0)
	assert.Equal(t, selector{}, *s)
}
