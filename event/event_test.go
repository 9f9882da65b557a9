package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/entropydec/gsrb/action"
	"github.com/entropydec/gsrb/criterion"
	"github.com/entropydec/gsrb/device"
	"github.com/entropydec/gsrb/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	clicked bool
	exists  bool
}

func (o *fakeObject) Click(ctx context.Context) error     { o.clicked = true; return nil }
func (o *fakeObject) LongClick(ctx context.Context) error { return nil }
func (o *fakeObject) SetText(ctx context.Context, text string) error {
	return nil
}
func (o *fakeObject) Exists(ctx context.Context) bool { return o.exists }
func (o *fakeObject) Info(ctx context.Context) (map[string]interface{}, error) {
	return nil, nil
}

type fakeDriver struct {
	device.Driver
	obj      *fakeObject
	notFound bool
}

func (d *fakeDriver) Find(ctx context.Context, kwargs map[string]string, index int) (device.Object, error) {
	if d.notFound {
		return nil, assert.AnError
	}
	return d.obj, nil
}

func textLocator(text string) *locator.Locator {
	l := locator.New(map[criterion.Criterion]string{criterion.Text: text}, 0)
	return &l
}

func TestEventPerformSucceeds(t *testing.T) {
	drv := &fakeDriver{obj: &fakeObject{}}
	e := New(action.CLICK, textLocator("OK"), nil)
	ok := e.Perform(context.Background(), drv)
	assert.True(t, ok)
	assert.True(t, drv.obj.clicked)
}

func TestEventPerformFailsWhenLookupFails(t *testing.T) {
	drv := &fakeDriver{notFound: true}
	e := New(action.CLICK, textLocator("OK"), nil)
	assert.False(t, e.Perform(context.Background(), drv))
}

func TestIsGeneratedAssertion(t *testing.T) {
	e := New(action.EXIST, textLocator("OK"), map[string]interface{}{"generated": true})
	assert.True(t, e.IsGeneratedAssertion())

	e2 := New(action.EXIST, textLocator("OK"), nil)
	assert.False(t, e2.IsGeneratedAssertion())

	e3 := New(action.CLICK, textLocator("OK"), map[string]interface{}{"generated": true})
	assert.False(t, e3.IsGeneratedAssertion())
}

func TestWithParameterMergesWithoutMutatingOriginal(t *testing.T) {
	e := New(action.SET_TEXT, textLocator("field"), map[string]interface{}{"text": "a"})
	merged := e.WithParameter(map[string]interface{}{"repaired": true})

	assert.Equal(t, "a", e.Parameter["text"])
	_, hadRepaired := e.Parameter["repaired"]
	assert.False(t, hadRepaired)

	assert.Equal(t, "a", merged.Parameter["text"])
	assert.Equal(t, true, merged.Parameter["repaired"])
}

func TestEventJSONRoundTrip(t *testing.T) {
	e := New(action.CLICK, textLocator("OK"), map[string]interface{}{"generated": true})
	data, err := json.Marshal(e)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, e.Equal(got))
}

func TestEventUnmarshalUnknownAction(t *testing.T) {
	var e Event
	err := json.Unmarshal([]byte(`{"action":"NOT_A_REAL_ACTION"}`), &e)
	assert.Error(t, err)
}

func TestGenerateU2ClickAndSetText(t *testing.T) {
	click := New(action.CLICK, textLocator("OK"), nil)
	assert.Equal(t, `d(text="OK").click()`, click.GenerateU2("d"))

	setText := New(action.SET_TEXT, textLocator("field"), map[string]interface{}{"text": "hello"})
	assert.Equal(t, `d(text="field").set_text("hello")`, setText.GenerateU2("d"))
}

func TestGenerateU2ExistFailedIsCommentedOut(t *testing.T) {
	e := New(action.EXIST, textLocator("OK"), map[string]interface{}{"failed": true})
	line := e.GenerateU2("d")
	assert.True(t, len(line) > 0 && line[0] == '#')
}

func TestGenerateU2AppendsGeneratedAndRepairedFlags(t *testing.T) {
	e := New(action.CLICK, textLocator("OK"), map[string]interface{}{"generated": true, "repaired": true})
	line := e.GenerateU2("d")
	assert.Contains(t, line, "generated")
	assert.Contains(t, line, "repaired")
}

func TestGenerateU2Back(t *testing.T) {
	e := New(action.BACK, nil, nil)
	assert.Equal(t, `d.press("back")`, e.GenerateU2("d"))
}

func TestGenerateU2Swipe(t *testing.T) {
	e := New(action.SWIPE, nil, map[string]interface{}{"fx": 1, "fy": 2, "tx": 3, "ty": 4})
	assert.Equal(t, `d.swipe(1, 2, 3, 4)`, e.GenerateU2("d"))
}

func TestEventEqual(t *testing.T) {
	a := New(action.CLICK, textLocator("OK"), map[string]interface{}{"x": 1})
	b := New(action.CLICK, textLocator("OK"), map[string]interface{}{"x": 1})
	assert.True(t, a.Equal(b))

	c := New(action.CLICK, textLocator("Cancel"), map[string]interface{}{"x": 1})
	assert.False(t, a.Equal(c))
}
