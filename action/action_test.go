package action

import (
	"context"
	"testing"

	"github.com/entropydec/gsrb/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	clicked, longClicked bool
	text                 string
	exists               bool
	info                 map[string]interface{}
}

func (o *fakeObject) Click(ctx context.Context) error     { o.clicked = true; return nil }
func (o *fakeObject) LongClick(ctx context.Context) error { o.longClicked = true; return nil }
func (o *fakeObject) SetText(ctx context.Context, text string) error {
	o.text = text
	return nil
}
func (o *fakeObject) Exists(ctx context.Context) bool { return o.exists }
func (o *fakeObject) Info(ctx context.Context) (map[string]interface{}, error) {
	return o.info, nil
}

type fakeDriver struct {
	device.Driver
	backPressed    bool
	fx, fy, tx, ty int
	swiped         bool
}

func (d *fakeDriver) PressBack(ctx context.Context) error {
	d.backPressed = true
	return nil
}

func (d *fakeDriver) Swipe(ctx context.Context, fx, fy, tx, ty int) error {
	d.swiped = true
	d.fx, d.fy, d.tx, d.ty = fx, fy, tx, ty
	return nil
}

func TestPerformClick(t *testing.T) {
	obj := &fakeObject{}
	require.NoError(t, Perform(context.Background(), nil, obj, CLICK, nil))
	assert.True(t, obj.clicked)
}

func TestPerformSetText(t *testing.T) {
	obj := &fakeObject{}
	require.NoError(t, Perform(context.Background(), nil, obj, SET_TEXT, map[string]interface{}{"text": "hello"}))
	assert.Equal(t, "hello", obj.text)
}

func TestPerformExist(t *testing.T) {
	obj := &fakeObject{exists: true}
	assert.NoError(t, Perform(context.Background(), nil, obj, EXIST, nil))

	obj.exists = false
	assert.Error(t, Perform(context.Background(), nil, obj, EXIST, nil))
}

func TestPerformEqual(t *testing.T) {
	obj := &fakeObject{info: map[string]interface{}{"text": "abc"}}
	assert.NoError(t, Perform(context.Background(), nil, obj, EQUAL,
		map[string]interface{}{"attr": "text", "oracle": "abc"}))
	assert.Error(t, Perform(context.Background(), nil, obj, EQUAL,
		map[string]interface{}{"attr": "text", "oracle": "xyz"}))
}

func TestPerformBackAndSwipe(t *testing.T) {
	drv := &fakeDriver{}
	require.NoError(t, Perform(context.Background(), drv, nil, BACK, nil))
	assert.True(t, drv.backPressed)

	require.NoError(t, Perform(context.Background(), drv, nil, SWIPE,
		map[string]interface{}{"fx": 1, "fy": 2, "tx": 3, "ty": 4}))
	assert.True(t, drv.swiped)
	assert.Equal(t, [4]int{1, 2, 3, 4}, [4]int{drv.fx, drv.fy, drv.tx, drv.ty})
}

func TestPerformLocatorActionWithoutObjectErrors(t *testing.T) {
	drv := &fakeDriver{}
	err := Perform(context.Background(), drv, nil, CLICK, nil)
	assert.Error(t, err)
}

func TestActionStringRoundTrip(t *testing.T) {
	for _, a := range []Action{CLICK, LONG_CLICK, SET_TEXT, EXIST, NOT_EXIST, EQUAL, NOT_EQUAL, BACK, SWIPE} {
		got, ok := FromName(a.String())
		require.True(t, ok)
		assert.Equal(t, a, got)
	}
	_, ok := FromName("NOT_A_REAL_ACTION")
	assert.False(t, ok)
}

func TestIsAssertion(t *testing.T) {
	assert.True(t, EXIST.IsAssertion())
	assert.True(t, NOT_EXIST.IsAssertion())
	assert.True(t, EQUAL.IsAssertion())
	assert.True(t, NOT_EQUAL.IsAssertion())
	assert.False(t, CLICK.IsAssertion())
	assert.False(t, BACK.IsAssertion())
}
