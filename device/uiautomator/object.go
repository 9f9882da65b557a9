package uiautomator

import (
	"context"
	"time"

	"github.com/entropydec/gsrb/device"
	"github.com/pkg/errors"
)

// objectInfo mirrors android-uiautomator-server's ObjInfo response shape.
type objectInfo struct {
	Text               string `json:"text"`
	ContentDescription string `json:"contentDescription"`
	PackageName        string `json:"packageName"`
	ClassName          string `json:"className"`
	ResourceName       string `json:"resourceName"`
	Checkable          bool   `json:"checkable"`
	Checked            bool   `json:"checked"`
	Clickable          bool   `json:"clickable"`
	Enabled            bool   `json:"enabled"`
	Focusable          bool   `json:"focusable"`
	Focused            bool   `json:"focused"`
	LongClickable      bool   `json:"longClickable"`
	Scrollable         bool   `json:"scrollable"`
	Selected           bool   `json:"selected"`
}

// object is a widget located by selector through the JSON-RPC connection.
// It implements device.Object.
type object struct {
	rpc *rpcClient
	s   *selector
}

var _ device.Object = (*object)(nil)

func (o *object) Click(ctx context.Context) error {
	return o.callSimple(ctx, "click")
}

func (o *object) LongClick(ctx context.Context) error {
	return o.callSimple(ctx, "longClick")
}

func (o *object) SetText(ctx context.Context, text string) error {
	return o.callSimple(ctx, "setText", text)
}

func (o *object) Exists(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, device.ImplicitWait)
	defer cancel()
	var exists bool
	if err := o.rpc.call(ctx, "exist", &exists, o.s); err != nil {
		return false
	}
	return exists
}

func (o *object) Info(ctx context.Context) (map[string]interface{}, error) {
	var info objectInfo
	if err := o.rpc.call(ctx, "objInfo", &info, o.s); err != nil {
		return nil, errors.Wrap(err, "objInfo failed")
	}
	return map[string]interface{}{
		"text":               info.Text,
		"contentDescription": info.ContentDescription,
		"packageName":        info.PackageName,
		"className":          info.ClassName,
		"resourceName":       info.ResourceName,
		"checkable":          info.Checkable,
		"checked":            info.Checked,
		"clickable":          info.Clickable,
		"enabled":            info.Enabled,
		"focusable":          info.Focusable,
		"focused":            info.Focused,
		"longClickable":      info.LongClickable,
		"scrollable":         info.Scrollable,
		"selected":           info.Selected,
	}, nil
}

// callSimple calls a remote method that returns a success bool, waiting up
// to device.ImplicitWait for the widget to exist first.
func (o *object) callSimple(ctx context.Context, method string, params ...interface{}) error {
	waitCtx, cancel := context.WithTimeout(ctx, device.ImplicitWait)
	defer cancel()
	var exists bool
	if err := o.rpc.call(waitCtx, "waitForExists", &exists, o.s, device.ImplicitWait/time.Millisecond); err != nil {
		return errors.Wrapf(err, "%s: waitForExists failed", method)
	}
	if !exists {
		return errors.Errorf("%s: widget not found within %s", method, device.ImplicitWait)
	}

	args := append([]interface{}{o.s}, params...)
	var success bool
	if err := o.rpc.call(ctx, method, &success, args...); err != nil {
		return errors.Wrapf(err, "%s failed", method)
	}
	if !success {
		return errors.Errorf("%s: remote call reported failure", method)
	}
	return nil
}
