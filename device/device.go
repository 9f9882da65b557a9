// Package device defines the abstract contract a concrete Android test
// driver must satisfy for the repair engine to replay and explore events
// against a live device. The concrete implementation lives in
// device/uiautomator; this package only defines the interfaces and the
// shared wait constant the repair driver programs against.
package device

import (
	"context"
	"time"
)

// ImplicitWait is the timeout an Object's Exists and actions honor before
// giving up on locating a widget, matching the original's u2 implicit-wait
// default. Find itself does not wait.
const ImplicitWait = 3 * time.Second

// Object is a widget located on the live device by a Driver. All methods
// are blocking and obey ctx cancellation.
type Object interface {
	Click(ctx context.Context) error
	LongClick(ctx context.Context) error
	SetText(ctx context.Context, text string) error
	Exists(ctx context.Context) bool
	// Info returns the widget's attribute map (resourceId, text,
	// contentDescription, className, ...), the same shape a u2 UiObject's
	// `.info` property exposes.
	Info(ctx context.Context) (map[string]interface{}, error)
}

// Driver is the live-device contract the repair engine replays events
// against. A concrete implementation wraps a UI Automator JSON-RPC
// connection plus an ADB transport for app lifecycle management.
type Driver interface {
	// Find locates the index-th widget matching kwargs (resourceId,
	// description, className, text), returning an Object bound to it.
	// Find does not fail immediately when no widget exists yet; it is the
	// returned Object's Exists/actions that honor ImplicitWait.
	Find(ctx context.Context, kwargs map[string]string, index int) (Object, error)

	PressBack(ctx context.Context) error
	Swipe(ctx context.Context, fx, fy, tx, ty int) error

	DumpHierarchy(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	// StartApp launches pkg and waits for it to settle.
	StartApp(ctx context.Context, pkg string) error
	StopApp(ctx context.Context, pkg string) error
	ClearApp(ctx context.Context, pkg string) error
	GrantPermissions(ctx context.Context, pkg string) error
	AppVersion(ctx context.Context, pkg string) (string, error)
}
