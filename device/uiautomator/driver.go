package uiautomator

import (
	"context"
	"strconv"
	"strings"

	"github.com/entropydec/gsrb/device"
	"github.com/pkg/errors"
)

const (
	serverTestPkg  = "com.github.uiautomator.test"
	serverActivity = "androidx.test.runner.AndroidJUnitRunner"
)

// Driver implements device.Driver against a real Android device reached
// over ADB, with widget interactions routed through the
// android-uiautomator-server JSON-RPC service the teacher framework's ui
// package talks to.
type Driver struct {
	adb *adb
	rpc *rpcClient
}

var _ device.Driver = (*Driver)(nil)

// Connect starts the android-uiautomator-server instrumentation on the
// device identified by serial, forwards its JSON-RPC port to hostPort, and
// returns a ready Driver.
func Connect(ctx context.Context, serial string, hostPort int) (*Driver, error) {
	a := newADB(serial)

	if _, err := a.shell(ctx, "am", "instrument", "-w",
		serverTestPkg+"/"+serverActivity); err != nil {
		return nil, errors.Wrap(err, "start uiautomator server")
	}
	if err := a.forwardTCP(ctx, hostPort, 9008); err != nil {
		return nil, errors.Wrap(err, "forward uiautomator port")
	}

	return &Driver{adb: a, rpc: &rpcClient{hostPort: hostPort}}, nil
}

// Find implements device.Driver.
func (d *Driver) Find(ctx context.Context, kwargs map[string]string, index int) (device.Object, error) {
	return &object{rpc: d.rpc, s: selectorFromKwargs(kwargs, index)}, nil
}

// PressBack implements device.Driver.
func (d *Driver) PressBack(ctx context.Context) error {
	_, err := d.adb.shell(ctx, "input", "keyevent", "4")
	return err
}

// Swipe implements device.Driver.
func (d *Driver) Swipe(ctx context.Context, fx, fy, tx, ty int) error {
	_, err := d.adb.shell(ctx, "input", "swipe",
		strconv.Itoa(fx), strconv.Itoa(fy), strconv.Itoa(tx), strconv.Itoa(ty))
	return err
}

// DumpHierarchy implements device.Driver.
func (d *Driver) DumpHierarchy(ctx context.Context) (string, error) {
	const remote = "/sdcard/gsrb-dump.xml"
	if _, err := d.adb.shell(ctx, "uiautomator", "dump", remote); err != nil {
		return "", errors.Wrap(err, "uiautomator dump")
	}
	data, err := d.adb.runBinary(ctx, "exec-out", "cat", remote)
	if err != nil {
		return "", errors.Wrap(err, "read hierarchy dump")
	}
	return string(data), nil
}

// Screenshot implements device.Driver.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.adb.runBinary(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, errors.Wrap(err, "screencap")
	}
	return data, nil
}

// StartApp implements device.Driver.
func (d *Driver) StartApp(ctx context.Context, pkg string) error {
	_, err := d.adb.shell(ctx, "monkey", "-p", pkg, "-c",
		"android.intent.category.LAUNCHER", "1")
	return errors.Wrapf(err, "start %s", pkg)
}

// StopApp implements device.Driver.
func (d *Driver) StopApp(ctx context.Context, pkg string) error {
	_, err := d.adb.shell(ctx, "am", "force-stop", pkg)
	return errors.Wrapf(err, "stop %s", pkg)
}

// ClearApp implements device.Driver.
func (d *Driver) ClearApp(ctx context.Context, pkg string) error {
	_, err := d.adb.shell(ctx, "pm", "clear", pkg)
	return errors.Wrapf(err, "clear %s", pkg)
}

// GrantPermissions implements device.Driver, attempting "pm grant" for every
// android.permission.* entry listed in the package's dumpsys output. Grant
// failures (for example, on non-runtime permissions) are ignored.
func (d *Driver) GrantPermissions(ctx context.Context, pkg string) error {
	dump, err := d.adb.shell(ctx, "dumpsys", "package", pkg)
	if err != nil {
		return errors.Wrapf(err, "dumpsys package %s", pkg)
	}
	for _, perm := range requestedPermissions(dump) {
		if _, err := d.adb.shell(ctx, "pm", "grant", pkg, perm); err != nil {
			continue
		}
	}
	return nil
}

// AppVersion implements device.Driver.
func (d *Driver) AppVersion(ctx context.Context, pkg string) (string, error) {
	dump, err := d.adb.shell(ctx, "dumpsys", "package", pkg)
	if err != nil {
		return "", errors.Wrapf(err, "dumpsys package %s", pkg)
	}
	for _, line := range strings.Split(dump, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "versionName=") {
			return strings.TrimPrefix(line, "versionName="), nil
		}
	}
	return "", errors.Errorf("versionName not found for %s", pkg)
}

// requestedPermissions returns the permission name of every line in a
// dumpsys package block that starts with "android.permission.", whatever
// its granted state.
func requestedPermissions(dump string) []string {
	var perms []string
	for _, line := range strings.Split(dump, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "android.permission.") {
			continue
		}
		name := strings.SplitN(line, ":", 2)[0]
		perms = append(perms, name)
	}
	return perms
}
