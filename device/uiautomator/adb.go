// Package uiautomator implements device.Driver against a live Android
// device: ADB for app lifecycle and screen capture, and a JSON-RPC
// connection to the android-uiautomator-server app for widget lookups and
// interactions, the same split the teacher framework uses between its
// adb and ui packages.
package uiautomator

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// adb wraps shell access to one device over ADB. The teacher framework
// wraps its ADB invocations in a testexec.Cmd tied to its own process
// bookkeeping; that type is internal to the framework it comes from, so
// this adapter runs adb directly through os/exec, the ecosystem's
// baseline for process execution.
type adb struct {
	serial string
}

func newADB(serial string) *adb {
	return &adb{serial: serial}
}

// shell runs "adb -s <serial> shell <args>" and returns trimmed stdout.
func (a *adb) shell(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-s", a.serial, "shell"}, args...)
	return a.run(ctx, full...)
}

// run runs "adb -s <serial> <args>" and returns trimmed stdout.
func (a *adb) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-s", a.serial}, args...)
	cmd := exec.CommandContext(ctx, "adb", full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "adb %s: %s", strings.Join(full, " "), stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// runBinary runs "adb -s <serial> <args>" and returns raw stdout, for
// binary output such as screenshots.
func (a *adb) runBinary(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{"-s", a.serial}, args...)
	cmd := exec.CommandContext(ctx, "adb", full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "adb %s: %s", strings.Join(full, " "), stderr.String())
	}
	return stdout.Bytes(), nil
}

// forwardTCP forwards a port on the host to androidPort on the device.
func (a *adb) forwardTCP(ctx context.Context, hostPort, androidPort int) error {
	_, err := a.run(ctx, "forward", "tcp:"+strconv.Itoa(hostPort), "tcp:"+strconv.Itoa(androidPort))
	return err
}
