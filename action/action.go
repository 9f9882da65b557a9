// Package action defines the fixed vocabulary of widget/device operations a
// recorded Event can perform, and how to replay one against a live Driver.
package action

import (
	"context"

	"github.com/entropydec/gsrb/device"
	"github.com/pkg/errors"
)

// Action names one kind of operation a recorded step performs. It carries
// no parameters itself: those travel alongside it in an Event's Parameter.
type Action int

const (
	// CLICK taps the located widget.
	CLICK Action = iota
	// LONG_CLICK long-presses the located widget.
	LONG_CLICK
	// SET_TEXT types Parameter["text"] into the located widget.
	SET_TEXT
	// EXIST asserts the located widget exists.
	EXIST
	// NOT_EXIST asserts the located widget does not exist.
	NOT_EXIST
	// EQUAL asserts the located widget's Parameter["attr"] equals
	// Parameter["oracle"].
	EQUAL
	// NOT_EQUAL asserts the located widget's Parameter["attr"] differs
	// from Parameter["oracle"].
	NOT_EQUAL
	// BACK presses the device back button; carries no locator.
	BACK
	// SWIPE swipes from (fx,fy) to (tx,ty); carries no locator.
	SWIPE
)

var names = map[Action]string{
	CLICK: "CLICK", LONG_CLICK: "LONG_CLICK", SET_TEXT: "SET_TEXT",
	EXIST: "EXIST", NOT_EXIST: "NOT_EXIST", EQUAL: "EQUAL", NOT_EQUAL: "NOT_EQUAL",
	BACK: "BACK", SWIPE: "SWIPE",
}

var byName = map[string]Action{}

func init() {
	for a, n := range names {
		byName[n] = a
	}
}

// String implements fmt.Stringer.
func (a Action) String() string { return names[a] }

// FromName parses a serialized action name. ok is false for unrecognized
// names.
func FromName(name string) (a Action, ok bool) {
	a, ok = byName[name]
	return
}

// IsAssertion reports whether a is one of the four assertion actions.
func (a Action) IsAssertion() bool {
	switch a {
	case EXIST, NOT_EXIST, EQUAL, NOT_EQUAL:
		return true
	default:
		return false
	}
}

// Perform executes a on the device. When obj is nil, a must be one of the
// locator-free actions (BACK, SWIPE); otherwise Perform returns an error.
// An assertion failure is reported as an error too, not a panic, so the
// repair driver can treat it uniformly with a lookup failure.
func Perform(ctx context.Context, drv device.Driver, obj device.Object, a Action, parameter map[string]interface{}) error {
	if obj == nil {
		switch a {
		case BACK:
			return drv.PressBack(ctx)
		case SWIPE:
			fx, fy := intParam(parameter, "fx"), intParam(parameter, "fy")
			tx, ty := intParam(parameter, "tx"), intParam(parameter, "ty")
			return drv.Swipe(ctx, fx, fy, tx, ty)
		default:
			return errors.Errorf("action %s missing locator", a)
		}
	}
	switch a {
	case CLICK:
		return obj.Click(ctx)
	case LONG_CLICK:
		return obj.LongClick(ctx)
	case SET_TEXT:
		text, _ := parameter["text"].(string)
		return obj.SetText(ctx, text)
	case EXIST:
		if !obj.Exists(ctx) {
			return errors.New("widget does not exist")
		}
		return nil
	case NOT_EXIST:
		if obj.Exists(ctx) {
			return errors.New("widget unexpectedly exists")
		}
		return nil
	case EQUAL:
		info, err := obj.Info(ctx)
		if err != nil {
			return err
		}
		attr, _ := parameter["attr"].(string)
		oracle := parameter["oracle"]
		if info[attr] != oracle {
			return errors.Errorf("attr %s: got %v, want %v", attr, info[attr], oracle)
		}
		return nil
	case NOT_EQUAL:
		info, err := obj.Info(ctx)
		if err != nil {
			return err
		}
		attr, _ := parameter["attr"].(string)
		oracle := parameter["oracle"]
		if info[attr] == oracle {
			return errors.Errorf("attr %s unexpectedly equals %v", attr, oracle)
		}
		return nil
	default:
		return errors.Errorf("unexpected action %s", a)
	}
}

func intParam(parameter map[string]interface{}, key string) int {
	switch v := parameter[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
