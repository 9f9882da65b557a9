// Package event ties an action to its locator and replay parameters, and
// renders a step back into a script line for the repaired output.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/entropydec/gsrb/action"
	"github.com/entropydec/gsrb/device"
	"github.com/entropydec/gsrb/locator"
	"github.com/pkg/errors"
)

// PerformInterval is the fixed settle time after a successful Perform,
// matching the original driver's post-action pause.
const PerformInterval = 1 * time.Second

// Event is the atomic replay unit: an action, the locator identifying the
// widget it targets (nil for locator-free actions), and free-form replay
// parameters (text to type, swipe coordinates, assertion oracle, and the
// generated/repaired/failed bookkeeping flags rendered into the script).
type Event struct {
	Action    action.Action
	Locator   *locator.Locator
	Parameter map[string]interface{}
}

// New builds an Event, defaulting Parameter to an empty map.
func New(a action.Action, loc *locator.Locator, parameter map[string]interface{}) Event {
	if parameter == nil {
		parameter = map[string]interface{}{}
	}
	return Event{Action: a, Locator: loc, Parameter: parameter}
}

// Perform replays e against drv, sleeping PerformInterval on success. It
// reports success as a bool rather than propagating the error, mirroring
// the original's catch-and-report-false behavior for lookup/assertion
// failures during replay.
func (e Event) Perform(ctx context.Context, drv device.Driver) bool {
	var obj device.Object
	if e.Locator != nil {
		kwargs := e.Locator.ToKwargs()
		o, err := drv.Find(ctx, kwargs, e.Locator.Index)
		if err != nil {
			return false
		}
		obj = o
	}
	if err := action.Perform(ctx, drv, obj, e.Action, e.Parameter); err != nil {
		return false
	}
	select {
	case <-ctx.Done():
	case <-time.After(PerformInterval):
	}
	return true
}

// IsAssertion reports whether e's action is an assertion.
func (e Event) IsAssertion() bool { return e.Action.IsAssertion() }

// IsGeneratedAssertion reports whether e is an assertion carrying the
// "generated" flag, i.e. one added to the recording afterwards rather than
// recorded from the original run.
func (e Event) IsGeneratedAssertion() bool {
	return e.IsAssertion() && hasFlag(e.Parameter, "generated")
}

func hasFlag(parameter map[string]interface{}, key string) bool {
	_, ok := parameter[key]
	return ok
}

// WithParameter returns a copy of e with param merged over its existing
// parameters.
func (e Event) WithParameter(param map[string]interface{}) Event {
	merged := make(map[string]interface{}, len(e.Parameter)+len(param))
	for k, v := range e.Parameter {
		merged[k] = v
	}
	for k, v := range param {
		merged[k] = v
	}
	return Event{Action: e.Action, Locator: e.Locator, Parameter: merged}
}

type jsonEvent struct {
	Action    string                 `json:"action"`
	Locator   *locator.Locator       `json:"locator,omitempty"`
	Parameter map[string]interface{} `json:"parameter,omitempty"`
}

// MarshalJSON implements json.Marshaler, matching record.txt's wire shape.
func (e Event) MarshalJSON() ([]byte, error) {
	je := jsonEvent{Action: e.Action.String(), Locator: e.Locator}
	if len(e.Parameter) > 0 {
		je.Parameter = e.Parameter
	}
	return json.Marshal(je)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var je jsonEvent
	if err := json.Unmarshal(data, &je); err != nil {
		return errors.Wrap(err, "unmarshal event")
	}
	a, ok := action.FromName(je.Action)
	if !ok {
		return errors.Errorf("unknown action: %s", je.Action)
	}
	e.Action = a
	e.Locator = je.Locator
	if je.Parameter == nil {
		je.Parameter = map[string]interface{}{}
	}
	e.Parameter = je.Parameter
	return nil
}

// GenerateU2 renders e into a script line targeting devicePart (the
// receiver expression the rewritten script calls methods on, e.g. "d").
// A failed assertion is commented out; generated/repaired flags are
// appended as a trailing comment.
func (e Event) GenerateU2(devicePart string) string {
	locatorPart := ""
	if e.Locator != nil {
		locatorPart = e.Locator.GenerateU2()
	}
	prefix := devicePart + locatorPart

	suffix := ""
	if hasFlag(e.Parameter, "generated") || hasFlag(e.Parameter, "repaired") {
		suffix = "  # "
		if hasFlag(e.Parameter, "generated") {
			suffix += "generated"
		}
		if hasFlag(e.Parameter, "repaired") {
			suffix += "repaired"
		}
	}

	switch e.Action {
	case action.CLICK:
		return fmt.Sprintf("%s.click()%s", prefix, suffix)
	case action.LONG_CLICK:
		return fmt.Sprintf("%s.long_click()%s", prefix, suffix)
	case action.SET_TEXT:
		text, _ := e.Parameter["text"].(string)
		return fmt.Sprintf("%s.set_text(%q)%s", prefix, text, suffix)
	case action.EXIST:
		line := fmt.Sprintf("assert %s.exists%s", prefix, suffix)
		if hasFlag(e.Parameter, "failed") {
			return "# " + line
		}
		return line
	case action.NOT_EXIST:
		return fmt.Sprintf("assert not %s.exists%s", prefix, suffix)
	case action.BACK:
		return fmt.Sprintf("%s.press(\"back\")%s", prefix, suffix)
	case action.EQUAL:
		attr, _ := e.Parameter["attr"].(string)
		oracle := e.Parameter["oracle"]
		return fmt.Sprintf("assert %s.info[%q] == %q%s", prefix, attr, fmt.Sprint(oracle), suffix)
	case action.NOT_EQUAL:
		attr, _ := e.Parameter["attr"].(string)
		oracle := e.Parameter["oracle"]
		return fmt.Sprintf("assert %s.info[%q] != %q%s", prefix, attr, fmt.Sprint(oracle), suffix)
	case action.SWIPE:
		return fmt.Sprintf("%s.swipe(%v, %v, %v, %v)%s", prefix,
			e.Parameter["fx"], e.Parameter["fy"], e.Parameter["tx"], e.Parameter["ty"], suffix)
	default:
		return prefix
	}
}

// Equal reports whether e and other carry the same action, locator, and
// parameters.
func (e Event) Equal(other Event) bool {
	if e.Action != other.Action {
		return false
	}
	if (e.Locator == nil) != (other.Locator == nil) {
		return false
	}
	if e.Locator != nil && !e.Locator.Equal(*other.Locator) {
		return false
	}
	if len(e.Parameter) != len(other.Parameter) {
		return false
	}
	for k, v := range e.Parameter {
		if ov, ok := other.Parameter[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
