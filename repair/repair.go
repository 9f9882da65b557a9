// Package repair implements the synchronous repair driver: it replays a
// recorded TestCase against a live device, rewriting locators through the
// layout matcher as it goes, speculatively exploring candidate clicks when
// a step can't be matched, and backtracking a step when exploration is
// exhausted.
package repair

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/entropydec/gsrb/action"
	"github.com/entropydec/gsrb/device"
	"github.com/entropydec/gsrb/event"
	"github.com/entropydec/gsrb/layout"
	"github.com/entropydec/gsrb/locator"
	"github.com/entropydec/gsrb/match"
	"github.com/entropydec/gsrb/step"
	"github.com/entropydec/gsrb/xlog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// appInitWait is the settle time after launching the app under test,
// matching the original's fixed 5s wait.
const appInitWait = 5 * time.Second

// Config controls a Session's behavior, independent of the device and
// testcase it operates on.
type Config struct {
	Package         string
	DeviceSerial    string
	OptimizeExplore bool
	RemoveAssertion bool
}

// resultStep is one committed step of the repaired script, with the
// generated assertion (if any) that checkGeneratedAssertion replayed after
// it during repair, flagged "failed" when that replay did not pass.
type resultStep struct {
	step.Step
	assertion *step.Step
}

// Session drives one repair run end to end.
type Session struct {
	drv device.Driver
	cfg Config

	runID uuid.UUID

	pretest string

	testcase       step.TestCase
	generatedAfter map[int]step.Step

	result  []resultStep
	current int

	startTime, endTime time.Time
	exploreCount       int
}

// New builds a Session for replaying testcase against drv. pretest, if
// non-empty, is stored with its u2.connect()/uiautomator2.connect() calls
// bound to cfg.DeviceSerial and written to the verbose archive as
// pretest.py. The engine never runs it, and the repaired script produced
// by Script does not include it.
func New(ctx context.Context, drv device.Driver, testcase step.TestCase, pretest string, cfg Config) (*Session, error) {
	version, err := drv.AppVersion(ctx, cfg.Package)
	if err != nil {
		return nil, errors.Wrapf(err, "get version of %s", cfg.Package)
	}
	xlog.Info(ctx, "target apk: "+cfg.Package)
	xlog.Info(ctx, "target version: "+version)

	if cfg.RemoveAssertion {
		testcase = removeAssertions(testcase)
	}

	filtered, generatedAfter := splitGeneratedAssertions(testcase)
	runID := uuid.New()
	xlog.Info(ctx, "run id: "+runID.String())

	return &Session{
		drv:            drv,
		cfg:            cfg,
		runID:          runID,
		pretest:        substitutePretest(pretest, cfg.DeviceSerial),
		testcase:       filtered,
		generatedAfter: generatedAfter,
	}, nil
}

func removeAssertions(testcase step.TestCase) step.TestCase {
	var out step.TestCase
	for _, s := range testcase {
		if !s.Event.IsAssertion() {
			out = append(out, s)
		}
	}
	return out
}

// splitGeneratedAssertions pulls generated-assertion steps out of the
// replay sequence, returning the remaining steps and a map from a
// surviving step's position to the generated assertion immediately
// following it in the original sequence.
func splitGeneratedAssertions(testcase step.TestCase) (step.TestCase, map[int]step.Step) {
	var filtered step.TestCase
	origToFiltered := map[int]int{}
	for i, s := range testcase {
		if s.Event.IsGeneratedAssertion() {
			continue
		}
		origToFiltered[i] = len(filtered)
		filtered = append(filtered, s)
	}
	generatedAfter := map[int]step.Step{}
	for i := 0; i < len(testcase)-1; i++ {
		if testcase[i+1].Event.IsGeneratedAssertion() {
			if fi, ok := origToFiltered[i]; ok {
				generatedAfter[fi] = testcase[i+1]
			}
		}
	}
	return filtered, generatedAfter
}

func substitutePretest(pretest, serial string) string {
	if pretest == "" {
		return ""
	}
	r := strings.NewReplacer(
		"u2.connect()", "u2.connect(\""+serial+"\")",
		"uiautomator2.connect()", "uiautomator2.connect(\""+serial+"\")",
	)
	return r.Replace(pretest)
}

// Run drives the repair loop to completion, returning whether it
// succeeded. Afterwards, Script renders the repaired script, Save writes
// it to a file, and SaveVerbose emits the verbose-output zip.
func (s *Session) Run(ctx context.Context) (bool, error) {
	s.startTime = time.Now()
	xlog.Info(ctx, "repair start")

	if err := s.initApp(ctx); err != nil {
		return false, err
	}

	for s.current < len(s.testcase) {
		s.checkGeneratedAssertion(ctx)

		ok, fatal := s.matchCurrentOrNext(ctx)
		if ok {
			continue
		}
		if fatal {
			xlog.Info(ctx, "aborting: fatal condition in match/assertion")
			return s.finish(ctx, false)
		}

		xlog.Info(ctx, "try to explore...")
		ok, fatal = s.exploreCandidates(ctx)
		if ok {
			continue
		}
		if fatal {
			xlog.Info(ctx, "aborting: fatal condition in match/assertion")
			return s.finish(ctx, false)
		}

		xlog.Info(ctx, "try to explore with a step back")
		if len(s.result) == 0 {
			xlog.Info(ctx, "cannot back")
			return s.finish(ctx, false)
		}
		if s.result[len(s.result)-1].Event.Action == action.SWIPE {
			s.result = s.result[:len(s.result)-1]
		}
		s.result = s.result[:len(s.result)-1]
		if err := s.recover(ctx); err != nil {
			return false, err
		}

		ok, fatal = s.matchCurrentOrNext(ctx)
		if ok {
			continue
		}
		if fatal {
			xlog.Info(ctx, "aborting: fatal condition in match/assertion")
			return s.finish(ctx, false)
		}
		ok, fatal = s.exploreCandidates(ctx)
		if ok {
			continue
		}
		if fatal {
			xlog.Info(ctx, "aborting: fatal condition in match/assertion")
			return s.finish(ctx, false)
		}

		xlog.Info(ctx, "all explorations are failed")
		return s.finish(ctx, false)
	}

	s.checkGeneratedAssertion(ctx)
	return s.finish(ctx, true)
}

func (s *Session) finish(ctx context.Context, succeeded bool) (bool, error) {
	s.endTime = time.Now()
	xlog.Info(ctx, "repair finished, succeeded="+boolStr(succeeded))
	if err := s.drv.StopApp(ctx, s.cfg.Package); err != nil {
		xlog.Error(ctx, err, "stop app after finishing")
	}
	return succeeded, nil
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Script renders the repaired result into a u2-style script.
func (s *Session) Script() string {
	var lines []string
	for _, r := range s.result {
		lines = append(lines, r.Event.GenerateU2("d"))
		if r.assertion != nil {
			lines = append(lines, r.assertion.Event.GenerateU2("d"))
		}
	}
	content := "    " + strings.Join(lines, "\n    ")
	script := renderU2("d", s.cfg.DeviceSerial, s.cfg.Package, content)
	return fmt.Sprintf(
		"# repair time: %.2fs\n# explore time: %d\n%s",
		s.endTime.Sub(s.startTime).Seconds(), s.exploreCount, script,
	)
}

// initApp stops, clears, re-grants permissions to, and restarts the app
// under test, the fixed sequence the original's init_app performs before
// every repair attempt and recovery.
func (s *Session) initApp(ctx context.Context) error {
	if err := s.drv.StopApp(ctx, s.cfg.Package); err != nil {
		return errors.Wrap(err, "stop app")
	}
	if err := s.drv.ClearApp(ctx, s.cfg.Package); err != nil {
		return errors.Wrap(err, "clear app")
	}
	if err := s.drv.GrantPermissions(ctx, s.cfg.Package); err != nil {
		return errors.Wrap(err, "grant permissions")
	}
	if err := s.drv.StartApp(ctx, s.cfg.Package); err != nil {
		return errors.Wrap(err, "start app")
	}
	select {
	case <-ctx.Done():
	case <-time.After(appInitWait):
	}
	return nil
}

// recover restores device state to everything committed in s.result so
// far, by reinitializing the app and replaying every committed event.
func (s *Session) recover(ctx context.Context) error {
	xlog.Info(ctx, "recovering...")
	if err := s.initApp(ctx); err != nil {
		return err
	}
	for _, r := range s.result {
		r.Event.Perform(ctx, s.drv)
	}
	return nil
}

func (s *Session) capture(ctx context.Context) (*layout.Layout, error) {
	xmlDump, err := s.drv.DumpHierarchy(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "dump hierarchy")
	}
	png, err := s.drv.Screenshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "screenshot")
	}
	return layout.New(xmlDump, png)
}

// checkGeneratedAssertion replays the generated assertion (if any) recorded
// immediately after the most recently committed step, attaching its
// outcome to that result step for rendering.
func (s *Session) checkGeneratedAssertion(ctx context.Context) {
	if s.current < 1 || len(s.result) == 0 {
		return
	}
	assertionStep, ok := s.generatedAfter[s.current-1]
	if !ok {
		return
	}
	xlog.Info(ctx, "try to perform generated assertion")
	curIdx := len(s.result) - 1
	if assertionStep.Event.Perform(ctx, s.drv) {
		s.result[curIdx].assertion = &assertionStep
		return
	}
	failed := assertionStep.Event.WithParameter(map[string]interface{}{"failed": true})
	failedStep := step.Step{Event: failed}
	s.result[curIdx].assertion = &failedStep
}

// execAssertion executes the assertion at testcase[current] (or
// testcase[current+1] when nextStep is true) directly, with no locator
// rewriting: assertions are not matched through the layout pipeline, they
// are simply retried against the live UI. A failure on the current step is
// fatal; a failure on the next step merely yields control to other repair
// strategies.
func (s *Session) execAssertion(ctx context.Context, nextStep bool) (ok bool, fatal bool) {
	idx := s.current
	offset := 1
	if nextStep {
		idx = s.current + 1
		offset = 2
	}
	cur := s.testcase[idx]
	if !cur.Event.IsAssertion() {
		return false, false
	}
	before, err := s.capture(ctx)
	if err != nil {
		xlog.Error(ctx, err, "capture before assertion")
		return false, false
	}
	if cur.Event.Perform(ctx, s.drv) {
		s.result = append(s.result, resultStep{Step: step.Step{
			Event:    cur.Event,
			UIBefore: step.Ui{XML: before.XML, PNG: before.PNG},
			UIAfter:  step.Ui{XML: before.XML, PNG: before.PNG},
		}})
		s.current += offset
		return true, false
	}
	if nextStep {
		xlog.Info(ctx, "next step assertion failed")
		return false, false
	}
	xlog.Error(ctx, nil, "assertion failed")
	return false, true
}

// matchCurrentOrNext tries matchCurrent then matchNext, reporting whether
// either succeeded and whether a fatal condition was hit along the way. A
// fatal result from matchCurrent short-circuits matchNext, since the
// session is about to abort regardless.
func (s *Session) matchCurrentOrNext(ctx context.Context) (ok bool, fatal bool) {
	if ok, fatal = s.matchCurrent(ctx); ok || fatal {
		return ok, fatal
	}
	return s.matchNext(ctx)
}

func (s *Session) matchCurrent(ctx context.Context) (ok bool, fatal bool) {
	xlog.Info(ctx, "try to match current step...")
	if ok, fatal = s.execAssertion(ctx, false); ok || fatal {
		return ok, fatal
	}
	return s.match(ctx, s.testcase[s.current], 1)
}

func (s *Session) matchNext(ctx context.Context) (ok bool, fatal bool) {
	if s.current+1 >= len(s.testcase) {
		return false, false
	}
	xlog.Info(ctx, "try to match next step...")
	if ok, fatal = s.execAssertion(ctx, true); ok || fatal {
		return ok, fatal
	}
	return s.match(ctx, s.testcase[s.current+1], 2)
}

// try executes st directly with no locator rewriting, for steps that carry
// no locator at all (BACK, SWIPE).
func (s *Session) try(ctx context.Context, st step.Step, offset int) bool {
	before, err := s.capture(ctx)
	if err != nil {
		xlog.Error(ctx, err, "capture before try")
		return false
	}
	if !st.Event.Perform(ctx, s.drv) {
		return false
	}
	after, err := s.capture(ctx)
	if err != nil {
		xlog.Error(ctx, err, "capture after try")
		return false
	}
	s.result = append(s.result, resultStep{Step: step.Step{
		Event:    st.Event,
		UIBefore: step.Ui{XML: before.XML, PNG: before.PNG},
		UIAfter:  step.Ui{XML: after.XML, PNG: after.PNG},
	}})
	s.current += offset
	return true
}

// match rewrites st's locator by matching its recorded ui_before against
// the current live layout, then performs the rewritten event. Failing to
// resolve st's locator in the base layout, and failing to perform the
// rewritten event after a successful match, are both fatal: the former
// means the recorded step is internally inconsistent, the latter means the
// matched layout has diverged from the live device.
func (s *Session) match(ctx context.Context, st step.Step, offset int) (ok bool, fatal bool) {
	if st.Event.IsAssertion() {
		return false, false
	}
	if st.Event.Locator == nil {
		return s.try(ctx, st, offset), false
	}

	before, err := s.capture(ctx)
	if err != nil {
		xlog.Error(ctx, err, "capture before match")
		return false, false
	}
	baseLayout, err := layout.New(st.UIBefore.XML, st.UIBefore.PNG)
	if err != nil {
		xlog.Error(ctx, err, "parse base layout")
		return false, false
	}
	result := match.Layout(baseLayout, before)

	oldChild := st.Event.Locator.FindInLayout(baseLayout.Root)
	if oldChild == nil {
		xlog.Error(ctx, nil, "cannot find node in base layout")
		return false, true
	}

	target, matched := result.Matched[oldChild]
	if !matched {
		return false, false
	}

	newLocator := locator.FromNode(target)
	newEvent := st.Event.WithParameter(nil)
	newEvent.Locator = &newLocator

	if !newEvent.Perform(ctx, s.drv) {
		xlog.Error(ctx, nil, "perform repaired step failed")
		return false, true
	}

	after, err := s.capture(ctx)
	if err != nil {
		xlog.Error(ctx, err, "capture after match")
		return false, false
	}

	if layout.TreeEqual(before.Root, after.Root) {
		s.current += offset
		return true, false
	}

	s.result = append(s.result, resultStep{Step: step.Step{
		Event:    newEvent,
		UIBefore: step.Ui{XML: before.XML, PNG: before.PNG},
		UIAfter:  step.Ui{XML: after.XML, PNG: after.PNG},
	}})
	s.current += offset
	return true, false
}

// exploreCandidates tries every exploration candidate from the live
// layout, in priority order, stopping at the first one that lets
// matchCurrent or matchNext succeed. A fatal condition surfaced by one
// candidate's follow-up match short-circuits the remaining candidates,
// since the session is about to abort regardless.
func (s *Session) exploreCandidates(ctx context.Context) (ok bool, fatal bool) {
	for _, candidate := range s.candidates(ctx) {
		if ok, fatal = s.explore(ctx, candidate); ok || fatal {
			return ok, fatal
		}
	}
	return false, false
}

func (s *Session) candidates(ctx context.Context) []event.Event {
	current, err := s.capture(ctx)
	if err != nil {
		xlog.Error(ctx, err, "capture for candidates")
		return nil
	}

	var children []*layout.Node
	if s.cfg.OptimizeExplore {
		children = optimizeFilter(current.NonOverlap)(current.Children)
		key := optimizeKey(children)
		sortNodes(children, func(a, b *layout.Node) bool { return less(key(a), key(b)) })
	} else {
		children = defaultFilter(current.Children)
		sortNodes(children, func(a, b *layout.Node) bool {
			ka, kb := defaultKey(a), defaultKey(b)
			return ka[0] < kb[0] || (ka[0] == kb[0] && ka[1] < kb[1])
		})
	}

	var candidates []event.Event
	for _, child := range children {
		loc := locator.FromNode(child)
		candidates = append(candidates, event.New(action.CLICK, &loc, nil))
	}
	return candidates
}

func sortNodes(nodes []*layout.Node, less func(a, b *layout.Node) bool) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && less(nodes[j], nodes[j-1]); j-- {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
		}
	}
}

// explore speculatively performs ev, appending a new result step, and
// checks whether it unblocks the current/next step. When the follow-up
// match fails, it rolls back both the device state and s.result to how
// they were before the attempt; when optimize-explore finds the UI
// unchanged, it restores s.result only. When ev cannot be performed or a
// capture fails, it returns without recovering the device. A fatal
// condition from the follow-up match is propagated as-is, without
// rollback, since the session is about to abort.
func (s *Session) explore(ctx context.Context, ev event.Event) (ok bool, fatal bool) {
	s.exploreCount++
	xlog.Info(ctx, "try to explore new step")

	original := make([]resultStep, len(s.result))
	copy(original, s.result)

	before, err := s.capture(ctx)
	if err != nil {
		xlog.Error(ctx, err, "capture before explore")
		return false, false
	}
	if !ev.Perform(ctx, s.drv) {
		xlog.Error(ctx, nil, "perform exploration step failed")
		return false, false
	}
	after, err := s.capture(ctx)
	if err != nil {
		xlog.Error(ctx, err, "capture after explore")
		return false, false
	}

	s.result = append(s.result, resultStep{Step: step.Step{
		Event:    ev,
		UIBefore: step.Ui{XML: before.XML, PNG: before.PNG},
		UIAfter:  step.Ui{XML: after.XML, PNG: after.PNG},
	}})

	if s.cfg.OptimizeExplore && layout.TreeEqual(before.Root, after.Root) {
		xlog.Info(ctx, "UI not changed after exploration, return")
		s.result = original
		return false, false
	}

	if ok, fatal = s.matchCurrentOrNext(ctx); ok || fatal {
		return ok, fatal
	}

	xlog.Info(ctx, "explore failed")
	s.result = original
	if err := s.recover(ctx); err != nil {
		xlog.Error(ctx, err, "recover after failed exploration")
	}
	return false, false
}
