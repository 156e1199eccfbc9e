// Package uitest implements the verbs generated UI test scripts call. Every
// verb resolves its target on a fresh snapshot, acts or asserts, and reports
// failures instead of returning errors so a script keeps running after a
// failed check.
package uitest

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gxtest/uitest/pkg/config"
	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/locator"
	"github.com/gxtest/uitest/pkg/logger"
	"github.com/gxtest/uitest/pkg/picker"
	"github.com/gxtest/uitest/pkg/visual"
)

// Reporter receives the activity tree of a test run. Activities nest; a
// failure belongs to the innermost open activity.
type Reporter interface {
	BeginActivity(name string)
	EndActivity()
	Fail(message string)
}

// Attacher is implemented by reporters that keep artifacts such as the
// screenshots of a failed visual check.
type Attacher interface {
	Attach(a core.Attachment)
}

type nopReporter struct{}

func (nopReporter) BeginActivity(string) {}
func (nopReporter) EndActivity()         {}
func (nopReporter) Fail(string)          {}

// DefaultTestName keys reference images when no test name is given.
const DefaultTestName = "UITest"

// Tester runs verbs against one application.
type Tester struct {
	driver   core.Driver
	locator  *locator.Locator
	cfg      *config.Config
	reporter Reporter
	ctx      context.Context
	testName string
	months   picker.MonthNames
	sleep    func(time.Duration)

	failures       []string
	lastScreenshot screenshotOutcome
	lastDiffID     visual.DiffID
}

// Option configures a Tester.
type Option func(*Tester)

// WithReporter sets where activities and failures are reported.
func WithReporter(r Reporter) Option {
	return func(t *Tester) {
		if r != nil {
			t.reporter = r
		}
	}
}

// WithTestName sets the test code used for visual references.
func WithTestName(name string) Option {
	return func(t *Tester) {
		if name != "" {
			t.testName = name
		}
	}
}

// WithContext bounds network calls made by the verbs.
func WithContext(ctx context.Context) Option {
	return func(t *Tester) {
		if ctx != nil {
			t.ctx = ctx
		}
	}
}

// New creates a Tester. A nil cfg uses the defaults.
func New(driver core.Driver, cfg *config.Config, opts ...Option) *Tester {
	if cfg == nil {
		cfg = config.Default()
	}
	t := &Tester{
		driver: driver,
		locator: locator.New(driver,
			locator.WithPollInterval(cfg.Timeouts.PollInterval),
			locator.WithSheetTimeout(cfg.Timeouts.Sheet)),
		cfg:      cfg,
		reporter: nopReporter{},
		ctx:      context.Background(),
		testName: DefaultTestName,
		months:   picker.MonthsFor(cfg.Picker.Locale),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Failures returns every failure reported so far.
func (t *Tester) Failures() []string {
	out := make([]string, len(t.failures))
	copy(out, t.failures)
	return out
}

// Failed reports whether any verb failed.
func (t *Tester) Failed() bool {
	return len(t.failures) > 0
}

// activityName formats "<Action> '<target>' at '<context>'".
func activityName(action, target, inContext string) string {
	name := action
	if target != "" {
		name = fmt.Sprintf("%s '%s'", name, target)
	}
	if inContext != "" {
		name = fmt.Sprintf("%s at '%s'", name, inContext)
	}
	return name
}

// runActivity wraps one verb in a reported activity. A panic inside the verb
// is reported as a failure so the script can continue.
func (t *Tester) runActivity(action, target, inContext string, fn func()) {
	name := activityName(action, target, inContext)
	logger.Info("activity: %s", name)
	t.reporter.BeginActivity(name)
	defer t.reporter.EndActivity()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in %s: %v\n%s", name, r, debug.Stack())
			t.fail("%s failed unexpectedly: %v", action, r)
		}
	}()
	fn()
}

func (t *Tester) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("failure: %s", msg)
	t.failures = append(t.failures, msg)
	t.reporter.Fail(msg)
}

func (t *Tester) attach(a core.Attachment) {
	if at, ok := t.reporter.(Attacher); ok {
		at.Attach(a)
	}
}

func (t *Tester) check(ok bool, format string, args ...interface{}) {
	if !ok {
		t.fail(format, args...)
	}
}

func (t *Tester) find(q locator.Query) *core.Element {
	el, err := t.locator.Find(q)
	if err != nil {
		logger.Debug("%v", err)
		return nil
	}
	return el
}

func (t *Tester) findControl(name, inContext string, types []core.ElementType, timeout time.Duration) *core.Element {
	return t.find(locator.Query{
		IDs:     []locator.SearchID{locator.ControlName(name)},
		Context: inContext,
		Types:   types,
		Timeout: timeout,
	})
}

// presenceTimeout picks the long timeout when something is expected to be
// there and the short one when it is expected to be absent.
func (t *Tester) presenceTimeout(expected bool) time.Duration {
	if expected {
		return t.cfg.Timeouts.Existence
	}
	return t.cfg.Timeouts.NonExistence
}

func (t *Tester) tapElement(el *core.Element) bool {
	x, y := el.Bounds.Center()
	return t.tapAt(x, y)
}

func (t *Tester) tapAt(x, y float64) bool {
	if err := t.driver.Tap(x, y); err != nil {
		t.fail("Tap at (%.0f, %.0f) failed: %v", x, y, err)
		return false
	}
	return true
}

func (t *Tester) snapshot() *core.Element {
	root, err := t.locator.Snapshot()
	if err != nil {
		t.fail("Could not read the application hierarchy: %v", err)
		return nil
	}
	return root
}

func boolWord(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

// textEqual compares texts treating line breaks as spaces, since messages
// may be split across several text nodes.
func textEqual(received, expected string) bool {
	if received == expected {
		return true
	}
	return strings.ReplaceAll(received, "\n", " ") == strings.ReplaceAll(expected, "\n", " ")
}
