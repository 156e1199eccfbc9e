// Package mock provides an in-memory UI host for testing without a device.
package mock

import (
	"fmt"
	"sync"
	"time"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/driver/wda"
)

// Action is one recorded host call.
type Action struct {
	Kind     string // tap, doubleTap, longPress, swipe, type, paste, wheel, alertButton
	X, Y     float64
	ToX, ToY float64
	Duration time.Duration
	Text     string
	Target   string // label or identifier of the element under the action
}

// Config configures mock driver behavior.
type Config struct {
	// Platform info to report
	Platform string
	DeviceID string
	// Screenshot bytes returned by Screenshot
	Screenshot []byte
	// FailSource makes Source return an error
	FailSource bool
}

type tapHook struct {
	match func(*core.Element) bool
	fn    func(root *core.Element)
}

type sourceHook struct {
	after int
	fn    func(root *core.Element)
	done  bool
}

// Driver is a scriptable implementation of core.Driver. Source returns a
// fresh clone on every call; hooks mutate the underlying tree to emulate the
// app reacting to gestures.
type Driver struct {
	// Configuration
	Config Config

	mu           sync.Mutex
	root         *core.Element
	systemAlerts []*core.Element
	tapHooks     []tapHook
	sourceHooks  []*sourceHook
	sourceCalls  int
	actions      []Action
	pasteboard   string
}

// New creates a mock driver over the given tree.
func New(root *core.Element, cfg Config) *Driver {
	if cfg.Platform == "" {
		cfg.Platform = "mock"
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = "mock-device"
	}
	root.Link(0)
	return &Driver{Config: cfg, root: root}
}

// NewFromSource creates a mock driver from WDA page-source XML.
func NewFromSource(xmlData string, cfg Config) (*Driver, error) {
	root, err := wda.ParsePageSource(xmlData)
	if err != nil {
		return nil, err
	}
	return New(root, cfg), nil
}

// MustParse parses a page-source fragment for fixtures and panics on error.
func MustParse(xmlData string) *core.Element {
	root, err := wda.ParsePageSource(xmlData)
	if err != nil {
		panic(err)
	}
	return root
}

// Root returns the live tree for direct mutation in tests.
func (d *Driver) Root() *core.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root
}

// SetRoot replaces the whole tree.
func (d *Driver) SetRoot(root *core.Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	root.Link(0)
	d.root = root
}

// SetSystemAlerts sets the alerts returned by SystemAlerts.
func (d *Driver) SetSystemAlerts(alerts ...*core.Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range alerts {
		a.Link(0)
	}
	d.systemAlerts = alerts
}

// OnTap registers fn to run when a tap, double tap or long press lands on an
// element matching match. fn receives the live root.
func (d *Driver) OnTap(match func(*core.Element) bool, fn func(root *core.Element)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tapHooks = append(d.tapHooks, tapHook{match: match, fn: fn})
}

// AfterSourceCalls runs fn once, right before the n-th Source call is served.
func (d *Driver) AfterSourceCalls(n int, fn func(root *core.Element)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sourceHooks = append(d.sourceHooks, &sourceHook{after: n, fn: fn})
}

// Actions returns the recorded host calls.
func (d *Driver) Actions() []Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Action, len(d.actions))
	copy(out, d.actions)
	return out
}

// ActionsOf returns the recorded host calls of one kind.
func (d *Driver) ActionsOf(kind string) []Action {
	var out []Action
	for _, a := range d.Actions() {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// SourceCalls returns how many snapshots were taken.
func (d *Driver) SourceCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sourceCalls
}

// Pasteboard returns the last pasteboard contents.
func (d *Driver) Pasteboard() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pasteboard
}

// Source implements core.Driver.
func (d *Driver) Source() (*core.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sourceCalls++
	for _, h := range d.sourceHooks {
		if !h.done && d.sourceCalls >= h.after {
			h.done = true
			h.fn(d.root)
			d.root.Link(0)
		}
	}
	if d.Config.FailSource {
		return nil, fmt.Errorf("mock source failure")
	}
	clone := d.root.Clone()
	clone.Link(0)
	return clone, nil
}

// SystemAlerts implements core.Driver.
func (d *Driver) SystemAlerts() ([]*core.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*core.Element, len(d.systemAlerts))
	for i, a := range d.systemAlerts {
		out[i] = a.Clone()
		out[i].Link(0)
	}
	return out, nil
}

// TapSystemAlertButton implements core.Driver. The alert is dismissed.
func (d *Driver) TapSystemAlertButton(label string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.systemAlerts) == 0 {
		return fmt.Errorf("no system alert shown")
	}
	found := false
	for _, b := range d.systemAlerts[0].Descendants(core.TypeButton) {
		if b.Label == label {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("alert button %q not found", label)
	}
	d.actions = append(d.actions, Action{Kind: "alertButton", Text: label, Target: label})
	d.systemAlerts = d.systemAlerts[1:]
	return nil
}

// Tap implements core.Driver.
func (d *Driver) Tap(x, y float64) error {
	d.gesture(Action{Kind: "tap", X: x, Y: y})
	return nil
}

// DoubleTap implements core.Driver.
func (d *Driver) DoubleTap(x, y float64) error {
	d.gesture(Action{Kind: "doubleTap", X: x, Y: y})
	return nil
}

// LongPress implements core.Driver.
func (d *Driver) LongPress(x, y float64, duration time.Duration) error {
	d.gesture(Action{Kind: "longPress", X: x, Y: y, Duration: duration})
	return nil
}

// Swipe implements core.Driver.
func (d *Driver) Swipe(fromX, fromY, toX, toY float64, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, Action{Kind: "swipe", X: fromX, Y: fromY, ToX: toX, ToY: toY, Duration: duration,
		Target: describe(hitTest(d.root, fromX, fromY))})
	return nil
}

// gesture records a touch and runs the tap hooks of the hit element and its
// ancestors.
func (d *Driver) gesture(a Action) {
	d.mu.Lock()
	hit := hitTest(d.root, a.X, a.Y)
	a.Target = describe(hit)
	d.actions = append(d.actions, a)
	var fns []func(*core.Element)
	for n := hit; n != nil; n = n.Parent {
		for _, h := range d.tapHooks {
			if h.match(n) {
				fns = append(fns, h.fn)
			}
		}
		if len(fns) > 0 {
			break
		}
	}
	root := d.root
	d.mu.Unlock()

	for _, fn := range fns {
		d.mu.Lock()
		fn(root)
		root.Link(0)
		d.mu.Unlock()
	}
}

// TypeText implements core.Driver. Text is appended to the focused element.
func (d *Driver) TypeText(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	focused := d.root.FirstDescendant(func(e *core.Element) bool { return e.Focused })
	d.actions = append(d.actions, Action{Kind: "type", Text: text, Target: describe(focused)})
	if focused != nil {
		focused.Value += text
	}
	return nil
}

// SetPasteboard implements core.Driver.
func (d *Driver) SetPasteboard(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pasteboard = text
	d.actions = append(d.actions, Action{Kind: "pasteboard", Text: text})
	return nil
}

// AdjustPickerWheel implements core.Driver. The wheel in the live tree with
// the same path takes the new value.
func (d *Driver) AdjustPickerWheel(wheel *core.Element, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	path := wheel.XPath()
	live := d.root.FirstDescendant(func(e *core.Element) bool { return e.XPath() == path })
	if live == nil {
		return fmt.Errorf("picker wheel %s not found", path)
	}
	live.Value = value
	d.actions = append(d.actions, Action{Kind: "wheel", Text: value, Target: path})
	return nil
}

// Screenshot implements core.Driver.
func (d *Driver) Screenshot() ([]byte, error) {
	if d.Config.Screenshot == nil {
		return nil, fmt.Errorf("no screenshot configured")
	}
	return d.Config.Screenshot, nil
}

// WindowSize implements core.Driver.
func (d *Driver) WindowSize() (int, int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root.Bounds.Width, d.root.Bounds.Height, nil
}

// GetPlatformInfo implements core.Driver.
func (d *Driver) GetPlatformInfo() *core.PlatformInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &core.PlatformInfo{
		Platform:     d.Config.Platform,
		DeviceID:     d.Config.DeviceID,
		DeviceName:   "Mock Device",
		OSVersion:    "17.0",
		ScreenWidth:  d.root.Bounds.Width,
		ScreenHeight: d.root.Bounds.Height,
		IsSimulator:  true,
	}
}

// hitTest returns the deepest visible element containing the point, preferring
// later siblings (drawn on top).
func hitTest(n *core.Element, x, y float64) *core.Element {
	if n == nil || !n.Bounds.Contains(x, y) {
		return nil
	}
	for i := len(n.Children) - 1; i >= 0; i-- {
		if hit := hitTest(n.Children[i], x, y); hit != nil {
			return hit
		}
	}
	if !n.Visible {
		return nil
	}
	return n
}

func describe(e *core.Element) string {
	if e == nil {
		return ""
	}
	if e.Identifier != "" {
		return e.Identifier
	}
	return e.Label
}

var _ core.Driver = (*Driver)(nil)
