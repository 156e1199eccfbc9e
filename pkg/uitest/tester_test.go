package uitest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxtest/uitest/pkg/config"
	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/driver/mock"
)

const appScreen = `<AppiumAUT>
<XCUIElementTypeApplication type="XCUIElementTypeApplication" name="Sales" x="0" y="0" width="390" height="844">
  <XCUIElementTypeWindow type="XCUIElementTypeWindow" x="0" y="0" width="390" height="844">
    <XCUIElementTypeNavigationBar type="XCUIElementTypeNavigationBar" name="Customers" x="0" y="44" width="390" height="44">
      <XCUIElementTypeButton type="XCUIElementTypeButton" name="Back" label="Back" x="0" y="44" width="60" height="44"/>
    </XCUIElementTypeNavigationBar>
    <XCUIElementTypeOther type="XCUIElementTypeOther" name="Form1:-gx:Root:-:" x="0" y="88" width="390" height="756">
      <XCUIElementTypeStaticText type="XCUIElementTypeStaticText" label="Welcome" x="10" y="100" width="200" height="20"/>
      <XCUIElementTypeButton type="XCUIElementTypeButton" name="Savebutton" label="Save" x="10" y="130" width="100" height="40"/>
      <XCUIElementTypeStaticText type="XCUIElementTypeStaticText" label="Save" x="200" y="130" width="60" height="20"/>
      <XCUIElementTypeButton type="XCUIElementTypeButton" name="Country" label="Uruguay" x="300" y="130" width="80" height="40"/>
      <XCUIElementTypeTextField type="XCUIElementTypeTextField" name="Customername" placeholderValue="Name" x="10" y="180" width="300" height="40"/>
      <XCUIElementTypeTextField type="XCUIElementTypeTextField" name="Customercity" value="Montevideo" x="10" y="230" width="300" height="40">
        <XCUIElementTypeButton type="XCUIElementTypeButton" label="Clear text" x="280" y="230" width="30" height="40"/>
      </XCUIElementTypeTextField>
      <XCUIElementTypeSwitch type="XCUIElementTypeSwitch" name="Active" value="1" x="10" y="280" width="60" height="30"/>
      <XCUIElementTypeButton type="XCUIElementTypeButton" name="Disabledbutton" label="Delete" enabled="false" x="100" y="280" width="100" height="30"/>
      <XCUIElementTypeSegmentedControl type="XCUIElementTypeSegmentedControl" name="Gender" x="10" y="320" width="200" height="30">
        <XCUIElementTypeButton type="XCUIElementTypeButton" label="M" selected="true" x="10" y="320" width="100" height="30"/>
        <XCUIElementTypeButton type="XCUIElementTypeButton" label="F" x="110" y="320" width="100" height="30"/>
      </XCUIElementTypeSegmentedControl>
      <XCUIElementTypeTable type="XCUIElementTypeTable" name="Grid1" x="0" y="360" width="390" height="150">
        <XCUIElementTypeCell type="XCUIElementTypeCell" x="0" y="360" width="390" height="50">
          <XCUIElementTypeStaticText type="XCUIElementTypeStaticText" name="Name" label="Alice" x="10" y="360" width="200" height="50"/>
        </XCUIElementTypeCell>
        <XCUIElementTypeCell type="XCUIElementTypeCell" x="0" y="410" width="390" height="50">
          <XCUIElementTypeStaticText type="XCUIElementTypeStaticText" name="Name" label="Bob" x="10" y="410" width="200" height="50"/>
        </XCUIElementTypeCell>
        <XCUIElementTypeCell type="XCUIElementTypeCell" name=":-gx:LoadingCell:-:" x="0" y="460" width="390" height="50"/>
      </XCUIElementTypeTable>
      <XCUIElementTypeScrollView type="XCUIElementTypeScrollView" name="Maintable" x="0" y="520" width="390" height="200"/>
      <XCUIElementTypeTextView type="XCUIElementTypeTextView" name="Notes" value="old notes" x="10" y="730" width="300" height="60"/>
      <XCUIElementTypeStaticText type="XCUIElementTypeStaticText" name="Hiddenlabel" label="Secret" visible="false" x="10" y="800" width="100" height="20"/>
    </XCUIElementTypeOther>
  </XCUIElementTypeWindow>
</XCUIElementTypeApplication>
</AppiumAUT>`

// recorder captures the activity stream as indented lines.
type recorder struct {
	depth       int
	events      []string
	attachments []string
}

func (r *recorder) Attach(a core.Attachment) { r.attachments = append(r.attachments, a.Name) }

func (r *recorder) BeginActivity(name string) {
	r.events = append(r.events, strings.Repeat("  ", r.depth)+name)
	r.depth++
}

func (r *recorder) EndActivity() { r.depth-- }

func (r *recorder) Fail(message string) {
	r.events = append(r.events, strings.Repeat("  ", r.depth)+"FAIL "+message)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Timeouts.Existence = 200 * time.Millisecond
	cfg.Timeouts.NonExistence = 20 * time.Millisecond
	cfg.Timeouts.PollInterval = 5 * time.Millisecond
	cfg.Timeouts.Alert = 30 * time.Millisecond
	cfg.Timeouts.Sheet = 30 * time.Millisecond
	return cfg
}

type harness struct {
	tester *Tester
	driver *mock.Driver
	report *recorder
	sleeps []time.Duration
}

func newHarness(t *testing.T, src string, cfg *config.Config, opts ...Option) *harness {
	t.Helper()
	d, err := mock.NewFromSource(src, mock.Config{})
	require.NoError(t, err)
	if cfg == nil {
		cfg = testConfig()
	}
	h := &harness{driver: d, report: &recorder{}}
	h.tester = New(d, cfg, append([]Option{WithReporter(h.report), WithTestName("CustomerTest")}, opts...)...)
	h.tester.sleep = func(d time.Duration) { h.sleeps = append(h.sleeps, d) }
	return h
}

func (h *harness) live(pred func(*core.Element) bool) *core.Element {
	return h.driver.Root().FirstDescendant(pred)
}

func byID(id string) func(*core.Element) bool {
	return func(e *core.Element) bool { return e.Identifier == id }
}

func byLabel(label string) func(*core.Element) bool {
	return func(e *core.Element) bool { return e.Label == label }
}

func targets(actions []mock.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Kind + ":" + a.Target
	}
	return out
}

func TestActivityName(t *testing.T) {
	assert.Equal(t, "Back", activityName("Back", "", ""))
	assert.Equal(t, "Tap 'Save'", activityName("Tap", "Save", ""))
	assert.Equal(t, "Tap 'Name' at 'Grid1.item(2)'", activityName("Tap", "Name", "Grid1.item(2)"))
	assert.Equal(t, "Wait at 'x'", activityName("Wait", "", "x"))
}

func TestTapPrefersButtonOverText(t *testing.T) {
	h := newHarness(t, appScreen, nil)

	h.tester.Tap("Save", "")

	assert.Empty(t, h.tester.Failures())
	assert.Equal(t, []string{"tap:Savebutton"}, targets(h.driver.Actions()))
	assert.Equal(t, []string{"Tap 'Save'"}, h.report.events)
}

func TestTapInContext(t *testing.T) {
	h := newHarness(t, appScreen, nil)

	h.tester.Tap("name", "Grid1.item(2)")

	require.Empty(t, h.tester.Failures())
	taps := h.driver.ActionsOf("tap")
	require.Len(t, taps, 1)
	assert.Equal(t, 435.0, taps[0].Y)
}

func TestTapNotFound(t *testing.T) {
	h := newHarness(t, appScreen, nil)

	h.tester.Tap("Missing", "")

	assert.Equal(t, []string{"Could not find target 'Missing'"}, h.tester.Failures())
	assert.Equal(t, []string{"Tap 'Missing'", "  FAIL Could not find target 'Missing'"}, h.report.events)
	assert.Empty(t, h.driver.Actions())
	assert.True(t, h.tester.Failed())
}

func TestTapWaitsForAppearance(t *testing.T) {
	h := newHarness(t, appScreen, nil)
	h.driver.AfterSourceCalls(3, func(root *core.Element) {
		form := root.FirstDescendant(byID("Form1:-gx:Root:-:"))
		form.Children = append(form.Children, mock.MustParse(
			`<XCUIElementTypeButton type="XCUIElementTypeButton" name="Later" x="200" y="180" width="50" height="30"/>`))
	})

	h.tester.Tap("later", "")

	assert.Empty(t, h.tester.Failures())
	assert.Equal(t, []string{"tap:Later"}, targets(h.driver.Actions()))
}

func TestLongTapAndDoubleTap(t *testing.T) {
	h := newHarness(t, appScreen, nil)

	h.tester.LongTap("Welcome", "")
	h.tester.DoubleTap("Savebutton", "")

	actions := h.driver.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, "longPress", actions[0].Kind)
	assert.Equal(t, LongTapDuration, actions[0].Duration)
	assert.Equal(t, "Welcome", actions[0].Target)
	assert.Equal(t, "doubleTap:Savebutton", targets(actions)[1])
}

func TestBack(t *testing.T) {
	h := newHarness(t, appScreen, nil)
	h.tester.Back()
	assert.Equal(t, []string{"tap:Back"}, targets(h.driver.Actions()))

	h.driver.Root().FirstDescendant(byID("Customers")).Children = nil
	h.tester.Back()
	assert.Equal(t, []string{"Could not find back button"}, h.tester.Failures())
}

func TestSwipe(t *testing.T) {
	h := newHarness(t, appScreen, nil)

	h.tester.Swipe(1, "", "")
	h.tester.Swipe(9, "Grid1", "")

	swipes := h.driver.ActionsOf("swipe")
	require.Len(t, swipes, 2)
	assert.Equal(t, "Maintable", swipes[0].Target)
	assert.Equal(t, swipes[0].X, swipes[0].ToX)
	assert.Less(t, swipes[0].ToY, swipes[0].Y)
	assert.Less(t, swipes[1].ToX, swipes[1].X)
	assert.Equal(t, []string{"Swipe up", "Swipe left 'Grid1'"}, h.report.events)
}

func TestSwipeDirection(t *testing.T) {
	assert.Equal(t, SwipeUp, ParseSwipeDirection(1))
	assert.Equal(t, SwipeRight, ParseSwipeDirection(4))
	assert.Equal(t, SwipeLeft, ParseSwipeDirection(0))
	assert.Equal(t, "down", SwipeDown.String())
}

func TestWait(t *testing.T) {
	h := newHarness(t, appScreen, nil)
	h.tester.Wait(1500)
	h.tester.Wait(0)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, h.sleeps)
	assert.Equal(t, []string{"Wait", "Wait"}, h.report.events)
}

type panicDriver struct{ *mock.Driver }

func (panicDriver) Tap(x, y float64) error { panic(fmt.Sprintf("tap at %v,%v", x, y)) }

func TestPanicBecomesFailure(t *testing.T) {
	d, err := mock.NewFromSource(appScreen, mock.Config{})
	require.NoError(t, err)
	tester := New(panicDriver{d}, testConfig())

	tester.Tap("Savebutton", "")
	require.Len(t, tester.Failures(), 1)
	assert.Contains(t, tester.Failures()[0], "Tap failed unexpectedly")

	// the next verb still runs
	assert.Equal(t, "Uruguay", tester.GetControlValue("country", ""))
}

func TestTextEqual(t *testing.T) {
	assert.True(t, textEqual("a b", "a b"))
	assert.True(t, textEqual("a\nb", "a b"))
	assert.False(t, textEqual("ab", "a b"))
}
