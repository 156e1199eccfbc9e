package uitest

import (
	"time"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/locator"
)

// Gesture timings.
const (
	LongTapDuration = time.Second
	SwipeDuration   = 300 * time.Millisecond
)

// DefaultSwipeControl is swiped when no control name is given.
const DefaultSwipeControl = "maintable"

// SwipeDirection is the direction code used by generated scripts.
type SwipeDirection int

const (
	SwipeUp    SwipeDirection = 1
	SwipeDown  SwipeDirection = 2
	SwipeLeft  SwipeDirection = 3
	SwipeRight SwipeDirection = 4
)

// ParseSwipeDirection maps a direction code; unknown codes mean left.
func ParseSwipeDirection(code int) SwipeDirection {
	d := SwipeDirection(code)
	if d < SwipeUp || d > SwipeRight {
		return SwipeLeft
	}
	return d
}

func (d SwipeDirection) String() string {
	switch d {
	case SwipeUp:
		return "up"
	case SwipeDown:
		return "down"
	case SwipeRight:
		return "right"
	default:
		return "left"
	}
}

// Back taps the back button, the first button of the navigation bar.
func (t *Tester) Back() {
	t.runActivity("Back", "", "", func() {
		root := t.snapshot()
		if root == nil {
			return
		}
		var back *core.Element
		for _, bar := range root.Descendants(core.TypeNavigationBar) {
			if buttons := bar.Descendants(core.TypeButton); len(buttons) > 0 {
				back = buttons[0]
				break
			}
		}
		if back == nil {
			t.fail("Could not find back button")
			return
		}
		t.tapElement(back)
	})
}

func (t *Tester) findTarget(target, inContext string) *core.Element {
	return t.find(locator.Query{
		IDs:     locator.Target(target),
		Context: inContext,
		Types:   locator.TappableTypes,
		Timeout: t.cfg.Timeouts.Existence,
	})
}

// Tap taps target, matched by control name or visible text.
func (t *Tester) Tap(target, inContext string) {
	t.runActivity("Tap", target, inContext, func() {
		el := t.findTarget(target, inContext)
		if el == nil {
			t.fail("Could not find target '%s'", target)
			return
		}
		t.tapElement(el)
	})
}

// LongTap presses target for LongTapDuration.
func (t *Tester) LongTap(target, inContext string) {
	t.runActivity("LongTap", target, inContext, func() {
		el := t.findTarget(target, inContext)
		if el == nil {
			t.fail("Could not find target '%s'", target)
			return
		}
		x, y := el.Bounds.Center()
		if err := t.driver.LongPress(x, y, LongTapDuration); err != nil {
			t.fail("Long tap on '%s' failed: %v", target, err)
		}
	})
}

// DoubleTap double taps target.
func (t *Tester) DoubleTap(target, inContext string) {
	t.runActivity("DoubleTap", target, inContext, func() {
		el := t.findTarget(target, inContext)
		if el == nil {
			t.fail("Could not find target '%s'", target)
			return
		}
		x, y := el.Bounds.Center()
		if err := t.driver.DoubleTap(x, y); err != nil {
			t.fail("Double tap on '%s' failed: %v", target, err)
		}
	})
}

// Swipe swipes inside a control, by default the main table.
func (t *Tester) Swipe(direction int, controlName, inContext string) {
	dir := ParseSwipeDirection(direction)
	t.runActivity("Swipe "+dir.String(), controlName, inContext, func() {
		name := controlName
		if name == "" {
			name = DefaultSwipeControl
		}
		el := t.findControl(name, inContext, nil, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find control with name '%s'", name)
			return
		}
		fromX, fromY, toX, toY := swipePoints(el.Bounds, dir)
		if err := t.driver.Swipe(fromX, fromY, toX, toY, SwipeDuration); err != nil {
			t.fail("Swipe %s on '%s' failed: %v", dir, name, err)
		}
	})
}

// swipePoints drags from the center across 40% of the frame.
func swipePoints(b core.Bounds, dir SwipeDirection) (fromX, fromY, toX, toY float64) {
	fromX, fromY = b.Center()
	toX, toY = fromX, fromY
	dx, dy := float64(b.Width)*0.4, float64(b.Height)*0.4
	switch dir {
	case SwipeUp:
		toY -= dy
	case SwipeDown:
		toY += dy
	case SwipeRight:
		toX += dx
	default:
		toX -= dx
	}
	return fromX, fromY, toX, toY
}

// Wait pauses the script.
func (t *Tester) Wait(milliseconds int) {
	t.runActivity("Wait", "", "", func() {
		if milliseconds > 0 {
			t.sleep(time.Duration(milliseconds) * time.Millisecond)
		}
	})
}
