package uitest

import (
	"time"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/locator"
)

// Waits for the value to select, per strategy.
const (
	tableValueTimeout = time.Second
	popupValueTimeout = 5 * time.Second
)

// SelectValue selects value in a control. A segmented control has its
// segment tapped, a table has the cell showing value tapped, and any other
// control is tapped open and value is then searched application-wide.
func (t *Tester) SelectValue(controlName, value, inContext string) {
	t.runActivity("SelectValue", controlName, inContext, func() {
		query := locator.Query{
			IDs:     []locator.SearchID{locator.ControlName(controlName)},
			Context: inContext,
			Types:   locator.AllTypes,
			Timeout: t.cfg.Timeouts.Existence,
		}
		el := t.find(query)
		if el == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return
		}

		var target *core.Element
		switch KindOf(el) {
		case KindSegmented:
			target = locator.FindIn(el, []locator.SearchID{locator.VisibleText(value)}, locator.TappableTypes, false)
		case KindTable:
			target = t.findCell(query, value)
		case KindTextInput, KindButton, KindStaticText, KindOther:
			if !t.tapElement(el) {
				return
			}
			target = t.find(locator.Query{
				IDs:     []locator.SearchID{locator.VisibleText(value)},
				Types:   locator.TappableTypes,
				Timeout: popupValueTimeout,
			})
		}
		if target == nil {
			t.fail("Could not find value '%s' in control with name '%s'", value, controlName)
			return
		}
		t.tapElement(target)
	})
}

// findCell re-resolves the table on every attempt and returns its first cell
// showing value.
func (t *Tester) findCell(table locator.Query, value string) *core.Element {
	table.Timeout = 0
	text := []locator.SearchID{locator.VisibleText(value)}
	var cell *core.Element
	t.locator.Poll(tableValueTimeout, func() bool {
		el, err := t.locator.Find(table)
		if err != nil {
			return false
		}
		for _, c := range el.Descendants(core.TypeCell) {
			if locator.FindIn(c, text, nil, true) != nil {
				cell = c
				return true
			}
		}
		return false
	})
	return cell
}
