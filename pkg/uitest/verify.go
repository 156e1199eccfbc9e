package uitest

import (
	"github.com/gxtest/uitest/pkg/locator"
)

// VerifyText checks that text is (or is not) shown and hittable.
func (t *Tester) VerifyText(text string, expected bool, inContext string) {
	t.runActivity("VerifyText", text, inContext, func() {
		el := t.find(locator.Query{
			IDs:     []locator.SearchID{locator.VisibleText(text)},
			Context: inContext,
			Timeout: t.presenceTimeout(expected),
		})
		found := el != nil && el.Hittable()
		t.check(found == expected, "Text '%s' was %sexpected but did %sfind it",
			text, boolWord(expected, "", "not "), boolWord(found, "", "not "))
	})
}

// VerifyGridRowsCount checks the number of rows in a grid.
func (t *Tester) VerifyGridRowsCount(controlName string, count int, expected bool, inContext string) {
	t.runActivity("VerifyGridRowsCount", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find grid with name '%s'", controlName)
			return
		}
		rows := gridRows(el)
		if expected {
			t.check(rows == count, "Grid '%s' should have %d rows, found %d.", controlName, count, rows)
		} else {
			t.check(rows != count, "Grid '%s' should not have %d rows, found %d.", controlName, count, rows)
		}
	})
}

// GetGridRowsCount returns the number of rows in a grid, or 0 when the grid
// cannot be found.
func (t *Tester) GetGridRowsCount(controlName, inContext string) int {
	rows := 0
	t.runActivity("GetGridRowsCount", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return
		}
		rows = gridRows(el)
	})
	return rows
}

// VerifyCheckbox checks a checkbox state.
func (t *Tester) VerifyCheckbox(controlName string, value bool, inContext string) {
	t.runActivity("VerifyCheckbox", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return
		}
		t.check(checked(el) == value, "Checkbox '%s' was expected to be %sselected but is not.",
			controlName, boolWord(value, "", "un"))
	})
}

// GetCheckboxValue returns a checkbox state, or false when it cannot be found.
func (t *Tester) GetCheckboxValue(controlName, inContext string) bool {
	selected := false
	t.runActivity("GetCheckboxValue", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return
		}
		selected = checked(el)
	})
	return selected
}

// VerifyControlValue compares a control's value with value.
func (t *Tester) VerifyControlValue(controlName, value string, expected bool, inContext string) {
	t.runActivity("VerifyControlValue", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return
		}
		actual, ok := controlValue(el)
		if !ok {
			t.fail("Could not get value for control with name '%s'", controlName)
			return
		}
		t.check(textEqual(actual, value) == expected, "Value '%s' %s value '%s'",
			actual, boolWord(expected, "does not match expected", "matches not expected"), value)
	})
}

// GetControlValue returns a control's value, or "" when it cannot be read.
func (t *Tester) GetControlValue(controlName, inContext string) string {
	var value string
	t.runActivity("GetControlValue", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return
		}
		value, _ = controlValue(el)
	})
	return value
}

// VerifyControlEnabled checks a control's enabled state.
func (t *Tester) VerifyControlEnabled(controlName string, expected bool, inContext string) {
	t.runActivity("VerifyControlEnabled", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return
		}
		t.check(el.Enabled == expected, "Control '%s' should %sbe enabled but it was%s.",
			controlName, boolWord(expected, "", "not "), boolWord(el.Enabled, "", " not"))
	})
}

// IsControlEnabled returns a control's enabled state, or false when it
// cannot be found.
func (t *Tester) IsControlEnabled(controlName, inContext string) bool {
	enabled := false
	t.runActivity("IsControlEnabled", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return
		}
		enabled = el.Enabled
	})
	return enabled
}

// VerifyControlVisible checks that a control is (or is not) visible. A
// missing control satisfies an expectation of invisibility.
func (t *Tester) VerifyControlVisible(controlName string, expected bool, inContext string) {
	t.runActivity("VerifyControlVisible", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.presenceTimeout(expected))
		if el == nil {
			t.check(!expected, "Could not find control with name '%s'", controlName)
			return
		}
		visible := el.Hittable()
		t.check(visible == expected, "Control '%s' should %sbe visible but it was%s.",
			controlName, boolWord(expected, "", "not "), boolWord(visible, "", " not"))
	})
}

// IsControlVisible reports whether a control is visible, waiting only the
// short timeout.
func (t *Tester) IsControlVisible(controlName, inContext string) bool {
	visible := false
	t.runActivity("IsControlVisible", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.AllTypes, t.cfg.Timeouts.NonExistence)
		visible = el != nil && el.Hittable()
	})
	return visible
}

// VerifyCondition fails with message when value is false.
func (t *Tester) VerifyCondition(value bool, message string) {
	t.runActivity("VerifyCondition", "", "", func() {
		if message == "" {
			message = "Condition was not met"
		}
		t.check(value, "%s", message)
	})
}
