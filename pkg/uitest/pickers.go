package uitest

import (
	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/locator"
	"github.com/gxtest/uitest/pkg/picker"
)

// DoneButton closes the date-time editor.
const DoneButton = "Done"

var datePickerTypes = []core.ElementType{core.TypeDatePicker}

func (t *Tester) newPicker(locate picker.Locate, mode picker.Mode) *picker.Picker {
	return picker.New(t.driver, locate, picker.WithMode(mode), picker.WithMonths(t.months))
}

// lastDatePicker locates the most recently presented date picker.
func (t *Tester) lastDatePicker() (*core.Element, error) {
	var found *core.Element
	t.locator.Poll(t.cfg.Timeouts.Alert, func() bool {
		root, err := t.locator.Snapshot()
		if err != nil {
			return false
		}
		if pickers := root.Descendants(core.TypeDatePicker); len(pickers) > 0 {
			found = pickers[len(pickers)-1]
		}
		return found != nil
	})
	if found == nil {
		return nil, core.ErrElementNotFound.WithMessage("no date picker shown")
	}
	return found, nil
}

// inlinePicker resolves the named date picker. A compact picker only shows
// the real calendar after a tap, and that calendar is the first date picker
// of the application.
func (t *Tester) inlinePicker(controlName, inContext string) (picker.Locate, *core.Element) {
	el := t.findControl(controlName, inContext, datePickerTypes, t.cfg.Timeouts.Existence)
	if el == nil {
		return nil, nil
	}
	if len(el.Descendants(core.TypeButton)) > 0 {
		query := locator.Query{
			IDs:     []locator.SearchID{locator.ControlName(controlName)},
			Context: inContext,
			Types:   datePickerTypes,
			Timeout: t.cfg.Timeouts.Alert,
		}
		return func() (*core.Element, error) { return t.locator.Find(query) }, el
	}

	if !t.tapElement(el) {
		return nil, nil
	}
	return t.firstDatePicker, el
}

func (t *Tester) firstDatePicker() (*core.Element, error) {
	var found *core.Element
	t.locator.Poll(t.cfg.Timeouts.Alert, func() bool {
		root, err := t.locator.Snapshot()
		if err != nil {
			return false
		}
		found = root.FirstDescendant(func(e *core.Element) bool { return e.Type == core.TypeDatePicker })
		return found != nil
	})
	if found == nil {
		return nil, core.ErrElementNotFound.WithMessage("no date picker shown")
	}
	return found, nil
}

// tapOutside dismisses an inline picker by tapping halfway between the
// screen origin and the picker's origin.
func (t *Tester) tapOutside(frame core.Bounds) {
	t.tapAt(float64(frame.X)/2, float64(frame.Y)/2)
}

// openField finds and taps the field that presents a legacy picker.
func (t *Tester) openField(controlName, inContext string) bool {
	field := t.findControl(controlName, inContext, nil, t.cfg.Timeouts.Existence)
	if field == nil {
		t.fail("Could not find control with name '%s'", controlName)
		return false
	}
	return t.tapElement(field)
}

func (t *Tester) pickFailed(controlName string, err error) {
	t.fail("Could not pick value for control '%s': %v", controlName, err)
}

// PickDate selects a date in a date control.
func (t *Tester) PickDate(controlName string, year, month, day int, inContext string) {
	t.runActivity("PickDate", controlName, inContext, func() {
		if t.cfg.Picker.Inline {
			locate, el := t.inlinePicker(controlName, inContext)
			if locate == nil {
				t.fail("Could not find date picker for control '%s'", controlName)
				return
			}
			if err := t.newPicker(locate, picker.ModeButton).PickDate(year, month, day); err != nil {
				t.pickFailed(controlName, err)
				return
			}
			t.tapOutside(el.Bounds)
			return
		}

		if !t.openField(controlName, inContext) {
			return
		}
		if _, err := t.lastDatePicker(); err != nil {
			t.fail("Could not find date picker for control '%s'", controlName)
			return
		}
		if err := t.newPicker(t.lastDatePicker, picker.ModeWheel).PickDate(year, month, day); err != nil {
			t.pickFailed(controlName, err)
		}
	})
}

// PickTime selects a time in a time control.
func (t *Tester) PickTime(controlName string, hour, minutes int, inContext string) {
	t.runActivity("PickTime", controlName, inContext, func() {
		if t.cfg.Picker.Inline {
			locate, _ := t.inlinePicker(controlName, inContext)
			if locate == nil {
				t.fail("Could not find date picker for control '%s'", controlName)
				return
			}
			if err := t.newPicker(locate, picker.ModeButton).PickTime(hour, minutes); err != nil {
				t.pickFailed(controlName, err)
				return
			}
			t.tapAt(0, 0)
			return
		}

		if !t.openField(controlName, inContext) {
			return
		}
		if _, err := t.lastDatePicker(); err != nil {
			t.fail("Could not find time picker for control '%s'", controlName)
			return
		}
		if err := t.newPicker(t.lastDatePicker, picker.ModeWheel).PickTime(hour, minutes); err != nil {
			t.pickFailed(controlName, err)
		}
	})
}

// PickDateTime selects a date and a time. The legacy editor lists the date
// and the time as the first two table cells and is closed with Done.
func (t *Tester) PickDateTime(controlName string, year, month, day, hour, minutes int, inContext string) {
	t.runActivity("PickDateTime", controlName, inContext, func() {
		if t.cfg.Picker.Inline {
			locate, _ := t.inlinePicker(controlName, inContext)
			if locate == nil {
				t.fail("Could not find date picker for control '%s'", controlName)
				return
			}
			p := t.newPicker(locate, picker.ModeButton)
			if err := p.PickDate(year, month, day); err != nil {
				t.pickFailed(controlName, err)
				return
			}
			if err := p.PickTime(hour, minutes); err != nil {
				t.pickFailed(controlName, err)
				return
			}
			t.tapAt(0, 0)
			return
		}

		if !t.openField(controlName, inContext) {
			return
		}
		if !t.tapEditorCell(0) {
			return
		}
		if _, err := t.lastDatePicker(); err != nil {
			t.fail("Could not find date picker for control '%s'", controlName)
			return
		}
		p := t.newPicker(t.lastDatePicker, picker.ModeWheel)
		if err := p.PickDate(year, month, day); err != nil {
			t.pickFailed(controlName, err)
			return
		}

		if !t.tapEditorCell(1) {
			return
		}
		if _, err := t.lastDatePicker(); err != nil {
			t.fail("Could not find time picker for control '%s'", controlName)
		} else if err := p.PickTime(hour, minutes); err != nil {
			t.pickFailed(controlName, err)
			return
		}
		t.tapDone()
	})
}

// tapEditorCell taps the n-th cell among all tables.
func (t *Tester) tapEditorCell(n int) bool {
	root := t.snapshot()
	if root == nil {
		return false
	}
	var cells []*core.Element
	for _, table := range root.Descendants(core.TypeTable) {
		cells = append(cells, table.Descendants(core.TypeCell)...)
	}
	if n >= len(cells) {
		t.fail("Could not find date-time editor item %d", n+1)
		return false
	}
	return t.tapElement(cells[n])
}

func (t *Tester) tapDone() {
	root := t.snapshot()
	if root == nil {
		return
	}
	for _, bar := range root.Descendants(core.TypeNavigationBar) {
		for _, b := range bar.Descendants(core.TypeButton) {
			if b.Identifier == DoneButton || b.Label == DoneButton {
				t.tapElement(b)
				return
			}
		}
	}
	t.fail("Could not find navigation bar button Done")
}
