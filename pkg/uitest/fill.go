package uitest

import (
	"strings"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/locator"
	"github.com/gxtest/uitest/pkg/logger"
)

// Edit menu and clear button names shown by the host.
const (
	ClearTextButton = "Clear text"
	SelectAllItem   = "Select All"
	PasteItem       = "Paste"
)

// deleteKey erases the current selection.
const deleteKey = "\b"

var menuItemTypes = []core.ElementType{core.TypeMenuItem, core.TypeButton, core.TypeStaticText}

// Fill replaces the text of an input control.
func (t *Tester) Fill(controlName, value, inContext string) {
	t.runActivity("Fill", controlName, inContext, func() {
		el := t.findControl(controlName, inContext, locator.TextInputTypes, t.cfg.Timeouts.Existence)
		if el == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return
		}
		if err := t.replaceText(el, value); err != nil {
			t.fail("Could not fill control with name '%s': %v", controlName, err)
		}
	})
}

func isEmptyInput(e *core.Element) bool {
	return e.Value == "" || e.Value == e.PlaceholderValue
}

// replaceText depends on the input state: a focused empty field is typed
// into; a field with a clear button is cleared, refocused and typed into;
// otherwise the current text is selected from the edit menu and overwritten
// by pasting.
func (t *Tester) replaceText(el *core.Element, value string) error {
	if el.Focused && isEmptyInput(el) {
		return t.typeText(value)
	}

	if clear := clearButton(el); clear != nil {
		logger.Debug("fill: clearing %s", el)
		if !t.tapElement(clear) || !t.tapElement(el) {
			return nil
		}
		return t.typeText(value)
	}

	x, y := el.Bounds.Center()
	if err := t.driver.LongPress(x, y, LongTapDuration); err != nil {
		return err
	}
	if item := t.menuItem(SelectAllItem); item != nil {
		t.tapElement(item)
	} else {
		logger.Debug("fill: no %q item, selecting with double tap", SelectAllItem)
		if err := t.driver.DoubleTap(x, y); err != nil {
			return err
		}
	}

	if value == "" {
		return t.typeText(deleteKey)
	}
	if err := t.driver.SetPasteboard(value); err != nil {
		logger.Debug("fill: pasteboard unavailable: %v", err)
		return t.typeText(value)
	}
	if item := t.menuItem(PasteItem); item != nil {
		t.tapElement(item)
		return nil
	}
	logger.Debug("fill: no %q item, typing", PasteItem)
	return t.typeText(value)
}

func (t *Tester) typeText(text string) error {
	if text == "" {
		return nil
	}
	return t.driver.TypeText(text)
}

func clearButton(el *core.Element) *core.Element {
	return el.FirstDescendant(func(e *core.Element) bool {
		return e.Type == core.TypeButton &&
			(strings.EqualFold(e.Label, ClearTextButton) || strings.EqualFold(e.Identifier, ClearTextButton))
	})
}

// menuItem waits briefly for an edit menu item.
func (t *Tester) menuItem(label string) *core.Element {
	return t.find(locator.Query{
		IDs:     []locator.SearchID{locator.VisibleText(label), locator.ControlName(label)},
		Types:   menuItemTypes,
		Timeout: t.cfg.Timeouts.Alert,
	})
}
