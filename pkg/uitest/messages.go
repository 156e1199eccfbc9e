package uitest

import (
	"strings"

	"github.com/gxtest/uitest/pkg/core"
)

// alerts waits up to the alert timeout for modal alerts to appear.
func (t *Tester) alerts() []*core.Element {
	var found []*core.Element
	t.locator.Poll(t.cfg.Timeouts.Alert, func() bool {
		root, err := t.locator.Snapshot()
		if err != nil {
			return false
		}
		found = alertsIn(root)
		return len(found) > 0
	})
	return found
}

func alertsIn(root *core.Element) []*core.Element {
	if root.Type == core.TypeAlert {
		return []*core.Element{root}
	}
	return root.Descendants(core.TypeAlert)
}

func alertTexts(alert *core.Element) []string {
	var labels []string
	for _, text := range alert.Descendants(core.TypeStaticText) {
		labels = append(labels, text.Label)
	}
	return labels
}

// VerifyMsg checks that an alert shows text. A message may be split across
// several text nodes, so their joined labels are accepted too.
func (t *Tester) VerifyMsg(text string, expected bool) {
	t.runActivity("VerifyMsg", text, "", func() {
		found := false
		for _, alert := range t.alerts() {
			labels := alertTexts(alert)
			for _, label := range labels {
				if textEqual(label, text) {
					found = true
				}
			}
			if len(labels) > 1 && textEqual(strings.Join(labels, "\n"), text) {
				found = true
			}
			if found {
				break
			}
		}
		t.check(found == expected, "Alert with text '%s' was %sexpected but did %sfind it",
			text, boolWord(expected, "", "not "), boolWord(found, "", "not "))
	})
}

// IsShowingMessage reports whether an alert is shown right now.
func (t *Tester) IsShowingMessage() bool {
	showing := false
	t.runActivity("IsShowingMessage", "", "", func() {
		root, err := t.locator.Snapshot()
		if err != nil {
			return
		}
		showing = len(alertsIn(root)) > 0
	})
	return showing
}

// GetMessageText returns the text of the first alert, one line per text
// node, or "" when no alert appears.
func (t *Tester) GetMessageText() string {
	var text string
	t.runActivity("GetMessageText", "", "", func() {
		alerts := t.alerts()
		if len(alerts) == 0 {
			t.fail("No alert message found")
			return
		}
		text = strings.Join(alertTexts(alerts[0]), "\n")
	})
	return text
}
