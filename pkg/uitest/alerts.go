package uitest

import (
	"strings"

	"github.com/gxtest/uitest/pkg/core"
)

// System alert button kinds used by generated scripts.
const (
	AlertButtonDontAllow   = 1
	AlertButtonOK          = 2
	AlertButtonAllowOnce   = 3
	AlertButtonWhileUsing  = 4
	AlertButtonAlwaysAllow = 5
)

// alertButtonIndex maps a button kind to its position in a permission alert.
var alertButtonIndex = map[int]int{
	AlertButtonAlwaysAllow: 2,
	AlertButtonWhileUsing:  1,
	AlertButtonAllowOnce:   0,
	AlertButtonOK:          1,
	AlertButtonDontAllow:   0,
}

// systemAlertPhrases recognize permission alerts by their English or
// Spanish wording.
var systemAlertPhrases = map[string][]string{
	"Bluetooth":  {"Bluetooth"},
	"Calendar":   {"Calendar", "calendario"},
	"Camera":     {"Would Like to Access Your Camera", "quiere acceder a tu cámara", "quiere acceder a tu camara"},
	"Contacts":   {"Would Like to Access Your Contacts", "quiere acceder a tus contactos"},
	"Location":   {"use your location", "utilizar tu ubicación"},
	"Microphone": {"Access the Microphone", "quiere acceder al micrófono"},
	"Photos":     {"Would Like to Access Your Photos", "quiere acceder a tus fotos"},
}

// TapSystemAlertIfShown taps a button of a system permission alert. When no
// (matching) alert is shown nothing happens.
func (t *Tester) TapSystemAlertIfShown(buttonKind int, alertKind string) {
	t.runActivity("TapSystemAlertIfShown", "SystemAlert", "", func() {
		alerts, err := t.driver.SystemAlerts()
		if err != nil {
			t.fail("Could not read system alerts: %v", err)
			return
		}
		alert := pickSystemAlert(alerts, alertKind)
		if alert == nil {
			return
		}

		buttons := alert.Descendants(core.TypeButton)
		index, ok := alertButtonIndex[buttonKind]
		if !ok || index >= len(buttons) {
			what := alertKind
			if what == "" {
				what = "alert"
			}
			t.fail("Specified button not found in %s", what)
			return
		}
		if err := t.driver.TapSystemAlertButton(buttons[index].Label); err != nil {
			t.fail("Could not tap system alert button '%s': %v", buttons[index].Label, err)
		}
	})
}

func pickSystemAlert(alerts []*core.Element, kind string) *core.Element {
	if len(alerts) == 0 {
		return nil
	}
	if kind == "" {
		return alerts[0]
	}
	for _, alert := range alerts {
		if isSystemAlert(alert, kind) {
			return alert
		}
	}
	return nil
}

func isSystemAlert(alert *core.Element, kind string) bool {
	phrases, ok := systemAlertPhrases[kind]
	if !ok {
		return false
	}
	texts := []string{strings.ToLower(alert.Label)}
	for _, text := range alert.Descendants(core.TypeStaticText) {
		texts = append(texts, strings.ToLower(text.Label))
	}
	for _, phrase := range phrases {
		phrase = strings.ToLower(phrase)
		for _, text := range texts {
			if strings.Contains(text, phrase) {
				return true
			}
		}
	}
	return false
}
