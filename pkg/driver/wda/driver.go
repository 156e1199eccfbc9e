package wda

import (
	"fmt"
	"strings"
	"time"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/logger"
)

// Driver implements core.Driver using WebDriverAgent for iOS.
type Driver struct {
	client *Client
	info   *core.PlatformInfo
}

// NewDriver creates a new WDA driver.
func NewDriver(client *Client, info *core.PlatformInfo) *Driver {
	return &Driver{
		client: client,
		info:   info,
	}
}

// Client returns the underlying WDA client.
func (d *Driver) Client() *Client {
	return d.client
}

// Source returns a fresh snapshot of the application under test.
func (d *Driver) Source() (*core.Element, error) {
	xmlData, err := d.client.Source()
	if err != nil {
		return nil, core.ErrDriver.WithMessage("source").WithCause(err)
	}
	return ParsePageSource(xmlData)
}

// SystemAlerts returns the frontmost alert when it is not part of the app's
// own hierarchy. WDA exposes it only as text plus button labels, so the
// alert is rebuilt as an Alert element with one static text per line and
// one button per label.
func (d *Driver) SystemAlerts() ([]*core.Element, error) {
	text, ok, err := d.client.AlertText()
	if err != nil {
		return nil, core.ErrDriver.WithMessage("alert text").WithCause(err)
	}
	if !ok {
		return nil, nil
	}

	if root, err := d.Source(); err == nil && len(root.Descendants(core.TypeAlert)) > 0 {
		// the app's own alert, found by the locator
		return nil, nil
	}

	buttons, err := d.client.AlertButtons()
	if err != nil {
		return nil, core.ErrDriver.WithMessage("alert buttons").WithCause(err)
	}
	return []*core.Element{buildAlert(text, buttons)}, nil
}

func buildAlert(text string, buttons []string) *core.Element {
	alert := &core.Element{Type: core.TypeAlert, Class: core.TypeAlert.XCUIName(), Enabled: true, Visible: true}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		alert.Children = append(alert.Children, &core.Element{
			Type: core.TypeStaticText, Class: core.TypeStaticText.XCUIName(), Label: line, Enabled: true, Visible: true,
		})
	}
	for _, label := range buttons {
		alert.Children = append(alert.Children, &core.Element{
			Type: core.TypeButton, Class: core.TypeButton.XCUIName(), Label: label, Enabled: true, Visible: true,
		})
	}
	if len(alert.Children) > 0 {
		alert.Label = alert.Children[0].Label
	}
	alert.Link(0)
	return alert
}

// TapSystemAlertButton taps a button of the frontmost system alert.
func (d *Driver) TapSystemAlertButton(label string) error {
	logger.Info("system alert: tapping %q", label)
	return d.client.AcceptAlert(label)
}

// Tap implements core.Driver.
func (d *Driver) Tap(x, y float64) error {
	return d.client.Tap(x, y)
}

// DoubleTap implements core.Driver.
func (d *Driver) DoubleTap(x, y float64) error {
	return d.client.DoubleTap(x, y)
}

// LongPress implements core.Driver.
func (d *Driver) LongPress(x, y float64, duration time.Duration) error {
	return d.client.LongPress(x, y, duration.Seconds())
}

// Swipe implements core.Driver.
func (d *Driver) Swipe(fromX, fromY, toX, toY float64, duration time.Duration) error {
	return d.client.Swipe(fromX, fromY, toX, toY, duration.Seconds())
}

// TypeText implements core.Driver.
func (d *Driver) TypeText(text string) error {
	return d.client.SendKeys(text)
}

// SetPasteboard implements core.Driver.
func (d *Driver) SetPasteboard(text string) error {
	return d.client.SetPasteboard(text)
}

// AdjustPickerWheel scrolls the wheel at the same path in the live
// hierarchy to value.
func (d *Driver) AdjustPickerWheel(wheel *core.Element, value string) error {
	id, err := d.client.FindElement("xpath", wheel.XPath())
	if err != nil {
		return core.ErrElementNotFound.WithMessage(fmt.Sprintf("picker wheel %s", wheel.XPath())).WithCause(err)
	}
	return d.client.ElementSendKeys(id, value)
}

// Screenshot captures the current screen as PNG.
func (d *Driver) Screenshot() ([]byte, error) {
	return d.client.Screenshot()
}

// WindowSize implements core.Driver.
func (d *Driver) WindowSize() (int, int, error) {
	return d.client.WindowSize()
}

// GetPlatformInfo returns device/platform information.
func (d *Driver) GetPlatformInfo() *core.PlatformInfo {
	return d.info
}

// PlatformInfoFromStatus fills platform information from the /status
// payload. deviceName and bundleID come from configuration.
func PlatformInfoFromStatus(status map[string]interface{}, deviceName, bundleID string) *core.PlatformInfo {
	info := &core.PlatformInfo{Platform: "ios", DeviceName: deviceName, AppID: bundleID}
	value, _ := status["value"].(map[string]interface{})
	if osInfo, ok := value["os"].(map[string]interface{}); ok {
		info.OSVersion, _ = osInfo["version"].(string)
	}
	if ios, ok := value["ios"].(map[string]interface{}); ok {
		if _, simulator := ios["simulatorVersion"]; simulator {
			info.IsSimulator = true
		}
	}
	if device, ok := value["device"].(string); ok {
		info.DeviceModel = device
		if info.DeviceName == "" {
			info.DeviceName = device
		}
	}
	return info
}
