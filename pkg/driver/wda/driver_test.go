package wda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxtest/uitest/pkg/core"
)

const appSource = `<AppiumAUT><XCUIElementTypeApplication type="XCUIElementTypeApplication" name="Sales" x="0" y="0" width="390" height="844">
  <XCUIElementTypeWindow type="XCUIElementTypeWindow" x="0" y="0" width="390" height="844">
    <XCUIElementTypePicker type="XCUIElementTypePicker" x="0" y="600" width="390" height="200">
      <XCUIElementTypePickerWheel type="XCUIElementTypePickerWheel" value="March" x="0" y="600" width="130" height="200"/>
      <XCUIElementTypePickerWheel type="XCUIElementTypePickerWheel" value="15" x="130" y="600" width="130" height="200"/>
    </XCUIElementTypePicker>
  </XCUIElementTypeWindow>
</XCUIElementTypeApplication></AppiumAUT>`

const appAlertSource = `<XCUIElementTypeApplication type="XCUIElementTypeApplication" x="0" y="0" width="390" height="844">
  <XCUIElementTypeAlert type="XCUIElementTypeAlert" label="Saved" x="50" y="300" width="290" height="150"/>
</XCUIElementTypeApplication>`

// wdaRoutes answers by path; unknown paths succeed with a null value.
func wdaRoutes(routes map[string]interface{}) func(string) interface{} {
	return func(path string) interface{} {
		if v, ok := routes[path]; ok {
			return map[string]interface{}{"value": v}
		}
		return map[string]interface{}{"value": nil}
	}
}

func noAlert() map[string]interface{} {
	return map[string]interface{}{"error": "no such alert", "message": "no alert open"}
}

func TestDriverSource(t *testing.T) {
	server, _ := mockWDAServer(t, wdaRoutes(map[string]interface{}{"/session/s1/source": appSource}))
	d := NewDriver(sessionClient(server.URL), nil)

	root, err := d.Source()
	require.NoError(t, err)
	assert.Equal(t, core.TypeApplication, root.Type)
	assert.Len(t, root.Descendants(core.TypePickerWheel), 2)
}

func TestDriverSourceError(t *testing.T) {
	server, _ := mockWDAServer(t, wdaRoutes(map[string]interface{}{"/session/s1/source": 42}))
	_, err := NewDriver(sessionClient(server.URL), nil).Source()
	require.Error(t, err)

	var execErr *core.ExecutionError
	assert.ErrorAs(t, err, &execErr)
}

func TestDriverSystemAlerts(t *testing.T) {
	server, _ := mockWDAServer(t, wdaRoutes(map[string]interface{}{
		"/session/s1/alert/text":        "“Sales” Would Like to Access the Camera\n\nScanning needs the camera",
		"/session/s1/wda/alert/buttons": []interface{}{"Don’t Allow", "OK"},
		"/session/s1/source":            appSource,
	}))
	d := NewDriver(sessionClient(server.URL), nil)

	alerts, err := d.SystemAlerts()
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, core.TypeAlert, alert.Type)
	assert.Equal(t, "“Sales” Would Like to Access the Camera", alert.Label)

	texts := alert.Descendants(core.TypeStaticText)
	require.Len(t, texts, 2)
	assert.Equal(t, "Scanning needs the camera", texts[1].Label)

	buttons := alert.Descendants(core.TypeButton)
	require.Len(t, buttons, 2)
	assert.Equal(t, "OK", buttons[1].Label)
	assert.Same(t, alert, buttons[1].Parent)
}

func TestDriverSystemAlertsNone(t *testing.T) {
	server, seen := mockWDAServer(t, wdaRoutes(map[string]interface{}{"/session/s1/alert/text": noAlert()}))
	alerts, err := NewDriver(sessionClient(server.URL), nil).SystemAlerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Len(t, *seen, 1)
}

func TestDriverSystemAlertsOwnedByApp(t *testing.T) {
	server, _ := mockWDAServer(t, wdaRoutes(map[string]interface{}{
		"/session/s1/alert/text": "Saved",
		"/session/s1/source":     appAlertSource,
	}))
	alerts, err := NewDriver(sessionClient(server.URL), nil).SystemAlerts()
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestDriverTapSystemAlertButton(t *testing.T) {
	server, seen := mockWDAServer(t, okResponse)
	require.NoError(t, NewDriver(sessionClient(server.URL), nil).TapSystemAlertButton("Allow Once"))
	assert.Equal(t, "/session/s1/alert/accept", (*seen)[0].Path)
	assert.Equal(t, "Allow Once", (*seen)[0].Body["name"])
}

func TestDriverAdjustPickerWheel(t *testing.T) {
	server, seen := mockWDAServer(t, wdaRoutes(map[string]interface{}{
		"/session/s1/element": map[string]interface{}{"ELEMENT": "wheel-2"},
	}))
	d := NewDriver(sessionClient(server.URL), nil)

	root, err := ParsePageSource(appSource)
	require.NoError(t, err)
	wheel := root.Descendants(core.TypePickerWheel)[1]

	require.NoError(t, d.AdjustPickerWheel(wheel, "24"))
	require.Len(t, *seen, 2)
	assert.Equal(t, "/XCUIElementTypeApplication[1]/XCUIElementTypeWindow[1]/XCUIElementTypePicker[1]/XCUIElementTypePickerWheel[2]",
		(*seen)[0].Body["value"])
	assert.Equal(t, "/session/s1/element/wheel-2/value", (*seen)[1].Path)
}

func TestDriverAdjustPickerWheelMissing(t *testing.T) {
	server, _ := mockWDAServer(t, wdaRoutes(map[string]interface{}{
		"/session/s1/element": map[string]interface{}{"error": "no such element", "message": "not found"},
	}))
	root, err := ParsePageSource(appSource)
	require.NoError(t, err)

	err = NewDriver(sessionClient(server.URL), nil).AdjustPickerWheel(root.Descendants(core.TypePickerWheel)[0], "May")
	assert.ErrorIs(t, err, core.ErrElementNotFound)
}

func TestDriverGestureDurations(t *testing.T) {
	server, seen := mockWDAServer(t, okResponse)
	d := NewDriver(sessionClient(server.URL), nil)

	require.NoError(t, d.LongPress(10, 20, time.Second))
	require.NoError(t, d.Swipe(1, 2, 3, 4, 300*time.Millisecond))
	require.NoError(t, d.TypeText("ok"))
	assert.Equal(t, 1.0, (*seen)[0].Body["duration"])
	assert.Equal(t, 0.3, (*seen)[1].Body["duration"])
	assert.Equal(t, "/session/s1/wda/keys", (*seen)[2].Path)
}

func TestPlatformInfoFromStatus(t *testing.T) {
	status := map[string]interface{}{"value": map[string]interface{}{
		"os":     map[string]interface{}{"name": "iOS", "version": "17.2"},
		"ios":    map[string]interface{}{"simulatorVersion": "17.2", "ip": "127.0.0.1"},
		"device": "iphone",
	}}
	info := PlatformInfoFromStatus(status, "", "com.example.sales")
	assert.Equal(t, &core.PlatformInfo{
		Platform: "ios", OSVersion: "17.2", DeviceName: "iphone", DeviceModel: "iphone",
		IsSimulator: true, AppID: "com.example.sales",
	}, info)

	named := PlatformInfoFromStatus(map[string]interface{}{}, "iPhone 15", "")
	assert.Equal(t, "iPhone 15", named.DeviceName)
	assert.False(t, named.IsSimulator)
}

var _ core.Driver = (*Driver)(nil)
