package wda

import (
	"testing"

	"github.com/gxtest/uitest/pkg/core"
)

// Sample iOS page source XML for testing
const sampleIOSPageSource = `<?xml version="1.0" encoding="UTF-8"?>
<AppiumAUT>
  <XCUIElementTypeApplication type="XCUIElementTypeApplication" name="TestApp" label="TestApp" enabled="true" visible="true" x="0" y="0" width="390" height="844">
    <XCUIElementTypeWindow type="XCUIElementTypeWindow" enabled="true" visible="true" x="0" y="0" width="390" height="844">
      <XCUIElementTypeOther type="XCUIElementTypeOther" enabled="true" visible="true" x="0" y="0" width="390" height="844">
        <XCUIElementTypeButton type="XCUIElementTypeButton" name="Login" label="Login" enabled="true" visible="true" x="50" y="100" width="290" height="50"/>
        <XCUIElementTypeTextField type="XCUIElementTypeTextField" name="Email" label="Email" placeholderValue="Enter email" enabled="true" visible="true" x="50" y="200" width="290" height="44"/>
        <XCUIElementTypeSecureTextField type="XCUIElementTypeSecureTextField" name="Password" label="Password" value="••••" enabled="true" visible="true" x="50" y="260" width="290" height="44"/>
        <XCUIElementTypeStaticText type="XCUIElementTypeStaticText" label="Welcome to the app" enabled="true" visible="true" x="50.5" y="320" width="290" height="30"/>
        <XCUIElementTypeButton type="XCUIElementTypeButton" name="Settings" label="Settings" enabled="false" visible="true" x="50" y="400" width="100" height="40"/>
        <XCUIElementTypeSwitch type="XCUIElementTypeSwitch" name="Notify" label="Notifications" value="1" enabled="true" visible="true" selected="true" x="250" y="400" width="60" height="40"/>
        <XCUIElementTypeWebView type="XCUIElementTypeWebView" enabled="true" visible="false" x="0" y="0" width="0" height="0"/>
      </XCUIElementTypeOther>
    </XCUIElementTypeWindow>
  </XCUIElementTypeApplication>
</AppiumAUT>`

func TestParsePageSource(t *testing.T) {
	root, err := ParsePageSource(sampleIOSPageSource)
	if err != nil {
		t.Fatalf("ParsePageSource failed: %v", err)
	}

	if root.Type != core.TypeApplication {
		t.Fatalf("Expected application root, got %s", root.Type)
	}

	login := root.FirstDescendant(func(e *core.Element) bool { return e.Identifier == "Login" })
	if login == nil {
		t.Fatal("Login button not found")
	}
	if login.Type != core.TypeButton {
		t.Errorf("Expected button, got %s", login.Type)
	}
	if login.Label != "Login" {
		t.Errorf("Expected label 'Login', got '%s'", login.Label)
	}
	if login.Bounds != (core.Bounds{X: 50, Y: 100, Width: 290, Height: 50}) {
		t.Errorf("Unexpected bounds %+v", login.Bounds)
	}
	if login.Depth != 3 {
		t.Errorf("Expected depth 3, got %d", login.Depth)
	}
	if login.Parent == nil || login.Parent.Type != core.TypeOther {
		t.Error("Parent not linked")
	}
}

func TestParsePageSourceAttributes(t *testing.T) {
	root, err := ParsePageSource(sampleIOSPageSource)
	if err != nil {
		t.Fatalf("ParsePageSource failed: %v", err)
	}

	email := root.FirstDescendant(func(e *core.Element) bool { return e.Identifier == "Email" })
	if email.PlaceholderValue != "Enter email" {
		t.Errorf("Expected placeholder 'Enter email', got '%s'", email.PlaceholderValue)
	}
	if email.Value != "" {
		t.Errorf("Expected empty value, got '%s'", email.Value)
	}

	settings := root.FirstDescendant(func(e *core.Element) bool { return e.Identifier == "Settings" })
	if settings.Enabled {
		t.Error("Settings should be disabled")
	}

	notify := root.FirstDescendant(func(e *core.Element) bool { return e.Identifier == "Notify" })
	if !notify.Selected || notify.Type != core.TypeSwitch || notify.Value != "1" {
		t.Errorf("Unexpected switch state: %s", notify)
	}

	text := root.Descendants(core.TypeStaticText)[0]
	if text.Bounds.X != 50 {
		t.Errorf("Fractional coordinate not truncated: %d", text.Bounds.X)
	}

	web := root.FirstDescendant(func(e *core.Element) bool { return e.Class == "XCUIElementTypeWebView" })
	if web == nil || web.Type != core.TypeOther || web.Visible {
		t.Errorf("Unknown type should map to Other and keep visibility: %v", web)
	}
}

func TestParsePageSourceWithoutWrapper(t *testing.T) {
	src := `<XCUIElementTypeApplication type="XCUIElementTypeApplication" name="App">
  <XCUIElementTypeAlert type="XCUIElementTypeAlert" name="Error"/>
</XCUIElementTypeApplication>`
	root, err := ParsePageSource(src)
	if err != nil {
		t.Fatalf("ParsePageSource failed: %v", err)
	}
	if len(root.Descendants(core.TypeAlert)) != 1 {
		t.Error("Expected one alert")
	}
}

func TestParsePageSourceInvalidXML(t *testing.T) {
	if _, err := ParsePageSource("<XCUIElementTypeApplication><unclosed"); err == nil {
		t.Error("Expected error for invalid XML")
	}
}

func TestParsePageSourceEmptyXML(t *testing.T) {
	if _, err := ParsePageSource(""); err == nil {
		t.Error("Expected error for empty XML")
	}
	if _, err := ParsePageSource("<AppiumAUT></AppiumAUT>"); err == nil {
		t.Error("Expected error for wrapper without elements")
	}
}
