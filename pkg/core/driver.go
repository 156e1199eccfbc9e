package core

import (
	"time"
)

// Driver is the UI automation host the engine drives. Every call observes or
// acts on the live device; nothing returned by Source is valid after the next
// action, so callers re-query instead of holding on to elements.
// Implementations: WebDriverAgent, mock.
type Driver interface {
	// Source returns a fresh snapshot of the application under test
	Source() (*Element, error)

	// SystemAlerts returns alerts owned by the system (permission prompts).
	// Each alert carries its static texts and buttons as children.
	SystemAlerts() ([]*Element, error)

	// TapSystemAlertButton taps the button with the given label on the
	// frontmost system alert
	TapSystemAlertButton(label string) error

	// Gestures, coordinates in points
	Tap(x, y float64) error
	DoubleTap(x, y float64) error
	LongPress(x, y float64, duration time.Duration) error
	Swipe(fromX, fromY, toX, toY float64, duration time.Duration) error

	// TypeText types into the focused element
	TypeText(text string) error

	// SetPasteboard replaces the general pasteboard contents
	SetPasteboard(text string) error

	// AdjustPickerWheel scrolls a picker wheel to the given value
	AdjustPickerWheel(wheel *Element, value string) error

	// Screenshot captures the current screen as PNG
	Screenshot() ([]byte, error)

	// WindowSize returns the screen size in points
	WindowSize() (width, height int, err error)

	// GetPlatformInfo returns device/platform information
	GetPlatformInfo() *PlatformInfo
}

// Bounds represents element position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (float64, float64) {
	return float64(b.X) + float64(b.Width)/2, float64(b.Y) + float64(b.Height)/2
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(x, y float64) bool {
	return x >= float64(b.X) && x < float64(b.X+b.Width) && y >= float64(b.Y) && y < float64(b.Y+b.Height)
}

// Empty reports whether the bounds cover no area
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Inset shrinks the bounds by the given edge insets
func (b Bounds) Inset(top, left, bottom, right int) Bounds {
	return Bounds{
		X:      b.X + left,
		Y:      b.Y + top,
		Width:  b.Width - left - right,
		Height: b.Height - top - bottom,
	}
}

// PlatformInfo contains device and platform details
type PlatformInfo struct {
	Platform     string `json:"platform"`               // ios
	OSVersion    string `json:"osVersion"`              // e.g., "17.0"
	DeviceName   string `json:"deviceName"`             // e.g., "iPhone 15 Pro"
	DeviceModel  string `json:"deviceModel,omitempty"`  // e.g., "iPhone"
	DeviceID     string `json:"deviceId"`               // Unique device identifier
	IsSimulator  bool   `json:"isSimulator"`            // Simulator vs real device
	ScreenWidth  int    `json:"screenWidth,omitempty"`  // Screen width in points
	ScreenHeight int    `json:"screenHeight,omitempty"` // Screen height in points
	AppID        string `json:"appId,omitempty"`        // Bundle ID
	Locale       string `json:"locale,omitempty"`       // e.g., "en-US"
}
