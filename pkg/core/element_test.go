package core

import (
	"strings"
	"testing"
)

func sampleTree() *Element {
	root := &Element{Type: TypeApplication, Class: "XCUIElementTypeApplication", Visible: true, Enabled: true,
		Bounds: Bounds{Width: 390, Height: 844}}
	window := &Element{Type: TypeWindow, Class: "XCUIElementTypeWindow", Visible: true, Enabled: true,
		Bounds: Bounds{Width: 390, Height: 844}}
	first := &Element{Type: TypeButton, Class: "XCUIElementTypeButton", Identifier: "Save", Label: "Save",
		Visible: true, Enabled: true, Bounds: Bounds{X: 10, Y: 10, Width: 100, Height: 40}}
	text := &Element{Type: TypeStaticText, Class: "XCUIElementTypeStaticText", Label: "Hello", Visible: true}
	second := &Element{Type: TypeButton, Class: "XCUIElementTypeButton", Identifier: "Cancel", Label: "Cancel",
		Visible: false, Enabled: true, Bounds: Bounds{X: 10, Y: 60, Width: 100, Height: 40}}
	window.Children = []*Element{first, text, second}
	root.Children = []*Element{window}
	root.Link(0)
	return root
}

func TestParseElementType(t *testing.T) {
	tests := []struct {
		name string
		want ElementType
	}{
		{"XCUIElementTypeButton", TypeButton},
		{"Button", TypeButton},
		{"XCUIElementTypeSecureTextField", TypeSecureTextField},
		{"XCUIElementTypeNavigationBar", TypeNavigationBar},
		{"XCUIElementTypeWebView", TypeOther},
		{"Any", TypeOther},
		{"", TypeOther},
	}
	for _, tt := range tests {
		if got := ParseElementType(tt.name); got != tt.want {
			t.Errorf("ParseElementType(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestElementType_XCUIName(t *testing.T) {
	if got := TypeCell.XCUIName(); got != "XCUIElementTypeCell" {
		t.Errorf("XCUIName() = %q", got)
	}
}

func TestElement_Descendants(t *testing.T) {
	root := sampleTree()

	buttons := root.Descendants(TypeButton)
	if len(buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(buttons))
	}
	if buttons[0].Identifier != "Save" || buttons[1].Identifier != "Cancel" {
		t.Errorf("descendants not in document order: %s, %s", buttons[0].Identifier, buttons[1].Identifier)
	}

	if all := root.Descendants(); len(all) != 4 {
		t.Errorf("expected 4 descendants, got %d", len(all))
	}
	if matched := root.Descendants(TypeAny); len(matched) != 4 {
		t.Errorf("TypeAny should match every descendant, got %d", len(matched))
	}
}

func TestElement_Hittable(t *testing.T) {
	root := sampleTree()
	buttons := root.Descendants(TypeButton)
	if !buttons[0].Hittable() {
		t.Error("visible button with bounds should be hittable")
	}
	if buttons[1].Hittable() {
		t.Error("invisible button should not be hittable")
	}
	text := root.Descendants(TypeStaticText)[0]
	if text.Hittable() {
		t.Error("zero-size element should not be hittable")
	}
}

func TestElement_FirstDescendantAndAncestors(t *testing.T) {
	root := sampleTree()
	cancel := root.FirstDescendant(func(e *Element) bool { return e.Label == "Cancel" })
	if cancel == nil {
		t.Fatal("expected to find Cancel")
	}
	ancestors := cancel.Ancestors()
	if len(ancestors) != 2 || ancestors[0].Type != TypeWindow || ancestors[1].Type != TypeApplication {
		t.Errorf("unexpected ancestors: %v", ancestors)
	}
	if cancel.Depth != 2 {
		t.Errorf("Depth = %d, want 2", cancel.Depth)
	}
}

func TestElement_XPath(t *testing.T) {
	root := sampleTree()
	cancel := root.Descendants(TypeButton)[1]
	want := "/XCUIElementTypeApplication[1]/XCUIElementTypeWindow[1]/XCUIElementTypeButton[2]"
	if got := cancel.XPath(); got != want {
		t.Errorf("XPath() = %q, want %q", got, want)
	}
}

func TestElement_Clone(t *testing.T) {
	root := sampleTree()
	clone := root.Clone()

	clone.Children[0].Children[0].Label = "Changed"
	if root.Children[0].Children[0].Label != "Save" {
		t.Error("Clone() shares nodes with the original")
	}
	if clone.Children[0].Parent != clone {
		t.Error("Clone() did not relink parents")
	}
}

func TestElement_String(t *testing.T) {
	root := sampleTree()
	s := root.Descendants(TypeButton)[0].String()
	if !strings.Contains(s, `id="Save"`) || !strings.HasPrefix(s, "Button") {
		t.Errorf("String() = %q", s)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{X: 10, Y: 20, Width: 100, Height: 50}
	x, y := b.Center()
	if x != 60 || y != 45 {
		t.Errorf("Center() = (%v, %v), want (60, 45)", x, y)
	}
	if !b.Contains(10, 20) || b.Contains(110, 20) {
		t.Error("Contains() boundary check failed")
	}
	inset := b.Inset(5, 1, 5, 1)
	if inset != (Bounds{X: 11, Y: 25, Width: 98, Height: 40}) {
		t.Errorf("Inset() = %+v", inset)
	}
	if !(Bounds{Width: 0, Height: 10}).Empty() {
		t.Error("zero width bounds should be empty")
	}
}
