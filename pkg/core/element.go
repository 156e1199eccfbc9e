package core

import (
	"fmt"
	"strings"
)

// ElementType is the accessibility role of a UI element.
type ElementType int

const (
	TypeAny ElementType = iota
	TypeOther
	TypeApplication
	TypeWindow
	TypeAlert
	TypeSheet
	TypeMenu
	TypeMenuItem
	TypeNavigationBar
	TypeToolbar
	TypeButton
	TypeStaticText
	TypeTextField
	TypeSecureTextField
	TypeTextView
	TypeSearchField
	TypeTable
	TypeCollectionView
	TypeCell
	TypeImage
	TypeCheckBox
	TypeSwitch
	TypeSegmentedControl
	TypeScrollView
	TypeDatePicker
	TypePicker
	TypePickerWheel
	TypeKeyboard
	TypeKey
)

const xcuiPrefix = "XCUIElementType"

var typeNames = map[ElementType]string{
	TypeAny:              "Any",
	TypeOther:            "Other",
	TypeApplication:      "Application",
	TypeWindow:           "Window",
	TypeAlert:            "Alert",
	TypeSheet:            "Sheet",
	TypeMenu:             "Menu",
	TypeMenuItem:         "MenuItem",
	TypeNavigationBar:    "NavigationBar",
	TypeToolbar:          "Toolbar",
	TypeButton:           "Button",
	TypeStaticText:       "StaticText",
	TypeTextField:        "TextField",
	TypeSecureTextField:  "SecureTextField",
	TypeTextView:         "TextView",
	TypeSearchField:      "SearchField",
	TypeTable:            "Table",
	TypeCollectionView:   "CollectionView",
	TypeCell:             "Cell",
	TypeImage:            "Image",
	TypeCheckBox:         "CheckBox",
	TypeSwitch:           "Switch",
	TypeSegmentedControl: "SegmentedControl",
	TypeScrollView:       "ScrollView",
	TypeDatePicker:       "DatePicker",
	TypePicker:           "Picker",
	TypePickerWheel:      "PickerWheel",
	TypeKeyboard:         "Keyboard",
	TypeKey:              "Key",
}

var typesByName = func() map[string]ElementType {
	m := make(map[string]ElementType, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// String returns the short type name (e.g., "Button").
func (t ElementType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ElementType(%d)", int(t))
}

// XCUIName returns the host class name (e.g., "XCUIElementTypeButton").
func (t ElementType) XCUIName() string {
	return xcuiPrefix + t.String()
}

// ParseElementType maps a host class name, with or without the
// XCUIElementType prefix, to an ElementType. Unknown names map to TypeOther.
func ParseElementType(name string) ElementType {
	name = strings.TrimPrefix(name, xcuiPrefix)
	if t, ok := typesByName[name]; ok && t != TypeAny {
		return t
	}
	return TypeOther
}

// Element is one node of a UI snapshot. Snapshots are rebuilt on every query.
type Element struct {
	Type             ElementType
	Class            string // raw host class name
	Identifier       string // accessibility identifier
	Label            string
	Value            string
	Title            string
	PlaceholderValue string
	Bounds           Bounds
	Enabled          bool
	Visible          bool
	Selected         bool
	Focused          bool
	Children         []*Element
	Parent           *Element
	Depth            int
}

// Hittable reports whether the element is on screen and can receive touches.
func (e *Element) Hittable() bool {
	return e.Visible && !e.Bounds.Empty()
}

// Is reports whether the element's type is one of types. TypeAny matches all.
func (e *Element) Is(types ...ElementType) bool {
	for _, t := range types {
		if t == TypeAny || t == e.Type {
			return true
		}
	}
	return false
}

// Walk visits the element and its descendants in pre-order until fn returns false.
func (e *Element) Walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, child := range e.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Descendants returns all descendants (excluding e) of the given types in
// document order. With no types every descendant is returned.
func (e *Element) Descendants(types ...ElementType) []*Element {
	var result []*Element
	for _, child := range e.Children {
		child.Walk(func(n *Element) bool {
			if len(types) == 0 || n.Is(types...) {
				result = append(result, n)
			}
			return true
		})
	}
	return result
}

// ChildrenOf returns direct children of the given types.
func (e *Element) ChildrenOf(types ...ElementType) []*Element {
	var result []*Element
	for _, child := range e.Children {
		if len(types) == 0 || child.Is(types...) {
			result = append(result, child)
		}
	}
	return result
}

// FirstDescendant returns the first descendant in document order matching pred.
func (e *Element) FirstDescendant(pred func(*Element) bool) *Element {
	var found *Element
	for _, child := range e.Children {
		child.Walk(func(n *Element) bool {
			if pred(n) {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			break
		}
	}
	return found
}

// Ancestors returns parents from the nearest upward.
func (e *Element) Ancestors() []*Element {
	var result []*Element
	for p := e.Parent; p != nil; p = p.Parent {
		result = append(result, p)
	}
	return result
}

// XPath returns an absolute, type-indexed path that addresses this element in
// the host's page source (e.g. /XCUIElementTypeApplication[1]/XCUIElementTypeWindow[2]).
func (e *Element) XPath() string {
	var parts []string
	for n := e; n != nil; n = n.Parent {
		class := n.Class
		if class == "" {
			class = n.Type.XCUIName()
		}
		index := 1
		if n.Parent != nil {
			for _, sibling := range n.Parent.Children {
				if sibling == n {
					break
				}
				if sibling.className() == class {
					index++
				}
			}
		}
		parts = append(parts, fmt.Sprintf("%s[%d]", class, index))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

func (e *Element) className() string {
	if e.Class != "" {
		return e.Class
	}
	return e.Type.XCUIName()
}

// Clone deep-copies the subtree rooted at e. The clone has no parent.
func (e *Element) Clone() *Element {
	c := *e
	c.Parent = nil
	c.Children = make([]*Element, 0, len(e.Children))
	for _, child := range e.Children {
		cc := child.Clone()
		cc.Parent = &c
		c.Children = append(c.Children, cc)
	}
	return &c
}

// Link sets Parent and Depth for the whole subtree rooted at e.
func (e *Element) Link(depth int) {
	e.Depth = depth
	for _, child := range e.Children {
		child.Parent = e
		child.Link(depth + 1)
	}
}

// String renders a one-line description used in logs and hierarchy dumps.
func (e *Element) String() string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	if e.Identifier != "" {
		fmt.Fprintf(&b, " id=%q", e.Identifier)
	}
	if e.Label != "" {
		fmt.Fprintf(&b, " label=%q", e.Label)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value=%q", e.Value)
	}
	fmt.Fprintf(&b, " {%d,%d %dx%d}", e.Bounds.X, e.Bounds.Y, e.Bounds.Width, e.Bounds.Height)
	if !e.Enabled {
		b.WriteString(" disabled")
	}
	if e.Selected {
		b.WriteString(" selected")
	}
	if e.Focused {
		b.WriteString(" focused")
	}
	return b.String()
}
