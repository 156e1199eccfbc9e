package wda

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gxtest/uitest/pkg/core"
)

// ParsePageSource parses the WDA /source XML into an element tree.
// WDA renders XCUIElementType* tags (optionally wrapped in AppiumAUT) with:
// - type: XCUIElementTypeButton, XCUIElementTypeTextField, etc.
// - name: accessibility identifier
// - label, value, title, placeholderValue: visible text
// - enabled, visible, selected, focused: states
// - x, y, width, height: bounds in points
func ParsePageSource(xmlData string) (*core.Element, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var parseElement func(start xml.StartElement) (*core.Element, error)
	parseElement = func(start xml.StartElement) (*core.Element, error) {
		elem := newElement(start)
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}
			switch t := token.(type) {
			case xml.StartElement:
				child, err := parseElement(t)
				if err != nil {
					return nil, err
				}
				elem.Children = append(elem.Children, child)
			case xml.EndElement:
				return elem, nil
			}
		}
	}

	var roots []*core.Element
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse page source: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		// AppiumAUT is a wrapper; its children are the real roots
		if start.Name.Local == "AppiumAUT" {
			continue
		}
		root, err := parseElement(start)
		if err != nil {
			return nil, fmt.Errorf("parse page source: %w", err)
		}
		roots = append(roots, root)
	}

	if len(roots) == 0 {
		return nil, fmt.Errorf("no elements found in page source")
	}

	root := roots[0]
	root.Link(0)
	return root, nil
}

func newElement(start xml.StartElement) *core.Element {
	elem := &core.Element{
		Class:   start.Name.Local,
		Enabled: true, // default
		Visible: true, // default
	}

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "type":
			elem.Class = attr.Value
		case "name":
			elem.Identifier = attr.Value
		case "label":
			elem.Label = attr.Value
		case "value":
			elem.Value = attr.Value
		case "title":
			elem.Title = attr.Value
		case "placeholderValue":
			elem.PlaceholderValue = attr.Value
		case "enabled":
			elem.Enabled = attr.Value == "true"
		case "visible":
			elem.Visible = attr.Value == "true"
		case "selected":
			elem.Selected = attr.Value == "true"
		case "focused", "hasFocus":
			elem.Focused = attr.Value == "true"
		case "x":
			elem.Bounds.X = parseCoord(attr.Value)
		case "y":
			elem.Bounds.Y = parseCoord(attr.Value)
		case "width":
			elem.Bounds.Width = parseCoord(attr.Value)
		case "height":
			elem.Bounds.Height = parseCoord(attr.Value)
		}
	}
	elem.Type = core.ParseElementType(elem.Class)
	return elem
}

// parseCoord accepts integer and fractional point values.
func parseCoord(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
