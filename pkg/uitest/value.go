package uitest

import (
	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/locator"
)

// ControlKind groups element types by how their value is read and how a
// value is selected in them.
type ControlKind int

const (
	KindOther ControlKind = iota
	KindTextInput
	KindButton
	KindSegmented
	KindTable
	KindStaticText
)

func (k ControlKind) String() string {
	switch k {
	case KindTextInput:
		return "text input"
	case KindButton:
		return "button"
	case KindSegmented:
		return "segmented"
	case KindTable:
		return "table"
	case KindStaticText:
		return "static text"
	default:
		return "other"
	}
}

// KindOf classifies an element.
func KindOf(e *core.Element) ControlKind {
	switch e.Type {
	case core.TypeTextField, core.TypeSecureTextField, core.TypeTextView, core.TypeSearchField:
		return KindTextInput
	case core.TypeButton:
		return KindButton
	case core.TypeSegmentedControl:
		return KindSegmented
	case core.TypeTable, core.TypeCollectionView:
		return KindTable
	case core.TypeStaticText:
		return KindStaticText
	default:
		return KindOther
	}
}

// controlValue reads the value a control shows. Texts and buttons fall back
// to their label; a segmented control reports its selected segment and has
// no value when nothing is selected.
func controlValue(e *core.Element) (string, bool) {
	switch KindOf(e) {
	case KindStaticText, KindButton:
		if e.Value != "" {
			return e.Value, true
		}
		return e.Label, true
	case KindSegmented:
		for _, b := range e.Descendants(core.TypeButton) {
			if b.Selected {
				return b.Label, true
			}
		}
		return "", false
	case KindTextInput, KindTable, KindOther:
		return e.Value, true
	}
	return "", false
}

// checked reads a checkbox or switch state.
func checked(e *core.Element) bool {
	if e.Selected {
		return true
	}
	return e.Is(core.TypeSwitch, core.TypeCheckBox) && e.Value == "1"
}

// gridRows counts the realized rows of a grid, excluding the loading
// placeholder cell.
func gridRows(e *core.Element) int {
	rows := 0
	for _, cell := range e.ChildrenOf(core.TypeCell) {
		if cell.Identifier != locator.LoadingCellTag {
			rows++
		}
	}
	return rows
}
