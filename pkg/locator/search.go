package locator

import (
	"fmt"
	"strings"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/naming"
)

// Accessibility tags rendered by generated apps into identifiers.
const (
	RootTag        = ":-gx:Root:-:"
	LoadingCellTag = ":-gx:LoadingCell:-:"
	MoreActionTag  = ":-gx:MoreAction:-:"
)

// Element type sets used by the verbs.
var (
	AllTypes = []core.ElementType{
		core.TypeTextField, core.TypeTextView, core.TypeSecureTextField, core.TypeStaticText,
		core.TypeButton, core.TypeTable, core.TypeCollectionView, core.TypeImage, core.TypeCheckBox,
		core.TypeSwitch, core.TypeSegmentedControl, core.TypeScrollView, core.TypeOther,
	}

	TappableTypes = append([]core.ElementType{core.TypeButton}, AllTypes...)

	TextInputTypes = []core.ElementType{
		core.TypeTextField, core.TypeTextView, core.TypeSecureTextField, core.TypeOther,
	}

	AnyTypes = []core.ElementType{core.TypeAny}
)

// SearchKind says which element attributes a SearchID is compared against.
type SearchKind int

const (
	// KindControlName matches the accessibility identifier
	KindControlName SearchKind = iota
	// KindVisibleText matches label, value, title or placeholder
	KindVisibleText
)

// SearchID is one way to recognize the target element.
type SearchID struct {
	Kind  SearchKind
	Value string
	// root also accepts the identifier carrying RootTag
	root bool
}

// ControlName matches elements whose identifier is the normalized name.
func ControlName(name string) SearchID {
	return SearchID{Kind: KindControlName, Value: name}
}

// ControlRoot is ControlName that also accepts the container rendered as
// "<Name>:-gx:Root:-:".
func ControlRoot(name string) SearchID {
	return SearchID{Kind: KindControlName, Value: name, root: true}
}

// VisibleText matches elements showing text.
func VisibleText(text string) SearchID {
	return SearchID{Kind: KindVisibleText, Value: text}
}

// Target matches text either as a control name or as visible text.
func Target(text string) []SearchID {
	return []SearchID{ControlName(text), VisibleText(text)}
}

// Matches reports whether e satisfies the identifier.
func (id SearchID) Matches(e *core.Element) bool {
	switch id.Kind {
	case KindControlName:
		return matchControl(e.Identifier, id.Value, id.root)
	case KindVisibleText:
		return matchVisibleText(e, id.Value)
	}
	return false
}

func (id SearchID) String() string {
	switch id.Kind {
	case KindControlName:
		if id.root {
			return fmt.Sprintf("control %q (or root)", naming.Normalize(id.Value))
		}
		return fmt.Sprintf("control %q", naming.Normalize(id.Value))
	default:
		return fmt.Sprintf("text %q", id.Value)
	}
}

func matchControl(identifier, name string, allowRoot bool) bool {
	if identifier == "" {
		return false
	}
	want := naming.Normalize(name)
	if strings.HasSuffix(identifier, RootTag) {
		return allowRoot && naming.Normalize(strings.TrimSuffix(identifier, RootTag)) == want
	}
	return naming.Normalize(identifier) == want
}

func matchVisibleText(e *core.Element, text string) bool {
	if text == "" {
		return false
	}
	return e.Label == text ||
		e.Value == text ||
		e.Title == text ||
		(e.PlaceholderValue == text && e.Value == "")
}

func matchAny(e *core.Element, ids []SearchID) bool {
	for _, id := range ids {
		if id.Matches(e) {
			return true
		}
	}
	return false
}

func describeIDs(ids []SearchID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, " or ")
}

// Disambiguate picks the candidate whose type appears earliest in types.
// Ties keep document order.
func Disambiguate(candidates []*core.Element, types []core.ElementType) *core.Element {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	bestRank := typeRank(best, types)
	for _, c := range candidates[1:] {
		if r := typeRank(c, types); r < bestRank {
			best, bestRank = c, r
		}
	}
	return best
}

func typeRank(e *core.Element, types []core.ElementType) int {
	for i, t := range types {
		if t == core.TypeAny || t == e.Type {
			return i
		}
	}
	return len(types)
}

// pick applies the type filter and identifiers to candidates in order.
func pick(candidates []*core.Element, ids []SearchID, types []core.ElementType) *core.Element {
	if len(types) == 0 {
		types = AnyTypes
	}
	var matched []*core.Element
	for _, c := range candidates {
		if c.Is(types...) && matchAny(c, ids) {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	if len(types) > 1 {
		return Disambiguate(matched, types)
	}
	return matched[0]
}
