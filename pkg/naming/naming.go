// Package naming canonicalizes control names and parses dotted context paths
// such as "grid1.item(3).name".
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var itemPattern = regexp.MustCompile(`(?i)^item\(([0-9]+)\)$`)

// Normalize returns name with its first rune upper-cased and the rest
// lower-cased. Generated apps render control identifiers in this form.
func Normalize(name string) string {
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + strings.ToLower(name[size:])
}

// SegmentKind distinguishes the two kinds of path segment.
type SegmentKind int

const (
	SegmentControl SegmentKind = iota
	SegmentItem
)

// Segment is one step of a context path.
type Segment struct {
	Kind SegmentKind
	// Name is the normalized control name (SegmentControl)
	Name string
	// Index is the 1-based row index (SegmentItem); 0 when unparsable
	Index int
}

// String renders the segment the way it is written in a context.
func (s Segment) String() string {
	if s.Kind == SegmentItem {
		return fmt.Sprintf("item(%d)", s.Index)
	}
	return s.Name
}

// Path is a parsed context.
type Path []Segment

// String renders the canonical dotted form.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// ParseContext splits a dotted context into segments. It never fails: an
// empty context yields an empty path.
func ParseContext(context string) Path {
	if context == "" {
		return nil
	}
	components := strings.Split(context, ".")
	path := make(Path, 0, len(components))
	for _, c := range components {
		if m := itemPattern.FindStringSubmatch(c); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				n = 0
			}
			path = append(path, Segment{Kind: SegmentItem, Index: n})
			continue
		}
		path = append(path, Segment{Kind: SegmentControl, Name: Normalize(c)})
	}
	return path
}
