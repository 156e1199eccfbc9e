package locator

import (
	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/logger"
)

var barTypes = []core.ElementType{core.TypeNavigationBar, core.TypeToolbar}

// findInBars searches the application bar: the visible bars first, then the
// overflow sheet behind the more-actions button, then the bars again with
// the full timeout.
func (l *Locator) findInBars(q Query) (*core.Element, error) {
	if el := l.searchBarsOnce(q); el != nil {
		return el, nil
	}

	if el := l.searchOverflow(q); el != nil {
		return el, nil
	}

	if q.Timeout > 0 {
		var found *core.Element
		if l.Poll(q.Timeout, func() bool {
			found = l.searchBarsOnce(q)
			return found != nil
		}) {
			return found, nil
		}
	}
	return nil, notFound(q)
}

func (l *Locator) searchBarsOnce(q Query) *core.Element {
	snapshot, err := l.snapshot()
	if err != nil {
		return nil
	}
	return searchScope(scope{roots: snapshot.Descendants(barTypes...)}, q.IDs, q.Types)
}

// searchOverflow taps the more-actions affordance and searches the sheet it
// opens. The sheet is left open when nothing matches.
func (l *Locator) searchOverflow(q Query) *core.Element {
	snapshot, err := l.snapshot()
	if err != nil {
		return nil
	}
	more := moreActionsButton(snapshot)
	if more == nil {
		return nil
	}

	x, y := more.Bounds.Center()
	logger.Debug("opening application bar overflow at (%.0f, %.0f)", x, y)
	if err := l.driver.Tap(x, y); err != nil {
		logger.Warn("tap on more actions failed: %v", err)
		return nil
	}

	var found *core.Element
	l.Poll(l.sheetTimeout, func() bool {
		snapshot, err := l.snapshot()
		if err != nil {
			return false
		}
		sheets := snapshot.Descendants(core.TypeSheet, core.TypeMenu)
		if len(sheets) == 0 {
			return false
		}
		found = searchScope(scope{roots: sheets[:1]}, q.IDs, q.Types)
		return true
	})
	return found
}

func moreActionsButton(snapshot *core.Element) *core.Element {
	for _, bar := range snapshot.Descendants(barTypes...) {
		for _, b := range bar.Descendants(core.TypeButton) {
			if b.Identifier == MoreActionTag {
				return b
			}
		}
	}
	for _, bar := range snapshot.Descendants(barTypes...) {
		for _, b := range bar.Descendants(core.TypeButton) {
			if b.Identifier == "Share" || b.Label == "Share" {
				return b
			}
		}
	}
	return nil
}
