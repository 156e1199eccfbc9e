// Package locator finds elements in UI snapshots by control name or visible
// text, scoped by a dotted context path, with bounded polling.
package locator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/logger"
	"github.com/gxtest/uitest/pkg/naming"
)

// ApplicationBarContext routes a search to the navigation bars and toolbars.
const ApplicationBarContext = "applicationbar"

// Default timings.
const (
	DefaultPollInterval = 250 * time.Millisecond
	DefaultSheetTimeout = 2 * time.Second
)

var errNotYet = errors.New("not found yet")

// Query describes one element search.
type Query struct {
	IDs     []SearchID
	Context string
	// Types restricts candidates; nil means any type
	Types   []core.ElementType
	Timeout time.Duration
}

func (q Query) describe() string {
	if q.Context == "" {
		return describeIDs(q.IDs)
	}
	return fmt.Sprintf("%s at '%s'", describeIDs(q.IDs), q.Context)
}

// Locator resolves queries against fresh snapshots from a driver.
type Locator struct {
	driver       core.Driver
	interval     time.Duration
	sheetTimeout time.Duration
}

// Option configures a Locator.
type Option func(*Locator)

// WithPollInterval sets the delay between snapshot attempts.
func WithPollInterval(d time.Duration) Option {
	return func(l *Locator) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithSheetTimeout bounds the wait for the more-actions sheet.
func WithSheetTimeout(d time.Duration) Option {
	return func(l *Locator) {
		if d > 0 {
			l.sheetTimeout = d
		}
	}
}

// New creates a Locator.
func New(driver core.Driver, opts ...Option) *Locator {
	l := &Locator{
		driver:       driver,
		interval:     DefaultPollInterval,
		sheetTimeout: DefaultSheetTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Driver returns the host the locator queries.
func (l *Locator) Driver() core.Driver {
	return l.driver
}

// Find returns the first element satisfying q, polling until q.Timeout.
// A miss is reported as core.ErrElementNotFound.
func (l *Locator) Find(q Query) (*core.Element, error) {
	if strings.EqualFold(q.Context, ApplicationBarContext) {
		return l.findInBars(q)
	}

	path := naming.ParseContext(q.Context)
	var found *core.Element
	ok := l.Poll(q.Timeout, func() bool {
		snapshot, err := l.snapshot()
		if err != nil {
			return false
		}
		found = searchScope(resolveScope(snapshot, path), q.IDs, q.Types)
		return found != nil
	})
	if !ok {
		return nil, notFound(q)
	}
	return found, nil
}

// Exists reports whether q resolves within its timeout.
func (l *Locator) Exists(q Query) bool {
	_, err := l.Find(q)
	return err == nil
}

// Snapshot returns a fresh application snapshot.
func (l *Locator) Snapshot() (*core.Element, error) {
	return l.snapshot()
}

// FindIn searches an already captured subtree without polling. The root is
// eligible when includeRoot is set.
func FindIn(root *core.Element, ids []SearchID, types []core.ElementType, includeRoot bool) *core.Element {
	return searchScope(scope{roots: []*core.Element{root}, includeRoots: includeRoot}, ids, types)
}

// Poll runs attempt immediately and then at the poll interval until it
// succeeds or timeout elapses. A zero timeout makes a single attempt.
func (l *Locator) Poll(timeout time.Duration, attempt func() bool) bool {
	if attempt() {
		return true
	}
	if timeout <= 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	b := backoff.WithContext(backoff.NewConstantBackOff(l.interval), ctx)
	err := backoff.Retry(func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if attempt() {
			return nil
		}
		return errNotYet
	}, b)
	return err == nil
}

func (l *Locator) snapshot() (*core.Element, error) {
	snapshot, err := l.driver.Source()
	if err != nil {
		logger.Debug("snapshot failed: %v", err)
		return nil, core.ErrDriver.WithCause(err)
	}
	return snapshot, nil
}

func notFound(q Query) *core.ExecutionError {
	return core.ErrElementNotFound.WithMessage(fmt.Sprintf("no element matching %s", q.describe())).
		WithDetails(map[string]interface{}{"context": q.Context, "timeout": q.Timeout.String()})
}

// scope is the set of roots one attempt searches.
type scope struct {
	roots        []*core.Element
	includeRoots bool
}

// resolveScope walks the path and applies modal alert interception: while
// an alert is shown it is the only searchable region, unless the path
// already resolved inside it.
func resolveScope(snapshot *core.Element, path naming.Path) scope {
	root := resolvePath(snapshot, path)
	if alert := modalAlert(snapshot, root); alert != nil {
		return scope{roots: []*core.Element{alert}}
	}
	return scope{roots: []*core.Element{root}, includeRoots: len(path) > 0}
}

// resolvePath descends one segment at a time and stops silently at the
// first segment that cannot be resolved.
func resolvePath(snapshot *core.Element, path naming.Path) *core.Element {
	root := snapshot
	for i, seg := range path {
		var next *core.Element
		switch seg.Kind {
		case naming.SegmentItem:
			cells := root.Descendants(core.TypeCell)
			if seg.Index >= 1 && seg.Index <= len(cells) {
				next = cells[seg.Index-1]
			}
		case naming.SegmentControl:
			id := ControlName(seg.Name)
			if i == len(path)-1 {
				id = ControlRoot(seg.Name)
			}
			next = FindIn(root, []SearchID{id}, AnyTypes, false)
		}
		if next == nil {
			logger.Debug("context segment %q not resolved, searching from %s", seg.String(), root.Type)
			break
		}
		root = next
	}
	return root
}

// modalAlert returns the alert that takes over a search rooted at root, or
// nil when no alert is shown or root lies inside it.
func modalAlert(snapshot, root *core.Element) *core.Element {
	var alert *core.Element
	if snapshot.Type == core.TypeAlert {
		alert = snapshot
	} else if alerts := snapshot.Descendants(core.TypeAlert); len(alerts) > 0 {
		alert = alerts[0]
	}
	if alert == nil {
		return nil
	}
	if root != alert {
		for _, a := range root.Ancestors() {
			if a == alert {
				return nil
			}
		}
	}
	return alert
}

// searchScope returns an eligible root that matches before looking at any
// descendant, so a labelled container wins over a child showing the same
// text.
func searchScope(sc scope, ids []SearchID, types []core.ElementType) *core.Element {
	if sc.includeRoots {
		if found := pick(sc.roots, ids, types); found != nil {
			return found
		}
	}
	var candidates []*core.Element
	for _, root := range sc.roots {
		candidates = append(candidates, root.Descendants()...)
	}
	return pick(candidates, ids, types)
}
