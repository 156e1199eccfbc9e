package report

import (
	"sync"
	"time"

	"github.com/gxtest/uitest/pkg/core"
)

// ScriptActivity holds failures reported while no activity was open.
const ScriptActivity = "Script"

type activityNode struct {
	result   core.ActivityResult
	children []*activityNode
}

func (n *activityNode) build() core.ActivityResult {
	out := n.result
	out.Children = nil
	for _, c := range n.children {
		out.Children = append(out.Children, c.build())
	}
	out.Status = core.StatusPassed
	if out.Failed() {
		out.Status = core.StatusFailed
	}
	return out
}

// Recorder collects the activity tree of one test. It satisfies the
// reporter expected by uitest.Tester.
type Recorder struct {
	mu    sync.Mutex
	now   func() time.Time
	name  string
	file  string
	start time.Time

	platform *core.PlatformInfo
	roots    []*activityNode
	open     []*activityNode
	err      string
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder starts recording a test.
func NewRecorder(name, filePath string, opts ...RecorderOption) *Recorder {
	r := &Recorder{name: name, file: filePath, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.start = r.now()
	return r
}

// BeginActivity opens a nested activity.
func (r *Recorder) BeginActivity(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.push(name)
}

func (r *Recorder) push(name string) *activityNode {
	n := &activityNode{result: core.ActivityResult{Name: name, Status: core.StatusRunning, StartTime: r.now()}}
	if len(r.open) == 0 {
		r.roots = append(r.roots, n)
	} else {
		parent := r.open[len(r.open)-1]
		parent.children = append(parent.children, n)
	}
	r.open = append(r.open, n)
	return n
}

// EndActivity closes the innermost activity.
func (r *Recorder) EndActivity() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.open) == 0 {
		return
	}
	n := r.open[len(r.open)-1]
	n.result.Duration = r.now().Sub(n.result.StartTime)
	r.open = r.open[:len(r.open)-1]
}

// Fail records a failure on the innermost activity.
func (r *Recorder) Fail(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.current()
	n.result.Failures = append(n.result.Failures, message)
}

// Attach adds an artifact to the innermost activity.
func (r *Recorder) Attach(a core.Attachment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.current()
	n.result.Attachments = append(n.result.Attachments, a)
}

// current returns the innermost open activity, opening a closed script
// activity when none is open.
func (r *Recorder) current() *activityNode {
	if len(r.open) > 0 {
		return r.open[len(r.open)-1]
	}
	if last := len(r.roots) - 1; last >= 0 && r.roots[last].result.Name == ScriptActivity {
		return r.roots[last]
	}
	n := r.push(ScriptActivity)
	r.open = r.open[:0]
	return n
}

// SetPlatform records the host the test ran on.
func (r *Recorder) SetPlatform(p *core.PlatformInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platform = p
}

// SetError marks the test as aborted.
func (r *Recorder) SetError(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err.Error()
}

// Result closes any open activity and returns the test outcome.
func (r *Recorder) Result() core.TestResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for i := len(r.open) - 1; i >= 0; i-- {
		r.open[i].result.Duration = now.Sub(r.open[i].result.StartTime)
	}
	r.open = nil

	result := core.TestResult{
		Name:         r.name,
		FilePath:     r.file,
		PlatformInfo: r.platform,
		StartTime:    r.start,
		Duration:     now.Sub(r.start),
		Activities:   make([]core.ActivityResult, 0, len(r.roots)),
		Error:        r.err,
	}
	for _, n := range r.roots {
		result.Activities = append(result.Activities, n.build())
	}
	result.ComputeSummary()
	return result
}
