package core

import (
	"time"
)

// ActivityResult captures one reportable activity (one verb invocation, or a
// nested step inside it)
type ActivityResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Failures recorded while this activity was the innermost open one
	Failures []string `json:"failures,omitempty"`

	Attachments []Attachment     `json:"attachments,omitempty"`
	Children    []ActivityResult `json:"children,omitempty"`
}

// Failed reports whether the activity or any nested activity recorded a failure
func (a *ActivityResult) Failed() bool {
	if len(a.Failures) > 0 {
		return true
	}
	for i := range a.Children {
		if a.Children[i].Failed() {
			return true
		}
	}
	return false
}

// TestResult captures the complete outcome of executing one test script
type TestResult struct {
	// Identity
	Name     string `json:"name"`
	FilePath string `json:"filePath,omitempty"`

	// Platform info (captured once per test)
	PlatformInfo *PlatformInfo `json:"platformInfo,omitempty"`

	// Status (aggregated from activities)
	Status Status `json:"status"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Activities []ActivityResult `json:"activities"`

	// Summary (computed)
	TotalActivities  int `json:"totalActivities"`
	FailedActivities int `json:"failedActivities"`

	// Error is set when the script itself aborted (exception, host failure)
	Error string `json:"error,omitempty"`
}

// ComputeSummary calculates activity counts and the aggregated status
func (t *TestResult) ComputeSummary() {
	t.TotalActivities = len(t.Activities)
	t.FailedActivities = 0
	for i := range t.Activities {
		if t.Activities[i].Failed() {
			t.FailedActivities++
		}
	}

	switch {
	case t.Error != "":
		t.Status = StatusErrored
	case t.FailedActivities > 0:
		t.Status = StatusFailed
	default:
		t.Status = StatusPassed
	}
}

// Failures returns every failure message in the test, depth first
func (t *TestResult) Failures() []string {
	var out []string
	var collect func(a *ActivityResult)
	collect = func(a *ActivityResult) {
		out = append(out, a.Failures...)
		for i := range a.Children {
			collect(&a.Children[i])
		}
	}
	for i := range t.Activities {
		collect(&t.Activities[i])
	}
	return out
}

// SuiteResult captures the complete outcome of executing multiple tests
type SuiteResult struct {
	// Identity
	Name  string `json:"name"`
	RunID string `json:"runId"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Tests []TestResult `json:"tests"`

	// Summary
	TotalTests   int `json:"totalTests"`
	PassedTests  int `json:"passedTests"`
	FailedTests  int `json:"failedTests"`
	ErroredTests int `json:"erroredTests"`
}

// ComputeSummary calculates test counts from the Tests slice
func (s *SuiteResult) ComputeSummary() {
	s.TotalTests = len(s.Tests)
	s.PassedTests = 0
	s.FailedTests = 0
	s.ErroredTests = 0

	for _, test := range s.Tests {
		switch test.Status {
		case StatusPassed:
			s.PassedTests++
		case StatusFailed:
			s.FailedTests++
		case StatusErrored:
			s.ErroredTests++
		}
	}
}

// Success returns true if all tests passed
func (s *SuiteResult) Success() bool {
	for _, test := range s.Tests {
		if !test.Status.IsSuccess() {
			return false
		}
	}
	return len(s.Tests) > 0
}
