// Package report records the activity tree of test runs and writes it out.
//
// Layout of a report directory:
//   - report.json: run index (device, app, summary, one entry per test)
//   - tests/test-XXX.json: full activity tree of one test
//   - assets/test-XXX/: attachments captured while the test ran
//   - junit-report.xml, allure-results/: renderings for CI tooling
package report

import (
	"time"

	"github.com/gxtest/uitest/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// ============================================================================
// INDEX (report.json)
// ============================================================================

// Index is the main report file that binds everything together.
type Index struct {
	Version   string      `json:"version"`
	RunID     string      `json:"runId"`
	Name      string      `json:"name"`
	Status    core.Status `json:"status"`
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	Device    Device      `json:"device"`
	App       App         `json:"app"`
	Runner    RunnerInfo  `json:"runner"`
	Summary   Summary     `json:"summary"`
	Tests     []TestEntry `json:"tests"`
}

// Device contains device information.
type Device struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Platform    string `json:"platform,omitempty"`
	OSVersion   string `json:"osVersion,omitempty"`
	IsSimulator bool   `json:"isSimulator"`
}

// App contains application information.
type App struct {
	BundleID    string `json:"bundleId,omitempty"`
	ProjectCode string `json:"projectCode,omitempty"`
}

// RunnerInfo identifies the tool that produced the report.
type RunnerInfo struct {
	Version string `json:"version"`
	Server  string `json:"visualTestingServer,omitempty"`
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
}

// TestEntry is the index entry for a test (minimal info).
type TestEntry struct {
	Index      int             `json:"index"`
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	SourceFile string          `json:"sourceFile,omitempty"`
	DataFile   string          `json:"dataFile"`
	AssetsDir  string          `json:"assetsDir,omitempty"`
	Status     core.Status     `json:"status"`
	StartTime  time.Time       `json:"startTime"`
	Duration   int64           `json:"duration"` // milliseconds
	Activities ActivitySummary `json:"activities"`
	Failure    string          `json:"failure,omitempty"` // first failure message
	Error      string          `json:"error,omitempty"`
}

// ActivitySummary counts top-level activities of a test.
type ActivitySummary struct {
	Total  int `json:"total"`
	Failed int `json:"failed"`
}

// Meta describes the environment of a run.
type Meta struct {
	Device Device
	App    App
	Runner RunnerInfo
}

// DeviceFromPlatform converts host platform info.
func DeviceFromPlatform(p *core.PlatformInfo) Device {
	if p == nil {
		return Device{}
	}
	return Device{
		ID:          p.DeviceID,
		Name:        p.DeviceName,
		Platform:    p.Platform,
		OSVersion:   p.OSVersion,
		IsSimulator: p.IsSimulator,
	}
}
