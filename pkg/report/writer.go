package report

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/logger"
)

// NewRunID returns a unique run identifier.
func NewRunID() string {
	return uuid.NewString()
}

func testID(i int) string {
	return fmt.Sprintf("test-%03d", i)
}

// WriteJSON writes report.json, one detail file per test and the in-memory
// attachments of every activity. Attachment paths in the written details are
// relative to dir.
func WriteJSON(dir string, suite *core.SuiteResult, meta Meta) (*Index, error) {
	if err := ensureDir(filepath.Join(dir, "tests")); err != nil {
		return nil, fmt.Errorf("create tests dir: %w", err)
	}

	suite.ComputeSummary()
	index := buildIndex(suite, meta)

	for i := range suite.Tests {
		entry := &index.Tests[i]
		test := suite.Tests[i]
		test.Activities = cloneActivities(test.Activities)

		files := &assetWriter{dir: dir, assets: entry.AssetsDir}
		for j := range test.Activities {
			if err := files.write(&test.Activities[j]); err != nil {
				return nil, fmt.Errorf("write assets for %s: %w", entry.ID, err)
			}
		}
		if files.count == 0 {
			entry.AssetsDir = ""
		}

		if err := atomicWriteJSON(filepath.Join(dir, entry.DataFile), test); err != nil {
			return nil, fmt.Errorf("write test %s: %w", entry.ID, err)
		}
	}

	if err := atomicWriteJSON(filepath.Join(dir, "report.json"), index); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	logger.Info("report written to %s (%d tests)", dir, len(index.Tests))
	return index, nil
}

func buildIndex(suite *core.SuiteResult, meta Meta) *Index {
	index := &Index{
		Version:   Version,
		RunID:     suite.RunID,
		Name:      suite.Name,
		Status:    core.StatusPassed,
		StartTime: suite.StartTime,
		EndTime:   suite.StartTime.Add(suite.Duration),
		Device:    meta.Device,
		App:       meta.App,
		Runner:    meta.Runner,
		Summary: Summary{
			Total:   suite.TotalTests,
			Passed:  suite.PassedTests,
			Failed:  suite.FailedTests,
			Errored: suite.ErroredTests,
		},
		Tests: make([]TestEntry, len(suite.Tests)),
	}
	switch {
	case suite.ErroredTests > 0:
		index.Status = core.StatusErrored
	case suite.FailedTests > 0:
		index.Status = core.StatusFailed
	}
	if index.RunID == "" {
		index.RunID = NewRunID()
	}

	for i, test := range suite.Tests {
		id := testID(i)
		entry := TestEntry{
			Index:      i,
			ID:         id,
			Name:       test.Name,
			SourceFile: test.FilePath,
			DataFile:   filepath.Join("tests", id+".json"),
			AssetsDir:  filepath.Join("assets", id),
			Status:     test.Status,
			StartTime:  test.StartTime,
			Duration:   test.Duration.Milliseconds(),
			Activities: ActivitySummary{Total: test.TotalActivities, Failed: test.FailedActivities},
			Error:      test.Error,
		}
		if failures := test.Failures(); len(failures) > 0 {
			entry.Failure = failures[0]
		}
		if index.Device.ID == "" && test.PlatformInfo != nil {
			index.Device = DeviceFromPlatform(test.PlatformInfo)
		}
		index.Tests[i] = entry
	}
	return index
}

func cloneActivities(in []core.ActivityResult) []core.ActivityResult {
	if in == nil {
		return nil
	}
	out := make([]core.ActivityResult, len(in))
	for i, a := range in {
		out[i] = a
		out[i].Attachments = append([]core.Attachment(nil), a.Attachments...)
		out[i].Children = cloneActivities(a.Children)
	}
	return out
}

type assetWriter struct {
	dir    string
	assets string
	count  int
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// write stores attachment bodies under the test's assets dir, depth first.
func (w *assetWriter) write(a *core.ActivityResult) error {
	for i := range a.Attachments {
		att := &a.Attachments[i]
		if len(att.Body) == 0 {
			continue
		}
		w.count++
		name := fmt.Sprintf("%03d-%s%s", w.count, unsafeName.ReplaceAllString(strings.ToLower(att.Name), "_"), extension(att.ContentType))
		rel := filepath.Join(w.assets, name)
		if err := atomicWriteFile(filepath.Join(w.dir, rel), att.Body, 0o644); err != nil {
			return err
		}
		att.Path = rel
	}
	for i := range a.Children {
		if err := w.write(&a.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func extension(contentType string) string {
	switch contentType {
	case core.ContentTypePNG:
		return ".png"
	case core.ContentTypeJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// ReadReport reads an index and all its test details.
func ReadReport(dir string) (*Index, []core.TestResult, error) {
	var index Index
	if err := readJSON(filepath.Join(dir, "report.json"), &index); err != nil {
		return nil, nil, fmt.Errorf("read index: %w", err)
	}
	tests := make([]core.TestResult, len(index.Tests))
	for i, entry := range index.Tests {
		if err := readJSON(filepath.Join(dir, entry.DataFile), &tests[i]); err != nil {
			return nil, nil, fmt.Errorf("read test %s: %w", entry.ID, err)
		}
	}
	return &index, tests, nil
}
