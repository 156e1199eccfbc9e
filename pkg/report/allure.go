package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/logger"
)

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureStep represents a step within a test result.
type AllureStep struct {
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// AllureCategory defines a failure category with regex matching.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// AllureDir is the results directory inside a report dir.
const AllureDir = "allure-results"

// GenerateAllure generates Allure-compatible report files in <reportDir>/allure-results/.
func GenerateAllure(reportDir string) error {
	index, tests, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	allureDir := filepath.Join(reportDir, AllureDir)
	if err := ensureDir(allureDir); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	for i, entry := range index.Tests {
		result := buildAllureResult(&entry, &tests[i], index)
		if err := atomicWriteJSON(filepath.Join(allureDir, entry.ID+"-result.json"), result); err != nil {
			return fmt.Errorf("write allure result %s: %w", entry.ID, err)
		}
		copyAttachments(reportDir, allureDir, tests[i].Activities)
	}

	if err := writeAllureCategories(allureDir); err != nil {
		return err
	}
	return writeAllureEnvironment(allureDir, index)
}

func buildAllureResult(entry *TestEntry, test *core.TestResult, index *Index) AllureResult {
	start := test.StartTime.UnixMilli()

	labels := []AllureLabel{
		{Name: "suite", Value: index.Name},
		{Name: "framework", Value: "gxuitest"},
	}
	if entry.SourceFile != "" {
		labels = append(labels, AllureLabel{Name: "parentSuite", Value: filepath.Base(entry.SourceFile)})
	}
	if index.Device.Name != "" {
		labels = append(labels, AllureLabel{Name: "host", Value: index.Device.Name})
	}

	details := AllureStatusDetails{Message: entry.Error}
	if details.Message == "" {
		details.Message = entry.Failure
	}
	details.Trace = strings.Join(failureLines(test.Activities, nil), "\n")

	return AllureResult{
		UUID:          index.RunID + "-" + entry.ID,
		HistoryID:     fnv32aHash(entry.Name + ":" + entry.SourceFile),
		FullName:      entry.Name,
		Name:          entry.Name,
		Status:        mapAllureStatus(entry.Status),
		Stage:         "finished",
		Start:         start,
		Stop:          start + test.Duration.Milliseconds(),
		Labels:        labels,
		StatusDetails: details,
		Steps:         buildAllureSteps(test.Activities),
		Attachments:   []AllureAttachment{},
	}
}

// buildAllureSteps recursively builds Allure steps from activities.
func buildAllureSteps(activities []core.ActivityResult) []AllureStep {
	steps := make([]AllureStep, 0, len(activities))
	for _, a := range activities {
		start := a.StartTime.UnixMilli()
		step := AllureStep{
			Name:          a.Name,
			Status:        mapAllureStatus(a.Status),
			Stage:         "finished",
			Start:         start,
			Stop:          start + a.Duration.Milliseconds(),
			StatusDetails: AllureStatusDetails{Message: strings.Join(a.Failures, "\n")},
			Steps:         buildAllureSteps(a.Children),
			Attachments:   []AllureAttachment{},
		}
		for _, att := range a.Attachments {
			if att.Path == "" {
				continue
			}
			step.Attachments = append(step.Attachments, AllureAttachment{
				Name:   att.Name,
				Source: filepath.Base(att.Path),
				Type:   att.ContentType,
			})
		}
		steps = append(steps, step)
	}
	return steps
}

// copyAttachments copies attachment files from assets subdirs into allure-results/ flat.
func copyAttachments(reportDir, allureDir string, activities []core.ActivityResult) {
	for _, a := range activities {
		for _, att := range a.Attachments {
			if att.Path == "" {
				continue
			}
			copyFile(filepath.Join(reportDir, att.Path), filepath.Join(allureDir, filepath.Base(att.Path)))
		}
		copyAttachments(reportDir, allureDir, a.Children)
	}
}

// copyFile copies a single file from src to dst, logging failures.
func copyFile(src, dst string) {
	in, err := os.Open(src)
	if err != nil {
		logger.Warn("attachment %s missing: %v", src, err)
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		logger.Warn("failed to create %s: %v", dst, err)
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		logger.Warn("failed to copy %s to %s: %v", src, dst, err)
	}
}

// mapAllureStatus maps a test status to an Allure status string.
func mapAllureStatus(s core.Status) string {
	switch s {
	case core.StatusPassed:
		return "passed"
	case core.StatusFailed:
		return "failed"
	case core.StatusErrored:
		return "broken"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// writeAllureCategories writes categories.json for failure categorization.
func writeAllureCategories(allureDir string) error {
	categories := []AllureCategory{
		{Name: "Element Not Found", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*could not find.*"},
		{Name: "Screenshot Mismatch", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*screenshots do not match.*|.*image sizes differ.*"},
		{Name: "Missing Reference", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*server image not available.*"},
		{Name: "Visual Service Error", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*getting server image.*"},
		{Name: "Assertion Failed", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*expected.*|.*should.*"},
		{Name: "Script Error", MatchedStatuses: []string{"broken"}, MessageRegex: ".*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	if err := os.WriteFile(filepath.Join(allureDir, "categories.json"), data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}
	return nil
}

// writeAllureEnvironment writes environment.properties with device/app metadata.
func writeAllureEnvironment(allureDir string, index *Index) error {
	var b strings.Builder
	b.WriteString("framework=gxuitest\n")
	if index.Device.Name != "" {
		b.WriteString(fmt.Sprintf("device.name=%s\n", index.Device.Name))
	}
	if index.Device.OSVersion != "" {
		b.WriteString(fmt.Sprintf("device.osVersion=%s\n", index.Device.OSVersion))
	}
	if index.App.BundleID != "" {
		b.WriteString(fmt.Sprintf("app.bundleId=%s\n", index.App.BundleID))
	}
	if index.Runner.Version != "" {
		b.WriteString(fmt.Sprintf("runner.version=%s\n", index.Runner.Version))
	}

	path := filepath.Join(allureDir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}
	return nil
}
