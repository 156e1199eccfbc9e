package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gxtest/uitest/pkg/core"
)

// JUnitFile is the name of the JUnit report inside a report dir.
const JUnitFile = "junit-report.xml"

// WriteJUnit writes junit-report.xml with one testcase per test script.
func WriteJUnit(dir string, suite *core.SuiteResult) error {
	suite.ComputeSummary()
	if err := atomicWriteFile(filepath.Join(dir, JUnitFile), []byte(buildJUnitXML(suite)), 0o644); err != nil {
		return fmt.Errorf("write junit xml: %w", err)
	}
	return nil
}

func buildJUnitXML(suite *core.SuiteResult) string {
	name := suite.Name
	if name == "" {
		name = "gxuitest"
	}
	total := suite.Duration.Seconds()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(
		`<testsuites tests="%d" failures="%d" errors="%d" time="%.3f">`+"\n",
		suite.TotalTests, suite.FailedTests, suite.ErroredTests, total,
	))
	b.WriteString(fmt.Sprintf(
		`  <testsuite name="%s" tests="%d" failures="%d" errors="%d" time="%.3f" timestamp="%s">`+"\n",
		xmlEscape(name), suite.TotalTests, suite.FailedTests, suite.ErroredTests, total,
		suite.StartTime.Format(time.RFC3339),
	))
	for i := range suite.Tests {
		b.WriteString(buildTestCase(&suite.Tests[i]))
	}
	b.WriteString("  </testsuite>\n")
	b.WriteString("</testsuites>\n")
	return b.String()
}

func buildTestCase(test *core.TestResult) string {
	var b strings.Builder
	classname := test.Name
	if test.FilePath != "" {
		classname = strings.TrimSuffix(filepath.Base(test.FilePath), filepath.Ext(test.FilePath))
	}
	b.WriteString(fmt.Sprintf(
		`    <testcase name="%s" classname="%s" time="%.3f">`+"\n",
		xmlEscape(test.Name), xmlEscape(classname), test.Duration.Seconds(),
	))

	if test.FilePath != "" || test.PlatformInfo != nil {
		b.WriteString("      <properties>\n")
		if test.FilePath != "" {
			writeProperty(&b, "file", filepath.Base(test.FilePath))
		}
		if p := test.PlatformInfo; p != nil {
			writeProperty(&b, "device.name", p.DeviceName)
			writeProperty(&b, "device.id", p.DeviceID)
			writeProperty(&b, "device.osVersion", p.OSVersion)
		}
		b.WriteString("      </properties>\n")
	}

	lines := failureLines(test.Activities, nil)
	switch test.Status {
	case core.StatusErrored:
		b.WriteString(fmt.Sprintf(`      <error message="%s" type="ScriptError">%s</error>`+"\n",
			xmlEscape(test.Error), xmlEscape(strings.Join(lines, "\n"))))
	case core.StatusFailed:
		first := ""
		if failures := test.Failures(); len(failures) > 0 {
			first = failures[0]
		}
		b.WriteString(fmt.Sprintf(`      <failure message="%s" type="AssertionError">%s</failure>`+"\n",
			xmlEscape(first), xmlEscape(strings.Join(lines, "\n"))))
	}

	b.WriteString("    </testcase>\n")
	return b.String()
}

func writeProperty(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(fmt.Sprintf(`        <property name="%s" value="%s"/>`+"\n", name, xmlEscape(value)))
}

// failureLines renders "Parent > Child: message" for every failure.
func failureLines(activities []core.ActivityResult, path []string) []string {
	var lines []string
	for _, a := range activities {
		p := append(append([]string(nil), path...), a.Name)
		for _, f := range a.Failures {
			lines = append(lines, strings.Join(p, " > ")+": "+f)
		}
		lines = append(lines, failureLines(a.Children, p)...)
	}
	return lines
}

// xmlEscape escapes special XML characters in a string.
func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
