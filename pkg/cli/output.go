package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gxtest/uitest/pkg/core"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Activities at least this slow are highlighted.
const slowThreshold = 5 * time.Second

var colorsEnabled = detectColors()

func detectColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func onTestStart(w io.Writer, idx, total int, name, file string) {
	fmt.Fprintf(w, "\n  %s[%d/%d]%s %s%s%s (%s)\n",
		color(colorCyan), idx+1, total, color(colorReset),
		color(colorBold), name, color(colorReset), file)
	fmt.Fprintln(w, strings.Repeat("─", 60))
}

// printTestResult prints each top-level activity with its failures.
func printTestResult(w io.Writer, t *core.TestResult) {
	for i := range t.Activities {
		printActivity(w, &t.Activities[i], 1)
	}
	if t.Error != "" {
		fmt.Fprintf(w, "    %s! %s%s\n", color(colorRed), t.Error, color(colorReset))
	}

	status := color(colorGreen) + "PASSED" + color(colorReset)
	switch t.Status {
	case core.StatusFailed:
		status = color(colorRed) + "FAILED" + color(colorReset)
	case core.StatusErrored:
		status = color(colorYellow) + "ERROR" + color(colorReset)
	}
	fmt.Fprintf(w, "  %s %s(%s)%s\n", status, color(colorGray), formatDuration(t.Duration.Milliseconds()), color(colorReset))
}

func printActivity(w io.Writer, a *core.ActivityResult, depth int) {
	indent := strings.Repeat("  ", depth+1)
	dur := formatDuration(a.Duration.Milliseconds())
	if a.Duration >= slowThreshold {
		dur = color(colorYellow) + dur + color(colorReset)
	}

	if a.Failed() {
		fmt.Fprintf(w, "%s%s✗%s %s %s(%s)%s\n", indent, color(colorRed), color(colorReset), a.Name, color(colorGray), dur, color(colorReset))
	} else {
		fmt.Fprintf(w, "%s%s✓%s %s %s(%s)%s\n", indent, color(colorGreen), color(colorReset), a.Name, color(colorGray), dur, color(colorReset))
	}
	for _, msg := range a.Failures {
		fmt.Fprintf(w, "%s  %s%s%s\n", indent, color(colorRed), msg, color(colorReset))
	}
	for i := range a.Children {
		printActivity(w, &a.Children[i], depth+1)
	}
}

func printSummary(w io.Writer, suite *core.SuiteResult, reportDir string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("═", 60))
	fmt.Fprintf(w, "  %sSummary%s\n", color(colorBold), color(colorReset))
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, t := range suite.Tests {
		mark := color(colorGreen) + "✓" + color(colorReset)
		switch t.Status {
		case core.StatusFailed:
			mark = color(colorRed) + "✗" + color(colorReset)
		case core.StatusErrored:
			mark = color(colorYellow) + "!" + color(colorReset)
		}
		fmt.Fprintf(w, "  %s %-40s %3d/%-3d %8s\n", mark, truncate(t.Name, 40),
			t.TotalActivities-t.FailedActivities, t.TotalActivities,
			formatDuration(t.Duration.Milliseconds()))
	}

	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  Tests: %s%d passed%s, ", color(colorGreen), suite.PassedTests, color(colorReset))
	if suite.FailedTests > 0 {
		fmt.Fprintf(w, "%s%d failed%s, ", color(colorRed), suite.FailedTests, color(colorReset))
	} else {
		fmt.Fprintf(w, "%d failed, ", suite.FailedTests)
	}
	if suite.ErroredTests > 0 {
		fmt.Fprintf(w, "%s%d errored%s", color(colorYellow), suite.ErroredTests, color(colorReset))
	} else {
		fmt.Fprintf(w, "%d errored", suite.ErroredTests)
	}
	fmt.Fprintf(w, " %s(%s)%s\n", color(colorDim), formatDuration(suite.Duration.Milliseconds()), color(colorReset))
	if reportDir != "" {
		fmt.Fprintf(w, "  Reports: %s\n", reportDir)
	}
	fmt.Fprintln(w, strings.Repeat("═", 60))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
