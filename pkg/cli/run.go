package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gxtest/uitest/pkg/config"
	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/logger"
	"github.com/gxtest/uitest/pkg/report"
	"github.com/gxtest/uitest/pkg/script"
	"github.com/gxtest/uitest/pkg/uitest"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run UI test scripts",
	ArgsUsage: "<script-or-folder>...",
	Description: `Run one or more test scripts. Folders are searched recursively
for .js files, which run in name order.

Examples:
  gxuitest run login.js
  gxuitest run tests/ -e USER=demo --allure
  gxuitest run tests/ --output ./out --flatten`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Usage:   "Visual testing server base URL",
			EnvVars: []string{"GXUITEST_SERVER"},
		},
		&cli.StringFlag{
			Name:  "project-code",
			Usage: "Project code used to key reference images (default: bundle id)",
		},
		&cli.StringFlag{
			Name:  "device-name",
			Usage: "Device name reported to the visual testing server",
		},
		&cli.StringFlag{
			Name:  "locale",
			Usage: "Device locale, used to parse picker labels",
		},
		&cli.BoolFlag{
			Name:  "inline-pickers",
			Usage: "Drive date pickers in their inline calendar form",
		},
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Script variables (KEY=VALUE), available as env.KEY",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Report directory (default: <home>/reports/<timestamp>)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Write reports directly to --output without a timestamp folder",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Also generate Allure results",
		},
		&cli.BoolFlag{
			Name:  "relaunch",
			Usage: "Relaunch the app before every script",
			Value: true,
		},
	},
	Action: runTests,
}

// RunConfig holds everything one run needs.
type RunConfig struct {
	Name      string
	Config    *config.Config
	Scripts   []string
	Env       map[string]string
	OutputDir string
	Allure    bool
	Relaunch  bool
}

func runTests(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no test scripts given")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyRunFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	scripts, err := collectScripts(c.Args().Slice())
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return fmt.Errorf("no .js scripts found in %s", strings.Join(c.Args().Slice(), ", "))
	}

	base := c.String("output")
	if base == "" {
		base = cfg.ReportsDir()
	}
	outputDir, err := resolveOutputDir(base, c.Bool("flatten"), c.IsSet("output"))
	if err != nil {
		return err
	}

	rc := &RunConfig{
		Name:      suiteName(cfg),
		Config:    cfg,
		Scripts:   scripts,
		Env:       parseEnvVars(c.StringSlice("env")),
		OutputDir: outputDir,
		Allure:    c.Bool("allure"),
		Relaunch:  c.Bool("relaunch"),
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeRun(ctx, rc, c.Bool("verbose"), c.App.Writer)
}

func applyRunFlags(c *cli.Context, cfg *config.Config) {
	if v := c.String("server"); v != "" {
		cfg.VisualTestingServer = v
	}
	if v := c.String("project-code"); v != "" {
		cfg.App.ProjectCode = v
	}
	if v := c.String("device-name"); v != "" {
		cfg.Device.Name = v
	}
	if v := c.String("locale"); v != "" {
		cfg.Device.Locale = v
	}
	if c.IsSet("inline-pickers") {
		cfg.Picker.Inline = c.Bool("inline-pickers")
	}
}

func executeRun(ctx context.Context, rc *RunConfig, verbose bool, w io.Writer) error {
	// 1. Create output directory
	if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 2. Initialize logging
	if err := logger.Init(filepath.Join(rc.OutputDir, "gxuitest.log")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log file: %v\n", err)
	}
	defer logger.Close()
	logger.SetVerbose(verbose)
	logger.Info("run %s: %d scripts, reports in %s", rc.Name, len(rc.Scripts), rc.OutputDir)

	// 3. Connect
	sess, err := newSession(rc.Config, true)
	if err != nil {
		return err
	}
	defer sess.Close()

	// 4. Execute
	suite := runScripts(ctx, rc, sess, w)

	// 5. Reports
	if err := writeReports(rc, suite, sess.Driver().GetPlatformInfo()); err != nil {
		return err
	}

	printSummary(w, suite, rc.OutputDir)

	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted")
	}
	if !suite.Success() {
		return fmt.Errorf("%d of %d tests did not pass", suite.FailedTests+suite.ErroredTests, suite.TotalTests)
	}
	return nil
}

// runScripts executes every script in order against one session.
func runScripts(ctx context.Context, rc *RunConfig, sess session, w io.Writer) *core.SuiteResult {
	suite := &core.SuiteResult{
		Name:      rc.Name,
		RunID:     report.NewRunID(),
		StartTime: time.Now(),
	}
	driver := sess.Driver()

	for i, path := range rc.Scripts {
		if ctx.Err() != nil {
			logger.Warn("run cancelled, skipping %d remaining scripts", len(rc.Scripts)-i)
			break
		}

		name := testName(path)
		onTestStart(w, i, len(rc.Scripts), name, path)

		rec := report.NewRecorder(name, path)
		info := driver.GetPlatformInfo()
		rec.SetPlatform(info)

		if rc.Relaunch {
			if err := sess.Relaunch(); err != nil {
				logger.Error("%s: %v", name, err)
				rec.SetError(err)
				result := rec.Result()
				printTestResult(w, &result)
				suite.Tests = append(suite.Tests, result)
				continue
			}
		}

		tester := uitest.New(driver, rc.Config,
			uitest.WithReporter(rec),
			uitest.WithTestName(name),
			uitest.WithContext(ctx))

		opts := []script.Option{
			script.WithContext(ctx),
			script.WithVariables(rc.Env),
		}
		if info != nil {
			opts = append(opts, script.WithPlatform(info.Platform))
		}
		engine := script.New(tester, opts...)

		if err := engine.RunFile(path); err != nil {
			logger.Error("%s: %v", name, err)
			rec.SetError(err)
		}

		result := rec.Result()
		logger.Info("%s: %s (%d/%d activities failed)", name, result.Status, result.FailedActivities, result.TotalActivities)
		printTestResult(w, &result)
		suite.Tests = append(suite.Tests, result)
	}

	suite.Duration = time.Since(suite.StartTime)
	suite.ComputeSummary()
	return suite
}

func writeReports(rc *RunConfig, suite *core.SuiteResult, info *core.PlatformInfo) error {
	meta := report.Meta{
		Device: report.DeviceFromPlatform(info),
		App: report.App{
			BundleID:    rc.Config.App.BundleID,
			ProjectCode: rc.Config.App.ProjectCode,
		},
		Runner: report.RunnerInfo{
			Version: Version,
			Server:  rc.Config.VisualTestingServer,
		},
	}

	if _, err := report.WriteJSON(rc.OutputDir, suite, meta); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := report.WriteJUnit(rc.OutputDir, suite); err != nil {
		return fmt.Errorf("write junit report: %w", err)
	}
	if rc.Allure {
		if err := report.GenerateAllure(rc.OutputDir); err != nil {
			return fmt.Errorf("generate allure results: %w", err)
		}
	}
	return nil
}

// collectScripts expands folders into their .js files, sorted by path.
func collectScripts(paths []string) ([]string, error) {
	var scripts []string
	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			scripts = append(scripts, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("script not found: %s", p)
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".js") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
		sort.Strings(found)
		for _, f := range found {
			add(f)
		}
	}
	return scripts, nil
}

// testName is the script's file name without extension.
func testName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func suiteName(cfg *config.Config) string {
	if cfg.App.ProjectCode != "" {
		return cfg.App.ProjectCode
	}
	return "gxuitest"
}

// resolveOutputDir returns base, or a timestamped folder under it unless
// flatten is set. flatten needs an explicit --output.
func resolveOutputDir(base string, flatten, explicit bool) (string, error) {
	if flatten && !explicit {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}
	if flatten {
		return filepath.Clean(base), nil
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(base, timestamp), nil
}

func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}
