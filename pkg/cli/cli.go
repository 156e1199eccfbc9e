// Package cli provides the command-line interface for gxuitest.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gxtest/uitest/pkg/config"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to gxuitest.yaml (default: ./gxuitest.yaml when present)",
		EnvVars: []string{"GXUITEST_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "wda-url",
		Usage:   "WebDriverAgent URL (default: http://localhost:<wda.port>)",
		EnvVars: []string{"GXUITEST_WDA_URL"},
	},
	&cli.StringFlag{
		Name:    "bundle-id",
		Usage:   "Bundle identifier of the app under test",
		EnvVars: []string{"GXUITEST_BUNDLE_ID"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"GXUITEST_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "gxuitest",
		Usage:   "UI test runner for GeneXus iOS apps",
		Version: Version,
		Description: `gxuitest runs generated UI test scripts against an app driven by
WebDriverAgent, and writes JSON, JUnit and Allure reports.

Examples:
  gxuitest run tests/
  gxuitest run login.js -e USER=test --server https://vt.example.com
  gxuitest compare captured.png reference.png --diff diff.png
  gxuitest hierarchy --compact`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			compareCommand,
			hierarchyCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configured file (or ./gxuitest.yaml) and applies
// global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if url := c.String("wda-url"); url != "" {
		cfg.WDA.URL = url
	}
	if id := c.String("bundle-id"); id != "" {
		if cfg.App.ProjectCode == cfg.App.BundleID {
			cfg.App.ProjectCode = ""
		}
		cfg.App.BundleID = id
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
