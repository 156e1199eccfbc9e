package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "GXUITEST_HOME"

// homeLocator resolves the install root. Fields are swapped in tests.
type homeLocator struct {
	getenv     func(string) string
	executable func() (string, error)
	getwd      func() (string, error)
}

var defaultLocator = homeLocator{
	getenv:     os.Getenv,
	executable: os.Executable,
	getwd:      os.Getwd,
}

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the gxuitest home directory: $GXUITEST_HOME, else the
// parent of the binary's bin/ directory, else the working directory. The
// result is cached for the life of the process.
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = defaultLocator.home()
	})
	return homeDir
}

// GetReportsDir returns <home>/reports.
func GetReportsDir() string {
	return filepath.Join(GetHome(), "reports")
}

// ReportsDir is report.dir when set, else <home>/reports.
func (c *Config) ReportsDir() string {
	if c.Report.Dir != "" {
		return c.Report.Dir
	}
	return GetReportsDir()
}

func (l homeLocator) home() string {
	if env := l.getenv(envHome); env != "" {
		return env
	}
	if dir := l.installRoot(); dir != "" {
		return dir
	}
	if cwd, err := l.getwd(); err == nil {
		return cwd
	}
	return "."
}

// installRoot returns <home> for a binary installed as <home>/bin/gxuitest.
func (l homeLocator) installRoot() string {
	path, err := l.executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	bin := filepath.Dir(path)
	if filepath.Base(bin) != "bin" {
		return ""
	}
	return filepath.Dir(bin)
}

// ResetHome clears the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
