// Package config handles configuration for gxuitest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gxtest/uitest/pkg/core"
)

// Defaults mirror the timing the generated tests were written against.
const (
	DefaultExistenceTimeout     = 30 * time.Second
	DefaultNonExistenceTimeout  = 1 * time.Second
	DefaultPollInterval         = 250 * time.Millisecond
	DefaultIdleBeforeScreenshot = 1 * time.Second
	DefaultAlertTimeout         = 1 * time.Second
	DefaultSheetTimeout         = 2 * time.Second
	DefaultPixelPrecision       = 1 - 0.001
	DefaultPerceptualPrecision  = 1 - 0.01
	DefaultWDAPort              = 8100
	DefaultLocale               = "en"
)

// Config represents the suite configuration (gxuitest.yaml).
type Config struct {
	// Base address of the visual reference service
	VisualTestingServer string `yaml:"visualTestingServer"`

	App        AppConfig        `yaml:"app"`
	Device     DeviceConfig     `yaml:"device"`
	WDA        WDAConfig        `yaml:"wda"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
	Picker     PickerConfig     `yaml:"picker"`
	Comparison ComparisonConfig `yaml:"comparison"`
	Report     ReportConfig     `yaml:"report"`
}

// AppConfig identifies the application under test.
type AppConfig struct {
	BundleID string `yaml:"bundleId"`
	// ProjectCode keys reference images on the visual service; defaults to BundleID
	ProjectCode string `yaml:"projectCode"`
}

// DeviceConfig overrides what the host reports about the device.
type DeviceConfig struct {
	Name   string `yaml:"name"`
	Locale string `yaml:"locale"`
}

// WDAConfig locates the WebDriverAgent server.
type WDAConfig struct {
	URL  string `yaml:"url"`
	Port uint16 `yaml:"port"`
	// AlertAction ("accept" or "dismiss") lets WDA answer system dialogs
	// that block an interaction; empty leaves them to the script
	AlertAction string `yaml:"alertAction"`
}

// TimeoutConfig holds the locator and dispatcher timings.
type TimeoutConfig struct {
	Existence            time.Duration `yaml:"existence"`
	NonExistence         time.Duration `yaml:"nonExistence"`
	PollInterval         time.Duration `yaml:"pollInterval"`
	IdleBeforeScreenshot time.Duration `yaml:"idleBeforeScreenshot"`
	Alert                time.Duration `yaml:"alert"`
	Sheet                time.Duration `yaml:"sheet"`
}

// PickerConfig selects how date and time pickers are driven.
type PickerConfig struct {
	// Inline selects the calendar/button form instead of wheels
	Inline bool   `yaml:"inline"`
	Locale string `yaml:"locale"`
}

// ComparisonConfig holds the screenshot comparison precisions.
type ComparisonConfig struct {
	PixelPrecision      float64 `yaml:"pixelPrecision"`
	PerceptualPrecision float64 `yaml:"perceptualPrecision"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("parse %s", path)).WithCause(err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadFromDir looks for gxuitest.yaml or gxuitest.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"gxuitest.yaml", "gxuitest.yml"} {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}

	// No config file found, return defaults
	return Default(), nil
}

// ApplyDefaults fills every zero field with its default.
func (c *Config) ApplyDefaults() {
	if c.App.ProjectCode == "" {
		c.App.ProjectCode = c.App.BundleID
	}
	if c.WDA.Port == 0 {
		c.WDA.Port = DefaultWDAPort
	}
	if c.Timeouts.Existence == 0 {
		c.Timeouts.Existence = DefaultExistenceTimeout
	}
	if c.Timeouts.NonExistence == 0 {
		c.Timeouts.NonExistence = DefaultNonExistenceTimeout
	}
	if c.Timeouts.PollInterval == 0 {
		c.Timeouts.PollInterval = DefaultPollInterval
	}
	if c.Timeouts.IdleBeforeScreenshot == 0 {
		c.Timeouts.IdleBeforeScreenshot = DefaultIdleBeforeScreenshot
	}
	if c.Timeouts.Alert == 0 {
		c.Timeouts.Alert = DefaultAlertTimeout
	}
	if c.Timeouts.Sheet == 0 {
		c.Timeouts.Sheet = DefaultSheetTimeout
	}
	if c.Picker.Locale == "" {
		c.Picker.Locale = c.Device.Locale
	}
	if c.Picker.Locale == "" {
		c.Picker.Locale = DefaultLocale
	}
	if c.Comparison.PixelPrecision == 0 {
		c.Comparison.PixelPrecision = DefaultPixelPrecision
	}
	if c.Comparison.PerceptualPrecision == 0 {
		c.Comparison.PerceptualPrecision = DefaultPerceptualPrecision
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if p := c.Comparison.PixelPrecision; p < 0 || p > 1 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("comparison.pixelPrecision must be within [0,1], got %v", p))
	}
	if p := c.Comparison.PerceptualPrecision; p < 0 || p > 1 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("comparison.perceptualPrecision must be within [0,1], got %v", p))
	}
	if c.Timeouts.PollInterval <= 0 {
		return core.ErrInvalidConfig.WithMessage("timeouts.pollInterval must be positive")
	}
	if c.Timeouts.Existence < 0 || c.Timeouts.NonExistence < 0 {
		return core.ErrInvalidConfig.WithMessage("timeouts must not be negative")
	}
	switch c.WDA.AlertAction {
	case "", "accept", "dismiss":
	default:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("wda.alertAction must be accept or dismiss, got %q", c.WDA.AlertAction))
	}
	return nil
}

// WDAAddress returns the WebDriverAgent base URL.
func (c *Config) WDAAddress() string {
	if c.WDA.URL != "" {
		return c.WDA.URL
	}
	return fmt.Sprintf("http://localhost:%d", c.WDA.Port)
}
