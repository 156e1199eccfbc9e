package cli

import (
	"fmt"

	"github.com/gxtest/uitest/pkg/config"
	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/driver/wda"
	"github.com/gxtest/uitest/pkg/logger"
)

// launchEnvironment is passed to the app on every launch so the generated
// app runs in test mode.
var launchEnvironment = map[string]string{
	"GX_EXEC_ENV_TEST_MODE_ENABLED": "true",
}

// session is a live connection to the device running the app under test.
type session interface {
	Driver() core.Driver
	// RawSource returns the host's untouched page source.
	RawSource() (string, error)
	// Relaunch restarts the app so each script starts from a clean state.
	Relaunch() error
	Close()
}

// newSession opens a session for cfg. Tests replace it.
var newSession = func(cfg *config.Config, launch bool) (session, error) {
	return newWDASession(cfg, launch)
}

type wdaSession struct {
	client   *wda.Client
	driver   *wda.Driver
	bundleID string
}

func newWDASession(cfg *config.Config, launch bool) (*wdaSession, error) {
	address := cfg.WDAAddress()
	client := wda.NewClientURL(address)

	status, err := client.Status()
	if err != nil {
		return nil, fmt.Errorf("WebDriverAgent not reachable at %s: %w", address, err)
	}

	opts := wda.SessionOptions{AlertAction: cfg.WDA.AlertAction}
	if launch {
		opts.BundleID = cfg.App.BundleID
		opts.Environment = launchEnvironment
	}
	if err := client.CreateSession(opts); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	logger.Info("WDA session %s on %s", client.SessionID(), address)

	info := wda.PlatformInfoFromStatus(status, cfg.Device.Name, cfg.App.BundleID)
	info.Locale = cfg.Device.Locale
	if w, h, err := client.WindowSize(); err == nil {
		info.ScreenWidth, info.ScreenHeight = w, h
	} else {
		logger.Warn("window size unavailable: %v", err)
	}

	return &wdaSession{
		client:   client,
		driver:   wda.NewDriver(client, info),
		bundleID: cfg.App.BundleID,
	}, nil
}

func (s *wdaSession) Driver() core.Driver { return s.driver }

func (s *wdaSession) RawSource() (string, error) { return s.client.Source() }

func (s *wdaSession) Relaunch() error {
	if s.bundleID == "" {
		return nil
	}
	if err := s.client.TerminateApp(s.bundleID); err != nil {
		logger.Debug("terminate %s: %v", s.bundleID, err)
	}
	if err := s.client.LaunchApp(s.bundleID, launchEnvironment); err != nil {
		return core.ErrDriver.WithMessagef("launch %s", s.bundleID).WithCause(err)
	}
	return nil
}

func (s *wdaSession) Close() {
	if err := s.client.DeleteSession(); err != nil {
		logger.Warn("delete session: %v", err)
	}
}
