package uitest

import (
	"encoding/json"
	"errors"
	"image"

	"github.com/gxtest/uitest/pkg/core"
	"github.com/gxtest/uitest/pkg/imagediff"
	"github.com/gxtest/uitest/pkg/locator"
	"github.com/gxtest/uitest/pkg/logger"
	"github.com/gxtest/uitest/pkg/visual"
)

// screenshotOutcome is how the last VerifyScreenshot ended.
type screenshotOutcome int

const (
	outcomeNone screenshotOutcome = iota
	outcomeMatched
	outcomeNoReference
	outcomeMismatch
	outcomeIndeterminate
	outcomeNetworkError
	outcomeCaptureFailed
)

func (o screenshotOutcome) String() string {
	switch o {
	case outcomeMatched:
		return "matched"
	case outcomeNoReference:
		return "no reference"
	case outcomeMismatch:
		return "mismatch"
	case outcomeIndeterminate:
		return "indeterminate"
	case outcomeNetworkError:
		return "network error"
	case outcomeCaptureFailed:
		return "capture failed"
	default:
		return "none"
	}
}

// VerifyScreenshot compares the screen, or one control, with the reference
// image stored on the visual testing service. A missing reference is
// replaced by the capture, and a mismatching capture is stored for review;
// both fail the test.
func (t *Tester) VerifyScreenshot(reference, controlName, inContext string) {
	// let the app settle
	t.sleep(t.cfg.Timeouts.IdleBeforeScreenshot)

	t.runActivity("VerifyScreenshot", controlName, inContext, func() {
		t.lastScreenshot = outcomeCaptureFailed
		t.lastDiffID = ""
		captured := t.captureScreenshot(controlName, inContext)
		if captured == nil {
			return
		}
		t.lastScreenshot = t.compareWithReference(reference, captured)
		logger.Info("screenshot %q: %s", reference, t.lastScreenshot)
	})
}

func (t *Tester) compareWithReference(reference string, captured []byte) screenshotOutcome {
	provider := t.referenceProvider(reference)

	expected, err := provider.GetReferenceImage(t.ctx)
	if err != nil {
		logger.Warn("get reference %q: %v", reference, err)
		t.fail("Unexpected error getting server image for image reference '%s'", reference)
		return outcomeNetworkError
	}
	if expected == nil {
		id, err := provider.SaveReferenceImage(t.ctx, captured)
		if err != nil {
			logger.Warn("save reference %q: %v", reference, err)
		}
		t.attach(core.NewImageAttachment(core.AttachmentScreenshot, captured))
		t.attachDiffID(id)
		t.fail("Server image not available for image reference '%s'", reference)
		return outcomeNoReference
	}

	opts := imagediff.Options{
		PixelPrecision:      t.cfg.Comparison.PixelPrecision,
		PerceptualPrecision: t.cfg.Comparison.PerceptualPrecision,
	}
	result, err := imagediff.CompareBytes(captured, expected, opts)
	if err != nil {
		var execErr *core.ExecutionError
		if errors.As(err, &execErr) {
			t.fail("%s", execErr.Error())
		} else {
			t.fail("Unable to compare screenshots for image reference '%s': %v", reference, err)
		}
		return outcomeIndeterminate
	}
	if result.Match {
		return outcomeMatched
	}

	logger.Info("screenshot %q differs: %d/%d pixels, max ΔE %.2f",
		reference, result.DifferentPixels, result.TotalPixels, result.MaxDeltaE)
	id, err := provider.SaveImageWithDifference(t.ctx, captured)
	if err != nil {
		logger.Warn("save difference %q: %v", reference, err)
	}
	t.attachDifference(captured, expected, opts)
	t.attachDiffID(id)
	t.fail("Screenshots do not match for image reference '%s'", reference)
	return outcomeMismatch
}

// attachDiffID records the difference record the service stored, if any,
// so the report links to it.
func (t *Tester) attachDiffID(id visual.DiffID) {
	t.lastDiffID = id
	if id.Valid() {
		t.attach(core.NewTextAttachment(core.AttachmentDiffID, id.String()))
	}
}

// attachDifference attaches both images and a mask of the differing pixels.
func (t *Tester) attachDifference(captured, expected []byte, opts imagediff.Options) {
	t.attach(core.NewImageAttachment(core.AttachmentScreenshot, captured))
	t.attach(core.NewImageAttachment(core.AttachmentReference, expected))

	a, err := imagediff.Decode(captured)
	if err != nil {
		return
	}
	b, err := imagediff.Decode(expected)
	if err != nil {
		return
	}
	mask, err := imagediff.DiffMask(a, b, opts)
	if err != nil {
		logger.Debug("diff mask: %v", err)
		return
	}
	if data, err := imagediff.Encode(mask); err == nil {
		t.attach(core.NewImageAttachment(core.AttachmentDiff, data))
	}
}

func (t *Tester) referenceProvider(reference string) *visual.Provider {
	return visual.New(visual.Config{
		BaseURL:     t.cfg.VisualTestingServer,
		ProjectCode: t.cfg.App.ProjectCode,
		TestCode:    t.testName,
		Reference:   reference,
	}, visual.WithClientInfo(visual.ClientInfoFromPlatform(t.driver.GetPlatformInfo())))
}

// captureScreenshot returns PNG bytes of the control's frame, or of the
// screen without the safe-area insets when no control is named.
func (t *Tester) captureScreenshot(controlName, inContext string) []byte {
	var control *core.Element
	if controlName != "" {
		control = t.find(locator.Query{
			IDs:     []locator.SearchID{locator.ControlRoot(controlName)},
			Context: inContext,
			Timeout: t.cfg.Timeouts.Existence,
		})
		if control == nil {
			t.fail("Could not find control with name '%s'", controlName)
			return nil
		}
	}

	data, err := t.driver.Screenshot()
	if err != nil {
		t.fail("Could not find applications main screen: %v", err)
		return nil
	}
	img, err := imagediff.Decode(data)
	if err != nil {
		t.fail("Could not decode screenshot: %v", err)
		return nil
	}
	width, _, err := t.driver.WindowSize()
	if err != nil {
		logger.Debug("window size: %v", err)
		width = 0
	}

	var frame core.Bounds
	if control != nil {
		frame = control.Bounds
	} else {
		frame = t.safeArea(img, width)
	}

	out, err := imagediff.Encode(imagediff.CropPoints(img, frame, width))
	if err != nil {
		t.fail("Could not encode screenshot: %v", err)
		return nil
	}
	return out
}

// safeArea returns the screen frame in points minus the insets the app
// publishes in its window value.
func (t *Tester) safeArea(img image.Image, width int) core.Bounds {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if width > 0 {
		h = h * width / w
		w = width
	}
	screen := core.Bounds{Width: w, Height: h}

	root, err := t.locator.Snapshot()
	if err != nil {
		t.fail("Could not retrieve GX app data")
		return screen
	}
	insets, err := safeAreaInsets(root)
	if err != nil {
		t.fail("Could not retrieve GX app data value for safeAreaInsets")
		return screen
	}
	return screen.Inset(int(insets.Top), int(insets.Left), int(insets.Bottom), int(insets.Right))
}

// Insets are edge distances in points.
type Insets struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

type appData struct {
	GXData *struct {
		SafeAreaInsets *Insets `json:"safeAreaInsets"`
	} `json:"gx.data"`
}

var errNoAppData = errors.New("no app data")

// safeAreaInsets reads {"gx.data": {"safeAreaInsets": {...}}} from the
// value of the first window.
func safeAreaInsets(root *core.Element) (Insets, error) {
	window := root
	if root.Type != core.TypeWindow {
		window = root.FirstDescendant(func(e *core.Element) bool { return e.Type == core.TypeWindow })
	}
	if window == nil || window.Value == "" {
		return Insets{}, errNoAppData
	}
	var data appData
	if err := json.Unmarshal([]byte(window.Value), &data); err != nil {
		return Insets{}, err
	}
	if data.GXData == nil || data.GXData.SafeAreaInsets == nil {
		return Insets{}, errNoAppData
	}
	return *data.GXData.SafeAreaInsets, nil
}
