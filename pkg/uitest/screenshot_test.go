package uitest

import (
	"encoding/json"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxtest/uitest/pkg/config"
	"github.com/gxtest/uitest/pkg/imagediff"
	"github.com/gxtest/uitest/pkg/visual"
)

const screenshotScreen = `<AppiumAUT>
<XCUIElementTypeApplication type="XCUIElementTypeApplication" x="0" y="0" width="100" height="200">
  <XCUIElementTypeWindow type="XCUIElementTypeWindow" value="{&quot;gx.data&quot;:{&quot;safeAreaInsets&quot;:{&quot;top&quot;:20,&quot;left&quot;:0,&quot;bottom&quot;:10,&quot;right&quot;:0}}}" x="0" y="0" width="100" height="200">
    <XCUIElementTypeOther type="XCUIElementTypeOther" name="Header:-gx:Root:-:" x="0" y="20" width="100" height="40">
      <XCUIElementTypeImage type="XCUIElementTypeImage" name="Logo" x="10" y="30" width="40" height="20"/>
    </XCUIElementTypeOther>
  </XCUIElementTypeWindow>
</XCUIElementTypeApplication>
</AppiumAUT>`

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	data, err := imagediff.Encode(img)
	require.NoError(t, err)
	return data
}

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
)

// visualService fakes the reference image endpoints.
type visualService struct {
	server    *httptest.Server
	reference []byte
	failGet   bool
	diffID    string
	uploads   [][]byte
	stored    []map[string]interface{}
}

func newVisualService(t *testing.T) *visualService {
	t.Helper()
	v := &visualService{diffID: "7"}
	mux := http.NewServeMux()
	mux.HandleFunc("/GetResource", func(w http.ResponseWriter, r *http.Request) {
		if v.failGet {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if v.reference == nil {
			w.Write([]byte(`{"image": ""}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"image": v.server.URL + "/ref.png"})
	})
	mux.HandleFunc("/ref.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(v.reference)
	})
	mux.HandleFunc("/SetResource/gxobject", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		v.uploads = append(v.uploads, data)
		w.Write([]byte(`{"object_id": "obj-1"}`))
	})
	mux.HandleFunc("/SetResource", func(w http.ResponseWriter, r *http.Request) {
		var params map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		v.stored = append(v.stored, params)
		w.Write([]byte(`{"diffId": ` + v.diffID + `}`))
	})
	v.server = httptest.NewServer(mux)
	t.Cleanup(v.server.Close)
	return v
}

func newScreenshotHarness(t *testing.T, svc *visualService) *harness {
	t.Helper()
	cfg := testConfig()
	cfg.VisualTestingServer = svc.server.URL
	cfg.App.ProjectCode = "sales"
	cfg.Timeouts.IdleBeforeScreenshot = 250 * time.Millisecond
	h := newHarness(t, screenshotScreen, cfg)
	h.driver.Config.Screenshot = solidPNG(t, 200, 400, white)
	return h
}

func imageSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := imagediff.Decode(data)
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestVerifyScreenshotStoresMissingReference(t *testing.T) {
	svc := newVisualService(t)
	h := newScreenshotHarness(t, svc)

	h.tester.VerifyScreenshot("home", "", "")

	assert.Equal(t, []string{"Server image not available for image reference 'home'"}, h.tester.Failures())
	assert.Equal(t, outcomeNoReference, h.tester.lastScreenshot)
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, h.sleeps)
	assert.Equal(t, []string{"screenshot", "diff-id"}, h.report.attachments)
	assert.Equal(t, visual.DiffID("7"), h.tester.lastDiffID)

	require.Len(t, svc.uploads, 1)
	w, hgt := imageSize(t, svc.uploads[0])
	assert.Equal(t, 200, w)
	assert.Equal(t, 340, hgt)

	require.Len(t, svc.stored, 1)
	assert.Equal(t, "sales", svc.stored[0]["projectCode"])
	assert.Equal(t, "CustomerTest", svc.stored[0]["testCode"])
	assert.Equal(t, "home", svc.stored[0]["resourceReference"])
	assert.Equal(t, "obj-1", svc.stored[0]["image"])
}

func TestVerifyScreenshotMatch(t *testing.T) {
	svc := newVisualService(t)
	svc.reference = solidPNG(t, 200, 340, white)
	h := newScreenshotHarness(t, svc)

	h.tester.VerifyScreenshot("home", "", "")

	assert.Empty(t, h.tester.Failures())
	assert.Equal(t, outcomeMatched, h.tester.lastScreenshot)
	assert.Empty(t, svc.uploads)
	assert.Empty(t, h.report.attachments)
}

func TestVerifyScreenshotMismatch(t *testing.T) {
	svc := newVisualService(t)
	svc.reference = solidPNG(t, 200, 340, black)
	h := newScreenshotHarness(t, svc)

	h.tester.VerifyScreenshot("home", "", "")

	assert.Equal(t, []string{"Screenshots do not match for image reference 'home'"}, h.tester.Failures())
	assert.Equal(t, outcomeMismatch, h.tester.lastScreenshot)
	assert.Len(t, svc.uploads, 1)
	assert.Equal(t, []string{"screenshot", "reference", "diff", "diff-id"}, h.report.attachments)
	assert.Equal(t, visual.DiffID("7"), h.tester.lastDiffID)
}

func TestVerifyScreenshotWithoutDiffID(t *testing.T) {
	svc := newVisualService(t)
	svc.reference = solidPNG(t, 200, 340, black)
	svc.diffID = "null"
	h := newScreenshotHarness(t, svc)

	h.tester.VerifyScreenshot("home", "", "")

	assert.Equal(t, outcomeMismatch, h.tester.lastScreenshot)
	assert.False(t, h.tester.lastDiffID.Valid())
	assert.Equal(t, []string{"screenshot", "reference", "diff"}, h.report.attachments)
}

func TestVerifyScreenshotSizeMismatch(t *testing.T) {
	svc := newVisualService(t)
	svc.reference = solidPNG(t, 10, 10, white)
	h := newScreenshotHarness(t, svc)

	h.tester.VerifyScreenshot("home", "", "")

	require.Len(t, h.tester.Failures(), 1)
	assert.Contains(t, h.tester.Failures()[0], "image sizes differ")
	assert.Equal(t, outcomeIndeterminate, h.tester.lastScreenshot)
	assert.Empty(t, svc.uploads)
}

func TestVerifyScreenshotNetworkError(t *testing.T) {
	svc := newVisualService(t)
	svc.failGet = true
	h := newScreenshotHarness(t, svc)

	h.tester.VerifyScreenshot("home", "", "")

	assert.Equal(t, []string{"Unexpected error getting server image for image reference 'home'"}, h.tester.Failures())
	assert.Equal(t, outcomeNetworkError, h.tester.lastScreenshot)
}

func TestVerifyScreenshotWithoutServer(t *testing.T) {
	svc := newVisualService(t)
	h := newScreenshotHarness(t, svc)
	h.tester.cfg.VisualTestingServer = ""

	h.tester.VerifyScreenshot("home", "", "")

	assert.Equal(t, []string{"Unexpected error getting server image for image reference 'home'"}, h.tester.Failures())
}

func TestVerifyScreenshotControl(t *testing.T) {
	svc := newVisualService(t)
	h := newScreenshotHarness(t, svc)

	h.tester.VerifyScreenshot("logo", "Logo", "")
	h.tester.VerifyScreenshot("header", "header", "")

	require.Len(t, svc.uploads, 2)
	w, hgt := imageSize(t, svc.uploads[0])
	assert.Equal(t, []int{80, 40}, []int{w, hgt})
	w, hgt = imageSize(t, svc.uploads[1])
	assert.Equal(t, []int{200, 80}, []int{w, hgt})
	assert.Equal(t, []string{"VerifyScreenshot 'Logo'", "  FAIL Server image not available for image reference 'logo'",
		"VerifyScreenshot 'header'", "  FAIL Server image not available for image reference 'header'"}, h.report.events)
}

func TestVerifyScreenshotMissingControl(t *testing.T) {
	svc := newVisualService(t)
	h := newScreenshotHarness(t, svc)

	h.tester.VerifyScreenshot("logo", "Nothing", "")

	assert.Equal(t, []string{"Could not find control with name 'Nothing'"}, h.tester.Failures())
	assert.Equal(t, outcomeCaptureFailed, h.tester.lastScreenshot)
	assert.Empty(t, svc.uploads)
}

func TestVerifyScreenshotWithoutAppData(t *testing.T) {
	svc := newVisualService(t)
	h := newScreenshotHarness(t, svc)
	h.driver.Root().Children[0].Value = ""

	h.tester.VerifyScreenshot("home", "", "")

	assert.Equal(t, []string{
		"Could not retrieve GX app data value for safeAreaInsets",
		"Server image not available for image reference 'home'",
	}, h.tester.Failures())
	require.Len(t, svc.uploads, 1)
	w, hgt := imageSize(t, svc.uploads[0])
	assert.Equal(t, []int{200, 400}, []int{w, hgt})
}

func TestVerifyScreenshotCaptureFailure(t *testing.T) {
	svc := newVisualService(t)
	h := newScreenshotHarness(t, svc)
	h.driver.Config.Screenshot = nil

	h.tester.VerifyScreenshot("home", "", "")

	require.Len(t, h.tester.Failures(), 1)
	assert.Contains(t, h.tester.Failures()[0], "Could not find applications main screen")
	assert.Equal(t, outcomeCaptureFailed, h.tester.lastScreenshot)
}

func TestSafeAreaInsets(t *testing.T) {
	h := newHarness(t, screenshotScreen, config.Default())
	root, err := h.driver.Source()
	require.NoError(t, err)

	insets, err := safeAreaInsets(root)
	require.NoError(t, err)
	assert.Equal(t, Insets{Top: 20, Bottom: 10}, insets)

	root.Children[0].Value = `{"gx.data": {}}`
	_, err = safeAreaInsets(root)
	assert.ErrorIs(t, err, errNoAppData)

	root.Children[0].Value = `not json`
	_, err = safeAreaInsets(root)
	assert.Error(t, err)
}
