package visual

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gxtest/uitest/pkg/core"
)

// Agent is sent in the GeneXus-Agent header.
const Agent = "SmartDevice Application"

// Device types sent in the DeviceType header.
const (
	DeviceTypePhone  = 1
	DeviceTypeTablet = 2
)

// ClientInfo is the device metadata the service records with each request.
type ClientInfo struct {
	DeviceName string
	OSName     string
	OSVersion  string
	DeviceType int
	DeviceID   string
	Language   string
}

// DefaultClientInfo describes the host with a fresh device id.
func DefaultClientInfo() ClientInfo {
	name, _ := os.Hostname()
	return ClientInfo{
		DeviceName: name,
		OSName:     "iOS",
		DeviceType: DeviceTypePhone,
		DeviceID:   uuid.NewString(),
		Language:   "en",
	}
}

// ClientInfoFromPlatform builds client metadata from the driver's device.
// Simulators have no stable UDID to report, so a random id is used.
func ClientInfoFromPlatform(info *core.PlatformInfo) ClientInfo {
	ci := DefaultClientInfo()
	if info == nil {
		return ci
	}
	if info.DeviceName != "" {
		ci.DeviceName = info.DeviceName
	}
	if info.OSVersion != "" {
		ci.OSVersion = info.OSVersion
	}
	if info.DeviceID != "" {
		if id, err := uuid.Parse(info.DeviceID); err == nil {
			ci.DeviceID = id.String()
		} else {
			ci.DeviceID = info.DeviceID
		}
	}
	if info.Locale != "" {
		ci.Language = info.Locale
	}
	if isTablet(info.DeviceModel) || isTablet(info.DeviceName) {
		ci.DeviceType = DeviceTypeTablet
	}
	return ci
}

func isTablet(name string) bool {
	return strings.HasPrefix(name, "iPad")
}

func (ci ClientInfo) apply(h http.Header) {
	h.Set("DeviceName", ci.DeviceName)
	h.Set("DeviceOSName", ci.OSName)
	h.Set("DeviceOSVersion", ci.OSVersion)
	h.Set("DeviceType", strconv.Itoa(ci.DeviceType))
	h.Set("DeviceId", ci.DeviceID)
	h.Set("GeneXus-Agent", Agent)
	h.Set("Accept-Language", ci.Language)
	h.Set("GxTZOffset", tzOffset(time.Now()))
}

// tzOffset formats the local UTC offset as GMT+hh:mm.
func tzOffset(t time.Time) string {
	return "GMT" + t.Format("-07:00")
}
