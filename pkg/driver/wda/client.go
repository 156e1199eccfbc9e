package wda

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gxtest/uitest/pkg/logger"
)

// Client is an HTTP client for WebDriverAgent.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

// NewClient creates a WDA client for a server on localhost.
func NewClient(port uint16) *Client {
	return NewClientURL(fmt.Sprintf("http://localhost:%d", port))
}

// NewClientURL creates a WDA client for the server at baseURL.
func NewClientURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Error is an error reported by WDA in a response value.
type Error struct {
	Kind    string // W3C error code, e.g. "no such alert"
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "WDA error: " + e.Kind
	}
	return "WDA error: " + e.Kind + ": " + e.Message
}

// IsNoSuchAlert reports whether err says that no alert is shown.
func IsNoSuchAlert(err error) bool {
	var wdaErr *Error
	return errors.As(err, &wdaErr) && wdaErr.Kind == "no such alert"
}

// response is a decoded WDA reply: {"value": ..., "sessionId": ...}.
type response map[string]interface{}

func (r response) value() interface{} { return r["value"] }

func (r response) stringValue() (string, bool) {
	s, ok := r.value().(string)
	return s, ok
}

func (r response) objectValue() (map[string]interface{}, bool) {
	m, ok := r.value().(map[string]interface{})
	return m, ok
}

// session returns the session id, either W3C style inside value or the
// legacy top-level field.
func (r response) session() string {
	if v, ok := r.objectValue(); ok {
		if id, ok := v["sessionId"].(string); ok && id != "" {
			return id
		}
	}
	id, _ := r["sessionId"].(string)
	return id
}

// Session management

// SessionOptions are the capabilities sent when a session starts.
type SessionOptions struct {
	BundleID    string
	Environment map[string]string
	// AlertAction is "accept", "dismiss" or empty
	AlertAction string
}

func (o SessionOptions) capabilities() map[string]interface{} {
	match := map[string]interface{}{}
	if o.BundleID != "" {
		match["bundleId"] = o.BundleID
	}
	if len(o.Environment) > 0 {
		match["environment"] = o.Environment
	}
	if o.AlertAction != "" {
		match["defaultAlertAction"] = o.AlertAction
	}
	return map[string]interface{}{
		"capabilities": map[string]interface{}{"alwaysMatch": match},
	}
}

// CreateSession creates a new WDA session, launching the app when a bundle
// id is given.
func (c *Client) CreateSession(opts SessionOptions) error {
	resp, err := c.do(http.MethodPost, "/session", opts.capabilities())
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	id := resp.session()
	if id == "" {
		return fmt.Errorf("failed to create session: no session id in response")
	}
	c.sessionID = id
	return nil
}

// DeleteSession ends the current session.
func (c *Client) DeleteSession() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.do(http.MethodDelete, "/session/"+c.sessionID, nil)
	c.sessionID = ""
	return err
}

// HasSession returns true if a session is active.
func (c *Client) HasSession() bool { return c.sessionID != "" }

// SessionID returns the current session ID.
func (c *Client) SessionID() string { return c.sessionID }

// Status returns WDA status.
func (c *Client) Status() (map[string]interface{}, error) {
	return c.do(http.MethodGet, "/status", nil)
}

// App management

// LaunchApp launches an app with optional environment variables.
func (c *Client) LaunchApp(bundleID string, environment map[string]string) error {
	body := map[string]interface{}{"bundleId": bundleID}
	if len(environment) > 0 {
		body["environment"] = environment
	}
	return c.command("/wda/apps/launch", body)
}

// TerminateApp terminates an app by bundle ID.
func (c *Client) TerminateApp(bundleID string) error {
	return c.command("/wda/apps/terminate", map[string]interface{}{"bundleId": bundleID})
}

// Touch actions

func point(x, y float64) map[string]interface{} {
	return map[string]interface{}{"x": x, "y": y}
}

// Tap performs a tap at coordinates.
func (c *Client) Tap(x, y float64) error {
	return c.command("/wda/tap", point(x, y))
}

// DoubleTap performs a double tap at coordinates.
func (c *Client) DoubleTap(x, y float64) error {
	return c.command("/wda/doubleTap", point(x, y))
}

// LongPress touches and holds at coordinates for durationSec seconds.
func (c *Client) LongPress(x, y float64, durationSec float64) error {
	body := point(x, y)
	body["duration"] = durationSec
	return c.command("/wda/touchAndHold", body)
}

// Swipe drags from one point to another over durationSec seconds.
func (c *Client) Swipe(fromX, fromY, toX, toY float64, durationSec float64) error {
	return c.command("/wda/dragfromtoforduration", map[string]interface{}{
		"fromX":    fromX,
		"fromY":    fromY,
		"toX":      toX,
		"toY":      toY,
		"duration": durationSec,
	})
}

// Input

func keys(text string) map[string]interface{} {
	return map[string]interface{}{"value": strings.Split(text, "")}
}

// SendKeys types text into the focused element.
func (c *Client) SendKeys(text string) error {
	return c.command("/wda/keys", keys(text))
}

// ElementSendKeys types text into an element. For picker wheels the text
// is the value to scroll to.
func (c *Client) ElementSendKeys(elementID, text string) error {
	return c.command("/element/"+elementID+"/value", keys(text))
}

// SetPasteboard replaces the device pasteboard with plain text.
func (c *Client) SetPasteboard(text string) error {
	return c.command("/wda/setPasteboard", map[string]interface{}{
		"content":     base64.StdEncoding.EncodeToString([]byte(text)),
		"contentType": "plaintext",
	})
}

// Screen

// Screenshot captures the screen as PNG.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.query("/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp.stringValue()
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64Decode(encoded)
}

// Source returns the UI hierarchy as XML.
func (c *Client) Source() (string, error) {
	resp, err := c.query("/source")
	if err != nil {
		return "", err
	}
	source, ok := resp.stringValue()
	if !ok {
		return "", fmt.Errorf("invalid source response")
	}
	return source, nil
}

// WindowSize returns the screen dimensions in points.
func (c *Client) WindowSize() (width, height int, err error) {
	resp, err := c.query("/window/size")
	if err != nil {
		return 0, 0, err
	}
	size, ok := resp.objectValue()
	if !ok {
		return 0, 0, fmt.Errorf("invalid window size response")
	}
	w, _ := size["width"].(float64)
	h, _ := size["height"].(float64)
	return int(w), int(h), nil
}

// Element finding

// FindElement returns the id of the first element matching the strategy.
func (c *Client) FindElement(using, value string) (string, error) {
	resp, err := c.do(http.MethodPost, c.sessionPath("/element"), map[string]interface{}{
		"using": using,
		"value": value,
	})
	if err != nil {
		return "", err
	}
	if ref, ok := resp.objectValue(); ok {
		if id, ok := ref["ELEMENT"].(string); ok {
			return id, nil
		}
		// W3C element reference key
		for k, v := range ref {
			if id, ok := v.(string); ok && k != "error" {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("element not found")
}

// Alerts

// AlertText returns the text of the frontmost alert, system alerts
// included. ok is false when no alert is shown.
func (c *Client) AlertText() (text string, ok bool, err error) {
	resp, err := c.query("/alert/text")
	if IsNoSuchAlert(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	text, ok = resp.stringValue()
	return text, ok, nil
}

// AlertButtons returns the button labels of the frontmost alert.
func (c *Client) AlertButtons() ([]string, error) {
	resp, err := c.query("/wda/alert/buttons")
	if err != nil {
		return nil, err
	}
	values, _ := resp.value().([]interface{})
	labels := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			labels = append(labels, s)
		}
	}
	return labels, nil
}

// AcceptAlert taps the alert button with the given label, or the default
// accept button when name is empty.
func (c *Client) AcceptAlert(name string) error {
	body := map[string]interface{}{}
	if name != "" {
		body["name"] = name
	}
	return c.command("/alert/accept", body)
}

// HTTP helpers

func (c *Client) sessionPath(path string) string {
	if c.sessionID != "" {
		return "/session/" + c.sessionID + path
	}
	return path
}

// command POSTs body to a session endpoint and discards the reply.
func (c *Client) command(path string, body interface{}) error {
	_, err := c.do(http.MethodPost, c.sessionPath(path), body)
	return err
}

// query GETs a session endpoint.
func (c *Client) query(path string) (response, error) {
	return c.do(http.MethodGet, c.sessionPath(path), nil)
}

func (c *Client) do(method, path string, body interface{}) (response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logger.Debug("wda %s %s -> %d", method, path, resp.StatusCode)
	return decodeResponse(data)
}

func decodeResponse(data []byte) (response, error) {
	var result response
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w (body: %s)", err, string(data))
	}
	if v, ok := result.objectValue(); ok {
		if kind, ok := v["error"].(string); ok {
			msg, _ := v["message"].(string)
			return nil, &Error{Kind: kind, Message: msg}
		}
	}
	return result, nil
}

func base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
