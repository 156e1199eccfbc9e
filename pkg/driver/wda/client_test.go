package wda

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

// request is what the mock WDA server saw.
type request struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

// mockWDAServer records requests and answers each with respond(path).
func mockWDAServer(t *testing.T, respond func(path string) interface{}) (*httptest.Server, *[]request) {
	t.Helper()
	var seen []request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := request{Method: r.Method, Path: r.URL.Path}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &req.Body)
		}
		seen = append(seen, req)
		jsonResponse(w, respond(r.URL.Path))
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func okResponse(string) interface{} { return map[string]interface{}{"value": nil} }

func sessionClient(url string) *Client {
	return &Client{baseURL: url, httpClient: http.DefaultClient, sessionID: "s1"}
}

func TestNewClient(t *testing.T) {
	client := NewClient(8100)
	if client.baseURL != "http://localhost:8100" {
		t.Errorf("Expected baseURL 'http://localhost:8100', got '%s'", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected httpClient to be initialized")
	}

	if got := NewClientURL("http://10.0.0.5:8100/").baseURL; got != "http://10.0.0.5:8100" {
		t.Errorf("Expected trailing slash trimmed, got %q", got)
	}
}

func TestCreateSession(t *testing.T) {
	server, seen := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": map[string]interface{}{"sessionId": "test-session-123"}}
	})
	client := NewClientURL(server.URL)

	err := client.CreateSession(SessionOptions{
		BundleID:    "com.example.app",
		Environment: map[string]string{"GX_EXEC_ENV_TEST_MODE_ENABLED": "true"},
		AlertAction: "accept",
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if client.SessionID() != "test-session-123" || !client.HasSession() {
		t.Errorf("Expected session 'test-session-123', got '%s'", client.SessionID())
	}

	req := (*seen)[0]
	if req.Method != http.MethodPost || req.Path != "/session" {
		t.Errorf("Expected POST /session, got %s %s", req.Method, req.Path)
	}
	match := req.Body["capabilities"].(map[string]interface{})["alwaysMatch"].(map[string]interface{})
	if match["bundleId"] != "com.example.app" || match["defaultAlertAction"] != "accept" {
		t.Errorf("unexpected capabilities: %v", match)
	}
	if env := match["environment"].(map[string]interface{}); env["GX_EXEC_ENV_TEST_MODE_ENABLED"] != "true" {
		t.Errorf("unexpected environment: %v", env)
	}
}

func TestCreateSessionAlternateFormat(t *testing.T) {
	server, seen := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"sessionId": "alternate-session-456"}
	})
	client := NewClientURL(server.URL)

	if err := client.CreateSession(SessionOptions{}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if client.sessionID != "alternate-session-456" {
		t.Errorf("Expected sessionID 'alternate-session-456', got '%s'", client.sessionID)
	}
	match := (*seen)[0].Body["capabilities"].(map[string]interface{})["alwaysMatch"].(map[string]interface{})
	if len(match) != 0 {
		t.Errorf("Expected empty capabilities, got %v", match)
	}
}

func TestCreateSessionMissingID(t *testing.T) {
	server, _ := mockWDAServer(t, okResponse)
	if err := NewClientURL(server.URL).CreateSession(SessionOptions{}); err == nil {
		t.Error("Expected error when the response has no session id")
	}
}

func TestDeleteSession(t *testing.T) {
	server, seen := mockWDAServer(t, okResponse)
	client := sessionClient(server.URL)

	if err := client.DeleteSession(); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if client.HasSession() {
		t.Error("Expected session to be cleared")
	}
	if req := (*seen)[0]; req.Method != http.MethodDelete || req.Path != "/session/s1" {
		t.Errorf("Expected DELETE /session/s1, got %s %s", req.Method, req.Path)
	}

	// no session, no request
	if err := client.DeleteSession(); err != nil || len(*seen) != 1 {
		t.Errorf("Expected no-op, got err=%v requests=%d", err, len(*seen))
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) error
		path string
		body map[string]interface{}
	}{
		{"tap", func(c *Client) error { return c.Tap(100, 200) }, "/session/s1/wda/tap",
			map[string]interface{}{"x": 100.0, "y": 200.0}},
		{"double tap", func(c *Client) error { return c.DoubleTap(1, 2) }, "/session/s1/wda/doubleTap",
			map[string]interface{}{"x": 1.0, "y": 2.0}},
		{"long press", func(c *Client) error { return c.LongPress(1, 2, 1.5) }, "/session/s1/wda/touchAndHold",
			map[string]interface{}{"x": 1.0, "y": 2.0, "duration": 1.5}},
		{"swipe", func(c *Client) error { return c.Swipe(1, 2, 3, 4, 0.3) }, "/session/s1/wda/dragfromtoforduration",
			map[string]interface{}{"fromX": 1.0, "fromY": 2.0, "toX": 3.0, "toY": 4.0, "duration": 0.3}},
		{"send keys", func(c *Client) error { return c.SendKeys("hi") }, "/session/s1/wda/keys",
			map[string]interface{}{"value": []interface{}{"h", "i"}}},
		{"element send keys", func(c *Client) error { return c.ElementSendKeys("e1", "May") }, "/session/s1/element/e1/value",
			map[string]interface{}{"value": []interface{}{"M", "a", "y"}}},
		{"pasteboard", func(c *Client) error { return c.SetPasteboard("hello") }, "/session/s1/wda/setPasteboard",
			map[string]interface{}{"content": base64.StdEncoding.EncodeToString([]byte("hello")), "contentType": "plaintext"}},
		{"launch", func(c *Client) error { return c.LaunchApp("com.example.app", map[string]string{"K": "V"}) }, "/session/s1/wda/apps/launch",
			map[string]interface{}{"bundleId": "com.example.app", "environment": map[string]interface{}{"K": "V"}}},
		{"terminate", func(c *Client) error { return c.TerminateApp("com.example.app") }, "/session/s1/wda/apps/terminate",
			map[string]interface{}{"bundleId": "com.example.app"}},
		{"accept alert", func(c *Client) error { return c.AcceptAlert("Allow") }, "/session/s1/alert/accept",
			map[string]interface{}{"name": "Allow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, seen := mockWDAServer(t, okResponse)
			if err := tt.call(sessionClient(server.URL)); err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			req := (*seen)[0]
			if req.Method != http.MethodPost || req.Path != tt.path {
				t.Errorf("Expected POST %s, got %s %s", tt.path, req.Method, req.Path)
			}
			if !reflect.DeepEqual(req.Body, tt.body) {
				t.Errorf("Expected body %v, got %v", tt.body, req.Body)
			}
		})
	}
}

func TestScreenshot(t *testing.T) {
	png := []byte("\x89PNG fake")
	server, _ := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": base64.StdEncoding.EncodeToString(png)}
	})

	data, err := sessionClient(server.URL).Screenshot()
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if string(data) != string(png) {
		t.Errorf("Expected %q, got %q", png, data)
	}
}

func TestScreenshotInvalidResponse(t *testing.T) {
	server, _ := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": 123}
	})
	if _, err := sessionClient(server.URL).Screenshot(); err == nil {
		t.Error("Expected error for invalid response")
	}
}

func TestSource(t *testing.T) {
	server, seen := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": "<XCUIElementTypeApplication/>"}
	})

	source, err := sessionClient(server.URL).Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	if source != "<XCUIElementTypeApplication/>" {
		t.Errorf("unexpected source %q", source)
	}
	if (*seen)[0].Path != "/session/s1/source" {
		t.Errorf("Expected /session/s1/source, got %s", (*seen)[0].Path)
	}
}

func TestWindowSize(t *testing.T) {
	server, _ := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": map[string]interface{}{"width": 390.0, "height": 844.0}}
	})

	w, h, err := sessionClient(server.URL).WindowSize()
	if err != nil {
		t.Fatalf("WindowSize failed: %v", err)
	}
	if w != 390 || h != 844 {
		t.Errorf("Expected 390x844, got %dx%d", w, h)
	}
}

func TestWindowSizeInvalidResponse(t *testing.T) {
	server, _ := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": "bad"}
	})
	if _, _, err := sessionClient(server.URL).WindowSize(); err == nil {
		t.Error("Expected error for invalid response")
	}
}

func TestFindElement(t *testing.T) {
	tests := []struct {
		name  string
		value map[string]interface{}
		want  string
	}{
		{"legacy", map[string]interface{}{"ELEMENT": "elem-1"}, "elem-1"},
		{"w3c", map[string]interface{}{"element-6066-11e4-a52e-4f735466cecf": "elem-2"}, "elem-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, seen := mockWDAServer(t, func(string) interface{} {
				return map[string]interface{}{"value": tt.value}
			})
			id, err := sessionClient(server.URL).FindElement("xpath", "//XCUIElementTypePickerWheel[1]")
			if err != nil {
				t.Fatalf("FindElement failed: %v", err)
			}
			if id != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, id)
			}
			if body := (*seen)[0].Body; body["using"] != "xpath" {
				t.Errorf("unexpected body %v", body)
			}
		})
	}
}

func TestFindElementNotFound(t *testing.T) {
	server, _ := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": []interface{}{}}
	})
	if _, err := sessionClient(server.URL).FindElement("xpath", "//x"); err == nil {
		t.Error("Expected error when element is not found")
	}
}

func TestAlertText(t *testing.T) {
	server, _ := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": "Allow camera?\nNeeded for scans"}
	})
	text, shown, err := sessionClient(server.URL).AlertText()
	if err != nil || !shown {
		t.Fatalf("AlertText failed: shown=%v err=%v", shown, err)
	}
	if text != "Allow camera?\nNeeded for scans" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestAlertTextNoAlert(t *testing.T) {
	server, _ := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": map[string]interface{}{
			"error": "no such alert", "message": "An attempt was made to operate on a modal dialog when one was not open",
		}}
	})
	_, shown, err := sessionClient(server.URL).AlertText()
	if err != nil || shown {
		t.Errorf("Expected no alert without error, got shown=%v err=%v", shown, err)
	}
}

func TestAlertButtons(t *testing.T) {
	server, seen := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": []interface{}{"Don't Allow", "OK"}}
	})
	buttons, err := sessionClient(server.URL).AlertButtons()
	if err != nil {
		t.Fatalf("AlertButtons failed: %v", err)
	}
	if !reflect.DeepEqual(buttons, []string{"Don't Allow", "OK"}) {
		t.Errorf("unexpected buttons %v", buttons)
	}
	if (*seen)[0].Path != "/session/s1/wda/alert/buttons" {
		t.Errorf("unexpected path %s", (*seen)[0].Path)
	}
}

func TestAcceptAlertDefault(t *testing.T) {
	server, seen := mockWDAServer(t, okResponse)
	if err := sessionClient(server.URL).AcceptAlert(""); err != nil {
		t.Fatalf("AcceptAlert failed: %v", err)
	}
	if len((*seen)[0].Body) != 0 {
		t.Errorf("Expected empty body, got %v", (*seen)[0].Body)
	}
}

func TestSessionPath(t *testing.T) {
	client := &Client{sessionID: "abc"}
	if path := client.sessionPath("/source"); path != "/session/abc/source" {
		t.Errorf("Expected '/session/abc/source', got '%s'", path)
	}

	client.sessionID = ""
	if path := client.sessionPath("/status"); path != "/status" {
		t.Errorf("Expected '/status', got '%s'", path)
	}
}

func TestWDAError(t *testing.T) {
	server, _ := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{
			"value": map[string]interface{}{
				"error":   "no such element",
				"message": "Element not found using xpath",
			},
		}
	})

	_, err := sessionClient(server.URL).FindElement("xpath", "//invalid")
	if err == nil {
		t.Fatal("Expected error for WDA error response")
	}
	if !strings.Contains(err.Error(), "WDA error: no such element: Element not found") {
		t.Errorf("Expected WDA error message, got: %v", err)
	}
}

func TestInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	if _, err := NewClientURL(server.URL).Status(); err == nil || !strings.Contains(err.Error(), "failed to parse response") {
		t.Errorf("Expected parse error, got %v", err)
	}
}

func TestBase64DecodeInvalid(t *testing.T) {
	if _, err := base64Decode("not valid base64!!!"); err == nil {
		t.Error("Expected error for invalid base64")
	}
}

func TestWDAErrorKind(t *testing.T) {
	server, _ := mockWDAServer(t, func(string) interface{} {
		return map[string]interface{}{"value": map[string]interface{}{"error": "no such alert"}}
	})

	err := sessionClient(server.URL).AcceptAlert("")
	var wdaErr *Error
	if !errors.As(err, &wdaErr) {
		t.Fatalf("Expected *Error, got %T %v", err, err)
	}
	if !IsNoSuchAlert(err) {
		t.Errorf("Expected no such alert, got %v", err)
	}
	if err.Error() != "WDA error: no such alert" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if IsNoSuchAlert(fmt.Errorf("wrapped: %w", &Error{Kind: "no such element"})) {
		t.Error("Expected other kinds not to match")
	}
}
