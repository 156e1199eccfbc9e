package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/gxtest/uitest/pkg/logger"
)

// defaultHTTPTimeout bounds script requests without a timeout option.
const defaultHTTPTimeout = 30 * time.Second

// httpModule returns the http object used by scripts to prepare backend
// data: get, post, put, delete and request(method, url, options).
func (e *Engine) httpModule() *goja.Object {
	obj := e.runtime.NewObject()

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		method := method
		if err := obj.Set(strings.ToLower(method), func(call goja.FunctionCall) goja.Value {
			return e.doHTTPRequest(method, call.Arguments)
		}); err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("failed to set http.%s: %v", strings.ToLower(method), err)))
		}
	}

	if err := obj.Set("request", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(e.runtime.NewTypeError("http.request requires method and url"))
		}
		return e.doHTTPRequest(strings.ToUpper(call.Arguments[0].String()), call.Arguments[1:])
	}); err != nil {
		panic(e.runtime.NewTypeError(fmt.Sprintf("failed to set http.request: %v", err)))
	}

	return obj
}

// requestOptions is the optional second argument of an http call.
type requestOptions struct {
	body    io.Reader
	headers map[string]string
	timeout time.Duration
}

func parseRequestOptions(v goja.Value) requestOptions {
	opts := requestOptions{headers: make(map[string]string), timeout: defaultHTTPTimeout}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return opts
	}
	optsMap, ok := v.Export().(map[string]interface{})
	if !ok {
		return opts
	}

	if h, ok := optsMap["headers"].(map[string]interface{}); ok {
		for k, v := range h {
			opts.headers[k] = fmt.Sprintf("%v", v)
		}
	}
	switch b := optsMap["body"].(type) {
	case string:
		opts.body = strings.NewReader(b)
	case map[string]interface{}, []interface{}:
		data, _ := json.Marshal(b)
		opts.body = bytes.NewReader(data)
		if _, ok := opts.headers["Content-Type"]; !ok {
			opts.headers["Content-Type"] = "application/json"
		}
	}
	switch t := optsMap["timeout"].(type) {
	case int64:
		opts.timeout = time.Duration(t) * time.Millisecond
	case float64:
		opts.timeout = time.Duration(t) * time.Millisecond
	}
	return opts
}

// doHTTPRequest performs a request and returns {status, ok, body, headers, json}.
// Transport failures throw.
func (e *Engine) doHTTPRequest(method string, arguments []goja.Value) goja.Value {
	if len(arguments) < 1 {
		panic(e.runtime.NewTypeError(fmt.Sprintf("http.%s requires url", strings.ToLower(method))))
	}
	url := arguments[0].String()
	var optsValue goja.Value
	if len(arguments) > 1 {
		optsValue = arguments[1]
	}
	opts := parseRequestOptions(optsValue)

	ctx, cancel := context.WithTimeout(e.ctx, opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, opts.body)
	if err != nil {
		panic(e.runtime.NewTypeError(fmt.Sprintf("failed to create request: %v", err)))
	}
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		panic(e.runtime.NewGoError(fmt.Errorf("HTTP request failed: %w", err)))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(e.runtime.NewGoError(fmt.Errorf("failed to read response: %w", err)))
	}
	logger.Debug("script http %s %s -> %d", method, url, resp.StatusCode)

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	response := e.runtime.NewObject()
	response.Set("status", resp.StatusCode)
	response.Set("ok", resp.StatusCode >= 200 && resp.StatusCode < 300)
	response.Set("body", string(bodyBytes))
	response.Set("headers", headers)

	var parsed interface{}
	if err := json.Unmarshal(bodyBytes, &parsed); err == nil {
		response.Set("json", parsed)
	} else {
		response.Set("json", goja.Null())
	}
	return response
}
